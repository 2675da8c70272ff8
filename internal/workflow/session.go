package workflow

import (
	"strings"
	"time"
)

// Greeting is the interviewer's opening line, seeded when the interview starts.
const Greeting = "Hi there! I'm Alex, and I'll be chatting with you today to help enhance your resume. " +
	"I've reviewed your current resume and noticed some areas we could expand on. " +
	"Let's have a conversation about your experience and skills to gather more details. How does that sound?"

// MinTranscriptTurns is the transcript length that must be exceeded before the interview can finish.
const MinTranscriptTurns = 3

// Artifacts holds everything the workflow produces. An empty string means absent.
type Artifacts struct {
	ResumeText     string `json:"resumeText,omitempty"`
	Analysis       string `json:"analysis,omitempty"`
	Questions      string `json:"questions,omitempty"`
	Insights       string `json:"insights,omitempty"`
	EnhancedResume string `json:"enhancedResume,omitempty"`
	Verification   string `json:"verification,omitempty"`
	FinalResume    string `json:"finalResume,omitempty"`
}

type Role string

const (
	RoleUser        Role = "user"
	RoleInterviewer Role = "interviewer"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the ordered interview conversation.
type Transcript []Turn

func (t Transcript) Len() int { return len(t) }

// Last returns the most recent turn.
func (t Transcript) Last() (Turn, bool) {
	if len(t) == 0 {
		return Turn{}, false
	}
	return t[len(t)-1], true
}

// CanFinish reports whether enough conversation happened to move on to enhancement.
func (t Transcript) CanFinish() bool {
	return len(t) > MinTranscriptTurns
}

func (t Transcript) clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Upload describes the stored original file.
type Upload struct {
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	StorageKey string `json:"storageKey"`
	SizeBytes  int64  `json:"sizeBytes"`
}

// Session is the complete, serializable state of one enhancement run.
// InterviewPrompt is the interviewer's system prompt, rendered once when the
// interview starts. Version increases by one with every persisted change.
type Session struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Stage           Stage      `json:"stage"`
	Artifacts       Artifacts  `json:"artifacts"`
	Transcript      Transcript `json:"transcript"`
	Upload          *Upload    `json:"upload,omitempty"`
	InterviewPrompt string     `json:"interviewPrompt,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// NewSession returns an empty session at the upload stage.
func NewSession(id, userID string, now time.Time) Session {
	return Session{
		ID:        id,
		UserID:    userID,
		Stage:     StageUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s Session) Clone() Session {
	out := s
	out.Transcript = s.Transcript.clone()
	if s.Upload != nil {
		u := *s.Upload
		out.Upload = &u
	}
	return out
}

func blank(v string) bool {
	return strings.TrimSpace(v) == ""
}
