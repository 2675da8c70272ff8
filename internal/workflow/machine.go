package workflow

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventUploaded            EventType = "uploaded"
	EventAnalyzed            EventType = "analyzed"
	EventQuestionsGenerated  EventType = "questions_generated"
	EventInterviewStarted    EventType = "interview_started"
	EventUserReplied         EventType = "user_replied"
	EventInterviewerReplied  EventType = "interviewer_replied"
	EventInterviewFinished   EventType = "interview_finished"
	EventInsightsExtracted   EventType = "insights_extracted"
	EventResumeEnhanced      EventType = "resume_enhanced"
	EventVerificationStarted EventType = "verification_started"
	EventVerified            EventType = "verified"
	EventDownloadStarted     EventType = "download_started"
	EventReset               EventType = "reset"
)

// Event is a user action or a completed LLM call applied to a session.
type Event struct {
	Type EventType
	Text string
}

func Uploaded(text string) Event           { return Event{Type: EventUploaded, Text: text} }
func Analyzed(text string) Event           { return Event{Type: EventAnalyzed, Text: text} }
func QuestionsGenerated(text string) Event { return Event{Type: EventQuestionsGenerated, Text: text} }
func InterviewStarted() Event              { return Event{Type: EventInterviewStarted} }
func UserReplied(text string) Event        { return Event{Type: EventUserReplied, Text: text} }
func InterviewerReplied(text string) Event { return Event{Type: EventInterviewerReplied, Text: text} }
func InterviewFinished() Event             { return Event{Type: EventInterviewFinished} }
func InsightsExtracted(text string) Event  { return Event{Type: EventInsightsExtracted, Text: text} }
func ResumeEnhanced(text string) Event     { return Event{Type: EventResumeEnhanced, Text: text} }
func VerificationStarted() Event           { return Event{Type: EventVerificationStarted} }
func Verified(text string) Event           { return Event{Type: EventVerified, Text: text} }
func DownloadStarted() Event               { return Event{Type: EventDownloadStarted} }
func Reset() Event                         { return Event{Type: EventReset} }

var eventStage = map[EventType]Stage{
	EventUploaded:            StageUpload,
	EventAnalyzed:            StageAnalysis,
	EventQuestionsGenerated:  StageAnalysis,
	EventInterviewStarted:    StageAnalysis,
	EventUserReplied:         StageInterview,
	EventInterviewerReplied:  StageInterview,
	EventInterviewFinished:   StageInterview,
	EventInsightsExtracted:   StageEnhancement,
	EventResumeEnhanced:      StageEnhancement,
	EventVerificationStarted: StageEnhancement,
	EventVerified:            StageVerification,
	EventDownloadStarted:     StageVerification,
}

// Machine applies events to a session value. It is not safe for concurrent use;
// callers load a session, advance it and persist the snapshot.
type Machine struct {
	s    Session
	base int64
	now  func() time.Time
}

func NewMachine(s Session) *Machine {
	s = s.Clone()
	if !s.Stage.Valid() {
		s.Stage = StageUpload
	}
	return &Machine{s: s, base: s.Version, now: time.Now}
}

// WithClock overrides the time source used for UpdatedAt.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	if now != nil {
		m.now = now
	}
	return m
}

func (m *Machine) CurrentStage() Stage {
	return m.s.Stage
}

func (m *Machine) Artifacts() Artifacts {
	return m.s.Artifacts
}

func (m *Machine) Transcript() Transcript {
	return m.s.Transcript.clone()
}

// Snapshot returns a copy of the current session value.
func (m *Machine) Snapshot() Session {
	return m.s.Clone()
}

// Advance applies ev. On error the session is left untouched.
func (m *Machine) Advance(ev Event) error {
	if ev.Type == EventReset {
		m.s.Stage = StageUpload
		m.s.Artifacts = Artifacts{}
		m.s.Transcript = nil
		m.s.Upload = nil
		m.s.InterviewPrompt = ""
		m.touch()
		return nil
	}

	want, ok := eventStage[ev.Type]
	if !ok {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Type)
	}
	if m.s.Stage != want {
		return fmt.Errorf("%w: %s not allowed in stage %s", ErrInvalidTransition, ev.Type, m.s.Stage)
	}

	a := &m.s.Artifacts
	switch ev.Type {
	case EventUploaded:
		if err := requireText(ev); err != nil {
			return err
		}
		if a.ResumeText != "" {
			return fmt.Errorf("%w: resume", ErrArtifactExists)
		}
		a.ResumeText = ev.Text
		m.s.Stage = StageAnalysis

	case EventAnalyzed:
		if err := requireText(ev); err != nil {
			return err
		}
		if a.Analysis != "" {
			return fmt.Errorf("%w: analysis", ErrArtifactExists)
		}
		a.Analysis = ev.Text

	case EventQuestionsGenerated:
		if err := requireText(ev); err != nil {
			return err
		}
		if a.Analysis == "" {
			return fmt.Errorf("%w: questions need an analysis", ErrMissingInput)
		}
		if a.Questions != "" {
			return fmt.Errorf("%w: questions", ErrArtifactExists)
		}
		a.Questions = ev.Text

	case EventInterviewStarted:
		if a.Questions == "" {
			return fmt.Errorf("%w: interview needs questions", ErrMissingInput)
		}
		m.s.Stage = StageInterview
		if len(m.s.Transcript) == 0 {
			m.s.Transcript = Transcript{{Role: RoleInterviewer, Text: Greeting}}
		}

	case EventUserReplied:
		if err := requireText(ev); err != nil {
			return err
		}
		m.s.Transcript = append(m.s.Transcript, Turn{Role: RoleUser, Text: ev.Text})

	case EventInterviewerReplied:
		if err := requireText(ev); err != nil {
			return err
		}
		last, ok := m.s.Transcript.Last()
		if !ok || last.Role != RoleUser {
			return fmt.Errorf("%w: interviewer reply must follow a user message", ErrInvalidTransition)
		}
		m.s.Transcript = append(m.s.Transcript, Turn{Role: RoleInterviewer, Text: ev.Text})

	case EventInterviewFinished:
		if !m.s.Transcript.CanFinish() {
			return fmt.Errorf("%w: %d turns, need more than %d", ErrInterviewTooShort, len(m.s.Transcript), MinTranscriptTurns)
		}
		m.s.Stage = StageEnhancement

	case EventInsightsExtracted:
		if err := requireText(ev); err != nil {
			return err
		}
		if !m.s.Transcript.CanFinish() {
			return fmt.Errorf("%w: insights need a finished interview", ErrInterviewTooShort)
		}
		if a.Insights != "" {
			return fmt.Errorf("%w: insights", ErrArtifactExists)
		}
		a.Insights = ev.Text

	case EventResumeEnhanced:
		if err := requireText(ev); err != nil {
			return err
		}
		if a.Insights == "" {
			return fmt.Errorf("%w: enhancement needs insights", ErrMissingInput)
		}
		if a.EnhancedResume != "" {
			return fmt.Errorf("%w: enhanced resume", ErrArtifactExists)
		}
		a.EnhancedResume = ev.Text

	case EventVerificationStarted:
		if a.EnhancedResume == "" {
			return fmt.Errorf("%w: verification needs an enhanced resume", ErrMissingInput)
		}
		m.s.Stage = StageVerification

	case EventVerified:
		if err := requireText(ev); err != nil {
			return err
		}
		if a.EnhancedResume == "" {
			return fmt.Errorf("%w: verification needs an enhanced resume", ErrMissingInput)
		}
		if a.Verification != "" {
			return fmt.Errorf("%w: verification", ErrArtifactExists)
		}
		enhanced, message := ApplyVerification(a.EnhancedResume, ev.Text)
		a.EnhancedResume = enhanced
		a.Verification = message
		a.FinalResume = enhanced

	case EventDownloadStarted:
		if a.Verification == "" {
			return fmt.Errorf("%w: download needs a verified resume", ErrMissingInput)
		}
		m.s.Stage = StageDownload
	}

	m.touch()
	return nil
}

// touch bumps the version once per machine, however many events it applies.
func (m *Machine) touch() {
	m.s.UpdatedAt = m.now().UTC()
	m.s.Version = m.base + 1
}

func requireText(ev Event) error {
	if blank(ev.Text) {
		return fmt.Errorf("%w: %s requires text", ErrMissingInput, ev.Type)
	}
	return nil
}
