package sessions

import (
	"time"

	"resume-enhancer/internal/workflow"
)

// SessionResponse is the outward-facing view of a session.
type SessionResponse struct {
	SessionID          string              `json:"sessionId"`
	Stage              workflow.Stage      `json:"stage"`
	StageLabel         string              `json:"stageLabel"`
	NextStage          workflow.Stage      `json:"nextStage"`
	Progress           []workflow.Step     `json:"progress"`
	Artifacts          workflow.Artifacts  `json:"artifacts"`
	Transcript         workflow.Transcript `json:"transcript"`
	CanFinishInterview bool                `json:"canFinishInterview"`
	Upload             *UploadResponse     `json:"upload,omitempty"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// UploadResponse leaves out the storage key.
type UploadResponse struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// SessionSummary is one row of the history listing.
type SessionSummary struct {
	SessionID string         `json:"sessionId"`
	Stage     workflow.Stage `json:"stage"`
	FileName  string         `json:"fileName,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func toResponse(s workflow.Session) SessionResponse {
	transcript := s.Transcript
	if transcript == nil {
		transcript = workflow.Transcript{}
	}
	resp := SessionResponse{
		SessionID:          s.ID,
		Stage:              s.Stage,
		StageLabel:         s.Stage.Label(),
		NextStage:          workflow.NextStage(s.Artifacts, s.Transcript),
		Progress:           workflow.Progress(s.Stage),
		Artifacts:          s.Artifacts,
		Transcript:         transcript,
		CanFinishInterview: s.Stage == workflow.StageInterview && s.Transcript.CanFinish(),
		Version:            s.Version,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if s.Upload != nil {
		resp.Upload = &UploadResponse{
			FileName:  s.Upload.FileName,
			MimeType:  s.Upload.MimeType,
			SizeBytes: s.Upload.SizeBytes,
		}
	}
	return resp
}

func toSummary(s workflow.Session) SessionSummary {
	out := SessionSummary{SessionID: s.ID, Stage: s.Stage, UpdatedAt: s.UpdatedAt}
	if s.Upload != nil {
		out.FileName = s.Upload.FileName
	}
	return out
}
