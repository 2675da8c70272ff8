package sessions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-enhancer/internal/agents"
	"resume-enhancer/internal/events"
	"resume-enhancer/internal/export"
	"resume-enhancer/internal/ingest"
	"resume-enhancer/internal/shared/metrics"
	"resume-enhancer/internal/shared/storage/object"
	"resume-enhancer/internal/shared/telemetry"
	"resume-enhancer/internal/workflow"
)

// Service runs the stage bodies of a session. Each action loads the session,
// performs at most the LLM calls its stage needs, applies the resulting
// events through a workflow.Machine and persists the new value.
type Service struct {
	Repo   Repo
	Store  object.ObjectStore
	Agents *agents.Agents
	Events events.Publisher
	Now    func() time.Time
	NewID  func() string
}

// Transition reports the stage change produced by an action, if any.
type Transition struct {
	From workflow.Stage
	To   workflow.Stage
}

func (t Transition) Changed() bool { return t.From != t.To }

func (t Transition) String() string {
	return string(t.From) + "->" + string(t.To)
}

// Result is the session after an action together with the transition it caused.
type Result struct {
	Session    workflow.Session
	Transition Transition
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// Create starts a new session for userID at the upload stage.
func (s *Service) Create(ctx context.Context, userID string) (workflow.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return workflow.Session{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	sess := workflow.NewSession(s.newID(), userID, s.now())
	if err := s.Repo.Create(ctx, sess); err != nil {
		return workflow.Session{}, err
	}
	telemetry.Info("session.created", map[string]any{"session_id": sess.ID, "user_id": userID})
	return sess, nil
}

// Get returns a session owned by userID. Other users' sessions are reported as not found.
func (s *Service) Get(ctx context.Context, userID, id string) (workflow.Session, error) {
	if strings.TrimSpace(id) == "" {
		return workflow.Session{}, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}
	sess, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return workflow.Session{}, err
	}
	if sess.UserID != userID {
		return workflow.Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]workflow.Session, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Upload ingests a resume file, stores the original and the extracted text,
// and moves the session to analysis.
func (s *Service) Upload(ctx context.Context, userID, id, fileName, mimeHint string, r io.Reader) (Result, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	if err := requireStage(sess, workflow.StageUpload); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(fileName) == "" {
		return Result{}, fmt.Errorf("%w: file name required", ErrInvalidInput)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	doc, err := ingest.Extract(ctx, data, fileName, mimeHint)
	if err != nil {
		return Result{}, err
	}

	upload := &workflow.Upload{FileName: fileName, MimeType: doc.MimeType, SizeBytes: int64(len(data))}
	if s.Store != nil {
		key, size, _, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
		if err != nil {
			return Result{}, fmt.Errorf("store upload: %w", err)
		}
		upload.StorageKey = key
		upload.SizeBytes = size
		if _, err := s.Store.SaveWithKey(ctx, object.ExtractedKey(sess.ID), export.TextContentType, strings.NewReader(doc.Text)); err != nil {
			return Result{}, fmt.Errorf("store extracted text: %w", err)
		}
	}
	sess.Upload = upload

	return s.apply(ctx, sess, workflow.Uploaded(doc.Text))
}

// Analyze produces whatever of analysis and questions is still missing. Each
// artifact is persisted as soon as it exists, so a failed question call keeps
// the analysis.
func (s *Service) Analyze(ctx context.Context, userID, id string) (Result, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	if err := requireStage(sess, workflow.StageAnalysis); err != nil {
		return Result{}, err
	}
	from := sess.Stage

	if sess.Artifacts.Analysis == "" {
		analysis, err := s.Agents.Analyze(ctx, sess.Artifacts.ResumeText)
		if err != nil {
			return Result{}, err
		}
		res, err := s.apply(ctx, sess, workflow.Analyzed(analysis))
		if err != nil {
			return Result{}, err
		}
		sess = res.Session
	}
	if sess.Artifacts.Questions == "" {
		questions, err := s.Agents.GenerateQuestions(ctx, sess.Artifacts.ResumeText, sess.Artifacts.Analysis)
		if err != nil {
			return Result{}, err
		}
		res, err := s.apply(ctx, sess, workflow.QuestionsGenerated(questions))
		if err != nil {
			return Result{}, err
		}
		sess = res.Session
	}
	return Result{Session: sess, Transition: Transition{From: from, To: sess.Stage}}, nil
}

// StartInterview renders the interviewer's system prompt for this session,
// seeds the greeting and moves to the interview stage.
func (s *Service) StartInterview(ctx context.Context, userID, id string) (Result, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	if err := requireStage(sess, workflow.StageAnalysis); err != nil {
		return Result{}, err
	}
	if sess.InterviewPrompt == "" && sess.Artifacts.Questions != "" {
		a := sess.Artifacts
		interviewer, err := s.Agents.Interviewer(a.ResumeText, a.Analysis, a.Questions)
		if err != nil {
			return Result{}, err
		}
		sess.InterviewPrompt = interviewer.SystemPrompt()
	}
	return s.apply(ctx, sess, workflow.InterviewStarted())
}

// Reply appends the user's message and the interviewer's answer. Nothing is
// persisted when the interviewer call fails.
func (s *Service) Reply(ctx context.Context, userID, id, message string) (Result, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	userTurn := workflow.UserReplied(message)
	draft := workflow.NewMachine(sess)
	if err := draft.Advance(userTurn); err != nil {
		return Result{}, err
	}

	interviewer, err := s.interviewer(sess)
	if err != nil {
		return Result{}, err
	}
	reply, err := interviewer.Respond(ctx, draft.Transcript())
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, sess, userTurn, workflow.InterviewerReplied(reply))
}

// interviewer reuses the prompt rendered at interview start. Sessions stored
// before prompts were persisted get one rendered on the spot.
func (s *Service) interviewer(sess workflow.Session) (*agents.Interviewer, error) {
	if sess.InterviewPrompt != "" {
		return s.Agents.ResumeInterviewer(sess.InterviewPrompt)
	}
	a := sess.Artifacts
	return s.Agents.Interviewer(a.ResumeText, a.Analysis, a.Questions)
}

// FinishInterview moves to enhancement once the transcript is long enough.
func (s *Service) FinishInterview(ctx context.Context, userID, id string) (Result, error) {
	return s.simple(ctx, userID, id, workflow.InterviewFinished())
}

// Enhance extracts insights from the interview and writes the enhanced resume,
// skipping whichever already exists.
func (s *Service) Enhance(ctx context.Context, userID, id string) (Result, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	if err := requireStage(sess, workflow.StageEnhancement); err != nil {
		return Result{}, err
	}
	from := sess.Stage

	if sess.Artifacts.Insights == "" {
		insights, err := s.Agents.ExtractInsights(ctx, sess.Artifacts.ResumeText, sess.Transcript)
		if err != nil {
			return Result{}, err
		}
		res, err := s.apply(ctx, sess, workflow.InsightsExtracted(insights))
		if err != nil {
			return Result{}, err
		}
		sess = res.Session
	}
	if sess.Artifacts.EnhancedResume == "" {
		enhanced, err := s.Agents.Enhance(ctx, sess.Artifacts.ResumeText, sess.Artifacts.Insights)
		if err != nil {
			return Result{}, err
		}
		res, err := s.apply(ctx, sess, workflow.ResumeEnhanced(enhanced))
		if err != nil {
			return Result{}, err
		}
		sess = res.Session
	}
	return Result{Session: sess, Transition: Transition{From: from, To: sess.Stage}}, nil
}

func (s *Service) StartVerification(ctx context.Context, userID, id string) (Result, error) {
	return s.simple(ctx, userID, id, workflow.VerificationStarted())
}

// Verify checks the enhanced resume against the original and fixes the final resume.
func (s *Service) Verify(ctx context.Context, userID, id string) (Result, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	if err := requireStage(sess, workflow.StageVerification); err != nil {
		return Result{}, err
	}
	if sess.Artifacts.Verification != "" {
		return Result{Session: sess, Transition: Transition{From: sess.Stage, To: sess.Stage}}, nil
	}
	verdict, err := s.Agents.Verify(ctx, sess.Artifacts.ResumeText, sess.Artifacts.EnhancedResume)
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, sess, workflow.Verified(verdict))
}

func (s *Service) StartDownload(ctx context.Context, userID, id string) (Result, error) {
	return s.simple(ctx, userID, id, workflow.DownloadStarted())
}

// Export renders the final resume and keeps a copy under exports/<session>/.
// A failed copy is logged; the download itself still succeeds.
func (s *Service) Export(ctx context.Context, userID, id string, format export.Format) (export.File, error) {
	sess, err := s.exportable(ctx, userID, id)
	if err != nil {
		return export.File{}, err
	}
	file, err := export.Render(sess.Artifacts.FinalResume, format)
	if err != nil {
		return export.File{}, err
	}
	if s.Store != nil {
		if _, err := s.saveExport(ctx, sess.ID, file); err != nil {
			telemetry.Warn("session.export.store_failed", map[string]any{
				"session_id": sess.ID,
				"file":       file.Name,
				"error":      err,
			})
		}
	}
	return file, nil
}

// StoreExports renders every format into the object store and returns the keys written.
func (s *Service) StoreExports(ctx context.Context, userID, id string) ([]string, error) {
	if s.Store == nil {
		return nil, errors.New("object store not configured")
	}
	sess, err := s.exportable(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, 2)
	for _, format := range []export.Format{export.FormatText, export.FormatPDF} {
		file, err := export.Render(sess.Artifacts.FinalResume, format)
		if err != nil {
			return keys, err
		}
		key, err := s.saveExport(ctx, sess.ID, file)
		if err != nil {
			return keys, fmt.Errorf("store %s: %w", file.Name, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *Service) exportable(ctx context.Context, userID, id string) (workflow.Session, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return workflow.Session{}, err
	}
	if sess.Stage != workflow.StageDownload || sess.Artifacts.FinalResume == "" {
		return workflow.Session{}, ErrNotReady
	}
	return sess, nil
}

func (s *Service) saveExport(ctx context.Context, sessionID string, file export.File) (string, error) {
	key := object.ExportKey(sessionID, file.Name)
	_, err := s.Store.SaveWithKey(ctx, key, file.ContentType, bytes.NewReader(file.Data))
	return key, err
}

// Reset clears every artifact and the transcript and returns to upload.
func (s *Service) Reset(ctx context.Context, userID, id string) (Result, error) {
	return s.simple(ctx, userID, id, workflow.Reset())
}

func (s *Service) simple(ctx context.Context, userID, id string, ev workflow.Event) (Result, error) {
	sess, err := s.Get(ctx, userID, id)
	if err != nil {
		return Result{}, err
	}
	return s.apply(ctx, sess, ev)
}

// apply advances sess through evs and persists the result. Nothing is stored
// unless every event is accepted.
func (s *Service) apply(ctx context.Context, sess workflow.Session, evs ...workflow.Event) (Result, error) {
	m := workflow.NewMachine(sess).WithClock(s.now)
	from := m.CurrentStage()
	for _, ev := range evs {
		if err := m.Advance(ev); err != nil {
			return Result{}, err
		}
	}
	next := m.Snapshot()
	if err := s.Repo.Update(ctx, next); err != nil {
		return Result{}, fmt.Errorf("persist session: %w", err)
	}

	tr := Transition{From: from, To: next.Stage}
	last := evs[len(evs)-1]
	if tr.Changed() || last.Type == workflow.EventReset {
		s.announce(ctx, next, tr, last)
	}
	return Result{Session: next, Transition: tr}, nil
}

func (s *Service) announce(ctx context.Context, sess workflow.Session, tr Transition, ev workflow.Event) {
	metrics.IncStageTransition(string(tr.To))
	telemetry.Info("session.stage", map[string]any{
		"session_id":        sess.ID,
		"user_id":           sess.UserID,
		"event":             string(ev.Type),
		"status_transition": tr.String(),
	})
	if s.Events == nil {
		return
	}
	change := events.StageChange{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Event:     string(ev.Type),
		From:      tr.From,
		To:        tr.To,
		At:        sess.UpdatedAt,
	}
	if err := s.Events.Publish(ctx, change); err != nil {
		telemetry.Warn("session.stage.publish_failed", map[string]any{"session_id": sess.ID, "error": err})
	}
}

func requireStage(sess workflow.Session, want workflow.Stage) error {
	if sess.Stage != want {
		return fmt.Errorf("%w: session is in stage %s, not %s", workflow.ErrInvalidTransition, sess.Stage, want)
	}
	return nil
}
