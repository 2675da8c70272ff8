// Package workerproc handles stage change messages for the export worker.
// When a session reaches download, both export formats are rendered into the
// object store ahead of the first request.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"resume-enhancer/internal/events"
	"resume-enhancer/internal/sessions"
	"resume-enhancer/internal/shared/metrics"
	"resume-enhancer/internal/shared/telemetry"
	"resume-enhancer/internal/workflow"
)

// MessageMeta captures details useful for logging undecodable payloads.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

func ComputeMeta(body []byte) MessageMeta {
	if len(body) == 0 {
		return MessageMeta{}
	}
	sum := sha256.Sum256(body)
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

func (e ErrDecode) Unwrap() error { return e.Err }

type ErrMissingSession struct {
	Meta MessageMeta
}

func (e ErrMissingSession) Error() string { return "missing session id" }

// ErrProcess wraps a failure after the message was parsed.
type ErrProcess struct {
	SessionID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "prerender exports"
	}
	return "prerender exports: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Outcome tells the transport how to settle a message.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeSkipped   Outcome = "skipped"
	// OutcomeDropped is for messages that can never succeed; they are acked.
	OutcomeDropped Outcome = "dropped"
	// OutcomeFailed is for transient failures; the message should be redelivered.
	OutcomeFailed Outcome = "failed"
)

// Retry reports whether the message should be redelivered.
func (o Outcome) Retry() bool { return o == OutcomeFailed }

// Exporter renders and stores every download format for a session.
type Exporter interface {
	StoreExports(ctx context.Context, userID, id string) ([]string, error)
}

// ParseMessage validates and decodes a stage change payload.
func ParseMessage(body []byte) (events.StageChange, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(string(body)) == "" {
		return events.StageChange{}, meta, ErrEmptyBody{Meta: meta}
	}
	change, err := events.Decode(body)
	if err != nil {
		return events.StageChange{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(change.SessionID) == "" {
		return change, meta, ErrMissingSession{Meta: meta}
	}
	return change, meta, nil
}

// Handle processes one message body. Every outcome is logged and counted.
func Handle(ctx context.Context, exp Exporter, body []byte) (Outcome, error) {
	outcome, err := handle(ctx, exp, body)
	metrics.IncPrerenderJob(string(outcome))
	return outcome, err
}

func handle(ctx context.Context, exp Exporter, body []byte) (Outcome, error) {
	if exp == nil {
		return OutcomeFailed, errors.New("exporter not configured")
	}
	change, meta, err := ParseMessage(body)
	if err != nil {
		fields := map[string]any{"body_len": meta.BodyLen, "error": err.Error()}
		if meta.BodySHA != "" {
			fields["body_sha256"] = meta.BodySHA
		}
		telemetry.Error("worker.prerender.bad_message", fields)
		return OutcomeDropped, err
	}
	if change.To != workflow.StageDownload {
		return OutcomeSkipped, nil
	}

	fields := map[string]any{"session_id": change.SessionID, "user_id": change.UserID}
	keys, err := exp.StoreExports(ctx, change.UserID, change.SessionID)
	if err != nil {
		fields["error"] = err.Error()
		// The session was reset or removed after the event was published.
		if errors.Is(err, sessions.ErrNotFound) || errors.Is(err, sessions.ErrNotReady) {
			telemetry.Warn("worker.prerender.stale", fields)
			return OutcomeDropped, ErrProcess{SessionID: change.SessionID, Err: err}
		}
		telemetry.Error("worker.prerender.failed", fields)
		return OutcomeFailed, ErrProcess{SessionID: change.SessionID, Err: err}
	}
	fields["keys"] = keys
	telemetry.Info("worker.prerender.completed", fields)
	return OutcomeCompleted, nil
}
