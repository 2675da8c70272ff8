package llm

import (
	"context"
	"errors"
	"time"

	"resume-enhancer/internal/shared/metrics"
	"resume-enhancer/internal/shared/telemetry"
)

type instrumented struct {
	next     Client
	provider string
	now      func() time.Time
}

// Instrument wraps c so each completion is counted, timed and logged. An
// UnconfiguredClient never reaches a provider and is returned as is.
func Instrument(c Client, provider string) Client {
	switch c.(type) {
	case UnconfiguredClient, *UnconfiguredClient:
		return c
	}
	return &instrumented{next: c, provider: provider, now: time.Now}
}

// Complete counts only calls that reached the provider; a missing credential
// is rejected before any request is made.
func (i *instrumented) Complete(ctx context.Context, req Request) (string, error) {
	start := i.now()
	out, err := i.next.Complete(ctx, req)
	if errors.Is(err, ErrMissingCredential) {
		return "", err
	}
	elapsed := i.now().Sub(start)
	metrics.IncLLMCall(req.Agent)
	metrics.ObserveLLMDurationMs(float64(elapsed.Milliseconds()))

	fields := map[string]any{
		"agent":       req.Agent,
		"provider":    i.provider,
		"duration_ms": elapsed.Milliseconds(),
		"messages":    len(req.Messages),
	}
	if err != nil {
		metrics.IncLLMFailure(req.Agent)
		fields["err"] = err.Error()
		telemetry.Error("llm.call", fields)
		return "", err
	}
	fields["chars"] = len(out)
	telemetry.Info("llm.call", fields)
	return out, nil
}
