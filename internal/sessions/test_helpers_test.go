package sessions

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"resume-enhancer/internal/agents"
	"resume-enhancer/internal/events"
	"resume-enhancer/internal/llm"
	"resume-enhancer/internal/shared/storage/object/local"
)

const testUser = "guest:test-guest"

const sampleResume = "Jane Doe\nSoftware Engineer\nBuilt payment services in Go.\n"

var errUpstream = errors.New("upstream unavailable")

// scriptedLLM answers per agent name and can be told to fail specific agents.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]string
	fail    map[string]error
	calls   []string
	systems []string
}

func newScriptedLLM() *scriptedLLM {
	return &scriptedLLM{
		replies: map[string]string{
			agents.NameAnalyzer:          "Missing metrics for payment work.",
			agents.NameQuestionGenerator: "1. How much traffic did the payment service handle?",
			agents.NameInterviewer:       "Thanks! What was the impact?",
			agents.NameInsightExtractor:  "- Scaled payments to 2k rps",
			agents.NameEnhancer:          "Jane Doe\nSenior Software Engineer\nScaled payment services to 2k rps.",
			agents.NameVerifier:          "All claims are supported by the original resume and interview.",
		},
		fail: map[string]error{},
	}
}

func (s *scriptedLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req.Agent)
	if len(req.Messages) > 0 && req.Messages[0].Role == llm.RoleSystem {
		s.systems = append(s.systems, req.Messages[0].Content)
	}
	if err := s.fail[req.Agent]; err != nil {
		return "", err
	}
	return s.replies[req.Agent], nil
}

func (s *scriptedLLM) setFailure(agent string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, agent)
		return
	}
	s.fail[agent] = err
}

func (s *scriptedLLM) callCount(agent string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == agent {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.StageChange
}

func (p *recordingPublisher) Publish(_ context.Context, change events.StageChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return nil
}

func (p *recordingPublisher) snapshot() []events.StageChange {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.StageChange, len(p.changes))
	copy(out, p.changes)
	return out
}

type testEnv struct {
	svc       *Service
	repo      *MemoryRepo
	llm       *scriptedLLM
	publisher *recordingPublisher
	storeDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := newScriptedLLM()
	ag, err := agents.New(fake)
	if err != nil {
		t.Fatalf("agents.New: %v", err)
	}
	dir := t.TempDir()
	repo := NewMemoryRepo()
	pub := &recordingPublisher{}
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	ids := 0
	svc := &Service{
		Repo:   repo,
		Store:  local.New(dir),
		Agents: ag,
		Events: pub,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			ids++
			return "session-" + strconv.Itoa(ids)
		},
	}
	return &testEnv{svc: svc, repo: repo, llm: fake, publisher: pub, storeDir: dir}
}

// gatedLLM parks calls for one agent until the test releases them, so several
// actions can be made to read the same session version.
type gatedLLM struct {
	*scriptedLLM
	agent   string
	arrived chan struct{}
	release chan struct{}
}

func newGatedLLM(base *scriptedLLM, agent string) *gatedLLM {
	return &gatedLLM{
		scriptedLLM: base,
		agent:       agent,
		arrived:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedLLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	if req.Agent == g.agent {
		g.arrived <- struct{}{}
		<-g.release
	}
	return g.scriptedLLM.Complete(ctx, req)
}

func (s *scriptedLLM) lastSystem() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.systems) == 0 {
		return ""
	}
	return s.systems[len(s.systems)-1]
}
