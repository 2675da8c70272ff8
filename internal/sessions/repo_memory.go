package sessions

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"resume-enhancer/internal/workflow"
)

// MemoryRepo keeps sessions in process memory. Values are cloned on the way
// in and out so callers never share transcripts.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]workflow.Session
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]workflow.Session)}
}

func (r *MemoryRepo) Create(ctx context.Context, s workflow.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	r.data[s.ID] = s.Clone()
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (workflow.Session, error) {
	if err := ctx.Err(); err != nil {
		return workflow.Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.data[id]
	if !ok {
		return workflow.Session{}, ErrNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryRepo) Update(ctx context.Context, s workflow.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[s.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != s.Version-1 {
		return fmt.Errorf("%w: session %s is at version %d", ErrConflict, s.ID, cur.Version)
	}
	r.data[s.ID] = s.Clone()
	return nil
}

// ListByUser returns a user's sessions, most recently updated first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]workflow.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	var out []workflow.Session
	for _, s := range r.data {
		if s.UserID == userID {
			out = append(out, s.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if offset >= len(out) {
		return []workflow.Session{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
