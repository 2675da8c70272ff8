package sessions

import (
	"context"

	"resume-enhancer/internal/workflow"
)

// Repo persists whole session values. Update only succeeds when the stored
// version is exactly one below s.Version; otherwise it returns ErrConflict.
type Repo interface {
	Create(ctx context.Context, s workflow.Session) error
	GetByID(ctx context.Context, id string) (workflow.Session, error)
	Update(ctx context.Context, s workflow.Session) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]workflow.Session, error)
}
