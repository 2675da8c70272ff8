package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"resume-enhancer/internal/workflow"
)

// PGRepo stores sessions in Postgres. Artifacts, transcript and upload
// metadata travel together in one JSONB column.
type PGRepo struct {
	DB *sql.DB
}

type storedState struct {
	Artifacts       workflow.Artifacts  `json:"artifacts"`
	Transcript      workflow.Transcript `json:"transcript,omitempty"`
	Upload          *workflow.Upload    `json:"upload,omitempty"`
	InterviewPrompt string              `json:"interviewPrompt,omitempty"`
}

func encodeState(s workflow.Session) ([]byte, error) {
	return json.Marshal(storedState{
		Artifacts:       s.Artifacts,
		Transcript:      s.Transcript,
		Upload:          s.Upload,
		InterviewPrompt: s.InterviewPrompt,
	})
}

func (r *PGRepo) Create(ctx context.Context, s workflow.Session) error {
	const query = `
INSERT INTO enhancement_sessions (id, user_id, stage, state, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	state, err := encodeState(s)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query, s.ID, s.UserID, string(s.Stage), state, s.Version, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (workflow.Session, error) {
	const query = `
SELECT id, user_id, stage, state, version, created_at, updated_at
FROM enhancement_sessions
WHERE id = $1`

	s, err := scanSession(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return workflow.Session{}, ErrNotFound
		}
		return workflow.Session{}, err
	}
	return s, nil
}

func (r *PGRepo) Update(ctx context.Context, s workflow.Session) error {
	const query = `
UPDATE enhancement_sessions
SET stage = $2, state = $3, updated_at = $4, version = $5
WHERE id = $1 AND version = $6`

	state, err := encodeState(s)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, query, s.ID, string(s.Stage), state, s.UpdatedAt, s.Version, s.Version-1)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missOrConflict(ctx, s.ID)
	}
	return nil
}

// missOrConflict explains an update that matched no row.
func (r *PGRepo) missOrConflict(ctx context.Context, id string) error {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM enhancement_sessions WHERE id = $1`, id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case err != nil:
		return err
	}
	return fmt.Errorf("%w: session %s", ErrConflict, id)
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]workflow.Session, error) {
	const query = `
SELECT id, user_id, stage, state, version, created_at, updated_at
FROM enhancement_sessions
WHERE user_id = $1
ORDER BY updated_at DESC
LIMIT $2 OFFSET $3`

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []workflow.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (workflow.Session, error) {
	var (
		s     workflow.Session
		stage string
		raw   []byte
	)
	if err := row.Scan(&s.ID, &s.UserID, &stage, &raw, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return workflow.Session{}, err
	}
	parsed, ok := workflow.ParseStage(stage)
	if !ok {
		return workflow.Session{}, fmt.Errorf("session %s has unknown stage %q", s.ID, stage)
	}
	s.Stage = parsed

	var state storedState
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &state); err != nil {
			return workflow.Session{}, fmt.Errorf("decode session state: %w", err)
		}
	}
	s.Artifacts = state.Artifacts
	s.Transcript = state.Transcript
	s.Upload = state.Upload
	s.InterviewPrompt = state.InterviewPrompt
	return s, nil
}

var _ Repo = (*PGRepo)(nil)
