package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SessionRepository persists the opaque chat session token. The token is
// the only artifact this service persists: chat history, selections and
// feed snapshots all live and die with the process.
type SessionRepository interface {
	// ActiveSession returns the stored token, or "" when none exists.
	ActiveSession(ctx context.Context) (string, error)
	SaveSession(ctx context.Context, id string) error
}

// EnsureSession loads the persisted session token, minting and storing a
// fresh one on first run.
func EnsureSession(ctx context.Context, repo SessionRepository) (string, error) {
	id, err := repo.ActiveSession(ctx)
	if err != nil {
		return "", fmt.Errorf("error loading session: %w", err)
	}
	if id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := repo.SaveSession(ctx, id); err != nil {
		return "", fmt.Errorf("error saving session: %w", err)
	}
	return id, nil
}
