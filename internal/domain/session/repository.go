package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists sessions across server restarts. Implementations map
// missing records to shared.ErrSessionNotFound.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteStale removes sessions not touched since the cutoff and returns
	// the number of rows removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
