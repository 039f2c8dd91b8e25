package storage

import (
	"context"

	"github.com/mcoot/badminton-pairing/internal/model"
)

// Storage defines the interface for session persistence.
// The whole session is loaded and saved as one blob.
type Storage interface {
	// LoadSession returns the stored session, or model.ErrSessionNotFound
	LoadSession(ctx context.Context) (*model.Session, error)

	// SaveSession replaces the stored session
	SaveSession(ctx context.Context, session *model.Session) error

	// DeleteSession removes the stored session; deleting a missing session is not an error
	DeleteSession(ctx context.Context) error
}
