// Package adventuresession provides repository interface and types for
// active adventure sessions. A session is leased: it lives under a TTL'd key
// and every update renews the lease. A per-user marker key points at the
// user's active session so one user can never hold two.
package adventuresession

import (
	"context"
	"time"

	"github.com/dumblo/adventure-api/internal/entities/game"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=adventuresessionmock github.com/dumblo/adventure-api/internal/repositories/adventure_session Repository

// CreateInput contains parameters for creating an adventure session
type CreateInput struct {
	Session *game.AdventureSession
	TTL     time.Duration // how long the lease lasts; zero uses the default
}

// CreateOutput contains the result of creating an adventure session
type CreateOutput struct {
	Session *game.AdventureSession
}

// GetInput contains parameters for retrieving an adventure session
type GetInput struct {
	ID string
}

// GetOutput contains the result of retrieving an adventure session
type GetOutput struct {
	Session *game.AdventureSession
}

// DeleteInput contains parameters for deleting an adventure session
type DeleteInput struct {
	ID     string
	UserID string
}

// DeleteOutput contains the result of deleting an adventure session
type DeleteOutput struct{}

// GetMarkerInput contains parameters for reading a user's active marker
type GetMarkerInput struct {
	UserID string
}

// GetMarkerOutput contains the session id the marker points at
type GetMarkerOutput struct {
	SessionID string
}

// ClearMarkerInput contains parameters for clearing a user's active marker
type ClearMarkerInput struct {
	UserID string
}

// ClearMarkerOutput contains the result of clearing a marker
type ClearMarkerOutput struct{}

// Repository defines the interface for adventure session storage operations
type Repository interface {
	// Create stores a new session and atomically claims the user's active
	// marker. Returns AlreadyExists when the marker is already held.
	Create(ctx context.Context, input CreateInput) (*CreateOutput, error)

	// Get retrieves a session by id. Expired sessions are treated as absent.
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Update replaces the session and renews the full lease on both the
	// session and the marker.
	Update(ctx context.Context, session *game.AdventureSession, ttl time.Duration) error

	// Delete removes the session and the user's marker.
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)

	// GetMarker returns the session id the user's marker points at.
	GetMarker(ctx context.Context, input GetMarkerInput) (*GetMarkerOutput, error)

	// ClearMarker removes the user's marker without touching any session.
	ClearMarker(ctx context.Context, input ClearMarkerInput) (*ClearMarkerOutput, error)
}
