package ports

import (
	"context"
	"delivery-route-optimizer/internal/domain"
	"errors"
)

var (
	ErrSessionNotFound = errors.New("route session not found")
	// ErrSessionConflict means the stored session changed after it was loaded.
	ErrSessionConflict = errors.New("route session modified concurrently")
)

// Port: key-value persistence of active route sessions, so an in-progress
// route and its current stop index survive restarts.
//
// Writes are optimistic. SaveSession stores s only if the stored version still
// equals s.Version (0 means "not stored yet") and then increments s.Version;
// otherwise it returns ErrSessionConflict and leaves s unchanged.
type SessionStore interface {
	SaveSession(ctx context.Context, s *domain.RouteSession) error
	// Return ErrSessionNotFound when no session is stored under id.
	LoadSession(ctx context.Context, id string) (*domain.RouteSession, error)
	DeleteSession(ctx context.Context, id string) error
}
