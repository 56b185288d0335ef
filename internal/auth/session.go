package auth

import (
	"context"
	"errors"
	"time"

	"github.com/aura-hr/portal/internal/models"
)

// ErrSessionNotFound is returned when a session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Actor is the signed-in user on whose behalf the portal calls the backend.
// It is the single source of truth for the current role.
type Actor struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Name   string      `json:"name,omitempty"`
	Role   models.Role `json:"role"`
	Token  string      `json:"token"`
}

// Session binds a browser session id to an Actor.
type Session struct {
	ID        string    `json:"id"`
	Actor     Actor     `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore persists sessions between requests.
type SessionStore interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}
