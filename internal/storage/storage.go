// Package storage persists conversation sessions and their messages.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kioku/internal/models"
)

// ErrSessionNotFound is returned for operations on an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// ConversationStore defines session and message persistence.
type ConversationStore interface {
	// Session operations
	CreateSession(ctx context.Context, title string) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, limit int) ([]*models.Session, error)

	// Message operations
	AppendMessage(ctx context.Context, msg *models.Message) error
	// Messages returns a session's messages oldest first. A positive limit keeps
	// only the most recent ones.
	Messages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)

	Close() error
}
