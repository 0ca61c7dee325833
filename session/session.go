package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Overwatch47/SpectraScout/config"
)

// ErrNotFound is returned for unknown sessions and for sessions owned by
// another user.
var ErrNotFound = errors.New("session not found")

// Session is a conversation.
type Session struct {
	ID        string
	AppName   string
	UserID    string
	Events    []*genai.Content
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Service manages sessions. Implementations are safe for concurrent use.
type Service interface {
	Create(ctx context.Context, userID string) (*Session, error)
	// Get returns the session with all of its events.
	Get(ctx context.Context, userID, id string) (*Session, error)
	// Append adds events to the end of a session.
	Append(ctx context.Context, userID, id string, events ...*genai.Content) error
	Delete(ctx context.Context, userID, id string) error
	// List returns the user's sessions, most recently updated first, without
	// their events.
	List(ctx context.Context, userID string) ([]*Session, error)
	Close() error
}

// New creates the store selected by session.store.
func New(logger *zap.Logger, cfg *config.Config) (Service, error) {
	logger = logger.Named("session")
	switch cfg.Session.Store {
	case "", "memory":
		logger.Info("using in-memory session store")
		return NewMemoryService(cfg.Chat.AppName), nil
	case "sqlite":
		logger.Info("using sqlite session store", zap.String("dsn", cfg.Session.DSN))
		return NewSQLiteService(cfg.Chat.AppName, cfg.Session.DSN)
	default:
		return nil, fmt.Errorf("unsupported session store: %s", cfg.Session.Store)
	}
}
