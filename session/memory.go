package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"
	"google.golang.org/genai"
)

var _ Service = (*MemoryService)(nil)

// MemoryService keeps sessions in process memory.
type MemoryService struct {
	appName string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryService creates an empty in-memory store.
func NewMemoryService(appName string) *MemoryService {
	return &MemoryService{
		appName:  appName,
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryService) Create(_ context.Context, userID string) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		ID:        xid.New().String(),
		AppName:   m.appName,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return copySession(s, true), nil
}

func (m *MemoryService) Get(_ context.Context, userID, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, err := m.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	return copySession(s, true), nil
}

func (m *MemoryService) Append(_ context.Context, userID, id string, events ...*genai.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.lookup(userID, id)
	if err != nil {
		return err
	}
	s.Events = append(s.Events, events...)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryService) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.lookup(userID, id); err != nil {
		return err
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryService) List(_ context.Context, userID string) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, copySession(s, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Close is a no-op.
func (*MemoryService) Close() error {
	return nil
}

func (m *MemoryService) lookup(userID, id string) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.UserID != userID {
		return nil, ErrNotFound
	}
	return s, nil
}

func copySession(s *Session, withEvents bool) *Session {
	c := *s
	c.Events = nil
	if withEvents {
		c.Events = append([]*genai.Content(nil), s.Events...)
	}
	return &c
}
