// Package session holds the explicit per-login context passed to every service
// call, its storage backends and the screen navigation state machine.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"invoicing/internal/model"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        uuid.UUID  `json:"id"`
	AgentID   uuid.UUID  `json:"agent_id"`
	Role      model.Role `json:"role"`
	Name      string     `json:"name"`
	Screen    Screen     `json:"screen"`
	InvoiceID *uuid.UUID `json:"invoice_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// New starts a session on the dashboard screen.
func New(agent *model.Agent, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:        uuid.New(),
		AgentID:   agent.ID,
		Role:      agent.Role,
		Name:      agent.Name,
		Screen:    ScreenDashboard,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *Session) IsDirector() bool {
	return s.Role == model.RoleDirector
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists sessions until they expire or are deleted.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, s *Session) error
	// Save overwrites a live session. It returns ErrNotFound when the session
	// was deleted or has expired, so a sign-out is never undone.
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Session
	now      func() time.Time
}

// NewMemoryStore keeps sessions in process memory. A nil clock uses time.Now.
func NewMemoryStore(clock func() time.Time) Store {
	if clock == nil {
		clock = time.Now
	}
	return &memoryStore{sessions: make(map[uuid.UUID]Session), now: clock}
}

func (m *memoryStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Expired(m.now()) {
		delete(m.sessions, s.ID)
		return ErrNotFound
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
