package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/victornm/grammarquiz/internal/domain"
	"github.com/victornm/grammarquiz/internal/errors"
)

// Store owns quiz sessions for their lifetime.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create stores a new session holding questions and returns it with a fresh id.
	Create(ctx context.Context, questions []domain.Question) (*domain.Session, error)
	// Get returns a copy of the session, or a CodeNotFound error.
	Get(ctx context.Context, id string) (*domain.Session, error)
	// AttachResult sets the session result, replacing any previous one.
	AttachResult(ctx context.Context, id string, r domain.Result) error
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session ID: %w", err)
	}
	return id.String(), nil
}

func notFound(id string) error {
	return errors.NotFound("session not found: %s", id)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, questions []domain.Question) (*domain.Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}

	ss := &domain.Session{
		SessionID:  id,
		Questions:  slices.Clone(questions),
		CreateTime: s.now().UTC(),
	}

	s.mu.Lock()
	s.sessions[id] = ss
	s.mu.Unlock()

	return copySession(ss), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ss, ok := s.sessions[id]
	if !ok {
		return nil, notFound(id)
	}

	return copySession(ss), nil
}

func (s *MemoryStore) AttachResult(_ context.Context, id string, r domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, ok := s.sessions[id]
	if !ok {
		return notFound(id)
	}

	r.Answers = slices.Clone(r.Answers)
	ss.Result = &r
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Clear drops every session.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
}

func copySession(ss *domain.Session) *domain.Session {
	c := *ss
	c.Questions = slices.Clone(ss.Questions)
	if ss.Result != nil {
		r := *ss.Result
		r.Answers = slices.Clone(ss.Result.Answers)
		c.Result = &r
	}
	return &c
}
