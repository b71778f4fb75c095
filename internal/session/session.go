// Package session keeps conversation transcripts. Turns are only ever
// appended; prior turns are not fed back into retrieval or prompts.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"document-chat/internal/helper"
	"document-chat/internal/models"
)

// Asker answers a single question.
type Asker interface {
	Query(ctx context.Context, query string) (*models.PromptResponse, error)
}

type Session struct {
	ID string

	mu    sync.Mutex
	turns []models.Turn
	now   func() time.Time
}

func New(id string) *Session {
	return &Session{ID: id, now: time.Now}
}

// Ask appends the user turn, runs the question through asker and appends
// the answer. On failure only the user turn remains. Questions within one
// session are answered one at a time.
func (s *Session) Ask(ctx context.Context, asker Asker, question string) (*models.PromptResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, models.Turn{Role: models.RoleUser, Content: question, At: s.now()})

	resp, err := asker.Query(ctx, question)
	if err != nil {
		log.Error().Err(err).Str("session", s.ID).Msg("Question failed")
		return nil, err
	}

	s.turns = append(s.turns, models.Turn{Role: models.RoleAssistant, Content: resp.Content, At: s.now()})
	return resp, nil
}

// Turns returns a copy of the transcript in order.
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// maxSessions bounds how many transcripts a Manager keeps. The oldest
// session is dropped first.
const maxSessions = 1000

// Manager maps session ids to sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	order    []string
	limit    int
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session), limit: maxSessions}
}

// Get returns the session for id, creating a new one with a fresh id when
// id is empty or unknown.
func (m *Manager) Get(id string) (*Session, error) {
	if s, ok := m.Lookup(id); ok {
		return s, nil
	}

	newID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := New(newID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[newID] = s
	m.order = append(m.order, newID)
	for len(m.order) > m.limit {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.sessions, oldest)
		log.Debug().Str("session", oldest).Msg("Dropped oldest session")
	}
	return s, nil
}

// Lookup returns the session for id if it exists. It never creates one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}
