package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/logging"
)

// InMemoryStore is a volatile core.SessionStore implementation keeping
// sessions in a process local map. It is safe for concurrent access from
// multiple session workers: the map is the only structure shared across
// sessions and a coarse RWMutex protects it. Individual sessions guard their
// own fields; the store never inspects conversation state beyond the phase.
type InMemoryStore struct {
	mu         sync.RWMutex
	sessions   map[string]*core.Session
	maxRetries int
	logger     logging.Logger
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithLogger attaches a structured logger to the store.
func WithLogger(l logging.Logger) Option {
	return func(s *InMemoryStore) { s.logger = l }
}

// WithMaxRetries overrides the per-question retry budget applied to new
// sessions. Zero or negative keeps core.DefaultMaxRetries.
func WithMaxRetries(n int) Option {
	return func(s *InMemoryStore) { s.maxRetries = n }
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		sessions: make(map[string]*core.Session),
		logger:   logging.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a session with a fresh identifier in the greeting phase.
// An empty question list is a setup error and nothing is stored.
func (s *InMemoryStore) Create(surveyID, respondentID int64, respondentName string, questions []core.Question) (*core.Session, error) {
	if len(questions) == 0 {
		return nil, core.ErrNoQuestions
	}

	sess := core.NewSession(uuid.NewString(), surveyID, respondentID, respondentName, questions)
	if s.maxRetries > 0 {
		sess.MaxRetries = s.maxRetries
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", sess.ID, "survey_id", surveyID, "respondent_id", respondentID, "questions", len(questions))

	return sess, nil
}

// Get returns the live session for the id, or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, core.ErrSessionNotFound
}

// Remove deletes the session. Removing an unknown id is a no-op.
func (s *InMemoryStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// ListActive returns sessions whose phase is not terminal.
func (s *InMemoryStore) ListActive() []*core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	active := make([]*core.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !sess.GetPhase().Terminal() {
			active = append(active, sess)
		}
	}
	return active
}

// EvictOlderThan removes sessions created before the cutoff regardless of
// phase and returns the number evicted. Sessions with an in-flight turn are
// skipped: best-effort cleanup must never yank a session mid-turn.
func (s *InMemoryStore) EvictOlderThan(age time.Duration) int {
	cutoff := time.Now().Add(-age)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		if !sess.CreatedAt.Before(cutoff) {
			continue
		}
		if !sess.TryBeginTurn() {
			continue
		}
		delete(s.sessions, id)
		sess.EndTurn()
		evicted++
	}

	if evicted > 0 {
		s.logger.Info("evicted stale sessions", "count", evicted, "max_age", age.String())
	}

	return evicted
}

// Len reports the number of stored sessions, active or terminal.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
