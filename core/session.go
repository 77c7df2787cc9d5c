package core

import (
	"sync"
	"time"
)

// Phase is a named state in the conversation state machine.
type Phase string

// Conversation phases. Transitions only follow the directed graph implemented
// by the dialogue engine; Abandoned is absorbing.
const (
	PhaseGreeting     Phase = "greeting"
	PhaseWaitIdentity Phase = "wait_identity"
	PhaseConfirmed    Phase = "confirmed"
	PhaseIntro        Phase = "intro"
	PhaseAskQuestion  Phase = "ask_question"
	PhaseWaitAnswer   Phase = "wait_answer"
	PhaseClosing      Phase = "closing"
	PhaseDone         Phase = "done"
	PhaseAbandoned    Phase = "abandoned"
)

// Terminal reports whether no further respondent turns can change state.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseAbandoned
}

// Outcome is the engine's per-turn signal to the transport layer.
type Outcome string

// Turn outcomes.
const (
	OutcomeContinue  Outcome = "continue"
	OutcomeComplete  Outcome = "complete"
	OutcomeAbandoned Outcome = "abandoned"
)

// Session tracks the full conversational state of one interview attempt. It
// is created by a SessionStore and from then on mutated only by the dialogue
// engine. Field access goes through mutex-guarded methods so that status
// projections can be read while a turn is in flight.
//
// Contract:
//   - Cursor is monotonically non-decreasing, range [0, len(Questions)]
//   - Answers never holds a key for a question outside Questions
//   - RetryCount resets on every successful capture or phase advance
//   - once Cursor == len(Questions), Phase is Closing, Done or Abandoned
type Session struct {
	ID             string           `json:"id"`
	SurveyID       int64            `json:"survey_id"`
	RespondentID   int64            `json:"respondent_id"`
	RespondentName string           `json:"respondent_name"`
	Questions      []Question       `json:"questions"`
	Phase          Phase            `json:"phase"`
	Cursor         int              `json:"cursor"`
	Answers        map[int64]string `json:"answers"`
	RetryCount     int              `json:"retry_count"`
	MaxRetries     int              `json:"max_retries"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`

	mu   sync.RWMutex
	turn sync.Mutex
}

// DefaultMaxRetries is the retry budget applied when a session is created
// without an explicit override. Exceeding it abandons the interview.
const DefaultMaxRetries = 3

// NewSession constructs a session in the greeting phase with an empty answer
// set. Callers normally go through a SessionStore instead.
func NewSession(id string, surveyID, respondentID int64, respondentName string, questions []Question) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		SurveyID:       surveyID,
		RespondentID:   respondentID,
		RespondentName: respondentName,
		Questions:      questions,
		Phase:          PhaseGreeting,
		Answers:        make(map[int64]string, len(questions)),
		MaxRetries:     DefaultMaxRetries,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// BeginTurn acquires the per-session turn lock. The transport layer holds it
// for the duration of one respondent turn so eviction never races a live turn.
func (s *Session) BeginTurn() { s.turn.Lock() }

// EndTurn releases the turn lock.
func (s *Session) EndTurn() { s.turn.Unlock() }

// TryBeginTurn acquires the turn lock without blocking. The evictor uses it to
// skip sessions with an in-flight turn.
func (s *Session) TryBeginTurn() bool { return s.turn.TryLock() }

// CurrentQuestion returns the question under the cursor, or false when the
// cursor has moved past the script.
func (s *Session) CurrentQuestion() (Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Cursor < 0 || s.Cursor >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Cursor], true
}

// SetPhase moves the session to the given phase and resets the retry counter.
func (s *Session) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = p
	s.RetryCount = 0
	s.UpdatedAt = time.Now()
}

// GetPhase returns the current phase.
func (s *Session) GetPhase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Phase
}

// RecordAnswer stores a verbatim answer for the given question and resets the
// retry counter. The text is kept exactly as received.
func (s *Session) RecordAnswer(questionID int64, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Answers[questionID] = text
	s.RetryCount = 0
	s.UpdatedAt = time.Now()
}

// AdvanceCursor moves the cursor to the next question and returns the new
// value. The cursor never exceeds len(Questions).
func (s *Session) AdvanceCursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Cursor < len(s.Questions) {
		s.Cursor++
	}
	s.RetryCount = 0
	s.UpdatedAt = time.Now()
	return s.Cursor
}

// IncrementRetry bumps the retry counter and reports whether the session is
// still within its retry budget. A false return means the caller must abandon.
func (s *Session) IncrementRetry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RetryCount++
	s.UpdatedAt = time.Now()
	return s.RetryCount <= s.MaxRetries
}

// CloseOut moves the session to the closing phase and stamps the completion
// time. The phase settles on done when the transport acknowledges the close.
func (s *Session) CloseOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.Phase = PhaseClosing
	s.RetryCount = 0
	s.CompletedAt = &now
	s.UpdatedAt = now
}

// Complete marks the session done, stamping the completion time if the
// closing transition did not already.
func (s *Session) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase == PhaseDone {
		return
	}
	now := time.Now()
	s.Phase = PhaseDone
	if s.CompletedAt == nil {
		s.CompletedAt = &now
	}
	s.UpdatedAt = now
}

// Abandon moves the session to the absorbing abandoned state.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Phase == PhaseAbandoned {
		return
	}
	now := time.Now()
	s.Phase = PhaseAbandoned
	if s.CompletedAt == nil {
		s.CompletedAt = &now
	}
	s.UpdatedAt = now
}

// Answer returns the recorded answer for a question, if any.
func (s *Session) Answer(questionID int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.Answers[questionID]
	return text, ok
}

// AnswerCount returns the number of answers recorded so far.
func (s *Session) AnswerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Answers)
}

// Progress returns the answered fraction of the script in [0, 1].
func (s *Session) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Questions) == 0 {
		return 0
	}
	return float64(s.Cursor) / float64(len(s.Questions))
}

// Status is a read-only projection of session progress for callers that must
// not touch live state.
type Status struct {
	SessionID       string  `json:"session_id"`
	Phase           Phase   `json:"phase"`
	QuestionOrdinal int     `json:"question_ordinal"`
	TotalQuestions  int     `json:"total_questions"`
	Progress        float64 `json:"progress"`
	AnswersRecorded int     `json:"answers_recorded"`
}

// Snapshot builds a Status projection under the read lock.
func (s *Session) Snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ordinal := s.Cursor + 1
	if s.Cursor >= len(s.Questions) {
		ordinal = len(s.Questions)
	}
	progress := 0.0
	if len(s.Questions) > 0 {
		progress = float64(s.Cursor) / float64(len(s.Questions))
	}
	return Status{
		SessionID:       s.ID,
		Phase:           s.Phase,
		QuestionOrdinal: ordinal,
		TotalQuestions:  len(s.Questions),
		Progress:        progress,
		AnswersRecorded: len(s.Answers),
	}
}
