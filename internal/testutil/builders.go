package testutil

import (
	"fmt"

	"github.com/voxsurvey/voxsurvey/core"
)

// Questions builds n sequential open questions for survey 1. Every question
// is optional unless its ordinal appears in required.
// Example:
//
//	qs := testutil.Questions(3, 1, 3) // q1 and q3 required, q2 optional
func Questions(n int, required ...int) []core.Question {
	req := map[int]bool{}
	for _, r := range required {
		req[r] = true
	}
	qs := make([]core.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, core.Question{
			ID:       int64(i),
			SurveyID: 1,
			Ordinal:  i,
			Text:     fmt.Sprintf("question %d", i),
			Kind:     "open",
			Required: req[i],
		})
	}
	return qs
}

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := testutil.NewSessionBuilder("sess-1").Questions(3).Phase(core.PhaseWaitAnswer).Build()
type SessionBuilder struct {
	id         string
	name       string
	questions  []core.Question
	phase      core.Phase
	cursor     int
	maxRetries int
}

// NewSessionBuilder creates a builder for a session with the given id.
// Defaults: respondent "Ahmed Ali", three optional questions, greeting phase.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{
		id:        id,
		name:      "Ahmed Ali",
		questions: Questions(3),
		phase:     core.PhaseGreeting,
	}
}

// Respondent sets the respondent name (chainable).
func (b *SessionBuilder) Respondent(name string) *SessionBuilder { b.name = name; return b }

// Questions replaces the question list with n generated questions (chainable).
func (b *SessionBuilder) Questions(n int, required ...int) *SessionBuilder {
	b.questions = Questions(n, required...)
	return b
}

// WithQuestions replaces the question list verbatim (chainable).
func (b *SessionBuilder) WithQuestions(qs []core.Question) *SessionBuilder {
	b.questions = qs
	return b
}

// Phase sets the starting phase (chainable).
func (b *SessionBuilder) Phase(p core.Phase) *SessionBuilder { b.phase = p; return b }

// Cursor sets the starting cursor position (chainable).
func (b *SessionBuilder) Cursor(c int) *SessionBuilder { b.cursor = c; return b }

// MaxRetries overrides the retry budget (chainable).
func (b *SessionBuilder) MaxRetries(n int) *SessionBuilder { b.maxRetries = n; return b }

// Build returns a *core.Session in the configured state.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id, 1, 1, b.name, b.questions)
	s.Phase = b.phase
	s.Cursor = b.cursor
	if b.maxRetries > 0 {
		s.MaxRetries = b.maxRetries
	}
	return s
}
