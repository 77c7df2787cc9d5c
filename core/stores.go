package core

import (
	"context"
	"errors"
	"time"
)

// Setup errors. They are fatal and pre-conversation: callers must not start a
// session when any of them occurs, and no partial session is created.
var (
	// ErrNoQuestions indicates the survey has an empty question list.
	ErrNoQuestions = errors.New("survey has no questions")
	// ErrSurveyNotFound indicates the survey record is missing.
	ErrSurveyNotFound = errors.New("survey not found")
	// ErrRespondentNotFound indicates the respondent record is missing.
	ErrRespondentNotFound = errors.New("respondent not found")
	// ErrSessionNotFound indicates no session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")
)

// SessionStore owns session memory exclusively: creation, lookup and
// garbage collection of sessions keyed by their opaque identifier. It never
// touches conversation logic; the dialogue engine is the sole writer of a
// session's internal fields once created.
type SessionStore interface {
	// Create allocates a session with a fresh identifier, phase greeting,
	// cursor 0 and an empty answer set. An empty question list is a setup
	// error and no session is created.
	Create(surveyID, respondentID int64, respondentName string, questions []Question) (*Session, error)

	// Get returns the live session for the id, or ErrSessionNotFound.
	Get(id string) (*Session, error)

	// Remove deletes the session. Removing an unknown id is a no-op.
	Remove(id string)

	// ListActive returns sessions whose phase is not terminal.
	ListActive() []*Session

	// EvictOlderThan removes sessions created before the cutoff regardless of
	// phase. Best-effort cleanup: sessions with an in-flight turn are skipped.
	EvictOlderThan(age time.Duration) int
}

// SurveyStore resolves survey definitions, questions and respondents.
type SurveyStore interface {
	GetSurvey(ctx context.Context, surveyID int64) (*Survey, error)
	ListSurveys(ctx context.Context) ([]Survey, error)
	// GetQuestions returns the survey's questions in ordinal order.
	GetQuestions(ctx context.Context, surveyID int64) ([]Question, error)
	GetRespondent(ctx context.Context, respondentID int64) (*Respondent, error)
	ListRespondents(ctx context.Context) ([]Respondent, error)
}

// ResponseStore durably persists one verbatim answer per call. A failure here
// must not stall the conversation: the engine logs it and moves on.
type ResponseStore interface {
	SaveResponse(ctx context.Context, resp Response) error
	// GetResponses returns all persisted answers for a survey/respondent pair
	// in question order.
	GetResponses(ctx context.Context, surveyID, respondentID int64) ([]Response, error)
}

// CompletionNotifier receives terminal session outcomes so a collaborator can
// persist final status and timestamps.
type CompletionNotifier interface {
	SessionStarted(ctx context.Context, session *Session) error
	SessionFinished(ctx context.Context, session *Session, outcome Outcome) error
}
