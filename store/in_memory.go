package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/voxsurvey/voxsurvey/core"
)

// InMemoryStore keeps survey material and responses in process local maps.
// Safe for concurrent use. Survey material is loaded once at construction or
// via the Put helpers; responses accumulate per SaveResponse call.
type InMemoryStore struct {
	mu          sync.RWMutex
	surveys     map[int64]core.Survey
	questions   map[int64][]core.Question // keyed by survey id, ordinal order
	respondents map[int64]core.Respondent
	responses   []core.Response
	finished    map[string]core.Outcome // session id -> terminal outcome
	nextID      int64
}

// NewInMemoryStore constructs an empty in-memory survey/response store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		surveys:     make(map[int64]core.Survey),
		questions:   make(map[int64][]core.Question),
		respondents: make(map[int64]core.Respondent),
		finished:    make(map[string]core.Outcome),
		nextID:      1,
	}
}

// PutSurvey registers a survey and its questions, replacing any prior entry.
func (s *InMemoryStore) PutSurvey(survey core.Survey, questions []core.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surveys[survey.ID] = survey
	qs := make([]core.Question, len(questions))
	copy(qs, questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Ordinal < qs[j].Ordinal })
	s.questions[survey.ID] = qs
}

// PutRespondent registers a respondent, replacing any prior entry.
func (s *InMemoryStore) PutRespondent(r core.Respondent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respondents[r.ID] = r
}

// GetSurvey returns the survey or core.ErrSurveyNotFound.
func (s *InMemoryStore) GetSurvey(_ context.Context, surveyID int64) (*core.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sv, ok := s.surveys[surveyID]; ok {
		out := sv
		return &out, nil
	}
	return nil, core.ErrSurveyNotFound
}

// ListSurveys returns all registered surveys ordered by id.
func (s *InMemoryStore) ListSurveys(_ context.Context) ([]core.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, sv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetQuestions returns the survey's questions in ordinal order.
func (s *InMemoryStore) GetQuestions(_ context.Context, surveyID int64) ([]core.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qs, ok := s.questions[surveyID]
	if !ok {
		return nil, core.ErrSurveyNotFound
	}
	out := make([]core.Question, len(qs))
	copy(out, qs)
	return out, nil
}

// GetRespondent returns the respondent or core.ErrRespondentNotFound.
func (s *InMemoryStore) GetRespondent(_ context.Context, respondentID int64) (*core.Respondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.respondents[respondentID]; ok {
		out := r
		return &out, nil
	}
	return nil, core.ErrRespondentNotFound
}

// ListRespondents returns all registered respondents ordered by id.
func (s *InMemoryStore) ListRespondents(_ context.Context) ([]core.Respondent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Respondent, 0, len(s.respondents))
	for _, r := range s.respondents {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveResponse appends one verbatim answer record.
func (s *InMemoryStore) SaveResponse(_ context.Context, resp core.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp.ID = s.nextID
	s.nextID++
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = time.Now()
	}
	s.responses = append(s.responses, resp)
	return nil
}

// GetResponses returns all persisted answers for a survey/respondent pair in
// question order.
func (s *InMemoryStore) GetResponses(_ context.Context, surveyID, respondentID int64) ([]core.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordinal := map[int64]int{}
	for _, q := range s.questions[surveyID] {
		ordinal[q.ID] = q.Ordinal
	}

	var out []core.Response
	for _, r := range s.responses {
		if r.SurveyID == surveyID && r.RespondentID == respondentID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ordinal[out[i].QuestionID] < ordinal[out[j].QuestionID]
	})
	return out, nil
}

// SessionStarted records nothing; the in-memory backend has no session table.
func (s *InMemoryStore) SessionStarted(context.Context, *core.Session) error { return nil }

// SessionFinished remembers the terminal outcome for result queries.
func (s *InMemoryStore) SessionFinished(_ context.Context, sess *core.Session, outcome core.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[sess.ID] = outcome
	return nil
}

// FinishedOutcome returns the recorded terminal outcome for a session, if any.
func (s *InMemoryStore) FinishedOutcome(sessionID string) (core.Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.finished[sessionID]
	return o, ok
}
