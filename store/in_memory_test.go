package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxsurvey/voxsurvey/core"
)

// Interface compliance (compile-time assertions)
var (
	_ core.SurveyStore        = (*InMemoryStore)(nil)
	_ core.ResponseStore      = (*InMemoryStore)(nil)
	_ core.CompletionNotifier = (*InMemoryStore)(nil)
)

func seeded() *InMemoryStore {
	s := NewInMemoryStore()
	s.PutSurvey(core.Survey{ID: 1, Title: "Workplace"}, []core.Question{
		{ID: 3, SurveyID: 1, Ordinal: 3, Text: "third"},
		{ID: 1, SurveyID: 1, Ordinal: 1, Text: "first"},
		{ID: 2, SurveyID: 1, Ordinal: 2, Text: "second"},
	})
	s.PutRespondent(core.Respondent{ID: 7, Name: "Ahmed"})
	return s
}

func TestInMemoryStore_QuestionsOrderedByOrdinal(t *testing.T) {
	s := seeded()

	qs, err := s.GetQuestions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, "first", qs[0].Text)
	assert.Equal(t, "second", qs[1].Text)
	assert.Equal(t, "third", qs[2].Text)
}

func TestInMemoryStore_LookupErrors(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	_, err := s.GetSurvey(ctx, 99)
	assert.ErrorIs(t, err, core.ErrSurveyNotFound)

	_, err = s.GetQuestions(ctx, 99)
	assert.ErrorIs(t, err, core.ErrSurveyNotFound)

	_, err = s.GetRespondent(ctx, 99)
	assert.ErrorIs(t, err, core.ErrRespondentNotFound)
}

func TestInMemoryStore_ResponsesOrderedByQuestion(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	// Saved out of order, e.g. after a skip-then-return flow.
	require.NoError(t, s.SaveResponse(ctx, core.Response{SurveyID: 1, QuestionID: 2, RespondentID: 7, SessionID: "s1", AnswerText: "b"}))
	require.NoError(t, s.SaveResponse(ctx, core.Response{SurveyID: 1, QuestionID: 1, RespondentID: 7, SessionID: "s1", AnswerText: "a"}))

	got, err := s.GetResponses(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].AnswerText)
	assert.Equal(t, "b", got[1].AnswerText)
	assert.NotZero(t, got[0].ID)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestInMemoryStore_ResponsesFilterByRespondent(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	require.NoError(t, s.SaveResponse(ctx, core.Response{SurveyID: 1, QuestionID: 1, RespondentID: 7, AnswerText: "mine"}))
	require.NoError(t, s.SaveResponse(ctx, core.Response{SurveyID: 1, QuestionID: 1, RespondentID: 8, AnswerText: "theirs"}))

	got, err := s.GetResponses(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mine", got[0].AnswerText)
}

func TestInMemoryStore_SessionFinishedRecordsOutcome(t *testing.T) {
	s := seeded()
	sess := core.NewSession("s1", 1, 7, "Ahmed", []core.Question{{ID: 1, SurveyID: 1, Ordinal: 1}})

	require.NoError(t, s.SessionStarted(context.Background(), sess))
	require.NoError(t, s.SessionFinished(context.Background(), sess, core.OutcomeAbandoned))

	outcome, ok := s.FinishedOutcome("s1")
	require.True(t, ok)
	assert.Equal(t, core.OutcomeAbandoned, outcome)

	_, ok = s.FinishedOutcome("unknown")
	assert.False(t, ok)
}
