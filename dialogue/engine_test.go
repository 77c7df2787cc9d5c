package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/internal/testutil"
	"github.com/voxsurvey/voxsurvey/store"
)

// recordingNotifier captures lifecycle signals for assertions.
type recordingNotifier struct {
	started  []string
	finished map[string]core.Outcome
	err      error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{finished: map[string]core.Outcome{}}
}

func (n *recordingNotifier) SessionStarted(_ context.Context, sess *core.Session) error {
	n.started = append(n.started, sess.ID)
	return n.err
}

func (n *recordingNotifier) SessionFinished(_ context.Context, sess *core.Session, outcome core.Outcome) error {
	n.finished[sess.ID] = outcome
	return n.err
}

// failingResponses always errors on save; the conversation must survive it.
type failingResponses struct{}

func (failingResponses) SaveResponse(context.Context, core.Response) error {
	return errors.New("database unavailable")
}

func (failingResponses) GetResponses(context.Context, int64, int64) ([]core.Response, error) {
	return nil, nil
}

func TestEngine_StartGreetsAndArmsIdentityCheck(t *testing.T) {
	notifier := newRecordingNotifier()
	engine := New(func(o *Options) { o.Notifier = notifier })
	sess := testutil.NewSessionBuilder("s1").Respondent("احمد علی").Build()

	greeting, err := engine.Start(context.Background(), sess)

	require.NoError(t, err)
	assert.Contains(t, greeting, "احمد علی")
	assert.Equal(t, core.PhaseWaitIdentity, sess.GetPhase())
	assert.Equal(t, []string{"s1"}, notifier.started)
}

func TestEngine_StartRejectsEmptyScript(t *testing.T) {
	engine := New()
	sess := core.NewSession("s1", 1, 1, "Ahmed", nil)

	_, err := engine.Start(context.Background(), sess)

	assert.ErrorIs(t, err, core.ErrNoQuestions)
}

func TestEngine_StartTwiceIsNoOp(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Build()

	_, err := engine.Start(context.Background(), sess)
	require.NoError(t, err)

	again, err := engine.Start(context.Background(), sess)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, core.PhaseWaitIdentity, sess.GetPhase())
}

func TestEngine_IdentityConfirmationIsCompound(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Respondent("احمد علی").Phase(core.PhaseWaitIdentity).Build()

	outcome, reply := engine.Advance(context.Background(), sess, "جی ہاں")

	assert.Equal(t, core.OutcomeContinue, outcome)
	assert.Equal(t, core.PhaseWaitAnswer, sess.GetPhase())
	assert.Equal(t, 0, sess.Cursor)

	// One continuous turn: confirmation, intro and question #1.
	parts := strings.Split(reply, "\n\n")
	require.Len(t, parts, 3)
	assert.Contains(t, parts[0], "احمد علی")
	assert.Contains(t, parts[2], "1")
}

func TestEngine_FullInterview(t *testing.T) {
	notifier := newRecordingNotifier()
	responses := store.NewInMemoryStore()
	engine := New(func(o *Options) {
		o.Notifier = notifier
		o.Responses = responses
	})
	sess := testutil.NewSessionBuilder("s1").Questions(3).Build()
	ctx := context.Background()

	_, err := engine.Start(ctx, sess)
	require.NoError(t, err)

	outcome, _ := engine.Advance(ctx, sess, "جی ہاں")
	require.Equal(t, core.OutcomeContinue, outcome)

	answers := []string{"  پہلا جواب  ", "دوسرا جواب", "تیسرا جواب"}
	for i, answer := range answers {
		outcome, reply := engine.Advance(ctx, sess, answer)
		if i < len(answers)-1 {
			assert.Equal(t, core.OutcomeContinue, outcome)
			assert.NotEmpty(t, reply)
		} else {
			assert.Equal(t, core.OutcomeComplete, outcome)
		}
	}

	// Answers are captured verbatim after transport trimming.
	got, ok := sess.Answer(1)
	require.True(t, ok)
	assert.Equal(t, "پہلا جواب", got)

	assert.Equal(t, core.PhaseClosing, sess.GetPhase())
	assert.Equal(t, 3, sess.Cursor)
	assert.NotNil(t, sess.CompletedAt)
	assert.Equal(t, core.OutcomeComplete, notifier.finished["s1"])

	saved, err := responses.GetResponses(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, saved, 3)

	// The post-closing turn settles the session.
	outcome, reply := engine.Advance(ctx, sess, "اللہ حافظ")
	assert.Equal(t, core.OutcomeComplete, outcome)
	assert.Empty(t, reply)
	assert.Equal(t, core.PhaseDone, sess.GetPhase())
}

func TestEngine_DoneIsAbsorbing(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Phase(core.PhaseDone).Build()
	before := sess.Snapshot()

	outcome, reply := engine.Advance(context.Background(), sess, "hello")

	assert.Equal(t, core.OutcomeComplete, outcome)
	assert.Empty(t, reply)
	assert.Equal(t, before, sess.Snapshot())
}

func TestEngine_RetryBudgetAbandons(t *testing.T) {
	notifier := newRecordingNotifier()
	engine := New(func(o *Options) { o.Notifier = notifier })
	sess := testutil.NewSessionBuilder("s1").Questions(3).Build()
	ctx := context.Background()

	_, err := engine.Start(ctx, sess)
	require.NoError(t, err)
	engine.Advance(ctx, sess, "جی ہاں")
	engine.Advance(ctx, sess, "پہلا جواب")

	// Three empty turns stay within the budget.
	for i := 0; i < 3; i++ {
		outcome, reply := engine.Advance(ctx, sess, "   ")
		assert.Equal(t, core.OutcomeContinue, outcome, "turn %d", i+1)
		assert.NotEmpty(t, reply)
	}

	// The fourth consecutive empty turn abandons.
	outcome, reply := engine.Advance(ctx, sess, "")
	assert.Equal(t, core.OutcomeAbandoned, outcome)
	assert.NotEmpty(t, reply)
	assert.Equal(t, core.PhaseAbandoned, sess.GetPhase())
	assert.Equal(t, core.OutcomeAbandoned, notifier.finished["s1"])

	// The captured answer survives abandonment.
	assert.Equal(t, 1, sess.AnswerCount())

	// Abandoned is absorbing.
	outcome, reply = engine.Advance(ctx, sess, "جواب")
	assert.Equal(t, core.OutcomeAbandoned, outcome)
	assert.Empty(t, reply)
}

func TestEngine_AbandonmentBeforeAnyAnswer(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Questions(1, 1).Phase(core.PhaseWaitAnswer).Build()
	ctx := context.Background()

	var outcome core.Outcome
	for i := 0; i < 4; i++ {
		outcome, _ = engine.Advance(ctx, sess, "")
	}

	assert.Equal(t, core.OutcomeAbandoned, outcome)
	assert.Equal(t, 0, sess.AnswerCount())
	assert.Equal(t, 0, sess.Cursor)
}

func TestEngine_ValidAnswerResetsRetryBudget(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Questions(3).Phase(core.PhaseWaitAnswer).Build()
	ctx := context.Background()

	engine.Advance(ctx, sess, "")
	engine.Advance(ctx, sess, "")
	engine.Advance(ctx, sess, "جواب")

	assert.Equal(t, 0, sess.RetryCount)

	// The full budget is available again on the next question.
	for i := 0; i < 3; i++ {
		outcome, _ := engine.Advance(ctx, sess, "")
		assert.Equal(t, core.OutcomeContinue, outcome)
	}
}

func TestEngine_SkipOptionalQuestion(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Questions(3).Phase(core.PhaseWaitAnswer).Build()

	reply := engine.Skip(context.Background(), sess)

	assert.Equal(t, 1, sess.Cursor)
	assert.Equal(t, 0, sess.AnswerCount())
	assert.Contains(t, reply, "2")
}

func TestEngine_SkipRequiredQuestionReasks(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Questions(3, 1).Phase(core.PhaseWaitAnswer).Build()

	reply := engine.Skip(context.Background(), sess)

	assert.Equal(t, 0, sess.Cursor)
	assert.Contains(t, reply, "1")
}

func TestEngine_SkipPastFinalQuestionCloses(t *testing.T) {
	notifier := newRecordingNotifier()
	engine := New(func(o *Options) { o.Notifier = notifier })
	sess := testutil.NewSessionBuilder("s1").Questions(2).Phase(core.PhaseWaitAnswer).Cursor(1).Build()

	reply := engine.Skip(context.Background(), sess)

	assert.Equal(t, core.PhaseClosing, sess.GetPhase())
	assert.NotEmpty(t, reply)
	assert.Equal(t, core.OutcomeComplete, notifier.finished["s1"])
}

func TestEngine_SkipOutsideAnswerPhaseIsNoOp(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Phase(core.PhaseWaitIdentity).Build()

	assert.Empty(t, engine.Skip(context.Background(), sess))
	assert.Equal(t, core.PhaseWaitIdentity, sess.GetPhase())
}

func TestEngine_PersistenceFailureDoesNotBlock(t *testing.T) {
	engine := New(func(o *Options) { o.Responses = failingResponses{} })
	sess := testutil.NewSessionBuilder("s1").Questions(2).Phase(core.PhaseWaitAnswer).Build()

	outcome, reply := engine.Advance(context.Background(), sess, "جواب")

	assert.Equal(t, core.OutcomeContinue, outcome)
	assert.NotEmpty(t, reply)
	got, ok := sess.Answer(1)
	require.True(t, ok)
	assert.Equal(t, "جواب", got)
}

func TestEngine_AnswersNeverOutrunCursor(t *testing.T) {
	engine := New()
	sess := testutil.NewSessionBuilder("s1").Questions(5).Build()
	ctx := context.Background()

	_, err := engine.Start(ctx, sess)
	require.NoError(t, err)
	engine.Advance(ctx, sess, "جی ہاں")

	inputs := []string{"ا", "", "ب", "", "ج"}
	for _, in := range inputs {
		engine.Advance(ctx, sess, in)
		assert.LessOrEqual(t, sess.AnswerCount(), sess.Cursor)
	}
}
