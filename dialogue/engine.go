package dialogue

import (
	"context"
	"strings"
	"time"

	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/logging"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Prompts supplies the utterance templates. Defaults to the stock script.
	Prompts *PromptCatalog
	// Responses durably persists captured answers. Optional; when nil answers
	// live only in session state.
	Responses core.ResponseStore
	// Notifier receives session start and terminal outcome signals. Optional.
	Notifier core.CompletionNotifier
	// Logger receives structured engine events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Engine is the conversation state machine. Its methods are safe for
// concurrent use across sessions; calls for a single session must be
// serialized by the transport layer (one turn in flight per session).
type Engine struct {
	prompts   *PromptCatalog
	responses core.ResponseStore
	notifier  core.CompletionNotifier
	logger    logging.Logger
}

// New constructs an Engine with optional overrides.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Prompts: DefaultPrompts(),
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Prompts == nil {
		opts.Prompts = DefaultPrompts()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Engine{
		prompts:   opts.Prompts,
		responses: opts.Responses,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
	}
}

// Start produces the opening greeting and arms the identity check. It is
// called exactly once per session, before any respondent input. Starting a
// session with no questions is a setup error; starting an already started
// session is a safe no-op returning an empty utterance.
func (e *Engine) Start(ctx context.Context, session *core.Session) (string, error) {
	if len(session.Questions) == 0 {
		return "", core.ErrNoQuestions
	}
	if session.GetPhase() != core.PhaseGreeting {
		e.logger.Warn("start called on already started session", "session_id", session.ID, "phase", string(session.GetPhase()))
		return "", nil
	}

	session.SetPhase(core.PhaseWaitIdentity)

	if e.notifier != nil {
		if err := e.notifier.SessionStarted(ctx, session); err != nil {
			e.logger.Error("session start notification failed", "session_id", session.ID, "error", err)
		}
	}

	e.logger.Info("session started", "session_id", session.ID, "survey_id", session.SurveyID, "questions", len(session.Questions))

	return e.prompts.Snapshot().FormatGreeting(session.RespondentName), nil
}

// Advance is the core transition function, called once per respondent turn.
// The utterance is the transcribed respondent speech; an empty or whitespace
// string means silence or unrecognized input. Every path resolves to an
// outcome plus an agent utterance, never an error: transient input trouble is
// absorbed by the retry counter and terminal states reply with empty text.
func (e *Engine) Advance(ctx context.Context, session *core.Session, utterance string) (core.Outcome, string) {
	started := time.Now()
	phaseBefore := session.GetPhase()
	text := strings.TrimSpace(utterance)

	outcome, reply := e.advance(ctx, session, text, e.prompts.Snapshot())

	if sl, ok := e.logger.(*logging.SurveyLogger); ok {
		sl.LogTurn(session.ID, string(phaseBefore), string(session.GetPhase()), string(outcome), time.Since(started))
	} else {
		e.logger.Debug("turn processed", "session_id", session.ID, "phase", string(session.GetPhase()), "outcome", string(outcome))
	}

	return outcome, reply
}

func (e *Engine) advance(ctx context.Context, session *core.Session, text string, pr *PromptCatalog) (core.Outcome, string) {
	switch session.GetPhase() {
	case core.PhaseWaitIdentity:
		if text == "" {
			return e.retryOrAbandon(ctx, session, pr)
		}
		return e.confirmIdentity(session, pr)

	case core.PhaseWaitAnswer:
		if text == "" {
			return e.retryOrAbandon(ctx, session, pr)
		}
		return e.captureAnswer(ctx, session, text, pr)

	case core.PhaseClosing, core.PhaseDone:
		session.Complete()
		return core.OutcomeComplete, ""

	case core.PhaseAbandoned:
		return core.OutcomeAbandoned, ""

	default:
		// GREETING or an intermediate phase: the transport fed input before
		// Start or out of turn. Recoverable misuse, ask to repeat.
		e.logger.Warn("utterance received in unexpected phase", "session_id", session.ID, "phase", string(session.GetPhase()))
		return core.OutcomeContinue, pr.RepeatRequest
	}
}

// confirmIdentity accepts any non-empty utterance as confirmation and plays
// confirmation, survey intro and question #1 as one continuous turn. The
// compound step keeps perceived latency and call cost down; the cursor stays
// at 0 until the first answer lands.
func (e *Engine) confirmIdentity(session *core.Session, pr *PromptCatalog) (core.Outcome, string) {
	question, ok := session.CurrentQuestion()
	if !ok {
		// Unreachable for sessions created through a SessionStore, which
		// rejects empty question lists.
		session.Abandon()
		return core.OutcomeAbandoned, pr.TechnicalError
	}

	session.SetPhase(core.PhaseWaitAnswer)

	parts := []string{
		pr.FormatIdentityConfirmed(session.RespondentName),
		pr.Intro,
		pr.FormatQuestion(1, question.Prompt()),
	}
	return core.OutcomeContinue, strings.Join(parts, "\n\n")
}

// captureAnswer records the verbatim answer for the question under the
// cursor, persists it and moves on to the next question or the close-out.
func (e *Engine) captureAnswer(ctx context.Context, session *core.Session, text string, pr *PromptCatalog) (core.Outcome, string) {
	question, ok := session.CurrentQuestion()
	if !ok {
		e.logger.Warn("answer received with no current question", "session_id", session.ID, "cursor", session.Snapshot().QuestionOrdinal)
		return core.OutcomeContinue, pr.TechnicalError
	}

	session.RecordAnswer(question.ID, text)
	e.persist(ctx, session, question, text)

	cursor := session.AdvanceCursor()
	if cursor >= len(session.Questions) {
		return e.closeOut(ctx, session, pr)
	}

	next, _ := session.CurrentQuestion()
	reply := pr.AcknowledgeNext + "\n\n" + pr.FormatQuestion(cursor+1, next.Prompt())
	return core.OutcomeContinue, reply
}

// retryOrAbandon handles an empty or unrecognized utterance. Within the retry
// budget the agent asks to repeat; past it the interview is abandoned with a
// spoken sign-off. Abandonment is a normal outcome, not an error.
func (e *Engine) retryOrAbandon(ctx context.Context, session *core.Session, pr *PromptCatalog) (core.Outcome, string) {
	if session.IncrementRetry() {
		return core.OutcomeContinue, pr.RepeatRequest
	}

	session.Abandon()
	e.notifyFinished(ctx, session, core.OutcomeAbandoned)
	e.logger.Info("session abandoned after retry exhaustion", "session_id", session.ID, "answers", session.AnswerCount())

	return core.OutcomeAbandoned, pr.CallLater
}

// closeOut transitions to CLOSING once the cursor passes the last question.
func (e *Engine) closeOut(ctx context.Context, session *core.Session, pr *PromptCatalog) (core.Outcome, string) {
	session.CloseOut()
	e.notifyFinished(ctx, session, core.OutcomeComplete)
	e.logger.Info("session completed", "session_id", session.ID, "answers", session.AnswerCount())

	return core.OutcomeComplete, pr.Closing
}

// Skip advances past the current question without recording an answer, valid
// only for optional questions. Skipping a required question re-emits it
// unchanged; skipping with no current question or in a phase that has no
// question in play is a safe no-op returning an empty utterance.
func (e *Engine) Skip(ctx context.Context, session *core.Session) string {
	if session.GetPhase() != core.PhaseWaitAnswer {
		return ""
	}

	question, ok := session.CurrentQuestion()
	if !ok {
		return ""
	}

	pr := e.prompts.Snapshot()

	if question.Required {
		ordinal := session.Snapshot().QuestionOrdinal
		return pr.FormatQuestion(ordinal, question.Prompt())
	}

	cursor := session.AdvanceCursor()
	e.logger.Info("question skipped", "session_id", session.ID, "question_id", question.ID)

	if cursor >= len(session.Questions) {
		_, reply := e.closeOut(ctx, session, pr)
		return reply
	}

	next, _ := session.CurrentQuestion()
	return pr.Skipping + "\n\n" + pr.FormatQuestion(cursor+1, next.Prompt())
}

// Status returns a read-only projection of the session's progress.
func (e *Engine) Status(session *core.Session) core.Status {
	return session.Snapshot()
}

// persist writes the captured answer to the response store. A failure is
// logged for reconciliation and never rolls back in-memory state: the
// conversation must not stall because a write-behind store is unavailable.
func (e *Engine) persist(ctx context.Context, session *core.Session, question core.Question, text string) {
	if e.responses == nil {
		return
	}
	resp := core.Response{
		SurveyID:     session.SurveyID,
		QuestionID:   question.ID,
		RespondentID: session.RespondentID,
		SessionID:    session.ID,
		AnswerText:   text,
		CreatedAt:    time.Now(),
	}
	if err := e.responses.SaveResponse(ctx, resp); err != nil {
		if sl, ok := e.logger.(*logging.SurveyLogger); ok {
			sl.LogPersistenceFailure(session.ID, question.ID, err)
		} else {
			e.logger.Error("response persistence failed", "session_id", session.ID, "question_id", question.ID, "error", err)
		}
	}
}

func (e *Engine) notifyFinished(ctx context.Context, session *core.Session, outcome core.Outcome) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.SessionFinished(ctx, session, outcome); err != nil {
		e.logger.Error("session finish notification failed", "session_id", session.ID, "outcome", string(outcome), "error", err)
	}
}
