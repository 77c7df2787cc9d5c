// Package voxsurvey provides a high-level façade over the dialogue engine and
// session services enabling rapid construction of scripted voice interviews.
// Most applications interact with this package by:
//  1. Creating a VoxSurvey via New() (optionally overriding default in-memory services)
//  2. Starting an interview with StartInterview (greets and arms the identity check)
//  3. Feeding respondent turns through Respond until a terminal outcome
//
// The façade delegates conversation decisions to dialogue.Engine while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply durable
// store implementations and a structured logger.
package voxsurvey

import (
	"context"

	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/dialogue"
	"github.com/voxsurvey/voxsurvey/logging"
	"github.com/voxsurvey/voxsurvey/session"
)

// Options configures the VoxSurvey instance.
type Options struct {
	// Prompts supplies the utterance templates. Defaults to the stock Urdu script.
	Prompts *dialogue.PromptCatalog

	// MaxRetries is the per-question retry budget before abandonment. Zero
	// keeps core.DefaultMaxRetries.
	MaxRetries int

	// Stores (default to in-memory implementations if not provided)
	Sessions  core.SessionStore
	Responses core.ResponseStore
	Notifier  core.CompletionNotifier

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// VoxSurvey is the high-level façade aggregating the engine and services.
type VoxSurvey struct {
	opts     Options
	engine   *dialogue.Engine
	sessions core.SessionStore
}

// New creates a new VoxSurvey instance with optional overrides. Any unset
// service is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *VoxSurvey {
	opts := Options{
		Prompts: dialogue.DefaultPrompts(),
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Sessions == nil {
		opts.Sessions = session.NewInMemoryStore(
			session.WithLogger(opts.Logger),
			session.WithMaxRetries(opts.MaxRetries),
		)
	}

	engine := dialogue.New(func(o *dialogue.Options) {
		o.Prompts = opts.Prompts
		o.Responses = opts.Responses
		o.Notifier = opts.Notifier
		o.Logger = opts.Logger
	})

	return &VoxSurvey{opts: opts, engine: engine, sessions: opts.Sessions}
}

// Engine exposes the underlying dialogue engine for transport layers that
// need direct access (the HTTP server, tests).
func (v *VoxSurvey) Engine() *dialogue.Engine { return v.engine }

// Sessions exposes the session store.
func (v *VoxSurvey) Sessions() core.SessionStore { return v.sessions }

// StartInterview creates a session for the respondent and returns it together
// with the opening greeting.
func (v *VoxSurvey) StartInterview(ctx context.Context, surveyID, respondentID int64, respondentName string, questions []core.Question) (*core.Session, string, error) {
	sess, err := v.sessions.Create(surveyID, respondentID, respondentName, questions)
	if err != nil {
		return nil, "", err
	}

	greeting, err := v.engine.Start(ctx, sess)
	if err != nil {
		v.sessions.Remove(sess.ID)
		return nil, "", err
	}
	return sess, greeting, nil
}

// Respond feeds one respondent turn through the engine, serializing turns per
// session.
func (v *VoxSurvey) Respond(ctx context.Context, sessionID, utterance string) (core.Outcome, string, error) {
	sess, err := v.sessions.Get(sessionID)
	if err != nil {
		return "", "", err
	}

	sess.BeginTurn()
	defer sess.EndTurn()
	outcome, reply := v.engine.Advance(ctx, sess, utterance)
	return outcome, reply, nil
}

// Skip advances past the current question without recording an answer.
func (v *VoxSurvey) Skip(ctx context.Context, sessionID string) (string, error) {
	sess, err := v.sessions.Get(sessionID)
	if err != nil {
		return "", err
	}

	sess.BeginTurn()
	defer sess.EndTurn()
	return v.engine.Skip(ctx, sess), nil
}

// Status returns a read-only progress projection for the session.
func (v *VoxSurvey) Status(sessionID string) (core.Status, error) {
	sess, err := v.sessions.Get(sessionID)
	if err != nil {
		return core.Status{}, err
	}
	return sess.Snapshot(), nil
}
