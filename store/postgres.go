package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/logging"
)

// PostgresStore persists survey material, responses and session status in
// PostgreSQL via a pgx connection pool. It implements core.SurveyStore,
// core.ResponseStore and core.CompletionNotifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresLogger attaches a structured logger to the store.
func WithPostgresLogger(l logging.Logger) PostgresOption {
	return func(s *PostgresStore) { s.logger = l }
}

// NewPostgresStore connects a pool to the given DSN and verifies it with a
// short ping. Pool sizing follows the usual interview workload: many idle
// sessions, short bursts of single-row writes.
func NewPostgresStore(ctx context.Context, dsn string, opts ...PostgresOption) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolCfg.MaxConns = 25
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: pool, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool, for callers that manage
// pool lifecycle themselves.
func NewPostgresStoreFromPool(pool *pgxpool.Pool, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{pool: pool, logger: logging.NoOpLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate creates the schema when it does not exist yet. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS surveys (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			title_ur TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			description_ur TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id BIGINT PRIMARY KEY,
			survey_id BIGINT NOT NULL REFERENCES surveys(id),
			ordinal INT NOT NULL,
			text TEXT NOT NULL,
			text_ur TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT 'text',
			required BOOLEAN NOT NULL DEFAULT TRUE,
			help_text TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS respondents (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			name_en TEXT NOT NULL DEFAULT '',
			designation TEXT NOT NULL DEFAULT '',
			branch TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS responses (
			id BIGSERIAL PRIMARY KEY,
			survey_id BIGINT NOT NULL REFERENCES surveys(id),
			question_id BIGINT NOT NULL REFERENCES questions(id),
			respondent_id BIGINT NOT NULL REFERENCES respondents(id),
			session_id TEXT NOT NULL,
			answer_text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			survey_id BIGINT NOT NULL,
			respondent_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'in_progress',
			started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

// GetSurvey returns the survey or core.ErrSurveyNotFound.
func (s *PostgresStore) GetSurvey(ctx context.Context, surveyID int64) (*core.Survey, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, title, title_ur, description, description_ur FROM surveys WHERE id = $1`, surveyID)
	var sv core.Survey
	if err := row.Scan(&sv.ID, &sv.Title, &sv.TitleUR, &sv.Description, &sv.DescriptionUR); err != nil {
		return nil, core.ErrSurveyNotFound
	}
	return &sv, nil
}

// ListSurveys returns all surveys ordered by id.
func (s *PostgresStore) ListSurveys(ctx context.Context) ([]core.Survey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, title_ur, description, description_ur FROM surveys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	var out []core.Survey
	for rows.Next() {
		var sv core.Survey
		if err := rows.Scan(&sv.ID, &sv.Title, &sv.TitleUR, &sv.Description, &sv.DescriptionUR); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

// GetQuestions returns the survey's questions in ordinal order.
func (s *PostgresStore) GetQuestions(ctx context.Context, surveyID int64) ([]core.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, survey_id, ordinal, text, text_ur, kind, required, help_text
		 FROM questions WHERE survey_id = $1 ORDER BY ordinal`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	var out []core.Question
	for rows.Next() {
		var q core.Question
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Ordinal, &q.Text, &q.TextUR, &q.Kind, &q.Required, &q.HelpText); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// GetRespondent returns the respondent or core.ErrRespondentNotFound.
func (s *PostgresStore) GetRespondent(ctx context.Context, respondentID int64) (*core.Respondent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, name_en, designation, branch, phone FROM respondents WHERE id = $1`, respondentID)
	var r core.Respondent
	if err := row.Scan(&r.ID, &r.Name, &r.NameEN, &r.Designation, &r.Branch, &r.Phone); err != nil {
		return nil, core.ErrRespondentNotFound
	}
	return &r, nil
}

// ListRespondents returns all respondents ordered by id.
func (s *PostgresStore) ListRespondents(ctx context.Context) ([]core.Respondent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, name_en, designation, branch, phone FROM respondents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list respondents: %w", err)
	}
	defer rows.Close()

	var out []core.Respondent
	for rows.Next() {
		var r core.Respondent
		if err := rows.Scan(&r.ID, &r.Name, &r.NameEN, &r.Designation, &r.Branch, &r.Phone); err != nil {
			return nil, fmt.Errorf("scan respondent: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveResponse persists one verbatim answer record.
func (s *PostgresStore) SaveResponse(ctx context.Context, resp core.Response) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO responses (survey_id, question_id, respondent_id, session_id, answer_text, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		resp.SurveyID, resp.QuestionID, resp.RespondentID, resp.SessionID, resp.AnswerText, resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("save response: %w", err)
	}
	return nil
}

// GetResponses returns persisted answers for a survey/respondent pair in
// question order.
func (s *PostgresStore) GetResponses(ctx context.Context, surveyID, respondentID int64) ([]core.Response, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.survey_id, r.question_id, r.respondent_id, r.session_id, r.answer_text, r.created_at
		 FROM responses r
		 JOIN questions q ON q.id = r.question_id
		 WHERE r.survey_id = $1 AND r.respondent_id = $2
		 ORDER BY q.ordinal`, surveyID, respondentID)
	if err != nil {
		return nil, fmt.Errorf("get responses: %w", err)
	}
	defer rows.Close()

	var out []core.Response
	for rows.Next() {
		var r core.Response
		if err := rows.Scan(&r.ID, &r.SurveyID, &r.QuestionID, &r.RespondentID, &r.SessionID, &r.AnswerText, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionStarted inserts the session status row.
func (s *PostgresStore) SessionStarted(ctx context.Context, sess *core.Session) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, survey_id, respondent_id, status, started_at)
		 VALUES ($1, $2, $3, 'in_progress', $4)
		 ON CONFLICT (id) DO NOTHING`,
		sess.ID, sess.SurveyID, sess.RespondentID, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("record session start: %w", err)
	}
	return nil
}

// SessionFinished stamps the terminal status and completion time.
func (s *PostgresStore) SessionFinished(ctx context.Context, sess *core.Session, outcome core.Outcome) error {
	status := "completed"
	if outcome == core.OutcomeAbandoned {
		status = "abandoned"
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $2, completed_at = now() WHERE id = $1`,
		sess.ID, status)
	if err != nil {
		return fmt.Errorf("record session finish: %w", err)
	}
	return nil
}
