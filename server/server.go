package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/dialogue"
	"github.com/voxsurvey/voxsurvey/logging"
	"github.com/voxsurvey/voxsurvey/model"
	"github.com/voxsurvey/voxsurvey/speech"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Sessions is the session lifecycle manager. Required.
	Sessions core.SessionStore
	// Surveys resolves survey material. Required.
	Surveys core.SurveyStore
	// Engine drives the conversation. Required.
	Engine *dialogue.Engine
	// Prompts supplies fallback utterances for transport-level errors.
	Prompts *dialogue.PromptCatalog
	// Responses serves the results endpoint. Optional.
	Responses core.ResponseStore
	// Recognizer and Synthesizer power the voice route. Optional; without
	// them the voice route accepts text frames only.
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	// Clarifier answers off-script questions. Optional.
	Clarifier model.Clarifier
	// Token configures room-token minting.
	Token TokenConfig
	// CORSOrigins lists allowed origins; defaults to all.
	CORSOrigins []string
	// Logger receives structured request events. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server wires the REST and WebSocket surface around the dialogue engine.
type Server struct {
	router      *mux.Router
	handler     http.Handler
	sessions    core.SessionStore
	surveys     core.SurveyStore
	engine      *dialogue.Engine
	prompts     *dialogue.PromptCatalog
	responses   core.ResponseStore
	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer
	clarifier   model.Clarifier
	token       TokenConfig
	logger      logging.Logger
}

// New constructs a Server with optional overrides.
func New(optFns ...func(o *Options)) *Server {
	opts := Options{
		Prompts:     dialogue.DefaultPrompts(),
		CORSOrigins: []string{"*"},
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Prompts == nil {
		opts.Prompts = dialogue.DefaultPrompts()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{
		router:      mux.NewRouter(),
		sessions:    opts.Sessions,
		surveys:     opts.Surveys,
		engine:      opts.Engine,
		prompts:     opts.Prompts,
		responses:   opts.Responses,
		recognizer:  opts.Recognizer,
		synthesizer: opts.Synthesizer,
		clarifier:   opts.Clarifier,
		token:       opts.Token,
		logger:      opts.Logger,
	}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	s.handler = c.Handler(s.router)

	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/surveys", s.handleListSurveys).Methods(http.MethodGet)
	api.HandleFunc("/surveys/{id:[0-9]+}", s.handleGetSurvey).Methods(http.MethodGet)
	api.HandleFunc("/respondents", s.handleListRespondents).Methods(http.MethodGet)
	api.HandleFunc("/respondents/{id:[0-9]+}", s.handleGetRespondent).Methods(http.MethodGet)

	api.HandleFunc("/agent/start", s.handleStart).Methods(http.MethodPost)
	api.HandleFunc("/agent/{session}/respond", s.handleRespond).Methods(http.MethodPost)
	api.HandleFunc("/agent/{session}/skip", s.handleSkip).Methods(http.MethodPost)
	api.HandleFunc("/agent/{session}/clarify", s.handleClarify).Methods(http.MethodPost)
	api.HandleFunc("/agent/{session}/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/agent/{session}/results", s.handleResults).Methods(http.MethodGet)

	api.HandleFunc("/token", s.handleToken).Methods(http.MethodPost)

	s.router.HandleFunc("/ws/voice/{session}", s.handleVoice)
}

// Handler returns the root handler including CORS middleware.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe runs the server until ctx is canceled, then drains with a
// short shutdown grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
