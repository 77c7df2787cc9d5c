// Command surveyd runs the voice survey agent: REST API, voice WebSocket and
// the session eviction loop. With no configuration it serves a built-in demo
// survey from memory; point database.dsn at Postgres for durable storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxsurvey/voxsurvey/config"
	"github.com/voxsurvey/voxsurvey/core"
	"github.com/voxsurvey/voxsurvey/dialogue"
	"github.com/voxsurvey/voxsurvey/logging"
	"github.com/voxsurvey/voxsurvey/model"
	"github.com/voxsurvey/voxsurvey/model/anthropic"
	"github.com/voxsurvey/voxsurvey/model/openai"
	"github.com/voxsurvey/voxsurvey/server"
	"github.com/voxsurvey/voxsurvey/session"
	"github.com/voxsurvey/voxsurvey/speech"
	"github.com/voxsurvey/voxsurvey/store"
)

func main() {
	configPath := flag.String("config", "", "path to voxsurvey.yaml (default: search working directory)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "surveyd:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, false)
	logger = logger.WithComponent("surveyd")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Durable storage: Postgres when a DSN is configured, otherwise an
	// in-memory store seeded with the demo survey.
	var (
		surveys   core.SurveyStore
		responses core.ResponseStore
		notifier  core.CompletionNotifier
	)
	if cfg.Database.DSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		surveys, responses, notifier = pg, pg, pg
		logger.Info("using postgres storage")
	} else {
		mem := store.NewInMemoryStore()
		seedDemo(mem)
		surveys, responses, notifier = mem, mem, mem
		logger.Info("using in-memory storage with demo survey")
	}

	prompts := dialogue.DefaultPrompts()
	prompts.Apply(cfg.Dialogue.Prompts)

	// Prompt overrides hot-reload on config file changes. Structural settings
	// (listen address, DSN, clarifier) still require a restart.
	loader.Watch(func(fresh *config.Config) {
		prompts.Apply(fresh.Dialogue.Prompts)
		logger.Info("prompt overrides reloaded")
	})

	engine := dialogue.New(func(o *dialogue.Options) {
		o.Prompts = prompts
		o.Responses = responses
		o.Notifier = notifier
		o.Logger = logger.WithComponent("dialogue")
	})

	sessions := session.NewInMemoryStore(
		session.WithLogger(logger.WithComponent("session")),
		session.WithMaxRetries(cfg.Dialogue.MaxRetries),
	)
	go evictLoop(ctx, sessions, cfg.Session, logger)

	recognizer := speech.NewWhisperClient(cfg.Speech.WhisperURL)
	synthesizer := speech.NewEdgeTTSClient(cfg.Speech.TTSURL, func(o *speech.ClientOptions) {
		o.Voice = cfg.Speech.Voice
	})

	clarifier := buildClarifier(cfg.Clarifier, logger)

	srv := server.New(func(o *server.Options) {
		o.Sessions = sessions
		o.Surveys = surveys
		o.Engine = engine
		o.Prompts = prompts
		o.Responses = responses
		o.Recognizer = recognizer
		o.Synthesizer = synthesizer
		o.Clarifier = clarifier
		o.Token = server.TokenConfig{
			Secret: cfg.Token.Secret,
			TTL:    cfg.Token.TTL,
			WSURL:  cfg.Token.WSURL,
		}
		o.CORSOrigins = cfg.Server.CORSOrigins
		o.Logger = logger.WithComponent("server")
	})

	logger.Info("listening", "addr", cfg.Server.Addr)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// buildClarifier wires the optional LLM provider. An empty provider disables
// clarification; the server falls back to the scripted repeat-request line.
func buildClarifier(cfg config.ClarifierConfig, logger logging.Logger) model.Clarifier {
	switch cfg.Provider {
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.BaseURL = cfg.BaseURL
			o.APIKey = cfg.APIKey
		})
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.APIKey = cfg.APIKey
		})
	case "":
		return nil
	default:
		logger.Warn("unknown clarifier provider, clarification disabled", "provider", cfg.Provider)
		return nil
	}
}

// evictLoop periodically removes sessions past the retention window.
func evictLoop(ctx context.Context, sessions *session.InMemoryStore, cfg config.SessionConfig, logger logging.Logger) {
	interval := cfg.EvictInterval
	if interval <= 0 {
		interval = time.Hour
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.EvictOlderThan(retention); n > 0 {
				logger.Info("session eviction pass", "evicted", n)
			}
		}
	}
}

// seedDemo loads the stock field-officer survey used by development and demo
// deployments.
func seedDemo(mem *store.InMemoryStore) {
	mem.PutSurvey(core.Survey{
		ID:            1,
		Title:         "Field Officer Workplace Survey",
		TitleUR:       "فیلڈ آفیسر ورک پلیس سروے",
		Description:   "Quarterly workplace conditions survey for field staff",
		DescriptionUR: "فیلڈ عملے کے لیے سہ ماہی ورک پلیس سروے",
	}, []core.Question{
		{ID: 1, SurveyID: 1, Ordinal: 1, Required: true, Kind: "open",
			Text:   "How satisfied are you with your current work environment?",
			TextUR: "آپ اپنے موجودہ کام کے ماحول سے کتنے مطمئن ہیں؟"},
		{ID: 2, SurveyID: 1, Ordinal: 2, Required: true, Kind: "open",
			Text:   "Do you receive your salary on time every month?",
			TextUR: "کیا آپ کو ہر مہینے تنخواہ وقت پر ملتی ہے؟"},
		{ID: 3, SurveyID: 1, Ordinal: 3, Required: false, Kind: "open",
			Text:   "How is your relationship with your branch manager?",
			TextUR: "آپ کے برانچ منیجر کے ساتھ آپ کے تعلقات کیسے ہیں؟"},
		{ID: 4, SurveyID: 1, Ordinal: 4, Required: false, Kind: "open",
			Text:   "Are the company's tools and resources adequate for your work?",
			TextUR: "کیا کمپنی کے آلات اور وسائل آپ کے کام کے لیے کافی ہیں؟"},
		{ID: 5, SurveyID: 1, Ordinal: 5, Required: true, Kind: "open",
			Text:   "What one change would most improve your daily work?",
			TextUR: "کون سی ایک تبدیلی آپ کے روزانہ کام کو سب سے زیادہ بہتر بنائے گی؟"},
	})

	mem.PutRespondent(core.Respondent{
		ID: 1, Name: "احمد علی", NameEN: "Ahmed Ali",
		Designation: "Field Officer", Branch: "Lahore Main", Phone: "+92-300-0000001",
	})
	mem.PutRespondent(core.Respondent{
		ID: 2, Name: "محمد حسن", NameEN: "Muhammad Hassan",
		Designation: "Field Officer", Branch: "Karachi North", Phone: "+92-300-0000002",
	})
}
