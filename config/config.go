// Package config loads application settings from file and environment using
// viper. Every field has a development-safe default so `surveyd` runs with no
// configuration at all; deployments override via voxsurvey.yaml or
// VOXSURVEY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP/WebSocket listener settings.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig selects the durable store backend. An empty DSN keeps
// everything in memory, which is the development default.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// SpeechConfig points at the transcription and synthesis sidecar services.
type SpeechConfig struct {
	WhisperURL string `mapstructure:"whisper_url"`
	TTSURL     string `mapstructure:"tts_url"`
	Voice      string `mapstructure:"voice"`
}

// ClarifierConfig selects the optional LLM used for off-script clarification.
type ClarifierConfig struct {
	// Provider is "openai", "anthropic" or "" to disable clarification.
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	// BaseURL points the openai provider at an OpenAI-compatible endpoint
	// such as a local Ollama server.
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// DialogueConfig tunes the conversation state machine.
type DialogueConfig struct {
	// MaxRetries is the per-question retry budget before abandonment.
	MaxRetries int `mapstructure:"max_retries"`
	// Prompts overrides individual utterance templates by catalog key.
	Prompts map[string]string `mapstructure:"prompts"`
}

// SessionConfig controls in-memory session retention.
type SessionConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	EvictInterval time.Duration `mapstructure:"evict_interval"`
}

// TokenConfig configures room-join token minting.
type TokenConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
	WSURL  string        `mapstructure:"ws_url"`
}

// LogConfig selects log level and handler format.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the root settings document.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Clarifier ClarifierConfig `mapstructure:"clarifier"`
	Dialogue  DialogueConfig  `mapstructure:"dialogue"`
	Session   SessionConfig   `mapstructure:"session"`
	Token     TokenConfig     `mapstructure:"token"`
	Log       LogConfig       `mapstructure:"log"`
}

// Loader owns the viper instance so callers can watch for file changes.
type Loader struct {
	mu    sync.Mutex
	viper *viper.Viper
}

// NewLoader constructs a Loader reading the optional config file at path. An
// empty path searches the working directory for voxsurvey.yaml.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("voxsurvey")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/voxsurvey")
	}
	v.SetEnvPrefix("VOXSURVEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return &Loader{viper: v}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.dsn", "")
	v.SetDefault("speech.whisper_url", "http://localhost:8001")
	v.SetDefault("speech.tts_url", "http://localhost:8002")
	v.SetDefault("speech.voice", "ur-PK-UzmaNeural")
	v.SetDefault("clarifier.provider", "")
	v.SetDefault("clarifier.model", "")
	v.SetDefault("clarifier.base_url", "")
	v.SetDefault("dialogue.max_retries", 3)
	v.SetDefault("session.retention", 24*time.Hour)
	v.SetDefault("session.evict_interval", time.Hour)
	v.SetDefault("token.secret", "devsecret")
	v.SetDefault("token.ttl", time.Hour)
	v.SetDefault("token.ws_url", "ws://localhost:7880")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads the file (when present) and unmarshals the full document.
// A missing config file is not an error; defaults and environment apply.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := l.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Watch re-reads the document whenever the backing file changes and hands the
// fresh config to onChange. Used to hot-reload prompt overrides without a
// restart; structural settings (listen address, DSN) still need one.
func (l *Loader) Watch(onChange func(*Config)) {
	l.viper.OnConfigChange(func(fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			return
		}
		onChange(cfg)
	})
	l.viper.WatchConfig()
}
