package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete relay configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Relay         RelayConfig         `yaml:"relay"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Sentiment     SentimentConfig     `yaml:"sentiment"`
	Storage       StorageConfig       `yaml:"storage"`
	Dashboard     DashboardConfig     `yaml:"dashboard"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig contains HTTP/websocket server configuration.
type ServerConfig struct {
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// RelayConfig contains segment processing parameters.
type RelayConfig struct {
	// MinSpeechLength is the silence/garbage filter: transcriptions shorter
	// than this many bytes are dropped.
	MinSpeechLength int `yaml:"min_speech_length"`
	// TranscribeWorkers bounds concurrent transcriptions system-wide.
	TranscribeWorkers int `yaml:"transcribe_workers"`
	// MaxMessageSize is the per-frame websocket read limit in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// TranscriptionConfig selects and configures the speech-to-text backend.
type TranscriptionConfig struct {
	Backend    string `yaml:"backend"` // "google", "whisper" or "mock"
	Endpoint   string `yaml:"endpoint"`
	Timeout    int    `yaml:"timeout"` // seconds
	SampleRate int    `yaml:"sample_rate"`
	Encoding   string `yaml:"encoding"`
	Language   string `yaml:"language"`
}

// SentimentConfig selects the sentiment scoring backend.
type SentimentConfig struct {
	Backend string `yaml:"backend"` // "gemini" or "lexicon"
	Model   string `yaml:"model"`
}

// StorageConfig contains the SQLite database location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DashboardConfig contains the best-effort forward target.
type DashboardConfig struct {
	UpdateURL string `yaml:"update_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// AuthConfig guards the override API. The secret itself comes from the
// VOXRELAY_ADMIN_SECRET environment variable; auth is disabled when unset.
type AuthConfig struct {
	TokenTTLMinutes int `yaml:"token_ttl_minutes"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Address: "0.0.0.0", Port: 8765},
		Relay: RelayConfig{
			MinSpeechLength:   5,
			TranscribeWorkers: 2,
			MaxMessageSize:    4 << 20,
		},
		Transcription: TranscriptionConfig{
			Backend:    "mock",
			Timeout:    30,
			SampleRate: 16000,
			Encoding:   "LINEAR16",
			Language:   "en-US",
		},
		Sentiment: SentimentConfig{Backend: "lexicon"},
		Storage:   StorageConfig{Path: "db/voxrelay.db"},
		Dashboard: DashboardConfig{
			UpdateURL: "http://localhost:5000/update",
			TimeoutMs: 500,
		},
		Auth:    AuthConfig{TokenTTLMinutes: 60},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads and parses the configuration file, applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ApplyEnvOverrides lets deployment environment variables win over file
// values. Load calls this; callers using Default directly should too.
func (c *Config) ApplyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if path := os.Getenv("VOXRELAY_DB_PATH"); path != "" {
		c.Storage.Path = path
	}
	if url := os.Getenv("DASHBOARD_UPDATE_URL"); url != "" {
		c.Dashboard.UpdateURL = url
	}
}

// Validate performs validation of the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay config: %w", err)
	}
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}
	if err := c.Sentiment.Validate(); err != nil {
		return fmt.Errorf("sentiment config: %w", err)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage config: path is required")
	}
	if err := c.Dashboard.Validate(); err != nil {
		return fmt.Errorf("dashboard config: %w", err)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	return nil
}

func (r *RelayConfig) Validate() error {
	if r.MinSpeechLength < 0 {
		return fmt.Errorf("min_speech_length must not be negative, got %d", r.MinSpeechLength)
	}
	if r.TranscribeWorkers <= 0 {
		return fmt.Errorf("transcribe_workers must be positive, got %d", r.TranscribeWorkers)
	}
	if r.MaxMessageSize <= 0 {
		return fmt.Errorf("max_message_size must be positive, got %d", r.MaxMessageSize)
	}
	return nil
}

func (t *TranscriptionConfig) Validate() error {
	switch t.Backend {
	case "google", "mock":
	case "whisper":
		if t.Endpoint == "" {
			return fmt.Errorf("endpoint is required for the whisper backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", t.Backend)
	}
	if t.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", t.Timeout)
	}
	if t.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", t.SampleRate)
	}
	return nil
}

func (s *SentimentConfig) Validate() error {
	switch s.Backend {
	case "gemini", "lexicon":
		return nil
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
}

func (d *DashboardConfig) Validate() error {
	if d.UpdateURL == "" {
		return fmt.Errorf("update_url is required")
	}
	if d.TimeoutMs <= 0 {
		return fmt.Errorf("timeout_ms must be positive, got %d", d.TimeoutMs)
	}
	return nil
}

// TranscriptionTimeout returns the backend timeout as a duration.
func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.Timeout) * time.Second
}

// DashboardTimeout returns the forward timeout as a duration.
func (c *Config) DashboardTimeout() time.Duration {
	return time.Duration(c.Dashboard.TimeoutMs) * time.Millisecond
}

// TokenTTL returns the admin token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}
