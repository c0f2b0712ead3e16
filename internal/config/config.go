package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned when no completion provider credential is configured
var ErrMissingAPIKey = errors.New("OpenAI API key not found: set OPENAI_API_KEY or [openai].api_key")

// Config is the application configuration
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Logging    LoggingConfig    `toml:"logging"`
	OpenAI     OpenAIConfig     `toml:"openai"`
	Transcript TranscriptConfig `toml:"transcript"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Completion CompletionConfig `toml:"completion"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Storage    StorageConfig    `toml:"storage"`
	Auth       AuthConfig       `toml:"auth"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host                string   `toml:"host"`
	Port                int      `toml:"port"`
	ReadTimeoutSeconds  int      `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `toml:"write_timeout_seconds"`
	CORSAllowedOrigins  []string `toml:"cors_allowed_origins"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// OpenAIConfig holds completion provider settings
type OpenAIConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TranscriptConfig holds caption source settings
type TranscriptConfig struct {
	Proxy          string   `toml:"proxy"`
	Languages      []string `toml:"languages"`
	Timestamps     bool     `toml:"timestamps"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	BaseURL        string   `toml:"base_url"`
}

// ChunkingConfig holds chunker settings
type ChunkingConfig struct {
	MaxTokens      int    `toml:"max_tokens"`
	TokenizerModel string `toml:"tokenizer_model"`
}

// CompletionConfig holds fan-out settings
type CompletionConfig struct {
	MaxConcurrency    int     `toml:"max_concurrency"`
	SystemPrompt      string  `toml:"system_prompt"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// PipelineConfig holds whole-request settings
type PipelineConfig struct {
	// TimeoutSeconds bounds one transcription request end to end; 0 disables the deadline
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// StorageConfig holds transcription history settings
type StorageConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// AuthConfig holds the shared API token; empty disables authentication
type AuthConfig struct {
	Token string `toml:"token"`
}

// Default returns the configuration used when no file or environment overrides are present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 960,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		OpenAI: OpenAIConfig{
			Model:          "gpt-4",
			TimeoutSeconds: 300,
		},
		Transcript: TranscriptConfig{
			Languages:      []string{"en"},
			TimeoutSeconds: 30,
		},
		Chunking: ChunkingConfig{
			MaxTokens:      16000,
			TokenizerModel: "gpt-4",
		},
		Completion: CompletionConfig{
			MaxConcurrency: 8,
		},
		Pipeline: PipelineConfig{
			TimeoutSeconds: 900,
		},
		Storage: StorageConfig{
			Enabled: false,
			Path:    "data/yt-scribe.db",
		},
	}
}

// Load reads the TOML file at path (skipped when it does not exist), then the
// .env file in the working directory, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", path, err)
		}
	}

	// A missing .env is normal in containers
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides values from the environment
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.OpenAI.APIKey = v
	}
	if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" {
		c.OpenAI.BaseURL = v
	}
	if v, ok := lookup("OPENAI_MODEL"); ok && v != "" {
		c.OpenAI.Model = v
	}
	if v, ok := lookup("PROXY"); ok && v != "" {
		c.Transcript.Proxy = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := lookup("API_TOKEN"); ok && v != "" {
		c.Auth.Token = v
	}
	if v, ok := lookup("TIMESTAMPS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TIMESTAMPS %q: %w", v, err)
		}
		c.Transcript.Timestamps = b
	}
	if v, ok := lookup("MAX_TOKENS"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid MAX_TOKENS %q: %w", v, err)
		}
		c.Chunking.MaxTokens = n
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = n
	}
	return nil
}

// Validate checks required values and ranges
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Chunking.MaxTokens < 1 {
		return fmt.Errorf("chunking.max_tokens must be at least 1, got %d", c.Chunking.MaxTokens)
	}
	if c.Completion.MaxConcurrency < 0 {
		return fmt.Errorf("completion.max_concurrency must not be negative, got %d", c.Completion.MaxConcurrency)
	}
	if c.Completion.RequestsPerSecond < 0 {
		return fmt.Errorf("completion.requests_per_second must not be negative, got %g", c.Completion.RequestsPerSecond)
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required when storage is enabled")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
