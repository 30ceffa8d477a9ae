package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Cloudflare CloudflareConfig `yaml:"cloudflare"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Vectorize  VectorizeConfig  `yaml:"vectorize"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Artifact   ArtifactConfig   `yaml:"artifact"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// CloudflareConfig contains Cloudflare API access settings.
// Credentials are env-only and never read from YAML.
type CloudflareConfig struct {
	AccountID string `yaml:"-"` // env-only: CLOUDFLARE_ACCOUNT_ID
	APIToken  string `yaml:"-"` // env-only: CLOUDFLARE_API_TOKEN
	BaseURL   string `yaml:"base_url"`
}

// EmbeddingConfig contains embedding service settings.
type EmbeddingConfig struct {
	Provider     string   `yaml:"provider"` // "workersai" or "openai"
	Model        string   `yaml:"model"`
	BatchSize    int      `yaml:"batch_size"`
	BatchDelay   Duration `yaml:"batch_delay"`
	OpenAIAPIKey string   `yaml:"-"` // env-only, never in YAML
}

// GenerationConfig contains answer generation settings.
type GenerationConfig struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopK        int     `yaml:"top_k"`
}

// VectorizeConfig contains vector index settings.
type VectorizeConfig struct {
	Index string `yaml:"index"`
}

// RateLimitConfig contains fixed-window rate limiter settings for /ask.
type RateLimitConfig struct {
	Limit  int      `yaml:"limit"`
	Window Duration `yaml:"window"`
}

// ArtifactConfig contains optional S3-compatible storage settings for
// built NDJSON artifacts. Empty bucket disables uploads.
type ArtifactConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"-"` // env-only: COURSEWISE_S3_ACCESS_KEY
	SecretKey string `yaml:"-"` // env-only: COURSEWISE_S3_SECRET_KEY
	UseSSL    *bool  `yaml:"use_ssl"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// LoadEnvFile loads environment variables from a dotenv file when path is
// non-empty, then applies a default .env if one exists without overriding
// anything already set. Every command calls this before Load so
// Cloudflare credentials in a working-directory .env are always picked up.
func LoadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
	}
	// Best effort; a missing default .env is fine.
	_ = godotenv.Load()
	return nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("COURSEWISE_CONFIG_PATH", "config/coursewise.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Cloudflare: CloudflareConfig{
			BaseURL: "https://api.cloudflare.com/client/v4",
		},
		Embedding: EmbeddingConfig{
			Provider:  "workersai",
			Model:     "@cf/baai/bge-base-en-v1.5",
			BatchSize: 100,
		},
		Generation: GenerationConfig{
			Model:       "@cf/meta/llama-3.1-8b-instruct-fast",
			Temperature: 0.2,
			MaxTokens:   350,
			TopK:        5,
		},
		Vectorize: VectorizeConfig{
			Index: "courses",
		},
		RateLimit: RateLimitConfig{
			Limit:  3,
			Window: Duration(time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("COURSEWISE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("COURSEWISE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("COURSEWISE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("COURSEWISE_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Cloudflare
	if v := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); v != "" {
		cfg.Cloudflare.AccountID = v
	}
	if v := os.Getenv("CLOUDFLARE_API_TOKEN"); v != "" {
		cfg.Cloudflare.APIToken = v
	}
	if v := os.Getenv("CLOUDFLARE_API_BASE"); v != "" {
		cfg.Cloudflare.BaseURL = v
	}

	// Embedding (OPENAI_API_KEY is industry convention)
	if v := os.Getenv("COURSEWISE_EMBED_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("CF_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("COURSEWISE_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.BatchSize = n
		}
	}
	if v := os.Getenv("COURSEWISE_BATCH_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Embedding.BatchDelay = Duration(d)
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Embedding.OpenAIAPIKey = v
	}

	// Generation
	if v := os.Getenv("CF_CHAT_MODEL"); v != "" {
		cfg.Generation.Model = v
	}
	if v := os.Getenv("GEN_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Generation.Temperature = f
		}
	}
	if v := os.Getenv("GEN_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generation.MaxTokens = n
		}
	}
	if v := os.Getenv("CF_TOPK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Generation.TopK = n
		}
	}

	// Vectorize
	if v := os.Getenv("COURSEWISE_INDEX"); v != "" {
		cfg.Vectorize.Index = v
	}

	// Rate limit
	if v := os.Getenv("COURSEWISE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.Limit = n
		}
	}
	if v := os.Getenv("COURSEWISE_RATE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RateLimit.Window = Duration(d)
		}
	}

	// Artifact storage
	if v := os.Getenv("COURSEWISE_S3_ENDPOINT"); v != "" {
		cfg.Artifact.Endpoint = v
	}
	if v := os.Getenv("COURSEWISE_S3_BUCKET"); v != "" {
		cfg.Artifact.Bucket = v
	}
	if v := os.Getenv("COURSEWISE_S3_REGION"); v != "" {
		cfg.Artifact.Region = v
	}
	if v := os.Getenv("COURSEWISE_S3_ACCESS_KEY"); v != "" {
		cfg.Artifact.AccessKey = v
	}
	if v := os.Getenv("COURSEWISE_S3_SECRET_KEY"); v != "" {
		cfg.Artifact.SecretKey = v
	}

	// Log
	if v := os.Getenv("COURSEWISE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("COURSEWISE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (COURSEWISE_DEV_MODE=true), credential validation is skipped.
func (c *Config) validate() error {
	if os.Getenv("COURSEWISE_DEV_MODE") == "true" {
		return nil
	}

	if c.Cloudflare.AccountID == "" {
		return errors.New("CLOUDFLARE_ACCOUNT_ID is required")
	}
	if c.Cloudflare.APIToken == "" {
		return errors.New("CLOUDFLARE_API_TOKEN is required")
	}
	if c.Embedding.Provider == "openai" && c.Embedding.OpenAIAPIKey == "" {
		return errors.New("OPENAI_API_KEY is required for the openai embedding provider")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
