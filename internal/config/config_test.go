package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads so tests are hermetic
// regardless of the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"COURSEWISE_PORT", "COURSEWISE_READ_TIMEOUT", "COURSEWISE_WRITE_TIMEOUT",
		"COURSEWISE_SHUTDOWN_TIMEOUT", "CLOUDFLARE_ACCOUNT_ID", "CLOUDFLARE_API_TOKEN",
		"CLOUDFLARE_API_BASE", "COURSEWISE_EMBED_PROVIDER", "CF_EMBED_MODEL",
		"COURSEWISE_BATCH_SIZE", "COURSEWISE_BATCH_DELAY", "OPENAI_API_KEY",
		"CF_CHAT_MODEL", "GEN_TEMPERATURE", "GEN_MAX_TOKENS", "CF_TOPK",
		"COURSEWISE_INDEX", "COURSEWISE_RATE_LIMIT", "COURSEWISE_RATE_WINDOW",
		"COURSEWISE_S3_ENDPOINT", "COURSEWISE_S3_BUCKET", "COURSEWISE_S3_REGION",
		"COURSEWISE_S3_ACCESS_KEY", "COURSEWISE_S3_SECRET_KEY",
		"COURSEWISE_LOG_LEVEL", "COURSEWISE_LOG_FORMAT",
		"COURSEWISE_CONFIG_PATH", "COURSEWISE_DEV_MODE",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_DEV_MODE", "true")
	t.Setenv("COURSEWISE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.Provider != "workersai" {
		t.Errorf("Provider = %q, want workersai", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "@cf/baai/bge-base-en-v1.5" {
		t.Errorf("Model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.BatchSize != 100 {
		t.Errorf("BatchSize = %d, want 100", cfg.Embedding.BatchSize)
	}
	if cfg.Generation.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.Generation.TopK)
	}
	if cfg.Vectorize.Index != "courses" {
		t.Errorf("Index = %q, want courses", cfg.Vectorize.Index)
	}
	if cfg.RateLimit.Limit != 3 || time.Duration(cfg.RateLimit.Window) != time.Minute {
		t.Errorf("RateLimit = %d/%v", cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.Window))
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_DEV_MODE", "true")

	yaml := `
server:
  port: 9090
  shutdown_timeout: 5s
embedding:
  model: "@cf/custom/model"
  batch_size: 25
  batch_delay: 250ms
vectorize:
  index: fall2026
rate_limit:
  limit: 10
  window: 30s
`
	path := filepath.Join(t.TempDir(), "coursewise.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if time.Duration(cfg.Server.ShutdownTimeout) != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", time.Duration(cfg.Server.ShutdownTimeout))
	}
	if cfg.Embedding.Model != "@cf/custom/model" || cfg.Embedding.BatchSize != 25 {
		t.Errorf("Embedding = %+v", cfg.Embedding)
	}
	if time.Duration(cfg.Embedding.BatchDelay) != 250*time.Millisecond {
		t.Errorf("BatchDelay = %v", time.Duration(cfg.Embedding.BatchDelay))
	}
	if cfg.Vectorize.Index != "fall2026" {
		t.Errorf("Index = %q", cfg.Vectorize.Index)
	}
	if cfg.RateLimit.Limit != 10 || time.Duration(cfg.RateLimit.Window) != 30*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	// Untouched sections keep defaults.
	if cfg.Generation.MaxTokens != 350 {
		t.Errorf("MaxTokens = %d, want default 350", cfg.Generation.MaxTokens)
	}
}

func TestEnvOverridesBeatYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_DEV_MODE", "true")

	path := filepath.Join(t.TempDir(), "coursewise.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("COURSEWISE_PORT", "7070")
	t.Setenv("CF_EMBED_MODEL", "@cf/baai/bge-large-en-v1.5")
	t.Setenv("GEN_TEMPERATURE", "0.7")
	t.Setenv("CF_TOPK", "8")
	t.Setenv("COURSEWISE_RATE_WINDOW", "2m")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Embedding.Model != "@cf/baai/bge-large-en-v1.5" {
		t.Errorf("Model = %q", cfg.Embedding.Model)
	}
	if cfg.Generation.Temperature != 0.7 {
		t.Errorf("Temperature = %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.TopK != 8 {
		t.Errorf("TopK = %d", cfg.Generation.TopK)
	}
	if time.Duration(cfg.RateLimit.Window) != 2*time.Minute {
		t.Errorf("Window = %v", time.Duration(cfg.RateLimit.Window))
	}
}

func TestCredentialsAreEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_DEV_MODE", "true")

	// Credentials in YAML must be ignored.
	yaml := `
cloudflare:
  accountid: yaml-account
  apitoken: yaml-token
embedding:
  openaiapikey: yaml-key
`
	path := filepath.Join(t.TempDir(), "coursewise.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "env-account")
	t.Setenv("CLOUDFLARE_API_TOKEN", "env-token")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Cloudflare.AccountID != "env-account" {
		t.Errorf("AccountID = %q, want env-account", cfg.Cloudflare.AccountID)
	}
	if cfg.Cloudflare.APIToken != "env-token" {
		t.Errorf("APIToken = %q, want env-token", cfg.Cloudflare.APIToken)
	}
	if cfg.Embedding.OpenAIAPIKey != "" {
		t.Errorf("OpenAIAPIKey = %q, want empty (YAML ignored)", cfg.Embedding.OpenAIAPIKey)
	}
}

func TestValidateRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CLOUDFLARE_ACCOUNT_ID") {
		t.Errorf("Load() error = %v, want missing account id", err)
	}

	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "CLOUDFLARE_API_TOKEN") {
		t.Errorf("Load() error = %v, want missing api token", err)
	}

	t.Setenv("CLOUDFLARE_API_TOKEN", "token")
	if _, err := Load(); err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
}

func TestValidateOpenAIProviderNeedsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")
	t.Setenv("CLOUDFLARE_API_TOKEN", "token")
	t.Setenv("COURSEWISE_EMBED_PROVIDER", "openai")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("Load() error = %v, want missing openai key", err)
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	if _, err := Load(); err != nil {
		t.Errorf("Load() error = %v, want nil", err)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_DEV_MODE", "true")

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// chdir moves the process into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadEnvFileAppliesDefaultDotenv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	dotenv := "CLOUDFLARE_ACCOUNT_ID=from-dotenv\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	// No explicit path: the working-directory .env still applies.
	if err := LoadEnvFile(""); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); got != "from-dotenv" {
		t.Errorf("CLOUDFLARE_ACCOUNT_ID = %q, want from-dotenv", got)
	}
}

func TestLoadEnvFileNeverOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CLOUDFLARE_ACCOUNT_ID=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "from-shell")
	if err := LoadEnvFile(""); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("CLOUDFLARE_ACCOUNT_ID"); got != "from-shell" {
		t.Errorf("CLOUDFLARE_ACCOUNT_ID = %q, dotenv must not override the shell", got)
	}
}

func TestLoadEnvFileExplicitPathErrors(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	if err := LoadEnvFile(""); err != nil {
		t.Errorf("LoadEnvFile(\"\") error = %v, missing default .env must not fail", err)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("expected error for a missing explicit env file")
	}
}

func TestDurationRejectsGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURSEWISE_DEV_MODE", "true")

	path := filepath.Join(t.TempDir(), "coursewise.yaml")
	if err := os.WriteFile(path, []byte("server:\n  read_timeout: soon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil || !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("LoadFromFile() error = %v, want invalid duration", err)
	}
}
