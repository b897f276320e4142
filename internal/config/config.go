package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"readmegen/internal/archive"
	"readmegen/internal/llmclient"
	"readmegen/internal/readme"
	"readmegen/internal/scan"
)

type Config struct {
	Port           string
	Env            string
	IgnoreListPath string
	Ignore         scan.IgnoreList
	LLM            LLMConfig
	TokenCeiling   int
	Selection      readme.SelectionPolicy
	Layout         bool
	CloneRoot      string
	CloneBranch    string
	RequestTimeout time.Duration
	RunLogDir      string
	LedgerDSN      string
	Archive        ArchiveConfig
}

type LLMConfig struct {
	Provider      string
	Model         string
	APIKey        string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
	RetryJitter   bool
}

// ArchiveConfig selects where prompt artifacts go. Backend is one of
// "file", "s3", "memory" or "off".
type ArchiveConfig struct {
	Backend string
	Dir     string
	S3      archive.S3Config
}

// Load reads .env (if present), flags from args, then environment overrides.
// The ignore list is loaded eagerly and a missing provider key is an error.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("readmegen-api", flag.ContinueOnError)
	port := fs.String("port", ":8000", "server port")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	cfg := &Config{
		Port:           *port,
		Env:            firstNonEmpty(env("APP_ENV"), "local"),
		IgnoreListPath: firstNonEmpty(env("IGNORE_LIST_PATH"), "config/ignore_file_list.json"),
		LLM: LLMConfig{
			Provider:      strings.ToLower(firstNonEmpty(env("LLM_PROVIDER"), llmclient.ProviderAnthropic)),
			Model:         env("LLM_MODEL"),
			Timeout:       durationEnv("LLM_TIMEOUT", 60*time.Second),
			RetryAttempts: intEnv("LLM_RETRY_ATTEMPTS", 3),
			RetryBackoff:  durationEnv("LLM_RETRY_BACKOFF", 0),
			RetryJitter:   boolEnv("LLM_RETRY_JITTER", false),
		},
		TokenCeiling: intEnv("TOKEN_CEILING", readme.DefaultTokenCeiling),
		Selection: readme.SelectionPolicy{
			Threshold: intEnv("SELECT_THRESHOLD", readme.DefaultSelection().Threshold),
			Fraction:  floatEnv("SELECT_FRACTION", readme.DefaultSelection().Fraction),
		},
		Layout:         boolEnv("PROMPT_LAYOUT", false),
		CloneRoot:      env("CLONE_ROOT"),
		CloneBranch:    firstNonEmpty(env("CLONE_BRANCH"), "main"),
		RequestTimeout: durationEnv("REQUEST_TIMEOUT", 5*time.Minute),
		RunLogDir:      env("RUN_LOG_DIR"),
		LedgerDSN:      env("RUNLEDGER_PG_DSN"),
		Archive:        loadArchiveConfig(),
	}
	cfg.LLM.APIKey = apiKey(cfg.LLM.Provider)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ignore, err := scan.LoadIgnoreList(cfg.IgnoreListPath)
	if err != nil {
		return nil, fmt.Errorf("load ignore list %s: %w", cfg.IgnoreListPath, err)
	}
	cfg.Ignore = ignore
	return cfg, nil
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case llmclient.ProviderAnthropic, llmclient.ProviderGemini, llmclient.ProviderGroq:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%s API key is not set", c.LLM.Provider)
		}
	case llmclient.ProviderFake:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.TokenCeiling <= 0 {
		return fmt.Errorf("TOKEN_CEILING must be positive")
	}
	if f := c.Selection.Fraction; f <= 0 || f > 1 {
		return fmt.Errorf("SELECT_FRACTION must be in (0, 1]")
	}
	switch c.Archive.Backend {
	case "off", "memory", "file":
	case "s3":
		if c.Archive.S3.Endpoint == "" {
			return fmt.Errorf("ARCHIVE_S3_ENDPOINT is required for the s3 archive")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_BACKEND %q", c.Archive.Backend)
	}
	return nil
}

func apiKey(provider string) string {
	switch provider {
	case llmclient.ProviderGemini:
		return firstNonEmpty(env("GEMINI_API_KEY"), env("GOOGLE_API_KEY"))
	case llmclient.ProviderGroq:
		return env("GROQ_API_KEY")
	case llmclient.ProviderAnthropic:
		return env("ANTHROPIC_API_KEY")
	}
	return ""
}

func loadArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Backend: strings.ToLower(firstNonEmpty(env("ARCHIVE_BACKEND"), "file")),
		Dir:     env("ARCHIVE_DIR"),
		S3: archive.S3Config{
			Endpoint:  env("ARCHIVE_S3_ENDPOINT"),
			Region:    firstNonEmpty(env("ARCHIVE_S3_REGION"), "us-east-1"),
			AccessKey: firstNonEmpty(env("ARCHIVE_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
			SecretKey: firstNonEmpty(env("ARCHIVE_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
			Bucket:    firstNonEmpty(env("ARCHIVE_S3_BUCKET"), "readmegen-runs"),
			UseSSL:    boolEnv("ARCHIVE_S3_USE_SSL", false),
		},
	}
}

func env(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(env(key))
	if err != nil {
		return def
	}
	return v
}

func floatEnv(key string, def float64) float64 {
	v, err := strconv.ParseFloat(env(key), 64)
	if err != nil {
		return def
	}
	return v
}

func boolEnv(key string, def bool) bool {
	v, err := strconv.ParseBool(env(key))
	if err != nil {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := env(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
