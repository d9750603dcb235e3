// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process-wide configuration, built once at startup and
// passed explicitly into each component. Required credentials fail Load
// before any network call happens.
type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken      string  `env:"AUTH_TOKEN"`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins    string  `env:"CORS_ORIGINS"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	// Object store (S3-compatible).
	S3Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket        string        `env:"S3_BUCKET,required"`
	S3Prefix        string        `env:"S3_PREFIX" envDefault:"subtitler"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY,required"`
	S3SecretKey     string        `env:"S3_SECRET_KEY,required"`
	S3PresignExpiry time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"2h"`

	// Transcription provider.
	TranscribeAPIKey       string        `env:"ASSEMBLYAI_API_KEY,required"`
	TranscribeTimeout      time.Duration `env:"TRANSCRIBE_HTTP_TIMEOUT" envDefault:"30s"`
	TranscribePollInterval time.Duration `env:"TRANSCRIBE_POLL_INTERVAL" envDefault:"2500ms"`
	TranscribeDeadline     time.Duration `env:"TRANSCRIBE_DEADLINE" envDefault:"30m"`

	// Translation.
	TranslateTimeout time.Duration `env:"TRANSLATE_HTTP_TIMEOUT" envDefault:"15s"`
	TranslateMirrors string        `env:"TRANSLATE_MIRRORS"`
	TranslateDelay   time.Duration `env:"TRANSLATE_CUE_DELAY" envDefault:"40ms"`

	// Media acquisition.
	ExtractorBinary  string        `env:"EXTRACTOR_BINARY" envDefault:"yt-dlp"`
	MaxDownloadBytes int64         `env:"MAX_DOWNLOAD_BYTES" envDefault:"838860800"` // 800 MB
	DownloadTimeout  time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"2m"`
	StreamRetries    int           `env:"STREAM_RETRIES" envDefault:"3"`
	TempDir          string        `env:"TEMP_DIR"`

	// Output.
	SubtitleDir string `env:"SUBTITLE_DIR" envDefault:"./subtitles"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile     string
	HTTPAddr    string
	LogLevel    string
	SubtitleDir string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.SubtitleDir != "" {
		cfg.SubtitleDir = overrides.SubtitleDir
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MirrorURLs splits the configured mirror list. Empty entries are dropped.
func (c *Config) MirrorURLs() []string {
	return splitList(c.TranslateMirrors)
}

// CORSOriginList splits the configured allowed origins. Empty means all.
func (c *Config) CORSOriginList() []string {
	return splitList(c.CORSOrigins)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) validate() error {
	if c.MaxDownloadBytes <= 0 {
		return fmt.Errorf("MAX_DOWNLOAD_BYTES must be positive, got %d", c.MaxDownloadBytes)
	}
	if c.StreamRetries < 1 {
		return fmt.Errorf("STREAM_RETRIES must be at least 1, got %d", c.StreamRetries)
	}
	if c.TranscribePollInterval <= 0 {
		return fmt.Errorf("TRANSCRIBE_POLL_INTERVAL must be positive, got %s", c.TranscribePollInterval)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive, got %g and %d", c.RateLimitRPS, c.RateLimitBurst)
	}
	return nil
}
