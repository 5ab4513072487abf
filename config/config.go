package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port        string `validate:"required,numeric"`
	LogLevel    string
	BodyLimitMB int `validate:"gt=0"`

	Supabase SupabaseConfig
	Gemini   GeminiConfig
	Source   SourceConfig
	Whisper  WhisperConfig
	Redis    RedisConfig

	FFmpegPath string `validate:"required"`
	ScratchDir string `validate:"required"`
	RunsTable  string
}

type SupabaseConfig struct {
	URL    string `validate:"required,url"`
	Key    string `validate:"required"`
	Bucket string `validate:"required"`
}

type GeminiConfig struct {
	APIKey  string
	Model   string `validate:"required"`
	BaseURL string `validate:"required,url"`
}

type SourceConfig struct {
	ChannelURL string `validate:"required,url"`
	FetchLimit int    `validate:"gte=1"`
	YtDlpPath  string `validate:"required"`
}

type WhisperConfig struct {
	Bin      string `validate:"required"`
	Model    string `validate:"required"`
	ModelDir string `validate:"required"`
	Threads  int    `validate:"gte=1"`
}

type RedisConfig struct {
	Addr     string `validate:"omitempty,hostname_port"`
	Password string
	DB       int
	LockTTL  time.Duration `validate:"gt=0"`
}

const (
	DefaultGeminiModel   = "gemini-3-flash-preview"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultChannelURL    = "https://www.youtube.com/@ESPNNFL/videos"
)

var validate = validator.New()

// Load reads .env (if present) and the process environment, then validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	supabaseKey := os.Getenv("SUPABASE_SERVICE_KEY")
	if supabaseKey == "" {
		supabaseKey = os.Getenv("SUPABASE_KEY")
	}

	cfg := &Config{
		Port:        getenvDefault("PORT", "8080"),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
		BodyLimitMB: getenvInt("BODY_LIMIT_MB", 512),
		Supabase: SupabaseConfig{
			URL:    os.Getenv("SUPABASE_URL"),
			Key:    supabaseKey,
			Bucket: getenvDefault("STORAGE_BUCKET", "videos"),
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			Model:   getenvDefault("GEMINI_MODEL", DefaultGeminiModel),
			BaseURL: getenvDefault("GEMINI_BASE_URL", DefaultGeminiBaseURL),
		},
		Source: SourceConfig{
			ChannelURL: getenvDefault("CHANNEL_URL", DefaultChannelURL),
			FetchLimit: getenvInt("FETCH_LIMIT", 1),
			YtDlpPath:  getenvDefault("YTDLP_PATH", "yt-dlp"),
		},
		Whisper: WhisperConfig{
			Bin:      getenvDefault("WHISPER_BIN", "whisper-cli"),
			Model:    getenvDefault("WHISPER_MODEL", "base"),
			ModelDir: getenvDefault("WHISPER_MODEL_DIR", "models"),
			Threads:  getenvInt("WHISPER_THREADS", 4),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
			LockTTL:  getenvDuration("LOCK_TTL", 2*time.Hour),
		},
		FFmpegPath: getenvDefault("FFMPEG_PATH", "ffmpeg"),
		ScratchDir: getenvDefault("SCRATCH_DIR", filepath.Join(os.TempDir(), "reels")),
		RunsTable:  os.Getenv("RUNS_TABLE"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// getenvInt returns def when the variable is unset. A malformed value yields -1 so
// validation reports it instead of silently using the default.
func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func getenvDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return -1
	}
	return d
}
