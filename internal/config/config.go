package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the HooksContent client and
// its development backend.
type Config struct {
	// Client side.
	APIBaseURL     string
	SessionDir     string
	ArchivePath    string
	LogLevel       string
	RequestTimeout time.Duration
	RequestRetries int
	ClientRPS      float64

	// Development backend.
	AppPort          int
	DatabaseURL      string
	MigrationDir     string
	YTDLPPath        string
	YTDLPTimeout     time.Duration
	MetadataCacheTTL time.Duration
	JWTSecret        string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	Bedrock          BedrockConfig

	Export ObjectStoreConfig
}

// BedrockConfig selects the model used for AI hook generation. An empty
// ModelID keeps the built-in template generator.
type BedrockConfig struct {
	ModelID string
	Region  string
}

// ObjectStoreConfig describes the S3-compatible bucket archive exports go to.
type ObjectStoreConfig struct {
	Bucket        string
	Endpoint      string
	Region        string
	PublicBaseURL string
}

// Load reads configuration from environment variables, applying defaults for
// local development. A .env file in the working directory is honoured when
// present but never required.
func Load() (Config, error) {
	_ = godotenv.Load()

	dataDir := defaultDataDir()

	cfg := Config{
		APIBaseURL:     getString("HOOKS_API_URL", "http://localhost:8000"),
		SessionDir:     getString("HOOKS_SESSION_DIR", dataDir),
		ArchivePath:    getString("HOOKS_ARCHIVE_PATH", filepath.Join(dataDir, "archive.db")),
		LogLevel:       getString("HOOKS_LOG_LEVEL", "warn"),
		RequestTimeout: getDuration("HOOKS_REQUEST_TIMEOUT", 0),
		RequestRetries: getInt("HOOKS_REQUEST_RETRIES", 0),
		ClientRPS:      getFloat("HOOKS_CLIENT_RPS", 0),

		AppPort:          getInt("HOOKS_PORT", 8000),
		DatabaseURL:      getString("HOOKS_DATABASE_URL", ""),
		MigrationDir:     getString("HOOKS_MIGRATIONS", "migrations"),
		YTDLPPath:        getString("HOOKS_YTDLP_PATH", "yt-dlp"),
		YTDLPTimeout:     getDuration("HOOKS_YTDLP_TIMEOUT", 30*time.Second),
		MetadataCacheTTL: getDuration("HOOKS_METADATA_CACHE_TTL", 15*time.Minute),
		JWTSecret:        getString("HOOKS_JWT_SECRET", "dev-secret-change-me"),
		AccessTTL:        getDuration("HOOKS_ACCESS_TTL", time.Hour),
		RefreshTTL:       getDuration("HOOKS_REFRESH_TTL", 30*24*time.Hour),
		Bedrock: BedrockConfig{
			ModelID: getString("HOOKS_BEDROCK_MODEL", ""),
			Region:  getString("HOOKS_BEDROCK_REGION", "us-east-1"),
		},

		Export: ObjectStoreConfig{
			Bucket:        getString("HOOKS_EXPORT_BUCKET", ""),
			Endpoint:      getString("HOOKS_EXPORT_ENDPOINT", ""),
			Region:        getString("HOOKS_EXPORT_REGION", "us-east-1"),
			PublicBaseURL: getString("HOOKS_EXPORT_PUBLIC_URL", ""),
		},
	}

	return cfg, nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "hookscontent")
	}
	return ".hookscontent"
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
