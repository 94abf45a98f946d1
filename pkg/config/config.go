package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Dashboard     DashboardConfig
	Reports       ReportsConfig
	Notifications NotificationsConfig
	Assistant     AssistantConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	ExtraHeaders   []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// ReportsConfig configures report artifact storage and download links.
type ReportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

// NotificationsConfig configures the outbound thread-created webhook.
type NotificationsConfig struct {
	ThreadWebhookURL string
	Timeout          time.Duration
	Workers          int
}

// AssistantConfig selects and configures the LLM backing the AI assistant.
type AssistantConfig struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
		ExtraHeaders:   splitAndTrim(v.GetString("CORS_EXTRA_HEADERS")),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:      v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), time.Hour),
		CleanupInterval: parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	cfg.Notifications = NotificationsConfig{
		ThreadWebhookURL: strings.TrimSpace(v.GetString("NOTIFY_THREAD_WEBHOOK_URL")),
		Timeout:          parseDuration(v.GetString("NOTIFY_TIMEOUT"), 10*time.Second),
		Workers:          v.GetInt("NOTIFY_WORKERS"),
	}

	cfg.Assistant = AssistantConfig{
		Provider:  strings.ToLower(v.GetString("ASSISTANT_PROVIDER")),
		APIKey:    v.GetString("ASSISTANT_API_KEY"),
		Model:     v.GetString("ASSISTANT_MODEL"),
		BaseURL:   v.GetString("ASSISTANT_BASE_URL"),
		MaxTokens: v.GetInt("ASSISTANT_MAX_TOKENS"),
		Timeout:   parseDuration(v.GetString("ASSISTANT_TIMEOUT"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "lms-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_EXTRA_HEADERS", "HX-Request,HX-Target,HX-Current-URL")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DASHBOARD_CACHE_TTL", "2m")

	v.SetDefault("REPORTS_STORAGE_DIR", "./reports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")

	v.SetDefault("NOTIFY_THREAD_WEBHOOK_URL", "")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")
	v.SetDefault("NOTIFY_WORKERS", 2)

	v.SetDefault("ASSISTANT_PROVIDER", "anthropic")
	v.SetDefault("ASSISTANT_API_KEY", "")
	v.SetDefault("ASSISTANT_MODEL", "")
	v.SetDefault("ASSISTANT_BASE_URL", "")
	v.SetDefault("ASSISTANT_MAX_TOKENS", 1024)
	v.SetDefault("ASSISTANT_TIMEOUT", "30s")
}

// viper reports a missing explicit config file as a plain fs error rather than
// ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
