package config

import (
	"errors"
	"strconv"
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
	Env        string
	BotToken   string
	AdminIDs   []int64
	HealthPort int

	Redis    RedisConfig
	Lectures LecturesConfig
	Sessions SessionConfig
	Log      LogConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LecturesConfig locates the on-disk lecture storage.
type LecturesConfig struct {
	StorageDir string
}

// SessionConfig bounds the lifetime of per-conversation state.
type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.BotToken = v.GetString("BOT_TOKEN")
	cfg.AdminIDs = parseIDs(v.GetString("ADMIN_IDS"))
	cfg.HealthPort = v.GetInt("HEALTH_PORT")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Lectures = LecturesConfig{
		StorageDir: v.GetString("LECTURES_DIR"),
	}

	cfg.Sessions = SessionConfig{
		TTL:             parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour),
		CleanupInterval: parseDuration(v.GetString("SESSION_CLEANUP_INTERVAL"), 10*time.Minute),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("ADMIN_IDS", "")
	v.SetDefault("HEALTH_PORT", 8080)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LECTURES_DIR", "./lectures")
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "10m")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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

// parseIDs reads a comma-separated admin allow-list; malformed entries are dropped.
func parseIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]int64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			continue
		}
		result = append(result, id)
	}

	return result
}
