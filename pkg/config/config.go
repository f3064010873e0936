package config

import (
	"errors"
	"fmt"
	"io/fs"
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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Realtime RealtimeConfig
	Tasks    TasksConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RealtimeConfig tunes the websocket gateway.
type RealtimeConfig struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	SendBuffer       int
	AllowedOrigins   []string
	RelayEnabled     bool
	RelayChannel     string
}

// TasksConfig drives the scheduled maintenance runner.
type TasksConfig struct {
	Enabled                  bool
	Interval                 time.Duration
	TickTimeout              time.Duration
	AnnouncementArchiveAfter time.Duration
	AnnouncementDeleteAfter  time.Duration
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

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Realtime = RealtimeConfig{
		HandshakeTimeout: parseDuration(v.GetString("REALTIME_HANDSHAKE_TIMEOUT"), 5*time.Second),
		WriteTimeout:     parseDuration(v.GetString("REALTIME_WRITE_TIMEOUT"), 5*time.Second),
		SendBuffer:       v.GetInt("REALTIME_SEND_BUFFER"),
		AllowedOrigins:   splitAndTrim(v.GetString("REALTIME_ALLOWED_ORIGINS")),
		RelayEnabled:     v.GetBool("REALTIME_RELAY_ENABLED"),
		RelayChannel:     v.GetString("REALTIME_RELAY_CHANNEL"),
	}

	cfg.Tasks = TasksConfig{
		Enabled:                  v.GetBool("ENABLE_TASKS"),
		Interval:                 parseDuration(v.GetString("TASKS_INTERVAL"), time.Minute),
		TickTimeout:              parseDuration(v.GetString("TASKS_TICK_TIMEOUT"), 30*time.Second),
		AnnouncementArchiveAfter: parseDuration(v.GetString("ANNOUNCEMENT_ARCHIVE_AFTER"), 30*24*time.Hour),
		AnnouncementDeleteAfter:  parseDuration(v.GetString("ANNOUNCEMENT_DELETE_AFTER"), 60*24*time.Hour),
	}

	return cfg
}

// Validate rejects settings the runtime cannot honour.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.Tasks.Interval <= 0 {
		return fmt.Errorf("TASKS_INTERVAL must be positive, got %s", c.Tasks.Interval)
	}
	if c.Tasks.AnnouncementArchiveAfter <= 0 {
		return fmt.Errorf("ANNOUNCEMENT_ARCHIVE_AFTER must be positive, got %s", c.Tasks.AnnouncementArchiveAfter)
	}
	if c.Tasks.AnnouncementDeleteAfter <= c.Tasks.AnnouncementArchiveAfter {
		return fmt.Errorf("ANNOUNCEMENT_DELETE_AFTER (%s) must exceed ANNOUNCEMENT_ARCHIVE_AFTER (%s)",
			c.Tasks.AnnouncementDeleteAfter, c.Tasks.AnnouncementArchiveAfter)
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("REALTIME_SEND_BUFFER must be positive, got %d", c.Realtime.SendBuffer)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_hub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "sma-realtime-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REALTIME_HANDSHAKE_TIMEOUT", "5s")
	v.SetDefault("REALTIME_WRITE_TIMEOUT", "5s")
	v.SetDefault("REALTIME_SEND_BUFFER", 64)
	v.SetDefault("REALTIME_ALLOWED_ORIGINS", "")
	v.SetDefault("REALTIME_RELAY_ENABLED", false)
	v.SetDefault("REALTIME_RELAY_CHANNEL", "realtime:broadcast")

	v.SetDefault("ENABLE_TASKS", true)
	v.SetDefault("TASKS_INTERVAL", "1m")
	v.SetDefault("TASKS_TICK_TIMEOUT", "30s")
	v.SetDefault("ANNOUNCEMENT_ARCHIVE_AFTER", "720h")
	v.SetDefault("ANNOUNCEMENT_DELETE_AFTER", "1440h")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
