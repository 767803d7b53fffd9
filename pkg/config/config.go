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
	Env string

	Remote    RemoteConfig
	Auth      AuthConfig
	KV        KVConfig
	DevServer DevServerConfig
	Database  DatabaseConfig
	Log       LogConfig
}

// RemoteConfig points the client at the remote auth and row services.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// AuthConfig governs session handling on the client side.
type AuthConfig struct {
	// Namespace prefixes every persisted auth artifact; the pre-sign-in
	// sweep removes all keys under it, including ones written by older
	// schema versions.
	Namespace string
	// AllowSelfServeRoles preserves the user-selectable role at sign-up.
	// When false every new account starts as a student and promotion
	// happens out of band.
	AllowSelfServeRoles bool
	MinPasswordLength   int
}

// KVConfig selects the local key/value store backing. An empty host
// selects the in-memory store.
type KVConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DevServerConfig configures the development backend.
type DevServerConfig struct {
	Port           int
	JWTSecret      string
	JWTExpiration  time.Duration
	SeedAdminEmail string
	SeedAdminPass  string
	UsePostgres    bool
	AllowedOrigins []string
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

	cfg.Remote = RemoteConfig{
		BaseURL: v.GetString("REMOTE_BASE_URL"),
		APIKey:  v.GetString("REMOTE_API_KEY"),
		Timeout: parseDuration(v.GetString("REMOTE_TIMEOUT"), 30*time.Second),
	}

	cfg.Auth = AuthConfig{
		Namespace:           v.GetString("AUTH_NAMESPACE"),
		AllowSelfServeRoles: v.GetBool("AUTH_ALLOW_SELF_SERVE_ROLES"),
		MinPasswordLength:   v.GetInt("AUTH_MIN_PASSWORD_LENGTH"),
	}

	cfg.KV = KVConfig{
		Host:     v.GetString("KV_HOST"),
		Port:     v.GetInt("KV_PORT"),
		Password: v.GetString("KV_PASSWORD"),
		DB:       v.GetInt("KV_DB"),
	}

	cfg.DevServer = DevServerConfig{
		Port:           v.GetInt("DEVSERVER_PORT"),
		JWTSecret:      v.GetString("DEVSERVER_JWT_SECRET"),
		JWTExpiration:  parseDuration(v.GetString("DEVSERVER_JWT_EXPIRATION"), 24*time.Hour),
		SeedAdminEmail: v.GetString("DEVSERVER_SEED_ADMIN_EMAIL"),
		SeedAdminPass:  v.GetString("DEVSERVER_SEED_ADMIN_PASSWORD"),
		UsePostgres:    v.GetBool("DEVSERVER_USE_POSTGRES"),
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
	}

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

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("REMOTE_BASE_URL", "http://localhost:8080")
	v.SetDefault("REMOTE_TIMEOUT", "30s")
	v.SetDefault("AUTH_NAMESPACE", "tasjeel.auth.")
	v.SetDefault("AUTH_ALLOW_SELF_SERVE_ROLES", false)
	v.SetDefault("AUTH_MIN_PASSWORD_LENGTH", 6)
	v.SetDefault("KV_PORT", 6379)
	v.SetDefault("DEVSERVER_PORT", 8080)
	v.SetDefault("DEVSERVER_JWT_SECRET", "dev-only-secret")
	v.SetDefault("DEVSERVER_JWT_EXPIRATION", "24h")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "tasjeel")
	v.SetDefault("DB_NAME", "tasjeel")
	v.SetDefault("DB_SSL_MODE", "disable")
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

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
