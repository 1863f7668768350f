package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	ErrMissingAccessTokenSecret = errors.New("ACCESS_TOKEN_SECRET must be set")
	ErrAccessTokenSecretTooWeak = errors.New("ACCESS_TOKEN_SECRET must be at least 32 characters")
	ErrInvalidAccessTokenTTL    = errors.New("ACCESS_TOKEN_TTL_MINUTES must be positive")
	ErrInvalidRefreshTokenTTL   = errors.New("REFRESH_TOKEN_TTL_DAYS must be positive")
)

type DatabaseConfig struct {
	PostgresHost     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.PostgresHost +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" port=5432 sslmode=disable TimeZone=UTC"
}

type ServerConfig struct {
	Port string
	// AuthRateLimit is the per-second request budget for the auth endpoints.
	AuthRateLimit float64
}

type AdminConfig struct {
	Username string
	Password string
}

type TokenConfig struct {
	AccessTokenSecret     string
	Issuer                string
	Audience              string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	// RevokeChainOnReuse revokes every live refresh token of a user when a
	// consumed token is replayed. Off by default.
	RevokeChainOnReuse bool
}

type Config struct {
	Database *DatabaseConfig
	Server   *ServerConfig
	Admin    *AdminConfig
	Token    *TokenConfig
}

func LoadConfig(dotenvPath string) (*Config, error) {
	if err := godotenv.Load(dotenvPath); err != nil {
		return nil, err
	}

	dbCfg := &DatabaseConfig{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
	}
	serverCfg := &ServerConfig{
		Port:          getEnv("SERVER_PORT", "8080"),
		AuthRateLimit: getEnvFloat("AUTH_RATE_LIMIT", 5),
	}
	adminCfg := &AdminConfig{
		Username: os.Getenv("ADMIN_USERNAME"),
		Password: os.Getenv("ADMIN_PASSWORD"),
	}
	tokenCfg := &TokenConfig{
		AccessTokenSecret:     os.Getenv("ACCESS_TOKEN_SECRET"),
		Issuer:                getEnv("TOKEN_ISSUER", "movie-catalog-service"),
		Audience:              getEnv("TOKEN_AUDIENCE", "movie-catalog-api"),
		AccessTokenTTLMinutes: getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 15),
		RefreshTokenTTLDays:   getEnvInt("REFRESH_TOKEN_TTL_DAYS", 7),
		RevokeChainOnReuse:    getEnvBool("REVOKE_CHAIN_ON_REUSE", false),
	}

	cfg := &Config{dbCfg, serverCfg, adminCfg, tokenCfg}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs once at startup. A missing or weak signing secret is a fatal
// configuration fault, never a runtime one.
func (c *Config) Validate() error {
	if c.Token.AccessTokenSecret == "" {
		return ErrMissingAccessTokenSecret
	}
	if len(c.Token.AccessTokenSecret) < 32 {
		return ErrAccessTokenSecretTooWeak
	}
	if c.Token.AccessTokenTTLMinutes <= 0 {
		return ErrInvalidAccessTokenTTL
	}
	if c.Token.RefreshTokenTTLDays <= 0 {
		return ErrInvalidRefreshTokenTTL
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
