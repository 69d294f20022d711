package config

import (
	"time"

	"github.com/bryanfernandez-eng/linkvault/internal/pkg/env"
)

type Config struct {
	HTTP     httpConfig
	DB       dbConfig
	JWT      jwtConfig
	Google   googleConfig
	Redis    redisConfig
	Metadata metadataConfig
}

type httpConfig struct {
	ListenAddr      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type dbConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type jwtConfig struct {
	Issuer        string
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// googleConfig enables the Google OAuth provider. The provider is only
// registered when ClientID is set.
type googleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type redisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CodeTTL  time.Duration
}

type metadataConfig struct {
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

func FromEnv() Config {
	return Config{
		HTTP: httpConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8080"),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		DB: dbConfig{
			Host:     env.String("DB_HOST", "localhost"),
			Port:     env.String("DB_PORT", "5432"),
			User:     env.RequireString("DB_USER"),
			Password: env.RequireString("DB_PASSWORD"),
			Name:     env.String("DB_NAME", "linkvault"),
			SSLMode:  env.String("DB_SSL_MODE", "disable"),
		},
		JWT: jwtConfig{
			Issuer:        env.String("JWT_ISSUER", "linkvault"),
			AccessSecret:  env.RequireString("JWT_ACCESS_SECRET"),
			RefreshSecret: env.RequireString("JWT_REFRESH_SECRET"),
			AccessTTL:     env.Duration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:    env.Duration("JWT_REFRESH_TTL", 7*24*time.Hour),
		},
		Google: googleConfig{
			ClientID:     env.String("GOOGLE_CLIENT_ID", ""),
			ClientSecret: env.String("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  env.String("GOOGLE_REDIRECT_URL", ""),
		},
		Redis: redisConfig{
			Host:     env.String("REDIS_HOST", "localhost"),
			Port:     env.String("REDIS_PORT", "6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
			CodeTTL:  env.Duration("OTC_TTL", 2*time.Minute),
		},
		Metadata: metadataConfig{
			FetchTimeout: env.Duration("METADATA_FETCH_TIMEOUT", 10*time.Second),
			CacheTTL:     env.Duration("METADATA_CACHE_TTL", time.Hour),
		},
	}
}
