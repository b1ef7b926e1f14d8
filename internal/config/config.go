package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuracion del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	OAuthProvider    string        `env:"OAUTH_PROVIDER" envDefault:"dubclub"`
	OAuthClientID    string        `env:"OAUTH_CLIENT_ID,required"`
	OAuthSecret      string        `env:"OAUTH_CLIENT_SECRET,required"`
	OAuthAuthURL     string        `env:"OAUTH_AUTH_URL,required"`
	OAuthTokenURL    string        `env:"OAUTH_TOKEN_URL,required"`
	OAuthRedirectURL string        `env:"OAUTH_REDIRECT_URL,required"`
	OAuthProfileURL  string        `env:"OAUTH_PROFILE_URL,required"`
	OAuthStateTTL    time.Duration `env:"OAUTH_STATE_TTL" envDefault:"10m"`

	ProfileFetchTimeout time.Duration `env:"PROFILE_FETCH_TIMEOUT" envDefault:"10s"`

	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW" envDefault:"1m"`
	LoginRateMax    int           `env:"LOGIN_RATE_MAX" envDefault:"10"`
}

// LoadConfig carga la configuracion desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
