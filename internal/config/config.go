package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort         string        `env:"HTTP_PORT" envDefault:"8080"`
	ModelPath        string        `env:"MODEL_PATH,required,notEmpty"`
	ProfilePath      string        `env:"PROFILE_PATH"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	EstimateCacheTTL time.Duration `env:"ESTIMATE_CACHE_TTL" envDefault:"10m"`
	RateLimitWindow  time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitMax     int           `env:"RATE_LIMIT_MAX" envDefault:"60"`
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTTTLMinutes    int           `env:"JWT_TTL_MINUTES" envDefault:"60"`
	AdminAPIKey      string        `env:"ADMIN_API_KEY"`
	ScorerAPIKey     string        `env:"SCORER_API_KEY"`
	ScorerTimeout    time.Duration `env:"SCORER_TIMEOUT" envDefault:"10s"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
