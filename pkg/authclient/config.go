package authclient

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config настройки клиента.
type Config struct {
	APIBaseURL string        `env:"AUTH_API_BASE_URL" env-default:"http://localhost:8080"`
	Timeout    time.Duration `env:"AUTH_CLIENT_TIMEOUT" env-default:"10s"`
}

// LoadConfig читает настройки из переменных окружения.
func LoadConfig() (*Config, error) {
	const op = "authclient.LoadConfig"
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("%s: timeout must be positive", op)
	}
	return &cfg, nil
}
