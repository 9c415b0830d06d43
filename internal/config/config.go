// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              `yaml:"http_server"`
	GRPCServer              `yaml:"grpc"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	Session                 `yaml:"session"`
	LoginLimit              `yaml:"login_limit"`
	RateLimit               `yaml:"rate_limit"`
	BootstrapAdmin          `yaml:"bootstrap_admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// GRPCServer адрес внутреннего gRPC-сервиса проверки сессий.
// Пустой адрес отключает сервер.
type GRPCServer struct {
	GRPCAddress string `yaml:"address" env:"GRPC_ADDRESS"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ настройки брокера для событий жизненного цикла сессий.
// Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"sessions"`
}

// Session параметры жизненного цикла сессий и access-токенов.
type Session struct {
	SessionTTL     time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"168h"`
	SlidingExpiry  bool          `yaml:"sliding_expiry" env:"SESSION_SLIDING_EXPIRY"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	JWTSecretKey   string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
}

// LoginLimit ограничение числа попыток входа на один email.
type LoginLimit struct {
	Attempts int           `yaml:"attempts" env-default:"5"`
	Window   time.Duration `yaml:"window" env-default:"1m"`
}

// RateLimit ограничение частоты запросов к API в целом.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"20"`
	Burst int     `yaml:"burst" env-default:"40"`
}

// BootstrapAdmin учётная запись администратора, создаваемая при старте, если её нет.
type BootstrapAdmin struct {
	AdminEmail    string `yaml:"email" env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `yaml:"password" env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, прочитанный из файла CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг по указанному пути, переменные окружения перекрывают значения из файла.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file: %s - does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("%s: session ttl must be positive", op)
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: access token ttl must be positive", op)
	}
	return &cfg, nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: ***\n"+
			"MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"GRPC:\n"+
			"  Address: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  Exchange: %s\n"+
			"Session:\n"+
			"  TTL: %s\n"+
			"  SlidingExpiry: %t\n"+
			"  AccessTokenTTL: %s\n",
		c.Env,
		c.MigrationsPath,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.GRPCAddress,
		c.AddressRedis,
		c.DB,
		c.Exchange,
		c.SessionTTL,
		c.SlidingExpiry,
		c.AccessTokenTTL,
	)
}
