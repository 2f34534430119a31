// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	Backend         `yaml:"backend"`
	Identity        `yaml:"identity"`
	Upload          `yaml:"upload"`
	Session         `yaml:"session"`
	TokenStore      `yaml:"token_store"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	RateLimit       `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP  string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP  time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	CookieSecure bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"`
}

// Backend структура для настройки клиента REST API бэкенда
type Backend struct {
	BaseURL        string        `yaml:"base_url" env:"BACKEND_URL" env-required:"true"`
	TimeoutBackend time.Duration `yaml:"timeout" env-default:"10s"`
}

// Identity структура для настройки провайдера идентификации (Firebase REST)
type Identity struct {
	APIKey          string        `yaml:"api_key" env:"FIREBASE_API_KEY"`
	IdentityURL     string        `yaml:"identity_url" env-default:"https://identitytoolkit.googleapis.com/v1"`
	SecureTokenURL  string        `yaml:"secure_token_url" env-default:"https://securetoken.googleapis.com/v1"`
	RequestURI      string        `yaml:"request_uri" env-default:"http://localhost"`
	TimeoutIdentity time.Duration `yaml:"timeout" env-default:"10s"`
}

// Upload структура для настройки хостинга изображений
type Upload struct {
	UploadURL     string        `yaml:"url" env-default:"https://api.imgbb.com/1/upload"`
	UploadKey     string        `yaml:"key" env:"IMGBB_KEY"`
	MaxImageBytes int64         `yaml:"max_image_bytes" env-default:"5242880"`
	TimeoutUpload time.Duration `yaml:"timeout" env-default:"30s"`
}

// Session структура для настройки машины загрузки сессии
type Session struct {
	PollInterval  time.Duration `yaml:"poll_interval" env-default:"100ms"`
	MaxPolls      int           `yaml:"max_polls" env-default:"20"`
	SettleTimeout time.Duration `yaml:"settle_timeout" env:"SESSION_SETTLE_TIMEOUT"`
	IdleTTL       time.Duration `yaml:"idle_ttl" env-default:"30m"`
	CookieName    string        `yaml:"cookie_name" env-default:"nw_sid"`
}

// TokenStore структура для выбора хранилища токенов
type TokenStore struct {
	Driver string `yaml:"driver" env:"TOKEN_STORE_DRIVER" env-default:"memory"`
	Path   string `yaml:"path" env:"TOKEN_STORE_PATH"`
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

// RabbitMQ структура для настройки публикации событий сессии
type RabbitMQ struct {
	URL      string `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" env-default:"newswave.session"`
}

// RateLimit структура для ограничения частоты запросов к эндпоинтам входа
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Поддерживаемые драйверы хранилища токенов.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// ErrUnknownDriver возвращается при неизвестном token_store.driver.
var ErrUnknownDriver = errors.New("unknown token store driver")

// Load читает конфиг по пути path и проверяет его.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.TokenStore.Driver {
	case DriverMemory:
	case DriverFile, DriverSQLite:
		if c.TokenStore.Path == "" {
			return fmt.Errorf("token_store.path is required for driver %q", c.TokenStore.Driver)
		}
	case DriverRedis:
		if c.AddressRedis == "" {
			return errors.New("redis_connection.addressredis is required for driver redis")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.TokenStore.Driver)
	}
	if c.MaxPolls <= 0 {
		return errors.New("session.max_polls must be positive")
	}
	budget := c.BootstrapBudget()
	switch {
	case c.SettleTimeout == 0:
		c.SettleTimeout = budget
	case c.SettleTimeout < budget:
		return fmt.Errorf("session.settle_timeout %s is shorter than session bootstrap budget %s", c.SettleTimeout, budget)
	}
	return nil
}

// BootstrapBudget возвращает наибольшее время загрузки сессии: обмен токена,
// опрос хранилища и запрос записи пользователя.
func (c *Config) BootstrapBudget() time.Duration {
	return 2*c.TimeoutBackend + c.PollInterval*time.Duration(c.MaxPolls)
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"Backend:\n"+
			"  BaseURL: %s\n"+
			"Session:\n"+
			"  PollInterval: %s\n"+
			"  MaxPolls: %d\n"+
			"TokenStore:\n"+
			"  Driver: %s\n"+
			"  Path: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.BaseURL,
		c.PollInterval,
		c.MaxPolls,
		c.TokenStore.Driver,
		c.TokenStore.Path,
		c.AddressRedis,
	)
}
