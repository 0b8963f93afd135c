package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort string `yaml:"app_port" env:"APP_PORT"`
	Version string `yaml:"version" env:"APP_VERSION"`
	DevMode bool   `yaml:"dev_mode" env:"DEV_MODE"`
	AppURL  string `yaml:"app_url" env:"APP_URL"`

	// sqlite | postgres
	StorageDriver string `yaml:"storage_driver" env:"STORAGE_DRIVER"`
	DatabaseURL   string `yaml:"database_url" env:"DATABASE_URL"`
	SQLitePath    string `yaml:"sqlite_path" env:"SQLITE_PATH"`
	AutoMigrate   bool   `yaml:"auto_migrate" env:"AUTO_MIGRATE"`

	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTTTL         time.Duration `yaml:"jwt_ttl" env:"JWT_TTL"`
	BotToken       string        `yaml:"bot_token" env:"BOT_TOKEN"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
	RedisChannel  string `yaml:"redis_channel" env:"REDIS_CHANNEL"`

	// лимиты запросов
	RateLimit        int           `yaml:"rate_limit" env:"RATE_LIMIT"`
	RateWindow       time.Duration `yaml:"rate_window" env:"RATE_WINDOW"`
	SubmitRateLimit  int           `yaml:"submit_rate_limit" env:"SUBMIT_RATE_LIMIT"`
	SubmitRateWindow time.Duration `yaml:"submit_rate_window" env:"SUBMIT_RATE_WINDOW"`

	// Game limits
	MaxWager      int `yaml:"max_wager" env:"MAX_WAGER"`
	MaxTaskLength int `yaml:"max_task_length" env:"MAX_TASK_LENGTH"`

	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" env:"LOG_JSON"`

	OTelEndpoint    string `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"`
	OTelServiceName string `yaml:"otel_service_name" env:"OTEL_SERVICE_NAME"`

	// log | whapi | telegram | none
	NotifyDriver   string `yaml:"notify_driver" env:"NOTIFY_DRIVER"`
	WhapiURL       string `yaml:"whapi_url" env:"WHAPI_URL"`
	WhapiToken     string `yaml:"whapi_token" env:"WHAPI_TOKEN"`
	WhapiChannel   string `yaml:"whapi_channel" env:"WHAPI_CHANNEL"`
	WhapiTo        string `yaml:"whapi_to" env:"WHAPI_TO"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Default is the configuration before any file or env is applied.
func Default() Config {
	return Config{
		AppPort:          "8080",
		Version:          "dev",
		StorageDriver:    "sqlite",
		SQLitePath:       "schnicken.db",
		AutoMigrate:      true,
		JWTTTL:           24 * time.Hour,
		RedisChannel:     "schnicken:events",
		RateLimit:        120,
		RateWindow:       time.Minute,
		SubmitRateLimit:  30, // чисел за ->
		SubmitRateWindow: time.Minute,
		MaxWager:         100,
		MaxTaskLength:    280,
		LogLevel:         "info",
		OTelServiceName:  "schnicken",
		NotifyDriver:     "log",
		WhapiURL:         "https://gate.whapi.cloud",
	}
}

// Load builds the config: defaults, then the YAML file named by CONFIG_FILE,
// then environment variables (.env included).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	switch strings.ToLower(c.StorageDriver) {
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is not set"))
		}
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is not set"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver))
	}
	switch c.NotifyDriver {
	case "", "none", "log":
	case "whapi":
		if c.WhapiToken == "" || c.WhapiTo == "" {
			errs = append(errs, errors.New("WHAPI_TOKEN and WHAPI_TO are required for whapi notifications"))
		}
	case "telegram":
		if c.BotToken == "" || c.TelegramChatID == 0 {
			errs = append(errs, errors.New("BOT_TOKEN and TELEGRAM_CHAT_ID are required for telegram notifications"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_DRIVER %q", c.NotifyDriver))
	}
	if !c.DevMode && c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is not set (required outside DEV_MODE)"))
	}
	if c.MaxWager < 0 || c.MaxTaskLength < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	return errors.Join(errs...)
}
