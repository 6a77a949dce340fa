package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db" envPrefix:"DB_"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Recompute RecomputeConfig `yaml:"recompute" envPrefix:"RECOMPUTE_"`
	CVR       CVRConfig       `yaml:"cvr" envPrefix:"CVR_"`
}

type ServerConfig struct {
	Port        string   `yaml:"port" env:"PORT"`
	GinMode     string   `yaml:"gin_mode" env:"GIN_MODE"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

type DBConfig struct {
	Host         string        `yaml:"host" env:"HOST"`
	Port         string        `yaml:"port" env:"PORT"`
	User         string        `yaml:"user" env:"USER"`
	Password     string        `yaml:"password" env:"PASSWORD"`
	Name         string        `yaml:"name" env:"NAME"`
	SSLMode      string        `yaml:"sslmode" env:"SSLMODE"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLife  time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"` // text or json
}

type RecomputeConfig struct {
	Workers   int           `yaml:"workers" env:"WORKERS"`
	QueueSize int           `yaml:"queue_size" env:"QUEUE_SIZE"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type CVRConfig struct {
	TrendLimit    int `yaml:"trend_limit" env:"TREND_LIMIT"`
	MaxTrendLimit int `yaml:"max_trend_limit" env:"MAX_TREND_LIMIT"`
}

// DSN builds the postgres connection URL.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        "8080",
			GinMode:     "debug",
			CORSOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		DB: DBConfig{
			Host:         "localhost",
			Port:         "5432",
			User:         "postgres",
			Password:     "postgres",
			Name:         "postgres",
			SSLMode:      "disable",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			ConnMaxLife:  30 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Recompute: RecomputeConfig{
			Workers:   4,
			QueueSize: 256,
			Timeout:   30 * time.Second,
		},
		CVR: CVRConfig{
			TrendLimit:    6,
			MaxTrendLimit: 24,
		},
	}
}

// Load layers defaults, an optional YAML file (ERP_CONFIG_PATH), an optional
// .env file and the process environment, in that order.
func Load(dotenvPaths ...string) (Config, error) {
	cfg := Default()

	if path := os.Getenv("ERP_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	for _, p := range dotenvPaths {
		// A missing .env file is normal outside local development.
		if err := godotenv.Load(p); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", p, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		if c.Server.GinMode == "release" {
			return fmt.Errorf("JWT_SECRET is required in release mode")
		}
		c.Auth.JWTSecret = "default_super_secret_key"
	}
	if c.Recompute.Workers < 1 {
		return fmt.Errorf("recompute workers must be positive, got %d", c.Recompute.Workers)
	}
	if c.Recompute.QueueSize < 1 {
		return fmt.Errorf("recompute queue size must be positive, got %d", c.Recompute.QueueSize)
	}
	if c.CVR.TrendLimit < 1 || c.CVR.TrendLimit > c.CVR.MaxTrendLimit {
		return fmt.Errorf("cvr trend limit %d outside 1..%d", c.CVR.TrendLimit, c.CVR.MaxTrendLimit)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
