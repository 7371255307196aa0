package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// MemoryURL selects the in-memory repository instead of SQLite
const MemoryURL = "memory://"

type Config struct {
	Env             string        `yaml:"env" env:"APP_ENV" env-default:"local"`
	Host            string        `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
	DatabaseURL     string        `yaml:"database_url" env:"DATABASE_URL" env-default:"file:db.sqlite"`
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"GraphQL-is-aw3some"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"15s"`
	// defaults seeded in Load; an explicit zero or false must survive
	MaxQueryDepth int  `yaml:"max_query_depth" env:"MAX_QUERY_DEPTH"`
	Playground    bool `yaml:"playground" env:"PLAYGROUND"`
}

func (c *Config) Addr() string { return net.JoinHostPort(c.Host, c.Port) }

// InMemory reports whether DatabaseURL asks for the non-persistent store
func (c *Config) InMemory() bool { return strings.HasPrefix(c.DatabaseURL, MemoryURL) }

// MustLoad panics if the configuration cannot be read.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from, in order of precedence: env vars (including
// a .env file in the working directory), the YAML file at path or CONFIG_PATH,
// and the defaults in the struct tags and below.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	cfg := Config{MaxQueryDepth: 10, Playground: true}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: config file %q: %w", op, path, err)
		}
		// ReadConfig overlays env vars on top of the file
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: read config: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: read env: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("database url is empty")
	case c.JWTSecret == "":
		return fmt.Errorf("jwt secret is empty")
	case c.MaxQueryDepth < 0:
		return fmt.Errorf("max query depth must be non-negative, got %d", c.MaxQueryDepth)
	}
	return nil
}
