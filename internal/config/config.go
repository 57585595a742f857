package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type Config struct {
	Server            ServerConfig    `yaml:"server"`
	Store             StoreConfig     `yaml:"store"`
	Database          DatabaseConfig  `yaml:"database"`
	Mongo             MongoConfig     `yaml:"mongo"`
	AdminWallets      []string        `yaml:"admin_wallets"`
	PendingVisibility string          `yaml:"pending_visibility"`
	RateLimit         RateLimitConfig `yaml:"rate_limit"`
	CORS              CORSConfig      `yaml:"cors"`
	Logging           LoggingConfig   `yaml:"logging"`
	Tracing           TracingConfig   `yaml:"tracing"`
	Environment       string          `yaml:"environment"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
}

type MongoConfig struct {
	URL        string `yaml:"url"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type RateLimitConfig struct {
	PublicPerMinute int `yaml:"public_per_minute"`
	AdminPerMinute  int `yaml:"admin_per_minute"`
}

type CORSConfig struct {
	AllowedOrigins  []string `yaml:"allowed_origins"`
	AllowAllOrigins bool     `yaml:"-"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, EnvProduction)
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Defaults returns the configuration used when neither a config file nor the
// environment overrides a value.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Store: StoreConfig{Backend: BackendPostgres},
		Database: DatabaseConfig{
			MaxConnections: 25,
		},
		Mongo: MongoConfig{
			URL:        "mongodb://localhost:27017/",
			Database:   "predict_chain",
			Collection: "events",
		},
		PendingVisibility: "public",
		RateLimit: RateLimitConfig{
			PublicPerMinute: 60,
			AdminPerMinute:  0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Exporter:     "stdout",
			ServiceName:  "predictchain-server",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Environment: EnvDevelopment,
	}
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an optional YAML file applied between the defaults
// and the environment. Environment variables win over file values.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	base := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &base); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", base.Server.Host),
			Port: getEnvInt("SERVER_PORT", base.Server.Port),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", base.Store.Backend)),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", base.Database.URL),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", base.Database.MaxConnections),
		},
		Mongo: MongoConfig{
			URL:        getEnv("MONGO_URL", base.Mongo.URL),
			Database:   getEnv("MONGO_DATABASE", base.Mongo.Database),
			Collection: getEnv("MONGO_COLLECTION", base.Mongo.Collection),
		},
		AdminWallets:      getEnvList("ADMIN_WALLETS", base.AdminWallets),
		PendingVisibility: strings.ToLower(getEnv("PENDING_VISIBILITY", base.PendingVisibility)),
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", base.RateLimit.PublicPerMinute),
			AdminPerMinute:  getEnvInt("RATE_LIMIT_ADMIN", base.RateLimit.AdminPerMinute),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", base.CORS.AllowedOrigins),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", base.Logging.Level),
			Format: getEnv("LOG_FORMAT", base.Logging.Format),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", base.Tracing.Enabled),
			Exporter:     getEnv("TRACING_EXPORTER", base.Tracing.Exporter),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", base.Tracing.ServiceName),
			OTLPEndpoint: getEnv("OTLP_ENDPOINT", base.Tracing.OTLPEndpoint),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", base.Tracing.SampleRate),
		},
		Environment: strings.ToLower(getEnv("ENVIRONMENT", base.Environment)),
	}

	// Outside production any origin may call the API.
	cfg.CORS.AllowAllOrigins = !cfg.IsProduction()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=%s", BackendPostgres)
		}
	case BackendMongo:
		if c.Mongo.URL == "" {
			return fmt.Errorf("MONGO_URL is required when STORE_BACKEND=%s", BackendMongo)
		}
	case BackendMemory:
		if c.IsProduction() {
			return fmt.Errorf("STORE_BACKEND=%s is not allowed in production", BackendMemory)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of postgres, mongo, memory; got %q", c.Store.Backend)
	}

	switch c.PendingVisibility {
	case "public", "admin":
	default:
		return fmt.Errorf("PENDING_VISIBILITY must be public or admin; got %q", c.PendingVisibility)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535; got %d", c.Server.Port)
	}
	if c.RateLimit.PublicPerMinute < 0 || c.RateLimit.AdminPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PUBLIC and RATE_LIMIT_ADMIN must not be negative")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE must be between 0.0 and 1.0; got %v", c.Tracing.SampleRate)
	}
	if c.IsProduction() && len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
