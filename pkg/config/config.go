package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Target styles understood by the dispatcher
const (
	TargetStyleService = "service" // direct optimization service (Flask)
	TargetStyleGateway = "gateway" // Spring gateway that proxies the service
)

// Store drivers
const (
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Bridge server
	Port string
	Env  string // development, staging, production, test

	// Optimization backends
	Backend BackendConfig

	// Result/preference persistence
	Store StoreConfig

	// Redis
	Redis RedisConfig

	// Database
	Database DatabaseConfig

	// External APIs
	Naver NaverConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// BackendConfig describes where the optimization, stock and currency services live
type BackendConfig struct {
	GatewayURL  string // Spring Boot gateway (stocks, currency, proxied optimize)
	ServiceURL  string // direct optimization service
	HealthURLs  []string
	TargetsFile string
	Targets     []TargetConfig

	ProbeTimeout        time.Duration
	ProbeInterval       time.Duration
	ProbeStrict         bool // require 2xx; otherwise any JSON body counts as healthy
	RateRefreshInterval time.Duration

	QuantumTimeout   time.Duration
	ClassicalTimeout time.Duration
	SearchTimeout    time.Duration
}

// TargetConfig is one optimization endpoint, tried in list order
type TargetConfig struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Style string `yaml:"style"`
}

// StoreConfig selects the durable key-value slot backend
type StoreConfig struct {
	Driver string
	Path   string // sqlite file
	Prefix string // redis key prefix
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NaverConfig holds Naver Finance configuration (FX fallback)
type NaverConfig struct {
	BaseURL string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	gatewayURL := strings.TrimRight(getEnv("GATEWAY_URL", "http://localhost:8080"), "/")
	serviceURL := strings.TrimRight(getEnv("SERVICE_URL", "http://localhost:5000"), "/")

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Backend: BackendConfig{
			GatewayURL: gatewayURL,
			ServiceURL: serviceURL,
			HealthURLs: getEnvAsList("HEALTH_URLS", []string{
				gatewayURL + "/actuator/health",
				gatewayURL + "/api/health",
				serviceURL + "/api/health",
			}),
			TargetsFile: getEnv("TARGETS_FILE", ""),

			ProbeTimeout:        getEnvAsDuration("PROBE_TIMEOUT", "5s"),
			ProbeInterval:       getEnvAsDuration("PROBE_INTERVAL", "30s"),
			ProbeStrict:         getEnvAsBool("PROBE_STRICT", false),
			RateRefreshInterval: getEnvAsDuration("RATE_REFRESH_INTERVAL", "15s"),

			QuantumTimeout:   getEnvAsDuration("QUANTUM_TIMEOUT", "5m"),
			ClassicalTimeout: getEnvAsDuration("CLASSICAL_TIMEOUT", "60s"),
			SearchTimeout:    getEnvAsDuration("SEARCH_TIMEOUT", "10s"),
		},

		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
			Path:   getEnv("STORE_PATH", "data/quantafolio.db"),
			Prefix: getEnv("STORE_PREFIX", "quantafolio"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if cfg.Backend.TargetsFile != "" {
		targets, err := LoadTargets(cfg.Backend.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("load targets file: %w", err)
		}
		cfg.Backend.Targets = targets
	} else {
		cfg.Backend.Targets = DefaultTargets(serviceURL, gatewayURL)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// DefaultTargets returns the direct service first, then the gateway
func DefaultTargets(serviceURL, gatewayURL string) []TargetConfig {
	return []TargetConfig{
		{
			Name:  "service",
			URL:   serviceURL + "/api/optimize/with-weights",
			Style: TargetStyleService,
		},
		{
			Name:  "gateway",
			URL:   gatewayURL + "/api/portfolio/optimize/with-weights",
			Style: TargetStyleGateway,
		},
	}
}

// targetsFile is the YAML layout of TARGETS_FILE
type targetsFile struct {
	Targets []TargetConfig `yaml:"targets"`
}

// LoadTargets reads an ordered target list from YAML.
// Unknown keys are rejected so typos fail fast.
func LoadTargets(path string) ([]TargetConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file targetsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	for i := range file.Targets {
		if file.Targets[i].Style == "" {
			file.Targets[i].Style = TargetStyleService
		}
	}

	return file.Targets, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	switch c.Store.Driver {
	case StoreSQLite, StoreRedis, StoreMemory:
	case StorePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of: sqlite, redis, postgres, memory")
	}

	if len(c.Backend.Targets) == 0 {
		return fmt.Errorf("at least one optimization target is required")
	}
	for _, t := range c.Backend.Targets {
		if t.URL == "" {
			return fmt.Errorf("target %q has no url", t.Name)
		}
		if t.Style != TargetStyleService && t.Style != TargetStyleGateway {
			return fmt.Errorf("target %q: style must be service or gateway", t.Name)
		}
	}

	if c.Backend.QuantumTimeout <= 0 || c.Backend.ClassicalTimeout <= 0 {
		return fmt.Errorf("QUANTUM_TIMEOUT and CLASSICAL_TIMEOUT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
