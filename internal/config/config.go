package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dbconfig "schoolhub/pkg/database"
)

// Environment variable names
const (
	EnvPrefix     = "SCHOOLHUB_"
	EnvConfigFile = EnvPrefix + "CONFIG_FILE"
)

// ARCHITECTURAL DISCOVERY: Configuration layer serves as system-wide settings coordinator
// Clean separation between configuration management and business logic
type Config struct {
	Database  *dbconfig.Config `yaml:"database"`
	HTTP      *HTTPConfig      `yaml:"http"`
	WebSocket *WebSocketConfig `yaml:"websocket"`
	Hub       *HubConfig       `yaml:"hub"`
	Logging   *LoggingConfig   `yaml:"logging"`
	Cache     *CacheConfig     `yaml:"cache"`
	Auth      *AuthConfig      `yaml:"auth"`
	RateLimit *RateLimitConfig `yaml:"rate_limit"`
}

// FUNCTIONAL DISCOVERY: HTTP configuration balances performance and reliability
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// Addr returns the listen address
func (h *HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

type WebSocketConfig struct {
	PingInterval time.Duration `yaml:"ping_interval"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	BufferSize   int           `yaml:"buffer_size"`

	// TrustClientIdentity accepts auth frames on sockets opened without a session token
	TrustClientIdentity bool `yaml:"trust_client_identity"`
}

// HubConfig sizes the notification queue between handlers and the dispatcher
type HubConfig struct {
	QueueSize int `yaml:"queue_size"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Service string `yaml:"service"`
}

// CacheConfig bounds the assignment owner cache used for submission notices
type CacheConfig struct {
	OwnerCacheSize int64         `yaml:"owner_cache_size"`
	OwnerCacheTTL  time.Duration `yaml:"owner_cache_ttl"`
}

type AuthConfig struct {
	SessionTTL      time.Duration `yaml:"session_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// FUNCTIONAL DISCOVERY: 100 mutations per minute per user suits a classroom burst
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
}

// FUNCTIONAL DISCOVERY: Production-ready defaults for a single-school deployment
func DefaultConfig() *Config {
	return &Config{
		Database: dbconfig.DefaultConfig(),
		HTTP: &HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Hub: &HubConfig{
			QueueSize: 1000,
		},
		Logging: &LoggingConfig{
			Level:   "info",
			Format:  "json",
			Service: "schoolhub",
		},
		Cache: &CacheConfig{
			OwnerCacheSize: 10000,
			OwnerCacheTTL:  5 * time.Minute,
		},
		Auth: &AuthConfig{
			SessionTTL:      24 * time.Hour,
			BcryptCost:      10,
			CleanupInterval: time.Hour,
		},
		RateLimit: &RateLimitConfig{
			RequestsPerMinute: 100,
			CleanupInterval:   time.Minute,
		},
	}
}

// FUNCTIONAL DISCOVERY: Comprehensive validation prevents invalid system configurations
// Critical for preventing runtime failures in production deployment
func (c *Config) Validate() error {
	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.ReadTimeout <= 0 {
		return fmt.Errorf("HTTP read timeout must be positive")
	}
	if c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP write timeout must be positive")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP shutdown timeout must be positive")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}

	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 {
		return fmt.Errorf("WebSocket ping interval must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("WebSocket read timeout must exceed the ping interval")
	}
	if c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket write timeout must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("WebSocket buffer size must be positive")
	}

	if c.Hub == nil || c.Hub.QueueSize <= 0 {
		return fmt.Errorf("hub queue size must be positive")
	}

	if c.Logging == nil {
		return fmt.Errorf("logging configuration is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("log format must be json or text")
	}

	if c.Cache == nil || c.Cache.OwnerCacheSize <= 0 || c.Cache.OwnerCacheTTL <= 0 {
		return fmt.Errorf("owner cache size and TTL must be positive")
	}

	if c.Auth == nil {
		return fmt.Errorf("auth configuration is required")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31")
	}
	if c.Auth.CleanupInterval <= 0 {
		return fmt.Errorf("session cleanup interval must be positive")
	}

	if c.RateLimit == nil || c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.CleanupInterval <= 0 {
		return fmt.Errorf("rate limit and cleanup interval must be positive")
	}
	return nil
}

// LoadFromFile overlays a YAML file onto the defaults
// FUNCTIONAL DISCOVERY: Missing sections keep their defaults; durations are Go duration strings
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()
	if err := overlayFile(config, path); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return config, nil
}

func overlayFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Load builds the runtime configuration
// FUNCTIONAL DISCOVERY: Precedence is defaults < YAML file < environment; a .env file
// in the working directory seeds the environment when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := DefaultConfig()
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := overlayFile(config, path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// applyEnv overrides fields from SCHOOLHUB_* variables
// TECHNICAL DISCOVERY: Malformed values are reported instead of silently ignored so a
// typo in a deployment manifest fails at startup
func applyEnv(c *Config) error {
	env := envReader{}

	env.str("DATABASE_PATH", &c.Database.DatabasePath)
	env.int("DATABASE_MAX_CONNECTIONS", &c.Database.MaxConnections)
	env.duration("DATABASE_WRITE_TIMEOUT", &c.Database.WriteTimeout)
	env.duration("DATABASE_RETRY_DELAY", &c.Database.RetryDelay)

	env.str("HTTP_HOST", &c.HTTP.Host)
	env.int("HTTP_PORT", &c.HTTP.Port)
	env.duration("HTTP_READ_TIMEOUT", &c.HTTP.ReadTimeout)
	env.duration("HTTP_WRITE_TIMEOUT", &c.HTTP.WriteTimeout)
	env.duration("HTTP_SHUTDOWN_TIMEOUT", &c.HTTP.ShutdownTimeout)
	env.list("HTTP_ALLOWED_ORIGINS", &c.HTTP.AllowedOrigins)

	env.duration("WEBSOCKET_PING_INTERVAL", &c.WebSocket.PingInterval)
	env.duration("WEBSOCKET_READ_TIMEOUT", &c.WebSocket.ReadTimeout)
	env.duration("WEBSOCKET_WRITE_TIMEOUT", &c.WebSocket.WriteTimeout)
	env.int("WEBSOCKET_BUFFER_SIZE", &c.WebSocket.BufferSize)
	env.bool("WEBSOCKET_TRUST_CLIENT_IDENTITY", &c.WebSocket.TrustClientIdentity)

	env.int("HUB_QUEUE_SIZE", &c.Hub.QueueSize)

	env.str("LOG_LEVEL", &c.Logging.Level)
	env.str("LOG_FORMAT", &c.Logging.Format)
	env.str("LOG_SERVICE", &c.Logging.Service)

	env.int64("CACHE_OWNER_SIZE", &c.Cache.OwnerCacheSize)
	env.duration("CACHE_OWNER_TTL", &c.Cache.OwnerCacheTTL)

	env.duration("AUTH_SESSION_TTL", &c.Auth.SessionTTL)
	env.int("AUTH_BCRYPT_COST", &c.Auth.BcryptCost)
	env.duration("AUTH_CLEANUP_INTERVAL", &c.Auth.CleanupInterval)

	env.int("RATE_LIMIT_PER_MINUTE", &c.RateLimit.RequestsPerMinute)
	env.duration("RATE_LIMIT_CLEANUP_INTERVAL", &c.RateLimit.CleanupInterval)

	return errors.Join(env.errs...)
}

// envReader collects parse failures while applying overrides
type envReader struct {
	errs []error
}

func (e *envReader) lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) fail(name, value string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s=%q: %w", EnvPrefix, name, value, err))
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.lookup(name)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (e *envReader) int(name string, dst *int) {
	if v, ok := e.lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) int64(name string, dst *int64) {
	if v, ok := e.lookup(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) bool(name string, dst *bool) {
	if v, ok := e.lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(name, v, err)
			return
		}
		*dst = d
	}
}
