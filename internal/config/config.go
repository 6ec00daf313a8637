// Package config loads service configuration from defaults, an optional TOML
// file and ICONCLASS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// FileEnv names the environment variable holding the TOML config path.
const FileEnv = "ICONCLASS_CONFIG"

// Config holds all iconclass configuration.
type Config struct {
	Server    ServerConfig
	Corpus    CorpusConfig
	Engine    EngineConfig
	Cache     CacheConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Output    OutputConfig

	// values that failed to parse, reported by Validate
	invalid []error
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// CorpusConfig says where the training corpus or compiled tables come from.
type CorpusConfig struct {
	Source   string // empty = built-in corpus; path, file:// or http(s):// URL
	Token    string // bearer token for remote sources
	Artifact string // precompiled artifact file, used instead of Source
	Timeout  time.Duration
}

// EngineConfig holds classification settings.
type EngineConfig struct {
	Variant    string // "trigram" or "digram"
	MaxResults int
	Workers    int // compile parallelism; 0 = GOMAXPROCS
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Backend string // "memory", "redis" or "none"
	Size    int
	TTL     time.Duration
}

// RedisConfig holds the Redis connection shared by cache and rate limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig holds per-client rate limiting. A zero interval disables it.
type RateLimitConfig struct {
	Interval time.Duration
	Backend  string // "memory" or "redis"
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// OutputConfig holds the prediction log settings.
type OutputConfig struct {
	PredictionLog string // "" = disabled, "-" = stdout, otherwise a file path
	MaxSize       int64
	Verbose       bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Corpus: CorpusConfig{Timeout: 30 * time.Second},
		Engine: EngineConfig{Variant: "trigram", MaxResults: 10},
		Cache:  CacheConfig{Backend: "memory", Size: 512, TTL: time.Minute},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		RateLimit: RateLimitConfig{
			Backend: "memory",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration. A file named by ICONCLASS_CONFIG that cannot
// be read or contains unknown keys is an error; malformed values are kept for
// Validate to report.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var doc map[string]any
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	byKey := make(map[string]setting, len(settings))
	for _, s := range settings {
		byKey[s.key] = s
	}

	var unknown []string
	for section, raw := range doc {
		table, ok := raw.(map[string]any)
		if !ok {
			unknown = append(unknown, section)
			continue
		}
		for name, v := range table {
			key := section + "." + name
			s, ok := byKey[key]
			if !ok {
				unknown = append(unknown, key)
				continue
			}
			c.set(s, fmt.Sprint(v), path)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("config: %s: unknown keys: %s", path, strings.Join(unknown, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	for _, s := range settings {
		if v, ok := os.LookupEnv(s.env()); ok && v != "" {
			c.set(s, v, s.env())
		}
	}
}

func (c *Config) set(s setting, value, origin string) {
	if err := s.apply(c, value); err != nil {
		c.invalid = append(c.invalid, fmt.Errorf("%s (%s): %w", s.key, origin, err))
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	errs := append([]error(nil), c.invalid...)

	switch c.Engine.Variant {
	case "trigram", "digram":
	default:
		errs = append(errs, fmt.Errorf("engine.variant must be trigram or digram, got %q", c.Engine.Variant))
	}
	if c.Engine.MaxResults < 1 || c.Engine.MaxResults > 10 {
		errs = append(errs, fmt.Errorf("engine.max_results must be between 1 and 10, got %d", c.Engine.MaxResults))
	}
	if c.Engine.Workers < 0 {
		errs = append(errs, fmt.Errorf("engine.workers must be >= 0, got %d", c.Engine.Workers))
	}

	switch c.Cache.Backend {
	case "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be memory, redis or none, got %q", c.Cache.Backend))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must be >= 0, got %d", c.Cache.Size))
	}

	switch c.RateLimit.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("ratelimit.backend must be memory or redis, got %q", c.RateLimit.Backend))
	}
	if c.RateLimit.Interval < 0 {
		errs = append(errs, fmt.Errorf("ratelimit.interval must be >= 0, got %v", c.RateLimit.Interval))
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	for key, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"corpus.timeout":          c.Corpus.Timeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", key, d))
		}
	}
	if c.Corpus.Artifact != "" {
		if _, err := os.Stat(c.Corpus.Artifact); err != nil {
			errs = append(errs, fmt.Errorf("corpus.artifact: %w", err))
		}
	}
	if c.Output.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("output.max_size must be >= 0, got %d", c.Output.MaxSize))
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any component needs the Redis connection.
func (c Config) UsesRedis() bool {
	return c.Cache.Backend == "redis" || (c.RateLimit.Interval > 0 && c.RateLimit.Backend == "redis")
}

type setting struct {
	key   string
	apply func(c *Config, v string) error
}

// env maps "section.name" to ICONCLASS_SECTION_NAME.
func (s setting) env() string {
	return "ICONCLASS_" + strings.ToUpper(strings.ReplaceAll(s.key, ".", "_"))
}

var settings = []setting{
	{"server.addr", str(func(c *Config) *string { return &c.Server.Addr })},
	{"server.read_timeout", dur(func(c *Config) *time.Duration { return &c.Server.ReadTimeout })},
	{"server.write_timeout", dur(func(c *Config) *time.Duration { return &c.Server.WriteTimeout })},
	{"server.shutdown_timeout", dur(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout })},
	{"corpus.source", str(func(c *Config) *string { return &c.Corpus.Source })},
	{"corpus.token", str(func(c *Config) *string { return &c.Corpus.Token })},
	{"corpus.artifact", str(func(c *Config) *string { return &c.Corpus.Artifact })},
	{"corpus.timeout", dur(func(c *Config) *time.Duration { return &c.Corpus.Timeout })},
	{"engine.variant", str(func(c *Config) *string { return &c.Engine.Variant })},
	{"engine.max_results", integer(func(c *Config) *int { return &c.Engine.MaxResults })},
	{"engine.workers", integer(func(c *Config) *int { return &c.Engine.Workers })},
	{"cache.backend", str(func(c *Config) *string { return &c.Cache.Backend })},
	{"cache.size", integer(func(c *Config) *int { return &c.Cache.Size })},
	{"cache.ttl", dur(func(c *Config) *time.Duration { return &c.Cache.TTL })},
	{"redis.addr", str(func(c *Config) *string { return &c.Redis.Addr })},
	{"redis.password", str(func(c *Config) *string { return &c.Redis.Password })},
	{"redis.db", integer(func(c *Config) *int { return &c.Redis.DB })},
	{"ratelimit.interval", dur(func(c *Config) *time.Duration { return &c.RateLimit.Interval })},
	{"ratelimit.backend", str(func(c *Config) *string { return &c.RateLimit.Backend })},
	{"log.level", str(func(c *Config) *string { return &c.Log.Level })},
	{"log.format", str(func(c *Config) *string { return &c.Log.Format })},
	{"output.prediction_log", str(func(c *Config) *string { return &c.Output.PredictionLog })},
	{"output.max_size", int64Setting(func(c *Config) *int64 { return &c.Output.MaxSize })},
	{"output.verbose", boolean(func(c *Config) *bool { return &c.Output.Verbose })},
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = v
		return nil
	}
}

func dur(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func int64Setting(field func(*Config) *int64) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolean(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}
