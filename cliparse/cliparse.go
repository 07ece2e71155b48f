// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store types accepted by -t / STORE_TYPE.
const (
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

type Config struct {
	Port        int
	StoreType   string
	RedisURL    string
	DatabaseURL string
	KeyPrefix   string

	RetryAttempts  int
	RetryDelay     time.Duration
	HealthInterval time.Duration
	OpTimeout      time.Duration

	MaxCodes  int
	MaxBatch  int
	BodyLimit int64

	LogSalt   string
	LogLevel  string
	LogFormat string
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFlags parses args, falls back to environment variables for flags
// that were not given, and validates the result.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("redeem-portal", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 3000, "Server port")
	fs.StringVar(&cfg.StoreType, "t", StoreRedis, "Store type (redis, postgres, sqlite or memory)")
	fs.StringVar(&cfg.RedisURL, "r", "redis://localhost:6379", "Redis URL")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL (postgres or sqlite)")
	fs.StringVar(&cfg.KeyPrefix, "prefix", "m_portal", "Redis key prefix")

	// Reconnect behaviour
	fs.IntVar(&cfg.RetryAttempts, "retry-attempts", 3, "Reconnect attempts after a failure")
	fs.DurationVar(&cfg.RetryDelay, "retry-delay", 2*time.Second, "Delay between reconnect attempts")
	fs.DurationVar(&cfg.HealthInterval, "health-interval", 10*time.Second, "Ping interval while connected (0 disables)")
	fs.DurationVar(&cfg.OpTimeout, "op-timeout", 2*time.Second, "Timeout for each store call")

	// Limits
	fs.IntVar(&cfg.MaxCodes, "max-codes", 0, "Maximum pool size (0 means unlimited)")
	fs.IntVar(&cfg.MaxBatch, "max-batch", 100000, "Maximum codes per bulk request")
	fs.Int64Var(&cfg.BodyLimit, "body-limit", 50<<20, "Maximum request body in bytes")

	// Logging (prefer env for the salt, but allow CLI for dev)
	fs.StringVar(&cfg.LogSalt, "log-salt", "", "Salt for identity hashes in logs (prefer env)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", "Log format (text or json)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// Fall back to environment variables
	env := envLoader{set: set}
	env.intVar(&cfg.Port, "p", "PORT")
	env.stringVar(&cfg.StoreType, "t", "STORE_TYPE")
	env.stringVar(&cfg.RedisURL, "r", "REDIS_URL")
	env.stringVar(&cfg.DatabaseURL, "d", "DATABASE_URL")
	env.stringVar(&cfg.KeyPrefix, "prefix", "KEY_PREFIX")
	env.intVar(&cfg.RetryAttempts, "retry-attempts", "RETRY_ATTEMPTS")
	env.durationVar(&cfg.RetryDelay, "retry-delay", "RETRY_DELAY")
	env.durationVar(&cfg.HealthInterval, "health-interval", "HEALTH_INTERVAL")
	env.durationVar(&cfg.OpTimeout, "op-timeout", "OP_TIMEOUT")
	env.intVar(&cfg.MaxCodes, "max-codes", "MAX_CODES")
	env.intVar(&cfg.MaxBatch, "max-batch", "MAX_BATCH")
	env.int64Var(&cfg.BodyLimit, "body-limit", "BODY_LIMIT")
	env.stringVar(&cfg.LogSalt, "log-salt", "LOG_SALT")
	env.stringVar(&cfg.LogLevel, "log-level", "LOG_LEVEL")
	env.stringVar(&cfg.LogFormat, "log-format", "LOG_FORMAT")
	if env.err != nil {
		return Config{}, env.err
	}

	cfg.StoreType = strings.ToLower(cfg.StoreType)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}

	switch c.StoreType {
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("redis URL required (use -r or REDIS_URL env)")
		}
	case StorePostgres, StoreSQLite:
		if c.DatabaseURL == "" {
			return errors.New("database URL required (use -d or DATABASE_URL env)")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store type %q (want redis, postgres, sqlite or memory)", c.StoreType)
	}

	if c.RetryAttempts < 0 {
		return errors.New("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 || c.HealthInterval < 0 || c.OpTimeout < 0 {
		return errors.New("durations cannot be negative")
	}
	if c.MaxCodes < 0 {
		return errors.New("max codes cannot be negative")
	}
	if c.MaxBatch < 1 {
		return errors.New("max batch must be positive")
	}
	if c.BodyLimit < 1 {
		return errors.New("body limit must be positive")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// envLoader fills values from the environment for flags that were not
// set on the command line. The first parse error sticks.
type envLoader struct {
	set map[string]bool
	err error
}

func (e *envLoader) lookup(flagName, key string) (string, bool) {
	if e.err != nil || e.set[flagName] {
		return "", false
	}
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envLoader) stringVar(p *string, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		*p = v
	}
}

func (e *envLoader) intVar(p *int, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable: %w", key, err)
			return
		}
		*p = n
	}
}

func (e *envLoader) int64Var(p *int64, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable: %w", key, err)
			return
		}
		*p = n
	}
}

func (e *envLoader) durationVar(p *time.Duration, flagName, key string) {
	if v, ok := e.lookup(flagName, key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.err = fmt.Errorf("invalid %s env variable: %w", key, err)
			return
		}
		*p = d
	}
}
