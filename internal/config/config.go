// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lireddit Contributors

// Package config loads lireddit configuration.
//
// Sources are layered: the YAML file given by --config, then command-line
// flags (an unchanged flag only fills a key the file left unset), then
// connection secrets from the environment.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/lireddit/lireddit/internal/auth"
	"github.com/lireddit/lireddit/internal/logging"
	"github.com/lireddit/lireddit/internal/session"
)

// Account repository drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Session store drivers.
const (
	SessionDriverRedis  = "redis"
	SessionDriverMemory = "memory"
)

// Environment variables holding connection secrets.
const (
	EnvDatabaseURL = "DATABASE_URL"
	EnvMongoURI    = "MONGODB_URI"
	EnvRedisURL    = "REDIS_URL"
)

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Accounts AccountsConfig `koanf:"accounts"`
	Sessions SessionsConfig `koanf:"sessions"`
	Hash     HashConfig     `koanf:"hash"`
}

// HTTPConfig configures the API listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the metrics and health listener. Empty disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// AccountsConfig selects and locates the account repository.
type AccountsConfig struct {
	Driver        string `koanf:"driver"`
	DatabaseURL   string `koanf:"database_url"`
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
}

// SessionsConfig selects the session store and cookie settings.
type SessionsConfig struct {
	Driver     string        `koanf:"driver"`
	RedisURL   string        `koanf:"redis_url"`
	CookieName string        `koanf:"cookie_name"`
	TTL        time.Duration `koanf:"ttl"`
	Secure     bool          `koanf:"secure"`
}

// HashConfig holds the argon2id cost parameters.
type HashConfig struct {
	Time      uint32 `koanf:"time"`
	MemoryKiB uint32 `koanf:"memory_kib"`
	Threads   uint8  `koanf:"threads"`
}

// flagKeys maps flag names to configuration keys. Secrets have no flag.
var flagKeys = map[string]string{
	"http-addr":           "http.addr",
	"metrics-addr":        "metrics.addr",
	"log-format":          "log.format",
	"log-level":           "log.level",
	"accounts-driver":     "accounts.driver",
	"mongo-database":      "accounts.mongo_database",
	"sessions-driver":     "sessions.driver",
	"session-cookie-name": "sessions.cookie_name",
	"session-ttl":         "sessions.ttl",
	"session-secure":      "sessions.secure",
	"hash-time":           "hash.time",
	"hash-memory-kib":     "hash.memory_kib",
	"hash-threads":        "hash.threads",
}

// RegisterFlags adds the configuration flags, with their defaults, to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	params := auth.DefaultArgon2Params()

	flags.String("http-addr", ":4000", "API listen address")
	flags.String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	flags.String("log-format", logging.FormatJSON, "log format (json or text)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("accounts-driver", DriverPostgres, "account repository (postgres, mongo or memory)")
	flags.String("mongo-database", "lireddit", "MongoDB database name")
	flags.String("sessions-driver", SessionDriverRedis, "session store (redis or memory)")
	flags.String("session-cookie-name", session.DefaultCookieName, "session cookie name")
	flags.Duration("session-ttl", session.DefaultTTL, "session lifetime")
	flags.Bool("session-secure", false, "mark the session cookie Secure")
	flags.Uint32("hash-time", params.Time, "argon2id iterations")
	flags.Uint32("hash-memory-kib", params.MemoryKiB, "argon2id memory in KiB")
	flags.Uint8("hash-threads", params.Threads, "argon2id parallelism")
}

// Load builds a Config from the YAML file at path (skipped when empty), the
// flags and the environment read through getenv.
func Load(path string, flags *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			code := "CONFIG_LOAD_FAILED"
			if errors.Is(err, fs.ErrNotExist) {
				code = "CONFIG_NOT_FOUND"
			}
			return nil, oops.Code(code).With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	if getenv != nil {
		for env, key := range map[string]string{
			EnvDatabaseURL: "accounts.database_url",
			EnvMongoURI:    "accounts.mongo_uri",
			EnvRedisURL:    "sessions.redis_url",
		} {
			if v := getenv(env); v != "" {
				if err := k.Set(key, v); err != nil {
					return nil, oops.Code("CONFIG_LOAD_FAILED").With("env", env).Wrap(err)
				}
			}
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode configuration").Wrap(err)
	}
	return &cfg, nil
}

// Validate checks that the selected drivers have what they need.
func (c *Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("key", key).Errorf(format, args...)
	}

	if c.HTTP.Addr == "" {
		return invalid("http.addr", "http.addr is required")
	}
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText {
		return invalid("log.format", "log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "log.level: unknown level %q", c.Log.Level)
	}

	switch c.Accounts.Driver {
	case DriverPostgres:
		if c.Accounts.DatabaseURL == "" {
			return invalid("accounts.database_url", "%s is required for the postgres driver", EnvDatabaseURL)
		}
	case DriverMongo:
		if c.Accounts.MongoURI == "" {
			return invalid("accounts.mongo_uri", "%s is required for the mongo driver", EnvMongoURI)
		}
		if c.Accounts.MongoDatabase == "" {
			return invalid("accounts.mongo_database", "accounts.mongo_database is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return invalid("accounts.driver", "accounts.driver must be one of %s, got %q",
			strings.Join([]string{DriverPostgres, DriverMongo, DriverMemory}, ", "), c.Accounts.Driver)
	}

	switch c.Sessions.Driver {
	case SessionDriverRedis:
		if c.Sessions.RedisURL == "" {
			return invalid("sessions.redis_url", "%s is required for the redis driver", EnvRedisURL)
		}
	case SessionDriverMemory:
	default:
		return invalid("sessions.driver", "sessions.driver must be redis or memory, got %q", c.Sessions.Driver)
	}
	if c.Sessions.CookieName == "" {
		return invalid("sessions.cookie_name", "sessions.cookie_name is required")
	}
	if c.Sessions.TTL <= 0 {
		return invalid("sessions.ttl", "sessions.ttl must be positive, got %s", c.Sessions.TTL)
	}

	if err := c.Argon2Params().Validate(); err != nil {
		return invalid("hash", "invalid hash parameters: %v", err)
	}
	return nil
}

// Argon2Params returns the hasher parameters. Salt and key lengths are fixed.
func (c *Config) Argon2Params() auth.Argon2Params {
	p := auth.DefaultArgon2Params()
	p.Time = c.Hash.Time
	p.MemoryKiB = c.Hash.MemoryKiB
	p.Threads = c.Hash.Threads
	return p
}

// SessionOptions returns the cookie settings for session.NewManager.
func (c *Config) SessionOptions() session.Options {
	opts := session.DefaultOptions()
	opts.CookieName = c.Sessions.CookieName
	opts.TTL = c.Sessions.TTL
	opts.Secure = c.Sessions.Secure
	return opts
}
