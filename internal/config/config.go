// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file, a .env
// file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `json:"address"`

	// DatabaseDriver selects the storage backend: "postgres" or "sqlite".
	DatabaseDriver string `json:"database_driver"`
	// DatabaseDSN holds the database connection string, or the file path for sqlite.
	DatabaseDSN string `json:"database_dsn"`

	// SessionStore selects where sessions live: "sql" or "memory".
	SessionStore string `json:"session_store"`
	// SessionTTL is the idle lifetime of a session.
	SessionTTL Duration `json:"session_ttl"`
	// SessionSweepInterval is how often expired sessions are purged.
	SessionSweepInterval Duration `json:"session_sweep_interval"`
	// SecureCookie marks the session cookie Secure.
	SecureCookie bool `json:"secure_cookie"`

	BcryptCost int    `json:"bcrypt_cost"`
	LogLevel   string `json:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// Duration is a time.Duration written as "90m" in flags, files and the environment.
type Duration time.Duration

// String implements flag.Value.
func (d *Duration) String() string { return time.Duration(*d).String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts a duration string.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"1h\": %w", err)
	}
	return d.Set(s)
}

// Parse loads a .env file if present, then reads the command-line flags, the
// config file and the environment. Invalid configuration is reported as an error.
func Parse() (*Options, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()
	return Load(os.Args[0], os.Args[1:], os.Getenv)
}

// Load builds Options from args, then the JSON config file, then the
// environment read through getenv. Later sources override earlier ones.
func Load(name string, args []string, getenv func(string) string) (*Options, error) {
	options := &Options{
		SessionTTL:           Duration(7 * 24 * time.Hour),
		SessionSweepInterval: Duration(time.Hour),
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&options.Address, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDriver, "driver", "sqlite", "database driver: postgres or sqlite")
	fs.StringVar(&options.DatabaseDSN, "d", "kakeibo.db", "db address")
	fs.StringVar(&options.SessionStore, "sessions", "sql", "session store: sql or memory")
	fs.Var(&options.SessionTTL, "session-ttl", "session lifetime")
	fs.Var(&options.SessionSweepInterval, "sweep-interval", "expired session cleanup interval")
	fs.BoolVar(&options.SecureCookie, "secure-cookie", false, "send the session cookie over HTTPS only")
	fs.IntVar(&options.BcryptCost, "bcrypt-cost", 10, "bcrypt work factor")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS key file")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if err := applyEnv(options, getenv); err != nil {
		return nil, err
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func applyEnv(o *Options, getenv func(string) string) error {
	strs := map[string]*string{
		"SERVER_ADDRESS":  &o.Address,
		"DATABASE_DRIVER": &o.DatabaseDriver,
		"DATABASE_DSN":    &o.DatabaseDSN,
		"SESSION_STORE":   &o.SessionStore,
		"LOG_LEVEL":       &o.LogLevel,
		"TLS_CERT":        &o.TLSCert,
		"TLS_KEY":         &o.TLSKey,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	var errs []error
	if v := getenv("SESSION_TTL"); v != "" {
		if err := o.SessionTTL.Set(v); err != nil {
			errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
		}
	}
	if v := getenv("SESSION_SWEEP_INTERVAL"); v != "" {
		if err := o.SessionSweepInterval.Set(v); err != nil {
			errs = append(errs, fmt.Errorf("SESSION_SWEEP_INTERVAL: %w", err))
		}
	}
	if v := getenv("SECURE_COOKIE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SECURE_COOKIE: %w", err))
		}
		o.SecureCookie = b
	}
	if v := getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BCRYPT_COST: %w", err))
		}
		o.BcryptCost = n
	}
	return errors.Join(errs...)
}

// Validate reports every invalid option at once.
func (o *Options) Validate() error {
	var errs []error
	if o.Address == "" {
		errs = append(errs, errors.New("address is required"))
	}
	switch o.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", o.DatabaseDriver))
	}
	if o.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is required"))
	}
	switch o.SessionStore {
	case "sql", "memory":
	default:
		errs = append(errs, fmt.Errorf("unsupported session store %q", o.SessionStore))
	}
	if o.SessionTTL <= 0 {
		errs = append(errs, errors.New("session TTL must be positive"))
	}
	if o.SessionSweepInterval <= 0 {
		errs = append(errs, errors.New("session sweep interval must be positive"))
	}
	if o.BcryptCost < bcrypt.MinCost || o.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range %d..%d", o.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("tls cert and key must be set together"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether the server should listen with HTTPS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}
