package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	o, err := Load("kakeibo", []string{"-c", ""}, env(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", o.Address)
	assert.Equal(t, "sqlite", o.DatabaseDriver)
	assert.Equal(t, "kakeibo.db", o.DatabaseDSN)
	assert.Equal(t, "sql", o.SessionStore)
	assert.Equal(t, Duration(7*24*time.Hour), o.SessionTTL)
	assert.Equal(t, Duration(time.Hour), o.SessionSweepInterval)
	assert.Equal(t, 10, o.BcryptCost)
	assert.Equal(t, "info", o.LogLevel)
	assert.False(t, o.SecureCookie)
	assert.False(t, o.TLSEnabled())
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"address": "0.0.0.0:9000",
		"database_driver": "postgres",
		"database_dsn": "postgres://file",
		"session_ttl": "2h",
		"log_level": "debug"
	}`), 0o600))

	o, err := Load("kakeibo", []string{
		"-c", path,
		"-a", "127.0.0.1:1",
		"-sessions", "memory",
		"-sweep-interval", "5m",
	}, env(map[string]string{
		"SERVER_ADDRESS": ":8443",
		"SECURE_COOKIE":  "true",
		"BCRYPT_COST":    "12",
		"TLS_CERT":       "server.crt",
		"TLS_KEY":        "server.key",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":8443", o.Address, "environment wins")
	assert.Equal(t, "postgres", o.DatabaseDriver, "file overrides flag default")
	assert.Equal(t, "postgres://file", o.DatabaseDSN)
	assert.Equal(t, "memory", o.SessionStore, "flag kept when file is silent")
	assert.Equal(t, Duration(2*time.Hour), o.SessionTTL)
	assert.Equal(t, Duration(5*time.Minute), o.SessionSweepInterval)
	assert.Equal(t, "debug", o.LogLevel)
	assert.True(t, o.SecureCookie)
	assert.Equal(t, 12, o.BcryptCost)
	assert.True(t, o.TLSEnabled())
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alt.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_dsn": "/var/lib/kakeibo.db"}`), 0o600))

	o, err := Load("kakeibo", nil, env(map[string]string{"CONFIG": path}))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/kakeibo.db", o.DatabaseDSN)
}

func TestLoad_Errors(t *testing.T) {
	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"session_ttl": 3600}`), 0o600))

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "bad duration flag", args: []string{"-c", "", "-session-ttl", "soon"}},
		{name: "numeric duration in file", args: []string{"-c", broken}},
		{name: "bad env bool", args: []string{"-c", ""}, env: map[string]string{"SECURE_COOKIE": "maybe"}},
		{name: "bad env cost", args: []string{"-c", ""}, env: map[string]string{"BCRYPT_COST": "high"}},
		{name: "unsupported driver", args: []string{"-c", "", "-driver", "mysql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("kakeibo", tt.args, env(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	o := &Options{
		DatabaseDriver: "oracle",
		SessionStore:   "redis",
		BcryptCost:     2,
		TLSCert:        "only-cert.pem",
	}
	err := o.Validate()
	require.Error(t, err)

	for _, want := range []string{
		"address is required",
		`unsupported database driver "oracle"`,
		"database DSN is required",
		`unsupported session store "redis"`,
		"session TTL must be positive",
		"session sweep interval must be positive",
		"bcrypt cost 2 out of range",
		"tls cert and key must be set together",
	} {
		assert.Contains(t, err.Error(), want)
	}
}
