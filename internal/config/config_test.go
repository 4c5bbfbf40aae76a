package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formflow.yml")
	content := `
port: 9000
env: production
log_level: warn
allowed_origins:
  - https://app.example.com/
  - https://app.example.com
limits:
  max_steps: 5
store:
  driver: MySQL
  mysql:
    host: db
    user: formflow
    password: secret
    name: forms
    params:
      charset: utf8mb4
cache:
  redis_url: redis://localhost:6379/1
  ttl: 2m
theme:
  default: acme
  manifests:
    - name: acme
      tokens: {primary: "#0a7d3e"}
      asset_prefix: /themes/acme
      assets: {vanilla.stylesheet: theme.css}
      variants:
        dark:
          tokens: {primary: "#111"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := load(path, env(nil))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.Limits.MaxSteps)
	assert.NotZero(t, cfg.Limits.MaxNestingDepth, "unset limits keep their defaults")
	assert.Equal(t, DriverMySQL, cfg.Store.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)

	dsn, err := cfg.Store.MySQL.DSNValue()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "formflow:secret@tcp(db:3306)/forms?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")

	manifests := cfg.Theme.ToManifests()
	require.Len(t, manifests, 1)
	assert.Equal(t, "/themes/acme", manifests[0].Assets.Prefix)
	assert.Equal(t, "#111", manifests[0].Variants["dark"].Tokens["primary"])
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := load("", env(map[string]string{
		"FORMFLOW_PORT":            "8081",
		"FORMFLOW_ALLOWED_ORIGINS": "http://a.test, http://b.test/",
		"FORMFLOW_CACHE_TTL":       "30s",
		"FORMFLOW_LOG_LEVEL":       "",
	}))
	require.NoError(t, err)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Assets.Minify)
}

func TestLoad_Errors(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yml"), env(nil))
	assert.Error(t, err, "an explicit path must exist")

	_, err = Parse([]byte("port: 70000"))
	assert.ErrorContains(t, err, "invalid port")

	_, err = Parse([]byte("colour: red"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Parse([]byte("store: {driver: postgres}"))
	assert.ErrorContains(t, err, "unknown store driver")

	_, err = Parse([]byte("store: {driver: mongo}"))
	assert.ErrorContains(t, err, "store.mongo.uri")

	_, err = Parse([]byte("store: {driver: mysql}"))
	assert.ErrorContains(t, err, "store.mysql.name")

	_, err = Parse([]byte("log_level: chatty"))
	assert.ErrorContains(t, err, "invalid log_level")

	t.Chdir(t.TempDir())
	_, err = load("", env(map[string]string{"FORMFLOW_PORT": "eighty"}))
	assert.ErrorContains(t, err, "FORMFLOW_PORT")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}
