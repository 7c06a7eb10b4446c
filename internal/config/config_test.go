package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemagen/internal/history"
	"github.com/tordrt/schemagen/internal/schema"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, schema.MongoDB, cfg.Family)
	assert.Equal(t, history.DefaultMaxSize, cfg.History.MaxSize)
	assert.Equal(t, history.DefaultRetention, cfg.History.Retention)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Empty(t, cfg.Storage.Path)
	assert.Empty(t, cfg.Connections)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemagen.yaml")
	content := `family: postgres
debug: true
history:
  maxSize: 25
  retention: 90s
storage:
  path: /tmp/ws.db
  maxBytes: 4096
server:
  addr: ":9090"
connections:
  shop: postgres://localhost/shop
  legacy: mysql://root@tcp(localhost:3306)/legacy
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, schema.PostgreSQL, cfg.Family)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 25, cfg.History.MaxSize)
	assert.Equal(t, 90*time.Second, cfg.History.Retention)
	assert.Equal(t, Storage{Path: "/tmp/ws.db", MaxBytes: 4096}, cfg.Storage)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"legacy", "shop"}, cfg.ConnectionIDs())
	assert.Equal(t, "postgres://localhost/shop", cfg.Connections["shop"])
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SCHEMAGEN_FAMILY", "mysql")
	t.Setenv("SCHEMAGEN_HISTORY_MAX_SIZE", "7")
	t.Setenv("SCHEMAGEN_HISTORY_RETENTION", "1500")
	t.Setenv("SCHEMAGEN_SERVER_ADDR", "127.0.0.1:1")

	v := viper.New()
	SetDefaults(v)
	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, schema.MySQL, cfg.Family)
	assert.Equal(t, 7, cfg.History.MaxSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.History.Retention, "bare numbers are milliseconds")
	assert.Equal(t, "127.0.0.1:1", cfg.Server.Addr)
}

func TestInvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name      string
		maxSize   any
		retention any
	}{
		{name: "zero", maxSize: 0, retention: 0},
		{name: "negative", maxSize: -5, retention: "-1m"},
		{name: "garbage", maxSize: "lots", retention: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set("history.maxSize", tt.maxSize)
			v.Set("history.retention", tt.retention)

			cfg, err := FromViper(v)
			require.NoError(t, err)
			assert.Equal(t, history.DefaultMaxSize, cfg.History.MaxSize)
			assert.Equal(t, history.DefaultRetention, cfg.History.Retention)
		})
	}
}

func TestUnknownFamily(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("family", "cassandra")

	_, err := FromViper(v)
	assert.ErrorContains(t, err, "unknown family")
}
