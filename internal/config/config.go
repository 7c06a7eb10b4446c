// Package config loads schemagen settings from defaults, an optional
// schemagen.yaml and SCHEMAGEN_* environment variables.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/tordrt/schemagen/internal/history"
	"github.com/tordrt/schemagen/internal/schema"
)

const (
	DefaultFamily = schema.MongoDB
	DefaultAddr   = ":8080"
	envPrefix     = "SCHEMAGEN"
)

// Config is the resolved configuration
type Config struct {
	Family  schema.Family
	Debug   bool
	History history.Config
	Storage Storage
	Server  Server
	// Connections maps a live database id to its connection URL
	Connections map[string]string
}

// Storage configures workspace persistence
type Storage struct {
	// Path of the buntdb file; the workspace is kept in memory when empty
	Path string
	// MaxBytes caps the stored workspace; zero means unlimited
	MaxBytes int
}

// Server configures the HTTP server
type Server struct {
	Addr string
}

// Load reads the configuration. An explicit path must exist; otherwise
// schemagen.yaml is looked up in the working directory and in
// $HOME/.config/schemagen, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("schemagen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "schemagen"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return FromViper(v)
}

// SetDefaults registers the defaults and environment bindings on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("family", string(DefaultFamily))
	v.SetDefault("debug", false)
	v.SetDefault("history.maxSize", history.DefaultMaxSize)
	v.SetDefault("history.retention", history.DefaultRetention.String())
	v.SetDefault("storage.path", "")
	v.SetDefault("storage.maxBytes", 0)
	v.SetDefault("server.addr", DefaultAddr)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// camel-cased keys do not map onto the usual env spelling by themselves
	_ = v.BindEnv("history.maxSize", envPrefix+"_HISTORY_MAX_SIZE")
	_ = v.BindEnv("storage.maxBytes", envPrefix+"_STORAGE_MAX_BYTES")
}

// FromViper resolves the configuration held by v
func FromViper(v *viper.Viper) (*Config, error) {
	family, ok := schema.ParseFamily(v.GetString("family"))
	if !ok {
		return nil, fmt.Errorf("unknown family %q", v.GetString("family"))
	}

	maxBytes := v.GetInt("storage.maxBytes")
	if maxBytes < 0 {
		maxBytes = 0
	}

	connections := make(map[string]string)
	for id, url := range v.GetStringMapString("connections") {
		connections[id] = url
	}

	return &Config{
		Family: family,
		Debug:  v.GetBool("debug"),
		History: history.Config{
			MaxSize:   positiveInt(v.Get("history.maxSize"), history.DefaultMaxSize),
			Retention: positiveDuration(v.Get("history.retention"), history.DefaultRetention),
		},
		Storage:     Storage{Path: v.GetString("storage.path"), MaxBytes: maxBytes},
		Server:      Server{Addr: v.GetString("server.addr")},
		Connections: connections,
	}, nil
}

// positiveInt returns raw as a positive integer, or def
func positiveInt(raw any, def int) int {
	var n float64
	switch v := raw.(type) {
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		n = f
	default:
		return def
	}
	if n < 1 {
		return def
	}
	return int(n)
}

// positiveDuration accepts a duration string ("10m") or a number of
// milliseconds, and returns def for anything non-positive
func positiveDuration(raw any, def time.Duration) time.Duration {
	if s, ok := raw.(string); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			if d > 0 {
				return d
			}
			return def
		}
	}
	ms := positiveInt(raw, 0)
	if ms == 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// ConnectionIDs returns the configured live database ids in order
func (c *Config) ConnectionIDs() []string {
	return slices.Sorted(maps.Keys(c.Connections))
}
