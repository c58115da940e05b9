// Package config loads graphbuilder settings from a TOML file.
//
// The file is optional. Every field has a default, and command-line flags
// override whatever the file sets. The default location follows XDG:
// $XDG_CONFIG_HOME/graphbuilder/config.toml, falling back to
// ~/.config/graphbuilder/config.toml.
//
// Example:
//
//	[store]
//	backend = "redis"
//
//	[store.redis]
//	addr = "localhost:6379"
//	ttl = "72h"
//
//	[editor]
//	ids = "counter"
//
//	[render]
//	format = "png"
//	scale = 2.0
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
	"github.com/matzehuels/graphbuilder/pkg/render"
)

const appName = "graphbuilder"

// Store backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the full configuration.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Editor EditorConfig `toml:"editor"`
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig configures the Redis store and render cache.
type RedisConfig struct {
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`
}

// MongoConfig configures the MongoDB store.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// EditorConfig configures the terminal editor and node ID generation.
type EditorConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	IDs    string `toml:"ids"`
	Strict bool   `toml:"strict"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// RenderConfig holds render defaults.
type RenderConfig struct {
	Format  string  `toml:"format"`
	Scale   float64 `toml:"scale"`
	Labels  bool    `toml:"labels"`
	NoCache bool    `toml:"no_cache"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "graphbuilder",
				Collection: "graphs",
			},
		},
		Editor: EditorConfig{
			Width:  64,
			Height: 20,
			IDs:    "uuid",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Render: RenderConfig{
			Format: string(render.FormatSVG),
			Scale:  1,
			Labels: true,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the config file at path on top of the defaults. An empty path
// means DefaultPath, which may be absent. An explicit path must exist.
// Keys the file sets that Config does not know are returned for the caller
// to warn about.
func Load(path string) (Config, []string, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil, nil
		}
		return cfg, nil, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), nil, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "parse config %s", path)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	slices.Sort(unknown)

	if err := cfg.Validate(); err != nil {
		return cfg, unknown, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, unknown, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendFile, BackendRedis, BackendMongo:
	default:
		return apperr.New(apperr.ErrCodeInvalidInput, "store.backend must be file, redis or mongo, got %q", c.Store.Backend)
	}
	if c.Store.Redis.TTL < 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "store.redis.ttl must not be negative")
	}
	switch c.Editor.IDs {
	case "uuid", "counter":
	default:
		return apperr.New(apperr.ErrCodeInvalidInput, "editor.ids must be uuid or counter, got %q", c.Editor.IDs)
	}
	if c.Editor.Width < 8 || c.Editor.Height < 4 {
		return apperr.New(apperr.ErrCodeInvalidInput, "editor canvas must be at least 8x4, got %dx%d", c.Editor.Width, c.Editor.Height)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return apperr.New(apperr.ErrCodeInvalidInput, "server.addr must not be empty")
	}
	if _, err := render.ParseFormat(c.Render.Format); err != nil {
		return err
	}
	if c.Render.Scale <= 0 {
		return apperr.New(apperr.ErrCodeInvalidInput, "render.scale must be positive, got %g", c.Render.Scale)
	}
	return nil
}

// Encode returns c as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
