package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"
	"time"

	apperr "github.com/matzehuels/graphbuilder/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, unknown, err := Load("")
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %v", unknown)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("explicit missing config should fail")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
[store]
backend = "redis"

[store.redis]
addr = "cache:6380"
db = 2
ttl = "72h"

[editor]
ids = "counter"
strict = true

[render]
format = "png"
scale = 2.0
`)
	cfg, unknown, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %v", unknown)
	}

	if cfg.Store.Backend != BackendRedis || cfg.Store.Redis.Addr != "cache:6380" || cfg.Store.Redis.DB != 2 {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.Redis.TTL != 72*time.Hour {
		t.Errorf("ttl = %v, want 72h", cfg.Store.Redis.TTL)
	}
	if cfg.Editor.IDs != "counter" || !cfg.Editor.Strict {
		t.Errorf("editor = %+v", cfg.Editor)
	}
	if cfg.Render.Format != "png" || cfg.Render.Scale != 2 {
		t.Errorf("render = %+v", cfg.Render)
	}
	// untouched sections keep defaults
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
	if cfg.Editor.Width != Default().Editor.Width {
		t.Errorf("editor.width = %d", cfg.Editor.Width)
	}
}

func TestLoadDefaultPathFromXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "graphbuilder"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := []byte("[server]\naddr = \":9999\"\n")
	if err := os.WriteFile(filepath.Join(dir, "graphbuilder", "config.toml"), content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("server.addr = %q, want :9999", cfg.Server.Addr)
	}
}

func TestLoadUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[store]
backend = "file"
colour = "blue"

[extra]
key = 1
`)
	_, unknown, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"extra.key", "store.colour"} {
		if !slices.Contains(unknown, want) {
			t.Errorf("unknown = %v, missing %q", unknown, want)
		}
	}
	if slices.Contains(unknown, "store.backend") {
		t.Errorf("known key reported as unknown: %v", unknown)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Syntax", "[store\nbackend = 1"},
		{"Backend", "[store]\nbackend = \"s3\""},
		{"IDs", "[editor]\nids = \"random\""},
		{"Canvas", "[editor]\nwidth = 2"},
		{"Format", "[render]\nformat = \"pdf\""},
		{"Scale", "[render]\nscale = 0.0"},
		{"Addr", "[server]\naddr = \" \""},
		{"TTL", "[store.redis]\nttl = \"-1s\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() = nil, want error")
			}
		})
	}
}

func TestLoadSyntaxErrorCode(t *testing.T) {
	_, _, err := Load(writeConfig(t, "not = [toml"))
	if !apperr.Is(err, apperr.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendMongo
	cfg.Store.Redis.TTL = 90 * time.Minute

	data, err := cfg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, string(data))
	got, unknown, err := Load(path)
	if err != nil {
		t.Fatalf("Load(encoded) = %v\n%s", err, data)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %v", unknown)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}
