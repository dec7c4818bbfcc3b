// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` from four layers (highest precedence
last):

  1. Built-in defaults (`defaults` below).
  2. Optional `<root>/conf/.env`, loaded into the process environment.
  3. `<root>/conf/console.yaml`, if present.
  4. Environment variables prefixed `DBCONSOLE_`, where `__` maps to “.”
     (e.g., `DBCONSOLE_BACKEND__BASE_URL → backend.base_url`).

The merged tree is unmarshalled, validated, stamped with the root path,
and cached in an `atomic.Pointer`.  `Reload()` calls `Load()` again and
swaps the pointer.

Notes
-----
  • `rootDir()` climbs from the working directory until it finds
    `conf/console.yaml`, so `go run ./cmd/console` works from any
    sub-directory.
  • Logs use `zap.S()` so boot problems surface before the file logger
    exists.
*/
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "DBCONSOLE_"

var current atomic.Pointer[Config]

var defaults = map[string]any{
	"http.listen_addr":             "127.0.0.1:8080",
	"http.read_timeout":            "10s",
	"http.write_timeout":           "15s",
	"http.idle_timeout":            "60s",
	"backend.templates_path":       "/templates",
	"backend.databases_path":       "/db",
	"backend.timeout":              "30s",
	"console.timezone":             "Local",
	"console.notification_timeout": "3s",
	"console.expiry_min":           "1h",
	"console.expiry_max":           "24h",
	"probe.driver":                 "mysql",
	"probe.timeout":                "5s",
	"log.level":                    "info",
}

/*──────────────────────────── root discovery ───────────────────────────────*/

func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "console.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load merges defaults, .env, YAML, and env overrides, validates, and
// caches the result.
func Load() (*Config, error) {
	return LoadFrom(rootDir())
}

// LoadFrom is Load with an explicit root directory.
func LoadFrom(root string) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	// Existing env vars win over .env entries.
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, err
	}

	yamlPath := filepath.Join(root, "conf", "console.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"backend", cfg.Backend.BaseURL,
		"timezone", cfg.Console.Timezone,
		"probe", cfg.Probe.Enabled,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
