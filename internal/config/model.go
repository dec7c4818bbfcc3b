// internal/config/model.go
//
// Typed configuration model for the console.
//
// Context
// -------
// These structs define the configuration tree that `loader.go` merges from
// `conf/.env`, `conf/console.yaml`, and `DBCONSOLE_`-prefixed environment
// variables.  Durations are written in Go syntax (`"3s"`, `"24h"`) and
// decoded by koanf's mapstructure hook.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`; koanf ignores `yaml` tags.
//   • `Paths` is filled at runtime.  YAML must not try to set it.
//   • Two spaces after periods.

package config

import "time"

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

// Backend points at the provisioning service.  The two paths are appended
// to BaseURL and default to the service's own routes.
type Backend struct {
	BaseURL       string        `koanf:"base_url"       validate:"required,url"`
	TemplatesPath string        `koanf:"templates_path" validate:"required,startswith=/"`
	DatabasesPath string        `koanf:"databases_path" validate:"required,startswith=/"`
	Timeout       time.Duration `koanf:"timeout"        validate:"gt=0"`
}

// Console tunes the operator-facing behaviour.
type Console struct {
	Timezone            string        `koanf:"timezone"             validate:"required,tzname"`
	NotificationTimeout time.Duration `koanf:"notification_timeout" validate:"gt=0"`
	ExpiryMin           time.Duration `koanf:"expiry_min"           validate:"gt=0"`
	ExpiryMax           time.Duration `koanf:"expiry_max"           validate:"gtfield=ExpiryMin"`
	Clipboard           bool          `koanf:"clipboard"`

	// CSRFKey signs form tokens.  Keep it out of YAML and set it through
	// DBCONSOLE_CONSOLE__CSRF_KEY or conf/.env.
	CSRFKey string `koanf:"csrf_key" validate:"required,min=32"`
}

// Probe controls the connection check offered in the detail view.
type Probe struct {
	Enabled bool          `koanf:"enabled"`
	Driver  string        `koanf:"driver"  validate:"omitempty,oneof=mysql"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// View controls template loading.  OverrideDir, when set, holds *.html
// files that replace the embedded ones by name.
type View struct {
	OverrideDir string `koanf:"override_dir"`
	Reload      bool   `koanf:"reload"`
}

// Log tunes the file logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Paths is resolved at runtime.
type Paths struct {
	Root string // DBCONSOLE_ROOT or discovered parent
}

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	Backend Backend `koanf:"backend"`
	Console Console `koanf:"console"`
	Probe   Probe   `koanf:"probe"`
	View    View    `koanf:"view"`
	Log     Log     `koanf:"log"`
	Paths   Paths   `koanf:"-"`
}

// Location resolves Console.Timezone.  Validation guarantees the name is
// known, so the UTC fallback only covers a Config built by hand.  "Local"
// means the zone of the host, which is the operator's own in desktop use.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Console.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
