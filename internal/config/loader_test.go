package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testKey = "0123456789abcdef0123456789abcdef"

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if body != "" {
		if err := os.WriteFile(filepath.Join(root, "conf", "console.yaml"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestLoadFrom_YAMLAndDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"CONSOLE__CSRF_KEY", testKey)
	root := writeYAML(t, `
backend:
  base_url: http://dbaas.local:5001
console:
  timezone: UTC
  notification_timeout: 5s
`)

	cfg, err := LoadFrom(root)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Backend.BaseURL != "http://dbaas.local:5001" {
		t.Errorf("base_url = %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.TemplatesPath != "/templates" || cfg.Backend.DatabasesPath != "/db" {
		t.Errorf("paths = %q %q", cfg.Backend.TemplatesPath, cfg.Backend.DatabasesPath)
	}
	if cfg.Console.NotificationTimeout != 5*time.Second {
		t.Errorf("notification_timeout = %v", cfg.Console.NotificationTimeout)
	}
	if cfg.Console.ExpiryMin != time.Hour || cfg.Console.ExpiryMax != 24*time.Hour {
		t.Errorf("expiry window = %v..%v", cfg.Console.ExpiryMin, cfg.Console.ExpiryMax)
	}
	if cfg.Paths.Root != root {
		t.Errorf("root = %q", cfg.Paths.Root)
	}
	if Get() != cfg {
		t.Error("Get() does not return the cached config")
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("location = %v", cfg.Location())
	}
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	t.Setenv(EnvPrefix+"CONSOLE__CSRF_KEY", testKey)
	t.Setenv(EnvPrefix+"HTTP__LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv(EnvPrefix+"BACKEND__BASE_URL", "http://override:5001")
	root := writeYAML(t, `
http:
  listen_addr: 127.0.0.1:8080
backend:
  base_url: http://dbaas.local:5001
`)

	cfg, err := LoadFrom(root)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != "0.0.0.0:9090" {
		t.Errorf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Backend.BaseURL != "http://override:5001" {
		t.Errorf("base_url = %q", cfg.Backend.BaseURL)
	}
}

func TestLoadFrom_MissingYAMLUsesEnv(t *testing.T) {
	t.Setenv(EnvPrefix+"CONSOLE__CSRF_KEY", testKey)
	t.Setenv(EnvPrefix+"BACKEND__BASE_URL", "http://dbaas:5001")
	if _, err := LoadFrom(writeYAML(t, "")); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
}

func TestLoadFrom_ValidationFailure(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"missing base url", "console: {timezone: UTC}\n", "BaseURL"},
		{"inverted window", "backend: {base_url: 'http://x'}\nconsole: {expiry_min: 2h, expiry_max: 1h}\n", "ExpiryMax"},
		{"unknown zone", "backend: {base_url: 'http://x'}\nconsole: {timezone: Mars/Olympus}\n", "Timezone"},
		{"bad driver", "backend: {base_url: 'http://x'}\nprobe: {driver: oracle}\n", "Driver"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvPrefix+"CONSOLE__CSRF_KEY", testKey)
			_, err := LoadFrom(writeYAML(t, tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestLoadFrom_ShortCSRFKey(t *testing.T) {
	t.Setenv(EnvPrefix+"CONSOLE__CSRF_KEY", "short")
	_, err := LoadFrom(writeYAML(t, "backend: {base_url: 'http://x'}\n"))
	if err == nil || !strings.Contains(err.Error(), "CSRFKey") {
		t.Fatalf("err = %v", err)
	}
}

func TestReload_PicksUpEditsAndKeepsLastGood(t *testing.T) {
	t.Setenv(EnvPrefix+"CONSOLE__CSRF_KEY", testKey)
	root := writeYAML(t, "view:\n  override_dir: /srv/a\n")
	t.Setenv(EnvPrefix+"ROOT", root)

	if _, err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	yamlPath := filepath.Join(root, "conf", "console.yaml")
	if err := os.WriteFile(yamlPath, []byte("view:\n  override_dir: /srv/b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := Get().View.OverrideDir; got != "/srv/b" {
		t.Fatalf("override_dir after reload = %q", got)
	}

	if err := os.WriteFile(yamlPath, []byte("view: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Reload(); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
	if got := Get().View.OverrideDir; got != "/srv/b" {
		t.Fatalf("failed reload replaced config: override_dir = %q", got)
	}
}
