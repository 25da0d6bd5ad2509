package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func isolateConfigEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("WPMCP_CONFIG_HOME", home)
	t.Setenv("WPMCP_STATE_HOME", filepath.Join(home, ".state"))
	for _, key := range []string{
		"WORDPRESS_URL", "WORDPRESS_USERNAME", "WORDPRESS_PASSWORD",
		"WPMCP_ADDR", "WPMCP_TRUSTED_HOSTS", "WPMCP_AUTH_TOKENS", "WPMCP_LOG", "WPMCP_SNAPSHOT_HISTORY",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadFromEnvironment(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("WORDPRESS_URL", "https://blog.example.com/")
	t.Setenv("WORDPRESS_USERNAME", "editor")
	t.Setenv("WORDPRESS_PASSWORD", "app pass")
	t.Setenv("WPMCP_TRUSTED_HOSTS", "bridge.example.com, *.internal")

	cfg, err := load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WordPress.URL != "https://blog.example.com" {
		t.Fatalf("url = %q, want trailing slash trimmed", cfg.WordPress.URL)
	}
	if cfg.Server.Addr != defaultAddr || cfg.Server.Name != defaultServerName {
		t.Fatalf("server defaults not applied: %+v", cfg.Server)
	}
	if strings.Join(cfg.Server.TrustedHosts, "|") != "bridge.example.com|*.internal" {
		t.Fatalf("trusted hosts = %v", cfg.Server.TrustedHosts)
	}
	if !cfg.Server.Options.logEnabled() || !cfg.Server.Options.corsEnabled() || !cfg.Server.Options.restEnabled() {
		t.Fatalf("options should default to enabled")
	}
}

func TestLoadReportsMissingSettings(t *testing.T) {
	isolateConfigEnv(t)

	_, err := load("")
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, key := range []string{"WORDPRESS_URL", "WORDPRESS_USERNAME", "WORDPRESS_PASSWORD"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoadRejectsRelativeURL(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("WORDPRESS_URL", "blog.example.com")
	t.Setenv("WORDPRESS_USERNAME", "editor")
	t.Setenv("WORDPRESS_PASSWORD", "secret")

	if _, err := load(""); err == nil || !strings.Contains(err.Error(), "WORDPRESS_URL") {
		t.Fatalf("err = %v, want invalid WORDPRESS_URL", err)
	}
}

func TestLoadConfigFileWithEnvOverride(t *testing.T) {
	home := isolateConfigEnv(t)
	content := `{
  "server": {
    "name": "Blog Bridge",
    "addr": ":9000",
    "snapshotHistory": 3,
    "options": {"logEnabled": false, "corsEnabled": false, "authTokens": ["t1"]}
  },
  "wordpress": {"url": "https://file.example.com", "username": "file-user", "password": "file-pass"}
}`
	if err := os.WriteFile(filepath.Join(home, "config.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("WORDPRESS_USERNAME", "env-user")
	t.Setenv("WPMCP_ADDR", ":9100")

	cfg, err := load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Name != "Blog Bridge" {
		t.Fatalf("name = %q", cfg.Server.Name)
	}
	if cfg.Server.Addr != ":9100" {
		t.Fatalf("addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.WordPress.Username != "env-user" || cfg.WordPress.Password != "file-pass" {
		t.Fatalf("wordpress = %+v", cfg.WordPress)
	}
	if cfg.Server.SnapshotHistory != 3 {
		t.Fatalf("snapshotHistory = %d", cfg.Server.SnapshotHistory)
	}
	opts := cfg.Server.Options
	if opts.logEnabled() || opts.corsEnabled() {
		t.Fatalf("log/cors should be disabled by file")
	}
	if !opts.restEnabled() {
		t.Fatalf("rest should stay enabled")
	}
	if len(opts.AuthTokens) != 1 || opts.AuthTokens[0] != "t1" {
		t.Fatalf("auth tokens = %v", opts.AuthTokens)
	}

	t.Setenv("WPMCP_LOG", "true")
	if !opts.logEnabled() {
		t.Fatalf("WPMCP_LOG should override the file")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	home := isolateConfigEnv(t)
	if _, err := load(filepath.Join(home, "nope.json")); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestNilOptionsDefaults(t *testing.T) {
	t.Setenv("WPMCP_LOG", "")
	var opts *Options
	if !opts.logEnabled() || !opts.corsEnabled() || !opts.restEnabled() {
		t.Fatalf("nil options should enable everything")
	}
}
