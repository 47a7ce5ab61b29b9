package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/remotectl/internal/config"
	"github.com/danmuck/remotectl/internal/protocol/watch"
	"github.com/danmuck/remotectl/internal/server"
	"github.com/danmuck/remotectl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "remotectl.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadClientConfigDefaults(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadClientConfig("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Session.Watch != watch.DefaultConfig() {
		t.Fatalf("unexpected watch config: %+v", cfg.Session.Watch)
	}
	if cfg.AdminAddr != server.DefaultAddr || !cfg.RegisterOnStart {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadClientConfigOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
control_file = " /tmp/ctl.txt "
response_file = "/tmp/status.txt"
system_dir = "/opt/host"
poll_interval = "100ms"
timeout_polls = 6
max_retries = 0
history_limit = 10
admin_addr = "127.0.0.1:9999"
admin_token = "s3cret"
cors_origins = ["http://a", " ", "http://b"]
host_version = "2024.1"
register_on_start = false
registration_file = "/tmp/host.toml"
`)
	cfg, err := loadClientConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.ControlFile != "/tmp/ctl.txt" || cfg.Paths.ResponseFile != "/tmp/status.txt" || cfg.Paths.SystemDir != "/opt/host" {
		t.Fatalf("unexpected paths: %+v", cfg.Paths)
	}
	w := cfg.Session.Watch
	if w.PollInterval != 100*time.Millisecond || w.TimeoutPolls != 6 || w.MaxRetries != 0 {
		t.Fatalf("unexpected watch config: %+v", w)
	}
	if cfg.Session.HistoryLimit != 10 || cfg.AdminAddr != "127.0.0.1:9999" || cfg.AdminToken != "s3cret" {
		t.Fatalf("unexpected session/admin config: %+v", cfg)
	}
	if strings.Join(cfg.CorsOrigins, ",") != "http://a,http://b" {
		t.Fatalf("unexpected cors origins: %v", cfg.CorsOrigins)
	}
	if cfg.HostVersion != "2024.1" || cfg.RegisterOnStart || cfg.RegistrationFile != "/tmp/host.toml" {
		t.Fatalf("unexpected host settings: %+v", cfg)
	}
}

func TestLoadClientConfigPollIntervalMS(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadClientConfig(writeConfig(t, "poll_interval = \"1s\"\npoll_interval_ms = 50\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.Watch.PollInterval != 50*time.Millisecond {
		t.Fatalf("poll_interval_ms should win, got %v", cfg.Session.Watch.PollInterval)
	}
}

func TestLoadClientConfigErrors(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"bad_duration":  `poll_interval = "soon"`,
		"zero_polls":    `timeout_polls = 0`,
		"neg_retries":   `max_retries = -1`,
		"zero_history":  `history_limit = 0`,
		"unknown_key":   `poll_everything = true`,
		"malformed":     `control_file = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := loadClientConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestClientTemplateLoads(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "remotectl.toml")
	if err := config.WriteTemplate(path, "client", false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	cfg, err := loadClientConfig(path)
	if err != nil {
		t.Fatalf("template must load: %v", err)
	}
	if cfg.Session.Watch != watch.DefaultConfig() {
		t.Fatalf("template should carry default timing: %+v", cfg.Session.Watch)
	}
	if cfg.Paths.ProfileDir != `C:\VibrationVIEW\Profiles\` {
		t.Fatalf("unexpected profile dir: %q", cfg.Paths.ProfileDir)
	}
}
