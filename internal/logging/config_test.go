package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":       zerolog.DebugLevel,
		" WARN ":      zerolog.WarnLevel,
		"diagnostics": zerolog.TraceLevel,
		"off":         zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q) got=%v ok=%v want=%v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
	if _, ok := parseLevel(""); ok {
		t.Fatalf("expected empty level to be rejected")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")
	t.Setenv(EnvLogBypass, "not-a-bool")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("unexpected level: %v", cfg.Level)
	}
	if cfg.Timestamp {
		t.Fatalf("expected timestamp disabled")
	}
	if !cfg.NoColor {
		t.Fatalf("expected no color")
	}
	if cfg.Bypass {
		t.Fatalf("invalid bool should not enable bypass")
	}
}

func TestApplyWritesAtConfiguredLevel(t *testing.T) {
	prev := Logger()
	defer setLogger(prev)

	var buf bytes.Buffer
	Apply(Config{Level: zerolog.WarnLevel, NoColor: true, Out: &buf})
	Infof("hidden value=%d", 1)
	Warnf("watch.Machine.tick resend attempt=%d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "resend attempt=2") {
		t.Fatalf("missing warn line: %q", out)
	}
}

func TestApplyBypassDiscards(t *testing.T) {
	prev := Logger()
	defer setLogger(prev)

	var buf bytes.Buffer
	Apply(Config{Level: zerolog.DebugLevel, Bypass: true, Out: &buf})
	Errf("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected bypass to discard output, got %q", buf.String())
	}
}
