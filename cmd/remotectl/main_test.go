package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/remotectl/internal/protocol/watch"
	"github.com/danmuck/remotectl/internal/testutil/testlog"
)

type hostFiles struct {
	dir      string
	control  string
	response string
	record   string
	config   string
}

// newHostFiles lays out a fake host exchange with fast polling.
func newHostFiles(t *testing.T, timing string) hostFiles {
	t.Helper()
	dir := t.TempDir()
	h := hostFiles{
		dir:      dir,
		control:  filepath.Join(dir, "RemoteControl.txt"),
		response: filepath.Join(dir, "RemoteControl.Status"),
		record:   filepath.Join(dir, "host.toml"),
		config:   filepath.Join(dir, "remotectl.toml"),
	}
	if err := os.WriteFile(h.response, []byte("Idle"), 0o644); err != nil {
		t.Fatalf("write response: %v", err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(h.response, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	body := fmt.Sprintf(
		"control_file = %q\nresponse_file = %q\nregistration_file = %q\nregister_on_start = false\n%s\n",
		h.control, h.response, h.record, timing,
	)
	if err := os.WriteFile(h.config, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return h
}

// answer waits for want in the control file, then writes reply as the host would.
func (h hostFiles) answer(t *testing.T, want, reply string) <-chan error {
	done := make(chan error, 1)
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			raw, err := os.ReadFile(h.control)
			if err == nil && string(raw) == want {
				// Rename so a poll never observes a half-written reply.
				tmp := h.response + ".tmp"
				if err := os.WriteFile(tmp, []byte(reply), 0o644); err != nil {
					done <- err
					return
				}
				done <- os.Rename(tmp, h.response)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		done <- fmt.Errorf("control never contained %q", want)
	}()
	return done
}

func TestRunRequiresCommand(t *testing.T) {
	testlog.Start(t)
	var out, errb bytes.Buffer
	if err := run(nil, &out, &errb); !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage, got %v", err)
	}
	if !strings.Contains(errb.String(), "Commands:") {
		t.Fatalf("usage not printed: %q", errb.String())
	}
	if err := run([]string{"dance"}, &out, &errb); !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage for unknown command, got %v", err)
	}
	if err := run([]string{"--help"}, &out, &errb); err != nil {
		t.Fatalf("help should succeed: %v", err)
	}
}

func TestRunCommandPrintsHostResponse(t *testing.T) {
	testlog.Start(t)
	h := newHostFiles(t, `poll_interval = "10ms"`)
	replied := h.answer(t, "run", "Test Running")

	var out, errb bytes.Buffer
	if err := run([]string{"--config", h.config, "run"}, &out, &errb); err != nil {
		t.Fatalf("run: %v stderr=%s", err, errb.String())
	}
	if err := <-replied; err != nil {
		t.Fatalf("host stub: %v", err)
	}
	if out.String() != "Test Running\n" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
	if !strings.Contains(errb.String(), "Sent command: run") {
		t.Fatalf("unexpected stderr: %q", errb.String())
	}
}

func TestSendJoinsPayload(t *testing.T) {
	testlog.Start(t)
	h := newHostFiles(t, `poll_interval = "10ms"`)
	replied := h.answer(t, "load C:\\p\\sine.vrp", "Loaded")

	var out, errb bytes.Buffer
	args := []string{"--config", h.config, "send", "load", `C:\p\sine.vrp`}
	if err := run(args, &out, &errb); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := <-replied; err != nil {
		t.Fatalf("host stub: %v", err)
	}
	if out.String() != "Loaded\n" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
}

func TestRunCommandNoHostResponse(t *testing.T) {
	testlog.Start(t)
	h := newHostFiles(t, "poll_interval_ms = 5\ntimeout_polls = 2\nmax_retries = 1")

	var out, errb bytes.Buffer
	err := run([]string{"--config", h.config, "status"}, &out, &errb)
	if !errors.Is(err, errHostFailure) || !strings.Contains(err.Error(), string(watch.OutcomeNoHostResponse)) {
		t.Fatalf("expected no host response failure, got %v", err)
	}
	if out.String() != watch.NoHostResponseText+"\n" {
		t.Fatalf("unexpected stdout: %q", out.String())
	}
}

func TestControlFlagOverridesConfig(t *testing.T) {
	testlog.Start(t)
	h := newHostFiles(t, `poll_interval = "10ms"`)
	other := filepath.Join(h.dir, "other-control.txt")

	var out, errb bytes.Buffer
	if err := run([]string{"--config", h.config, "--control", other, "paths"}, &out, &errb); err != nil {
		t.Fatalf("paths: %v", err)
	}
	if !strings.Contains(out.String(), fmt.Sprintf("%q", other)) {
		t.Fatalf("override not applied: %s", out.String())
	}
	if !strings.Contains(out.String(), `"response_file"`) {
		t.Fatalf("unexpected paths output: %s", out.String())
	}
}

func TestRegisterWritesHostRecord(t *testing.T) {
	testlog.Start(t)
	if runtime.GOOS == "windows" {
		t.Skip("registration goes to the registry on windows")
	}
	h := newHostFiles(t, "")

	var out, errb bytes.Buffer
	if err := run([]string{"--config", h.config, "register"}, &out, &errb); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Registration updated") {
		t.Fatalf("unexpected output: %q", out.String())
	}
	if _, err := os.Stat(h.record); err != nil {
		t.Fatalf("record not written: %v", err)
	}

	out.Reset()
	if err := run([]string{"--config", h.config, "register"}, &out, &errb); err != nil {
		t.Fatalf("register again: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Registration unchanged") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestInitWritesTemplate(t *testing.T) {
	testlog.Start(t)
	target := filepath.Join(t.TempDir(), "remotectl.toml")
	var out, errb bytes.Buffer
	if err := run([]string{"init", "--output", target}, &out, &errb); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := loadClientConfig(target); err != nil {
		t.Fatalf("generated config must load: %v", err)
	}
	if err := run([]string{"init", "--output", target}, &out, &errb); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
	if err := run([]string{"init", "--kind", "nope"}, &out, &errb); !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage for unknown kind, got %v", err)
	}
}

func TestConvertRequiresSystemDir(t *testing.T) {
	testlog.Start(t)
	h := newHostFiles(t, "")
	var out, errb bytes.Buffer
	err := run([]string{"--config", h.config, "convert", filepath.Join(h.dir, "x.vrd")}, &out, &errb)
	if err == nil || !strings.Contains(err.Error(), "system file path not set") {
		t.Fatalf("expected system dir error, got %v", err)
	}
	if err := run([]string{"--config", h.config, "convert"}, &out, &errb); !errors.Is(err, errUsage) {
		t.Fatalf("expected errUsage without file, got %v", err)
	}
}
