package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/remotectl/internal/hostpaths"
	"github.com/danmuck/remotectl/internal/server"
	"github.com/danmuck/remotectl/internal/session"
)

const defaultConfigFile = "remotectl.toml"

type fileConfig struct {
	ControlFile      string   `toml:"control_file"`
	ResponseFile     string   `toml:"response_file"`
	SystemDir        string   `toml:"system_dir"`
	ProfileDir       string   `toml:"profile_dir"`
	DataDir          string   `toml:"data_dir"`
	PollInterval     string   `toml:"poll_interval"`
	PollIntervalMS   int64    `toml:"poll_interval_ms"`
	TimeoutPolls     int      `toml:"timeout_polls"`
	MaxRetries       int      `toml:"max_retries"`
	HistoryLimit     int      `toml:"history_limit"`
	AdminAddr        string   `toml:"admin_addr"`
	AdminToken       string   `toml:"admin_token"`
	CorsOrigins      []string `toml:"cors_origins"`
	HostVersion      string   `toml:"host_version"`
	RegisterOnStart  bool     `toml:"register_on_start"`
	RegistrationFile string   `toml:"registration_file"`
}

// clientConfig is the resolved client setup. Paths holds explicit overrides only.
type clientConfig struct {
	Paths            hostpaths.Paths
	Session          session.Config
	AdminAddr        string
	AdminToken       string
	CorsOrigins      []string
	HostVersion      string
	RegisterOnStart  bool
	RegistrationFile string
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		Session:         session.DefaultConfig(),
		AdminAddr:       server.DefaultAddr,
		HostVersion:     hostpaths.DefaultVersion,
		RegisterOnStart: true,
	}
}

// loadClientConfig decodes path over the defaults. An empty path loads remotectl.toml when present.
func loadClientConfig(path string) (clientConfig, error) {
	cfg := defaultClientConfig()
	if strings.TrimSpace(path) == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return cfg, nil
		}
		path = defaultConfigFile
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return clientConfig{}, fmt.Errorf("load remotectl config: %w", err)
	}

	if meta.IsDefined("control_file") {
		cfg.Paths.ControlFile = strings.TrimSpace(raw.ControlFile)
	}
	if meta.IsDefined("response_file") {
		cfg.Paths.ResponseFile = strings.TrimSpace(raw.ResponseFile)
	}
	if meta.IsDefined("system_dir") {
		cfg.Paths.SystemDir = strings.TrimSpace(raw.SystemDir)
	}
	if meta.IsDefined("profile_dir") {
		cfg.Paths.ProfileDir = strings.TrimSpace(raw.ProfileDir)
	}
	if meta.IsDefined("data_dir") {
		cfg.Paths.DataDir = strings.TrimSpace(raw.DataDir)
	}

	if meta.IsDefined("poll_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.PollInterval))
		if err != nil {
			return clientConfig{}, fmt.Errorf("parse poll_interval: %w", err)
		}
		cfg.Session.Watch.PollInterval = d
	}
	if meta.IsDefined("poll_interval_ms") {
		cfg.Session.Watch.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if meta.IsDefined("timeout_polls") {
		cfg.Session.Watch.TimeoutPolls = raw.TimeoutPolls
	}
	if meta.IsDefined("max_retries") {
		cfg.Session.Watch.MaxRetries = raw.MaxRetries
	}
	if meta.IsDefined("history_limit") {
		if raw.HistoryLimit <= 0 {
			return clientConfig{}, fmt.Errorf("history_limit must be positive: %d", raw.HistoryLimit)
		}
		cfg.Session.HistoryLimit = raw.HistoryLimit
	}

	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = strings.TrimSpace(raw.AdminToken)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if meta.IsDefined("host_version") {
		if v := strings.TrimSpace(raw.HostVersion); v != "" {
			cfg.HostVersion = v
		}
	}
	if meta.IsDefined("register_on_start") {
		cfg.RegisterOnStart = raw.RegisterOnStart
	}
	if meta.IsDefined("registration_file") {
		cfg.RegistrationFile = strings.TrimSpace(raw.RegistrationFile)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return clientConfig{}, fmt.Errorf("unknown config key: %s", undecoded[0])
	}
	if err := cfg.Session.Watch.Validate(); err != nil {
		return clientConfig{}, err
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
