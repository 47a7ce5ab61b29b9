package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const HostRecordFile = "host.toml"

var (
	ErrRecordNotFound = errors.New("config: host record not found")
	ErrInvalidRecord  = errors.New("config: invalid host record")
)

// HostRecord tells a host where the client exchanges commands and status.
type HostRecord struct {
	ControlFile string    `toml:"control_file"`
	StatusFile  string    `toml:"status_file"`
	UpdatedAt   time.Time `toml:"updated_at"`
}

// Matches reports whether r already points at the given control and status files.
func (r HostRecord) Matches(controlFile, statusFile string) bool {
	return r.ControlFile == controlFile && r.StatusFile == statusFile
}

func LoadHostRecord(path string) (HostRecord, error) {
	var rec HostRecord
	if err := loadToml(path, &rec); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return HostRecord{}, fmt.Errorf("%w: %s", ErrRecordNotFound, path)
		}
		return HostRecord{}, err
	}
	if err := ValidateHostRecord(rec); err != nil {
		return HostRecord{}, err
	}
	return rec, nil
}

func SaveHostRecord(path string, rec HostRecord) error {
	if err := ValidateHostRecord(rec); err != nil {
		return err
	}
	data, err := toml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("config encode failed (%s): %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config write failed (%s): %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config write failed (%s): %w", path, err)
	}
	return nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateHostRecord(rec HostRecord) error {
	if strings.TrimSpace(rec.ControlFile) == "" {
		return fmt.Errorf("%w: control_file is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(rec.StatusFile) == "" {
		return fmt.Errorf("%w: status_file is required", ErrInvalidRecord)
	}
	return nil
}
