package channel

import (
	"fmt"
	"os"
	"strings"
)

const controlFilePerm = 0o644

// ControlChannel is the control file the host watches for commands.
type ControlChannel struct {
	path string
}

func NewControlChannel(path string) (*ControlChannel, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: control file", ErrPathRequired)
	}
	return &ControlChannel{path: path}, nil
}

func (c *ControlChannel) Path() string {
	return c.path
}

// Send replaces the control file contents with payload, byte for byte.
func (c *ControlChannel) Send(payload string) error {
	if err := os.WriteFile(c.path, []byte(payload), controlFilePerm); err != nil {
		return fmt.Errorf("%w: path=%s: %w", ErrChannelWrite, c.path, err)
	}
	return nil
}

// Contents reads back the last written command.
func (c *ControlChannel) Contents() (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
