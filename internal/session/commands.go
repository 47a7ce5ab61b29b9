package session

import (
	"fmt"
	"strings"
)

// Commands the host recognises. The controller treats every payload as opaque.
const (
	CommandRun    = "run"
	CommandStop   = "stop"
	CommandStatus = "status"
	commandLoad   = "load"
)

// LoadCommand builds the payload that asks the host to load a profile.
func LoadCommand(profilePath string) (string, error) {
	path := strings.TrimSpace(profilePath)
	if path == "" {
		return "", fmt.Errorf("%w: load requires a profile path", ErrEmptyCommand)
	}
	return commandLoad + " " + path, nil
}

func (c *Controller) Run() (string, error)         { return c.SendCommand(CommandRun) }
func (c *Controller) Stop() (string, error)        { return c.SendCommand(CommandStop) }
func (c *Controller) QueryStatus() (string, error) { return c.SendCommand(CommandStatus) }

func (c *Controller) Load(profilePath string) (string, error) {
	cmd, err := LoadCommand(profilePath)
	if err != nil {
		return "", err
	}
	return c.SendCommand(cmd)
}
