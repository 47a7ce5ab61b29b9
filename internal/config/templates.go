package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "client":
		return clientTemplate, nil
	case "host":
		return hostTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const clientTemplate = `# remotectl client configuration
control_file = ""
response_file = ""
system_dir = ""
profile_dir = 'C:\VibrationVIEW\Profiles\'
data_dir = 'C:\VibrationVIEW\Data\'
host_version = "2025.0"
register_on_start = true
registration_file = ""

poll_interval = "250ms"
timeout_polls = 12
max_retries = 3
history_limit = 200

admin_addr = "127.0.0.1:7480"
admin_token = ""
cors_origins = ["http://localhost:3000"]
`

const hostTemplate = `control_file = "RemoteControl.txt"
status_file = "RemoteControl.Status"
`
