package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "profile":
		return profileTemplate, nil
	case "cli", "imcctl":
		return cliTemplate, nil
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

const profileTemplate = `name = "lauv-fleet"
max_frame_size = 65535
types = []

[[systems]]
name = "lauv-xplore-1"
id = 0x2001

[[systems.entities]]
name = "Navigation"
id = 12

[[systems.entities]]
name = "Daemon"
id = 0

[[systems]]
name = "ccu-ops-1"
id = 0x4001
`

const cliTemplate = `log_level = "info"
max_frame_size = 65535
monitor_addr = ":9400"
cors_origins = ["http://localhost:3000"]
types = []
codec_profile = ""
`
