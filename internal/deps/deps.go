// Package deps checks the runtime tools the daemon shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Status represents the installation status of a dependency
type Status struct {
	Installed bool
	Path      string
	Version   string
}

// CheckPwRecord checks for the PipeWire capture tool.
func CheckPwRecord() Status {
	return check("pw-record", "--version")
}

// CheckPwPlay checks for the PipeWire playback tool.
func CheckPwPlay() Status {
	return check("pw-play", "--version")
}

// CheckNotifySend checks for the desktop notification tool.
func CheckNotifySend() Status {
	return check("notify-send", "--version")
}

func check(name, versionFlag string) Status {
	path, err := exec.LookPath(name)
	if err != nil {
		return Status{Installed: false}
	}

	status := Status{
		Installed: true,
		Path:      path,
	}

	output, err := exec.Command(path, versionFlag).Output()
	if err == nil {
		lines := strings.Split(string(output), "\n")
		if len(lines) > 0 {
			status.Version = strings.TrimSpace(lines[0])
		}
	}
	return status
}

// Verify returns an error naming every required tool that is missing.
// notify-send is optional; its absence only degrades notifications.
func Verify() error {
	var missing []string
	if !CheckPwRecord().Installed {
		missing = append(missing, "pw-record")
	}
	if !CheckPwPlay().Installed {
		missing = append(missing, "pw-play")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s (install pipewire-utils)", strings.Join(missing, ", "))
	}
	return nil
}
