// Package notify surfaces lifecycle and error messages outside the
// audio path, so a failed playback or a blocked microphone is still
// visible to the user.
package notify

import (
	"log"
	"os/exec"
)

const appName = "Enpeak Voice"

type Notifier interface {
	// Announce shows a user-facing message (spoken-reply fallback,
	// lifecycle updates).
	Announce(message string)
	// Error shows a user-facing error with urgency.
	Error(message string)
}

// New picks a notifier by the configured type.
func New(kind string) Notifier {
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

// Desktop sends messages through notify-send.
type Desktop struct{}

func (Desktop) Announce(message string) {
	cmd := exec.Command("notify-send", "-a", appName, appName, message)
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

func (Desktop) Error(message string) {
	cmd := exec.Command("notify-send", "-a", appName, "-u", "critical", appName, message)
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send error notification: %v", err)
	}
}

// Log writes messages to the daemon log only.
type Log struct{}

func (Log) Announce(message string) {
	log.Printf("notify: %s", message)
}

func (Log) Error(message string) {
	log.Printf("notify: error: %s", message)
}

// Nop does absolutely nothing. Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) Announce(message string) {}
func (Nop) Error(message string)    {}
