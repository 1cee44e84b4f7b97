// Package bus is the unix-socket control surface the host UI (or the
// CLI) uses to drive the daemon: single-byte verbs with an optional
// payload, one reply line per command, and a streaming watch feed.
package bus

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const SockName = "control.sock"
const PidName = "enpeak-voice.pid"
const ProtoVer = "0.1"

const appDirName = "enpeak-voice"

// ~/.cache/enpeak-voice/control.sock
func SockPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, SockName), nil
}

// ~/.cache/enpeak-voice/enpeak-voice.pid
func PidPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, PidName), nil
}

func Listen() (net.Listener, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(sp) // stale socket from last run
	return net.Listen("unix", sp)
}

func Dial() (net.Conn, error) {
	sp, err := SockPath()
	if err != nil {
		return nil, err
	}
	return net.Dial("unix", sp)
}

// SendCommand sends a single verb and returns the one reply line.
func SendCommand(cmd byte) (string, error) {
	return SendCommandWithPayload(cmd, "")
}

// SendCommandWithPayload sends a verb with a payload on the same line
// (e.g. the edited transcript for 'e').
func SendCommandWithPayload(cmd byte, payload string) (string, error) {
	c, err := Dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	line := string(cmd)
	if payload != "" {
		line += " " + payload
	}
	if _, err := fmt.Fprintf(c, "%s\n", line); err != nil {
		return "", err
	}

	resp, err := bufio.NewReader(c).ReadString('\n')
	return resp, err
}

// Watch sends the watch verb and invokes handle for every event line
// until the daemon closes the connection or handle returns false.
func Watch(handle func(line string) bool) error {
	c, err := Dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if _, err := c.Write([]byte{'w', '\n'}); err != nil {
		return err
	}

	scanner := bufio.NewScanner(c)
	for scanner.Scan() {
		if !handle(strings.TrimRight(scanner.Text(), "\n")) {
			return nil
		}
	}
	return scanner.Err()
}

func CheckExistingDaemon() error {
	pidPath, err := PidPath()
	if err != nil {
		return err
	}

	pidData, err := os.ReadFile(pidPath)
	if os.IsNotExist(err) {
		return nil // no existing daemon
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(string(pidData))
	if err != nil {
		return nil // invalid pid file, assume stale
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	// signal 0 probes liveness without delivering anything
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return nil // process not alive, stale pid file
	}

	return fmt.Errorf("daemon already running with PID %d", pid)
}

func CreatePidFile() error {
	pidPath, err := PidPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func RemovePidFile() error {
	pidPath, err := PidPath()
	if err != nil {
		return err
	}
	return os.Remove(pidPath)
}
