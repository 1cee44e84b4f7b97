package notify

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"
)

func TestNewPicksByType(t *testing.T) {
	if _, ok := New("desktop").(Desktop); !ok {
		t.Error("desktop should yield Desktop")
	}
	if _, ok := New("log").(Log); !ok {
		t.Error("log should yield Log")
	}
	if _, ok := New("none").(Nop); !ok {
		t.Error("none should yield Nop")
	}
	if _, ok := New("").(Nop); !ok {
		t.Error("unknown type should yield Nop")
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	n := Log{}

	buf.Reset()
	n.Announce("reply text here")
	if !strings.Contains(buf.String(), "reply text here") {
		t.Errorf("announce output = %q", buf.String())
	}

	buf.Reset()
	n.Error("mic blocked")
	out := buf.String()
	if !strings.Contains(out, "error") || !strings.Contains(out, "mic blocked") {
		t.Errorf("error output = %q", out)
	}
}

func TestNopNotifier(t *testing.T) {
	n := Nop{}
	n.Announce("ignored")
	n.Error("ignored")
}

func TestNotifierInterface(t *testing.T) {
	for _, n := range []Notifier{Desktop{}, Log{}, Nop{}} {
		if n == nil {
			t.Fatal("nil notifier")
		}
	}
}
