package recording

import (
	"testing"
	"time"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"negative channels", func(c *Config) { c.Channels = -1 }, true},
		{"zero buffer size", func(c *Config) { c.BufferSize = 0 }, true},
		{"zero channel buffer", func(c *Config) { c.ChannelBufferSize = 0 }, true},
		{"empty format", func(c *Config) { c.Format = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			s := NewStream(cfg)
			err := s.validateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildPwRecordArgs(t *testing.T) {
	t.Run("default device", func(t *testing.T) {
		s := NewDefaultStream()
		args := s.buildPwRecordArgs()
		want := []string{"--format", "s16le", "--rate", "16000", "--channels", "1", "-"}
		if len(args) != len(want) {
			t.Fatalf("args = %v, want %v", args, want)
		}
		for i := range want {
			if args[i] != want[i] {
				t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
			}
		}
	})

	t.Run("explicit device", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Device = "alsa_input.usb"
		s := NewStream(cfg)
		args := s.buildPwRecordArgs()
		if args[len(args)-2] != "--target" || args[len(args)-1] != "alsa_input.usb" {
			t.Errorf("expected --target device suffix, got %v", args)
		}
	})
}

func TestTapFanOut(t *testing.T) {
	s := NewDefaultStream()
	a := s.Tap("recognizer")
	b := s.Tap("siderec")

	frame := AudioFrame{Data: []byte{1, 2, 3}, Timestamp: time.Now()}
	s.mu.Lock()
	taps := s.taps
	s.mu.Unlock()
	for _, tp := range taps {
		tp.ch <- frame
	}

	for name, ch := range map[string]<-chan AudioFrame{"recognizer": a, "siderec": b} {
		select {
		case got := <-ch:
			if len(got.Data) != 3 {
				t.Errorf("tap %s: frame size = %d, want 3", name, len(got.Data))
			}
		case <-time.After(time.Second):
			t.Fatalf("tap %s: no frame received", name)
		}
	}
}

func TestReleaseIdempotent(t *testing.T) {
	s := NewDefaultStream()
	ch := s.Tap("recognizer")

	s.Release()
	s.Release() // must not panic or double-close

	if _, ok := <-ch; ok {
		t.Error("tap channel should be closed after Release")
	}
	if s.IsRecording() {
		t.Error("stream should not be recording after Release")
	}
}

func TestStartAfterReleaseFails(t *testing.T) {
	s := NewDefaultStream()
	s.Release()
	if _, err := s.Start(t.Context()); err == nil {
		t.Error("Start after Release should fail")
	}
}
