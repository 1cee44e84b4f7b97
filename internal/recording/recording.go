package recording

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type AudioFrame struct {
	Data      []byte
	Timestamp time.Time
}

type Config struct {
	SampleRate        int
	Channels          int
	Format            string
	BufferSize        int
	Device            string
	ChannelBufferSize int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Channels:          1,
		Format:            "s16le",
		BufferSize:        4096,
		Device:            "",
		ChannelBufferSize: 20,
	}
}

// Stream owns a single microphone capture process and fans every frame out
// to all registered taps. The recognizer and the raw-audio side recorder
// each hold a tap on the same hardware stream.
//
// Release stops the process and closes all taps; calling it again is a no-op.
type Stream struct {
	config    Config
	recording atomic.Bool
	released  atomic.Bool

	mu     sync.Mutex // guards cmd, cancel and taps
	cmd    *exec.Cmd
	cancel context.CancelFunc
	taps   []tap

	wg sync.WaitGroup
}

type tap struct {
	name string
	ch   chan AudioFrame
}

func NewStream(config Config) *Stream {
	return &Stream{config: config}
}

func NewDefaultStream() *Stream { return NewStream(DefaultConfig()) }

func (s *Stream) IsRecording() bool {
	return s.recording.Load()
}

// Tap registers a consumer. Every tap receives every frame; slow consumers
// drop frames rather than stalling the capture loop.
func (s *Stream) Tap(name string) <-chan AudioFrame {
	ch := make(chan AudioFrame, s.config.ChannelBufferSize)
	s.mu.Lock()
	s.taps = append(s.taps, tap{name: name, ch: ch})
	s.mu.Unlock()
	return ch
}

func (s *Stream) Start(ctx context.Context) (<-chan error, error) {
	if s.recording.Load() {
		return nil, fmt.Errorf("already recording")
	}
	if s.released.Load() {
		return nil, fmt.Errorf("stream already released")
	}

	if err := s.validateConfig(); err != nil {
		return nil, err
	}

	if err := CheckPipeWireAvailable(ctx); err != nil {
		return nil, fmt.Errorf("PipeWire not available: %w", err)
	}

	captureCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.recording.Store(true)
	s.wg.Add(1)
	go s.captureLoop(captureCtx, errCh)

	return errCh, nil
}

// Release stops capture and closes all taps exactly once.
func (s *Stream) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	for _, t := range s.taps {
		close(t.ch)
	}
	s.taps = nil
	s.mu.Unlock()
}

func (s *Stream) captureLoop(ctx context.Context, errCh chan<- error) {
	defer func() {
		close(errCh)
		s.recording.Store(false)

		// Reap any child process.
		s.mu.Lock()
		if s.cmd != nil {
			_ = s.cmd.Wait()
			s.cmd = nil
		}
		s.mu.Unlock()

		s.wg.Done()
	}()

	args := s.buildPwRecordArgs()
	cmd := exec.CommandContext(ctx, "pw-record", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.emitErr(errCh, fmt.Errorf("create stdout pipe: %w", err))
		return
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.emitErr(errCh, fmt.Errorf("create stderr pipe: %w", err))
		return
	}

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	if err := cmd.Start(); err != nil {
		s.emitErr(errCh, fmt.Errorf("start pw-record: %w", err))
		return
	}

	// Log stderr lines to aid diagnostics.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Printf("recording: stderr: %s", scanner.Text())
		}
	}()

	buffer := make([]byte, s.config.BufferSize)
	var droppedCount int
	lastDropLog := time.Now()

	for {
		n, readErr := stdout.Read(buffer)
		if n > 0 {
			frameData := make([]byte, n)
			copy(frameData, buffer[:n])
			frame := AudioFrame{Data: frameData, Timestamp: time.Now()}

			s.mu.Lock()
			taps := s.taps
			s.mu.Unlock()

			for _, t := range taps {
				select {
				case t.ch <- frame:
				default:
					droppedCount++
					if time.Since(lastDropLog) > time.Second {
						log.Printf("recording: tap %q dropped %d frames due to backpressure", t.name, droppedCount)
						lastDropLog = time.Now()
						droppedCount = 0
					}
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.emitErr(errCh, fmt.Errorf("read audio: %w", readErr))
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (s *Stream) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
		// Best-effort; avoid blocking
	}
	log.Printf("recording: error: %v", err)
}

func (s *Stream) buildPwRecordArgs() []string {
	args := []string{
		"--format", s.config.Format,
		"--rate", strconv.Itoa(s.config.SampleRate),
		"--channels", strconv.Itoa(s.config.Channels),
		"-", // stdout
	}
	if s.config.Device != "" {
		args = append(args, "--target", s.config.Device)
	}
	return args
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}

func (s *Stream) validateConfig() error {
	if s.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", s.config.SampleRate)
	}
	if s.config.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", s.config.Channels)
	}
	if s.config.BufferSize <= 0 {
		return fmt.Errorf("invalid BufferSize: %d", s.config.BufferSize)
	}
	if s.config.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid ChannelBufferSize: %d", s.config.ChannelBufferSize)
	}
	if s.config.Format == "" {
		return fmt.Errorf("invalid Format: empty")
	}
	return nil
}
