package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/buelmanager/enpeak-voice/internal/recording"
)

// fakeStream implements MicStream without touching audio hardware.
type fakeStream struct {
	mu       sync.Mutex
	taps     map[string]chan recording.AudioFrame
	errCh    chan error
	released bool
	startErr error
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		taps:  make(map[string]chan recording.AudioFrame),
		errCh: make(chan error, 1),
	}
}

func (f *fakeStream) Tap(name string) <-chan recording.AudioFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan recording.AudioFrame, 20)
	f.taps[name] = ch
	return ch
}

func (f *fakeStream) Start(ctx context.Context) (<-chan error, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.errCh, nil
}

func (f *fakeStream) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.released {
		return
	}
	f.released = true
	for _, ch := range f.taps {
		close(ch)
	}
}

func (f *fakeStream) IsRecording() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.released
}

func (f *fakeStream) isReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// fakeAdapter implements StreamingAdapter fed by the test.
type fakeAdapter struct {
	mu        sync.Mutex
	resultsCh chan Result
	closed    bool
	startErr  error
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{resultsCh: make(chan Result, 20)}
}

func (f *fakeAdapter) Start(ctx context.Context, language string) error { return f.startErr }
func (f *fakeAdapter) SendChunk(audio []byte) error                     { return nil }
func (f *fakeAdapter) Results() <-chan Result                           { return f.resultsCh }

func (f *fakeAdapter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.resultsCh)
	}
	return nil
}

func (f *fakeAdapter) emit(r Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.resultsCh <- r
	}
}

// collector records handler invocations.
type collector struct {
	mu       sync.Mutex
	interims []string
	finals   []TranscriptResult
	blobs    [][]byte
	errs     []*Error
}

func (c *collector) handlers() Handlers {
	return Handlers{
		Interim: func(text string) {
			c.mu.Lock()
			c.interims = append(c.interims, text)
			c.mu.Unlock()
		},
		Final: func(res TranscriptResult, audio []byte) {
			c.mu.Lock()
			c.finals = append(c.finals, res)
			c.blobs = append(c.blobs, audio)
			c.mu.Unlock()
		},
		Error: func(err *Error) {
			c.mu.Lock()
			c.errs = append(c.errs, err)
			c.mu.Unlock()
		},
	}
}

func (c *collector) finalCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.finals)
}

func (c *collector) errCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errs)
}

func testEngineConfig() Config {
	cfg := DefaultConfig()
	cfg.SilenceTimeout = 60 * time.Millisecond
	cfg.RetryDelay = 5 * time.Millisecond
	cfg.SideRecording = false
	return cfg
}

type adapterFarm struct {
	mu       sync.Mutex
	adapters []*fakeAdapter
}

func (fm *adapterFarm) factory() AdapterFactory {
	return func() (StreamingAdapter, error) {
		fm.mu.Lock()
		defer fm.mu.Unlock()
		a := newFakeAdapter()
		fm.adapters = append(fm.adapters, a)
		return a, nil
	}
}

func (fm *adapterFarm) count() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return len(fm.adapters)
}

func (fm *adapterFarm) last() *fakeAdapter {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	if len(fm.adapters) == 0 {
		return nil
	}
	return fm.adapters[len(fm.adapters)-1]
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

func startTestEngine(t *testing.T, cfg Config) (*Engine, *adapterFarm, *fakeStream, *collector) {
	t.Helper()
	farm := &adapterFarm{}
	stream := newFakeStream()
	col := &collector{}
	eng := NewEngine(cfg, col.handlers(), farm.factory(), func(recording.Config) MicStream { return stream })
	if err := eng.Start(t.Context()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return eng, farm, stream, col
}

func TestSilenceFinalizesAccumulatedText(t *testing.T) {
	eng, farm, stream, col := startTestEngine(t, testEngineConfig())
	defer eng.Abort()

	farm.last().emit(Result{Text: "hello", Confidence: 0.92, IsFinal: true})

	waitFor(t, func() bool { return col.finalCount() == 1 }, time.Second, "final transcript")

	col.mu.Lock()
	res := col.finals[0]
	col.mu.Unlock()

	if res.Text != "hello" {
		t.Errorf("final text = %q, want %q", res.Text, "hello")
	}
	if res.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", res.Confidence)
	}
	if !stream.isReleased() {
		t.Error("microphone stream should be released after finalization")
	}
	if eng.Active() {
		t.Error("engine should be inactive after finalization")
	}
	// exactly one final, even if more silence elapses
	time.Sleep(150 * time.Millisecond)
	if got := col.finalCount(); got != 1 {
		t.Errorf("final count = %d, want 1", got)
	}
}

func TestSilenceTimerResetsOnSpeech(t *testing.T) {
	eng, farm, _, col := startTestEngine(t, testEngineConfig())
	defer eng.Abort()

	// keep talking faster than the silence timeout
	for i := 0; i < 5; i++ {
		farm.last().emit(Result{Text: "still talking", IsFinal: false})
		time.Sleep(20 * time.Millisecond)
	}
	if got := col.finalCount(); got != 0 {
		t.Fatalf("final fired while speech was ongoing (count=%d)", got)
	}

	// now go quiet
	waitFor(t, func() bool { return col.finalCount() == 1 }, time.Second, "final after silence")
}

func TestInterimResultsAreFullReplacements(t *testing.T) {
	eng, farm, _, col := startTestEngine(t, testEngineConfig())
	defer eng.Abort()

	farm.last().emit(Result{Text: "I", IsFinal: false})
	farm.last().emit(Result{Text: "I would", IsFinal: false})
	farm.last().emit(Result{Text: "I would like", IsFinal: false})

	waitFor(t, func() bool {
		col.mu.Lock()
		defer col.mu.Unlock()
		return len(col.interims) >= 3
	}, time.Second, "interim results")

	col.mu.Lock()
	last := col.interims[len(col.interims)-1]
	col.mu.Unlock()
	if last != "I would like" {
		t.Errorf("last interim = %q, want full replacement %q", last, "I would like")
	}
}

func TestConfidenceSentinelWhenUnreported(t *testing.T) {
	eng, farm, _, col := startTestEngine(t, testEngineConfig())
	defer eng.Abort()

	farm.last().emit(Result{Text: "ok", Confidence: 0, IsFinal: true})
	waitFor(t, func() bool { return col.finalCount() == 1 }, time.Second, "final transcript")

	col.mu.Lock()
	res := col.finals[0]
	col.mu.Unlock()
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want sentinel 0", res.Confidence)
	}
}

func TestConfidenceIsMinAcrossSegments(t *testing.T) {
	eng, farm, _, col := startTestEngine(t, testEngineConfig())
	defer eng.Abort()

	farm.last().emit(Result{Text: "first part", Confidence: 0.9, IsFinal: true})
	farm.last().emit(Result{Text: "second part", Confidence: 0.6, IsFinal: true})
	waitFor(t, func() bool { return col.finalCount() == 1 }, time.Second, "final transcript")

	col.mu.Lock()
	res := col.finals[0]
	col.mu.Unlock()
	if res.Text != "first part second part" {
		t.Errorf("text = %q", res.Text)
	}
	if res.Confidence != 0.6 {
		t.Errorf("confidence = %v, want min 0.6", res.Confidence)
	}
}

func TestStopFlushesAccumulatedTranscript(t *testing.T) {
	cfg := testEngineConfig()
	cfg.SilenceTimeout = time.Minute // silence never fires in this test
	eng, farm, _, col := startTestEngine(t, cfg)

	farm.last().emit(Result{Text: "manual finish", Confidence: 0.8, IsFinal: true})
	waitFor(t, func() bool {
		col.mu.Lock()
		defer col.mu.Unlock()
		return len(col.interims) > 0
	}, time.Second, "interim observed")

	eng.Stop()
	waitFor(t, func() bool { return col.finalCount() == 1 }, time.Second, "final after Stop")

	col.mu.Lock()
	res := col.finals[0]
	col.mu.Unlock()
	if res.Text != "manual finish" {
		t.Errorf("final text = %q, want %q", res.Text, "manual finish")
	}
}

func TestAbortDiscardsTranscript(t *testing.T) {
	eng, farm, stream, col := startTestEngine(t, testEngineConfig())

	farm.last().emit(Result{Text: "should be discarded", Confidence: 0.95, IsFinal: true})
	eng.Abort()
	eng.Abort() // idempotent

	time.Sleep(150 * time.Millisecond)
	if got := col.finalCount(); got != 0 {
		t.Errorf("final fired after Abort (count=%d)", got)
	}
	if !stream.isReleased() {
		t.Error("microphone stream should be released after Abort")
	}
	if eng.Active() {
		t.Error("engine should be inactive after Abort")
	}
}

func TestNoSpeechRetriesThenSurfaces(t *testing.T) {
	cfg := testEngineConfig()
	cfg.NoSpeechRetries = 2
	eng, farm, _, col := startTestEngine(t, cfg)
	defer eng.Abort()

	// never emit anything: silence elapses repeatedly
	waitFor(t, func() bool { return col.errCount() == 1 }, 2*time.Second, "no-speech error")

	col.mu.Lock()
	kind := col.errs[0].Kind
	col.mu.Unlock()
	if kind != KindNoSpeech {
		t.Errorf("error kind = %s, want %s", kind, KindNoSpeech)
	}
	// initial adapter + 2 restarts
	if got := farm.count(); got != 3 {
		t.Errorf("adapter creations = %d, want 3", got)
	}
	if eng.Active() {
		t.Error("engine should be inactive after surfacing no-speech")
	}
}

func TestUnexpectedAdapterEndWithTextFinalizes(t *testing.T) {
	cfg := testEngineConfig()
	cfg.SilenceTimeout = time.Minute
	eng, farm, _, col := startTestEngine(t, cfg)
	defer eng.Abort()

	a := farm.last()
	a.emit(Result{Text: "cut off", Confidence: 0.7, IsFinal: true})
	waitFor(t, func() bool {
		col.mu.Lock()
		defer col.mu.Unlock()
		return len(col.interims) > 0
	}, time.Second, "interim observed")

	a.Close() // engine-initiated end, not manual stop

	waitFor(t, func() bool { return col.finalCount() == 1 }, time.Second, "final after adapter end")
	col.mu.Lock()
	res := col.finals[0]
	col.mu.Unlock()
	if res.Text != "cut off" {
		t.Errorf("final text = %q, want %q", res.Text, "cut off")
	}
}

func TestUnexpectedAdapterEndWithoutTextRestarts(t *testing.T) {
	cfg := testEngineConfig()
	cfg.SilenceTimeout = time.Minute
	eng, farm, _, col := startTestEngine(t, cfg)
	defer eng.Abort()

	farm.last().Close() // ended before any speech

	waitFor(t, func() bool { return farm.count() == 2 }, time.Second, "silent recognizer restart")
	if got := col.errCount(); got != 0 {
		t.Errorf("restart should not surface an error (count=%d)", got)
	}
	if !eng.Active() {
		t.Error("engine should still be active after benign restart")
	}
}

func TestStartWhileActiveFails(t *testing.T) {
	eng, _, _, _ := startTestEngine(t, testEngineConfig())
	defer eng.Abort()

	if err := eng.Start(t.Context()); err == nil {
		t.Error("second Start should fail while a session is active")
	}
}

func TestMicPermissionErrorKind(t *testing.T) {
	cfg := testEngineConfig()
	farm := &adapterFarm{}
	stream := newFakeStream()
	stream.startErr = errors.New("access denied by device policy")
	col := &collector{}
	eng := NewEngine(cfg, col.handlers(), farm.factory(), func(recording.Config) MicStream { return stream })

	err := eng.Start(t.Context())
	if err == nil {
		t.Fatal("Start should fail when the microphone is blocked")
	}
	if KindOf(err) != KindNotAllowed {
		t.Errorf("error kind = %s, want %s", KindOf(err), KindNotAllowed)
	}
	if eng.Active() {
		t.Error("engine should not be active after a failed Start")
	}
}

func TestSideRecorderBlobReachesFinal(t *testing.T) {
	cfg := testEngineConfig()
	cfg.SideRecording = true
	eng, farm, stream, col := startTestEngine(t, cfg)
	defer eng.Abort()

	stream.mu.Lock()
	sideCh := stream.taps["siderecorder"]
	stream.mu.Unlock()
	sideCh <- recording.AudioFrame{Data: []byte{1, 2, 3, 4}, Timestamp: time.Now()}

	farm.last().emit(Result{Text: "with audio", Confidence: 0.9, IsFinal: true})
	waitFor(t, func() bool { return col.finalCount() == 1 }, time.Second, "final transcript")

	col.mu.Lock()
	blob := col.blobs[0]
	col.mu.Unlock()
	if len(blob) == 0 {
		t.Fatal("expected a WAV blob alongside the final transcript")
	}
	if string(blob[:4]) != "RIFF" {
		t.Errorf("blob header = %q, want RIFF", blob[:4])
	}
}
