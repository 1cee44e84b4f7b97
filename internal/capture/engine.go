package capture

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/buelmanager/enpeak-voice/internal/recording"
	"github.com/google/uuid"
)

type Config struct {
	Recording       recording.Config
	Language        string
	SilenceTimeout  time.Duration // end-pointing: utterance is complete after this much silence
	NoSpeechRetries int           // bounded restarts when silence elapses with no text
	RetryDelay      time.Duration // delay before a no-speech restart
	SideRecording   bool          // record raw audio alongside recognition for fallback transcription
}

func DefaultConfig() Config {
	return Config{
		Recording:       recording.DefaultConfig(),
		Language:        "en",
		SilenceTimeout:  2 * time.Second,
		NoSpeechRetries: 2,
		RetryDelay:      300 * time.Millisecond,
		SideRecording:   true,
	}
}

// Handlers receive the engine's outputs. Interim is a full replacement of
// the utterance so far; Final fires at most once per session, with the raw
// audio blob when side recording is enabled.
type Handlers struct {
	Interim func(text string)
	Final   func(res TranscriptResult, audio []byte)
	Error   func(err *Error)
}

// MicStream is what the engine needs from the microphone stream owner.
type MicStream interface {
	Tap(name string) <-chan recording.AudioFrame
	Start(ctx context.Context) (<-chan error, error)
	Release()
	IsRecording() bool
}

type AdapterFactory func() (StreamingAdapter, error)
type StreamFactory func(recording.Config) MicStream

// Engine arms a capture session over a continuous streaming recognizer and
// finalizes the utterance once the speaker stays silent for SilenceTimeout.
// At most one session is active at a time.
type Engine struct {
	cfg        Config
	handlers   Handlers
	newAdapter AdapterFactory
	newStream  StreamFactory

	mu   sync.Mutex
	sess *session
}

func NewEngine(cfg Config, handlers Handlers, newAdapter AdapterFactory, newStream StreamFactory) *Engine {
	if newStream == nil {
		newStream = func(rc recording.Config) MicStream { return recording.NewStream(rc) }
	}
	return &Engine{
		cfg:        cfg,
		handlers:   handlers,
		newAdapter: newAdapter,
		newStream:  newStream,
	}
}

type session struct {
	id     string
	engine *Engine
	ctx    context.Context
	cancel context.CancelFunc

	stream MicStream
	side   *SideRecorder

	mu          sync.Mutex
	adapter     StreamingAdapter
	silence     *time.Timer
	silenceGen  int
	finals      []Result
	lastInterim string
	retries     int
	manualStop  bool

	resolveOnce sync.Once
	wg          sync.WaitGroup
}

// Active reports whether a capture session is currently armed.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil
}

// Start arms a new capture session: acquires the microphone stream, taps it
// for the recognizer (and the side recorder when enabled) and starts the
// streaming adapter.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.sess != nil {
		e.mu.Unlock()
		return fmt.Errorf("capture already active")
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &session{
		id:     uuid.NewString()[:8],
		engine: e,
		ctx:    sessCtx,
		cancel: cancel,
	}
	e.sess = sess
	e.mu.Unlock()

	if err := e.arm(sess); err != nil {
		cancel()
		e.clearSession(sess)
		return err
	}

	log.Printf("capture: session %s armed", sess.id)
	return nil
}

func (e *Engine) arm(sess *session) error {
	stream := e.newStream(e.cfg.Recording)
	sess.stream = stream

	recogCh := stream.Tap("recognizer")

	var sideCh <-chan recording.AudioFrame
	if e.cfg.SideRecording {
		sideCh = stream.Tap("siderecorder")
		sess.side = NewSideRecorder()
	}

	micErrCh, err := stream.Start(sess.ctx)
	if err != nil {
		return newError(classifyMicErr(err), err)
	}

	adapter, err := e.newAdapter()
	if err != nil {
		stream.Release()
		return newError(KindOther, err)
	}
	if err := adapter.Start(sess.ctx, e.cfg.Language); err != nil {
		stream.Release()
		if ce, ok := err.(*Error); ok {
			return ce
		}
		return newError(KindNetwork, err)
	}

	sess.mu.Lock()
	sess.adapter = adapter
	sess.mu.Unlock()

	if sess.side != nil {
		sess.wg.Add(1)
		go func() {
			defer sess.wg.Done()
			sess.side.Run(sideCh)
		}()
	}

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		e.sendAudio(sess, recogCh)
	}()

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		e.watchMicErrors(sess, micErrCh)
	}()

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		e.receiveResults(sess, adapter)
	}()

	e.resetSilence(sess)
	return nil
}

// Stop requests a graceful finish: whatever transcript has accumulated is
// flushed as the final utterance.
func (e *Engine) Stop() {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()
	if sess == nil {
		return
	}

	sess.mu.Lock()
	sess.manualStop = true
	sess.mu.Unlock()

	e.finalize(sess)
}

// Abort discards any accumulated transcript and ends the session
// immediately. Safe to call repeatedly and with no session active.
func (e *Engine) Abort() {
	e.mu.Lock()
	sess := e.sess
	e.mu.Unlock()
	if sess == nil {
		return
	}

	sess.resolveOnce.Do(func() {
		log.Printf("capture: session %s aborted", sess.id)
		e.teardown(sess)
	})
	e.clearSession(sess)
}

// resetSilence re-arms the silence timer. Only the newest reset wins: a
// stale timer firing after a subsequent reset is a no-op because its
// generation no longer matches.
func (e *Engine) resetSilence(sess *session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.silence != nil {
		sess.silence.Stop()
	}
	sess.silenceGen++
	gen := sess.silenceGen
	sess.silence = time.AfterFunc(e.cfg.SilenceTimeout, func() {
		e.onSilence(sess, gen)
	})
}

func (e *Engine) onSilence(sess *session, gen int) {
	sess.mu.Lock()
	if gen != sess.silenceGen {
		sess.mu.Unlock()
		return
	}
	text := sess.accumulatedLocked()
	retries := sess.retries
	sess.mu.Unlock()

	if !e.isCurrent(sess) {
		return
	}

	if text != "" {
		log.Printf("capture: session %s silence elapsed, finalizing %q", sess.id, text)
		e.finalize(sess)
		return
	}

	// Silence elapsed without any speech: restart the recognizer a bounded
	// number of times before surfacing a no-speech error.
	if retries < e.cfg.NoSpeechRetries {
		sess.mu.Lock()
		sess.retries++
		sess.mu.Unlock()
		log.Printf("capture: session %s no speech detected, restart %d/%d", sess.id, retries+1, e.cfg.NoSpeechRetries)
		e.restartAdapter(sess)
		return
	}

	sess.resolveOnce.Do(func() {
		e.teardown(sess)
		e.emitError(newError(KindNoSpeech, fmt.Errorf("no speech detected after %d attempts", e.cfg.NoSpeechRetries+1)))
	})
	e.clearSession(sess)
}

// restartAdapter swaps in a fresh streaming adapter while keeping the
// microphone stream and side recorder alive.
func (e *Engine) restartAdapter(sess *session) {
	select {
	case <-sess.ctx.Done():
		return
	case <-time.After(e.cfg.RetryDelay):
	}

	sess.mu.Lock()
	old := sess.adapter
	sess.adapter = nil
	sess.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	if sess.side != nil {
		sess.side.Reset()
	}

	adapter, err := e.newAdapter()
	if err == nil {
		err = adapter.Start(sess.ctx, e.cfg.Language)
	}
	if err != nil {
		sess.resolveOnce.Do(func() {
			e.teardown(sess)
			e.emitError(newError(KindNetwork, fmt.Errorf("recognizer restart: %w", err)))
		})
		e.clearSession(sess)
		return
	}

	sess.mu.Lock()
	sess.adapter = adapter
	sess.mu.Unlock()

	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		e.receiveResults(sess, adapter)
	}()
	e.resetSilence(sess)
}

func (e *Engine) sendAudio(sess *session, frameCh <-chan recording.AudioFrame) {
	for {
		select {
		case <-sess.ctx.Done():
			return
		case frame, ok := <-frameCh:
			if !ok {
				return
			}
			sess.mu.Lock()
			adapter := sess.adapter
			sess.mu.Unlock()
			if adapter == nil {
				continue
			}
			if err := adapter.SendChunk(frame.Data); err != nil {
				// not fatal: the adapter handles reconnection itself
				log.Printf("capture: session %s send error: %v", sess.id, err)
			}
		}
	}
}

func (e *Engine) watchMicErrors(sess *session, errCh <-chan error) {
	for {
		select {
		case <-sess.ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				return
			}
			if err == nil {
				continue
			}
			if !e.isCurrent(sess) {
				return
			}
			sess.resolveOnce.Do(func() {
				e.teardown(sess)
				e.emitError(newError(classifyMicErr(err), err))
			})
			e.clearSession(sess)
			return
		}
	}
}

func (e *Engine) receiveResults(sess *session, adapter StreamingAdapter) {
	resultsCh := adapter.Results()

	for {
		select {
		case <-sess.ctx.Done():
			return
		case result, ok := <-resultsCh:
			if !ok {
				// ignore the close caused by a deliberate adapter swap
				sess.mu.Lock()
				current := sess.adapter == adapter
				sess.mu.Unlock()
				if current {
					e.onAdapterEnd(sess)
				}
				return
			}
			if !e.isCurrent(sess) {
				// superseded mid-flight: discard the late result
				return
			}

			if result.Err != nil {
				kind := KindOf(result.Err)
				sess.resolveOnce.Do(func() {
					e.teardown(sess)
					e.emitError(newError(kind, result.Err))
				})
				e.clearSession(sess)
				return
			}

			wasInterim := !result.IsFinal

			sess.mu.Lock()
			if result.IsFinal {
				sess.finals = append(sess.finals, result)
				sess.lastInterim = ""
			} else {
				sess.lastInterim = result.Text
			}
			current := sess.accumulatedLocked()
			sess.mu.Unlock()

			e.resetSilence(sess)

			if e.handlers.Interim != nil && (wasInterim || current != "") {
				e.handlers.Interim(current)
			}
		}
	}
}

// onAdapterEnd handles an engine-initiated end of the recognizer stream
// that was not caused by a manual stop. With accumulated text it is an
// utterance end; with no text it is a benign restart of the continuous
// recognizer.
func (e *Engine) onAdapterEnd(sess *session) {
	if !e.isCurrent(sess) {
		return
	}

	sess.mu.Lock()
	manual := sess.manualStop
	text := sess.accumulatedLocked()
	sess.mu.Unlock()

	if manual {
		return
	}

	if text != "" {
		log.Printf("capture: session %s recognizer ended with text, finalizing", sess.id)
		e.finalize(sess)
		return
	}

	log.Printf("capture: session %s recognizer ended with no speech, restarting", sess.id)
	e.restartAdapter(sess)
}

// finalize emits the accumulated transcript exactly once and tears the
// session down. An empty transcript ends the session silently.
func (e *Engine) finalize(sess *session) {
	sess.resolveOnce.Do(func() {
		sess.mu.Lock()
		res := sess.resultLocked()
		sess.mu.Unlock()

		var blob []byte
		side := sess.side
		e.teardown(sess)
		if side != nil {
			blob = side.StopAndBlob()
		}

		if res.Text == "" {
			log.Printf("capture: session %s ended with no transcript", sess.id)
			return
		}

		log.Printf("capture: session %s final transcript %q (confidence=%.2f)", sess.id, res.Text, res.Confidence)
		if e.handlers.Final != nil {
			e.handlers.Final(res, blob)
		}
	})
	e.clearSession(sess)
}

// teardown stops timers, the adapter and the mic stream. Must only run
// inside resolveOnce.
func (e *Engine) teardown(sess *session) {
	sess.mu.Lock()
	if sess.silence != nil {
		sess.silence.Stop()
	}
	sess.silenceGen++ // invalidate in-flight timer callbacks
	adapter := sess.adapter
	sess.adapter = nil
	sess.mu.Unlock()

	if adapter != nil {
		_ = adapter.Close()
	}
	if sess.stream != nil {
		sess.stream.Release()
	}
	sess.cancel()
}

func (e *Engine) isCurrent(sess *session) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess == sess
}

func (e *Engine) clearSession(sess *session) {
	e.mu.Lock()
	if e.sess == sess {
		e.sess = nil
	}
	e.mu.Unlock()
}

func (e *Engine) emitError(err *Error) {
	log.Printf("capture: %v", err)
	if e.handlers.Error != nil {
		e.handlers.Error(err)
	}
}

// accumulatedLocked joins confirmed final segments, falling back to the
// newest interim text when nothing was finalized yet. Caller holds sess.mu.
func (s *session) accumulatedLocked() string {
	var sb strings.Builder
	for _, r := range s.finals {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strings.TrimSpace(r.Text))
	}
	if sb.Len() == 0 {
		return strings.TrimSpace(s.lastInterim)
	}
	return sb.String()
}

// resultLocked packages the session transcript. Confidence is the lowest
// reported across final segments; 0 stays the "not reported" sentinel when
// no segment carried one. Caller holds sess.mu.
func (s *session) resultLocked() TranscriptResult {
	res := TranscriptResult{Text: s.accumulatedLocked()}

	reported := false
	minConf := 1.0
	for _, r := range s.finals {
		if r.Confidence > 0 {
			reported = true
			if r.Confidence < minConf {
				minConf = r.Confidence
			}
		}
	}
	if reported {
		res.Confidence = minConf
	}
	if n := len(s.finals); n > 0 {
		res.Alternatives = s.finals[n-1].Alternatives
	}
	return res
}
