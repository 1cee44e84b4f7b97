// Package daemon hosts the voice cycle: it wires the configuration to
// the controller and serves the control socket until it is told to
// quit.
package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/buelmanager/enpeak-voice/internal/bus"
	"github.com/buelmanager/enpeak-voice/internal/capture"
	"github.com/buelmanager/enpeak-voice/internal/config"
	"github.com/buelmanager/enpeak-voice/internal/cycle"
	"github.com/buelmanager/enpeak-voice/internal/fallback"
	"github.com/buelmanager/enpeak-voice/internal/notify"
	"github.com/buelmanager/enpeak-voice/internal/provider"
	"github.com/buelmanager/enpeak-voice/internal/ratelimit"
	"github.com/buelmanager/enpeak-voice/internal/route"
	"github.com/buelmanager/enpeak-voice/internal/speech"
	"github.com/buelmanager/enpeak-voice/internal/turn"
)

type Daemon struct {
	manager  *config.Manager
	notifier notify.Notifier

	mu         sync.Mutex
	controller *cycle.Controller
	cfgRev     int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(manager *config.Manager) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		manager:  manager,
		notifier: pickNotifier(manager.GetConfig()),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func pickNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.Notifications.Enabled {
		return notify.Nop{}
	}
	return notify.New(cfg.Notifications.Type)
}

// controllerFor builds (or rebuilds) the cycle controller from the
// current configuration. Built lazily on the first start verb so a hot
// reload between conversations picks up new settings.
func (d *Daemon) controllerFor(cfg *config.Config) (*cycle.Controller, error) {
	model := provider.FindModel(cfg.Capture.Provider, cfg.Capture.Model)
	if model == nil {
		return nil, fmt.Errorf("unknown capture model %s/%s", cfg.Capture.Provider, cfg.Capture.Model)
	}
	captureKey := cfg.APIKeyFor(cfg.Capture.Provider)

	captureCfg := cfg.ToCaptureConfig()
	adapterFactory := func() (capture.StreamingAdapter, error) {
		return capture.NewDeepgramAdapter(model.Endpoint, captureKey, cfg.Capture.Model, cfg.Capture.Language), nil
	}
	engineFactory := func(h capture.Handlers) cycle.CaptureEngine {
		return capture.NewEngine(captureCfg, h, adapterFactory, nil)
	}

	var transcriber fallback.Transcriber
	if cfg.Fallback.Enabled {
		t, err := fallback.New(cfg.ToFallbackConfig())
		if err != nil {
			return nil, fmt.Errorf("fallback transcriber: %w", err)
		}
		transcriber = t
	}
	limiter := ratelimit.NewWindow(cfg.Fallback.RateCount, cfg.Fallback.RateSpan)
	router := route.NewRouter(cfg.ToRouteConfig(), limiter, transcriber)

	turnClient, err := turn.New(cfg.ToTurnConfig())
	if err != nil {
		return nil, fmt.Errorf("turn client: %w", err)
	}

	synth, err := speech.NewSynthesizer(cfg.ToSpeechConfig())
	if err != nil {
		return nil, fmt.Errorf("speech synthesizer: %w", err)
	}
	speaker := speech.NewService(synth, nil)

	return cycle.NewController(cfg.ToCycleConfig(), engineFactory, router, turnClient, speaker, d.notifier), nil
}

func (d *Daemon) controllerLocked() (*cycle.Controller, error) {
	rev := d.manager.Revision()
	var keepFeed *cycle.Feed
	if d.controller != nil && rev != d.cfgRev {
		// swap in reloaded settings only between conversations
		st := d.controller.State()
		if st.Phase == cycle.PhaseIdle || st.Phase == cycle.PhaseCancelled {
			keepFeed = d.controller.Feed()
			d.controller = nil
		}
	}
	if d.controller != nil {
		return d.controller, nil
	}
	ctrl, err := d.controllerFor(d.manager.GetConfig())
	if err != nil {
		return nil, err
	}
	if keepFeed != nil {
		ctrl.UseFeed(keepFeed)
	}
	d.controller = ctrl
	d.cfgRev = rev
	return ctrl, nil
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := d.manager.StartWatching(d.ctx); err != nil {
		log.Printf("daemon: config watch unavailable: %v", err)
	}
	defer d.manager.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("daemon: received signal %v, shutting down gracefully", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: listening on control socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.shutdown()
				log.Printf("daemon: shutdown complete")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		d.wg.Add(1)
		go func(c net.Conn) {
			defer d.wg.Done()
			d.handle(c)
		}(c)
	}
}

func (d *Daemon) shutdown() {
	d.mu.Lock()
	ctrl := d.controller
	d.mu.Unlock()
	if ctrl != nil {
		ctrl.Cancel()
	}
	d.wg.Wait()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	line = strings.TrimRight(line, "\n")
	if line == "" {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]
	payload := ""
	if len(line) > 2 {
		payload = line[2:]
	}

	d.mu.Lock()
	ctrl, ctrlErr := d.controllerLocked()
	d.mu.Unlock()
	if ctrlErr != nil && cmd != 'v' && cmd != 'q' {
		fmt.Fprintf(c, "ERR config: %v\n", ctrlErr)
		return
	}

	switch cmd {
	case 'r':
		if err := ctrl.Start(d.ctx); err != nil {
			fmt.Fprintf(c, "ERR start: %v\n", err)
			return
		}
		fmt.Fprint(c, "OK listening\n")
	case 'f':
		ctrl.Finish()
		fmt.Fprint(c, "OK finishing\n")
	case 'c':
		ctrl.Cancel()
		fmt.Fprint(c, "OK cancelled\n")
	case 'm':
		on := ctrl.ToggleVoiceMode()
		fmt.Fprintf(c, "OK voice_mode=%v\n", on)
	case 'y':
		replyOutcome(c, "confirmed", ctrl.ConfirmPending())
	case 'e':
		if strings.TrimSpace(payload) == "" {
			fmt.Fprint(c, "ERR edit requires text\n")
			return
		}
		replyOutcome(c, "edited", ctrl.EditPending(payload))
	case 'd':
		replyOutcome(c, "dismissed", ctrl.DismissPending())
	case 's':
		st := ctrl.State()
		pendingText := ""
		if st.Pending != nil {
			pendingText = st.Pending.Text()
		}
		fmt.Fprintf(c, "STATUS phase=%s\tvoice_mode=%v\tcycle_active=%v\trecording=%v\tplaying=%v\tpending=%q\n",
			st.Phase, st.VoiceMode, st.CycleActive, st.Recording, st.Playing, pendingText)
	case 'w':
		d.watch(c, ctrl)
	case 'v':
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case 'q':
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("daemon: unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func replyOutcome(c net.Conn, verb string, err error) {
	switch {
	case err == nil:
		fmt.Fprintf(c, "OK %s\n", verb)
	case errors.Is(err, cycle.ErrNotPending):
		fmt.Fprint(c, "ERR no pending confirmation\n")
	case errors.Is(err, route.ErrResolved):
		fmt.Fprint(c, "ERR confirmation already resolved\n")
	default:
		fmt.Fprintf(c, "ERR %s: %v\n", verb, err)
	}
}

// watch streams controller events to the client until it disconnects.
func (d *Daemon) watch(c net.Conn, ctrl *cycle.Controller) {
	events, cancel := ctrl.Feed().Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		// a read returning means the client hung up
		buf := make([]byte, 1)
		c.Read(buf)
		close(done)
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(c, formatEvent(ev)); err != nil {
				return
			}
		case <-done:
			return
		case <-d.ctx.Done():
			return
		}
	}
}

func formatEvent(ev cycle.Event) string {
	switch ev.Type {
	case cycle.EventPhase:
		return fmt.Sprintf("EVENT phase=%s\n", ev.Phase)
	case cycle.EventInterim:
		return fmt.Sprintf("EVENT interim=%q\n", ev.Text)
	case cycle.EventFinal:
		return fmt.Sprintf("EVENT final=%q confidence=%.2f\n", ev.Text, ev.Confidence)
	case cycle.EventAccepted:
		return fmt.Sprintf("EVENT accepted=%q\n", ev.Text)
	case cycle.EventPending:
		return fmt.Sprintf("EVENT pending=%q deadline=%s\n", ev.Text, ev.Deadline.Format("15:04:05.000"))
	case cycle.EventResolved:
		return fmt.Sprintf("EVENT resolved=%s text=%q\n", ev.Outcome, ev.Text)
	case cycle.EventReply:
		return fmt.Sprintf("EVENT reply=%q\n", ev.Text)
	case cycle.EventError:
		return fmt.Sprintf("EVENT error kind=%s %q\n", ev.Kind, ev.Text)
	default:
		return fmt.Sprintf("EVENT %s\n", ev.Type)
	}
}
