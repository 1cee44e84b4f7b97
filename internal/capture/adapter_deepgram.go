package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/buelmanager/enpeak-voice/internal/provider"
	"github.com/gorilla/websocket"
)

var defaultRetryDelays = []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}

// DeepgramAdapter implements StreamingAdapter for Deepgram real-time
// recognition over WebSocket.
type DeepgramAdapter struct {
	endpoint  *provider.EndpointConfig
	apiKey    string
	model     string
	language  string
	conn      *websocket.Conn
	resultsCh chan Result
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   bool

	// reconnection config
	maxRetries  int
	retryDelays []time.Duration
}

// deepgramCloseStream message to signal end of audio
type deepgramCloseStream struct {
	Type string `json:"type"`
}

// Deepgram WebSocket response types (incoming)
type deepgramWSResponse struct {
	Type        string            `json:"type"`
	Channel     *deepgramChannel  `json:"channel,omitempty"`
	Metadata    *deepgramMetadata `json:"metadata,omitempty"`
	Error       *deepgramError    `json:"error,omitempty"`
	IsFinal     bool              `json:"is_final,omitempty"`
	SpeechFinal bool              `json:"speech_final,omitempty"`
}

type deepgramChannel struct {
	Alternatives []deepgramAlternative `json:"alternatives,omitempty"`
}

type deepgramAlternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
}

type deepgramMetadata struct {
	RequestID string `json:"request_id"`
	ModelInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"model_info"`
}

type deepgramError struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

// NewDeepgramAdapter creates a streaming adapter for Deepgram.
// endpoint: the WebSocket endpoint config (e.g., wss://api.deepgram.com, /v1/listen)
// model: model ID (e.g., "nova-3")
func NewDeepgramAdapter(endpoint *provider.EndpointConfig, apiKey, model, lang string) *DeepgramAdapter {
	return &DeepgramAdapter{
		endpoint:    endpoint,
		apiKey:      apiKey,
		model:       model,
		language:    lang,
		resultsCh:   make(chan Result, 100),
		maxRetries:  3,
		retryDelays: defaultRetryDelays,
	}
}

// Start initiates the WebSocket connection to Deepgram
func (a *DeepgramAdapter) Start(ctx context.Context, lang string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("adapter already started")
	}

	if lang != "" {
		a.language = lang
	}

	a.ctx, a.cancel = context.WithCancel(ctx)

	if err := a.connectLocked(); err != nil {
		return newError(KindNetwork, err)
	}
	a.started = true

	a.wg.Add(1)
	go a.readLoop()

	log.Printf("deepgram: connected, model=%s, language=%s", a.model, a.language)
	return nil
}

// connectLocked establishes WebSocket connection. Must be called with mu held.
func (a *DeepgramAdapter) connectLocked() error {
	wsURL, err := a.buildURL()
	if err != nil {
		return fmt.Errorf("build websocket url: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+a.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(a.ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("deepgram: dial failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	a.conn = conn
	return nil
}

// reconnect attempts to re-establish the WebSocket connection with backoff.
// Returns true if reconnection succeeded.
func (a *DeepgramAdapter) reconnect() bool {
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		select {
		case <-a.ctx.Done():
			return false
		default:
		}

		if attempt > 0 {
			delay := a.retryDelays[len(a.retryDelays)-1]
			if attempt-1 < len(a.retryDelays) {
				delay = a.retryDelays[attempt-1]
			}
			log.Printf("deepgram: reconnect attempt %d/%d after %v", attempt+1, a.maxRetries, delay)

			select {
			case <-a.ctx.Done():
				return false
			case <-time.After(delay):
			}
		} else {
			log.Printf("deepgram: reconnect attempt %d/%d", attempt+1, a.maxRetries)
		}

		a.mu.Lock()
		if a.conn != nil {
			a.conn.Close()
			a.conn = nil
		}
		err := a.connectLocked()
		a.mu.Unlock()

		if err == nil {
			log.Printf("deepgram: reconnected successfully")
			return true
		}
		log.Printf("deepgram: reconnect failed: %v", err)
	}

	return false
}

// buildURL constructs the WebSocket URL with query parameters
func (a *DeepgramAdapter) buildURL() (string, error) {
	baseURL := a.endpoint.BaseURL + a.endpoint.Path

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("model", a.model)
	q.Set("encoding", "linear16") // 16-bit linear PCM
	q.Set("sample_rate", "16000") // 16kHz
	q.Set("channels", "1")        // mono
	q.Set("interim_results", "true")
	q.Set("smart_format", "true")
	q.Set("punctuate", "true")
	if a.language != "" {
		q.Set("language", a.language)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readLoop reads messages from the WebSocket and sends results to the channel
func (a *DeepgramAdapter) readLoop() {
	defer a.wg.Done()
	defer close(a.resultsCh)

	for {
		select {
		case <-a.ctx.Done():
			return
		default:
		}

		a.mu.Lock()
		conn := a.conn
		a.mu.Unlock()

		if conn == nil {
			if !a.reconnect() {
				a.resultsCh <- Result{Err: newError(KindNetwork, fmt.Errorf("connection lost, reconnection failed after %d attempts", a.maxRetries))}
				return
			}
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			// context cancelled means normal shutdown
			select {
			case <-a.ctx.Done():
				return
			default:
			}

			log.Printf("deepgram: read error: %v, attempting reconnection", err)
			if !a.reconnect() {
				a.resultsCh <- Result{Err: newError(KindNetwork, fmt.Errorf("websocket read: %w, reconnection failed", err))}
				return
			}
			continue
		}

		var resp deepgramWSResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			log.Printf("deepgram: parse error: %v", err)
			continue
		}

		switch resp.Type {
		case "Metadata":
			if resp.Metadata != nil {
				log.Printf("deepgram: session started, request_id=%s, model=%s",
					resp.Metadata.RequestID, resp.Metadata.ModelInfo.Name)
			}

		case "Results":
			if resp.Channel != nil && len(resp.Channel.Alternatives) > 0 {
				best := resp.Channel.Alternatives[0]
				if best.Transcript == "" {
					continue
				}
				isFinal := resp.IsFinal || resp.SpeechFinal

				var alts []Alternative
				for _, alt := range resp.Channel.Alternatives {
					if alt.Transcript == "" {
						continue
					}
					alts = append(alts, Alternative{Text: alt.Transcript, Confidence: alt.Confidence})
				}

				if isFinal {
					log.Printf("deepgram: final: %q (confidence=%.2f)", best.Transcript, best.Confidence)
				}
				a.resultsCh <- Result{
					Text:         best.Transcript,
					Confidence:   best.Confidence,
					Alternatives: alts,
					IsFinal:      isFinal,
				}
			}

		case "Error":
			if resp.Error != nil {
				errMsg := resp.Error.Message
				if resp.Error.Description != "" {
					errMsg = fmt.Sprintf("%s: %s", errMsg, resp.Error.Description)
				}
				log.Printf("deepgram: error: %s", errMsg)
				a.resultsCh <- Result{Err: newError(KindNetwork, fmt.Errorf("deepgram: %s", errMsg))}
			}

		case "UtteranceEnd":
			log.Printf("deepgram: utterance end detected")

		case "SpeechStarted":
			log.Printf("deepgram: speech started")

		default:
			log.Printf("deepgram: unknown message type: %s", resp.Type)
		}
	}
}

// SendChunk sends audio data to the WebSocket.
// Deepgram expects raw binary audio data, not base64 encoded.
func (a *DeepgramAdapter) SendChunk(audio []byte) error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return fmt.Errorf("adapter not started")
	}
	conn := a.conn
	a.mu.Unlock()

	select {
	case <-a.ctx.Done():
		return a.ctx.Err()
	default:
	}

	if conn == nil {
		return fmt.Errorf("no connection")
	}

	a.mu.Lock()
	err := a.conn.WriteMessage(websocket.BinaryMessage, audio)
	a.mu.Unlock()

	if err != nil {
		log.Printf("deepgram: write error: %v, attempting reconnection", err)
		if a.reconnect() {
			a.mu.Lock()
			err = a.conn.WriteMessage(websocket.BinaryMessage, audio)
			a.mu.Unlock()
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("websocket write: %w", err)
	}

	return nil
}

// Results returns the channel for receiving recognition results
func (a *DeepgramAdapter) Results() <-chan Result {
	return a.resultsCh
}

// Close gracefully closes the WebSocket connection
func (a *DeepgramAdapter) Close() error {
	a.mu.Lock()

	if !a.started {
		a.mu.Unlock()
		return nil
	}

	// signal end of audio (best effort) before tearing down
	if a.conn != nil {
		_ = a.conn.WriteJSON(deepgramCloseStream{Type: "CloseStream"})
	}

	if a.cancel != nil {
		a.cancel()
	}
	conn := a.conn
	a.started = false
	a.mu.Unlock()

	// close websocket outside of lock (readLoop may be blocked on read)
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}

	a.wg.Wait()

	log.Printf("deepgram: closed")
	return nil
}
