package turn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// HTTPClient talks to the enpeak conversation backend.
type HTTPClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type turnRequest struct {
	Text           string            `json:"text"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Mode           string            `json:"mode,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type turnResponse struct {
	ReplyText string            `json:"reply_text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func NewHTTPClient(cfg Config) *HTTPClient {
	return &HTTPClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) Send(ctx context.Context, text string, sess Session) (Reply, error) {
	payload, err := json.Marshal(turnRequest{
		Text:           text,
		ConversationID: sess.ConversationID,
		Mode:           sess.Mode,
		Metadata:       sess.Metadata,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal turn request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("build turn request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("turn request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Reply{}, fmt.Errorf("turn request failed with status %d: %s", resp.StatusCode, body)
	}

	var tr turnResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Reply{}, fmt.Errorf("decode turn response: %w", err)
	}

	log.Printf("turn: backend replied in %v", time.Since(start))
	return Reply{Text: tr.ReplyText, Metadata: tr.Metadata}, nil
}
