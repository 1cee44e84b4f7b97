package turn

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSelectsBackend(t *testing.T) {
	t.Run("backend mode requires endpoint", func(t *testing.T) {
		if _, err := New(Config{Mode: "backend"}); err == nil {
			t.Error("New should fail without an endpoint")
		}
	})

	t.Run("partner mode requires api key", func(t *testing.T) {
		if _, err := New(Config{Mode: "partner"}); err == nil {
			t.Error("New should fail without an API key")
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		if _, err := New(Config{Mode: "telepathy"}); err == nil {
			t.Error("New should fail for an unknown mode")
		}
	})

	t.Run("backend", func(t *testing.T) {
		c, err := New(Config{Mode: "backend", Endpoint: "https://api.example.com/turn"})
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if _, ok := c.(*HTTPClient); !ok {
			t.Errorf("New returned %T, want *HTTPClient", c)
		}
	})
}

func TestHTTPClientSend(t *testing.T) {
	var gotAuth string
	var gotReq turnRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(turnResponse{
			ReplyText: "Great choice!",
			Metadata:  map[string]string{"turn": "7"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{Mode: "backend", Endpoint: srv.URL, APIKey: "ek-123"})
	reply, err := c.Send(t.Context(), "I would like a coffee", Session{ConversationID: "conv-1", Mode: "roleplay"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if reply.Text != "Great choice!" {
		t.Errorf("reply text = %q", reply.Text)
	}
	if reply.Metadata["turn"] != "7" {
		t.Errorf("reply metadata = %v", reply.Metadata)
	}
	if gotAuth != "Bearer ek-123" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Text != "I would like a coffee" || gotReq.ConversationID != "conv-1" || gotReq.Mode != "roleplay" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestHTTPClientSendErrors(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "backend unavailable", http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewHTTPClient(Config{Endpoint: srv.URL})
		_, err := c.Send(t.Context(), "hello", Session{})
		if err == nil {
			t.Fatal("Send should fail on non-2xx status")
		}
		if !strings.Contains(err.Error(), "502") {
			t.Errorf("error should carry the status code: %v", err)
		}
	})

	t.Run("connection refused", func(t *testing.T) {
		c := NewHTTPClient(Config{Endpoint: "http://127.0.0.1:1/turn"})
		if _, err := c.Send(t.Context(), "hello", Session{}); err == nil {
			t.Fatal("Send should fail when the backend is unreachable")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		}))
		defer srv.Close()

		c := NewHTTPClient(Config{Endpoint: srv.URL})
		if _, err := c.Send(t.Context(), "hello", Session{}); err == nil {
			t.Fatal("Send should fail on a malformed response body")
		}
	})
}

func TestPartnerHistoryTrimsToMaxExchanges(t *testing.T) {
	p := NewPartnerAdapter(Config{APIKey: "sk-test"})

	for i := 0; i < maxExchanges+5; i++ {
		p.remember("question", "answer")
	}
	if got := p.ExchangeCount(); got != maxExchanges {
		t.Errorf("exchange count = %d, want %d", got, maxExchanges)
	}
}

func TestPartnerHistoryExpiresAfterInactivity(t *testing.T) {
	p := NewPartnerAdapter(Config{APIKey: "sk-test"})
	p.remember("hi", "hello")

	p.mu.Lock()
	p.lastActivity = time.Now().Add(-historyExpiry - time.Second)
	p.mu.Unlock()

	if got := p.recentExchanges(); len(got) != 0 {
		t.Errorf("expired history should be empty, got %d exchanges", len(got))
	}
}

func TestPartnerClearHistory(t *testing.T) {
	p := NewPartnerAdapter(Config{APIKey: "sk-test"})
	p.remember("hi", "hello")
	p.ClearHistory()
	if got := p.ExchangeCount(); got != 0 {
		t.Errorf("exchange count after clear = %d, want 0", got)
	}
}

func TestPartnerSystemPromptByMode(t *testing.T) {
	p := NewPartnerAdapter(Config{APIKey: "sk-test"})

	plain := p.systemPrompt(Session{Mode: "chat"})
	roleplay := p.systemPrompt(Session{Mode: "roleplay"})
	if plain == roleplay {
		t.Error("roleplay mode should extend the system prompt")
	}
	if !strings.Contains(roleplay, "roleplay") {
		t.Errorf("roleplay prompt = %q", roleplay)
	}
}
