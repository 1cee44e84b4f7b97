package turn

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
)

const partnerSystemPrompt = `You are a friendly English conversation partner helping a learner practice everyday conversation. Reply naturally in one or two short sentences of simple spoken English. Stay in the scenario the learner sets up. Gently rephrase what the learner said if it contained a mistake, then continue the conversation.`

const (
	maxExchanges   = 10
	historyExpiry  = 5 * time.Minute
	maxReplyTokens = 120
)

// exchange is one user/assistant pair kept for conversational context.
type exchange struct {
	userText      string
	assistantText string
	at            time.Time
}

// PartnerAdapter is a local practice partner built on chat completions,
// used when no enpeak backend is configured. It keeps a bounded window of
// recent exchanges that expires after inactivity.
type PartnerAdapter struct {
	client *openai.Client
	model  string

	mu           sync.Mutex
	exchanges    []exchange
	lastActivity time.Time
}

func NewPartnerAdapter(cfg Config) *PartnerAdapter {
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &PartnerAdapter{
		client:       openai.NewClient(cfg.APIKey),
		model:        model,
		lastActivity: time.Now(),
	}
}

func (p *PartnerAdapter) Send(ctx context.Context, text string, sess Session) (Reply, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: p.systemPrompt(sess)},
	}
	for _, ex := range p.recentExchanges() {
		messages = append(messages,
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: ex.userText},
			openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: ex.assistantText},
		)
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text})

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     p.model,
		Messages:  messages,
		MaxTokens: maxReplyTokens,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("partner completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, fmt.Errorf("partner completion: empty response")
	}

	replyText := resp.Choices[0].Message.Content
	log.Printf("turn: partner replied in %v", time.Since(start))

	p.remember(text, replyText)
	return Reply{Text: replyText}, nil
}

func (p *PartnerAdapter) systemPrompt(sess Session) string {
	if sess.Mode == "roleplay" {
		return partnerSystemPrompt + " The learner chose a roleplay scenario; keep playing your role consistently."
	}
	return partnerSystemPrompt
}

// recentExchanges returns the context window, dropping it entirely once the
// conversation has been inactive too long.
func (p *PartnerAdapter) recentExchanges() []exchange {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.exchanges) > 0 && time.Since(p.lastActivity) > historyExpiry {
		p.exchanges = nil
	}
	out := make([]exchange, len(p.exchanges))
	copy(out, p.exchanges)
	return out
}

func (p *PartnerAdapter) remember(userText, assistantText string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.exchanges = append(p.exchanges, exchange{userText: userText, assistantText: assistantText, at: time.Now()})
	if len(p.exchanges) > maxExchanges {
		p.exchanges = p.exchanges[len(p.exchanges)-maxExchanges:]
	}
	p.lastActivity = time.Now()
}

// ExchangeCount reports how many exchanges are kept for context.
func (p *PartnerAdapter) ExchangeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.exchanges)
}

// ClearHistory drops the conversational context.
func (p *PartnerAdapter) ClearHistory() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges = nil
}
