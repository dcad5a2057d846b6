package provider

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
)

type arrayConfig struct{}

func (arrayConfig) transport() transportConfig { return transportConfig{} }

// ArrayMessage is a message captured by the Array adapter.
type ArrayMessage struct {
	ID       string         `json:"id"`
	To       string         `json:"to"`
	From     string         `json:"from,omitempty"`
	Body     string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Status   string         `json:"status"`
	SentAt   time.Time      `json:"sentAt"`
}

// Array keeps sent messages in memory. It is meant for tests and local
// development.
type Array struct {
	*base[arrayConfig]

	mu       sync.RWMutex
	messages []ArrayMessage
	now      func() time.Time
}

func NewArray(cfg Config, client *resty.Client, hooks Hooks) (*Array, error) {
	p := &Array{now: time.Now}
	b, err := newBase(baseOptions[arrayConfig]{
		name:    NameArray,
		phone:   anyPhone,
		gateway: p,
	}, cfg, client, hooks)
	if err != nil {
		return nil, err
	}
	p.base = b
	return p, nil
}

func (p *Array) sendRequest(_ context.Context, _ *state[arrayConfig], msg domain.Message) (map[string]any, error) {
	record := ArrayMessage{
		ID:       generatedID(p.name),
		To:       msg.To,
		From:     msg.From,
		Body:     msg.Body,
		Metadata: maps.Clone(msg.Metadata),
		Status:   StatusSent,
		SentAt:   p.now().UTC(),
	}

	p.mu.Lock()
	p.messages = append(p.messages, record)
	p.mu.Unlock()

	return map[string]any{
		"id":       record.ID,
		"to":       record.To,
		"from":     record.From,
		"message":  record.Body,
		"metadata": maps.Clone(record.Metadata),
		"status":   record.Status,
		"sent_at":  record.SentAt.Format(time.RFC3339),
	}, nil
}

func (p *Array) parseResponse(payload map[string]any) domain.Response {
	return domain.Success(str(payload["id"]), str(payload["status"]), nil, payload)
}

func (p *Array) GetDeliveryStatus(_ context.Context, messageID string) string {
	if msg, ok := p.Message(messageID); ok {
		return msg.Status
	}
	return StatusUnknown
}

func (p *Array) GetBalance(context.Context) float64 {
	return mockBalance
}

func (p *Array) Messages() []ArrayMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]ArrayMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *Array) Message(id string) (ArrayMessage, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, msg := range p.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return ArrayMessage{}, false
}

func (p *Array) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}
