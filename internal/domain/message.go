package domain

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

const messageIDTokenLength = 16

// Message is a single SMS intent. Adapters never mutate a Message; they derive
// a new one with WithTo so the ID survives phone number formatting.
type Message struct {
	ID       string         `json:"id"`
	To       string         `json:"to"`
	Body     string         `json:"message"`
	From     string         `json:"from,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewMessage(to string, body string, from string, metadata map[string]any) Message {
	return Message{
		ID:       NewMessageID(),
		To:       to,
		Body:     body,
		From:     from,
		Metadata: maps.Clone(metadata),
	}
}

// NewMessageID returns ids shaped like textify_<16 random chars>_<unix seconds>.
func NewMessageID() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("textify_%s_%d", token[:messageIDTokenLength], time.Now().Unix())
}

// WithTo returns a copy addressed to a different recipient. ID, Body, From and
// Metadata are preserved.
func (m Message) WithTo(to string) Message {
	out := m
	out.To = to
	out.Metadata = maps.Clone(m.Metadata)
	return out
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	if strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("%w: message is required", ErrValidation)
	}
	return nil
}

func (m Message) ToMap() map[string]any {
	metadata := maps.Clone(m.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}

	return map[string]any{
		"id":       m.ID,
		"to":       m.To,
		"message":  m.Body,
		"from":     m.From,
		"metadata": metadata,
	}
}
