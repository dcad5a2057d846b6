package service

import (
	"fmt"
	"maps"
	"strings"

	"github.com/kursadbilgin/textify/internal/domain"
)

// Entry is one personalized message in a structured send.
type Entry struct {
	To       string         `json:"to"`
	Message  string         `json:"message"`
	From     string         `json:"from,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var (
	errNoContacts         = fmt.Errorf("%w: no contacts specified", domain.ErrOrchestration)
	errNoMessage          = fmt.Errorf("%w: no message specified", domain.ErrOrchestration)
	errInvalidArrayFormat = fmt.Errorf("%w: invalid array format", domain.ErrOrchestration)
)

// resolveMessages turns the accepted contact shapes into one message per
// recipient, in input order.
func resolveMessages(to any, message, from string) ([]domain.Message, error) {
	switch v := to.(type) {
	case nil:
		return nil, errNoContacts
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, errNoContacts
		}
		return addressMessages([]string{v}, message, from)
	case []string:
		return addressMessages(v, message, from)
	case []Entry:
		if len(v) == 0 {
			return nil, errNoContacts
		}
		return entryMessages(v, from), nil
	case []map[string]any:
		if len(v) == 0 {
			return nil, errNoContacts
		}
		if !isEntry(v[0]) {
			return nil, errInvalidArrayFormat
		}
		entries := make([]Entry, len(v))
		for i, raw := range v {
			entries[i] = entryFromMap(raw)
		}
		return entryMessages(entries, from), nil
	case []any:
		return anyMessages(v, message, from)
	default:
		return nil, errInvalidArrayFormat
	}
}

func anyMessages(items []any, message, from string) ([]domain.Message, error) {
	if len(items) == 0 {
		return nil, errNoContacts
	}

	if first, ok := items[0].(map[string]any); ok && isEntry(first) {
		entries := make([]Entry, len(items))
		for i, item := range items {
			raw, _ := item.(map[string]any)
			entries[i] = entryFromMap(raw)
		}
		return entryMessages(entries, from), nil
	}

	addresses := make([]string, len(items))
	for i, item := range items {
		address, ok := item.(string)
		if !ok {
			return nil, errInvalidArrayFormat
		}
		addresses[i] = address
	}
	return addressMessages(addresses, message, from)
}

func addressMessages(addresses []string, message, from string) ([]domain.Message, error) {
	if len(addresses) == 0 {
		return nil, errNoContacts
	}
	if strings.TrimSpace(message) == "" {
		return nil, errNoMessage
	}

	msgs := make([]domain.Message, len(addresses))
	for i, address := range addresses {
		msgs[i] = domain.NewMessage(address, message, from, nil)
	}
	return msgs, nil
}

func entryMessages(entries []Entry, from string) []domain.Message {
	msgs := make([]domain.Message, len(entries))
	for i, e := range entries {
		sender := e.From
		if strings.TrimSpace(sender) == "" {
			sender = from
		}
		msgs[i] = domain.NewMessage(e.To, e.Message, sender, e.Metadata)
	}
	return msgs
}

func isEntry(raw map[string]any) bool {
	_, hasTo := raw["to"]
	_, hasMessage := raw["message"]
	return hasTo && hasMessage
}

func entryFromMap(raw map[string]any) Entry {
	e := Entry{}
	e.To, _ = raw["to"].(string)
	e.Message, _ = raw["message"].(string)
	e.From, _ = raw["from"].(string)
	if metadata, ok := raw["metadata"].(map[string]any); ok {
		e.Metadata = maps.Clone(metadata)
	}
	return e
}
