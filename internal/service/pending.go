package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/kursadbilgin/textify/internal/domain"
)

// PendingMessage stages a send. Every setter returns a new value, so a
// PendingMessage can be shared as a template. Send and Queue consume the
// staged recipients, message and sender of the value they are called on.
type PendingMessage struct {
	manager  *Manager
	provider string
	fallback string

	mu      sync.Mutex
	to      any
	message string
	from    string
}

func (m *Manager) pending() *PendingMessage {
	return &PendingMessage{manager: m}
}

// Via starts a send through the named provider.
func (m *Manager) Via(name string) *PendingMessage { return m.pending().Via(name) }

// Driver is an alias of Via.
func (m *Manager) Driver(name string) *PendingMessage { return m.pending().Via(name) }

func (m *Manager) Fallback(name string) *PendingMessage { return m.pending().Fallback(name) }

func (m *Manager) To(to any) *PendingMessage { return m.pending().To(to) }

func (m *Manager) Message(message string) *PendingMessage { return m.pending().Message(message) }

func (m *Manager) From(from string) *PendingMessage { return m.pending().From(from) }

func (p *PendingMessage) clone(edit func(*PendingMessage)) *PendingMessage {
	p.mu.Lock()
	next := &PendingMessage{
		manager:  p.manager,
		provider: p.provider,
		fallback: p.fallback,
		to:       p.to,
		message:  p.message,
		from:     p.from,
	}
	p.mu.Unlock()

	edit(next)
	return next
}

func (p *PendingMessage) Via(name string) *PendingMessage {
	return p.clone(func(n *PendingMessage) { n.provider = normalizeName(name) })
}

func (p *PendingMessage) Driver(name string) *PendingMessage { return p.Via(name) }

func (p *PendingMessage) Fallback(name string) *PendingMessage {
	return p.clone(func(n *PendingMessage) { n.fallback = normalizeName(name) })
}

func (p *PendingMessage) To(to any) *PendingMessage {
	return p.clone(func(n *PendingMessage) { n.to = to })
}

func (p *PendingMessage) Message(message string) *PendingMessage {
	return p.clone(func(n *PendingMessage) { n.message = message })
}

func (p *PendingMessage) From(from string) *PendingMessage {
	return p.clone(func(n *PendingMessage) { n.from = from })
}

// Reset drops the staged recipients, message and sender. The provider choice
// is kept.
func (p *PendingMessage) Reset() *PendingMessage {
	return p.clone(func(n *PendingMessage) {
		n.to = nil
		n.message = ""
		n.from = ""
	})
}

// ProviderName is the provider this value will send through.
func (p *PendingMessage) ProviderName() string {
	return p.manager.route(p.provider, p.fallback).provider
}

// take returns the staged input and clears it.
func (p *PendingMessage) take() (to any, message, from string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	to, message, from = p.to, p.message, p.from
	p.to, p.message, p.from = nil, "", ""
	return to, message, from
}

func (p *PendingMessage) Send(ctx context.Context) ([]domain.Response, error) {
	to, message, from := p.take()
	return p.manager.send(ctx, p.manager.route(p.provider, p.fallback), to, message, from)
}

// SendWithFallback sends a single staged recipient, retrying once on the
// fallback provider.
func (p *PendingMessage) SendWithFallback(ctx context.Context) (domain.Response, error) {
	to, message, from := p.take()
	msgs, err := resolveMessages(to, message, from)
	if err != nil {
		return domain.Response{}, err
	}
	if len(msgs) != 1 {
		return domain.Response{}, fmt.Errorf("%w: fallback send needs a single recipient, got %d", domain.ErrOrchestration, len(msgs))
	}
	return p.manager.withFallback(ctx, p.manager.route(p.provider, p.fallback), msgs[0])
}

// Queue publishes the staged messages for the worker and returns the job ids.
func (p *PendingMessage) Queue(ctx context.Context, queueName string) ([]string, error) {
	to, message, from := p.take()
	return p.manager.queue(ctx, p.provider, to, message, from, queueName)
}
