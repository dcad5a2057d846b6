package event

import (
	"context"
	"sync"

	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

// Sink receives send lifecycle events. Publish must not block the send path
// for long and must not panic.
type Sink interface {
	Publish(ctx context.Context, evt domain.Event)
}

type Nop struct{}

func (Nop) Publish(context.Context, domain.Event) {}

type Listener func(ctx context.Context, evt domain.Event)

var _ Sink = (*Dispatcher)(nil)

// Dispatcher fans events out to in-process listeners. A panicking listener is
// logged and does not stop delivery to the others.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	wildcard  []Listener
	sinks     []Sink
	logger    *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

func (d *Dispatcher) Subscribe(name string, l Listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[name] = append(d.listeners[name], l)
}

func (d *Dispatcher) SubscribeAll(l Listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wildcard = append(d.wildcard, l)
}

// Forward relays every event to another sink, such as the NATS publisher.
func (d *Dispatcher) Forward(s Sink) {
	if s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

func (d *Dispatcher) Publish(ctx context.Context, evt domain.Event) {
	if evt == nil {
		return
	}

	d.mu.RLock()
	named := append([]Listener(nil), d.listeners[evt.EventName()]...)
	wildcard := append([]Listener(nil), d.wildcard...)
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	for _, l := range named {
		d.call(ctx, evt, l)
	}
	for _, l := range wildcard {
		d.call(ctx, evt, l)
	}
	for _, s := range sinks {
		d.call(ctx, evt, s.Publish)
	}
}

func (d *Dispatcher) call(ctx context.Context, evt domain.Event, l Listener) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event listener panicked",
				zap.String("event", evt.EventName()),
				zap.Any("panic", r),
			)
		}
	}()
	l(ctx, evt)
}
