package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

var errNotInitialized = errors.New("provider is not initialized")

// state is an immutable snapshot of an adapter's configuration. SetConfig
// swaps it atomically so in-flight sends keep the snapshot they started with.
type state[T adapterConfig] struct {
	raw    Config
	cfg    T
	client *resty.Client
}

func (s *state[T]) url(path string) string {
	return s.cfg.transport().url(path)
}

func (s *state[T]) request(ctx context.Context) *resty.Request {
	return s.client.R().SetContext(ctx)
}

// gateway is the vendor specific half of an adapter.
type gateway[T adapterConfig] interface {
	sendRequest(ctx context.Context, st *state[T], msg domain.Message) (map[string]any, error)
	parseResponse(payload map[string]any) domain.Response
}

// base implements the send lifecycle shared by all adapters. Vendors embed it
// and supply a gateway.
type base[T adapterConfig] struct {
	name      string
	countries []string
	phone     phoneRules
	hooks     Hooks
	gateway   gateway[T]
	client    *resty.Client

	mu    sync.Mutex
	state atomic.Pointer[state[T]]
}

type baseOptions[T adapterConfig] struct {
	name      string
	countries []string
	phone     phoneRules
	gateway   gateway[T]
}

func newBase[T adapterConfig](opts baseOptions[T], raw Config, client *resty.Client, hooks Hooks) (*base[T], error) {
	b := &base[T]{
		name:      opts.name,
		countries: opts.countries,
		phone:     opts.phone,
		hooks:     hooks.withDefaults(),
		gateway:   opts.gateway,
		client:    client,
	}
	if err := b.SetConfig(raw); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *base[T]) Name() string {
	return b.name
}

func (b *base[T]) ValidatePhoneNumber(raw string) bool {
	return b.phone.valid(raw)
}

func (b *base[T]) FormatPhoneNumber(raw string) string {
	return b.phone.format(raw)
}

func (b *base[T]) SupportsCountry(code string) bool {
	if len(b.countries) == 0 {
		return true
	}
	return slices.ContainsFunc(b.countries, func(c string) bool {
		return strings.EqualFold(c, strings.TrimSpace(code))
	})
}

func (b *base[T]) Config() Config {
	st := b.state.Load()
	if st == nil {
		return Config{}
	}
	return maps.Clone(st.raw)
}

// SetConfig merges cfg over the current configuration and re-validates it.
// On error the previous configuration stays active.
func (b *base[T]) SetConfig(cfg Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	merged := Config{}
	if current := b.state.Load(); current != nil {
		maps.Copy(merged, current.raw)
	}
	maps.Copy(merged, cfg)

	typed, err := decodeConfig[T](b.name, merged)
	if err != nil {
		return err
	}

	client := b.client
	if client == nil && typed.transport().BaseURI != "" {
		client = newRestyClient(typed.transport())
	}

	b.state.Store(&state[T]{raw: merged, cfg: typed, client: client})
	return nil
}

func (b *base[T]) GetDeliveryStatus(context.Context, string) string {
	return StatusUnknown
}

func (b *base[T]) GetBalance(context.Context) float64 {
	return 0
}

func (b *base[T]) Send(ctx context.Context, msg domain.Message) (domain.Response, error) {
	if b == nil || b.gateway == nil {
		return domain.Response{}, errNotInitialized
	}
	st := b.state.Load()
	if st == nil {
		return domain.Response{}, errNotInitialized
	}

	if !b.phone.valid(msg.To) {
		return domain.Failed(domain.ErrCodeInvalidPhoneNumber, "Invalid phone number format: "+msg.To, nil), nil
	}
	if reason, ok := b.hooks.Rules.check(msg.Body); !ok {
		return domain.Failed(domain.ErrCodeInvalidMessageContent, reason, nil), nil
	}

	formatted := msg.WithTo(b.phone.format(msg.To))
	if formatted.ID == "" {
		formatted.ID = domain.NewMessageID()
	}

	b.safely("sending", func() {
		b.hooks.Events.Publish(ctx, domain.SendingEvent{Message: formatted, Provider: b.name})
	})
	b.safely("sending", func() { b.hooks.Tracker.TrackSending(ctx, formatted, b.name) })
	b.safely("sending", func() { b.hooks.Logger.LogSending(ctx, formatted, b.name) })

	resp, err := b.call(ctx, st, formatted)
	if err != nil {
		b.hooks.Log.Warn("sms vendor request failed",
			zap.String("provider", b.name),
			zap.String("messageId", formatted.ID),
			zap.Bool("transient", IsTransient(err)),
			zap.Error(err),
		)
		resp = failureFromError(err, nil)
	}

	if resp.IsSuccessful() {
		b.safely("sent", func() { b.hooks.Tracker.TrackSent(ctx, formatted, resp, b.name) })
		b.safely("sent", func() { b.hooks.Logger.LogSent(ctx, formatted, resp, b.name) })
		b.safely("sent", func() {
			b.hooks.Events.Publish(ctx, domain.SentEvent{Message: formatted, Response: resp, Provider: b.name})
		})
		return resp, nil
	}

	b.safely("failed", func() { b.hooks.Tracker.TrackFailed(ctx, formatted, resp, b.name) })
	b.safely("failed", func() { b.hooks.Logger.LogFailed(ctx, formatted, resp, b.name) })
	b.safely("failed", func() {
		b.hooks.Events.Publish(ctx, domain.FailedEvent{Message: formatted, Response: resp, Provider: b.name, Cause: err})
	})
	return resp, nil
}

// SendBulk sends sequentially and keeps input order. Messages missing a
// recipient or body fail in their own slot.
func (b *base[T]) SendBulk(ctx context.Context, msgs []domain.Message) []domain.Response {
	responses := make([]domain.Response, 0, len(msgs))
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			responses = append(responses, domain.Failed(domain.ErrCodeInvalidMessageFormat, "Invalid message format", nil))
			continue
		}

		resp, err := b.Send(ctx, msg)
		if err != nil {
			resp = domain.Failed(domain.ErrCodeProviderError, err.Error(), nil)
		}
		responses = append(responses, resp)
	}
	return responses
}

// call runs the vendor request and parser. A panic in either becomes an error.
func (b *base[T]) call(ctx context.Context, st *state[T], msg domain.Message) (resp domain.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s provider panicked: %v", b.name, r)
		}
	}()

	payload, err := b.gateway.sendRequest(ctx, st, msg)
	if err != nil {
		return domain.Response{}, err
	}
	return b.gateway.parseResponse(payload), nil
}

func (b *base[T]) safely(stage string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.hooks.Log.Error("sms lifecycle hook panicked",
				zap.String("provider", b.name),
				zap.String("stage", stage),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}
