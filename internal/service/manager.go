package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/observability"
	"github.com/kursadbilgin/textify/internal/provider"
	"github.com/kursadbilgin/textify/internal/queue"
	"github.com/kursadbilgin/textify/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBulkConcurrency = 1

// Resolver looks up providers by name.
type Resolver interface {
	Resolve(name string) (provider.Provider, error)
	Has(name string) bool
	Names() []string
}

// Manager resolves named providers and dispatches messages through them. It
// holds no per-call state and is safe for concurrent use; fluent staging
// lives in PendingMessage values.
type Manager struct {
	providers        Resolver
	defaultProvider  string
	fallbackProvider string
	fallbackOnSend   bool
	limiter          ratelimit.RateLimiter
	publisher        queue.Publisher
	queueName        string
	bulkConcurrency  int
	strict           bool
	logger           *zap.Logger
	metrics          *observability.Metrics
	now              func() time.Time
}

type Option func(*Manager)

func WithDefaultProvider(name string) Option {
	return func(m *Manager) { m.defaultProvider = normalizeName(name) }
}

func WithFallbackProvider(name string) Option {
	return func(m *Manager) { m.fallbackProvider = normalizeName(name) }
}

// WithFallbackOnSend makes Send retry a failed single-recipient send on the
// configured fallback provider. Off by default; SendWithFallback always does.
func WithFallbackOnSend(enabled bool) Option {
	return func(m *Manager) { m.fallbackOnSend = enabled }
}

func WithRateLimiter(limiter ratelimit.RateLimiter) Option {
	return func(m *Manager) { m.limiter = limiter }
}

// WithPublisher enables Queue. An empty queueName means queue.DefaultQueue.
func WithPublisher(publisher queue.Publisher, queueName string) Option {
	return func(m *Manager) {
		m.publisher = publisher
		m.queueName = queue.QueueName(queueName)
	}
}

func WithBulkConcurrency(n int) Option {
	return func(m *Manager) { m.bulkConcurrency = n }
}

// WithStrictValidation makes Queue reject recipients the target provider
// cannot deliver to before anything is published.
func WithStrictValidation(strict bool) Option {
	return func(m *Manager) { m.strict = strict }
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func NewManager(providers Resolver, opts ...Option) (*Manager, error) {
	if providers == nil {
		return nil, fmt.Errorf("%w: provider registry is required", domain.ErrConfiguration)
	}

	m := &Manager{
		providers:       providers,
		defaultProvider: provider.NameLog,
		queueName:       queue.DefaultQueue,
		bulkConcurrency: defaultBulkConcurrency,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.defaultProvider == "" {
		m.defaultProvider = provider.NameLog
	}
	if m.fallbackProvider == m.defaultProvider {
		m.fallbackProvider = ""
	}
	if m.bulkConcurrency < 1 {
		m.bulkConcurrency = defaultBulkConcurrency
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}

	return m, nil
}

func (m *Manager) DefaultProvider() string  { return m.defaultProvider }
func (m *Manager) FallbackProvider() string { return m.fallbackProvider }

// route is the provider pair a single call dispatches through. staged is
// set when the caller named the fallback itself.
type route struct {
	provider string
	fallback string
	staged   bool
}

func (m *Manager) route(providerName, fallbackName string) route {
	r := route{provider: normalizeName(providerName), fallback: normalizeName(fallbackName)}
	r.staged = r.fallback != ""
	if r.provider == "" {
		r.provider = m.defaultProvider
	}
	if r.fallback == "" {
		r.fallback = m.fallbackProvider
	}
	if r.fallback == r.provider {
		r.fallback = ""
	}
	return r
}

// Send dispatches through the default provider. to may be a single address,
// a list of addresses sharing message, or a structured list of entries.
func (m *Manager) Send(ctx context.Context, to any, message, from string) ([]domain.Response, error) {
	return m.send(ctx, m.route("", ""), to, message, from)
}

// SendWithFallback sends one message through the default provider and retries
// it once on the fallback provider when the first attempt fails with a
// reroutable code or an error.
func (m *Manager) SendWithFallback(ctx context.Context, to, message, from string) (domain.Response, error) {
	msgs, err := resolveMessages(to, message, from)
	if err != nil {
		return domain.Response{}, err
	}
	return m.withFallback(ctx, m.route("", ""), msgs[0])
}

// SendMessage sends msg through the named provider, or the default one when
// name is empty or "default", applying the configured fallback.
func (m *Manager) SendMessage(ctx context.Context, providerName string, msg domain.Message) (domain.Response, error) {
	if strings.EqualFold(strings.TrimSpace(providerName), queue.DefaultProvider) {
		providerName = ""
	}
	r := m.route(providerName, "")
	if r.fallback != "" {
		return m.withFallback(ctx, r, msg)
	}
	return m.sendVia(ctx, r.provider, msg)
}

// Queue publishes one job per resolved message and returns the job ids.
func (m *Manager) Queue(ctx context.Context, to any, message, from, queueName string) ([]string, error) {
	return m.queue(ctx, "", to, message, from, queueName)
}

func (m *Manager) send(ctx context.Context, r route, to any, message, from string) ([]domain.Response, error) {
	msgs, err := resolveMessages(to, message, from)
	if err != nil {
		return nil, err
	}

	if len(msgs) == 1 {
		if err := msgs[0].Validate(); err != nil {
			return []domain.Response{invalidFormat()}, nil
		}

		var resp domain.Response
		if r.fallback != "" && (r.staged || m.fallbackOnSend) {
			resp, err = m.withFallback(ctx, r, msgs[0])
		} else {
			resp, err = m.sendVia(ctx, r.provider, msgs[0])
		}
		if err != nil {
			return nil, err
		}
		return []domain.Response{resp}, nil
	}

	p, err := m.providers.Resolve(r.provider)
	if err != nil {
		return nil, err
	}
	return m.sendBulk(ctx, r.provider, p, msgs), nil
}

// sendBulk keeps input order. A recipient's error or invalid message fails
// only its own slot.
func (m *Manager) sendBulk(ctx context.Context, name string, p provider.Provider, msgs []domain.Message) []domain.Response {
	responses := make([]domain.Response, len(msgs))

	var g errgroup.Group
	g.SetLimit(m.bulkConcurrency)
	for i, msg := range msgs {
		g.Go(func() error {
			if err := msg.Validate(); err != nil {
				responses[i] = invalidFormat()
				return nil
			}

			resp, err := m.invoke(ctx, name, p, msg)
			if err != nil {
				resp = domain.Failed(domain.ErrCodeProviderError, err.Error(), nil)
			}
			responses[i] = resp
			return nil
		})
	}
	_ = g.Wait()

	return responses
}

func (m *Manager) withFallback(ctx context.Context, r route, msg domain.Message) (domain.Response, error) {
	resp, err := m.sendVia(ctx, r.provider, msg)
	if err == nil && !needsFallback(resp) {
		return resp, nil
	}
	if r.fallback == "" {
		return resp, err
	}

	if err != nil {
		m.logger.Warn("primary sms provider returned an error, trying fallback",
			zap.String("primary_provider", r.provider),
			zap.String("fallback_provider", r.fallback),
			zap.Error(err),
		)
	} else {
		m.logger.Warn("primary sms provider failed, trying fallback",
			zap.String("primary_provider", r.provider),
			zap.String("fallback_provider", r.fallback),
			zap.String("error", resp.ErrorMessage()),
		)
	}
	m.metrics.IncFallback(r.provider, r.fallback)

	// The retry is a new message so both attempts keep their own activity row.
	retry := domain.NewMessage(msg.To, msg.Body, msg.From, msg.Metadata)
	fallbackResp, fallbackErr := m.sendVia(ctx, r.fallback, retry)
	if fallbackErr == nil {
		return fallbackResp, nil
	}
	if err == nil {
		return domain.Response{}, fallbackErr
	}

	m.logger.Error("primary and fallback sms providers failed",
		zap.String("primary_provider", r.provider),
		zap.String("fallback_provider", r.fallback),
		zap.Error(err),
		zap.NamedError("fallback_error", fallbackErr),
	)
	return domain.Response{}, err
}

func invalidFormat() domain.Response {
	return domain.Failed(domain.ErrCodeInvalidMessageFormat, "Invalid message format", nil)
}

func needsFallback(resp domain.Response) bool {
	return resp.IsFailed() && domain.IsRerouteCode(resp.ErrorCode())
}

func (m *Manager) sendVia(ctx context.Context, name string, msg domain.Message) (domain.Response, error) {
	p, err := m.providers.Resolve(name)
	if err != nil {
		return domain.Response{}, err
	}
	return m.invoke(ctx, name, p, msg)
}

func (m *Manager) invoke(ctx context.Context, name string, p provider.Provider, msg domain.Message) (domain.Response, error) {
	if !m.admit(ctx, name) {
		return domain.Failed(
			domain.ErrCodeRateLimitExceeded,
			fmt.Sprintf("Rate limit exceeded for provider %s", name),
			nil,
		), nil
	}

	start := m.now()
	resp, err := p.Send(ctx, msg)
	m.metrics.ObserveSendDuration(name, m.now().Sub(start))
	return resp, err
}

// admit reports whether the limiter lets a send through. Limiter failures
// never block a send.
func (m *Manager) admit(ctx context.Context, name string) bool {
	if m.limiter == nil || permitted(ctx, name) {
		return true
	}

	allowed, err := m.limiter.Allow(ctx, name)
	if err != nil {
		m.logger.Warn("rate limiter check failed, allowing send",
			zap.String("provider", name),
			zap.Error(err),
		)
		return true
	}
	if !allowed {
		m.metrics.IncRateLimited(name)
	}
	return allowed
}

func (m *Manager) queue(ctx context.Context, providerName string, to any, message, from, queueName string) ([]string, error) {
	if m.publisher == nil {
		return nil, fmt.Errorf("%w: job queue is not configured", domain.ErrConfiguration)
	}

	msgs, err := resolveMessages(to, message, from)
	if err != nil {
		return nil, err
	}

	jobProvider := normalizeName(providerName)
	if m.strict {
		if err := m.validateRecipients(m.route(jobProvider, "").provider, msgs); err != nil {
			return nil, err
		}
	}

	target := m.queueName
	if strings.TrimSpace(queueName) != "" {
		target = queue.QueueName(queueName)
	}

	correlationID, _ := observability.CorrelationIDFromContext(ctx)
	jobIDs := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		job := queue.NewSendJob(msg, jobProvider, correlationID)
		if err := m.publisher.Publish(ctx, target, job); err != nil {
			m.logger.Error("failed to queue sms",
				zap.String("messageId", msg.ID),
				zap.String("queue", target),
				zap.Error(err),
			)
			return jobIDs, fmt.Errorf("failed to queue message %s: %w", msg.ID, err)
		}
		jobIDs = append(jobIDs, job.JobID)
	}

	return jobIDs, nil
}

func (m *Manager) validateRecipients(name string, msgs []domain.Message) error {
	p, err := m.providers.Resolve(name)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return err
		}
		if !p.ValidatePhoneNumber(msg.To) {
			return fmt.Errorf("%w: invalid phone number format for %s: %s", domain.ErrValidation, name, msg.To)
		}
	}
	return nil
}

// Balance returns the account balance of the named provider, or of the
// default one when name is empty.
func (m *Manager) Balance(ctx context.Context, name string) (float64, error) {
	name = m.route(name, "").provider
	p, err := m.providers.Resolve(name)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance from provider %q: %w", name, err)
	}
	return p.GetBalance(ctx), nil
}

func (m *Manager) DeliveryStatus(ctx context.Context, name, messageID string) (string, error) {
	name = m.route(name, "").provider
	p, err := m.providers.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("failed to get delivery status from provider %q: %w", name, err)
	}
	return p.GetDeliveryStatus(ctx, messageID), nil
}

func (m *Manager) Providers() []string {
	return m.providers.Names()
}

func (m *Manager) HasProvider(name string) bool {
	return m.providers.Has(normalizeName(name))
}

// Provider resolves the named provider, or the default one when name is empty.
func (m *Manager) Provider(name string) (provider.Provider, error) {
	return m.providers.Resolve(m.route(name, "").provider)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type permitKey struct{}

// withPermit marks ctx as already admitted by the rate limiter for provider,
// so the send it carries is not counted twice.
func withPermit(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, permitKey{}, normalizeName(provider))
}

func permitted(ctx context.Context, provider string) bool {
	name, ok := ctx.Value(permitKey{}).(string)
	return ok && name == normalizeName(provider)
}
