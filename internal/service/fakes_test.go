package service

import (
	"context"
	"sync"

	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/provider"
	"github.com/kursadbilgin/textify/internal/queue"
)

type fakeProvider struct {
	name      string
	sendFn    func(ctx context.Context, msg domain.Message) (domain.Response, error)
	validFn   func(raw string) bool
	balance   float64
	statusFn  func(messageID string) string
	mu        sync.Mutex
	sentCount int
	sent      []domain.Message
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) ValidatePhoneNumber(raw string) bool {
	if f.validFn != nil {
		return f.validFn(raw)
	}
	return raw != ""
}

func (f *fakeProvider) FormatPhoneNumber(raw string) string { return raw }

func (f *fakeProvider) Send(ctx context.Context, msg domain.Message) (domain.Response, error) {
	f.mu.Lock()
	f.sentCount++
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return domain.Success(f.name+"-"+msg.To, "", nil, nil), nil
}

func (f *fakeProvider) SendBulk(ctx context.Context, msgs []domain.Message) []domain.Response {
	responses := make([]domain.Response, 0, len(msgs))
	for _, msg := range msgs {
		resp, _ := f.Send(ctx, msg)
		responses = append(responses, resp)
	}
	return responses
}

func (f *fakeProvider) GetDeliveryStatus(_ context.Context, messageID string) string {
	if f.statusFn != nil {
		return f.statusFn(messageID)
	}
	return provider.StatusUnknown
}

func (f *fakeProvider) GetBalance(context.Context) float64 { return f.balance }

func (f *fakeProvider) SupportsCountry(string) bool { return true }

func (f *fakeProvider) Config() provider.Config { return provider.Config{} }

func (f *fakeProvider) SetConfig(provider.Config) error { return nil }

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sentCount
}

func (f *fakeProvider) messages() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Message(nil), f.sent...)
}

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, provider string) (bool, error)
	waitFn  func(ctx context.Context, provider string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, provider string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, provider)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, provider string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, provider)
	}
	return nil
}

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, job queue.SendJob) error
	mu        sync.Mutex
	published []publishedJob
}

type publishedJob struct {
	queue string
	job   queue.SendJob
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, job queue.SendJob) error {
	if f.publishFn != nil {
		if err := f.publishFn(ctx, queueName, job); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.published = append(f.published, publishedJob{queue: queueName, job: job})
	f.mu.Unlock()
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) jobs() []publishedJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedJob(nil), f.published...)
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.JobHandler) error
	closeFn   func() error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.JobHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}

func (f *fakeConsumer) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeSender struct {
	defaultName string
	sendFn      func(ctx context.Context, provider string, msg domain.Message) (domain.Response, error)
}

func (f *fakeSender) SendMessage(ctx context.Context, provider string, msg domain.Message) (domain.Response, error) {
	if f.sendFn != nil {
		return f.sendFn(ctx, provider, msg)
	}
	return domain.Success("ok", "", nil, nil), nil
}

func (f *fakeSender) DefaultProvider() string { return f.defaultName }

type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingSink) Publish(_ context.Context, evt domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingSink) list() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}
