package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/event"
	"github.com/kursadbilgin/textify/internal/observability"
	"github.com/kursadbilgin/textify/internal/queue"
	"github.com/kursadbilgin/textify/internal/ratelimit"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minWorkerConcurrency = 1
	defaultMaxAttempts   = 3
	maxRetryDelay        = 60 * time.Second
	baseRetryDelay       = time.Second
	maxRetryJitterMillis = 250
)

// MessageSender sends a queued message through a named provider.
type MessageSender interface {
	SendMessage(ctx context.Context, provider string, msg domain.Message) (domain.Response, error)
	DefaultProvider() string
}

type WorkerConfig struct {
	Queue       string
	MaxAttempts int
	Concurrency int
}

type WorkerService struct {
	consumer    queue.Consumer
	publisher   queue.Publisher
	sender      MessageSender
	rateLimiter ratelimit.RateLimiter
	events      event.Sink
	logger      *zap.Logger
	metrics     *observability.Metrics
	queueName   string
	maxAttempts int
	concurrency int
	now         func() time.Time
	randIntn    func(n int) int
	sleep       func(ctx context.Context, d time.Duration) error
}

func NewWorkerService(
	consumer queue.Consumer,
	publisher queue.Publisher,
	sender MessageSender,
	rateLimiter ratelimit.RateLimiter,
	events event.Sink,
	cfg WorkerConfig,
	logger *zap.Logger,
) (*WorkerService, error) {
	if consumer == nil || publisher == nil || sender == nil {
		return nil, fmt.Errorf("%w: worker needs a consumer, a publisher and a sender", domain.ErrConfiguration)
	}
	if cfg.Concurrency < minWorkerConcurrency {
		cfg.Concurrency = minWorkerConcurrency
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if events == nil {
		events = event.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		consumer:    consumer,
		publisher:   publisher,
		sender:      sender,
		rateLimiter: rateLimiter,
		events:      events,
		logger:      logger,
		queueName:   queue.QueueName(cfg.Queue),
		maxAttempts: cfg.MaxAttempts,
		concurrency: cfg.Concurrency,
		now:         time.Now,
		randIntn:    rand.Intn,
		sleep:       sleepContext,
	}, nil
}

// Start consumes the work queue and processes send jobs until context cancellation.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", s.queueName),
			)

			err := s.consumer.Consume(groupCtx, s.queueName, s.processJob)
			if err != nil {
				s.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", s.queueName),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", s.queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

// processJob returns an error only when the delivery should be requeued as is.
func (s *WorkerService) processJob(ctx context.Context, job queue.SendJob) error {
	if err := job.Validate(); err != nil {
		s.logger.Warn("dropping invalid send job",
			zap.String("jobId", job.JobID),
			zap.Error(err),
		)
		return nil
	}

	providerName := job.Provider
	if job.UsesDefaultProvider() {
		providerName = s.sender.DefaultProvider()
	}

	ctx = observability.WithCorrelationID(ctx, job.CorrelationID)
	logger := observability.WithContextLogger(s.logger, ctx)

	s.metrics.IncWorkerInFlight(providerName)
	defer s.metrics.DecWorkerInFlight(providerName)

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, providerName); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
		ctx = withPermit(ctx, providerName)
	}

	msg := job.Message()
	attempt := job.Attempts + 1
	resp, sendErr := s.sender.SendMessage(ctx, job.Provider, msg)
	if sendErr == nil && resp.IsSuccessful() {
		return nil
	}
	if sendErr == nil && !domain.IsRerouteCode(resp.ErrorCode()) {
		logger.Warn("sms job failed permanently",
			zap.String("jobId", job.JobID),
			zap.String("messageId", msg.ID),
			zap.String("provider", providerName),
			zap.String("errorCode", resp.ErrorCode()),
			zap.String("error", resp.ErrorMessage()),
		)
		return nil
	}

	cause := sendErr
	if cause == nil {
		cause = &domain.CodedError{Code: resp.ErrorCode(), Message: resp.ErrorMessage()}
	}

	if attempt >= s.maxAttempts {
		s.fail(ctx, logger, job, providerName, attempt, cause)
		return nil
	}

	if err := s.sleep(ctx, s.computeRetryDelay(attempt)); err != nil {
		return err
	}

	retry := job
	retry.Attempts = attempt
	if err := s.publisher.Publish(ctx, s.queueName, retry); err != nil {
		return fmt.Errorf("failed to requeue send job: %w", err)
	}
	s.metrics.IncJobRetried(providerName)

	logger.Info("sms job scheduled for retry",
		zap.String("jobId", job.JobID),
		zap.String("provider", providerName),
		zap.Int("attempt", attempt),
		zap.Error(cause),
	)
	return nil
}

func (s *WorkerService) fail(
	ctx context.Context,
	logger *zap.Logger,
	job queue.SendJob,
	providerName string,
	attempts int,
	cause error,
) {
	msg := job.Message()
	logger.Error("textify job failed",
		zap.String("jobId", job.JobID),
		zap.String("message_id", msg.ID),
		zap.String("to", msg.To),
		zap.String("provider", providerName),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	)

	s.events.Publish(ctx, domain.JobFailedEvent{
		Message:  msg,
		Provider: providerName,
		Err:      cause,
		Attempts: attempts,
		FailedAt: s.now().UTC(),
	})
}

func (s *WorkerService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *WorkerService) computeRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber < 1 {
		attemptNumber = 1
	}

	delay := baseRetryDelay
	for i := 1; i < attemptNumber; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			delay = maxRetryDelay
			break
		}
	}

	jitterMillis := 0
	if s.randIntn != nil && maxRetryJitterMillis > 0 {
		jitterMillis = s.randIntn(maxRetryJitterMillis + 1)
	}

	return delay + time.Duration(jitterMillis)*time.Millisecond
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
