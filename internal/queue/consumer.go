package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// disposition is what happens to a delivery once its job has been handled.
type disposition int

const (
	dispositionAck disposition = iota
	// dispositionDeadLetter rejects without requeue; the queue's DLX moves
	// the delivery to dlq.<queue>.
	dispositionDeadLetter
	dispositionRequeue
)

type RabbitMQConsumer struct {
	client   *RabbitMQ
	prefetch int
	logger   *zap.Logger
}

func NewRabbitMQConsumer(client *RabbitMQ, prefetch int, logger *zap.Logger) *RabbitMQConsumer {
	if prefetch < 1 {
		prefetch = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RabbitMQConsumer{
		client:   client,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Consume delivers sms jobs from queue to handler until ctx ends, resuming
// with backoff whenever the broker connection drops.
func (c *RabbitMQConsumer) Consume(ctx context.Context, queue string, handler JobHandler) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("consumer is not initialized")
	}
	if handler == nil {
		return fmt.Errorf("job handler is required")
	}
	queue = QueueName(queue)

	backoff := reconnectBackoff
	for {
		err := c.consumeOnce(ctx, queue, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = reconnectBackoff
			continue
		}

		c.logger.Warn("sms job consumer interrupted, resuming",
			zap.String("queue", queue),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

func (c *RabbitMQConsumer) consumeOnce(ctx context.Context, queue string, handler JobHandler) error {
	ch, err := c.client.channel(ctx, queue)
	if err != nil {
		return err
	}
	defer ch.Close() //nolint:errcheck

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume queue %q: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			if err := c.settle(d, c.handle(ctx, d.Body, d.CorrelationId, handler)); err != nil {
				return err
			}
		}
	}
}

// handle decodes one delivery body and runs handler on it. Payloads that can
// never succeed are dead-lettered; a handler error requeues the delivery.
func (c *RabbitMQConsumer) handle(ctx context.Context, body []byte, correlationID string, handler JobHandler) disposition {
	job, err := DecodeSendJob(body)
	if err != nil {
		c.logger.Warn("dead-lettering sms job: invalid payload", zap.Error(err))
		return dispositionDeadLetter
	}
	if job.CorrelationID == "" {
		job.CorrelationID = correlationID
	}

	if err := handler(ctx, job); err != nil {
		c.logger.Warn("sms job handler failed, requeueing",
			zap.String("jobId", job.JobID),
			zap.String("messageId", job.MessageID),
			zap.Error(err),
		)
		return dispositionRequeue
	}
	return dispositionAck
}

func (c *RabbitMQConsumer) settle(d amqp.Delivery, disp disposition) error {
	switch disp {
	case dispositionDeadLetter:
		if err := d.Reject(false); err != nil {
			return fmt.Errorf("failed to dead-letter delivery: %w", err)
		}
	case dispositionRequeue:
		if err := d.Nack(false, true); err != nil {
			return fmt.Errorf("failed to requeue delivery: %w", err)
		}
	default:
		if err := d.Ack(false); err != nil {
			return fmt.Errorf("failed to ack delivery: %w", err)
		}
	}
	return nil
}

func (c *RabbitMQConsumer) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
