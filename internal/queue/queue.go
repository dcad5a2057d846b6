package queue

import (
	"context"
	"fmt"
	"strings"
)

// Publisher publishes send jobs to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, job SendJob) error
	Close() error
}

// JobHandler handles a consumed send job.
type JobHandler func(ctx context.Context, job SendJob) error

// Consumer consumes send jobs from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler JobHandler) error
	Close() error
}

// DefaultQueue is the work queue used when the caller names none.
const DefaultQueue = "sms"

// QueueName normalizes a caller supplied queue name, e.g. " SMS " -> sms.
func QueueName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultQueue
	}
	return name
}

// DLQName returns the dead-letter queue name for a work queue, e.g. dlq.sms.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", QueueName(queue))
}
