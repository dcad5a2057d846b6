package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	appID       = "textify"
	sendJobType = "textify.sms.send"
)

// RabbitMQPublisher publishes sms jobs with publisher confirms, so a nil
// error means the broker has taken the job.
type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, queue string, job SendJob) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	queue = QueueName(queue)

	publishing, err := job.publishing()
	if err != nil {
		return err
	}

	ch, err := p.client.channel(ctx, queue)
	if err != nil {
		return err
	}
	defer ch.Close() //nolint:errcheck

	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, publishing)
	if err != nil {
		return fmt.Errorf("failed to publish sms job to queue %q: %w", queue, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for broker confirm of sms job %s: %w", job.JobID, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected sms job %s on queue %q", job.JobID, queue)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (j SendJob) publishing() (amqp.Publishing, error) {
	if err := j.Validate(); err != nil {
		return amqp.Publishing{}, fmt.Errorf("invalid send job: %w", err)
	}
	body, err := json.Marshal(j)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal send job: %w", err)
	}

	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     j.QueuedAt,
		MessageId:     j.JobID,
		CorrelationId: j.CorrelationID,
		Type:          sendJobType,
		AppId:         appID,
		Headers: amqp.Table{
			"x-provider":   j.Provider,
			"x-message-id": j.MessageID,
			"x-attempts":   int32(j.Attempts),
		},
		Body: body,
	}, nil
}
