package queue

import (
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/textify/internal/domain"
)

// DefaultProvider marks a job that should go through the manager's default
// provider.
const DefaultProvider = "default"

// SendJob is the broker payload for a deferred send.
type SendJob struct {
	JobID         string         `json:"jobId"`
	MessageID     string         `json:"messageId"`
	To            string         `json:"to"`
	Body          string         `json:"message"`
	From          string         `json:"from,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Provider      string         `json:"provider"`
	Attempts      int            `json:"attempts"`
	CorrelationID string         `json:"correlationId,omitempty"`
	QueuedAt      time.Time      `json:"queuedAt"`
}

// NewSendJob wraps msg for provider. An empty provider means the default one.
func NewSendJob(msg domain.Message, provider, correlationID string) SendJob {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		provider = DefaultProvider
	}
	if strings.TrimSpace(correlationID) == "" {
		correlationID = uuid.NewString()
	}

	return SendJob{
		JobID:         uuid.NewString(),
		MessageID:     msg.ID,
		To:            msg.To,
		Body:          msg.Body,
		From:          msg.From,
		Metadata:      maps.Clone(msg.Metadata),
		Provider:      provider,
		CorrelationID: correlationID,
		QueuedAt:      time.Now().UTC(),
	}
}

// Message rebuilds the domain message, keeping its original id.
func (j SendJob) Message() domain.Message {
	return domain.Message{
		ID:       j.MessageID,
		To:       j.To,
		Body:     j.Body,
		From:     j.From,
		Metadata: maps.Clone(j.Metadata),
	}
}

// UsesDefaultProvider reports whether the job names no specific provider.
func (j SendJob) UsesDefaultProvider() bool {
	p := strings.TrimSpace(j.Provider)
	return p == "" || strings.EqualFold(p, DefaultProvider)
}

func (j SendJob) Validate() error {
	if strings.TrimSpace(j.JobID) == "" {
		return fmt.Errorf("jobId is required")
	}
	if strings.TrimSpace(j.To) == "" {
		return fmt.Errorf("to is required")
	}
	if strings.TrimSpace(j.Body) == "" {
		return fmt.Errorf("message is required")
	}
	if j.Attempts < 0 {
		return fmt.Errorf("attempts must not be negative")
	}
	return nil
}

// DecodeSendJob parses and validates a broker payload.
func DecodeSendJob(body []byte) (SendJob, error) {
	var job SendJob
	if err := json.Unmarshal(body, &job); err != nil {
		return SendJob{}, fmt.Errorf("decode send job: %w", err)
	}
	if err := job.Validate(); err != nil {
		return SendJob{}, fmt.Errorf("invalid send job: %w", err)
	}
	return job, nil
}
