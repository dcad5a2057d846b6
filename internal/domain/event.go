package domain

import (
	"errors"
	"time"
)

// Event is a send lifecycle notification delivered to event sinks.
type Event interface {
	EventName() string
}

const (
	EventSending   = "sending"
	EventSent      = "sent"
	EventFailed    = "failed"
	EventJobFailed = "job_failed"
)

type SendingEvent struct {
	Message  Message `json:"message"`
	Provider string  `json:"provider"`
}

func (SendingEvent) EventName() string { return EventSending }

type SentEvent struct {
	Message  Message  `json:"message"`
	Response Response `json:"response"`
	Provider string   `json:"provider"`
}

func (SentEvent) EventName() string { return EventSent }

type FailedEvent struct {
	Message  Message  `json:"message"`
	Response Response `json:"response"`
	Provider string   `json:"provider"`
	Cause    error    `json:"-"`
}

func (FailedEvent) EventName() string { return EventFailed }

// JobFailedEvent is emitted once a queued send has exhausted its attempts.
type JobFailedEvent struct {
	Message  Message   `json:"message"`
	Provider string    `json:"provider"`
	Err      error     `json:"-"`
	Attempts int       `json:"attempts"`
	FailedAt time.Time `json:"failedAt"`
}

func (JobFailedEvent) EventName() string { return EventJobFailed }

func (e JobFailedEvent) Metadata() map[string]any {
	errorMessage := ""
	if e.Err != nil {
		errorMessage = e.Err.Error()
	}

	return map[string]any{
		"message_id":    e.Message.ID,
		"recipient":     e.Message.To,
		"message":       e.Message.Body,
		"sender":        e.Message.From,
		"provider":      e.Provider,
		"attempts":      e.Attempts,
		"error_message": errorMessage,
		"error_code":    errorCode(e.Err),
		"failed_at":     e.FailedAt.UTC().Format(time.RFC3339),
	}
}

// CodedError carries a response error code through an error chain.
type CodedError struct {
	Code    string
	Message string
}

func (e *CodedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func errorCode(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}
