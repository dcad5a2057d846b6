package domain

import "time"

// Activity is one audited send, keyed by the Message ID.
type Activity struct {
	ID           string
	MessageID    string
	Provider     string
	To           string
	From         string
	Message      string
	Status       string
	Success      *bool
	ErrorCode    string
	ErrorMessage string
	Cost         *float64
	Metadata     map[string]any
	SentAt       *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	ActivityStatusSending = "sending"
	ActivityStatusSent    = "sent"
	ActivityStatusFailed  = "failed"
)

// ActivityFilter narrows activity listings and stats. Zero fields match all.
type ActivityFilter struct {
	Provider string
	Status   string
	Success  *bool
	Since    *time.Time
	Until    *time.Time
}

type ActivityStats struct {
	Total       int64   `json:"total"`
	Successful  int64   `json:"successful"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}
