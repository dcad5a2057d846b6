package repository

import (
	"encoding/json"
	"time"

	"github.com/kursadbilgin/textify/internal/domain"
)

// ActivityModel is the persistence model for the textify_activities table.
type ActivityModel struct {
	ID           string     `gorm:"type:uuid;primaryKey"`
	MessageID    string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	Provider     string     `gorm:"type:varchar(50);not null;index"`
	To           string     `gorm:"column:to;type:varchar(32);not null"`
	From         *string    `gorm:"column:from;type:varchar(64)"`
	Message      string     `gorm:"type:text;not null"`
	Status       string     `gorm:"type:varchar(20);not null;index"`
	Success      *bool      `gorm:"index"`
	ErrorCode    *string    `gorm:"type:varchar(64)"`
	ErrorMessage *string    `gorm:"type:text"`
	Cost         *float64   `gorm:"type:numeric(10,4)"`
	Metadata     *string    `gorm:"type:jsonb"`
	SentAt       *time.Time `gorm:"type:timestamptz"`
	CreatedAt    time.Time  `gorm:"index"`
	UpdatedAt    time.Time
}

func (ActivityModel) TableName() string {
	return "textify_activities"
}

func activityModelFromDomain(a *domain.Activity) (*ActivityModel, error) {
	if a == nil {
		return nil, nil
	}

	metadata, err := encodeMetadata(a.Metadata)
	if err != nil {
		return nil, err
	}

	return &ActivityModel{
		ID:           a.ID,
		MessageID:    a.MessageID,
		Provider:     a.Provider,
		To:           a.To,
		From:         optionalString(a.From),
		Message:      a.Message,
		Status:       a.Status,
		Success:      a.Success,
		ErrorCode:    optionalString(a.ErrorCode),
		ErrorMessage: optionalString(a.ErrorMessage),
		Cost:         a.Cost,
		Metadata:     metadata,
		SentAt:       a.SentAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}, nil
}

func activityModelToDomain(m *ActivityModel) *domain.Activity {
	if m == nil {
		return nil
	}

	return &domain.Activity{
		ID:           m.ID,
		MessageID:    m.MessageID,
		Provider:     m.Provider,
		To:           m.To,
		From:         stringValue(m.From),
		Message:      m.Message,
		Status:       m.Status,
		Success:      m.Success,
		ErrorCode:    stringValue(m.ErrorCode),
		ErrorMessage: stringValue(m.ErrorMessage),
		Cost:         m.Cost,
		Metadata:     decodeMetadata(m.Metadata),
		SentAt:       m.SentAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func encodeMetadata(metadata map[string]any) (*string, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	value := string(raw)
	return &value, nil
}

func decodeMetadata(raw *string) map[string]any {
	if raw == nil || *raw == "" {
		return nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(*raw), &metadata); err != nil {
		return nil
	}
	return metadata
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
