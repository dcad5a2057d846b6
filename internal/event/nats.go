package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

const defaultSubjectPrefix = "textify"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type envelope struct {
	Event      string       `json:"event"`
	OccurredAt time.Time    `json:"occurredAt"`
	Payload    domain.Event `json:"payload"`
	Error      string       `json:"error,omitempty"`
}

var _ Sink = (*NATSSink)(nil)

// NATSSink publishes every event as JSON on <prefix>.<event name>.
type NATSSink struct {
	conn   Publisher
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

func NewNATSSink(conn Publisher, prefix string, logger *zap.Logger) *NATSSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}

	return &NATSSink{
		conn:   conn,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

func (s *NATSSink) Subject(name string) string {
	return s.prefix + "." + name
}

func (s *NATSSink) Publish(_ context.Context, evt domain.Event) {
	if s == nil || s.conn == nil || evt == nil {
		return
	}

	env := envelope{
		Event:      evt.EventName(),
		OccurredAt: s.now().UTC(),
		Payload:    evt,
	}
	switch e := evt.(type) {
	case domain.FailedEvent:
		if e.Cause != nil {
			env.Error = e.Cause.Error()
		}
	case domain.JobFailedEvent:
		if e.Err != nil {
			env.Error = e.Err.Error()
		}
	}

	body, err := json.Marshal(env)
	if err != nil {
		s.logger.Error("failed to encode event", zap.String("event", env.Event), zap.Error(err))
		return
	}

	if err := s.conn.Publish(s.Subject(env.Event), body); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("event", env.Event),
			zap.String("subject", s.Subject(env.Event)),
			zap.Error(err),
		)
	}
}
