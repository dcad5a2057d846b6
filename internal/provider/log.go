package provider

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

const (
	StatusLogged = "logged"
	mockBalance  = 999.99
)

// logConfig has no keys; the adapter only needs the shared logger.
type logConfig struct{}

func (logConfig) transport() transportConfig { return transportConfig{} }

// Log writes messages to the application log instead of sending them.
type Log struct {
	*base[logConfig]
}

func NewLog(cfg Config, client *resty.Client, hooks Hooks) (*Log, error) {
	p := &Log{}
	b, err := newBase(baseOptions[logConfig]{
		name:    NameLog,
		phone:   anyPhone,
		gateway: p,
	}, cfg, client, hooks)
	if err != nil {
		return nil, err
	}
	p.base = b
	return p, nil
}

func (p *Log) sendRequest(_ context.Context, _ *state[logConfig], msg domain.Message) (map[string]any, error) {
	p.hooks.Log.Info("SMS would be sent",
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.String("message", msg.Body),
		zap.Any("metadata", msg.Metadata),
	)

	return map[string]any{
		"status":     StatusLogged,
		"message_id": generatedID(p.name),
		"to":         msg.To,
		"message":    msg.Body,
	}, nil
}

func (p *Log) parseResponse(payload map[string]any) domain.Response {
	return domain.Success(str(payload["message_id"]), StatusLogged, nil, payload)
}

func (p *Log) GetDeliveryStatus(context.Context, string) string {
	return StatusLogged
}

func (p *Log) GetBalance(context.Context) float64 {
	return mockBalance
}
