package provider

import (
	"context"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

type esmsConfig struct {
	APIToken  string `env:"api_token" validate:"required"`
	SenderID  string `env:"sender_id" validate:"required"`
	BaseURI   string `env:"base_uri,default=https://login.esms.com.bd" validate:"url"`
	Timeout   int    `env:"timeout,default=30"`
	VerifySSL bool   `env:"verify_ssl,default=true"`
}

func (c esmsConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

type ESMS struct {
	*base[esmsConfig]
}

func NewESMS(cfg Config, client *resty.Client, hooks Hooks) (*ESMS, error) {
	p := &ESMS{}
	b, err := newBase(baseOptions[esmsConfig]{
		name:      NameESMS,
		countries: []string{"BD"},
		phone:     localPhone,
		gateway:   p,
	}, cfg, client, hooks)
	if err != nil {
		return nil, err
	}
	p.base = b
	return p, nil
}

func (p *ESMS) authorized(ctx context.Context, st *state[esmsConfig]) *resty.Request {
	return st.request(ctx).
		SetAuthToken(st.cfg.APIToken).
		SetHeader("Accept", "application/json")
}

func (p *ESMS) sendRequest(ctx context.Context, st *state[esmsConfig], msg domain.Message) (map[string]any, error) {
	resp, err := p.authorized(ctx, st).
		SetFormData(map[string]string{
			"recipient": msg.To,
			"sender_id": firstNonEmpty(msg.From, st.cfg.SenderID),
			"type":      "plain",
			"message":   msg.Body,
		}).
		Post(st.url("/api/v3/sms/send"))
	return decodeResponse(p.name, resp, err)
}

func (p *ESMS) parseResponse(payload map[string]any) domain.Response {
	raw := wrapRaw(p.name, payload)

	if str(payload["status"]) == "success" {
		data := obj(payload, "data")
		messageID := firstNonEmpty(str(data["message_id"]), str(data["uid"]), generatedID(p.name))
		return domain.Success(messageID, StatusSent, costOf(data["cost"]), raw)
	}

	return domain.Failed(
		firstNonEmpty(str(payload["error_code"]), "unknown"),
		firstNonEmpty(str(payload["message"]), "Unknown error occurred"),
		raw,
	)
}

func (p *ESMS) GetDeliveryStatus(ctx context.Context, messageID string) string {
	st := p.state.Load()
	resp, err := p.authorized(ctx, st).Get(st.url("/api/v3/sms/" + url.PathEscape(messageID)))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("esms status lookup failed", zap.String("messageId", messageID), zap.Error(err))
		return StatusUnknown
	}
	if str(payload["status"]) != "success" {
		return StatusUnknown
	}
	return firstNonEmpty(str(obj(payload, "data")["status"]), StatusUnknown)
}

func (p *ESMS) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := p.authorized(ctx, st).Get(st.url("/api/v3/balance"))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("esms balance lookup failed", zap.Error(err))
		return 0
	}
	if str(payload["status"]) != "success" {
		return 0
	}

	balance, _ := num(obj(payload, "data")["remaining_balance"])
	return balance
}
