package provider

import (
	"context"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

type alphaSMSConfig struct {
	APIKey    string `env:"api_key" validate:"required"`
	SenderID  string `env:"sender_id"`
	BaseURI   string `env:"base_uri,default=https://api.sms.net.bd" validate:"url"`
	Timeout   int    `env:"timeout,default=30"`
	VerifySSL bool   `env:"verify_ssl,default=true"`
}

func (c alphaSMSConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

// AlphaSMS talks to the sms.net.bd API. It accepts both the local and the
// international number shape.
type AlphaSMS struct {
	*base[alphaSMSConfig]
}

func NewAlphaSMS(cfg Config, client *resty.Client, hooks Hooks) (*AlphaSMS, error) {
	p := &AlphaSMS{}
	b, err := newBase(baseOptions[alphaSMSConfig]{
		name:      NameAlphaSMS,
		countries: []string{"BD"},
		phone:     lenientPhone,
		gateway:   p,
	}, cfg, client, hooks)
	if err != nil {
		return nil, err
	}
	p.base = b
	return p, nil
}

func (p *AlphaSMS) sendRequest(ctx context.Context, st *state[alphaSMSConfig], msg domain.Message) (map[string]any, error) {
	form := map[string]string{
		"api_key": st.cfg.APIKey,
		"to":      msg.To,
		"msg":     msg.Body,
	}
	if sender := firstNonEmpty(msg.From, st.cfg.SenderID); sender != "" {
		form["sender_id"] = sender
	}

	resp, err := st.request(ctx).
		SetHeader("Accept", "application/json").
		SetFormData(form).
		Post(st.url("/sendsms"))
	return decodeResponse(p.name, resp, err)
}

func (p *AlphaSMS) parseResponse(payload map[string]any) domain.Response {
	raw := wrapRaw(p.name, payload)

	if has(payload, "error") && isZero(payload["error"]) {
		messageID := str(obj(payload, "data")["request_id"])
		if messageID == "" {
			messageID = generatedID(p.name)
		}
		return domain.Success(messageID, StatusSent, nil, raw)
	}

	return domain.Failed(
		firstNonEmpty(str(payload["error"]), "unknown"),
		firstNonEmpty(str(payload["msg"]), "Unknown error occurred"),
		raw,
	)
}

func (p *AlphaSMS) GetDeliveryStatus(ctx context.Context, messageID string) string {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("api_key", st.cfg.APIKey).
		Get(st.url("/report/request/" + url.PathEscape(messageID) + "/"))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("alphasms status lookup failed", zap.String("messageId", messageID), zap.Error(err))
		return StatusUnknown
	}
	if !has(payload, "error") || !isZero(payload["error"]) {
		return StatusUnknown
	}

	data := obj(payload, "data")
	if status := str(data["request_status"]); status != "" {
		return strings.ToLower(status)
	}
	if recipient := firstObj(data, "recipients"); recipient != nil {
		if status := str(recipient["status"]); status != "" {
			return strings.ToLower(status)
		}
	}
	return StatusUnknown
}

func (p *AlphaSMS) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("api_key", st.cfg.APIKey).
		Get(st.url("/user/balance/"))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("alphasms balance lookup failed", zap.Error(err))
		return 0
	}
	if !has(payload, "error") || !isZero(payload["error"]) {
		return 0
	}

	balance, _ := num(obj(payload, "data")["balance"])
	return balance
}
