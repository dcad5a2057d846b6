package provider

import (
	"context"
	"math"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

type twilioConfig struct {
	AccountSID string `env:"account_sid" validate:"required"`
	AuthToken  string `env:"auth_token" validate:"required"`
	From       string `env:"from" validate:"required"`
	BaseURI    string `env:"base_uri,default=https://api.twilio.com" validate:"url"`
	Timeout    int    `env:"timeout,default=30"`
	VerifySSL  bool   `env:"verify_ssl,default=true"`
}

func (c twilioConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

func (c twilioConfig) accountPath(suffix string) string {
	return "/2010-04-01/Accounts/" + url.PathEscape(c.AccountSID) + suffix
}

// Twilio uses the Programmable Messaging REST API with basic auth.
type Twilio struct {
	*base[twilioConfig]
}

func NewTwilio(cfg Config, client *resty.Client, hooks Hooks) (*Twilio, error) {
	p := &Twilio{}
	b, err := newBase(baseOptions[twilioConfig]{
		name:    NameTwilio,
		phone:   globalPhone,
		gateway: p,
	}, cfg, client, hooks)
	if err != nil {
		return nil, err
	}
	p.base = b
	return p, nil
}

func (p *Twilio) authorized(ctx context.Context, st *state[twilioConfig]) *resty.Request {
	return st.request(ctx).
		SetBasicAuth(st.cfg.AccountSID, st.cfg.AuthToken).
		SetHeader("Accept", "application/json")
}

func (p *Twilio) sendRequest(ctx context.Context, st *state[twilioConfig], msg domain.Message) (map[string]any, error) {
	resp, err := p.authorized(ctx, st).
		SetFormData(map[string]string{
			"To":   msg.To,
			"From": firstNonEmpty(msg.From, st.cfg.From),
			"Body": msg.Body,
		}).
		Post(st.url(st.cfg.accountPath("/Messages.json")))
	if err != nil {
		return nil, requestError(p.name, err)
	}

	// 4xx bodies carry {"code", "message"}; surface them as a vendor failure
	// instead of a transport error.
	code := resp.StatusCode()
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests {
		if payload, derr := decodePayload(resp.Body()); derr == nil && has(payload, "code") {
			return map[string]any{
				"error_code":    str(payload["code"]),
				"error_message": str(payload["message"]),
				"status":        payload["status"],
				"more_info":     payload["more_info"],
			}, nil
		}
	}

	return decodeResponse(p.name, resp, nil)
}

func (p *Twilio) parseResponse(payload map[string]any) domain.Response {
	raw := wrapRaw(p.name, payload)
	errorCode := str(payload["error_code"])
	errorMessage := str(payload["error_message"])

	if !has(payload, "sid") {
		if errorCode != "" {
			return domain.Failed(errorCode, firstNonEmpty(errorMessage, "Unknown Twilio error"), raw)
		}
		return domain.Failed(domain.ErrCodeInvalidResponse, "Invalid response format from Twilio API", raw)
	}

	if errorCode != "" || errorMessage != "" {
		return domain.Failed(firstNonEmpty(errorCode, "TWILIO_ERROR"), firstNonEmpty(errorMessage, "Unknown Twilio error"), raw)
	}

	var cost *float64
	if price, ok := num(payload["price"]); ok {
		price = math.Abs(price)
		cost = &price
	}
	return domain.Success(str(payload["sid"]), twilioStatus(str(payload["status"])), cost, raw)
}

func twilioStatus(status string) string {
	switch status {
	case "accepted", "queued", "sending":
		return "queued"
	case "sent", "delivered":
		return "delivered"
	case "failed", "undelivered":
		return "failed"
	default:
		return StatusUnknown
	}
}

func (p *Twilio) GetDeliveryStatus(ctx context.Context, messageID string) string {
	st := p.state.Load()
	resp, err := p.authorized(ctx, st).Get(st.url(st.cfg.accountPath("/Messages/" + url.PathEscape(messageID) + ".json")))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("twilio status lookup failed", zap.String("messageId", messageID), zap.Error(err))
		return StatusUnknown
	}
	return firstNonEmpty(str(payload["status"]), StatusUnknown)
}

func (p *Twilio) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := p.authorized(ctx, st).Get(st.url(st.cfg.accountPath("/Balance.json")))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("twilio balance lookup failed", zap.Error(err))
		return 0
	}

	balance, _ := num(payload["balance"])
	return balance
}
