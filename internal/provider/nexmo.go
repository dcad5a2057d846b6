package provider

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

const nexmoStatusPending = "pending"

type nexmoConfig struct {
	APIKey    string `env:"api_key" validate:"required"`
	APISecret string `env:"api_secret" validate:"required"`
	From      string `env:"from" validate:"required"`
	ClientRef string `env:"client_ref"`
	BaseURI   string `env:"base_uri,default=https://rest.nexmo.com" validate:"url"`
	Timeout   int    `env:"timeout,default=30"`
	VerifySSL bool   `env:"verify_ssl,default=true"`
}

func (c nexmoConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

// Nexmo sends through the Vonage SMS API. Delivery reports arrive by webhook
// only, so status lookups always answer "pending".
type Nexmo struct {
	*base[nexmoConfig]
}

func NewNexmo(cfg Config, client *resty.Client, hooks Hooks) (*Nexmo, error) {
	p := &Nexmo{}
	b, err := newBase(baseOptions[nexmoConfig]{
		name:    NameNexmo,
		phone:   globalPhone,
		gateway: p,
	}, cfg, client, hooks)
	if err != nil {
		return nil, err
	}
	p.base = b
	return p, nil
}

func (p *Nexmo) sendRequest(ctx context.Context, st *state[nexmoConfig], msg domain.Message) (map[string]any, error) {
	form := map[string]string{
		"api_key":    st.cfg.APIKey,
		"api_secret": st.cfg.APISecret,
		"from":       firstNonEmpty(msg.From, st.cfg.From),
		"to":         strings.TrimPrefix(msg.To, "+"),
		"text":       msg.Body,
	}
	if st.cfg.ClientRef != "" {
		form["client-ref"] = st.cfg.ClientRef
	}

	resp, err := st.request(ctx).
		SetHeader("Accept", "application/json").
		SetFormData(form).
		Post(st.url("/sms/json"))
	return decodeResponse(p.name, resp, err)
}

func (p *Nexmo) parseResponse(payload map[string]any) domain.Response {
	raw := wrapRaw(p.name, payload)

	first := firstObj(payload, "messages")
	if first == nil {
		return domain.Failed(domain.ErrCodeInvalidResponse, "Invalid response format from Vonage SMS API", raw)
	}

	status := str(first["status"])
	if status == "0" && has(first, "message-id") {
		return domain.Success(str(first["message-id"]), "delivered", costOf(first["message-price"]), raw)
	}

	return domain.Failed(
		firstNonEmpty(status, domain.ErrCodeUnknown),
		firstNonEmpty(str(first["error-text"]), "Unknown Vonage error"),
		raw,
	)
}

func (p *Nexmo) GetDeliveryStatus(context.Context, string) string {
	return nexmoStatusPending
}

func (p *Nexmo) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"api_key":    st.cfg.APIKey,
			"api_secret": st.cfg.APISecret,
		}).
		Get(st.url("/account/get-balance"))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("nexmo balance lookup failed", zap.Error(err))
		return 0
	}

	balance, _ := num(payload["value"])
	return balance
}
