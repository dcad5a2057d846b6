package provider

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

var dhorolaErrors = map[string]string{
	"101":  "Message length error",
	"102":  "Invalid sender",
	"103":  "Authentication Failure",
	"104":  "User Invalid",
	"105":  "Wrong MSISDN",
	"106":  "Wrong API key",
	"107":  "User Suspended",
	"108":  "Ip Is Not Allow",
	"109":  "Api Is Not Allow",
	"1000": "Low balance",
	"2000": "Destination provider not available",
	"2300": "Destination Route Error",
	"3000": "Destination provider not available",
	"3300": "Internal Error",
	"4000": "Destination provider not available",
}

type dhorolaConfig struct {
	APIKey    string `env:"api_key" validate:"required"`
	SenderID  string `env:"sender_id" validate:"required"`
	BaseURI   string `env:"base_uri,default=https://api.dhorolasms.net" validate:"url"`
	Timeout   int    `env:"timeout,default=30"`
	VerifySSL bool   `env:"verify_ssl,default=true"`
}

func (c dhorolaConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

type Dhorola struct {
	*base[dhorolaConfig]
}

func NewDhorola(cfg Config, client *resty.Client, hooks Hooks) (*Dhorola, error) {
	p := &Dhorola{}
	b, err := newBase(baseOptions[dhorolaConfig]{
		name:      NameDhorola,
		countries: []string{"BD"},
		phone:     internationalPhone,
		gateway:   p,
	}, cfg, client, hooks)
	if err != nil {
		return nil, err
	}
	p.base = b
	return p, nil
}

func (p *Dhorola) sendRequest(ctx context.Context, st *state[dhorolaConfig], msg domain.Message) (map[string]any, error) {
	resp, err := st.request(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"apikey":  st.cfg.APIKey,
			"sender":  firstNonEmpty(msg.From, st.cfg.SenderID),
			"msisdn":  msg.To,
			"smstext": msg.Body,
		}).
		Get(st.url("/smsapiv3"))
	if err != nil {
		return nil, requestError(p.name, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	// An undecodable body is reported as an unknown error by parseResponse.
	payload, err := decodePayload(resp.Body())
	if err != nil {
		return map[string]any{}, nil
	}
	return payload, nil
}

func (p *Dhorola) parseResponse(payload map[string]any) domain.Response {
	first := firstObj(payload, "response")
	if first == nil || !has(first, "status") {
		return domain.Failed(domain.ErrCodeUnknown, "Unknown error occurred", payload)
	}

	if isZero(first["status"]) {
		messageID := firstNonEmpty(str(first["id"]), generatedID(p.name))
		return domain.Success(messageID, StatusSent, nil, payload)
	}

	code := str(first["status"])
	message, ok := dhorolaErrors[code]
	if !ok {
		message = "Error code: " + code
	}
	return domain.Failed(code, message, payload)
}

func (p *Dhorola) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetHeader("Accept", "application/json").
		SetQueryParam("apikey", st.cfg.APIKey).
		Get(st.url("/getbalancev3"))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("dhorola balance lookup failed", zap.Error(err))
		return 0
	}

	// {"response": "1234.50"}
	balance, ok := payload["response"].(string)
	if !ok {
		return 0
	}
	value, _ := num(balance)
	return value
}
