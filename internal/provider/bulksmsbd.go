package provider

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

var (
	bulkSMSBDCodePattern   = regexp.MustCompile(`(\d{4})`)
	bulkSMSBDAmountPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

var bulkSMSBDErrors = map[string]string{
	"1002": "Sender id not correct/sender id is disabled",
	"1003": "Please Required all fields/Contact Your System Administrator",
	"1005": "Internal Error",
	"1006": "Balance Validity Not Available",
	"1007": "Balance Insufficient",
	"1011": "User Id not found",
}

type bulkSMSBDConfig struct {
	APIKey    string `env:"api_key" validate:"required"`
	SenderID  string `env:"sender_id" validate:"required"`
	BaseURI   string `env:"base_uri,default=http://bulksmsbd.net" validate:"url"`
	Timeout   int    `env:"timeout,default=30"`
	VerifySSL bool   `env:"verify_ssl,default=false"`
}

func (c bulkSMSBDConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

// BulkSMSBD answers in plain text or JSON depending on the account, so both
// are handled.
type BulkSMSBD struct {
	*base[bulkSMSBDConfig]
}

func NewBulkSMSBD(cfg Config, client *resty.Client, hooks Hooks) (*BulkSMSBD, error) {
	p := &BulkSMSBD{}
	b, err := newBase(baseOptions[bulkSMSBDConfig]{
		name:      NameBulkSMSBD,
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

func (p *BulkSMSBD) sendRequest(ctx context.Context, st *state[bulkSMSBDConfig], msg domain.Message) (map[string]any, error) {
	resp, err := st.request(ctx).
		SetHeader("Accept", "text/plain,application/json").
		SetQueryParams(map[string]string{
			"api_key":  st.cfg.APIKey,
			"type":     "text",
			"number":   msg.To,
			"senderid": firstNonEmpty(msg.From, st.cfg.SenderID),
			"message":  msg.Body,
		}).
		Get(st.url("/api/smsapi"))
	if err != nil {
		return nil, requestError(p.name, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}

	if payload, err := decodePayload(resp.Body()); err == nil {
		return payload, nil
	}
	return map[string]any{"response": strings.TrimSpace(resp.String())}, nil
}

func (p *BulkSMSBD) parseResponse(payload map[string]any) domain.Response {
	if has(payload, "response") {
		text := str(payload["response"])
		if strings.Contains(text, "202") || strings.Contains(strings.ToLower(text), "success") {
			return domain.Success(generatedID(p.name), StatusSent, nil, payload)
		}

		code := domain.ErrCodeUnknown
		message := text
		if match := bulkSMSBDCodePattern.FindStringSubmatch(text); match != nil {
			code = match[1]
			if known, ok := bulkSMSBDErrors[code]; ok {
				message = known
			}
		}
		return domain.Failed(code, message, payload)
	}

	if status, ok := num(payload["status_code"]); ok && status == 202 {
		messageID := firstNonEmpty(str(payload["message_id"]), generatedID(p.name))
		return domain.Success(messageID, StatusSent, nil, payload)
	}

	return domain.Failed(
		firstNonEmpty(str(payload["status_code"]), str(payload["code"]), domain.ErrCodeUnknown),
		firstNonEmpty(str(payload["error"]), str(payload["message"]), "Unknown error occurred"),
		payload,
	)
}

func (p *BulkSMSBD) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetQueryParam("api_key", st.cfg.APIKey).
		Get(st.url("/api/getBalanceApi"))
	if err == nil {
		err = statusError(resp)
	}
	if err != nil {
		p.hooks.Log.Debug("bulksmsbd balance lookup failed", zap.Error(err))
		return 0
	}

	if payload, err := decodePayload(resp.Body()); err == nil && has(payload, "balance") {
		balance, _ := num(payload["balance"])
		return balance
	}

	if match := bulkSMSBDAmountPattern.FindStringSubmatch(resp.String()); match != nil {
		balance, _ := strconv.ParseFloat(match[1], 64)
		return balance
	}
	return 0
}
