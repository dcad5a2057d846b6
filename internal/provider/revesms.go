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

const reveSMSDefaultSender = "REVESMS"

var reveSMSAmountPattern = regexp.MustCompile(`[\d.]+`)

var reveSMSErrors = map[string]string{
	"109": "User not provided/Deleted",
	"108": "Wrong password/not provided",
	"114": "Content not provided",
	"101": "Internal server error",
	"1":   "Request failed",
	"-42": "Authorization failed",
}

var reveSMSDeliveryStatuses = map[string]string{
	"0":   "delivered",
	"2":   "pending",
	"4":   "sent",
	"1":   "failed",
	"109": "failed",
	"108": "failed",
	"114": "failed",
	"101": "failed",
	"-42": "failed",
}

type reveSMSConfig struct {
	APIKey     string `env:"apikey" validate:"required"`
	SecretKey  string `env:"secretkey" validate:"required"`
	ClientID   string `env:"client_id" validate:"required"`
	SenderID   string `env:"sender_id"`
	BaseURI    string `env:"base_uri,default=https://smpp.revesms.com:7790" validate:"url"`
	BalanceURI string `env:"balance_uri,default=https://smpp.revesms.com" validate:"url"`
	Timeout    int    `env:"timeout,default=30"`
	VerifySSL  bool   `env:"verify_ssl,default=true"`
}

func (c reveSMSConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

// ReveSMS sends through the REVE SMPP gateway. Balance lives on a separate
// host configured by balance_uri.
type ReveSMS struct {
	*base[reveSMSConfig]
}

func NewReveSMS(cfg Config, client *resty.Client, hooks Hooks) (*ReveSMS, error) {
	p := &ReveSMS{}
	b, err := newBase(baseOptions[reveSMSConfig]{
		name:      NameReveSMS,
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

func (p *ReveSMS) sendRequest(ctx context.Context, st *state[reveSMSConfig], msg domain.Message) (map[string]any, error) {
	resp, err := st.request(ctx).
		SetQueryParams(map[string]string{
			"apikey":         st.cfg.APIKey,
			"secretkey":      st.cfg.SecretKey,
			"callerID":       firstNonEmpty(msg.From, st.cfg.SenderID, reveSMSDefaultSender),
			"toUser":         msg.To,
			"messageContent": msg.Body,
		}).
		Get(st.url("/sendtext"))
	return decodeResponse(p.name, resp, err)
}

func (p *ReveSMS) parseResponse(payload map[string]any) domain.Response {
	raw := wrapRaw(p.name, payload)

	code := str(payload["Status"])
	if code == "0" {
		messageID := firstNonEmpty(str(payload["Message_ID"]), generatedID(p.name))
		return domain.Success(messageID, StatusSent, nil, raw)
	}

	message, ok := reveSMSErrors[code]
	if !ok {
		message = firstNonEmpty(str(payload["Text"]), "Unknown error occurred")
	}
	return domain.Failed(firstNonEmpty(code, "unknown"), message, raw)
}

func (p *ReveSMS) GetDeliveryStatus(ctx context.Context, messageID string) string {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetQueryParams(map[string]string{
			"apikey":    st.cfg.APIKey,
			"secretkey": st.cfg.SecretKey,
			"messageid": messageID,
		}).
		Get(st.url("/getstatus"))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("revesms status lookup failed", zap.String("messageId", messageID), zap.Error(err))
		return StatusUnknown
	}

	status, ok := reveSMSDeliveryStatuses[str(payload["Status"])]
	if !ok {
		return StatusUnknown
	}
	return status
}

func (p *ReveSMS) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetQueryParam("client", st.cfg.ClientID).
		Get(strings.TrimRight(st.cfg.BalanceURI, "/") + "/sms/smsConfiguration/smsClientBalance.jsp")
	if err == nil {
		err = statusError(resp)
	}
	if err != nil {
		p.hooks.Log.Debug("revesms balance lookup failed", zap.Error(err))
		return 0
	}

	body := strings.TrimSpace(resp.String())
	if balance, err := strconv.ParseFloat(body, 64); err == nil {
		return balance
	}
	if match := reveSMSAmountPattern.FindString(body); match != "" {
		balance, _ := strconv.ParseFloat(match, 64)
		return balance
	}
	return 0
}
