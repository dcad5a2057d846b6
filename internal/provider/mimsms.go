package provider

import (
	"context"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

const (
	mimSMSDefaultSender = "MiMSMS"
	mimSMSPromotional   = "P"
)

type mimSMSConfig struct {
	Username        string `env:"username" validate:"required"`
	APIKey          string `env:"apikey" validate:"required"`
	SenderID        string `env:"sender_id"`
	TransactionType string `env:"transaction_type,default=T" validate:"oneof=T P D"`
	CampaignID      string `env:"campaign_id"`
	BaseURI         string `env:"base_uri,default=https://api.mimsms.com" validate:"url"`
	Timeout         int    `env:"timeout,default=30"`
	VerifySSL       bool   `env:"verify_ssl,default=true"`
}

func (c mimSMSConfig) transport() transportConfig {
	return transportConfig{BaseURI: c.BaseURI, Timeout: c.Timeout, VerifySSL: c.VerifySSL}
}

type mimSMSRequest struct {
	UserName        string `json:"UserName"`
	Apikey          string `json:"Apikey"`
	MobileNumber    string `json:"MobileNumber"`
	SenderName      string `json:"SenderName"`
	TransactionType string `json:"TransactionType"`
	Message         string `json:"Message"`
	CampaignID      string `json:"CampaignId"`
}

type mimSMSCredentials struct {
	UserName string `json:"UserName"`
	Apikey   string `json:"Apikey"`
}

type MiMSMS struct {
	*base[mimSMSConfig]
}

func NewMiMSMS(cfg Config, client *resty.Client, hooks Hooks) (*MiMSMS, error) {
	p := &MiMSMS{}
	b, err := newBase(baseOptions[mimSMSConfig]{
		name:      NameMiMSMS,
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

func (p *MiMSMS) sendRequest(ctx context.Context, st *state[mimSMSConfig], msg domain.Message) (map[string]any, error) {
	campaignID := "null"
	if st.cfg.TransactionType == mimSMSPromotional && st.cfg.CampaignID != "" {
		campaignID = st.cfg.CampaignID
	}

	resp, err := st.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(mimSMSRequest{
			UserName:        st.cfg.Username,
			Apikey:          st.cfg.APIKey,
			MobileNumber:    msg.To,
			SenderName:      firstNonEmpty(msg.From, st.cfg.SenderID, mimSMSDefaultSender),
			TransactionType: st.cfg.TransactionType,
			Message:         msg.Body,
			CampaignID:      campaignID,
		}).
		Post(st.url("/api/SmsSending/SMS"))
	return decodeResponse(p.name, resp, err)
}

func (p *MiMSMS) parseResponse(payload map[string]any) domain.Response {
	raw := wrapRaw(p.name, payload)

	if str(payload["statusCode"]) == "200" && str(payload["status"]) == "Success" {
		messageID := firstNonEmpty(str(payload["trxnId"]), generatedID(p.name))
		return domain.Success(messageID, StatusSent, nil, raw)
	}

	return domain.Failed(
		firstNonEmpty(str(payload["statusCode"]), "unknown"),
		firstNonEmpty(str(payload["responseResult"]), str(payload["status"]), "Unknown error occurred"),
		raw,
	)
}

func (p *MiMSMS) GetBalance(ctx context.Context) float64 {
	st := p.state.Load()
	resp, err := st.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(mimSMSCredentials{UserName: st.cfg.Username, Apikey: st.cfg.APIKey}).
		Post(st.url("/api/SmsSending/balanceCheck"))
	payload, err := decodeResponse(p.name, resp, err)
	if err != nil {
		p.hooks.Log.Debug("mimsms balance lookup failed", zap.Error(err))
		return 0
	}
	if str(payload["statusCode"]) != "200" {
		return 0
	}

	balance, _ := num(payload["responseResult"])
	return balance
}
