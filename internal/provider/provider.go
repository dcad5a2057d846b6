package provider

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kursadbilgin/textify/internal/activity"
	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/event"
	"go.uber.org/zap"
)

const (
	StatusUnknown = "unknown"
	StatusSent    = "sent"
)

// Provider is the outbound SMS delivery port implemented by every vendor
// adapter.
//
// Send reports ordinary failures through the returned Response; the error is
// reserved for adapters that were never initialized. GetDeliveryStatus and
// GetBalance never fail and fall back to "unknown" and 0.
type Provider interface {
	Name() string
	ValidatePhoneNumber(raw string) bool
	FormatPhoneNumber(raw string) string
	Send(ctx context.Context, msg domain.Message) (domain.Response, error)
	SendBulk(ctx context.Context, msgs []domain.Message) []domain.Response
	GetDeliveryStatus(ctx context.Context, messageID string) string
	GetBalance(ctx context.Context) float64
	SupportsCountry(code string) bool
	Config() Config
	SetConfig(cfg Config) error
}

// Config is the untyped key/value configuration of a single provider, such as
// {"api_key": "...", "sender_id": "..."}.
type Config map[string]string

// MessageRules validates message content before any vendor call.
type MessageRules struct {
	Enabled  bool
	Required bool
	Min      int
	Max      int
}

func (r MessageRules) check(body string) (string, bool) {
	if !r.Enabled {
		return "", true
	}

	if strings.TrimSpace(body) == "" {
		if r.Required {
			return "The message field is required.", false
		}
		return "", true
	}

	length := utf8.RuneCountInString(body)
	if r.Min > 0 && length < r.Min {
		return fmt.Sprintf("The message must be at least %d characters.", r.Min), false
	}
	if r.Max > 0 && length > r.Max {
		return fmt.Sprintf("The message may not be greater than %d characters.", r.Max), false
	}
	return "", true
}

// Hooks are the collaborators every adapter reports its lifecycle to.
type Hooks struct {
	Tracker activity.Tracker
	Logger  activity.Logger
	Events  event.Sink
	Rules   MessageRules
	Log     *zap.Logger
}

func (h Hooks) withDefaults() Hooks {
	if h.Tracker == nil {
		h.Tracker = activity.NullTracker{}
	}
	if h.Logger == nil {
		h.Logger = activity.NullLogger{}
	}
	if h.Events == nil {
		h.Events = event.Nop{}
	}
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	return h
}
