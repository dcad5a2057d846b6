package domain

import (
	"encoding/json"
	"maps"
)

const defaultSuccessStatus = "sent"

// Response is the uniform outcome of one adapter invocation. It can only be
// built through Success or Failed; the zero value reads as an unknown failure.
type Response struct {
	success      bool
	messageID    string
	errorCode    string
	errorMessage string
	cost         *float64
	status       string
	raw          map[string]any
}

func Success(messageID string, status string, cost *float64, raw map[string]any) Response {
	if status == "" {
		status = defaultSuccessStatus
	}

	return Response{
		success:   true,
		messageID: messageID,
		cost:      copyCost(cost),
		status:    status,
		raw:       maps.Clone(raw),
	}
}

func Failed(code string, message string, raw map[string]any) Response {
	if code == "" {
		code = ErrCodeUnknown
	}

	return Response{
		errorCode:    code,
		errorMessage: message,
		status:       "failed",
		raw:          maps.Clone(raw),
	}
}

func (r Response) IsSuccessful() bool { return r.success }

func (r Response) IsFailed() bool { return !r.success }

func (r Response) MessageID() string { return r.messageID }

func (r Response) ErrorCode() string {
	if !r.success && r.errorCode == "" {
		return ErrCodeUnknown
	}
	return r.errorCode
}

func (r Response) ErrorMessage() string { return r.errorMessage }

func (r Response) Cost() *float64 { return copyCost(r.cost) }

func (r Response) Status() string {
	if r.status == "" && !r.success {
		return "failed"
	}
	return r.status
}

func (r Response) Raw() map[string]any { return maps.Clone(r.raw) }

// WithRaw returns a copy whose raw payload also carries extra. Existing keys
// win over extra.
func (r Response) WithRaw(extra map[string]any) Response {
	if len(extra) == 0 {
		return r
	}

	merged := make(map[string]any, len(r.raw)+len(extra))
	maps.Copy(merged, extra)
	maps.Copy(merged, r.raw)

	out := r
	out.raw = merged
	out.cost = copyCost(r.cost)
	return out
}

func (r Response) ToMap() map[string]any {
	out := map[string]any{
		"success":       r.success,
		"message_id":    r.messageID,
		"error_code":    nilIfEmpty(r.ErrorCode()),
		"error_message": nilIfEmpty(r.errorMessage),
		"status":        r.Status(),
		"raw_response":  r.Raw(),
	}
	if r.cost != nil {
		out["cost"] = *r.cost
	} else {
		out["cost"] = nil
	}
	if r.messageID == "" {
		out["message_id"] = nil
	}
	return out
}

func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

func copyCost(cost *float64) *float64 {
	if cost == nil {
		return nil
	}
	value := *cost
	return &value
}

func nilIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
