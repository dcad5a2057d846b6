package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// decodePayload decodes a JSON object keeping numbers as json.Number so vendor
// ids and codes survive untouched.
func decodePayload(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

func str(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	default:
		return fmt.Sprint(value)
	}
}

func num(v any) (float64, bool) {
	switch value := v.(type) {
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	case float64:
		return value, true
	case int:
		return float64(value), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func obj(payload map[string]any, key string) map[string]any {
	if payload == nil {
		return nil
	}
	m, _ := payload[key].(map[string]any)
	return m
}

func list(payload map[string]any, key string) []any {
	if payload == nil {
		return nil
	}
	l, _ := payload[key].([]any)
	return l
}

func firstObj(payload map[string]any, key string) map[string]any {
	items := list(payload, key)
	if len(items) == 0 {
		return nil
	}
	m, _ := items[0].(map[string]any)
	return m
}

func has(payload map[string]any, key string) bool {
	if payload == nil {
		return false
	}
	v, ok := payload[key]
	return ok && v != nil
}

func generatedID(prefix string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + token[:13]
}

func costOf(v any) *float64 {
	f, ok := num(v)
	if !ok {
		return nil
	}
	return &f
}

// wrapRaw is the raw-response shape most vendors report: the provider name
// alongside the decoded payload.
func wrapRaw(name string, payload map[string]any) map[string]any {
	return map[string]any{
		"provider": name,
		"response": payload,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// isZero reports whether v is the numeric zero, either as a number or as a
// numeric string.
func isZero(v any) bool {
	n, ok := num(v)
	return ok && n == 0
}
