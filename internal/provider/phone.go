package provider

import (
	"regexp"
	"strings"
)

var (
	nonDigits            = regexp.MustCompile(`\D`)
	localPattern         = regexp.MustCompile(`^01[3-9]\d{8}$`)
	internationalPattern = regexp.MustCompile(`^8801[3-9]\d{8}$`)
	bangladeshPattern    = regexp.MustCompile(`^(?:\+?88)?01[3-9]\d{8}$`)
	e164Pattern          = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)
)

func digitsOnly(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// LocalFormat normalizes a Bangladeshi number to 01XXXXXXXXX.
func LocalFormat(raw string) string {
	d := digitsOnly(raw)
	switch {
	case strings.HasPrefix(d, "8801"):
		return "0" + d[3:]
	case strings.HasPrefix(d, "01"):
		return d
	case len(d) == 10 && d[0] == '1':
		return "0" + d
	default:
		return d
	}
}

// InternationalFormat normalizes a Bangladeshi number to 8801XXXXXXXXX.
func InternationalFormat(raw string) string {
	d := digitsOnly(raw)
	switch {
	case strings.HasPrefix(d, "8801"):
		return d
	case strings.HasPrefix(d, "01"):
		return "88" + d
	case len(d) == 10 && d[0] == '1':
		return "880" + d
	default:
		return d
	}
}

// LenientFormat keeps both the local and the international shape.
func LenientFormat(raw string) string {
	d := digitsOnly(raw)
	if len(d) == 10 && d[0] == '1' {
		return "0" + d
	}
	return d
}

// GlobalFormat returns "+" followed by the digits of raw.
func GlobalFormat(raw string) string {
	return "+" + digitsOnly(raw)
}

func ValidE164(number string) bool {
	return e164Pattern.MatchString(number)
}

// ValidBangladeshNumber accepts 01XXXXXXXXX, 8801XXXXXXXXX and +8801XXXXXXXXX
// with optional spaces and dashes.
func ValidBangladeshNumber(raw string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	return bangladeshPattern.MatchString(cleaned)
}

// phoneRules pairs the formatting and validation policy of one adapter.
type phoneRules struct {
	format func(string) string
	valid  func(string) bool
}

var (
	localPhone = phoneRules{
		format: LocalFormat,
		valid: func(raw string) bool {
			return localPattern.MatchString(LocalFormat(raw))
		},
	}

	internationalPhone = phoneRules{
		format: InternationalFormat,
		valid: func(raw string) bool {
			return internationalPattern.MatchString(InternationalFormat(raw))
		},
	}

	lenientPhone = phoneRules{
		format: LenientFormat,
		valid: func(raw string) bool {
			d := digitsOnly(raw)
			return localPattern.MatchString(d) || internationalPattern.MatchString(d)
		},
	}

	globalPhone = phoneRules{
		format: GlobalFormat,
		valid: func(raw string) bool {
			return ValidE164(GlobalFormat(raw))
		},
	}

	anyPhone = phoneRules{
		format: func(raw string) string { return raw },
		valid: func(raw string) bool {
			return strings.TrimSpace(raw) != ""
		},
	}
)
