package provider

import "testing"

func TestPhoneFormats(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		format func(string) string
		input  string
		want   string
	}{
		{name: "local from international", format: LocalFormat, input: "+8801712345678", want: "01712345678"},
		{name: "local keeps local", format: LocalFormat, input: "01712345678", want: "01712345678"},
		{name: "local from bare ten digits", format: LocalFormat, input: "1712345678", want: "01712345678"},
		{name: "local strips separators", format: LocalFormat, input: "017-1234 5678", want: "01712345678"},
		{name: "international from local", format: InternationalFormat, input: "01712345678", want: "8801712345678"},
		{name: "international strips plus", format: InternationalFormat, input: "+8801712345678", want: "8801712345678"},
		{name: "international from bare ten digits", format: InternationalFormat, input: "1712345678", want: "8801712345678"},
		{name: "lenient keeps international", format: LenientFormat, input: "+8801712345678", want: "8801712345678"},
		{name: "lenient keeps local", format: LenientFormat, input: "01712345678", want: "01712345678"},
		{name: "global adds plus", format: GlobalFormat, input: "1 (415) 555-2671", want: "+14155552671"},
		{name: "global keeps plus", format: GlobalFormat, input: "+14155552671", want: "+14155552671"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := tc.format(tc.input)
			if got != tc.want {
				t.Fatalf("format(%q) = %q, want %q", tc.input, got, tc.want)
			}
			if again := tc.format(got); again != got {
				t.Fatalf("format is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestPhoneValidationGroups(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		rules phoneRules
		input string
		want  bool
	}{
		{name: "local accepts international input", rules: localPhone, input: "+8801712345678", want: true},
		{name: "local rejects bad operator digit", rules: localPhone, input: "01212345678", want: false},
		{name: "local rejects short number", rules: localPhone, input: "0171234", want: false},
		{name: "international accepts local input", rules: internationalPhone, input: "01912345678", want: true},
		{name: "international rejects foreign number", rules: internationalPhone, input: "+14155552671", want: false},
		{name: "lenient accepts local", rules: lenientPhone, input: "01712345678", want: true},
		{name: "lenient accepts international", rules: lenientPhone, input: "8801712345678", want: true},
		{name: "lenient rejects garbage", rules: lenientPhone, input: "12345", want: false},
		{name: "global accepts e164", rules: globalPhone, input: "+14155552671", want: true},
		{name: "global accepts digits only", rules: globalPhone, input: "447911123456", want: true},
		{name: "global rejects leading zero", rules: globalPhone, input: "0123456789", want: false},
		{name: "global rejects too short", rules: globalPhone, input: "+12345", want: false},
		{name: "any accepts anything non blank", rules: anyPhone, input: "not-a-number", want: true},
		{name: "any rejects blank", rules: anyPhone, input: "   ", want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.rules.valid(tc.input); got != tc.want {
				t.Fatalf("valid(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestFormattedNumbersStayValid(t *testing.T) {
	t.Parallel()

	groups := map[string]phoneRules{
		"local":         localPhone,
		"international": internationalPhone,
		"lenient":       lenientPhone,
	}
	spellings := []string{"01712345678", "8801712345678", "+8801712345678", "+880 1712-345678"}

	for name, rules := range groups {
		name, rules := name, rules
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for _, raw := range spellings {
				if !rules.valid(raw) {
					t.Fatalf("valid(%q) = false before formatting", raw)
				}
				formatted := rules.format(raw)
				if !rules.valid(formatted) {
					t.Fatalf("valid(format(%q)) = valid(%q) = false", raw, formatted)
				}
			}
		})
	}
}

func TestValidBangladeshNumber(t *testing.T) {
	t.Parallel()

	valid := []string{"01712345678", "8801712345678", "+8801712345678", "+880 1712-345678"}
	for _, number := range valid {
		if !ValidBangladeshNumber(number) {
			t.Fatalf("ValidBangladeshNumber(%q) = false, want true", number)
		}
	}

	invalid := []string{"", "01212345678", "+14155552671", "880171234567"}
	for _, number := range invalid {
		if ValidBangladeshNumber(number) {
			t.Fatalf("ValidBangladeshNumber(%q) = true, want false", number)
		}
	}
}
