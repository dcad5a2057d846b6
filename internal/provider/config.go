package provider

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/kursadbilgin/textify/internal/domain"
)

// adapterConfig is implemented by every typed adapter configuration.
type adapterConfig interface {
	transport() transportConfig
}

var configValidator = newConfigValidator()

// newConfigValidator reports fields by their config key rather than the Go
// field name.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeConfig maps raw onto T through its env tags. Blank values count as
// absent so tag defaults still apply.
func decodeConfig[T adapterConfig](name string, raw Config) (T, error) {
	var cfg T

	es := make(env.EnvSet, len(raw))
	for key, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		es[key] = value
	}

	if err := env.Unmarshal(es, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: invalid configuration for %s provider: %v", domain.ErrConfiguration, name, err)
	}

	if err := configValidator.Struct(cfg); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return cfg, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
		}

		var missing, invalid []string
		for _, fieldErr := range validationErrs {
			if fieldErr.Tag() == "required" {
				missing = append(missing, fieldErr.Field())
				continue
			}
			invalid = append(invalid, fieldErr.Field())
		}

		if len(missing) > 0 {
			return cfg, fmt.Errorf("%w: Missing required configuration keys for %s provider: %s",
				domain.ErrConfiguration, name, strings.Join(missing, ", "))
		}
		return cfg, fmt.Errorf("%w: Invalid configuration keys for %s provider: %s",
			domain.ErrConfiguration, name, strings.Join(invalid, ", "))
	}

	return cfg, nil
}
