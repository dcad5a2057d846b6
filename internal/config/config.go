package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/kursadbilgin/textify/internal/provider"
)

const providerEnvPrefix = "TEXTIFY_"

type Config struct {
	DefaultProvider  string `env:"TEXTIFY_PROVIDER,default=log" validate:"required"`
	FallbackProvider string `env:"TEXTIFY_FALLBACK_PROVIDER"`
	FallbackOnSend   bool   `env:"TEXTIFY_FALLBACK_ON_SEND,default=false"`

	QueueEnabled      bool   `env:"TEXTIFY_QUEUE_ENABLED,default=false"`
	QueueName         string `env:"TEXTIFY_QUEUE_NAME,default=sms" validate:"required"`
	QueueMaxAttempts  int    `env:"TEXTIFY_QUEUE_MAX_ATTEMPTS,default=3" validate:"min=1"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=4" validate:"min=1"`

	ActivityTrackingEnabled bool   `env:"TEXTIFY_ACTIVITY_TRACKING_ENABLED,default=false"`
	ActivityDriver          string `env:"TEXTIFY_ACTIVITY_DRIVER,default=database" validate:"oneof=database file null"`
	ActivityFile            string `env:"TEXTIFY_ACTIVITY_FILE,default=textify-activities.log"`

	LoggingEnabled bool   `env:"TEXTIFY_LOGGING_ENABLED,default=true"`
	LogSuccessful  bool   `env:"TEXTIFY_LOG_SUCCESSFUL,default=true"`
	LogFailed      bool   `env:"TEXTIFY_LOG_FAILED,default=true"`
	LogDriver      string `env:"TEXTIFY_LOG_DRIVER,default=log" validate:"oneof=log file database null"`

	EventsEnabled       bool   `env:"TEXTIFY_EVENTS_ENABLED,default=true"`
	EventsSubjectPrefix string `env:"TEXTIFY_EVENTS_SUBJECT_PREFIX,default=textify"`

	ValidationEnabled bool `env:"TEXTIFY_VALIDATION_ENABLED,default=true"`
	StrictValidation  bool `env:"TEXTIFY_STRICT_VALIDATION,default=false"`
	MessageRequired   bool `env:"TEXTIFY_MESSAGE_REQUIRED,default=true"`
	MessageMinLength  int  `env:"TEXTIFY_MESSAGE_MIN_LENGTH,default=0" validate:"min=0"`
	MessageMaxLength  int  `env:"TEXTIFY_MESSAGE_MAX_LENGTH,default=0" validate:"omitempty,gtefield=MessageMinLength"`

	RateLimitingEnabled bool `env:"TEXTIFY_RATE_LIMITING_ENABLED,default=false"`
	RateLimitAttempts   int  `env:"TEXTIFY_RATE_LIMIT_ATTEMPTS,default=60" validate:"min=1"`
	RateLimitDecay      int  `env:"TEXTIFY_RATE_LIMIT_DECAY,default=1" validate:"min=1"`

	BulkConcurrency int `env:"TEXTIFY_BULK_CONCURRENCY,default=1" validate:"min=1"`

	DatabaseDSN string `env:"DATABASE_DSN" validate:"required_if=ActivityTrackingEnabled true ActivityDriver database"`
	RabbitMQURL string `env:"RABBITMQ_URL" validate:"required_if=QueueEnabled true"`
	RedisURL    string `env:"REDIS_URL"`
	NATSURL     string `env:"NATS_URL"`

	APIPort   int    `env:"API_PORT,default=8080" validate:"min=1,max=65535"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json" validate:"oneof=json console"`

	// Providers holds per-provider settings keyed by lower-case provider
	// name, read from TEXTIFY_<PROVIDER>_<KEY> variables.
	Providers map[string]provider.Config
}

var configValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func Load() (*Config, error) {
	var cfg Config
	es, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.DefaultProvider = strings.ToLower(strings.TrimSpace(cfg.DefaultProvider))
	cfg.FallbackProvider = strings.ToLower(strings.TrimSpace(cfg.FallbackProvider))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.Providers = providersFromEnv(es)

	// Selected providers always get an entry so a missing key surfaces as a
	// configuration error rather than an unknown provider.
	for _, name := range []string{cfg.DefaultProvider, cfg.FallbackProvider} {
		if name == "" {
			continue
		}
		if _, ok := cfg.Providers[name]; !ok {
			cfg.Providers[name] = provider.Config{}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MessageRules is the message-length policy applied by every adapter.
func (c *Config) MessageRules() provider.MessageRules {
	return provider.MessageRules{
		Enabled:  c.ValidationEnabled,
		Required: c.MessageRequired,
		Min:      c.MessageMinLength,
		Max:      c.MessageMaxLength,
	}
}

func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return fmt.Errorf("invalid config: %w", err)
		}

		fields := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
	}

	if c.FallbackProvider != "" && c.FallbackProvider == c.DefaultProvider {
		return fmt.Errorf("invalid config: TEXTIFY_FALLBACK_PROVIDER must differ from TEXTIFY_PROVIDER")
	}
	return nil
}

// providersFromEnv collects TEXTIFY_<PROVIDER>_<KEY> variables for every
// built-in vendor adapter. The log and array adapters take no settings.
func providersFromEnv(es env.EnvSet) map[string]provider.Config {
	providers := make(map[string]provider.Config)

	for _, name := range provider.Names() {
		if name == provider.NameLog || name == provider.NameArray {
			continue
		}

		prefix := providerEnvPrefix + strings.ToUpper(name) + "_"
		for key, value := range es {
			if !strings.HasPrefix(key, prefix) {
				continue
			}
			settingKey := strings.ToLower(strings.TrimPrefix(key, prefix))
			if settingKey == "" {
				continue
			}
			if providers[name] == nil {
				providers[name] = provider.Config{}
			}
			providers[name][settingKey] = value
		}
	}

	return providers
}
