package activity

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
)

// Logger writes operator-facing send logs. It is independent of Tracker so
// either can be switched off on its own.
type Logger interface {
	LogSending(ctx context.Context, msg domain.Message, provider string)
	LogSent(ctx context.Context, msg domain.Message, resp domain.Response, provider string)
	LogFailed(ctx context.Context, msg domain.Message, resp domain.Response, provider string)
	LogStatusUpdate(ctx context.Context, messageID string, status string, metadata map[string]any)
}

type NullLogger struct{}

func (NullLogger) LogSending(context.Context, domain.Message, string) {}

func (NullLogger) LogSent(context.Context, domain.Message, domain.Response, string) {}

func (NullLogger) LogFailed(context.Context, domain.Message, domain.Response, string) {}

func (NullLogger) LogStatusUpdate(context.Context, string, string, map[string]any) {}

type LoggerOptions struct {
	LogSuccessful bool
	LogFailed     bool
	Tracker       Tracker
}

// NewLogger builds the send logger for driver. "file" logs through zap,
// "database" writes through the supplied tracker and anything else disables
// send logging.
func NewLogger(driver string, logger *zap.Logger, opts LoggerOptions) Logger {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "file", "log":
		return NewZapLogger(logger, opts.LogSuccessful, opts.LogFailed)
	case DriverDatabase:
		if opts.Tracker == nil {
			return NullLogger{}
		}
		return trackerLogger{tracker: opts.Tracker}
	default:
		return NullLogger{}
	}
}

type ZapLogger struct {
	logger        *zap.Logger
	logSuccessful bool
	logFailed     bool
}

func NewZapLogger(logger *zap.Logger, logSuccessful, logFailed bool) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ZapLogger{
		logger:        logger,
		logSuccessful: logSuccessful,
		logFailed:     logFailed,
	}
}

func (l *ZapLogger) LogSending(_ context.Context, msg domain.Message, provider string) {
	l.logger.Info("SMS Sending",
		zap.String("message_id", msg.ID),
		zap.String("provider", provider),
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.Int("message_length", utf8.RuneCountInString(msg.Body)),
		zap.String("status", domain.ActivityStatusSending),
		zap.Any("metadata", nonNil(msg.Metadata)),
	)
}

func (l *ZapLogger) LogSent(_ context.Context, msg domain.Message, resp domain.Response, provider string) {
	if !l.logSuccessful {
		return
	}

	l.logger.Info("SMS Sent Successfully",
		zap.String("message_id", msg.ID),
		zap.String("provider_message_id", resp.MessageID()),
		zap.String("provider", provider),
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.String("status", domain.ActivityStatusSent),
		zap.Float64p("cost", resp.Cost()),
		zap.Any("metadata", mergeMetadata(msg.Metadata, resp.Raw())),
	)
}

func (l *ZapLogger) LogFailed(_ context.Context, msg domain.Message, resp domain.Response, provider string) {
	if !l.logFailed {
		return
	}

	l.logger.Error("SMS Failed",
		zap.String("message_id", msg.ID),
		zap.String("provider", provider),
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.String("status", domain.ActivityStatusFailed),
		zap.String("error_code", resp.ErrorCode()),
		zap.String("error_message", resp.ErrorMessage()),
		zap.Any("metadata", mergeMetadata(msg.Metadata, resp.Raw())),
	)
}

func (l *ZapLogger) LogStatusUpdate(_ context.Context, messageID string, status string, metadata map[string]any) {
	l.logger.Info("SMS Status Updated",
		zap.String("message_id", messageID),
		zap.String("status", status),
		zap.Any("metadata", nonNil(metadata)),
	)
}

type trackerLogger struct {
	tracker Tracker
}

func (l trackerLogger) LogSending(ctx context.Context, msg domain.Message, provider string) {
	l.tracker.TrackSending(ctx, msg, provider)
}

func (l trackerLogger) LogSent(ctx context.Context, msg domain.Message, resp domain.Response, provider string) {
	l.tracker.TrackSent(ctx, msg, resp, provider)
}

func (l trackerLogger) LogFailed(ctx context.Context, msg domain.Message, resp domain.Response, provider string) {
	l.tracker.TrackFailed(ctx, msg, resp, provider)
}

func (l trackerLogger) LogStatusUpdate(ctx context.Context, messageID string, status string, metadata map[string]any) {
	l.tracker.UpdateStatus(ctx, messageID, status, metadata)
}
