package activity

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/kursadbilgin/textify/internal/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultActivityFile = "textify-activities.log"

var _ Tracker = (*FileTracker)(nil)

// FileTracker appends one JSON document per lifecycle event to a file.
type FileTracker struct {
	file   *os.File
	out    *zap.Logger
	logger *zap.Logger
}

func NewFileTracker(path string, logger *zap.Logger) (*FileTracker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = DefaultActivityFile
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create activity log dir: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}

	return newFileTracker(f, zapcore.AddSync(f), logger), nil
}

func newFileTracker(f *os.File, ws zapcore.WriteSyncer, logger *zap.Logger) *FileTracker {
	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), ws, zapcore.InfoLevel)

	return &FileTracker{
		file:   f,
		out:    zap.New(core),
		logger: logger,
	}
}

func (t *FileTracker) TrackSending(_ context.Context, msg domain.Message, provider string) {
	t.write(
		zap.String("message_id", msg.ID),
		zap.String("provider", provider),
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.Int("message_length", utf8.RuneCountInString(msg.Body)),
		zap.String("status", domain.ActivityStatusSending),
		zap.Bool("success", false),
		zap.Any("metadata", nonNil(msg.Metadata)),
	)
}

func (t *FileTracker) TrackSent(_ context.Context, msg domain.Message, resp domain.Response, provider string) {
	t.write(
		zap.String("message_id", msg.ID),
		zap.String("provider_message_id", resp.MessageID()),
		zap.String("provider", provider),
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.String("status", domain.ActivityStatusSent),
		zap.Bool("success", true),
		zap.Float64p("cost", resp.Cost()),
		zap.Any("metadata", mergeMetadata(msg.Metadata, resp.Raw())),
	)
}

func (t *FileTracker) TrackFailed(_ context.Context, msg domain.Message, resp domain.Response, provider string) {
	t.write(
		zap.String("message_id", msg.ID),
		zap.String("provider", provider),
		zap.String("to", msg.To),
		zap.String("from", msg.From),
		zap.String("status", domain.ActivityStatusFailed),
		zap.Bool("success", false),
		zap.String("error_code", resp.ErrorCode()),
		zap.String("error_message", resp.ErrorMessage()),
		zap.Any("metadata", mergeMetadata(msg.Metadata, resp.Raw())),
	)
}

func (t *FileTracker) UpdateStatus(_ context.Context, messageID string, status string, metadata map[string]any) {
	t.write(
		zap.String("message_id", messageID),
		zap.String("status", status),
		zap.String("action", "status_update"),
		zap.Any("metadata", nonNil(metadata)),
	)
}

func (t *FileTracker) Close() error {
	_ = t.out.Sync()
	if t.file == nil {
		return nil
	}
	return t.file.Close()
}

func (t *FileTracker) write(fields ...zap.Field) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("failed to write sms activity to file", zap.Any("panic", r))
		}
	}()
	t.out.Info("", fields...)
}

func mergeMetadata(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
