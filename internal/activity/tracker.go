package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/repository"
	"go.uber.org/zap"
)

const (
	DriverDatabase = "database"
	DriverFile     = "file"
	DriverNull     = "null"
)

// Tracker records the send lifecycle for auditing. Implementations must not
// return or panic on storage failures; they log and drop them.
type Tracker interface {
	TrackSending(ctx context.Context, msg domain.Message, provider string)
	TrackSent(ctx context.Context, msg domain.Message, resp domain.Response, provider string)
	TrackFailed(ctx context.Context, msg domain.Message, resp domain.Response, provider string)
	UpdateStatus(ctx context.Context, messageID string, status string, metadata map[string]any)
}

type NullTracker struct{}

func (NullTracker) TrackSending(context.Context, domain.Message, string) {}

func (NullTracker) TrackSent(context.Context, domain.Message, domain.Response, string) {}

func (NullTracker) TrackFailed(context.Context, domain.Message, domain.Response, string) {}

func (NullTracker) UpdateStatus(context.Context, string, string, map[string]any) {}

// TrackerOptions carries what the individual drivers need.
type TrackerOptions struct {
	Repository repository.ActivityRepository
	FilePath   string
	Logger     *zap.Logger
}

// NewTracker builds the tracker for driver. Unknown drivers fall back to the
// null tracker.
func NewTracker(driver string, opts TrackerOptions) (Tracker, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverDatabase:
		if opts.Repository == nil {
			return nil, fmt.Errorf("%w: database activity tracker requires a repository", domain.ErrConfiguration)
		}
		return NewDatabaseTracker(opts.Repository, logger), nil
	case DriverFile:
		return NewFileTracker(opts.FilePath, logger)
	case DriverNull, "":
		return NullTracker{}, nil
	default:
		logger.Warn("unknown activity tracking driver, tracking disabled", zap.String("driver", driver))
		return NullTracker{}, nil
	}
}
