package repository

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/kursadbilgin/textify/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultActivityLimit = 100
	maxActivityLimit     = 1000
)

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) error
	Upsert(ctx context.Context, a *domain.Activity) error
	UpdateStatus(ctx context.Context, messageID string, status string, metadata map[string]any) error
	GetByMessageID(ctx context.Context, messageID string) (*domain.Activity, error)
	List(ctx context.Context, filter domain.ActivityFilter, limit int) ([]domain.Activity, error)
	Stats(ctx context.Context, filter domain.ActivityFilter) (domain.ActivityStats, error)
}

type GormActivityRepo struct {
	db *gorm.DB
}

func NewGormActivityRepo(db *gorm.DB) *GormActivityRepo {
	return &GormActivityRepo{db: db}
}

func (r *GormActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	model, err := activityModelFromDomain(a)
	if err != nil {
		return err
	}
	if model == nil {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	*a = *activityModelToDomain(model)
	return nil
}

// Upsert inserts the activity or overwrites the outcome columns of the row
// sharing its message id.
func (r *GormActivityRepo) Upsert(ctx context.Context, a *domain.Activity) error {
	model, err := activityModelFromDomain(a)
	if err != nil {
		return err
	}
	if model == nil {
		return nil
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "message_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"provider", "to", "from", "message", "status", "success",
				"error_code", "error_message", "cost", "metadata", "sent_at", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}
	*a = *activityModelToDomain(model)
	return nil
}

func (r *GormActivityRepo) UpdateStatus(ctx context.Context, messageID string, status string, metadata map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model ActivityModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, "message_id = ?", messageID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}

		merged := decodeMetadata(model.Metadata)
		if merged == nil {
			merged = make(map[string]any, len(metadata))
		}
		maps.Copy(merged, metadata)
		encoded, err := encodeMetadata(merged)
		if err != nil {
			return err
		}

		return tx.Model(&ActivityModel{}).
			Where("message_id = ?", messageID).
			Updates(map[string]any{
				"status":     status,
				"metadata":   encoded,
				"updated_at": time.Now().UTC(),
			}).Error
	})
}

func (r *GormActivityRepo) GetByMessageID(ctx context.Context, messageID string) (*domain.Activity, error) {
	var model ActivityModel
	err := r.db.WithContext(ctx).First(&model, "message_id = ?", messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return activityModelToDomain(&model), nil
}

func (r *GormActivityRepo) List(ctx context.Context, filter domain.ActivityFilter, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	var models []ActivityModel
	err := applyActivityFilter(r.db.WithContext(ctx).Model(&ActivityModel{}), filter).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	activities := make([]domain.Activity, 0, len(models))
	for i := range models {
		activities = append(activities, *activityModelToDomain(&models[i]))
	}
	return activities, nil
}

func (r *GormActivityRepo) Stats(ctx context.Context, filter domain.ActivityFilter) (domain.ActivityStats, error) {
	var row struct {
		Total      int64
		Successful int64
		Failed     int64
	}

	err := applyActivityFilter(r.db.WithContext(ctx).Model(&ActivityModel{}), filter).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN success = TRUE THEN 1 ELSE 0 END), 0) AS successful,
			COALESCE(SUM(CASE WHEN success = FALSE THEN 1 ELSE 0 END), 0) AS failed`).
		Scan(&row).Error
	if err != nil {
		return domain.ActivityStats{}, err
	}

	return NewActivityStats(row.Total, row.Successful, row.Failed), nil
}

// NewActivityStats derives the success rate as a percentage rounded to two
// decimals.
func NewActivityStats(total, successful, failed int64) domain.ActivityStats {
	stats := domain.ActivityStats{
		Total:      total,
		Successful: successful,
		Failed:     failed,
	}
	if total > 0 {
		rate := float64(successful) / float64(total) * 100
		stats.SuccessRate = float64(int64(rate*100+0.5)) / 100
	}
	return stats
}

func applyActivityFilter(query *gorm.DB, filter domain.ActivityFilter) *gorm.DB {
	if filter.Provider != "" {
		query = query.Where("provider = ?", filter.Provider)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("created_at <= ?", *filter.Until)
	}
	return query
}
