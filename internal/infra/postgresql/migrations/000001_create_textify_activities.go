package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/textify/internal/repository"
	"gorm.io/gorm"
)

func createTextifyActivitiesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_textify_activities",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.ActivityModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_textify_activities_provider_status ON textify_activities (provider, status)`,
				`CREATE INDEX IF NOT EXISTS idx_textify_activities_created_at ON textify_activities (created_at DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_textify_activities_failed ON textify_activities (provider, error_code) WHERE success = false`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ActivityModel{})
		},
	}
}
