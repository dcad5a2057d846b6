package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

var options = &gormigrate.Options{
	TableName:                 "textify_migrations",
	IDColumnName:              "id",
	IDColumnSize:              255,
	UseTransaction:            true,
	ValidateUnknownMigrations: true,
}

// Migrate brings the activity store schema up to date.
func Migrate(db *gorm.DB) error {
	return gormigrate.New(db, options, []*gormigrate.Migration{
		createTextifyActivitiesTable(),
	}).Migrate()
}
