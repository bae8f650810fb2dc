package db

import (
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&types.User{},

		// Catalog
		&types.Batch{},
		&types.Task{},

		// Progress
		&types.Enrollment{},
		&types.TaskSubmission{},
	)
}
