package repos

import (
	"github.com/yungbote/certifytrack-backend/internal/data/repos/course"
	"github.com/yungbote/certifytrack-backend/internal/data/repos/progress"
	"github.com/yungbote/certifytrack-backend/internal/data/repos/user"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type BatchRepo = course.BatchRepo
type BatchFilter = course.BatchFilter
type TaskRepo = course.TaskRepo

type EnrollmentRepo = progress.EnrollmentRepo
type SubmissionRepo = progress.SubmissionRepo
type SubmissionFilter = progress.SubmissionFilter

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return course.NewBatchRepo(db, baseLog)
}
func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return course.NewTaskRepo(db, baseLog)
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return progress.NewEnrollmentRepo(db, baseLog)
}
func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return progress.NewSubmissionRepo(db, baseLog)
}
