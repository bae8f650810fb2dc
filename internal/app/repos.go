package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type Repos struct {
	User       repos.UserRepo
	Batch      repos.BatchRepo
	Task       repos.TaskRepo
	Enrollment repos.EnrollmentRepo
	Submission repos.SubmissionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		Batch:      repos.NewBatchRepo(db, log),
		Task:       repos.NewTaskRepo(db, log),
		Enrollment: repos.NewEnrollmentRepo(db, log),
		Submission: repos.NewSubmissionRepo(db, log),
	}
}
