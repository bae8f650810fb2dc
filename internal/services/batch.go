package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/curriculum"
	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type BatchInput struct {
	Title         string    `json:"title" validate:"required,max=200"`
	CourseName    string    `json:"course_name" validate:"required,max=200"`
	Description   string    `json:"description"`
	StartDate     time.Time `json:"start_date" validate:"required"`
	DurationDays  int       `json:"duration_days" validate:"min=1,max=366"`
	BannerImage   string    `json:"banner_image" validate:"omitempty,url"`
	Instructor    string    `json:"instructor" validate:"max=200"`
	Price         float64   `json:"price" validate:"gte=0"`
	MaxStudents   int       `json:"max_students" validate:"min=1"`
	WhatYouLearn  []string  `json:"what_you_learn"`
	Prerequisites []string  `json:"prerequisites"`
	Benefits      []string  `json:"benefits"`
	IsActive      *bool     `json:"is_active"`
}

// ImportResult is the batch and tasks created from one curriculum document.
type ImportResult struct {
	Batch *types.Batch  `json:"batch"`
	Tasks []*types.Task `json:"tasks"`
}

type BatchService interface {
	// List hides inactive batches from everyone but admins.
	List(dbc dbctx.Context) ([]*types.Batch, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error)
	Create(dbc dbctx.Context, in BatchInput) (*types.Batch, error)
	Update(dbc dbctx.Context, id uuid.UUID, in BatchInput) (*types.Batch, error)
	// Delete soft-deletes the batch and its tasks and removes its enrollments and submissions.
	Delete(dbc dbctx.Context, id uuid.UUID) error
	Import(dbc dbctx.Context, doc *curriculum.Document) (*ImportResult, error)
}

type batchService struct {
	db             *gorm.DB
	log            *logger.Logger
	batchRepo      repos.BatchRepo
	taskRepo       repos.TaskRepo
	enrollmentRepo repos.EnrollmentRepo
	submissionRepo repos.SubmissionRepo
}

func NewBatchService(
	db *gorm.DB,
	log *logger.Logger,
	batchRepo repos.BatchRepo,
	taskRepo repos.TaskRepo,
	enrollmentRepo repos.EnrollmentRepo,
	submissionRepo repos.SubmissionRepo,
) BatchService {
	return &batchService{
		db:             db,
		log:            log.With("service", "BatchService"),
		batchRepo:      batchRepo,
		taskRepo:       taskRepo,
		enrollmentRepo: enrollmentRepo,
		submissionRepo: submissionRepo,
	}
}

func (s *batchService) List(dbc dbctx.Context) ([]*types.Batch, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	rows, err := s.batchRepo.List(dbc, repos.BatchFilter{ActiveOnly: !rd.IsAdmin()})
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return rows, nil
}

func (s *batchService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error) {
	if id == uuid.Nil {
		return nil, apierr.Validation("missing_batch_id", "batch id required")
	}
	b, err := s.batchRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	if b == nil {
		return nil, apierr.NotFound("batch_not_found", "batch not found")
	}
	return b, nil
}

func normalizeBatchInput(in *BatchInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.CourseName = strings.TrimSpace(in.CourseName)
	in.Description = strings.TrimSpace(in.Description)
	in.Instructor = strings.TrimSpace(in.Instructor)
	in.BannerImage = strings.TrimSpace(in.BannerImage)
	in.WhatYouLearn = cleanList(in.WhatYouLearn)
	in.Prerequisites = cleanList(in.Prerequisites)
	in.Benefits = cleanList(in.Benefits)
}

// cleanList trims entries and drops blanks, keeping order.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func applyBatchInput(b *types.Batch, in BatchInput) {
	b.Title = in.Title
	b.CourseName = in.CourseName
	b.Description = in.Description
	b.StartDate = in.StartDate.UTC()
	b.DurationDays = in.DurationDays
	b.BannerImage = in.BannerImage
	b.Instructor = in.Instructor
	b.Price = in.Price
	b.MaxStudents = in.MaxStudents
	b.WhatYouLearn = in.WhatYouLearn
	b.Prerequisites = in.Prerequisites
	b.Benefits = in.Benefits
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
}

func (s *batchService) Create(dbc dbctx.Context, in BatchInput) (*types.Batch, error) {
	if _, err := requireAdmin(dbc); err != nil {
		return nil, err
	}
	normalizeBatchInput(&in)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	b := &types.Batch{IsActive: true}
	applyBatchInput(b, in)
	if _, err := s.batchRepo.Create(dbc, []*types.Batch{b}); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	s.log.Info("Batch created", "batch_id", b.ID, "title", b.Title)
	return b, nil
}

func (s *batchService) Update(dbc dbctx.Context, id uuid.UUID, in BatchInput) (*types.Batch, error) {
	if _, err := requireAdmin(dbc); err != nil {
		return nil, err
	}
	normalizeBatchInput(&in)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var out *types.Batch
	err := inTx(dbc, s.db, func(dbc dbctx.Context) error {
		b, err := s.Get(dbc, id)
		if err != nil {
			return err
		}
		if in.DurationDays < b.DurationDays {
			tasks, err := s.taskRepo.GetByBatchID(dbc, id, true)
			if err != nil {
				return fmt.Errorf("load tasks: %w", err)
			}
			for _, t := range tasks {
				if t.DayNumber > in.DurationDays {
					return apierr.Validation(
						"duration_too_short",
						"task %q is scheduled on day %d, beyond the new duration of %d days",
						t.Title, t.DayNumber, in.DurationDays,
					)
				}
			}
		}
		applyBatchInput(b, in)
		if err := s.batchRepo.Update(dbc, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *batchService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if _, err := requireAdmin(dbc); err != nil {
		return err
	}
	err := inTx(dbc, s.db, func(dbc dbctx.Context) error {
		if _, err := s.Get(dbc, id); err != nil {
			return err
		}
		ids := []uuid.UUID{id}
		if err := s.submissionRepo.FullDeleteByBatchIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete submissions: %w", err)
		}
		if err := s.enrollmentRepo.FullDeleteByBatchIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete enrollments: %w", err)
		}
		if err := s.taskRepo.SoftDeleteByBatchIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		if err := s.batchRepo.SoftDeleteByIDs(dbc, ids); err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("Batch deleted", "batch_id", id)
	return nil
}

func (s *batchService) Import(dbc dbctx.Context, doc *curriculum.Document) (*ImportResult, error) {
	if _, err := requireAdmin(dbc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apierr.Validation("empty_document", "curriculum document required")
	}
	if err := doc.Validate(); err != nil {
		return nil, apierr.Validation("invalid_curriculum", "%s", err.Error())
	}

	out := &ImportResult{Batch: doc.ToBatch()}
	err := inTx(dbc, s.db, func(dbc dbctx.Context) error {
		if _, err := s.batchRepo.Create(dbc, []*types.Batch{out.Batch}); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		out.Tasks = doc.ToTasks(out.Batch.ID)
		if _, err := s.taskRepo.Create(dbc, out.Tasks); err != nil {
			return fmt.Errorf("create tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Curriculum imported", "batch_id", out.Batch.ID, "tasks", len(out.Tasks))
	return out, nil
}
