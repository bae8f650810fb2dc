package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/learning"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type TaskInput struct {
	BatchID      uuid.UUID           `json:"batch_id"`
	DayNumber    int                 `json:"day_number" validate:"min=1"`
	Order        int                 `json:"order" validate:"gte=0"`
	Title        string              `json:"title" validate:"required,max=300"`
	Description  string              `json:"description"`
	Contents     []types.TaskContent `json:"contents" validate:"required,min=1"`
	Resources    []string            `json:"resources"`
	CodeSnippets []string            `json:"code_snippets"`
	PDFs         []string            `json:"pdfs"`
	Images       []string            `json:"images"`
	IsPublished  *bool               `json:"is_published"`
}

type TaskService interface {
	// ListForBatch returns published tasks to enrolled students and every task to admins.
	ListForBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Task, error)
	Days(dbc dbctx.Context, batchID uuid.UUID) ([]learning.DayGroup, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.Task, error)
	Create(dbc dbctx.Context, in TaskInput) (*types.Task, error)
	Update(dbc dbctx.Context, id uuid.UUID, in TaskInput) (*types.Task, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type taskService struct {
	db             *gorm.DB
	log            *logger.Logger
	batchRepo      repos.BatchRepo
	taskRepo       repos.TaskRepo
	enrollmentRepo repos.EnrollmentRepo
	submissionRepo repos.SubmissionRepo
	enrollments    EnrollmentService
}

func NewTaskService(
	db *gorm.DB,
	log *logger.Logger,
	batchRepo repos.BatchRepo,
	taskRepo repos.TaskRepo,
	enrollmentRepo repos.EnrollmentRepo,
	submissionRepo repos.SubmissionRepo,
	enrollments EnrollmentService,
) TaskService {
	return &taskService{
		db:             db,
		log:            log.With("service", "TaskService"),
		batchRepo:      batchRepo,
		taskRepo:       taskRepo,
		enrollmentRepo: enrollmentRepo,
		submissionRepo: submissionRepo,
		enrollments:    enrollments,
	}
}

// access loads the batch and reports whether the caller may see unpublished tasks.
func (s *taskService) access(dbc dbctx.Context, batchID uuid.UUID) (*types.Batch, bool, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, false, err
	}
	batch, err := s.batchRepo.GetByID(dbc, batchID)
	if err != nil {
		return nil, false, fmt.Errorf("load batch: %w", err)
	}
	if batch == nil {
		return nil, false, apierr.NotFound("batch_not_found", "batch not found")
	}
	if rd.IsAdmin() {
		return batch, true, nil
	}
	e, err := s.enrollmentRepo.GetByUserAndBatch(dbc, rd.UserID, batchID)
	if err != nil {
		return nil, false, fmt.Errorf("load enrollment: %w", err)
	}
	if e == nil {
		return nil, false, apierr.Forbidden("not_enrolled", "enroll in this batch to see its tasks")
	}
	return batch, false, nil
}

func (s *taskService) ListForBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Task, error) {
	_, all, err := s.access(dbc, batchID)
	if err != nil {
		return nil, err
	}
	rows, err := s.taskRepo.GetByBatchID(dbc, batchID, all)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return rows, nil
}

func (s *taskService) Days(dbc dbctx.Context, batchID uuid.UUID) ([]learning.DayGroup, error) {
	batch, _, err := s.access(dbc, batchID)
	if err != nil {
		return nil, err
	}
	rows, err := s.taskRepo.GetByBatchID(dbc, batchID, false)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	days := learning.GroupTasksByDay(batch.DurationDays, rows)
	for i := range days {
		for _, t := range days[i].Tasks {
			if t.IsPlaceholder {
				t.BatchID = batch.ID
			}
		}
	}
	return days, nil
}

func (s *taskService) Get(dbc dbctx.Context, id uuid.UUID) (*types.Task, error) {
	t, err := s.taskRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if t == nil {
		return nil, apierr.NotFound("task_not_found", "task not found")
	}
	_, all, err := s.access(dbc, t.BatchID)
	if err != nil {
		return nil, err
	}
	if !t.IsPublished && !all {
		return nil, apierr.NotFound("task_not_found", "task not found")
	}
	return t, nil
}

func normalizeTaskInput(in *TaskInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Resources = cleanList(in.Resources)
	in.CodeSnippets = cleanList(in.CodeSnippets)
	in.PDFs = cleanList(in.PDFs)
	in.Images = cleanList(in.Images)
	if err := validateInput(*in); err != nil {
		return err
	}
	for i, c := range in.Contents {
		if !c.Type.Valid() {
			return apierr.Validation("invalid_content_type", "contents[%d].type %q is not supported", i, c.Type)
		}
	}
	return nil
}

func checkDay(batch *types.Batch, day int) error {
	if day > batch.DurationDays {
		return apierr.Validation(
			"day_out_of_range",
			"day_number %d is beyond the batch duration of %d days",
			day, batch.DurationDays,
		)
	}
	return nil
}

func (s *taskService) Create(dbc dbctx.Context, in TaskInput) (*types.Task, error) {
	if _, err := requireAdmin(dbc); err != nil {
		return nil, err
	}
	if in.BatchID == uuid.Nil {
		return nil, apierr.Validation("missing_batch_id", "batch_id is required")
	}
	if err := normalizeTaskInput(&in); err != nil {
		return nil, err
	}

	t := &types.Task{
		BatchID:      in.BatchID,
		DayNumber:    in.DayNumber,
		Order:        in.Order,
		Title:        in.Title,
		Description:  in.Description,
		Contents:     in.Contents,
		Resources:    in.Resources,
		CodeSnippets: in.CodeSnippets,
		PDFs:         in.PDFs,
		Images:       in.Images,
		IsPublished:  in.IsPublished == nil || *in.IsPublished,
	}
	err := inTx(dbc, s.db, func(dbc dbctx.Context) error {
		batch, err := s.batchRepo.GetByID(dbc, in.BatchID)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		if batch == nil {
			return apierr.NotFound("batch_not_found", "batch not found")
		}
		if err := checkDay(batch, in.DayNumber); err != nil {
			return err
		}
		if _, err := s.taskRepo.Create(dbc, []*types.Task{t}); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Task created", "task_id", t.ID, "batch_id", t.BatchID, "day", t.DayNumber)
	if t.IsPublished {
		s.recompute(dbc, t.BatchID)
	}
	return t, nil
}

func (s *taskService) Update(dbc dbctx.Context, id uuid.UUID, in TaskInput) (*types.Task, error) {
	if _, err := requireAdmin(dbc); err != nil {
		return nil, err
	}
	if err := normalizeTaskInput(&in); err != nil {
		return nil, err
	}

	var (
		out     *types.Task
		toggled bool
	)
	err := inTx(dbc, s.db, func(dbc dbctx.Context) error {
		t, err := s.taskRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load task: %w", err)
		}
		if t == nil {
			return apierr.NotFound("task_not_found", "task not found")
		}
		if in.BatchID != uuid.Nil && in.BatchID != t.BatchID {
			return apierr.Validation("batch_immutable", "a task cannot move to another batch")
		}
		batch, err := s.batchRepo.GetByID(dbc, t.BatchID)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		if batch == nil {
			return apierr.NotFound("batch_not_found", "batch not found")
		}
		if err := checkDay(batch, in.DayNumber); err != nil {
			return err
		}

		wasPublished := t.IsPublished
		t.DayNumber = in.DayNumber
		t.Order = in.Order
		t.Title = in.Title
		t.Description = in.Description
		t.Contents = in.Contents
		t.Resources = in.Resources
		t.CodeSnippets = in.CodeSnippets
		t.PDFs = in.PDFs
		t.Images = in.Images
		if in.IsPublished != nil {
			t.IsPublished = *in.IsPublished
		}
		if err := s.taskRepo.Update(dbc, t); err != nil {
			return fmt.Errorf("update task: %w", err)
		}
		toggled = wasPublished != t.IsPublished
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if toggled {
		s.recompute(dbc, out.BatchID)
	}
	return out, nil
}

func (s *taskService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if _, err := requireAdmin(dbc); err != nil {
		return err
	}
	var deleted *types.Task
	err := inTx(dbc, s.db, func(dbc dbctx.Context) error {
		t, err := s.taskRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load task: %w", err)
		}
		if t == nil {
			return apierr.NotFound("task_not_found", "task not found")
		}
		if err := s.submissionRepo.FullDeleteByTaskIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete submissions: %w", err)
		}
		if err := s.taskRepo.SoftDeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		deleted = t
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("Task deleted", "task_id", id, "batch_id", deleted.BatchID)
	if deleted.IsPublished {
		s.recompute(dbc, deleted.BatchID)
	}
	return nil
}

// recompute refreshes derived progress after a change to the published task set has committed. A failure
// is left for the reconcile job.
func (s *taskService) recompute(dbc dbctx.Context, batchID uuid.UUID) {
	if _, err := s.enrollments.RecomputeBatch(dbc, batchID); err != nil {
		s.log.Warn("Progress recompute failed", "batch_id", batchID, "error", err)
	}
}
