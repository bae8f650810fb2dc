package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/learning"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

// ProgressReport is the learning page's view of one enrollment.
type ProgressReport struct {
	Enrollment *types.Enrollment `json:"enrollment"`
	Progress   learning.Progress `json:"progress"`
	Schedule   learning.Schedule `json:"schedule"`
}

type EnrollmentService interface {
	Enroll(dbc dbctx.Context, batchID uuid.UUID) (*types.Enrollment, error)
	// Get returns the caller's enrollment in batchID.
	Get(dbc dbctx.Context, batchID uuid.UUID) (*types.Enrollment, error)
	ListForUser(dbc dbctx.Context) ([]*types.Enrollment, error)
	ListForBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Enrollment, error)
	Progress(dbc dbctx.Context, batchID uuid.UUID) (*ProgressReport, error)
	// MarkTaskComplete and MarkTaskIncomplete are no-ops when the task is already in the requested state.
	// A nil batchID means the task's own batch.
	MarkTaskComplete(dbc dbctx.Context, userID, batchID, taskID uuid.UUID) (*types.Enrollment, error)
	MarkTaskIncomplete(dbc dbctx.Context, userID, batchID, taskID uuid.UUID) (*types.Enrollment, error)
	// RecomputeBatch rewrites the derived progress of every enrollment in batchID and returns how many changed.
	RecomputeBatch(dbc dbctx.Context, batchID uuid.UUID) (int, error)
	RecomputeAll(dbc dbctx.Context) (int, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	batchRepo      repos.BatchRepo
	taskRepo       repos.TaskRepo
	enrollmentRepo repos.EnrollmentRepo
	notifier       NotificationService
	now            func() time.Time
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	batchRepo repos.BatchRepo,
	taskRepo repos.TaskRepo,
	enrollmentRepo repos.EnrollmentRepo,
	notifier NotificationService,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		batchRepo:      batchRepo,
		taskRepo:       taskRepo,
		enrollmentRepo: enrollmentRepo,
		notifier:       notifier,
		now:            time.Now,
	}
}

func (s *enrollmentService) Enroll(dbc dbctx.Context, batchID uuid.UUID) (*types.Enrollment, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	if batchID == uuid.Nil {
		return nil, apierr.Validation("missing_batch_id", "batch id required")
	}

	var out *types.Enrollment
	err = inTx(dbc, s.db, func(dbc dbctx.Context) error {
		batch, err := s.batchRepo.GetByID(dbc, batchID)
		if err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
		if batch == nil {
			return apierr.NotFound("batch_not_found", "batch not found")
		}
		if !batch.IsActive {
			return apierr.Validation("batch_inactive", "batch is not open for enrollment")
		}
		existing, err := s.enrollmentRepo.GetByUserAndBatch(dbc, rd.UserID, batchID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if existing != nil {
			return apierr.Conflict("already_enrolled", "already enrolled in this batch")
		}
		count, err := s.enrollmentRepo.CountByBatchID(dbc, batchID)
		if err != nil {
			return fmt.Errorf("count enrollments: %w", err)
		}
		if batch.MaxStudents > 0 && count >= int64(batch.MaxStudents) {
			return apierr.Conflict("batch_full", "batch has reached its capacity of %d students", batch.MaxStudents)
		}

		row := &types.Enrollment{
			UserID:         rd.UserID,
			BatchID:        batchID,
			EnrolledAt:     s.now().UTC(),
			CompletedTasks: []uuid.UUID{},
		}
		if _, err := s.enrollmentRepo.Create(dbc, []*types.Enrollment{row}); err != nil {
			if isDuplicate(err) {
				return apierr.Conflict("already_enrolled", "already enrolled in this batch")
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Enrolled", "user_id", rd.UserID, "batch_id", batchID)
	return out, nil
}

func (s *enrollmentService) Get(dbc dbctx.Context, batchID uuid.UUID) (*types.Enrollment, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	e, err := s.enrollmentRepo.GetByUserAndBatch(dbc, rd.UserID, batchID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if e == nil {
		return nil, apierr.NotFound("not_enrolled", "not enrolled in this batch")
	}
	return e, nil
}

func (s *enrollmentService) ListForUser(dbc dbctx.Context) ([]*types.Enrollment, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	rows, err := s.enrollmentRepo.GetByUserID(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

func (s *enrollmentService) ListForBatch(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Enrollment, error) {
	if _, err := requireAdmin(dbc); err != nil {
		return nil, err
	}
	if batchID == uuid.Nil {
		return nil, apierr.Validation("missing_batch_id", "batchId query parameter required")
	}
	rows, err := s.enrollmentRepo.GetByBatchID(dbc, batchID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

func (s *enrollmentService) Progress(dbc dbctx.Context, batchID uuid.UUID) (*ProgressReport, error) {
	e, err := s.Get(dbc, batchID)
	if err != nil {
		return nil, err
	}
	batch, err := s.batchRepo.GetByID(dbc, batchID)
	if err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	if batch == nil {
		return nil, apierr.NotFound("batch_not_found", "batch not found")
	}
	published, err := s.taskRepo.PublishedIDsByBatchID(dbc, batchID)
	if err != nil {
		return nil, fmt.Errorf("load published tasks: %w", err)
	}
	return &ProgressReport{
		Enrollment: e,
		Progress:   learning.ComputeProgressFromIDs(published, e.CompletedTasks),
		Schedule:   learning.ComputeSchedule(batch.StartDate, batch.DurationDays, s.now()),
	}, nil
}

func (s *enrollmentService) MarkTaskComplete(dbc dbctx.Context, userID, batchID, taskID uuid.UUID) (*types.Enrollment, error) {
	return s.setTaskState(dbc, userID, batchID, taskID, true)
}

func (s *enrollmentService) MarkTaskIncomplete(dbc dbctx.Context, userID, batchID, taskID uuid.UUID) (*types.Enrollment, error) {
	return s.setTaskState(dbc, userID, batchID, taskID, false)
}

func (s *enrollmentService) setTaskState(dbc dbctx.Context, userID, batchID, taskID uuid.UUID, complete bool) (*types.Enrollment, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	if userID == uuid.Nil {
		userID = rd.UserID
	}
	if userID != rd.UserID && !rd.IsAdmin() {
		return nil, apierr.Forbidden("forbidden", "cannot change another student's progress")
	}
	if taskID == uuid.Nil {
		return nil, apierr.Validation("missing_task_id", "task id required")
	}

	var (
		out      *types.Enrollment
		finished bool
	)
	err = inTx(dbc, s.db, func(dbc dbctx.Context) error {
		task, err := s.taskRepo.GetByID(dbc, taskID)
		if err != nil {
			return fmt.Errorf("load task: %w", err)
		}
		if task == nil {
			return apierr.NotFound("task_not_found", "task not found")
		}
		if batchID == uuid.Nil {
			batchID = task.BatchID
		}
		if task.BatchID != batchID {
			return apierr.Validation("task_batch_mismatch", "task does not belong to this batch")
		}
		if complete && !task.IsPublished {
			return apierr.Validation("task_unpublished", "task is not published")
		}

		e, err := s.enrollmentRepo.LockByUserAndBatch(dbc, userID, batchID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if e == nil {
			return apierr.Forbidden("not_enrolled", "not enrolled in this batch")
		}
		out = e

		var changed bool
		if complete {
			changed = e.AddCompleted(taskID)
		} else {
			changed = e.RemoveCompleted(taskID)
		}
		if !changed {
			return nil
		}

		published, err := s.taskRepo.PublishedIDsByBatchID(dbc, batchID)
		if err != nil {
			return fmt.Errorf("load published tasks: %w", err)
		}
		finished, _ = s.applyProgress(e, published)
		if err := s.enrollmentRepo.UpdateProgress(dbc, e); err != nil {
			return fmt.Errorf("update enrollment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if finished {
		s.log.Info("Batch completed", "user_id", userID, "batch_id", batchID)
		s.notifyCertificate(dbc.Ctx, userID, batchID)
	}
	return out, nil
}

// applyProgress recomputes e's derived fields. It reports whether progress just reached 100 and whether
// anything changed.
func (s *enrollmentService) applyProgress(e *types.Enrollment, published []uuid.UUID) (finished, changed bool) {
	p := learning.ComputeProgressFromIDs(published, e.CompletedTasks)
	changed = e.Progress != p.Percentage
	e.Progress = p.Percentage

	switch {
	case p.Percentage == 100 && e.CompletedAt == nil:
		at := s.now().UTC()
		e.CompletedAt = &at
		finished, changed = true, true
	case p.Percentage < 100 && e.CompletedAt != nil:
		e.CompletedAt = nil
		changed = true
	}
	return finished, changed
}

func (s *enrollmentService) RecomputeBatch(dbc dbctx.Context, batchID uuid.UUID) (int, error) {
	var (
		changedCount int
		finished     []uuid.UUID
	)
	err := inTx(dbc, s.db, func(dbc dbctx.Context) error {
		published, err := s.taskRepo.PublishedIDsByBatchID(dbc, batchID)
		if err != nil {
			return fmt.Errorf("load published tasks: %w", err)
		}
		rows, err := s.enrollmentRepo.GetByBatchID(dbc, batchID)
		if err != nil {
			return fmt.Errorf("load enrollments: %w", err)
		}
		for _, e := range rows {
			done, changed := s.applyProgress(e, published)
			if !changed {
				continue
			}
			if err := s.enrollmentRepo.UpdateProgress(dbc, e); err != nil {
				return fmt.Errorf("update enrollment %s: %w", e.ID, err)
			}
			changedCount++
			if done {
				finished = append(finished, e.UserID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, userID := range finished {
		s.notifyCertificate(dbc.Ctx, userID, batchID)
	}
	if changedCount > 0 {
		s.log.Debug("Recomputed batch progress", "batch_id", batchID, "changed", changedCount)
	}
	return changedCount, nil
}

func (s *enrollmentService) RecomputeAll(dbc dbctx.Context) (int, error) {
	batches, err := s.batchRepo.List(dbc, repos.BatchFilter{})
	if err != nil {
		return 0, fmt.Errorf("list batches: %w", err)
	}
	total := 0
	for _, b := range batches {
		n, err := s.RecomputeBatch(dbc, b.ID)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *enrollmentService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if _, err := requireAdmin(dbc); err != nil {
		return err
	}
	e, err := s.enrollmentRepo.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load enrollment: %w", err)
	}
	if e == nil {
		return apierr.NotFound("enrollment_not_found", "enrollment not found")
	}
	if err := s.enrollmentRepo.FullDeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

func (s *enrollmentService) notifyCertificate(ctx context.Context, userID, batchID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.CertificateEarned(ctx, userID, batchID)
}
