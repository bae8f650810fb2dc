package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/pkg/pointers"
)

// SubmissionInput carries raw file and link entries as the client sent them; they are sanitized before use.
type SubmissionInput struct {
	TaskID  uuid.UUID        `json:"task_id"`
	BatchID uuid.UUID        `json:"batch_id"`
	Content string           `json:"content"`
	Files   []map[string]any `json:"files"`
	Links   []map[string]any `json:"links"`
}

type ReviewInput struct {
	Status   types.SubmissionStatus `json:"status" validate:"required,oneof=approved rejected reviewed"`
	Feedback string                 `json:"feedback" validate:"max=10000"`
	Grade    *int                   `json:"grade" validate:"omitempty,min=0,max=100"`
}

type SubmissionService interface {
	Create(dbc dbctx.Context, userID uuid.UUID, in SubmissionInput) (*types.TaskSubmission, error)
	// Submit creates the caller's submission for the task or resubmits the existing one.
	Submit(dbc dbctx.Context, in SubmissionInput) (*types.TaskSubmission, error)
	Resubmit(dbc dbctx.Context, id uuid.UUID, in SubmissionInput) (*types.TaskSubmission, error)
	Review(dbc dbctx.Context, id uuid.UUID, in ReviewInput) (*types.TaskSubmission, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	// List scopes non-admin callers to their own submissions whatever the filter says.
	List(dbc dbctx.Context, filter repos.SubmissionFilter) ([]*types.TaskSubmission, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*types.TaskSubmission, error)
}

type submissionService struct {
	db             *gorm.DB
	log            *logger.Logger
	taskRepo       repos.TaskRepo
	enrollmentRepo repos.EnrollmentRepo
	submissionRepo repos.SubmissionRepo
	enrollments    EnrollmentService
	notifier       NotificationService
	now            func() time.Time
}

func NewSubmissionService(
	db *gorm.DB,
	log *logger.Logger,
	taskRepo repos.TaskRepo,
	enrollmentRepo repos.EnrollmentRepo,
	submissionRepo repos.SubmissionRepo,
	enrollments EnrollmentService,
	notifier NotificationService,
) SubmissionService {
	return &submissionService{
		db:             db,
		log:            log.With("service", "SubmissionService"),
		taskRepo:       taskRepo,
		enrollmentRepo: enrollmentRepo,
		submissionRepo: submissionRepo,
		enrollments:    enrollments,
		notifier:       notifier,
		now:            time.Now,
	}
}

func (s *submissionService) Create(dbc dbctx.Context, userID uuid.UUID, in SubmissionInput) (*types.TaskSubmission, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	if in.TaskID == uuid.Nil || userID == uuid.Nil || in.BatchID == uuid.Nil {
		return nil, apierr.Validation("missing_ids", "task_id, user_id and batch_id are required")
	}
	if userID != rd.UserID && !rd.IsAdmin() {
		return nil, apierr.Forbidden("forbidden", "cannot submit on behalf of another student")
	}

	var (
		out       *types.TaskSubmission
		published bool
	)
	err = inTx(dbc, s.db, func(dbc dbctx.Context) error {
		task, err := s.taskRepo.GetByID(dbc, in.TaskID)
		if err != nil {
			return fmt.Errorf("load task: %w", err)
		}
		if task == nil {
			return apierr.NotFound("task_not_found", "task not found")
		}
		if task.BatchID != in.BatchID {
			return apierr.Validation("task_batch_mismatch", "task does not belong to this batch")
		}
		e, err := s.enrollmentRepo.GetByUserAndBatch(dbc, userID, in.BatchID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if e == nil {
			return apierr.Forbidden("not_enrolled", "not enrolled in this batch")
		}

		row := &types.TaskSubmission{
			TaskID:      in.TaskID,
			UserID:      userID,
			BatchID:     in.BatchID,
			Content:     strings.TrimSpace(in.Content),
			Files:       SanitizeFiles(in.Files),
			Links:       SanitizeLinks(in.Links),
			Status:      types.SubmissionPending,
			SubmittedAt: s.now().UTC(),
			History:     []types.SubmissionVersion{},
		}
		if _, err := s.submissionRepo.Create(dbc, []*types.TaskSubmission{row}); err != nil {
			if isDuplicate(err) {
				return apierr.Conflict("already_submitted", "a submission for this task already exists")
			}
			return fmt.Errorf("create submission: %w", err)
		}
		out = row
		published = task.IsPublished
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Submission created", "submission_id", out.ID, "task_id", out.TaskID, "user_id", userID)

	// The first submission for a task counts as completing it. Runs after commit so a resulting
	// certificate notification sees the new state.
	if published {
		if _, err := s.enrollments.MarkTaskComplete(dbc, userID, in.BatchID, in.TaskID); err != nil {
			s.log.Warn("Mark task complete after submission failed", "submission_id", out.ID, "error", err)
		}
	}
	return out, nil
}

func (s *submissionService) Submit(dbc dbctx.Context, in SubmissionInput) (*types.TaskSubmission, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	if in.TaskID == uuid.Nil {
		return nil, apierr.Validation("missing_ids", "task_id, user_id and batch_id are required")
	}
	existing, err := s.submissionRepo.GetByTaskAndUser(dbc, in.TaskID, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if existing == nil {
		return s.Create(dbc, rd.UserID, in)
	}
	if in.BatchID != uuid.Nil && in.BatchID != existing.BatchID {
		return nil, apierr.Validation("task_batch_mismatch", "task does not belong to this batch")
	}
	return s.resubmit(dbc, rd.UserID, existing, in)
}

func (s *submissionService) Resubmit(dbc dbctx.Context, id uuid.UUID, in SubmissionInput) (*types.TaskSubmission, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	existing, err := s.submissionRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if existing == nil {
		return nil, apierr.NotFound("submission_not_found", "submission not found")
	}
	return s.resubmit(dbc, rd.UserID, existing, in)
}

// resubmit snapshots the current body into history, overwrites it and resets the status to pending.
// The last review's feedback, grade and reviewedAt are left in place for display.
func (s *submissionService) resubmit(dbc dbctx.Context, callerID uuid.UUID, existing *types.TaskSubmission, in SubmissionInput) (*types.TaskSubmission, error) {
	if existing.UserID != callerID {
		return nil, apierr.Forbidden("forbidden", "only the author can resubmit")
	}
	expected := existing.Revision
	existing.History = append(existing.History, existing.Snapshot())
	existing.Content = strings.TrimSpace(in.Content)
	existing.Files = SanitizeFiles(in.Files)
	existing.Links = SanitizeLinks(in.Links)
	existing.SubmittedAt = s.now().UTC()
	existing.Status = types.SubmissionPending

	ok, err := s.submissionRepo.UpdateIfRevision(dbc, existing, expected)
	if err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	if !ok {
		return nil, apierr.Conflict("submission_conflict", "submission changed while resubmitting; reload and try again")
	}
	s.log.Info("Submission resubmitted", "submission_id", existing.ID, "version", len(existing.History)+1)
	return existing, nil
}

func (s *submissionService) Review(dbc dbctx.Context, id uuid.UUID, in ReviewInput) (*types.TaskSubmission, error) {
	rd, err := requireAdmin(dbc)
	if err != nil {
		return nil, err
	}
	in.Status = types.SubmissionStatus(strings.ToLower(strings.TrimSpace(string(in.Status))))
	if err := validateInput(in); err != nil {
		return nil, err
	}

	existing, err := s.submissionRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if existing == nil {
		return nil, apierr.NotFound("submission_not_found", "submission not found")
	}
	if existing.Status == types.SubmissionApproved && in.Status == types.SubmissionApproved {
		return nil, apierr.Conflict("already_approved", "submission is already approved")
	}

	expected := existing.Revision
	existing.Status = in.Status
	existing.Feedback = strings.TrimSpace(in.Feedback)
	existing.Grade = in.Grade
	existing.ReviewedAt = pointers.Time(s.now().UTC())
	existing.ReviewedBy = pointers.Ptr(rd.UserID)

	ok, err := s.submissionRepo.UpdateIfRevision(dbc, existing, expected)
	if err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	if !ok {
		return nil, apierr.Conflict("submission_conflict", "submission changed during review; reload and try again")
	}
	s.log.Info("Submission reviewed", "submission_id", existing.ID, "status", existing.Status, "reviewer", rd.UserID)

	if s.notifier != nil {
		s.notifier.SubmissionReviewed(dbc.Ctx, existing)
	}
	return existing, nil
}

func (s *submissionService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	rd, err := requireCaller(dbc)
	if err != nil {
		return err
	}
	existing, err := s.submissionRepo.GetByID(dbc, id)
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if existing == nil {
		return apierr.NotFound("submission_not_found", "submission not found")
	}
	if existing.UserID != rd.UserID && !rd.IsAdmin() {
		return apierr.Forbidden("forbidden", "cannot delete another student's submission")
	}
	if !existing.Status.Deletable() {
		return apierr.Conflict("submission_locked", "a %s submission cannot be deleted", existing.Status)
	}
	if err := s.submissionRepo.FullDeleteByIDs(dbc, []uuid.UUID{id}); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	s.log.Info("Submission deleted", "submission_id", id, "by", rd.UserID)
	return nil
}

func (s *submissionService) List(dbc dbctx.Context, filter repos.SubmissionFilter) ([]*types.TaskSubmission, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	if !rd.IsAdmin() {
		filter.UserID = rd.UserID
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apierr.Validation("invalid_status", "unknown status %q", filter.Status)
	}
	rows, err := s.submissionRepo.List(dbc, filter)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return rows, nil
}

func (s *submissionService) Get(dbc dbctx.Context, id uuid.UUID) (*types.TaskSubmission, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	row, err := s.submissionRepo.GetByID(dbc, id)
	if err != nil {
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if row == nil || (row.UserID != rd.UserID && !rd.IsAdmin()) {
		return nil, apierr.NotFound("submission_not_found", "submission not found")
	}
	return row, nil
}

// SanitizeFiles keeps entries with a non-empty string url and fills in defaults for the rest.
func SanitizeFiles(raw []map[string]any) []types.SubmissionFile {
	out := make([]types.SubmissionFile, 0, len(raw))
	for _, m := range raw {
		u := stringField(m, "url")
		if u == "" {
			continue
		}
		f := types.SubmissionFile{
			URL:      u,
			Name:     stringField(m, "name"),
			Type:     stringField(m, "type"),
			Size:     int64Field(m, "size"),
			PublicID: stringField(m, "publicId", "public_id"),
		}
		if f.Name == "" {
			f.Name = "Unnamed file"
		}
		if f.Type == "" {
			f.Type = "unknown"
		}
		out = append(out, f)
	}
	return out
}

func SanitizeLinks(raw []map[string]any) []types.SubmissionLink {
	out := make([]types.SubmissionLink, 0, len(raw))
	for _, m := range raw {
		u := stringField(m, "url")
		if u == "" {
			continue
		}
		out = append(out, types.SubmissionLink{URL: u, Description: stringField(m, "description")})
	}
	return out
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func int64Field(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		if v > 0 {
			return int64(v)
		}
	case int:
		if v > 0 {
			return int64(v)
		}
	case int64:
		if v > 0 {
			return v
		}
	}
	return 0
}
