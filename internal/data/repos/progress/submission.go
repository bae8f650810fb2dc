package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type SubmissionFilter struct {
	UserID  uuid.UUID
	BatchID uuid.UUID
	TaskID  uuid.UUID
	Status  types.SubmissionStatus
}

type SubmissionRepo interface {
	Create(dbc dbctx.Context, rows []*types.TaskSubmission) ([]*types.TaskSubmission, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.TaskSubmission, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TaskSubmission, error)
	GetByTaskAndUser(dbc dbctx.Context, taskID, userID uuid.UUID) (*types.TaskSubmission, error)
	List(dbc dbctx.Context, filter SubmissionFilter) ([]*types.TaskSubmission, error)
	// UpdateIfRevision saves row only while the stored revision still equals expected and bumps it.
	// It reports false when another writer got there first.
	UpdateIfRevision(dbc dbctx.Context, row *types.TaskSubmission, expected int) (bool, error)
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	FullDeleteByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) error
	FullDeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) error
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) Create(dbc dbctx.Context, rows []*types.TaskSubmission) ([]*types.TaskSubmission, error) {
	if len(rows) == 0 {
		return []*types.TaskSubmission{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.Files == nil {
			row.Files = []types.SubmissionFile{}
		}
		if row.Links == nil {
			row.Links = []types.SubmissionLink{}
		}
		if row.History == nil {
			row.History = []types.SubmissionVersion{}
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *submissionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.TaskSubmission, error) {
	var out []*types.TaskSubmission
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TaskSubmission, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *submissionRepo) GetByTaskAndUser(dbc dbctx.Context, taskID, userID uuid.UUID) (*types.TaskSubmission, error) {
	if taskID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var out []*types.TaskSubmission
	if err := dbc.DB(r.db).
		Where("task_id = ? AND user_id = ?", taskID, userID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// List returns matching submissions, most recently submitted first. Zero filter fields match everything.
func (r *submissionRepo) List(dbc dbctx.Context, filter SubmissionFilter) ([]*types.TaskSubmission, error) {
	q := dbc.DB(r.db).Model(&types.TaskSubmission{})
	if filter.UserID != uuid.Nil {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.BatchID != uuid.Nil {
		q = q.Where("batch_id = ?", filter.BatchID)
	}
	if filter.TaskID != uuid.Nil {
		q = q.Where("task_id = ?", filter.TaskID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var out []*types.TaskSubmission
	if err := q.Order("submitted_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) UpdateIfRevision(dbc dbctx.Context, row *types.TaskSubmission, expected int) (bool, error) {
	if row == nil || row.ID == uuid.Nil {
		return false, nil
	}
	res := dbc.DB(r.db).
		Model(&types.TaskSubmission{}).
		Where("id = ? AND revision = ?", row.ID, expected).
		Updates(map[string]interface{}{
			"content":      row.Content,
			"files":        row.Files,
			"links":        row.Links,
			"status":       row.Status,
			"feedback":     row.Feedback,
			"grade":        row.Grade,
			"submitted_at": row.SubmittedAt,
			"reviewed_at":  row.ReviewedAt,
			"reviewed_by":  row.ReviewedBy,
			"history":      row.History,
			"revision":     expected + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	row.Revision = expected + 1
	return true, nil
}

func (r *submissionRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.TaskSubmission{}).Error
}

func (r *submissionRepo) FullDeleteByTaskIDs(dbc dbctx.Context, taskIDs []uuid.UUID) error {
	if len(taskIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("task_id IN ?", taskIDs).Delete(&types.TaskSubmission{}).Error
}

func (r *submissionRepo) FullDeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) error {
	if len(batchIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("batch_id IN ?", batchIDs).Delete(&types.TaskSubmission{}).Error
}
