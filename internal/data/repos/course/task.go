package course

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type TaskRepo interface {
	Create(dbc dbctx.Context, rows []*types.Task) ([]*types.Task, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Task, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Task, error)
	// GetByBatchID returns tasks ordered by day then order. Unpublished tasks are included only when asked.
	GetByBatchID(dbc dbctx.Context, batchID uuid.UUID, includeUnpublished bool) ([]*types.Task, error)
	PublishedIDsByBatchID(dbc dbctx.Context, batchID uuid.UUID) ([]uuid.UUID, error)
	Update(dbc dbctx.Context, row *types.Task) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	SoftDeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) error
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) Create(dbc dbctx.Context, rows []*types.Task) ([]*types.Task, error) {
	if len(rows) == 0 {
		return []*types.Task{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *taskRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Task, error) {
	var out []*types.Task
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Task, error) {
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

func (r *taskRepo) GetByBatchID(dbc dbctx.Context, batchID uuid.UUID, includeUnpublished bool) ([]*types.Task, error) {
	var out []*types.Task
	if batchID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("batch_id = ?", batchID)
	if !includeUnpublished {
		q = q.Where("is_published = ?", true)
	}
	if err := q.
		Order("day_number ASC").
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *taskRepo) PublishedIDsByBatchID(dbc dbctx.Context, batchID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if batchID == uuid.Nil {
		return ids, nil
	}
	if err := dbc.DB(r.db).
		Model(&types.Task{}).
		Where("batch_id = ? AND is_published = ?", batchID, true).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *taskRepo) Update(dbc dbctx.Context, row *types.Task) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).Save(row).Error
}

func (r *taskRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Task{}).Error
}

func (r *taskRepo) SoftDeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) error {
	if len(batchIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("batch_id IN ?", batchIDs).Delete(&types.Task{}).Error
}
