package course

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type BatchFilter struct {
	ActiveOnly bool
}

type BatchRepo interface {
	Create(dbc dbctx.Context, rows []*types.Batch) ([]*types.Batch, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Batch, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error)
	List(dbc dbctx.Context, filter BatchFilter) ([]*types.Batch, error)
	Update(dbc dbctx.Context, row *types.Batch) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type batchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return &batchRepo{db: db, log: baseLog.With("repo", "BatchRepo")}
}

func (r *batchRepo) Create(dbc dbctx.Context, rows []*types.Batch) ([]*types.Batch, error) {
	if len(rows) == 0 {
		return []*types.Batch{}, nil
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

func (r *batchRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Batch, error) {
	var out []*types.Batch
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *batchRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Batch, error) {
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

// List returns batches ordered by start date, newest first.
func (r *batchRepo) List(dbc dbctx.Context, filter BatchFilter) ([]*types.Batch, error) {
	q := dbc.DB(r.db).Model(&types.Batch{})
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []*types.Batch
	if err := q.Order("start_date DESC").Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *batchRepo) Update(dbc dbctx.Context, row *types.Batch) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return dbc.DB(r.db).Save(row).Error
}

func (r *batchRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Batch{}).Error
}
