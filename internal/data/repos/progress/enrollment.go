package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Enrollment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error)
	GetByUserAndBatch(dbc dbctx.Context, userID, batchID uuid.UUID) (*types.Enrollment, error)
	// LockByUserAndBatch is GetByUserAndBatch with a row lock; call it inside a transaction.
	LockByUserAndBatch(dbc dbctx.Context, userID, batchID uuid.UUID) (*types.Enrollment, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error)
	GetByBatchID(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Enrollment, error)
	CountByBatchID(dbc dbctx.Context, batchID uuid.UUID) (int64, error)
	UpdateProgress(dbc dbctx.Context, row *types.Enrollment) error
	FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	FullDeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error) {
	if len(rows) == 0 {
		return []*types.Enrollment{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CompletedTasks == nil {
			row.CompletedTasks = []uuid.UUID{}
		}
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Enrollment, error) {
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

func (r *enrollmentRepo) GetByUserAndBatch(dbc dbctx.Context, userID, batchID uuid.UUID) (*types.Enrollment, error) {
	return r.getByUserAndBatch(dbc.DB(r.db), userID, batchID)
}

func (r *enrollmentRepo) LockByUserAndBatch(dbc dbctx.Context, userID, batchID uuid.UUID) (*types.Enrollment, error) {
	return r.getByUserAndBatch(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), userID, batchID)
}

func (r *enrollmentRepo) getByUserAndBatch(q *gorm.DB, userID, batchID uuid.UUID) (*types.Enrollment, error) {
	if userID == uuid.Nil || batchID == uuid.Nil {
		return nil, nil
	}
	var out []*types.Enrollment
	if err := q.
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *enrollmentRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) GetByBatchID(dbc dbctx.Context, batchID uuid.UUID) ([]*types.Enrollment, error) {
	var out []*types.Enrollment
	if batchID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("batch_id = ?", batchID).
		Order("enrolled_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) CountByBatchID(dbc dbctx.Context, batchID uuid.UUID) (int64, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.Enrollment{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// UpdateProgress writes the completion set, percentage and completion timestamp of row.
func (r *enrollmentRepo) UpdateProgress(dbc dbctx.Context, row *types.Enrollment) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	completed := row.CompletedTasks
	if completed == nil {
		completed = []uuid.UUID{}
	}
	return dbc.DB(r.db).
		Model(&types.Enrollment{}).
		Where("id = ?", row.ID).
		Updates(map[string]interface{}{
			"completed_tasks": completed,
			"progress":        row.Progress,
			"completed_at":    row.CompletedAt,
		}).Error
}

func (r *enrollmentRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Enrollment{}).Error
}

func (r *enrollmentRepo) FullDeleteByBatchIDs(dbc dbctx.Context, batchIDs []uuid.UUID) error {
	if len(batchIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("batch_id IN ?", batchIDs).Delete(&types.Enrollment{}).Error
}
