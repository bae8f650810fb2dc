package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
)

// inTx runs fn in dbc's transaction when it carries one and in a fresh transaction otherwise.
func inTx(dbc dbctx.Context, db *gorm.DB, fn func(dbc dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	ctx := ctxutil.Default(dbc.Ctx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}

func requireCaller(dbc dbctx.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("unauthorized", "authentication required")
	}
	return rd, nil
}

func requireAdmin(dbc dbctx.Context) (*ctxutil.RequestData, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	if !rd.IsAdmin() {
		return nil, apierr.Forbidden("admin_required", "admin role required")
	}
	return rd, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
