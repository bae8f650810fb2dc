package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEnrollmentRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "enroll@example.com")
	batch := testutil.SeedBatch(t, ctx, tx, time.Now().UTC(), 3)
	task := testutil.SeedTask(t, ctx, tx, batch.ID, 1, 0, true)

	created, err := repo.Create(dbc, []*types.Enrollment{{UserID: user.ID, BatchID: batch.ID, EnrolledAt: time.Now().UTC()}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created[0].ID == uuid.Nil || created[0].CompletedTasks == nil {
		t.Fatalf("Create: expected id and empty completion set: %+v", created[0])
	}

	_, err = repo.Create(dbc, []*types.Enrollment{{UserID: user.ID, BatchID: batch.ID, EnrolledAt: time.Now().UTC()}})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create duplicate: expected ErrDuplicatedKey, got %v", err)
	}

	got, err := repo.LockByUserAndBatch(dbc, user.ID, batch.ID)
	if err != nil {
		t.Fatalf("LockByUserAndBatch: %v", err)
	}
	if got == nil || got.ID != created[0].ID {
		t.Fatalf("LockByUserAndBatch: unexpected result: %+v", got)
	}

	now := time.Now().UTC()
	got.AddCompleted(task.ID)
	got.Progress = 100
	got.CompletedAt = &now
	if err := repo.UpdateProgress(dbc, got); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	reloaded, err := repo.GetByUserAndBatch(dbc, user.ID, batch.ID)
	if err != nil {
		t.Fatalf("GetByUserAndBatch: %v", err)
	}
	if reloaded.Progress != 100 || !reloaded.HasCompleted(task.ID) || reloaded.CompletedAt == nil {
		t.Fatalf("GetByUserAndBatch: progress not persisted: %+v", reloaded)
	}

	missing, err := repo.GetByUserAndBatch(dbc, uuid.New(), batch.ID)
	if err != nil {
		t.Fatalf("GetByUserAndBatch (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("GetByUserAndBatch (missing): expected nil")
	}

	count, err := repo.CountByBatchID(dbc, batch.ID)
	if err != nil {
		t.Fatalf("CountByBatchID: %v", err)
	}
	if count != 1 {
		t.Fatalf("CountByBatchID: expected 1, got %d", count)
	}

	byUser, err := repo.GetByUserID(dbc, user.ID)
	if err != nil || len(byUser) != 1 {
		t.Fatalf("GetByUserID: %v %+v", err, byUser)
	}
	byBatch, err := repo.GetByBatchID(dbc, batch.ID)
	if err != nil || len(byBatch) != 1 {
		t.Fatalf("GetByBatchID: %v %+v", err, byBatch)
	}

	if err := repo.FullDeleteByIDs(dbc, []uuid.UUID{created[0].ID}); err != nil {
		t.Fatalf("FullDeleteByIDs: %v", err)
	}
	count, err = repo.CountByBatchID(dbc, batch.ID)
	if err != nil {
		t.Fatalf("CountByBatchID after delete: %v", err)
	}
	if count != 0 {
		t.Fatalf("CountByBatchID after delete: expected 0, got %d", count)
	}
}

func TestSubmissionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "submit@example.com")
	other := testutil.SeedUser(t, ctx, tx, "other@example.com")
	batch := testutil.SeedBatch(t, ctx, tx, time.Now().UTC(), 3)
	task := testutil.SeedTask(t, ctx, tx, batch.ID, 1, 0, true)

	created, err := repo.Create(dbc, []*types.TaskSubmission{{
		TaskID:      task.ID,
		UserID:      user.ID,
		BatchID:     batch.ID,
		Content:     "v1",
		Files:       []types.SubmissionFile{{URL: "https://x/a.pdf", Name: "a.pdf", Type: "application/pdf", Size: 10}},
		Status:      types.SubmissionPending,
		SubmittedAt: time.Now().UTC(),
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sub := created[0]

	_, err = repo.Create(dbc, []*types.TaskSubmission{{
		TaskID:      task.ID,
		UserID:      user.ID,
		BatchID:     batch.ID,
		Status:      types.SubmissionPending,
		SubmittedAt: time.Now().UTC(),
	}})
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create duplicate: expected ErrDuplicatedKey, got %v", err)
	}
	testutil.SeedSubmission(t, ctx, tx, task, other.ID, types.SubmissionApproved)

	got, err := repo.GetByTaskAndUser(dbc, task.ID, user.ID)
	if err != nil {
		t.Fatalf("GetByTaskAndUser: %v", err)
	}
	if got == nil || got.ID != sub.ID || len(got.Files) != 1 || got.Files[0].Name != "a.pdf" {
		t.Fatalf("GetByTaskAndUser: unexpected result: %+v", got)
	}

	pending, err := repo.List(dbc, SubmissionFilter{Status: types.SubmissionPending})
	if err != nil {
		t.Fatalf("List pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != sub.ID {
		t.Fatalf("List pending: unexpected result: %+v", pending)
	}
	inBatch, err := repo.List(dbc, SubmissionFilter{BatchID: batch.ID})
	if err != nil {
		t.Fatalf("List batch: %v", err)
	}
	if len(inBatch) != 2 {
		t.Fatalf("List batch: expected 2, got %d", len(inBatch))
	}

	got.History = append(got.History, got.Snapshot())
	got.Content = "v2"
	ok, err := repo.UpdateIfRevision(dbc, got, 0)
	if err != nil {
		t.Fatalf("UpdateIfRevision: %v", err)
	}
	if !ok || got.Revision != 1 {
		t.Fatalf("UpdateIfRevision: expected success and revision 1, got ok=%v rev=%d", ok, got.Revision)
	}

	stale := *got
	stale.Content = "v3"
	ok, err = repo.UpdateIfRevision(dbc, &stale, 0)
	if err != nil {
		t.Fatalf("UpdateIfRevision (stale): %v", err)
	}
	if ok {
		t.Fatalf("UpdateIfRevision (stale): expected conflict")
	}

	reloaded, err := repo.GetByID(dbc, sub.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if reloaded.Content != "v2" || len(reloaded.History) != 1 || reloaded.History[0].Content != "v1" {
		t.Fatalf("GetByID: unexpected state after update: %+v", reloaded)
	}

	if err := repo.FullDeleteByTaskIDs(dbc, []uuid.UUID{task.ID}); err != nil {
		t.Fatalf("FullDeleteByTaskIDs: %v", err)
	}
	remaining, err := repo.List(dbc, SubmissionFilter{})
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("List after delete: expected none, got %d", len(remaining))
	}
}
