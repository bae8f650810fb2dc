package course

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
)

func TestBatchRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewBatchRepo(db, testutil.Logger(t))

	now := time.Now().UTC().Truncate(time.Second)
	created, err := repo.Create(dbc, []*types.Batch{
		{Title: "old", CourseName: "Go", StartDate: now.AddDate(0, -1, 0), DurationDays: 10, MaxStudents: 5, IsActive: true},
		{Title: "new", CourseName: "Go", StartDate: now, DurationDays: 10, MaxStudents: 5, IsActive: true},
		{Title: "hidden", CourseName: "Go", StartDate: now.AddDate(0, 1, 0), DurationDays: 10, MaxStudents: 5, IsActive: false},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3 rows, got %d", len(created))
	}

	active, err := repo.List(dbc, BatchFilter{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List active: %v", err)
	}
	if len(active) != 2 || active[0].Title != "new" || active[1].Title != "old" {
		t.Fatalf("List active: unexpected order or filter: %+v", active)
	}

	all, err := repo.List(dbc, BatchFilter{})
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 || all[0].Title != "hidden" {
		t.Fatalf("List all: unexpected result: %+v", all)
	}

	hidden := created[2]
	hidden.IsActive = true
	hidden.Benefits = []string{"certificate"}
	if err := repo.Update(dbc, hidden); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := repo.GetByID(dbc, hidden.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || !got.IsActive || len(got.Benefits) != 1 || got.Benefits[0] != "certificate" {
		t.Fatalf("GetByID after Update: unexpected result: %+v", got)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{hidden.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	got, err = repo.GetByID(dbc, hidden.ID)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("GetByID after delete: expected nil")
	}
}

func TestTaskRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewTaskRepo(db, testutil.Logger(t))

	batch := testutil.SeedBatch(t, ctx, tx, time.Now().UTC(), 5)
	d2 := testutil.SeedTask(t, ctx, tx, batch.ID, 2, 0, true)
	d1b := testutil.SeedTask(t, ctx, tx, batch.ID, 1, 2, true)
	d1a := testutil.SeedTask(t, ctx, tx, batch.ID, 1, 1, true)
	draft := testutil.SeedTask(t, ctx, tx, batch.ID, 3, 0, false)

	published, err := repo.GetByBatchID(dbc, batch.ID, false)
	if err != nil {
		t.Fatalf("GetByBatchID: %v", err)
	}
	want := []uuid.UUID{d1a.ID, d1b.ID, d2.ID}
	if len(published) != len(want) {
		t.Fatalf("GetByBatchID: expected %d tasks, got %d", len(want), len(published))
	}
	for i, id := range want {
		if published[i].ID != id {
			t.Fatalf("GetByBatchID[%d]: expected %s, got %s", i, id, published[i].ID)
		}
	}
	if len(published[0].Contents) != 1 || published[0].Contents[0].Type != types.ContentReading {
		t.Fatalf("GetByBatchID: contents not round-tripped: %+v", published[0].Contents)
	}

	everything, err := repo.GetByBatchID(dbc, batch.ID, true)
	if err != nil {
		t.Fatalf("GetByBatchID unpublished: %v", err)
	}
	if len(everything) != 4 || everything[3].ID != draft.ID {
		t.Fatalf("GetByBatchID unpublished: unexpected result")
	}

	ids, err := repo.PublishedIDsByBatchID(dbc, batch.ID)
	if err != nil {
		t.Fatalf("PublishedIDsByBatchID: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("PublishedIDsByBatchID: expected 3, got %d", len(ids))
	}

	draft.IsPublished = true
	if err := repo.Update(dbc, draft); err != nil {
		t.Fatalf("Update: %v", err)
	}
	ids, err = repo.PublishedIDsByBatchID(dbc, batch.ID)
	if err != nil {
		t.Fatalf("PublishedIDsByBatchID after publish: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("PublishedIDsByBatchID after publish: expected 4, got %d", len(ids))
	}

	if err := repo.SoftDeleteByBatchIDs(dbc, []uuid.UUID{batch.ID}); err != nil {
		t.Fatalf("SoftDeleteByBatchIDs: %v", err)
	}
	everything, err = repo.GetByBatchID(dbc, batch.ID, true)
	if err != nil {
		t.Fatalf("GetByBatchID after delete: %v", err)
	}
	if len(everything) != 0 {
		t.Fatalf("GetByBatchID after delete: expected none, got %d", len(everything))
	}
}
