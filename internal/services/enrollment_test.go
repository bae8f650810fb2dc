package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
)

func TestEnrollRules(t *testing.T) {
	f := newFixture(t)
	alice := f.student(t, "alice@example.com")
	bob := f.student(t, "bob@example.com")

	open := f.batch(t, 5)
	open.MaxStudents = 1
	if err := f.batches.Update(dbctx.Context{Ctx: f.ctx}, open); err != nil {
		t.Fatalf("update batch: %v", err)
	}

	e, err := f.enrollSvc.Enroll(f.as(alice), open.ID)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if e.Progress != 0 || len(e.CompletedTasks) != 0 || !e.EnrolledAt.Equal(f.now) {
		t.Fatalf("unexpected enrollment: %+v", e)
	}

	_, err = f.enrollSvc.Enroll(f.as(alice), open.ID)
	wantCode(t, err, "already_enrolled")

	_, err = f.enrollSvc.Enroll(f.as(bob), open.ID)
	wantCode(t, err, "batch_full")

	closed := f.batch(t, 5)
	closed.IsActive = false
	if err := f.batches.Update(dbctx.Context{Ctx: f.ctx}, closed); err != nil {
		t.Fatalf("update batch: %v", err)
	}
	_, err = f.enrollSvc.Enroll(f.as(bob), closed.ID)
	wantCode(t, err, "batch_inactive")

	_, err = f.enrollSvc.Enroll(f.as(bob), uuid.New())
	wantStatus(t, err, http.StatusNotFound)

	_, err = f.enrollSvc.Enroll(dbctx.Context{Ctx: f.ctx}, open.ID)
	wantStatus(t, err, http.StatusUnauthorized)
}

func TestMarkTaskCompleteProgressScenario(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 5)
	tasks := []*types.Task{
		f.task(t, b, 1, 0, true),
		f.task(t, b, 2, 0, true),
		f.task(t, b, 3, 0, true),
		f.task(t, b, 4, 0, true),
	}
	f.task(t, b, 5, 0, false)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)
	dbc := f.as(u)

	wantProgress := []int{25, 50, 75, 100}
	for i, task := range tasks {
		e, err := f.enrollSvc.MarkTaskComplete(dbc, u.ID, b.ID, task.ID)
		if err != nil {
			t.Fatalf("MarkTaskComplete(%d): %v", i, err)
		}
		if e.Progress != wantProgress[i] {
			t.Fatalf("after %d tasks expected %d%%, got %d%%", i+1, wantProgress[i], e.Progress)
		}
	}

	e := f.enrollment(t, u, b)
	if e.Progress != 100 || e.CompletedAt == nil || !e.CompletedAt.Equal(f.now) {
		t.Fatalf("expected completion recorded, got %+v", e)
	}
	if len(f.notifier.earned) != 1 || f.notifier.earned[0] != [2]uuid.UUID{u.ID, b.ID} {
		t.Fatalf("expected one certificate notification, got %v", f.notifier.earned)
	}

	again, err := f.enrollSvc.MarkTaskComplete(dbc, u.ID, b.ID, tasks[0].ID)
	if err != nil {
		t.Fatalf("repeat MarkTaskComplete: %v", err)
	}
	if len(again.CompletedTasks) != 4 || again.Progress != 100 {
		t.Fatalf("repeat completion changed state: %+v", again)
	}
	if len(f.notifier.earned) != 1 {
		t.Fatalf("repeat completion notified again")
	}

	undone, err := f.enrollSvc.MarkTaskIncomplete(dbc, uuid.Nil, uuid.Nil, tasks[1].ID)
	if err != nil {
		t.Fatalf("MarkTaskIncomplete: %v", err)
	}
	if undone.Progress != 75 || undone.CompletedAt != nil {
		t.Fatalf("expected 75%% and cleared completion, got %+v", undone)
	}
	want := []uuid.UUID{tasks[0].ID, tasks[2].ID, tasks[3].ID}
	for i, id := range want {
		if undone.CompletedTasks[i] != id {
			t.Fatalf("completion order not preserved: %v", undone.CompletedTasks)
		}
	}
}

func TestMarkTaskCompleteRejections(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	other := f.student(t, "other@example.com")
	b := f.batch(t, 3)
	draft := f.task(t, b, 1, 0, false)
	live := f.task(t, b, 2, 0, true)
	elsewhere := f.task(t, f.batch(t, 3), 1, 0, true)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)

	tests := []struct {
		name string
		dbc  dbctx.Context
		user uuid.UUID
		task uuid.UUID
		code string
	}{
		{name: "unpublished", dbc: f.as(u), user: u.ID, task: draft.ID, code: "task_unpublished"},
		{name: "wrong batch", dbc: f.as(u), user: u.ID, task: elsewhere.ID, code: "task_batch_mismatch"},
		{name: "missing task", dbc: f.as(u), user: u.ID, task: uuid.New(), code: "task_not_found"},
		{name: "not enrolled", dbc: f.as(other), user: other.ID, task: live.ID, code: "not_enrolled"},
		{name: "someone else", dbc: f.as(other), user: u.ID, task: live.ID, code: "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.enrollSvc.MarkTaskComplete(tt.dbc, tt.user, b.ID, tt.task)
			wantCode(t, err, tt.code)
		})
	}
}

func TestRecomputeBatchOnPublishChanges(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 3)
	t1 := f.task(t, b, 1, 0, true)
	t2 := f.task(t, b, 2, 0, true)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID, t1.ID, t2.ID)

	n, err := f.enrollSvc.RecomputeBatch(dbctx.Context{Ctx: f.ctx}, b.ID)
	if err != nil {
		t.Fatalf("RecomputeBatch: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one changed enrollment, got %d", n)
	}
	if e := f.enrollment(t, u, b); e.Progress != 100 || e.CompletedAt == nil {
		t.Fatalf("expected 100%% after recompute, got %+v", e)
	}

	_, err = f.taskSvc.Create(f.as(admin), TaskInput{
		BatchID:   b.ID,
		DayNumber: 3,
		Title:     "Capstone",
		Contents:  []types.TaskContent{{Type: types.ContentProject, ProjectDetails: "build it"}},
	})
	if err != nil {
		t.Fatalf("Create task: %v", err)
	}
	if e := f.enrollment(t, u, b); e.Progress != 67 || e.CompletedAt != nil {
		t.Fatalf("expected 67%% after a new published task, got %+v", e)
	}

	if n, err := f.enrollSvc.RecomputeAll(dbctx.Context{Ctx: f.ctx}); err != nil || n != 0 {
		t.Fatalf("RecomputeAll on settled data: n=%d err=%v", n, err)
	}
}

func TestProgressReport(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 10)
	t1 := f.task(t, b, 1, 0, true)
	f.task(t, b, 2, 0, true)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID, t1.ID)

	rep, err := f.enrollSvc.Progress(f.as(u), b.ID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if rep.Progress.CompletedCount != 1 || rep.Progress.TotalCount != 2 || rep.Progress.Percentage != 50 {
		t.Fatalf("unexpected progress: %+v", rep.Progress)
	}
	// Batch starts 2026-03-02 and the clock reads 2026-03-10, the ninth day.
	if rep.Schedule.CurrentDay != 9 || rep.Schedule.RemainingDays != 1 {
		t.Fatalf("unexpected schedule: %+v", rep.Schedule)
	}

	_, err = f.enrollSvc.Progress(f.as(f.student(t, "stranger@example.com")), b.ID)
	wantCode(t, err, "not_enrolled")
}

func TestEnrollmentAdminOperations(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 3)
	e := testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)

	_, err := f.enrollSvc.ListForBatch(f.as(u), b.ID)
	wantStatus(t, err, http.StatusForbidden)

	rows, err := f.enrollSvc.ListForBatch(f.as(admin), b.ID)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListForBatch: rows=%d err=%v", len(rows), err)
	}
	mine, err := f.enrollSvc.ListForUser(f.as(u))
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListForUser: rows=%d err=%v", len(mine), err)
	}

	if err := f.enrollSvc.Delete(f.as(admin), e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = f.enrollSvc.Get(f.as(u), b.ID)
	wantCode(t, err, "not_enrolled")
	wantCode(t, f.enrollSvc.Delete(f.as(admin), e.ID), "enrollment_not_found")
}
