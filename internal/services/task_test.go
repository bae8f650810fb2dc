package services

import (
	"net/http"
	"testing"

	"github.com/yungbote/certifytrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/pointers"
)

func TestTaskVisibility(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	u := f.student(t, "learner@example.com")
	outsider := f.student(t, "outsider@example.com")
	b := f.batch(t, 3)
	live := f.task(t, b, 1, 0, true)
	draft := f.task(t, b, 3, 0, false)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)

	_, err := f.taskSvc.ListForBatch(f.as(outsider), b.ID)
	wantCode(t, err, "not_enrolled")

	seen, err := f.taskSvc.ListForBatch(f.as(u), b.ID)
	if err != nil || len(seen) != 1 || seen[0].ID != live.ID {
		t.Fatalf("student list: %v err=%v", seen, err)
	}
	all, err := f.taskSvc.ListForBatch(f.as(admin), b.ID)
	if err != nil || len(all) != 2 {
		t.Fatalf("admin list: rows=%d err=%v", len(all), err)
	}

	_, err = f.taskSvc.Get(f.as(u), draft.ID)
	wantCode(t, err, "task_not_found")
	if got, err := f.taskSvc.Get(f.as(admin), draft.ID); err != nil || got.ID != draft.ID {
		t.Fatalf("admin Get draft: %v", err)
	}
}

func TestTaskDaysFillsPlaceholders(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 5)
	f.task(t, b, 1, 1, true)
	f.task(t, b, 1, 0, true)
	f.task(t, b, 3, 0, true)
	f.task(t, b, 4, 0, false)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)

	days, err := f.taskSvc.Days(f.as(u), b.ID)
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}
	wantPlaceholder := map[int]bool{2: true, 4: true, 5: true}
	for _, d := range days {
		if len(d.Tasks) == 0 {
			t.Fatalf("day %d is empty", d.DayNumber)
		}
		if got := d.Tasks[0].IsPlaceholder; got != wantPlaceholder[d.DayNumber] {
			t.Fatalf("day %d placeholder=%v", d.DayNumber, got)
		}
		if d.Tasks[0].IsPlaceholder && d.Tasks[0].BatchID != b.ID {
			t.Fatalf("placeholder for day %d lacks batch id", d.DayNumber)
		}
	}
	if days[0].Tasks[0].Order != 0 || days[0].Tasks[1].Order != 1 {
		t.Fatalf("day 1 not ordered: %+v", days[0].Tasks)
	}
}

func TestTaskCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	admin := f.admin(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 2)
	first := f.task(t, b, 1, 0, true)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID, first.ID)
	if _, err := f.enrollSvc.RecomputeBatch(dbctx.Context{Ctx: f.ctx}, b.ID); err != nil {
		t.Fatalf("RecomputeBatch: %v", err)
	}

	in := TaskInput{
		BatchID:   b.ID,
		DayNumber: 3,
		Title:     "Too late",
		Contents:  []types.TaskContent{{Type: types.ContentVideo}},
	}
	_, err := f.taskSvc.Create(f.as(admin), in)
	wantCode(t, err, "day_out_of_range")

	in.DayNumber = 2
	in.Contents = []types.TaskContent{{Type: "podcast"}}
	_, err = f.taskSvc.Create(f.as(admin), in)
	wantCode(t, err, "invalid_content_type")

	in.Contents = nil
	_, err = f.taskSvc.Create(f.as(admin), in)
	wantStatus(t, err, http.StatusBadRequest)

	in.Contents = []types.TaskContent{{Type: types.ContentQuiz, Quiz: []types.QuizQuestion{{Question: "?", Options: []string{"a", "b"}}}}}
	in.IsPublished = pointers.Bool(false)
	draft, err := f.taskSvc.Create(f.as(admin), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e := f.enrollment(t, u, b); e.Progress != 100 {
		t.Fatalf("drafts must not count, got %d%%", e.Progress)
	}

	in.IsPublished = pointers.Bool(true)
	in.Title = "Quiz"
	if _, err := f.taskSvc.Update(f.as(admin), draft.ID, in); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if e := f.enrollment(t, u, b); e.Progress != 50 {
		t.Fatalf("publishing should recompute to 50%%, got %d%%", e.Progress)
	}

	in.BatchID = f.batch(t, 2).ID
	_, err = f.taskSvc.Update(f.as(admin), draft.ID, in)
	wantCode(t, err, "batch_immutable")

	if err := f.taskSvc.Delete(f.as(admin), draft.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if e := f.enrollment(t, u, b); e.Progress != 100 {
		t.Fatalf("deleting should recompute to 100%%, got %d%%", e.Progress)
	}
	wantStatus(t, f.taskSvc.Delete(f.as(u), first.ID), http.StatusForbidden)
}
