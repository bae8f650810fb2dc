package services

import (
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	"github.com/yungbote/certifytrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/pointers"
)

func TestSubmissionCreateValidation(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	stranger := f.student(t, "stranger@example.com")
	b := f.batch(t, 3)
	task := f.task(t, b, 1, 0, true)
	other := f.task(t, f.batch(t, 3), 1, 0, true)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)

	tests := []struct {
		name   string
		user   *types.User
		in     SubmissionInput
		status int
	}{
		{name: "missing ids", user: u, in: SubmissionInput{BatchID: b.ID}, status: http.StatusBadRequest},
		{name: "unknown task", user: u, in: SubmissionInput{TaskID: uuid.New(), BatchID: b.ID}, status: http.StatusNotFound},
		{name: "task from another batch", user: u, in: SubmissionInput{TaskID: other.ID, BatchID: b.ID}, status: http.StatusBadRequest},
		{name: "not enrolled", user: stranger, in: SubmissionInput{TaskID: task.ID, BatchID: b.ID}, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.submitSvc.Create(f.as(tt.user), tt.user.ID, tt.in)
			wantStatus(t, err, tt.status)
		})
	}
}

func TestSubmitCreatesThenResubmits(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 2)
	task := f.task(t, b, 1, 0, true)
	f.task(t, b, 2, 0, true)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)
	dbc := f.as(u)

	first, err := f.submitSvc.Submit(dbc, SubmissionInput{
		TaskID:  task.ID,
		BatchID: b.ID,
		Content: " first draft ",
		Files: []map[string]any{
			{"url": "https://files.example.com/a.pdf", "name": "a.pdf", "type": "application/pdf", "size": float64(1200)},
			{"name": "no url"},
		},
		Links: []map[string]any{{"url": "https://github.com/u/repo", "description": "repo"}, {"url": ""}},
	})
	if err != nil {
		t.Fatalf("Submit (create): %v", err)
	}
	if first.Status != types.SubmissionPending || first.Content != "first draft" || len(first.History) != 0 {
		t.Fatalf("unexpected new submission: %+v", first)
	}
	if len(first.Files) != 1 || len(first.Links) != 1 {
		t.Fatalf("expected sanitized attachments, got files=%v links=%v", first.Files, first.Links)
	}
	if e := f.enrollment(t, u, b); !e.HasCompleted(task.ID) || e.Progress != 50 {
		t.Fatalf("first submission should complete the task: %+v", e)
	}

	admin := f.admin(t)
	if _, err := f.submitSvc.Review(f.as(admin), first.ID, ReviewInput{
		Status:   types.SubmissionRejected,
		Feedback: "add tests",
		Grade:    pointers.Int(40),
	}); err != nil {
		t.Fatalf("Review: %v", err)
	}

	firstSubmittedAt := first.SubmittedAt
	f.now = f.now.Add(2 * time.Hour)
	second, err := f.submitSvc.Submit(dbc, SubmissionInput{TaskID: task.ID, BatchID: b.ID, Content: "second draft"})
	if err != nil {
		t.Fatalf("Submit (resubmit): %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmission created a new row")
	}
	if second.Status != types.SubmissionPending || second.Content != "second draft" || !second.SubmittedAt.Equal(f.now) {
		t.Fatalf("resubmission not applied: %+v", second)
	}
	if second.Feedback != "add tests" || second.Grade == nil || *second.Grade != 40 || second.ReviewedAt == nil {
		t.Fatalf("last review should stay visible: %+v", second)
	}

	stored, err := f.submitRepo.GetByID(dbctx.Context{Ctx: f.ctx}, first.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stored.History) != 1 {
		t.Fatalf("expected one history entry, got %d", len(stored.History))
	}
	v1 := stored.History[0]
	if v1.Version != 1 || v1.Content != "first draft" || !v1.SubmittedAt.Equal(firstSubmittedAt) {
		t.Fatalf("unexpected snapshot: %+v", v1)
	}
	if len(v1.Files) != 1 || v1.Files[0].Name != "a.pdf" || len(v1.Links) != 1 {
		t.Fatalf("snapshot lost attachments: %+v", v1)
	}
	if stored.Revision != 2 {
		t.Fatalf("expected revision 2 after review and resubmit, got %d", stored.Revision)
	}

	third, err := f.submitSvc.Resubmit(dbc, first.ID, SubmissionInput{Content: "third"})
	if err != nil {
		t.Fatalf("Resubmit: %v", err)
	}
	if len(third.History) != 2 || third.History[1].Version != 2 || third.History[1].Content != "second draft" {
		t.Fatalf("unexpected history after third attempt: %+v", third.History)
	}
}

func TestResubmitStaleRevisionConflicts(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	b := f.batch(t, 1)
	task := f.task(t, b, 1, 0, true)
	testutil.SeedEnrollment(t, f.ctx, f.db, u.ID, b.ID)
	sub := testutil.SeedSubmission(t, f.ctx, f.db, task, u.ID, types.SubmissionPending)

	stale, err := f.submitRepo.GetByID(dbctx.Context{Ctx: f.ctx}, sub.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := f.submitSvc.Resubmit(f.as(u), sub.ID, SubmissionInput{Content: "winner"}); err != nil {
		t.Fatalf("Resubmit: %v", err)
	}

	svc := f.submitSvc.(*submissionService)
	_, err = svc.resubmit(f.as(u), u.ID, stale, SubmissionInput{Content: "loser"})
	wantCode(t, err, "submission_conflict")

	_, err = f.submitSvc.Resubmit(f.as(f.student(t, "intruder@example.com")), sub.ID, SubmissionInput{Content: "x"})
	wantStatus(t, err, http.StatusForbidden)
}

func TestReviewTransitions(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	admin := f.admin(t)
	b := f.batch(t, 1)
	task := f.task(t, b, 1, 0, true)
	sub := testutil.SeedSubmission(t, f.ctx, f.db, task, u.ID, types.SubmissionPending)

	_, err := f.submitSvc.Review(f.as(u), sub.ID, ReviewInput{Status: types.SubmissionApproved})
	wantStatus(t, err, http.StatusForbidden)

	_, err = f.submitSvc.Review(f.as(admin), sub.ID, ReviewInput{Status: types.SubmissionPending})
	wantStatus(t, err, http.StatusBadRequest)

	_, err = f.submitSvc.Review(f.as(admin), sub.ID, ReviewInput{Status: types.SubmissionApproved, Grade: pointers.Int(101)})
	wantStatus(t, err, http.StatusBadRequest)

	got, err := f.submitSvc.Review(f.as(admin), sub.ID, ReviewInput{Status: " Approved ", Feedback: "great", Grade: pointers.Int(95)})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if got.Status != types.SubmissionApproved || got.ReviewedBy == nil || *got.ReviewedBy != admin.ID ||
		got.ReviewedAt == nil || !got.ReviewedAt.Equal(f.now) {
		t.Fatalf("unexpected reviewed submission: %+v", got)
	}

	_, err = f.submitSvc.Review(f.as(admin), sub.ID, ReviewInput{Status: types.SubmissionApproved})
	wantCode(t, err, "already_approved")

	if _, err := f.submitSvc.Review(f.as(admin), sub.ID, ReviewInput{Status: types.SubmissionRejected}); err != nil {
		t.Fatalf("approved -> rejected should be allowed: %v", err)
	}
	if len(f.notifier.reviewed) != 2 {
		t.Fatalf("expected two review notifications, got %d", len(f.notifier.reviewed))
	}
}

func TestSubmissionDeleteRules(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	other := f.student(t, "other@example.com")
	admin := f.admin(t)
	b := f.batch(t, 4)

	approved := testutil.SeedSubmission(t, f.ctx, f.db, f.task(t, b, 1, 0, true), u.ID, types.SubmissionApproved)
	reviewed := testutil.SeedSubmission(t, f.ctx, f.db, f.task(t, b, 2, 0, true), u.ID, types.SubmissionReviewed)
	pending := testutil.SeedSubmission(t, f.ctx, f.db, f.task(t, b, 3, 0, true), u.ID, types.SubmissionPending)
	rejected := testutil.SeedSubmission(t, f.ctx, f.db, f.task(t, b, 4, 0, true), u.ID, types.SubmissionRejected)

	wantCode(t, f.submitSvc.Delete(f.as(u), approved.ID), "submission_locked")
	wantCode(t, f.submitSvc.Delete(f.as(admin), reviewed.ID), "submission_locked")
	wantStatus(t, f.submitSvc.Delete(f.as(other), pending.ID), http.StatusForbidden)

	if err := f.submitSvc.Delete(f.as(u), pending.ID); err != nil {
		t.Fatalf("owner delete pending: %v", err)
	}
	if err := f.submitSvc.Delete(f.as(admin), rejected.ID); err != nil {
		t.Fatalf("admin delete rejected: %v", err)
	}
	wantStatus(t, f.submitSvc.Delete(f.as(u), pending.ID), http.StatusNotFound)
}

func TestSubmissionListScoping(t *testing.T) {
	f := newFixture(t)
	u := f.student(t, "learner@example.com")
	other := f.student(t, "other@example.com")
	admin := f.admin(t)
	b := f.batch(t, 2)
	task := f.task(t, b, 1, 0, true)
	testutil.SeedSubmission(t, f.ctx, f.db, task, u.ID, types.SubmissionPending)
	theirs := testutil.SeedSubmission(t, f.ctx, f.db, task, other.ID, types.SubmissionApproved)

	mine, err := f.submitSvc.List(f.as(u), repos.SubmissionFilter{UserID: other.ID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 1 || mine[0].UserID != u.ID {
		t.Fatalf("student listing leaked other users: %+v", mine)
	}

	approved, err := f.submitSvc.List(f.as(admin), repos.SubmissionFilter{BatchID: b.ID, Status: types.SubmissionApproved})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(approved) != 1 || approved[0].ID != theirs.ID {
		t.Fatalf("unexpected admin listing: %+v", approved)
	}

	_, err = f.submitSvc.List(f.as(admin), repos.SubmissionFilter{Status: "lost"})
	wantStatus(t, err, http.StatusBadRequest)

	_, err = f.submitSvc.Get(f.as(u), theirs.ID)
	wantStatus(t, err, http.StatusNotFound)
}

func TestSanitizeFiles(t *testing.T) {
	got := SanitizeFiles([]map[string]any{
		{"url": "https://x/a.png", "name": "a.png", "type": "image/png", "size": float64(10), "publicId": "k1"},
		{"url": "https://x/b"},
		{"url": "   "},
		{"url": 42},
		{"name": "orphan"},
		{"url": "https://x/c", "size": float64(-3), "public_id": "k3"},
	})
	want := []types.SubmissionFile{
		{URL: "https://x/a.png", Name: "a.png", Type: "image/png", Size: 10, PublicID: "k1"},
		{URL: "https://x/b", Name: "Unnamed file", Type: "unknown"},
		{URL: "https://x/c", Name: "Unnamed file", Type: "unknown", PublicID: "k3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SanitizeFiles:\n got %+v\nwant %+v", got, want)
	}

	links := SanitizeLinks([]map[string]any{{"url": "https://x"}, {"description": "no url"}})
	if len(links) != 1 || links[0].URL != "https://x" {
		t.Fatalf("SanitizeLinks: %+v", links)
	}
}
