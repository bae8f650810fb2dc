package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	"github.com/yungbote/certifytrack-backend/internal/data/repos/testutil"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
)

type recordingNotifier struct {
	mu       sync.Mutex
	reviewed []uuid.UUID
	earned   [][2]uuid.UUID
}

func (n *recordingNotifier) SubmissionReviewed(_ context.Context, sub *types.TaskSubmission) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviewed = append(n.reviewed, sub.ID)
}

func (n *recordingNotifier) CertificateEarned(_ context.Context, userID, batchID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.earned = append(n.earned, [2]uuid.UUID{userID, batchID})
}

type fakeRenderer struct{ calls int }

func (r *fakeRenderer) Render(cert *types.Certificate) ([]byte, error) {
	r.calls++
	return []byte("png:" + cert.ID), nil
}

type fixture struct {
	ctx context.Context
	db  *gorm.DB
	now time.Time

	users      repos.UserRepo
	batches    repos.BatchRepo
	tasks      repos.TaskRepo
	enrollRepo repos.EnrollmentRepo
	submitRepo repos.SubmissionRepo
	notifier   *recordingNotifier
	renderer   *fakeRenderer
	auth       AuthService
	batchSvc   BatchService
	taskSvc    TaskService
	enrollSvc  EnrollmentService
	submitSvc  SubmissionService
	certSvc    CertificateService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	f := &fixture{
		ctx:      context.Background(),
		db:       db,
		now:      time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		notifier: &recordingNotifier{},
		renderer: &fakeRenderer{},
	}
	f.users = repos.NewUserRepo(db, log)
	f.batches = repos.NewBatchRepo(db, log)
	f.tasks = repos.NewTaskRepo(db, log)
	f.enrollRepo = repos.NewEnrollmentRepo(db, log)
	f.submitRepo = repos.NewSubmissionRepo(db, log)

	clock := func() time.Time { return f.now }

	auth, err := NewAuthService(db, log, f.users, AuthConfig{
		JWTSecretKey: "test-secret",
		AccessTTL:    time.Hour,
		AdminEmails:  []string{"Boss@Example.com"},
	})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	auth.(*authService).now = clock
	f.auth = auth

	f.enrollSvc = NewEnrollmentService(db, log, f.batches, f.tasks, f.enrollRepo, f.notifier)
	f.enrollSvc.(*enrollmentService).now = clock
	f.batchSvc = NewBatchService(db, log, f.batches, f.tasks, f.enrollRepo, f.submitRepo)
	f.taskSvc = NewTaskService(db, log, f.batches, f.tasks, f.enrollRepo, f.submitRepo, f.enrollSvc)
	f.submitSvc = NewSubmissionService(db, log, f.tasks, f.enrollRepo, f.submitRepo, f.enrollSvc, f.notifier)
	f.submitSvc.(*submissionService).now = clock
	f.certSvc = NewCertificateService(db, log, f.users, f.batches, f.tasks, f.enrollRepo, f.renderer, CertificateConfig{
		IssuerName: "CertifyTrack Academy",
		BaseURL:    "https://certs.example.com/",
	})
	f.certSvc.(*certificateService).now = clock
	return f
}

func (f *fixture) as(u *types.User) dbctx.Context {
	return dbctx.Context{Ctx: ctxutil.WithRequestData(f.ctx, &ctxutil.RequestData{
		UserID: u.ID,
		Role:   u.Role,
		Name:   u.Name,
	})}
}

func (f *fixture) student(t *testing.T, email string) *types.User {
	t.Helper()
	return testutil.SeedUser(t, f.ctx, f.db, email)
}

func (f *fixture) admin(t *testing.T) *types.User {
	t.Helper()
	return testutil.SeedAdmin(t, f.ctx, f.db, "admin-"+uuid.NewString()[:8]+"@example.com")
}

func (f *fixture) batch(t *testing.T, days int) *types.Batch {
	t.Helper()
	return testutil.SeedBatch(t, f.ctx, f.db, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), days)
}

func (f *fixture) task(t *testing.T, b *types.Batch, day, order int, published bool) *types.Task {
	t.Helper()
	return testutil.SeedTask(t, f.ctx, f.db, b.ID, day, order, published)
}

func (f *fixture) enrollment(t *testing.T, u *types.User, b *types.Batch) *types.Enrollment {
	t.Helper()
	e, err := f.enrollRepo.GetByUserAndBatch(dbctx.Context{Ctx: f.ctx}, u.ID, b.ID)
	if err != nil || e == nil {
		t.Fatalf("load enrollment: %v (nil=%v)", err, e == nil)
	}
	return e
}

func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if got := apierr.StatusOf(err); got != status {
		t.Fatalf("expected status %d, got %d (err=%v)", status, got, err)
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok || ae.Code != code {
		t.Fatalf("expected code %q, got %v", code, err)
	}
}
