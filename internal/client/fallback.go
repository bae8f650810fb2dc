package client

import (
	"context"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/learning"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

// Notifier surfaces a failure to the user, like a toast in the web app.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// RecordingNotifier keeps every message; the CLI prints them and tests inspect them.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *RecordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *RecordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// Fallback wraps the read calls of a Client so they never fail: an error is logged, reported to
// the Notifier and replaced with an empty list or nil.
type Fallback struct {
	api      *Client
	log      *logger.Logger
	notifier Notifier
}

func NewFallback(log *logger.Logger, api *Client, notifier Notifier) *Fallback {
	if notifier == nil {
		notifier = NotifierFunc(func(string) {})
	}
	return &Fallback{api: api, log: log.With("service", "APIFallback"), notifier: notifier}
}

func (f *Fallback) Batches(ctx context.Context) []*types.Batch {
	out, err := f.api.ListBatches(ctx)
	if err != nil {
		f.report("Could not load batches", err)
		return []*types.Batch{}
	}
	return out
}

func (f *Fallback) Batch(ctx context.Context, batchID uuid.UUID) *types.Batch {
	out, err := f.api.GetBatch(ctx, batchID)
	if err != nil {
		f.report("Could not load batch", err)
		return nil
	}
	return out
}

func (f *Fallback) Tasks(ctx context.Context, batchID uuid.UUID) []*types.Task {
	out, err := f.api.Tasks(ctx, batchID)
	if err != nil {
		f.report("Could not load tasks", err)
		return []*types.Task{}
	}
	return out
}

func (f *Fallback) Days(ctx context.Context, batchID uuid.UUID) []learning.DayGroup {
	out, err := f.api.Days(ctx, batchID)
	if err != nil {
		f.report("Could not load the schedule", err)
		return []learning.DayGroup{}
	}
	return out
}

// Enrollment returns nil without notifying when the caller is simply not enrolled.
func (f *Fallback) Enrollment(ctx context.Context, batchID uuid.UUID) *types.Enrollment {
	out, err := f.api.Enrollment(ctx, batchID)
	if err != nil {
		if !apierr.IsNotFound(err) {
			f.report("Could not check enrollment", err)
		}
		return nil
	}
	return out
}

func (f *Fallback) Enrollments(ctx context.Context) []*types.Enrollment {
	out, err := f.api.MyEnrollments(ctx)
	if err != nil {
		f.report("Could not load enrollments", err)
		return []*types.Enrollment{}
	}
	return out
}

func (f *Fallback) Submissions(ctx context.Context, q SubmissionQuery) []*types.TaskSubmission {
	out, err := f.api.MySubmissions(ctx, q)
	if err != nil {
		f.report("Could not load submissions", err)
		return []*types.TaskSubmission{}
	}
	return out
}

func (f *Fallback) Verification(ctx context.Context, batchID, userID uuid.UUID) *types.CertificateVerification {
	out, err := f.api.VerifyCertificate(ctx, batchID, userID)
	if err != nil {
		f.report("Could not verify certificate", err)
		return nil
	}
	return out
}

func (f *Fallback) report(message string, err error) {
	f.log.Warn(message, "error", err, "status", apierr.StatusOf(err), "transport", IsTransport(err))
	if ae, ok := apierr.As(err); ok && ae.Err != nil {
		f.notifier.Notify(message + ": " + ae.Err.Error())
		return
	}
	f.notifier.Notify(message)
}
