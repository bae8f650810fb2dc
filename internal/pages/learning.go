package pages

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/certifytrack-backend/internal/cache"
	"github.com/yungbote/certifytrack-backend/internal/client"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/learning"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

const (
	stepEnrollment  = "enrollment"
	stepBatch       = "batch"
	stepTasks       = "tasks"
	stepProgress    = "progress"
	stepSubmissions = "submissions"
)

// LearningView is everything the learning page renders for one student in one batch.
type LearningView struct {
	Batch       *types.Batch                        `json:"batch"`
	Enrollment  *types.Enrollment                   `json:"enrollment"`
	Days        []learning.DayGroup                 `json:"days"`
	Progress    learning.Progress                   `json:"progress"`
	Schedule    learning.Schedule                   `json:"schedule"`
	Submissions map[uuid.UUID]*types.TaskSubmission `json:"submissions"`
}

func (v *LearningView) Completed(taskID uuid.UUID) bool {
	if v == nil || v.Enrollment == nil {
		return false
	}
	for _, id := range v.Enrollment.CompletedTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

func (v *LearningView) Task(taskID uuid.UUID) *types.Task {
	if v == nil || taskID == uuid.Nil {
		return nil
	}
	for _, d := range v.Days {
		for _, t := range d.Tasks {
			if t.ID == taskID {
				return t
			}
		}
	}
	return nil
}

// clone copies the parts actions mutate so snapshots already handed out stay unchanged.
func (v *LearningView) clone() *LearningView {
	cp := *v
	cp.Submissions = make(map[uuid.UUID]*types.TaskSubmission, len(v.Submissions))
	for k, s := range v.Submissions {
		cp.Submissions[k] = s
	}
	return &cp
}

func (v *LearningView) published() []*types.Task {
	var out []*types.Task
	for _, d := range v.Days {
		for _, t := range d.Tasks {
			if !t.IsPlaceholder && t.IsPublished {
				out = append(out, t)
			}
		}
	}
	return out
}

// recompute refreshes Progress from the current enrollment with the same calculator the server uses.
func (v *LearningView) recompute() {
	var completed []uuid.UUID
	if v.Enrollment != nil {
		completed = v.Enrollment.CompletedTasks
	}
	v.Progress = learning.ComputeProgress(v.published(), completed)
}

type LearningConfig struct {
	BatchID uuid.UUID
	UserID  uuid.UUID
	// Cache is optional; without it every Load goes to the API.
	Cache    *cache.ReadThrough[LearningView]
	OnChange func(State[*LearningView])
	Now      func() time.Time
}

// LearningPage drives the student learning screen: enrollment check, then batch and tasks in
// parallel, then progress and submissions. Any failed step ends the load in a redirect or an
// error state.
type LearningPage struct {
	log     *logger.Logger
	api     LearningAPI
	cache   *cache.ReadThrough[LearningView]
	batchID uuid.UUID
	userID  uuid.UUID
	key     string
	now     func() time.Time

	view *view[*LearningView]
	wg   sync.WaitGroup
}

func NewLearningPage(log *logger.Logger, api LearningAPI, cfg LearningConfig) *LearningPage {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &LearningPage{
		log:     log.With("page", "LearningPage", "batch_id", cfg.BatchID.String()),
		api:     api,
		cache:   cfg.Cache,
		batchID: cfg.BatchID,
		userID:  cfg.UserID,
		key:     cache.LearningKey(cfg.BatchID, cfg.UserID),
		now:     cfg.Now,
		view:    newView(cfg.OnChange),
	}
}

func (p *LearningPage) State() State[*LearningView] { return p.view.snapshot() }

// Unmount closes the page. Loads still in flight finish but their results are discarded.
func (p *LearningPage) Unmount() { p.view.unmount() }

// Wait blocks until background refreshes started by Load have been applied or dropped.
func (p *LearningPage) Wait() { p.wg.Wait() }

func (p *LearningPage) Load(ctx context.Context) State[*LearningView] {
	gen, ok := p.view.begin()
	if !ok {
		return State[*LearningView]{Status: StatusError, Err: ErrUnmounted}
	}
	if p.batchID == uuid.Nil {
		p.view.fail(gen, apierr.Validation("missing_batch_id", "batch id is required"), RouteBatches)
		return p.view.snapshot()
	}

	if p.cache == nil {
		v, err := p.fetch(ctx)
		if err != nil {
			p.view.fail(gen, err, p.redirectFor(err))
			return p.view.snapshot()
		}
		p.view.apply(gen, State[*LearningView]{Status: StatusReady, Data: &v, FetchedAt: p.now()})
		return p.view.snapshot()
	}

	res, err := p.cache.Get(ctx, p.key, p.fetch)
	if err != nil {
		p.view.fail(gen, err, p.redirectFor(err))
		return p.view.snapshot()
	}
	v := res.Value
	p.view.apply(gen, State[*LearningView]{Status: StatusReady, Data: &v, Stale: res.Stale, FetchedAt: res.FetchedAt})
	if res.Refreshed != nil {
		p.wg.Add(1)
		go p.awaitRefresh(gen, res.Refreshed)
	}
	return p.view.snapshot()
}

// Reload drops the cached entry and loads from the API.
func (p *LearningPage) Reload(ctx context.Context) State[*LearningView] {
	p.invalidate(ctx)
	return p.Load(ctx)
}

func (p *LearningPage) awaitRefresh(gen uint64, ch <-chan cache.Refresh[LearningView]) {
	defer p.wg.Done()
	r, ok := <-ch
	if !ok {
		return
	}
	if r.Err != nil {
		if to := p.redirectFor(r.Err); to != "" {
			p.view.fail(gen, r.Err, to)
			return
		}
		p.log.Warn("Background refresh failed, keeping stale view", "error", r.Err)
		return
	}
	if r.Superseded {
		p.log.Debug("Discarding refresh that predates an invalidate")
		return
	}
	v := r.Value
	if !p.view.apply(gen, State[*LearningView]{Status: StatusReady, Data: &v, FetchedAt: r.FetchedAt}) {
		p.log.Debug("Discarding refresh for a closed or superseded view")
	}
}

func (p *LearningPage) fetch(ctx context.Context) (LearningView, error) {
	enrollment, err := p.api.Enrollment(ctx, p.batchID)
	if err != nil {
		return LearningView{}, step(stepEnrollment, err)
	}

	var (
		batch *types.Batch
		tasks []*types.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := p.api.GetBatch(gctx, p.batchID)
		batch = b
		return step(stepBatch, err)
	})
	g.Go(func() error {
		ts, err := p.api.Tasks(gctx, p.batchID)
		tasks = ts
		return step(stepTasks, err)
	})
	if err := g.Wait(); err != nil {
		return LearningView{}, err
	}

	var (
		report *services.ProgressReport
		subs   []*types.TaskSubmission
	)
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := p.api.Progress(gctx, p.batchID)
		report = r
		return step(stepProgress, err)
	})
	g.Go(func() error {
		s, err := p.api.MySubmissions(gctx, client.SubmissionQuery{BatchID: p.batchID})
		subs = s
		return step(stepSubmissions, err)
	})
	if err := g.Wait(); err != nil {
		return LearningView{}, err
	}

	v := LearningView{
		Batch:       batch,
		Enrollment:  enrollment,
		Days:        learning.GroupTasksByDay(batch.DurationDays, tasks),
		Submissions: make(map[uuid.UUID]*types.TaskSubmission, len(subs)),
	}
	if report != nil {
		if report.Enrollment != nil {
			v.Enrollment = report.Enrollment
		}
		v.Schedule = report.Schedule
	} else {
		v.Schedule = learning.ComputeSchedule(batch.StartDate, batch.DurationDays, p.now())
	}
	for _, s := range subs {
		if s != nil && (p.userID == uuid.Nil || s.UserID == p.userID) {
			v.Submissions[s.TaskID] = s
		}
	}
	v.recompute()
	if report != nil && report.Progress.Percentage != v.Progress.Percentage {
		p.log.Warn("Local progress disagrees with server",
			"local", v.Progress.Percentage,
			"server", report.Progress.Percentage,
		)
	}
	return v, nil
}

func (p *LearningPage) redirectFor(err error) string {
	status := apierr.StatusOf(err)
	if status == http.StatusUnauthorized {
		return RouteLogin
	}
	switch failedStep(err) {
	case stepEnrollment, stepTasks:
		if status == http.StatusForbidden || status == http.StatusNotFound {
			return RouteBatch(p.batchID)
		}
	case stepBatch:
		if status == http.StatusNotFound {
			return RouteBatches
		}
	}
	return ""
}

// SetTaskComplete marks or unmarks a task and updates the view from the returned enrollment.
func (p *LearningPage) SetTaskComplete(ctx context.Context, taskID uuid.UUID, done bool) error {
	if !p.view.isMounted() {
		return ErrUnmounted
	}
	var (
		e   *types.Enrollment
		err error
	)
	if done {
		e, err = p.api.CompleteTask(ctx, taskID)
	} else {
		e, err = p.api.UncompleteTask(ctx, taskID)
	}
	if err != nil {
		return p.actionFailed(err)
	}
	p.invalidate(ctx)
	p.view.update(func(s *State[*LearningView]) {
		if s.Data == nil {
			return
		}
		s.Data = s.Data.clone()
		s.Data.Enrollment = e
		s.Data.recompute()
	})
	return nil
}

// Submit creates or resubmits the student's work for a task. The server marks the task complete on
// the first submission, so progress is refetched afterwards.
func (p *LearningPage) Submit(ctx context.Context, in services.SubmissionInput) (*types.TaskSubmission, error) {
	if !p.view.isMounted() {
		return nil, ErrUnmounted
	}
	in.BatchID = p.batchID
	sub, err := p.api.Submit(ctx, in)
	if err != nil {
		return nil, p.actionFailed(err)
	}
	p.invalidate(ctx)

	report, perr := p.api.Progress(ctx, p.batchID)
	if perr != nil {
		p.log.Warn("Progress refresh after submit failed", "error", perr)
	}
	p.view.update(func(s *State[*LearningView]) {
		if s.Data == nil {
			return
		}
		s.Data = s.Data.clone()
		s.Data.Submissions[sub.TaskID] = sub
		if report != nil && report.Enrollment != nil {
			s.Data.Enrollment = report.Enrollment
			s.Data.Schedule = report.Schedule
			s.Data.recompute()
		}
	})
	return sub, nil
}

func (p *LearningPage) DeleteSubmission(ctx context.Context, taskID uuid.UUID) error {
	if !p.view.isMounted() {
		return ErrUnmounted
	}
	_, s := p.view.current()
	if s.Data == nil || s.Data.Submissions[taskID] == nil {
		return apierr.NotFound("submission_not_found", "no submission for task %s", taskID)
	}
	sub := s.Data.Submissions[taskID]
	if !CanDelete(sub) {
		return submissionLocked(sub)
	}
	if err := p.api.DeleteSubmission(ctx, sub.ID); err != nil {
		return p.actionFailed(err)
	}
	p.invalidate(ctx)
	p.view.update(func(s *State[*LearningView]) {
		if s.Data != nil {
			s.Data = s.Data.clone()
			delete(s.Data.Submissions, taskID)
		}
	})
	return nil
}

// Certificate is only requested once the view shows every task complete.
func (p *LearningPage) Certificate(ctx context.Context) (*types.Certificate, error) {
	_, s := p.view.current()
	if s.Data == nil || !s.Data.Progress.Complete() {
		return nil, apierr.NotFound("certificate_unavailable", "batch not completed")
	}
	cert, err := p.api.Certificate(ctx, p.batchID)
	if err != nil {
		return nil, p.actionFailed(err)
	}
	return cert, nil
}

// actionFailed moves the page to a redirect when the session or enrollment is gone.
func (p *LearningPage) actionFailed(err error) error {
	to := ""
	switch apierr.StatusOf(err) {
	case http.StatusUnauthorized:
		to = RouteLogin
	case http.StatusForbidden:
		if ae, ok := apierr.As(err); ok && ae.Code == "not_enrolled" {
			to = RouteBatch(p.batchID)
		}
	}
	if to != "" {
		gen, _ := p.view.current()
		p.view.fail(gen, err, to)
	}
	return err
}

func (p *LearningPage) invalidate(ctx context.Context) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx, p.key); err != nil {
		p.log.Warn("Cache invalidate failed", "error", err)
	}
}
