package pages

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/certifytrack-backend/internal/client"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/learning"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

const enrollmentCountWorkers = 4

// ---- batches ----

type BatchRow struct {
	Batch    *types.Batch      `json:"batch"`
	Enrolled int               `json:"enrolled"`
	Schedule learning.Schedule `json:"schedule"`
}

func (r BatchRow) Full() bool {
	return r.Batch != nil && r.Batch.MaxStudents > 0 && r.Enrolled >= r.Batch.MaxStudents
}

type AdminBatchesPage struct {
	log  *logger.Logger
	api  AdminBatchesAPI
	now  func() time.Time
	view *view[[]BatchRow]
}

func NewAdminBatchesPage(log *logger.Logger, api AdminBatchesAPI, onChange func(State[[]BatchRow])) *AdminBatchesPage {
	return &AdminBatchesPage{
		log:  log.With("page", "AdminBatchesPage"),
		api:  api,
		now:  time.Now,
		view: newView(onChange),
	}
}

func (p *AdminBatchesPage) State() State[[]BatchRow] { return p.view.snapshot() }
func (p *AdminBatchesPage) Unmount()                 { p.view.unmount() }

// Load lists every batch with its enrollment count.
func (p *AdminBatchesPage) Load(ctx context.Context) State[[]BatchRow] {
	gen, ok := p.view.begin()
	if !ok {
		return State[[]BatchRow]{Status: StatusError, Err: ErrUnmounted}
	}
	batches, err := p.api.ListBatches(ctx)
	if err != nil {
		p.view.fail(gen, err, adminRedirect(err))
		return p.view.snapshot()
	}

	rows := make([]BatchRow, len(batches))
	now := p.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrollmentCountWorkers)
	for i, b := range batches {
		rows[i] = BatchRow{Batch: b, Schedule: learning.ComputeSchedule(b.StartDate, b.DurationDays, now)}
		g.Go(func() error {
			es, err := p.api.BatchEnrollments(gctx, b.ID)
			if err != nil {
				return err
			}
			rows[i].Enrolled = len(es)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.view.fail(gen, err, adminRedirect(err))
		return p.view.snapshot()
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Batch.StartDate.After(rows[j].Batch.StartDate)
	})
	p.view.apply(gen, State[[]BatchRow]{Status: StatusReady, Data: rows, FetchedAt: now})
	return p.view.snapshot()
}

func (p *AdminBatchesPage) Create(ctx context.Context, in services.BatchInput) (*types.Batch, error) {
	b, err := p.api.CreateBatch(ctx, in)
	if err != nil {
		return nil, err
	}
	p.Load(ctx)
	return b, nil
}

func (p *AdminBatchesPage) Update(ctx context.Context, batchID uuid.UUID, in services.BatchInput) (*types.Batch, error) {
	b, err := p.api.UpdateBatch(ctx, batchID, in)
	if err != nil {
		return nil, err
	}
	p.view.update(func(s *State[[]BatchRow]) {
		rows := append([]BatchRow(nil), s.Data...)
		for i := range rows {
			if rows[i].Batch != nil && rows[i].Batch.ID == b.ID {
				rows[i].Batch = b
				rows[i].Schedule = learning.ComputeSchedule(b.StartDate, b.DurationDays, p.now())
			}
		}
		s.Data = rows
	})
	return b, nil
}

func (p *AdminBatchesPage) Delete(ctx context.Context, batchID uuid.UUID) error {
	if err := p.api.DeleteBatch(ctx, batchID); err != nil {
		return err
	}
	p.view.update(func(s *State[[]BatchRow]) {
		rows := make([]BatchRow, 0, len(s.Data))
		for _, r := range s.Data {
			if r.Batch != nil && r.Batch.ID == batchID {
				continue
			}
			rows = append(rows, r)
		}
		s.Data = rows
	})
	return nil
}

func (p *AdminBatchesPage) Import(ctx context.Context, filename string, r io.Reader) (*services.ImportResult, error) {
	res, err := p.api.ImportCurriculum(ctx, filename, r)
	if err != nil {
		return nil, err
	}
	p.Load(ctx)
	return res, nil
}

// ---- tasks ----

type AdminDay struct {
	DayNumber int           `json:"day_number"`
	Tasks     []*types.Task `json:"tasks"`
}

type AdminTasksView struct {
	Batch     *types.Batch `json:"batch"`
	Days      []AdminDay   `json:"days"`
	Published int          `json:"published"`
	Drafts    int          `json:"drafts"`
}

// AdminTasksPage lists every task of a batch by day, drafts included, so unlike the learning page
// it never inserts placeholders.
type AdminTasksPage struct {
	log     *logger.Logger
	api     AdminTasksAPI
	batchID uuid.UUID
	view    *view[*AdminTasksView]
}

func NewAdminTasksPage(log *logger.Logger, api AdminTasksAPI, batchID uuid.UUID, onChange func(State[*AdminTasksView])) *AdminTasksPage {
	return &AdminTasksPage{
		log:     log.With("page", "AdminTasksPage", "batch_id", batchID.String()),
		api:     api,
		batchID: batchID,
		view:    newView(onChange),
	}
}

func (p *AdminTasksPage) State() State[*AdminTasksView] { return p.view.snapshot() }
func (p *AdminTasksPage) Unmount()                      { p.view.unmount() }

func (p *AdminTasksPage) Load(ctx context.Context) State[*AdminTasksView] {
	gen, ok := p.view.begin()
	if !ok {
		return State[*AdminTasksView]{Status: StatusError, Err: ErrUnmounted}
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
		ts, err := p.api.AdminTasks(gctx, p.batchID)
		tasks = ts
		return step(stepTasks, err)
	})
	if err := g.Wait(); err != nil {
		to := adminRedirect(err)
		if to == "" && failedStep(err) == stepBatch && apierr.IsNotFound(err) {
			to = RouteBatches
		}
		p.view.fail(gen, err, to)
		return p.view.snapshot()
	}
	p.view.apply(gen, State[*AdminTasksView]{Status: StatusReady, Data: buildAdminTasks(batch, tasks), FetchedAt: time.Now()})
	return p.view.snapshot()
}

func buildAdminTasks(batch *types.Batch, tasks []*types.Task) *AdminTasksView {
	v := &AdminTasksView{Batch: batch}
	byDay := map[int][]*types.Task{}
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if t.IsPublished {
			v.Published++
		} else {
			v.Drafts++
		}
		byDay[t.DayNumber] = append(byDay[t.DayNumber], t)
	}
	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)
	for _, d := range days {
		ts := byDay[d]
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].Order < ts[j].Order })
		v.Days = append(v.Days, AdminDay{DayNumber: d, Tasks: ts})
	}
	return v
}

func (p *AdminTasksPage) Create(ctx context.Context, in services.TaskInput) (*types.Task, error) {
	in.BatchID = p.batchID
	t, err := p.api.CreateTask(ctx, in)
	if err != nil {
		return nil, err
	}
	p.Load(ctx)
	return t, nil
}

func (p *AdminTasksPage) Update(ctx context.Context, taskID uuid.UUID, in services.TaskInput) (*types.Task, error) {
	in.BatchID = p.batchID
	t, err := p.api.UpdateTask(ctx, taskID, in)
	if err != nil {
		return nil, err
	}
	p.Load(ctx)
	return t, nil
}

// SetPublished flips a task between draft and published, keeping every other field.
func (p *AdminTasksPage) SetPublished(ctx context.Context, taskID uuid.UUID, published bool) (*types.Task, error) {
	_, s := p.view.current()
	var existing *types.Task
	if s.Data != nil {
		for _, d := range s.Data.Days {
			for _, t := range d.Tasks {
				if t.ID == taskID {
					existing = t
				}
			}
		}
	}
	if existing == nil {
		return nil, apierr.NotFound("task_not_found", "task %s is not on this page", taskID)
	}
	in := TaskInputFrom(existing)
	in.IsPublished = &published
	return p.Update(ctx, taskID, in)
}

func (p *AdminTasksPage) Delete(ctx context.Context, taskID uuid.UUID) error {
	if err := p.api.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	p.Load(ctx)
	return nil
}

// TaskInputFrom turns a stored task back into an editable input.
func TaskInputFrom(t *types.Task) services.TaskInput {
	published := t.IsPublished
	return services.TaskInput{
		BatchID:      t.BatchID,
		DayNumber:    t.DayNumber,
		Order:        t.Order,
		Title:        t.Title,
		Description:  t.Description,
		Contents:     append([]types.TaskContent(nil), t.Contents...),
		Resources:    append([]string(nil), t.Resources...),
		CodeSnippets: append([]string(nil), t.CodeSnippets...),
		PDFs:         append([]string(nil), t.PDFs...),
		Images:       append([]string(nil), t.Images...),
		IsPublished:  &published,
	}
}

// ---- submissions ----

type SubmissionsView struct {
	Query       client.SubmissionQuery         `json:"-"`
	Submissions []*types.TaskSubmission        `json:"submissions"`
	Counts      map[types.SubmissionStatus]int `json:"counts"`
}

func (v *SubmissionsView) recount() {
	v.Counts = map[types.SubmissionStatus]int{}
	for _, s := range v.Submissions {
		v.Counts[s.Status]++
	}
}

// AdminSubmissionsPage is the review queue.
type AdminSubmissionsPage struct {
	log  *logger.Logger
	api  AdminSubmissionsAPI
	view *view[*SubmissionsView]
}

func NewAdminSubmissionsPage(log *logger.Logger, api AdminSubmissionsAPI, onChange func(State[*SubmissionsView])) *AdminSubmissionsPage {
	return &AdminSubmissionsPage{
		log:  log.With("page", "AdminSubmissionsPage"),
		api:  api,
		view: newView(onChange),
	}
}

func (p *AdminSubmissionsPage) State() State[*SubmissionsView] { return p.view.snapshot() }
func (p *AdminSubmissionsPage) Unmount()                       { p.view.unmount() }

func (p *AdminSubmissionsPage) Load(ctx context.Context, q client.SubmissionQuery) State[*SubmissionsView] {
	gen, ok := p.view.begin()
	if !ok {
		return State[*SubmissionsView]{Status: StatusError, Err: ErrUnmounted}
	}
	subs, err := p.api.AdminSubmissions(ctx, q)
	if err != nil {
		p.view.fail(gen, err, adminRedirect(err))
		return p.view.snapshot()
	}
	v := &SubmissionsView{Query: q, Submissions: subs}
	v.recount()
	p.view.apply(gen, State[*SubmissionsView]{Status: StatusReady, Data: v, FetchedAt: time.Now()})
	return p.view.snapshot()
}

// CanApprove reports whether an approve action is offered for sub. Approval is final.
func CanApprove(sub *types.TaskSubmission) bool {
	return sub != nil && sub.Status != types.SubmissionApproved
}

// CanDelete reports whether a delete action is offered for sub.
func CanDelete(sub *types.TaskSubmission) bool {
	return sub != nil && sub.Status.Deletable()
}

func submissionLocked(sub *types.TaskSubmission) error {
	return apierr.Conflict("submission_locked", "a %s submission cannot be deleted", sub.Status)
}

func (p *AdminSubmissionsPage) row(submissionID uuid.UUID) *types.TaskSubmission {
	s := p.view.snapshot()
	if s.Data == nil {
		return nil
	}
	for _, row := range s.Data.Submissions {
		if row.ID == submissionID {
			return row
		}
	}
	return nil
}

// Review stores the decision and replaces the row in place. A row that no longer matches the
// status filter drops out of the list.
func (p *AdminSubmissionsPage) Review(ctx context.Context, submissionID uuid.UUID, in services.ReviewInput) (*types.TaskSubmission, error) {
	if row := p.row(submissionID); row != nil && in.Status == types.SubmissionApproved && !CanApprove(row) {
		return nil, apierr.Conflict("already_approved", "submission is already approved")
	}
	sub, err := p.api.Review(ctx, submissionID, in)
	if err != nil {
		return nil, err
	}
	p.view.update(func(s *State[*SubmissionsView]) {
		if s.Data == nil {
			return
		}
		v := &SubmissionsView{Query: s.Data.Query}
		for _, row := range s.Data.Submissions {
			if row.ID == sub.ID {
				if v.Query.Status != "" && v.Query.Status != sub.Status {
					continue
				}
				row = sub
			}
			v.Submissions = append(v.Submissions, row)
		}
		v.recount()
		s.Data = v
	})
	return sub, nil
}

func (p *AdminSubmissionsPage) Delete(ctx context.Context, submissionID uuid.UUID) error {
	if row := p.row(submissionID); row != nil && !CanDelete(row) {
		return submissionLocked(row)
	}
	if err := p.api.DeleteSubmission(ctx, submissionID); err != nil {
		return err
	}
	p.view.update(func(s *State[*SubmissionsView]) {
		if s.Data == nil {
			return
		}
		v := &SubmissionsView{Query: s.Data.Query}
		for _, row := range s.Data.Submissions {
			if row.ID != submissionID {
				v.Submissions = append(v.Submissions, row)
			}
		}
		v.recount()
		s.Data = v
	})
	return nil
}
