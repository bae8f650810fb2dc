package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/learning"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

// SubmissionQuery filters submission listings. Zero fields are omitted.
type SubmissionQuery struct {
	BatchID uuid.UUID
	TaskID  uuid.UUID
	UserID  uuid.UUID
	Status  types.SubmissionStatus
}

func (q SubmissionQuery) values() url.Values {
	v := url.Values{}
	if q.BatchID != uuid.Nil {
		v.Set("batchId", q.BatchID.String())
	}
	if q.TaskID != uuid.Nil {
		v.Set("taskId", q.TaskID.String())
	}
	if q.UserID != uuid.Nil {
		v.Set("userId", q.UserID.String())
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	return v
}

type UploadResult struct {
	File types.SubmissionFile `json:"file"`
	URL  string               `json:"url"`
}

func requireID(name string, id uuid.UUID) error {
	if id == uuid.Nil {
		return apierr.Validation("missing_"+name, "%s is required", name)
	}
	return nil
}

// ---- auth ----

// Login stores the returned access token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	var out services.AuthResult
	if err := c.Post(ctx, "/api/auth/login", services.LoginInput{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	var out services.AuthResult
	if err := c.Post(ctx, "/api/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.AccessToken)
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var out types.User
	if err := c.Get(ctx, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- batches ----

func (c *Client) ListBatches(ctx context.Context) ([]*types.Batch, error) {
	out := []*types.Batch{}
	if err := c.Get(ctx, "/api/batches", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBatch(ctx context.Context, batchID uuid.UUID) (*types.Batch, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	var out types.Batch
	if err := c.Get(ctx, "/api/batches/"+batchID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBatch(ctx context.Context, in services.BatchInput) (*types.Batch, error) {
	var out types.Batch
	if err := c.Post(ctx, "/api/admin/batches", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBatch(ctx context.Context, batchID uuid.UUID, in services.BatchInput) (*types.Batch, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	var out types.Batch
	if err := c.Put(ctx, "/api/admin/batches/"+batchID.String(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	if err := requireID("batch_id", batchID); err != nil {
		return err
	}
	return c.Delete(ctx, "/api/admin/batches/"+batchID.String(), nil)
}

// ImportCurriculum uploads a curriculum YAML document.
func (c *Client) ImportCurriculum(ctx context.Context, filename string, r io.Reader) (*services.ImportResult, error) {
	var out services.ImportResult
	if err := c.UploadFile(ctx, "/api/admin/batches/import", filename, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- enrollments ----

func (c *Client) Enroll(ctx context.Context, batchID uuid.UUID) (*types.Enrollment, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	var out types.Enrollment
	if err := c.Post(ctx, "/api/batches/"+batchID.String()+"/enroll", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Enrollment returns the caller's enrollment in batchID; a 404 means not enrolled.
func (c *Client) Enrollment(ctx context.Context, batchID uuid.UUID) (*types.Enrollment, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	var out types.Enrollment
	if err := c.Get(ctx, "/api/batches/"+batchID.String()+"/enrollment", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyEnrollments(ctx context.Context) ([]*types.Enrollment, error) {
	out := []*types.Enrollment{}
	if err := c.Get(ctx, "/api/enrollments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BatchEnrollments(ctx context.Context, batchID uuid.UUID) ([]*types.Enrollment, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	out := []*types.Enrollment{}
	if err := c.Get(ctx, "/api/admin/enrollments", url.Values{"batchId": {batchID.String()}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteEnrollment(ctx context.Context, enrollmentID uuid.UUID) error {
	if err := requireID("enrollment_id", enrollmentID); err != nil {
		return err
	}
	return c.Delete(ctx, "/api/admin/enrollments/"+enrollmentID.String(), nil)
}

func (c *Client) Progress(ctx context.Context, batchID uuid.UUID) (*services.ProgressReport, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	var out services.ProgressReport
	if err := c.Get(ctx, "/api/batches/"+batchID.String()+"/progress", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- tasks ----

func (c *Client) Tasks(ctx context.Context, batchID uuid.UUID) ([]*types.Task, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	out := []*types.Task{}
	if err := c.Get(ctx, "/api/batches/"+batchID.String()+"/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminTasks lists every task of a batch, unpublished ones included.
func (c *Client) AdminTasks(ctx context.Context, batchID uuid.UUID) ([]*types.Task, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	out := []*types.Task{}
	if err := c.Get(ctx, "/api/admin/batches/"+batchID.String()+"/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Days(ctx context.Context, batchID uuid.UUID) ([]learning.DayGroup, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	out := []learning.DayGroup{}
	if err := c.Get(ctx, "/api/batches/"+batchID.String()+"/days", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, taskID uuid.UUID) (*types.Task, error) {
	if err := requireID("task_id", taskID); err != nil {
		return nil, err
	}
	var out types.Task
	if err := c.Get(ctx, "/api/tasks/"+taskID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, in services.TaskInput) (*types.Task, error) {
	var out types.Task
	if err := c.Post(ctx, "/api/admin/tasks", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, taskID uuid.UUID, in services.TaskInput) (*types.Task, error) {
	if err := requireID("task_id", taskID); err != nil {
		return nil, err
	}
	var out types.Task
	if err := c.Put(ctx, "/api/admin/tasks/"+taskID.String(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	if err := requireID("task_id", taskID); err != nil {
		return err
	}
	return c.Delete(ctx, "/api/admin/tasks/"+taskID.String(), nil)
}

func (c *Client) CompleteTask(ctx context.Context, taskID uuid.UUID) (*types.Enrollment, error) {
	if err := requireID("task_id", taskID); err != nil {
		return nil, err
	}
	var out types.Enrollment
	if err := c.Post(ctx, "/api/tasks/"+taskID.String()+"/complete", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UncompleteTask(ctx context.Context, taskID uuid.UUID) (*types.Enrollment, error) {
	if err := requireID("task_id", taskID); err != nil {
		return nil, err
	}
	var out types.Enrollment
	if err := c.Delete(ctx, "/api/tasks/"+taskID.String()+"/complete", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- submissions ----

// Submit creates the caller's submission for a task or resubmits the existing one.
func (c *Client) Submit(ctx context.Context, in services.SubmissionInput) (*types.TaskSubmission, error) {
	if in.TaskID == uuid.Nil || in.BatchID == uuid.Nil {
		return nil, apierr.Validation("missing_ids", "task_id and batch_id are required")
	}
	var out types.TaskSubmission
	if err := c.Post(ctx, "/api/submissions", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Resubmit(ctx context.Context, submissionID uuid.UUID, in services.SubmissionInput) (*types.TaskSubmission, error) {
	if err := requireID("submission_id", submissionID); err != nil {
		return nil, err
	}
	var out types.TaskSubmission
	if err := c.Put(ctx, "/api/submissions/"+submissionID.String(), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSubmission(ctx context.Context, submissionID uuid.UUID) (*types.TaskSubmission, error) {
	if err := requireID("submission_id", submissionID); err != nil {
		return nil, err
	}
	var out types.TaskSubmission
	if err := c.Get(ctx, "/api/submissions/"+submissionID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MySubmissions(ctx context.Context, q SubmissionQuery) ([]*types.TaskSubmission, error) {
	out := []*types.TaskSubmission{}
	if err := c.Get(ctx, "/api/submissions", q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminSubmissions(ctx context.Context, q SubmissionQuery) ([]*types.TaskSubmission, error) {
	out := []*types.TaskSubmission{}
	if err := c.Get(ctx, "/api/admin/submissions", q.values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteSubmission(ctx context.Context, submissionID uuid.UUID) error {
	if err := requireID("submission_id", submissionID); err != nil {
		return err
	}
	return c.Delete(ctx, "/api/submissions/"+submissionID.String(), nil)
}

func (c *Client) Review(ctx context.Context, submissionID uuid.UUID, in services.ReviewInput) (*types.TaskSubmission, error) {
	if err := requireID("submission_id", submissionID); err != nil {
		return nil, err
	}
	var out types.TaskSubmission
	if err := c.Post(ctx, "/api/admin/submissions/"+submissionID.String()+"/review", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	var out UploadResult
	if err := c.UploadFile(ctx, "/api/uploads", filename, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---- certificates ----

func (c *Client) Certificate(ctx context.Context, batchID uuid.UUID) (*types.Certificate, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	var out types.Certificate
	if err := c.Get(ctx, "/api/batches/"+batchID.String()+"/certificate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CertificatePNG(ctx context.Context, batchID uuid.UUID) ([]byte, error) {
	if err := requireID("batch_id", batchID); err != nil {
		return nil, err
	}
	path := "/api/batches/" + batchID.String() + "/certificate.png"
	body, contentType, err := c.Raw(ctx, path)
	if err != nil {
		return nil, err
	}
	if contentType != "" && contentType != "image/png" {
		return nil, &TransportError{Method: http.MethodGet, Path: path, Err: fmt.Errorf("unexpected content type %q", contentType)}
	}
	return body, nil
}

// VerifyCertificate needs no token.
func (c *Client) VerifyCertificate(ctx context.Context, batchID, userID uuid.UUID) (*types.CertificateVerification, error) {
	if batchID == uuid.Nil || userID == uuid.Nil {
		return nil, apierr.Validation("missing_ids", "batch_id and user_id are required")
	}
	q := url.Values{"batchId": {batchID.String()}, "userId": {userID.String()}}
	var out types.CertificateVerification
	if err := c.Get(ctx, "/api/certificates/verify", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
