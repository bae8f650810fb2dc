package pages

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/client"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

// LearningAPI is the part of *client.Client the learning page calls.
type LearningAPI interface {
	Enrollment(ctx context.Context, batchID uuid.UUID) (*types.Enrollment, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) (*types.Batch, error)
	Tasks(ctx context.Context, batchID uuid.UUID) ([]*types.Task, error)
	Progress(ctx context.Context, batchID uuid.UUID) (*services.ProgressReport, error)
	MySubmissions(ctx context.Context, q client.SubmissionQuery) ([]*types.TaskSubmission, error)
	CompleteTask(ctx context.Context, taskID uuid.UUID) (*types.Enrollment, error)
	UncompleteTask(ctx context.Context, taskID uuid.UUID) (*types.Enrollment, error)
	Submit(ctx context.Context, in services.SubmissionInput) (*types.TaskSubmission, error)
	DeleteSubmission(ctx context.Context, submissionID uuid.UUID) error
	Certificate(ctx context.Context, batchID uuid.UUID) (*types.Certificate, error)
}

type AdminBatchesAPI interface {
	ListBatches(ctx context.Context) ([]*types.Batch, error)
	CreateBatch(ctx context.Context, in services.BatchInput) (*types.Batch, error)
	UpdateBatch(ctx context.Context, batchID uuid.UUID, in services.BatchInput) (*types.Batch, error)
	DeleteBatch(ctx context.Context, batchID uuid.UUID) error
	ImportCurriculum(ctx context.Context, filename string, r io.Reader) (*services.ImportResult, error)
	BatchEnrollments(ctx context.Context, batchID uuid.UUID) ([]*types.Enrollment, error)
}

type AdminTasksAPI interface {
	GetBatch(ctx context.Context, batchID uuid.UUID) (*types.Batch, error)
	AdminTasks(ctx context.Context, batchID uuid.UUID) ([]*types.Task, error)
	CreateTask(ctx context.Context, in services.TaskInput) (*types.Task, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, in services.TaskInput) (*types.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error
}

type AdminSubmissionsAPI interface {
	AdminSubmissions(ctx context.Context, q client.SubmissionQuery) ([]*types.TaskSubmission, error)
	Review(ctx context.Context, submissionID uuid.UUID, in services.ReviewInput) (*types.TaskSubmission, error)
	DeleteSubmission(ctx context.Context, submissionID uuid.UUID) error
}

var (
	_ LearningAPI         = (*client.Client)(nil)
	_ AdminBatchesAPI     = (*client.Client)(nil)
	_ AdminTasksAPI       = (*client.Client)(nil)
	_ AdminSubmissionsAPI = (*client.Client)(nil)
)
