package app

import (
	"database/sql"

	httpH "github.com/yungbote/certifytrack-backend/internal/http/handlers"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Auth        *httpH.AuthHandler
	Batch       *httpH.BatchHandler
	Enrollment  *httpH.EnrollmentHandler
	Task        *httpH.TaskHandler
	Submission  *httpH.SubmissionHandler
	Certificate *httpH.CertificateHandler
	Upload      *httpH.UploadHandler
}

func wireHandlers(log *logger.Logger, cfg Config, sqlDB *sql.DB, s Services, m *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	var pinger httpH.Pinger
	if sqlDB != nil {
		pinger = sqlDB
	}
	return Handlers{
		Health:      httpH.NewHealthHandler(pinger),
		Auth:        httpH.NewAuthHandler(log, s.Auth),
		Batch:       httpH.NewBatchHandler(log, s.Batch, m),
		Enrollment:  httpH.NewEnrollmentHandler(log, s.Enrollment, m),
		Task:        httpH.NewTaskHandler(log, s.Task, s.Enrollment, m),
		Submission:  httpH.NewSubmissionHandler(log, s.Submission, m),
		Certificate: httpH.NewCertificateHandler(log, s.Certificate, m),
		Upload:      httpH.NewUploadHandler(log, s.Upload, cfg.UploadMaxBytes),
	}
}
