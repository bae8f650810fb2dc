package app

import (
	server "github.com/yungbote/certifytrack-backend/internal/http"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/platform/storage"
)

func routerConfig(log *logger.Logger, cfg Config, h Handlers, mw Middleware, s Services, m *observability.Metrics) server.RouterConfig {
	uploadsDir, _ := storage.LocalDir(s.Bucket)
	return server.RouterConfig{
		Log:            log,
		AuthMiddleware: mw.Auth,
		CORSOrigins:    splitList(cfg.CORSOrigins),
		ServiceName:    cfg.OtelServiceName,
		Tracing:        cfg.OtelEnabled,
		Metrics:        m,
		UploadsDir:     uploadsDir,

		HealthHandler:      h.Health,
		AuthHandler:        h.Auth,
		BatchHandler:       h.Batch,
		EnrollmentHandler:  h.Enrollment,
		TaskHandler:        h.Task,
		SubmissionHandler:  h.Submission,
		CertificateHandler: h.Certificate,
		UploadHandler:      h.Upload,
	}
}
