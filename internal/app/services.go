package app

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/platform/certimage"
	"github.com/yungbote/certifytrack-backend/internal/platform/sendgrid"
	"github.com/yungbote/certifytrack-backend/internal/platform/storage"
	"github.com/yungbote/certifytrack-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Batch        services.BatchService
	Task         services.TaskService
	Enrollment   services.EnrollmentService
	Submission   services.SubmissionService
	Certificate  services.CertificateService
	Notification services.NotificationService
	Upload       services.UploadService

	Bucket storage.Bucket
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, r Repos) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(db, log, r.User, services.AuthConfig{
		JWTSecretKey: cfg.JWTSecretKey,
		AccessTTL:    cfg.AccessTTL(),
		AdminEmails:  splitList(cfg.AdminEmails),
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	renderer, err := certimage.New(log, certimage.Config{FontPath: cfg.CertFontPath, BaseFontSize: cfg.CertFontSize})
	if err != nil {
		return Services{}, fmt.Errorf("init certificate renderer: %w", err)
	}
	certificates := services.NewCertificateService(db, log, r.User, r.Batch, r.Task, r.Enrollment, renderer,
		services.CertificateConfig{IssuerName: cfg.CertIssuerName, BaseURL: cfg.PublicBaseURL})

	var mailer services.Mailer
	if strings.TrimSpace(cfg.SendGridAPIKey) != "" {
		sg, err := sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.SendGridAPIKey,
			DefaultFromEmail: cfg.SendGridFromEmail,
			DefaultFromName:  cfg.SendGridFromName,
			MaxRetries:       2,
		})
		if err != nil {
			return Services{}, fmt.Errorf("init sendgrid: %w", err)
		}
		mailer = sg
	} else {
		log.Warn("SENDGRID_API_KEY not set; notifications are logged only")
	}
	notifier := services.NewNotificationService(log, mailer, r.User, r.Batch, r.Task, certificates,
		services.NotificationConfig{FromEmail: cfg.SendGridFromEmail, FromName: cfg.SendGridFromName})

	bucket, err := storage.New(ctx, cfg.Storage(), log)
	if err != nil {
		return Services{}, fmt.Errorf("init object storage: %w", err)
	}

	enrollments := services.NewEnrollmentService(db, log, r.Batch, r.Task, r.Enrollment, notifier)
	return Services{
		Auth:         auth,
		Batch:        services.NewBatchService(db, log, r.Batch, r.Task, r.Enrollment, r.Submission),
		Task:         services.NewTaskService(db, log, r.Batch, r.Task, r.Enrollment, r.Submission, enrollments),
		Enrollment:   enrollments,
		Submission:   services.NewSubmissionService(db, log, r.Task, r.Enrollment, r.Submission, enrollments, notifier),
		Certificate:  certificates,
		Notification: notifier,
		Upload:       services.NewUploadService(log, bucket, cfg.UploadMaxBytes),
		Bucket:       bucket,
	}, nil
}
