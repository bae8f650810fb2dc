package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/pkg/ctxutil"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
	"github.com/yungbote/certifytrack-backend/internal/platform/sendgrid"
)

// Mailer is satisfied by sendgrid.Client.
type Mailer interface {
	Send(ctx context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error)
}

// NotificationService tells students about reviews and earned certificates. Delivery failures are logged
// and never fail the calling operation.
type NotificationService interface {
	SubmissionReviewed(ctx context.Context, sub *types.TaskSubmission)
	CertificateEarned(ctx context.Context, userID, batchID uuid.UUID)
}

type NotificationConfig struct {
	FromEmail string
	FromName  string
}

type notificationService struct {
	log          *logger.Logger
	mailer       Mailer
	userRepo     repos.UserRepo
	batchRepo    repos.BatchRepo
	taskRepo     repos.TaskRepo
	certificates CertificateService
	cfg          NotificationConfig
}

// NewNotificationService accepts a nil mailer, in which case every notification is only logged.
func NewNotificationService(
	log *logger.Logger,
	mailer Mailer,
	userRepo repos.UserRepo,
	batchRepo repos.BatchRepo,
	taskRepo repos.TaskRepo,
	certificates CertificateService,
	cfg NotificationConfig,
) NotificationService {
	if cfg.FromName == "" {
		cfg.FromName = "CertifyTrack"
	}
	return &notificationService{
		log:          log.With("service", "NotificationService"),
		mailer:       mailer,
		userRepo:     userRepo,
		batchRepo:    batchRepo,
		taskRepo:     taskRepo,
		certificates: certificates,
		cfg:          cfg,
	}
}

func (n *notificationService) SubmissionReviewed(ctx context.Context, sub *types.TaskSubmission) {
	if sub == nil {
		return
	}
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}
	user, err := n.userRepo.GetByID(dbc, sub.UserID)
	if err != nil || user == nil {
		n.log.Warn("Review notification skipped: user lookup failed", "submission_id", sub.ID, "error", err)
		return
	}
	task, err := n.taskRepo.GetByID(dbc, sub.TaskID)
	if err != nil || task == nil {
		n.log.Warn("Review notification skipped: task lookup failed", "submission_id", sub.ID, "error", err)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nYour submission for \"%s\" was marked %s.\n", user.Name, task.Title, sub.Status)
	if sub.Grade != nil {
		fmt.Fprintf(&b, "Grade: %d/100\n", *sub.Grade)
	}
	if strings.TrimSpace(sub.Feedback) != "" {
		fmt.Fprintf(&b, "\nFeedback:\n%s\n", sub.Feedback)
	}

	n.send(ctx, user, fmt.Sprintf("Your submission was %s", sub.Status), b.String(), "submission_reviewed")
}

func (n *notificationService) CertificateEarned(ctx context.Context, userID, batchID uuid.UUID) {
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}
	user, err := n.userRepo.GetByID(dbc, userID)
	if err != nil || user == nil {
		n.log.Warn("Certificate notification skipped: user lookup failed", "user_id", userID, "error", err)
		return
	}
	cert, err := n.certificates.Derive(dbc, batchID, userID)
	if err != nil {
		n.log.Warn("Certificate notification skipped", "user_id", userID, "batch_id", batchID, "error", err)
		return
	}
	if cert == nil {
		return
	}

	body := fmt.Sprintf(
		"Congratulations %s!\n\nYou completed %s. Certificate %s was issued on %s.\nVerify it at %s\n",
		user.Name, cert.CourseName, cert.ID, cert.IssueDate.Format("January 2, 2006"), cert.VerificationURL,
	)
	n.send(ctx, user, "You earned a certificate: "+cert.CourseName, body, "certificate_earned")
}

func (n *notificationService) send(ctx context.Context, to *types.User, subject, text, category string) {
	if n.mailer == nil {
		n.log.Debug("Mailer not configured; notification dropped", "to", to.ID, "category", category)
		return
	}
	res, err := n.mailer.Send(ctxutil.Default(ctx), sendgrid.SendEmailRequest{
		From:       sendgrid.EmailAddress{Email: n.cfg.FromEmail, Name: n.cfg.FromName},
		To:         sendgrid.EmailAddress{Email: to.Email, Name: to.Name},
		Subject:    subject,
		Text:       text,
		Categories: []string{category},
	})
	if err != nil {
		n.log.ForRequest(ctx).Warn("Notification email failed", "to", to.ID, "category", category, "error", err)
		return
	}
	n.log.Info("Notification email sent", "to", to.ID, "category", category, "message_id", res.MessageID)
}
