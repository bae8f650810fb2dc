package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/repos"
	types "github.com/yungbote/certifytrack-backend/internal/domain"
	"github.com/yungbote/certifytrack-backend/internal/learning"
	"github.com/yungbote/certifytrack-backend/internal/pkg/apierr"
	"github.com/yungbote/certifytrack-backend/internal/pkg/dbctx"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type CertificateRenderer interface {
	Render(cert *types.Certificate) ([]byte, error)
}

type CertificateConfig struct {
	IssuerName string
	// BaseURL is the public origin used in verification links.
	BaseURL string
}

type CertificateService interface {
	// Derive returns nil without error when the pair exists but the batch is not complete.
	Derive(dbc dbctx.Context, batchID, userID uuid.UUID) (*types.Certificate, error)
	// Verify is public. It recomputes progress from scratch and never trusts the stored percentage.
	Verify(dbc dbctx.Context, batchID, userID uuid.UUID) (*types.CertificateVerification, error)
	ForUser(dbc dbctx.Context, batchID uuid.UUID) (*types.Certificate, error)
	RenderPNG(dbc dbctx.Context, batchID uuid.UUID) ([]byte, *types.Certificate, error)
}

type certificateService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	batchRepo      repos.BatchRepo
	taskRepo       repos.TaskRepo
	enrollmentRepo repos.EnrollmentRepo
	renderer       CertificateRenderer
	cfg            CertificateConfig
	now            func() time.Time
}

func NewCertificateService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	batchRepo repos.BatchRepo,
	taskRepo repos.TaskRepo,
	enrollmentRepo repos.EnrollmentRepo,
	renderer CertificateRenderer,
	cfg CertificateConfig,
) CertificateService {
	if cfg.IssuerName == "" {
		cfg.IssuerName = "CertifyTrack"
	}
	return &certificateService{
		db:             db,
		log:            log.With("service", "CertificateService"),
		userRepo:       userRepo,
		batchRepo:      batchRepo,
		taskRepo:       taskRepo,
		enrollmentRepo: enrollmentRepo,
		renderer:       renderer,
		cfg:            cfg,
		now:            time.Now,
	}
}

type certificateState struct {
	batch      *types.Batch
	user       *types.User
	enrollment *types.Enrollment
	progress   learning.Progress
}

func (s *certificateService) load(dbc dbctx.Context, batchID, userID uuid.UUID) (*certificateState, error) {
	st := &certificateState{}
	var err error
	if st.batch, err = s.batchRepo.GetByID(dbc, batchID); err != nil {
		return nil, fmt.Errorf("load batch: %w", err)
	}
	if st.user, err = s.userRepo.GetByID(dbc, userID); err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if st.enrollment, err = s.enrollmentRepo.GetByUserAndBatch(dbc, userID, batchID); err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if st.batch == nil || st.user == nil || st.enrollment == nil {
		return st, nil
	}
	published, err := s.taskRepo.PublishedIDsByBatchID(dbc, batchID)
	if err != nil {
		return nil, fmt.Errorf("load published tasks: %w", err)
	}
	st.progress = learning.ComputeProgressFromIDs(published, st.enrollment.CompletedTasks)
	return st, nil
}

func (s *certificateService) derive(st *certificateState) *types.Certificate {
	if st.batch == nil || st.user == nil || st.enrollment == nil {
		return nil
	}
	return learning.DeriveCertificate(learning.CertificateInput{
		Batch:      st.batch,
		User:       st.user,
		Enrollment: st.enrollment,
		Progress:   st.progress,
		IssuerName: s.cfg.IssuerName,
		BaseURL:    s.cfg.BaseURL,
		Now:        s.now(),
	})
}

func (s *certificateService) Derive(dbc dbctx.Context, batchID, userID uuid.UUID) (*types.Certificate, error) {
	st, err := s.load(dbc, batchID, userID)
	if err != nil {
		return nil, err
	}
	return s.derive(st), nil
}

func (s *certificateService) Verify(dbc dbctx.Context, batchID, userID uuid.UUID) (*types.CertificateVerification, error) {
	if batchID == uuid.Nil || userID == uuid.Nil {
		return nil, apierr.Validation("missing_ids", "batchId and userId are required")
	}
	st, err := s.load(dbc, batchID, userID)
	if err != nil {
		return nil, err
	}
	out := &types.CertificateVerification{Progress: st.progress.Percentage}
	if cert := s.derive(st); cert != nil {
		out.IsValid = true
		out.Certificate = cert
	}
	return out, nil
}

func (s *certificateService) ForUser(dbc dbctx.Context, batchID uuid.UUID) (*types.Certificate, error) {
	rd, err := requireCaller(dbc)
	if err != nil {
		return nil, err
	}
	st, err := s.load(dbc, batchID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if st.enrollment == nil {
		return nil, apierr.NotFound("not_enrolled", "not enrolled in this batch")
	}
	cert := s.derive(st)
	if cert == nil {
		return nil, apierr.NotFound(
			"certificate_unavailable",
			"complete every task to earn the certificate (currently %d%%)",
			st.progress.Percentage,
		)
	}
	return cert, nil
}

func (s *certificateService) RenderPNG(dbc dbctx.Context, batchID uuid.UUID) ([]byte, *types.Certificate, error) {
	if s.renderer == nil {
		return nil, nil, apierr.NotFound("renderer_unavailable", "certificate images are not enabled")
	}
	cert, err := s.ForUser(dbc, batchID)
	if err != nil {
		return nil, nil, err
	}
	png, err := s.renderer.Render(cert)
	if err != nil {
		s.log.Error("Certificate render failed", "certificate_id", cert.ID, "error", err)
		return nil, nil, fmt.Errorf("render certificate: %w", err)
	}
	return png, cert, nil
}
