package learning

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
)

type CertificateInput struct {
	Batch      *types.Batch
	User       *types.User
	Enrollment *types.Enrollment
	Progress   Progress
	IssuerName string
	BaseURL    string
	Now        time.Time
}

// CertificateID is stable for a (batch, user) pair.
func CertificateID(in CertificateInput) string {
	return fmt.Sprintf(
		"CERT-%s-%s",
		strings.ToUpper(in.Batch.ID.String()[:8]),
		strings.ToUpper(in.User.ID.String()[:8]),
	)
}

// DeriveCertificate returns nil unless progress is complete. The issue date is the enrollment's completion
// time when recorded so repeated derivations agree; otherwise Now is used.
func DeriveCertificate(in CertificateInput) *types.Certificate {
	if in.Batch == nil || in.User == nil || !in.Progress.Complete() || in.Progress.Percentage != 100 {
		return nil
	}
	issued := in.Now.UTC()
	if in.Enrollment != nil && in.Enrollment.CompletedAt != nil {
		issued = in.Enrollment.CompletedAt.UTC()
	}
	return &types.Certificate{
		ID:              CertificateID(in),
		BatchID:         in.Batch.ID,
		UserID:          in.User.ID,
		RecipientName:   in.User.Name,
		CourseName:      in.Batch.CourseName,
		IssueDate:       issued,
		IssuerName:      in.IssuerName,
		VerificationURL: VerificationURL(in.BaseURL, in.Batch, in.User),
	}
}

func VerificationURL(baseURL string, batch *types.Batch, user *types.User) string {
	q := url.Values{}
	q.Set("batchId", batch.ID.String())
	q.Set("userId", user.ID.String())
	return strings.TrimRight(baseURL, "/") + "/api/certificates/verify?" + q.Encode()
}
