package domain

import (
	"time"

	"github.com/google/uuid"
)

// Certificate is derived from a fully completed enrollment on every request; it has no table.
type Certificate struct {
	ID              string    `json:"id"`
	BatchID         uuid.UUID `json:"batch_id"`
	UserID          uuid.UUID `json:"user_id"`
	RecipientName   string    `json:"recipient_name"`
	CourseName      string    `json:"course_name"`
	IssueDate       time.Time `json:"issue_date"`
	IssuerName      string    `json:"issuer_name"`
	VerificationURL string    `json:"verification_url"`
}

// CertificateVerification is the public answer for a (batch, user) pair.
type CertificateVerification struct {
	IsValid     bool         `json:"is_valid"`
	Progress    int          `json:"progress"`
	Certificate *Certificate `json:"certificate,omitempty"`
}
