package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionReviewed SubmissionStatus = "reviewed"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionReviewed, SubmissionApproved, SubmissionRejected:
		return true
	}
	return false
}

// Deletable reports whether the owner may still withdraw a submission in this state.
func (s SubmissionStatus) Deletable() bool {
	return s == SubmissionPending || s == SubmissionRejected
}

type SubmissionFile struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	PublicID string `json:"public_id,omitempty"`
}

type SubmissionLink struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SubmissionVersion is a snapshot of a submission taken right before a resubmission overwrote it.
type SubmissionVersion struct {
	Version     int              `json:"version"`
	Content     string           `json:"content"`
	Files       []SubmissionFile `json:"files"`
	Links       []SubmissionLink `json:"links"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

type TaskSubmission struct {
	ID          uuid.UUID                              `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID      uuid.UUID                              `gorm:"type:uuid;not null;uniqueIndex:idx_submission_task_user,priority:1" json:"task_id"`
	UserID      uuid.UUID                              `gorm:"type:uuid;not null;uniqueIndex:idx_submission_task_user,priority:2;index" json:"user_id"`
	BatchID     uuid.UUID                              `gorm:"type:uuid;not null;index" json:"batch_id"`
	Content     string                                 `gorm:"column:content;type:text" json:"content"`
	Files       datatypes.JSONSlice[SubmissionFile]    `gorm:"column:files" json:"files"`
	Links       datatypes.JSONSlice[SubmissionLink]    `gorm:"column:links" json:"links"`
	Status      SubmissionStatus                       `gorm:"column:status;not null;index" json:"status"`
	Feedback    string                                 `gorm:"column:feedback;type:text" json:"feedback,omitempty"`
	Grade       *int                                   `gorm:"column:grade" json:"grade,omitempty"`
	SubmittedAt time.Time                              `gorm:"column:submitted_at;not null" json:"submitted_at"`
	ReviewedAt  *time.Time                             `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy  *uuid.UUID                             `gorm:"type:uuid;column:reviewed_by" json:"reviewed_by,omitempty"`
	History     datatypes.JSONSlice[SubmissionVersion] `gorm:"column:history" json:"history"`
	Revision    int                                    `gorm:"column:revision;not null;default:0" json:"revision"`
	CreatedAt   time.Time                              `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time                              `gorm:"not null" json:"updated_at"`
}

func (TaskSubmission) TableName() string { return "task_submission" }

// Snapshot captures the current body of the submission as the next history version.
func (s *TaskSubmission) Snapshot() SubmissionVersion {
	return SubmissionVersion{
		Version:     len(s.History) + 1,
		Content:     s.Content,
		Files:       append([]SubmissionFile(nil), s.Files...),
		Links:       append([]SubmissionLink(nil), s.Links...),
		SubmittedAt: s.SubmittedAt,
	}
}
