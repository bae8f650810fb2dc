package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Enrollment struct {
	ID             uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_batch,priority:1" json:"user_id"`
	BatchID        uuid.UUID                      `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_batch,priority:2;index:idx_enrollment_batch" json:"batch_id"`
	EnrolledAt     time.Time                      `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	Progress       int                            `gorm:"column:progress;not null;default:0" json:"progress"`
	CompletedTasks datatypes.JSONSlice[uuid.UUID] `gorm:"column:completed_tasks" json:"completed_tasks"`
	CompletedAt    *time.Time                     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt      time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time                      `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) HasCompleted(taskID uuid.UUID) bool {
	for _, id := range e.CompletedTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AddCompleted appends taskID unless present and reports whether the set changed.
func (e *Enrollment) AddCompleted(taskID uuid.UUID) bool {
	if e.HasCompleted(taskID) {
		return false
	}
	e.CompletedTasks = append(e.CompletedTasks, taskID)
	return true
}

// RemoveCompleted drops taskID, keeping the order of the rest, and reports whether the set changed.
func (e *Enrollment) RemoveCompleted(taskID uuid.UUID) bool {
	out := make(datatypes.JSONSlice[uuid.UUID], 0, len(e.CompletedTasks))
	removed := false
	for _, id := range e.CompletedTasks {
		if id == taskID {
			removed = true
			continue
		}
		out = append(out, id)
	}
	if removed {
		e.CompletedTasks = out
	}
	return removed
}

func (e *Enrollment) CompletedSet() map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(e.CompletedTasks))
	for _, id := range e.CompletedTasks {
		set[id] = struct{}{}
	}
	return set
}
