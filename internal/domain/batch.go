package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Batch is one scheduled offering of a course. Tasks, enrollments and submissions reference it by id.
type Batch struct {
	ID            uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string                      `gorm:"column:title;not null" json:"title"`
	CourseName    string                      `gorm:"column:course_name;not null" json:"course_name"`
	Description   string                      `gorm:"column:description;type:text" json:"description"`
	StartDate     time.Time                   `gorm:"column:start_date;not null;index" json:"start_date"`
	DurationDays  int                         `gorm:"column:duration_days;not null" json:"duration_days"`
	BannerImage   string                      `gorm:"column:banner_image" json:"banner_image,omitempty"`
	Instructor    string                      `gorm:"column:instructor" json:"instructor"`
	Price         float64                     `gorm:"column:price;not null;default:0" json:"price"`
	MaxStudents   int                         `gorm:"column:max_students;not null" json:"max_students"`
	WhatYouLearn  datatypes.JSONSlice[string] `gorm:"column:what_you_learn" json:"what_you_learn"`
	Prerequisites datatypes.JSONSlice[string] `gorm:"column:prerequisites" json:"prerequisites"`
	Benefits      datatypes.JSONSlice[string] `gorm:"column:benefits" json:"benefits"`
	IsActive      bool                        `gorm:"column:is_active;not null;index" json:"is_active"`
	CreatedAt     time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (Batch) TableName() string { return "batch" }

// EndDate is the first instant after the batch's last day.
func (b *Batch) EndDate() time.Time {
	return b.StartDate.AddDate(0, 0, b.DurationDays)
}
