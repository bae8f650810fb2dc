package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContentType string

const (
	ContentVideo      ContentType = "video"
	ContentAssignment ContentType = "assignment"
	ContentReading    ContentType = "reading"
	ContentProject    ContentType = "project"
	ContentQuiz       ContentType = "quiz"
)

func (t ContentType) Valid() bool {
	switch t {
	case ContentVideo, ContentAssignment, ContentReading, ContentProject, ContentQuiz:
		return true
	}
	return false
}

type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

// TaskContent is one block of a task. Only the payload matching Type is expected to be set.
type TaskContent struct {
	Type           ContentType    `json:"type"`
	Title          string         `json:"title,omitempty"`
	VideoURL       string         `json:"video_url,omitempty"`
	Assignment     string         `json:"assignment,omitempty"`
	ReadingContent string         `json:"reading_content,omitempty"`
	ProjectDetails string         `json:"project_details,omitempty"`
	Quiz           []QuizQuestion `json:"quiz,omitempty"`
}

type Task struct {
	ID           uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID      uuid.UUID                        `gorm:"type:uuid;not null;index:idx_task_batch_day,priority:1" json:"batch_id"`
	DayNumber    int                              `gorm:"column:day_number;not null;index:idx_task_batch_day,priority:2" json:"day_number"`
	Order        int                              `gorm:"column:sort_order;not null;default:0" json:"order"`
	Title        string                           `gorm:"column:title;not null" json:"title"`
	Description  string                           `gorm:"column:description;type:text" json:"description"`
	Contents     datatypes.JSONSlice[TaskContent] `gorm:"column:contents" json:"contents"`
	Resources    datatypes.JSONSlice[string]      `gorm:"column:resources" json:"resources"`
	CodeSnippets datatypes.JSONSlice[string]      `gorm:"column:code_snippets" json:"code_snippets"`
	PDFs         datatypes.JSONSlice[string]      `gorm:"column:pdfs" json:"pdfs"`
	Images       datatypes.JSONSlice[string]      `gorm:"column:images" json:"images"`
	IsPublished  bool                             `gorm:"column:is_published;not null;index" json:"is_published"`

	// IsPlaceholder marks a synthetic stand-in for a day without published content. Never persisted.
	IsPlaceholder bool `gorm:"-" json:"is_placeholder,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Task) TableName() string { return "task" }

// NewPlaceholderTask returns the transient entry shown for a day with nothing published yet.
func NewPlaceholderTask(batchID uuid.UUID, day int) *Task {
	return &Task{
		BatchID:       batchID,
		DayNumber:     day,
		Title:         fmt.Sprintf("Day %d: coming soon", day),
		Description:   "Content for this day has not been published yet.",
		IsPlaceholder: true,
	}
}
