package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test Student",
		Role:     types.RoleStudent,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test Admin",
		Role:     types.RoleAdmin,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	return u
}

func SeedBatch(tb testing.TB, ctx context.Context, tx *gorm.DB, start time.Time, durationDays int) *types.Batch {
	tb.Helper()
	b := &types.Batch{
		ID:           uuid.New(),
		Title:        "Batch " + start.Format("2006-01-02"),
		CourseName:   "Go Fundamentals",
		StartDate:    start,
		DurationDays: durationDays,
		Instructor:   "Ada",
		MaxStudents:  30,
		IsActive:     true,
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed batch: %v", err)
	}
	return b
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, batchID uuid.UUID, day, order int, published bool) *types.Task {
	tb.Helper()
	t := &types.Task{
		ID:          uuid.New(),
		BatchID:     batchID,
		DayNumber:   day,
		Order:       order,
		Title:       fmt.Sprintf("Day %d task %d", day, order),
		IsPublished: published,
		Contents: []types.TaskContent{
			{Type: types.ContentReading, Title: "Read", ReadingContent: "text"},
		},
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, batchID uuid.UUID, completed ...uuid.UUID) *types.Enrollment {
	tb.Helper()
	if completed == nil {
		completed = []uuid.UUID{}
	}
	e := &types.Enrollment{
		ID:             uuid.New(),
		UserID:         userID,
		BatchID:        batchID,
		EnrolledAt:     time.Now().UTC(),
		CompletedTasks: completed,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, task *types.Task, userID uuid.UUID, status types.SubmissionStatus) *types.TaskSubmission {
	tb.Helper()
	s := &types.TaskSubmission{
		ID:          uuid.New(),
		TaskID:      task.ID,
		UserID:      userID,
		BatchID:     task.BatchID,
		Content:     "my answer",
		Files:       []types.SubmissionFile{},
		Links:       []types.SubmissionLink{},
		History:     []types.SubmissionVersion{},
		Status:      status,
		SubmittedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}
