package learning

import (
	"github.com/google/uuid"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
)

// Progress counts completed tasks against the published tasks of a batch.
type Progress struct {
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
	Percentage     int `json:"percentage"`
}

// Complete reports whether every published task is done. A batch without tasks is never complete.
func (p Progress) Complete() bool {
	return p.TotalCount > 0 && p.CompletedCount == p.TotalCount
}

// ComputeProgress counts how many of the published tasks appear in completed. Placeholders, unpublished
// tasks and duplicate ids are ignored, and ids of tasks outside the list do not count.
func ComputeProgress(published []*types.Task, completed []uuid.UUID) Progress {
	done := make(map[uuid.UUID]struct{}, len(completed))
	for _, id := range completed {
		done[id] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{}, len(published))
	var p Progress
	for _, t := range published {
		if t == nil || t.IsPlaceholder || !t.IsPublished {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		p.TotalCount++
		if _, ok := done[t.ID]; ok {
			p.CompletedCount++
		}
	}
	p.Percentage = Percentage(p.CompletedCount, p.TotalCount)
	return p
}

// ComputeProgressFromIDs is ComputeProgress for callers that only hold the published task ids.
func ComputeProgressFromIDs(publishedIDs []uuid.UUID, completed []uuid.UUID) Progress {
	tasks := make([]*types.Task, 0, len(publishedIDs))
	for _, id := range publishedIDs {
		tasks = append(tasks, &types.Task{ID: id, IsPublished: true})
	}
	return ComputeProgress(tasks, completed)
}

// Percentage rounds 100*completed/total half up using integer math. A zero total yields 0, and 100 is
// reserved for completed == total.
func Percentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return min((200*completed+total)/(2*total), 99)
}
