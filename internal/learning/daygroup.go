package learning

import (
	"sort"

	"github.com/google/uuid"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
)

// DayGroup is one day of a batch together with the tasks shown for it.
type DayGroup struct {
	DayNumber int           `json:"day_number"`
	Tasks     []*types.Task `json:"tasks"`
}

// HasContent reports whether the day carries real tasks rather than a placeholder.
func (g DayGroup) HasContent() bool {
	return len(g.Tasks) > 0 && !g.Tasks[0].IsPlaceholder
}

// GroupTasksByDay lays tasks out over days 1..durationDays. Each day gets its published tasks sorted by
// Order (ties keep input order) or, when it has none, a single placeholder. Unpublished tasks and days
// outside the range are dropped. A non-positive duration yields an empty list.
func GroupTasksByDay(durationDays int, tasks []*types.Task) []DayGroup {
	if durationDays <= 0 {
		return []DayGroup{}
	}

	var batchID uuid.UUID
	byDay := make(map[int][]*types.Task, durationDays)
	for _, t := range tasks {
		if t == nil || !t.IsPublished || t.IsPlaceholder {
			continue
		}
		if t.DayNumber < 1 || t.DayNumber > durationDays {
			continue
		}
		if batchID == uuid.Nil {
			batchID = t.BatchID
		}
		byDay[t.DayNumber] = append(byDay[t.DayNumber], t)
	}

	out := make([]DayGroup, 0, durationDays)
	for day := 1; day <= durationDays; day++ {
		dayTasks := byDay[day]
		if len(dayTasks) == 0 {
			out = append(out, DayGroup{DayNumber: day, Tasks: []*types.Task{types.NewPlaceholderTask(batchID, day)}})
			continue
		}
		sort.SliceStable(dayTasks, func(i, j int) bool { return dayTasks[i].Order < dayTasks[j].Order })
		out = append(out, DayGroup{DayNumber: day, Tasks: dayTasks})
	}
	return out
}
