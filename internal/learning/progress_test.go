package learning

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/certifytrack-backend/internal/domain"
)

func TestComputeProgressScenario(t *testing.T) {
	tasks := []*types.Task{task(1, 0, true), task(1, 1, true), task(2, 0, true), task(3, 0, true)}

	tests := []struct {
		name      string
		completed []uuid.UUID
		want      Progress
	}{
		{name: "none", completed: nil, want: Progress{CompletedCount: 0, TotalCount: 4, Percentage: 0}},
		{name: "one", completed: []uuid.UUID{tasks[0].ID}, want: Progress{CompletedCount: 1, TotalCount: 4, Percentage: 25}},
		{
			name:      "all",
			completed: []uuid.UUID{tasks[0].ID, tasks[1].ID, tasks[2].ID, tasks[3].ID},
			want:      Progress{CompletedCount: 4, TotalCount: 4, Percentage: 100},
		},
		{
			name:      "duplicates and strangers",
			completed: []uuid.UUID{tasks[0].ID, tasks[0].ID, uuid.New()},
			want:      Progress{CompletedCount: 1, TotalCount: 4, Percentage: 25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(tasks, tt.completed)
			if got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestComputeProgressSkipsPlaceholdersAndDrafts(t *testing.T) {
	live := task(1, 0, true)
	tasks := []*types.Task{live, types.NewPlaceholderTask(uuid.Nil, 2), task(3, 0, false)}
	got := ComputeProgress(tasks, []uuid.UUID{live.ID})
	if got.TotalCount != 1 || got.CompletedCount != 1 || got.Percentage != 100 {
		t.Fatalf("unexpected progress: %+v", got)
	}
}

func TestComputeProgressEmpty(t *testing.T) {
	got := ComputeProgress(nil, []uuid.UUID{uuid.New()})
	if got != (Progress{}) || got.Complete() {
		t.Fatalf("expected zero progress, got %+v", got)
	}
}

func TestPercentageRounding(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{1, 200, 1},
		{199, 200, 99},
		{5, 5, 100},
		{6, 5, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.completed, tt.total); got != tt.want {
			t.Fatalf("Percentage(%d, %d): expected %d, got %d", tt.completed, tt.total, tt.want, got)
		}
	}
}

func TestPercentageBounds(t *testing.T) {
	for total := 1; total <= 300; total++ {
		for completed := 0; completed <= total; completed++ {
			p := Percentage(completed, total)
			if p < 0 || p > 100 {
				t.Fatalf("Percentage(%d, %d) = %d out of range", completed, total, p)
			}
			if (p == 100) != (completed == total) {
				t.Fatalf("Percentage(%d, %d) = %d breaks the 100 iff complete rule", completed, total, p)
			}
		}
	}
}

func TestComputeProgressFromIDs(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	got := ComputeProgressFromIDs(ids, ids[:1])
	if got != (Progress{CompletedCount: 1, TotalCount: 2, Percentage: 50}) {
		t.Fatalf("unexpected progress: %+v", got)
	}
}
