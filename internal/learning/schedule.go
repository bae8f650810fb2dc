package learning

import "time"

// Schedule describes where "now" falls inside a batch, counted in whole UTC calendar days.
type Schedule struct {
	Started       bool      `json:"started"`
	Finished      bool      `json:"finished"`
	CurrentDay    int       `json:"current_day"`
	ElapsedDays   int       `json:"elapsed_days"`
	RemainingDays int       `json:"remaining_days"`
	EndDate       time.Time `json:"end_date"`
}

const oneDay = 24 * time.Hour

func utcMidnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ComputeSchedule(startDate time.Time, durationDays int, now time.Time) Schedule {
	if durationDays < 0 {
		durationDays = 0
	}
	start := utcMidnight(startDate)
	s := Schedule{EndDate: start.AddDate(0, 0, durationDays)}

	today := utcMidnight(now)
	if today.Before(start) {
		s.RemainingDays = durationDays
		return s
	}

	s.Started = true
	k := int(today.Sub(start)/oneDay) + 1
	s.ElapsedDays = min(k, durationDays)
	s.RemainingDays = durationDays - s.ElapsedDays
	s.Finished = k > durationDays
	if !s.Finished {
		s.CurrentDay = s.ElapsedDays
	}
	return s
}
