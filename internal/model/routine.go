package model

import (
	"sort"
	"strings"
	"time"
)

type RepeatKind string

const (
	RepeatDaily  RepeatKind = "daily"
	RepeatWeekly RepeatKind = "weekly"
)

func (k RepeatKind) IsValid() bool {
	return k == RepeatDaily || k == RepeatWeekly
}

// Routine is a recurring task definition: repeat daily, or weekly on the
// listed weekdays (0=Sunday .. 6=Saturday). LastMaterialized records the
// calendar date a task was last spawned from this definition.
type Routine struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Text             string     `json:"text"`
	Repeat           RepeatKind `json:"repeat"`
	Weekdays         []int      `json:"weekdays,omitempty"`
	LastMaterialized *time.Time `json:"last_materialized,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// DueOn reports whether the routine's recurrence rule matches the given day.
func (r Routine) DueOn(day time.Time) bool {
	switch r.Repeat {
	case RepeatDaily:
		return true
	case RepeatWeekly:
		weekday := int(day.Weekday())
		for _, d := range r.Weekdays {
			if d == weekday {
				return true
			}
		}
	}
	return false
}

// MaterializedOn reports whether a task has already been spawned from this
// routine on the given calendar date. Comparison is by date, not timestamp,
// so repeated runs within one day agree.
func (r Routine) MaterializedOn(day time.Time) bool {
	return r.LastMaterialized != nil && SameDay(*r.LastMaterialized, day)
}

var weekdayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// RepeatSummary renders the recurrence rule for display: "Daily" for daily
// routines, the selected weekday names in ascending index order joined by
// "·" for weekly ones, and "None" when no valid rule is set.
func (r Routine) RepeatSummary() string {
	if r.Repeat == RepeatDaily {
		return "Daily"
	}
	if r.Repeat == RepeatWeekly && len(r.Weekdays) > 0 {
		days := make([]int, len(r.Weekdays))
		copy(days, r.Weekdays)
		sort.Ints(days)

		names := make([]string, 0, len(days))
		for _, d := range days {
			if d >= 0 && d < len(weekdayNames) {
				names = append(names, weekdayNames[d])
			}
		}
		return strings.Join(names, "·")
	}
	return "None"
}
