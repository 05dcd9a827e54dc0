package model

import (
	"sort"
	"time"
)

type Task struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Text          string    `json:"text"`
	Done          bool      `json:"done"`
	FromRoutine   bool      `json:"from_routine"`
	ScheduledDate time.Time `json:"scheduled_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TaskListParams struct {
	UserID string
	Done   *bool
}

// DateOf truncates t to midnight in t's location, keeping only the
// calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date,
// regardless of time-of-day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TaskGroup is one day's worth of tasks in the grouped view.
type TaskGroup struct {
	Date  time.Time `json:"date"`
	Tasks []Task    `json:"tasks"`
}

// GroupTasksByDate derives the day-grouped view from the authoritative task
// list: tasks bucketed by scheduled date, newest day first, order within a
// day preserved. The input is never modified.
func GroupTasksByDate(tasks []Task) []TaskGroup {
	buckets := make(map[time.Time][]Task)
	for _, t := range tasks {
		key := DateOf(t.ScheduledDate)
		buckets[key] = append(buckets[key], t)
	}

	dates := make([]time.Time, 0, len(buckets))
	for d := range buckets {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	groups := make([]TaskGroup, 0, len(dates))
	for _, d := range dates {
		groups = append(groups, TaskGroup{Date: d, Tasks: buckets[d]})
	}
	return groups
}
