package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Layouts for the task schedule fields. Times are local, minute precision.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Task struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:mm
	Priority  string `json:"priority"`
	Completed bool   `json:"completed"`
	Notified  bool   `json:"notified,omitempty"`
	CreatedAt int64  `json:"createdAt"` // epoch millis, "created" sort order
}

// NewTask builds a task with generated ID and creation timestamp.
func NewTask(title, date, timeOfDay, priority string) Task {
	t := Task{
		ID:        uuid.NewString(),
		Title:     title,
		Date:      date,
		Time:      timeOfDay,
		Priority:  priority,
		CreatedAt: time.Now().UnixMilli(),
	}
	t.ApplyDefaults()
	return t
}

// ApplyDefaults fills fields that older snapshots may be missing.
func (t *Task) ApplyDefaults() {
	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		t.Priority = PriorityMedium
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
	}
}

// ScheduleValid reports whether the date and time fields parse.
// Tasks with malformed schedules are never matched by the scanner.
func (t *Task) ScheduleValid() bool {
	if _, err := time.ParseInLocation(DateLayout, t.Date, time.Local); err != nil {
		return false
	}
	if _, err := time.ParseInLocation(TimeLayout, t.Time, time.Local); err != nil {
		return false
	}
	return true
}

// DueAt reports whether the task is due at the given instant,
// compared at minute granularity in local time.
func (t *Task) DueAt(now time.Time) bool {
	if !t.ScheduleValid() {
		return false
	}
	return t.Date == now.Format(DateLayout) && t.Time == now.Format(TimeLayout)
}
