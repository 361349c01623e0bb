package model

import (
	"testing"
	"time"
)

func TestDueAtMinuteGranularity(t *testing.T) {
	task := Task{ID: "a", Title: "t", Date: "2026-08-31", Time: "09:00"}
	at := func(h, m int) time.Time {
		return time.Date(2026, 8, 31, h, m, 30, 0, time.Local)
	}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact minute", at(9, 0), true},
		{"one minute early", at(8, 59), false},
		{"one minute late", at(9, 1), false},
		{"wrong day", time.Date(2026, 9, 1, 9, 0, 0, 0, time.Local), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := task.DueAt(tc.now); got != tc.want {
				t.Errorf("DueAt(%v) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestDueAtMalformedSchedule(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.Local)

	cases := []Task{
		{Date: "31/08/2026", Time: "09:00"},
		{Date: "2026-08-31", Time: "9am"},
		{Date: "", Time: ""},
		{Date: "2026-13-99", Time: "09:00"},
	}
	for _, task := range cases {
		if task.DueAt(now) {
			t.Errorf("malformed schedule %q %q must never match", task.Date, task.Time)
		}
	}
}

func TestApplyDefaults(t *testing.T) {
	task := Task{ID: "a", Title: "t"}
	task.ApplyDefaults()

	if task.Priority != PriorityMedium {
		t.Errorf("expected priority medium, got %q", task.Priority)
	}
	if task.CreatedAt == 0 {
		t.Errorf("expected createdAt defaulted")
	}

	task.Priority = PriorityHigh
	task.ApplyDefaults()
	if task.Priority != PriorityHigh {
		t.Errorf("valid priority must be kept, got %q", task.Priority)
	}
}

func TestNewTaskGeneratesIdentity(t *testing.T) {
	a := NewTask("one", "2026-08-31", "09:00", "")
	b := NewTask("two", "2026-08-31", "09:00", "low")

	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Priority != PriorityMedium {
		t.Errorf("missing priority must default to medium")
	}
	if b.Priority != PriorityLow {
		t.Errorf("explicit priority must be kept, got %q", b.Priority)
	}
}
