package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
)

type startCall struct {
	settings model.AlertSettings
	message  string
}

type fakePlayer struct {
	mu    sync.Mutex
	calls []startCall
}

func (f *fakePlayer) Start(settings model.AlertSettings, message string, onEnd func()) {
	f.mu.Lock()
	f.calls = append(f.calls, startCall{settings: settings, message: message})
	f.mu.Unlock()
}

func (f *fakePlayer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeNotifier struct {
	mu    sync.Mutex
	tasks []model.Task
}

func (f *fakeNotifier) NotifyDue(ctx context.Context, task model.Task) {
	f.mu.Lock()
	f.tasks = append(f.tasks, task)
	f.mu.Unlock()
}

func newTestScanner(tasks []model.Task, settings model.AlertSettings) (*Scanner, *store.Store, *fakePlayer, *fakeNotifier, *time.Time) {
	taskStore := store.NewStore()
	taskStore.ReplaceAll(tasks)
	settingsStore := store.NewSettingsStore(settings)
	player := &fakePlayer{}
	notifier := &fakeNotifier{}

	now := time.Date(2026, 8, 31, 9, 0, 15, 0, time.Local)
	clock := &now

	s := NewScanner(taskStore, settingsStore, player, notifier, zap.NewNop())
	s.now = func() time.Time { return *clock }
	return s, taskStore, player, notifier, clock
}

func defaults() model.AlertSettings {
	return model.DefaultAlertSettings()
}

func TestTickFiresDueTaskExactlyOnce(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "stand-up", Date: "2026-08-31", Time: "09:00"},
	}
	s, taskStore, player, notifier, clock := newTestScanner(tasks, defaults())

	s.Tick(context.Background())

	got, _ := taskStore.Get("a")
	if !got.Notified {
		t.Fatalf("due task must be marked notified")
	}
	if got.Completed {
		t.Fatalf("autoComplete off must leave the task incomplete")
	}
	if player.count() != 1 {
		t.Fatalf("expected 1 alert, got %d", player.count())
	}
	notifier.mu.Lock()
	notified := len(notifier.tasks)
	notifier.mu.Unlock()
	if notified != 1 {
		t.Fatalf("expected 1 platform notification, got %d", notified)
	}

	// a second tick in the same minute must not re-trigger
	s.Tick(context.Background())
	if player.count() != 1 {
		t.Fatalf("repeated tick re-triggered the alert")
	}

	// nor a tick one minute later
	*clock = clock.Add(time.Minute)
	s.Tick(context.Background())
	if player.count() != 1 {
		t.Fatalf("later tick re-triggered an already notified task")
	}
}

func TestTickMatchesExactMinuteOnly(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "t", Date: "2026-08-31", Time: "09:00"},
	}

	t.Run("one minute early", func(t *testing.T) {
		s, _, player, _, clock := newTestScanner(tasks, defaults())
		*clock = time.Date(2026, 8, 31, 8, 59, 59, 0, time.Local)
		s.Tick(context.Background())
		if player.count() != 0 {
			t.Fatalf("task matched a minute early")
		}
	})

	t.Run("one minute late", func(t *testing.T) {
		s, _, player, _, clock := newTestScanner(tasks, defaults())
		*clock = time.Date(2026, 8, 31, 9, 1, 0, 0, time.Local)
		s.Tick(context.Background())
		if player.count() != 0 {
			t.Fatalf("an unnotified task must not match a later minute")
		}
	})
}

func TestTickAutoComplete(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "t", Date: "2026-08-31", Time: "09:00"},
	}
	settings := defaults()
	settings.AutoComplete = true
	s, taskStore, _, _, _ := newTestScanner(tasks, settings)

	s.Tick(context.Background())

	got, _ := taskStore.Get("a")
	if !got.Notified || !got.Completed {
		t.Fatalf("autoComplete must set both flags, got notified=%v completed=%v",
			got.Notified, got.Completed)
	}
}

func TestTickSimultaneousDueTasks(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "first", Date: "2026-08-31", Time: "09:00"},
		{ID: "b", Title: "second", Date: "2026-08-31", Time: "09:00"},
		{ID: "c", Title: "other", Date: "2026-08-31", Time: "10:00"},
	}
	s, taskStore, player, notifier, _ := newTestScanner(tasks, defaults())

	s.Tick(context.Background())

	// both transitions land, none is lost
	for _, id := range []string{"a", "b"} {
		got, _ := taskStore.Get(id)
		if !got.Notified {
			t.Fatalf("task %s lost its notified transition", id)
		}
	}
	if got, _ := taskStore.Get("c"); got.Notified {
		t.Fatalf("task c is not due yet")
	}

	// the player is invoked per task; it keeps one session, so the last
	// call owns the audible alert
	if player.count() != 2 {
		t.Fatalf("expected 2 player starts, got %d", player.count())
	}
	player.mu.Lock()
	last := player.calls[1].message
	player.mu.Unlock()
	if last != "second" {
		t.Fatalf("expected the last-processed task to own the session, got %q", last)
	}

	notifier.mu.Lock()
	notified := len(notifier.tasks)
	notifier.mu.Unlock()
	if notified != 2 {
		t.Fatalf("every due task gets its notification, got %d", notified)
	}
}

func TestTickSkipsCompletedAndMalformed(t *testing.T) {
	tasks := []model.Task{
		{ID: "done", Title: "done", Date: "2026-08-31", Time: "09:00", Completed: true},
		{ID: "bad-date", Title: "b", Date: "31.08.2026", Time: "09:00"},
		{ID: "bad-time", Title: "c", Date: "2026-08-31", Time: "nine"},
	}
	s, taskStore, player, _, _ := newTestScanner(tasks, defaults())

	// must not panic on the malformed schedules
	s.Tick(context.Background())

	if player.count() != 0 {
		t.Fatalf("nothing should have fired, got %d starts", player.count())
	}
	for _, id := range []string{"bad-date", "bad-time"} {
		if got, _ := taskStore.Get(id); got.Notified {
			t.Fatalf("malformed task %s must never be notified", id)
		}
	}
}

func TestTickScansReplacedCollection(t *testing.T) {
	s, taskStore, player, _, _ := newTestScanner(nil, defaults())

	s.Tick(context.Background())
	if player.count() != 0 {
		t.Fatalf("empty store fired an alert")
	}

	// a whole-list replacement lands between ticks; the next tick simply
	// scans the new collection
	taskStore.ReplaceAll([]model.Task{
		{ID: "x", Title: "from another device", Date: "2026-08-31", Time: "09:00"},
	})
	s.Tick(context.Background())

	if player.count() != 1 {
		t.Fatalf("replaced collection was not scanned, got %d starts", player.count())
	}
}

func TestTickPassesCurrentSettings(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Title: "t", Date: "2026-08-31", Time: "09:00"},
	}
	settings := defaults()
	settings.SoundMode = model.SoundModeTTS
	settings.VoiceURI = "en-GB"
	s, _, player, _, _ := newTestScanner(tasks, settings)

	s.Tick(context.Background())

	player.mu.Lock()
	call := player.calls[0]
	player.mu.Unlock()
	if call.settings.SoundMode != model.SoundModeTTS || call.settings.VoiceURI != "en-GB" {
		t.Fatalf("player must receive the live settings, got %+v", call.settings)
	}
	if call.message != "t" {
		t.Fatalf("player must receive the task title, got %q", call.message)
	}
}
