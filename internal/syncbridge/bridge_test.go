package syncbridge

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"chimed/internal/model"
	"chimed/internal/store"
)

type fakeRemote struct {
	mu     sync.Mutex
	saves  [][]model.Task
	stored []model.Task
	has    bool
	pushed chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{pushed: make(chan struct{}, 16)}
}

func (f *fakeRemote) SaveSnapshot(ctx context.Context, deviceID string, tasks []model.Task) error {
	f.mu.Lock()
	f.saves = append(f.saves, tasks)
	f.mu.Unlock()
	f.pushed <- struct{}{}
	return nil
}

func (f *fakeRemote) LoadSnapshot(ctx context.Context) ([]model.Task, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored, f.has, nil
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func task(id, title string) model.Task {
	return model.Task{ID: id, Title: title, Date: "2026-08-31", Time: "09:00"}
}

func newTestBridge(t *testing.T, remote RemoteStore) (*Bridge, *store.Store, context.CancelFunc) {
	t.Helper()
	taskStore := store.NewStore()
	b := NewBridge(taskStore, remote, nil, "chimed:sync", "device-1", 30*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)
	return b, taskStore, cancel
}

func TestDebouncedPushCoalescesBursts(t *testing.T) {
	remote := newFakeRemote()
	_, taskStore, cancel := newTestBridge(t, remote)
	defer cancel()

	// a burst of changes inside the quiet period
	taskStore.Add(task("a", "one"))
	time.Sleep(5 * time.Millisecond)
	taskStore.Add(task("b", "two"))
	time.Sleep(5 * time.Millisecond)
	taskStore.Add(task("c", "three"))

	select {
	case <-remote.pushed:
	case <-time.After(time.Second):
		t.Fatalf("expected a push after the quiet period")
	}

	if got := remote.saveCount(); got != 1 {
		t.Fatalf("burst must coalesce into one push, got %d", got)
	}
	remote.mu.Lock()
	pushed := remote.saves[0]
	remote.mu.Unlock()
	if len(pushed) != 3 {
		t.Fatalf("push must carry the final list, got %d tasks", len(pushed))
	}

	// a later change starts a fresh debounce window
	taskStore.Add(task("d", "four"))
	select {
	case <-remote.pushed:
	case <-time.After(time.Second):
		t.Fatalf("expected a second push")
	}
	if got := remote.saveCount(); got != 2 {
		t.Fatalf("expected 2 pushes total, got %d", got)
	}
}

func TestInboundReplacementIsNotEchoed(t *testing.T) {
	remote := newFakeRemote()
	b, taskStore, cancel := newTestBridge(t, remote)
	defer cancel()

	body, err := json.Marshal(envelope{
		DeviceID: "device-2",
		Tasks:    []model.Task{task("x", "from device 2")},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b.apply(string(body))

	got := taskStore.Snapshot()
	if len(got) != 1 || got[0].ID != "x" {
		t.Fatalf("replacement not applied: %+v", got)
	}

	// the replacement triggered the change signal, but the push loop must
	// recognize it and stay quiet
	select {
	case <-remote.pushed:
		t.Fatalf("inbound replacement was echoed back to the remote store")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestInboundFromSelfIsSkipped(t *testing.T) {
	remote := newFakeRemote()
	b, taskStore, cancel := newTestBridge(t, remote)
	defer cancel()

	taskStore.ReplaceAll([]model.Task{task("a", "local")})
	version := taskStore.Version()

	body, _ := json.Marshal(envelope{
		DeviceID: "device-1", // our own device id
		Tasks:    []model.Task{task("z", "echo")},
	})
	b.apply(string(body))

	if taskStore.Version() != version {
		t.Fatalf("own event must not touch the store")
	}
	if got := taskStore.Snapshot(); got[0].ID != "a" {
		t.Fatalf("own event replaced the list: %+v", got)
	}
}

func TestMalformedInboundIsDropped(t *testing.T) {
	remote := newFakeRemote()
	b, taskStore, cancel := newTestBridge(t, remote)
	defer cancel()

	taskStore.ReplaceAll([]model.Task{task("a", "local")})
	version := taskStore.Version()

	b.apply("{not json")

	if taskStore.Version() != version {
		t.Fatalf("malformed event must not touch the store")
	}
}

func TestRestoreReplacesLocalList(t *testing.T) {
	remote := newFakeRemote()
	remote.stored = []model.Task{task("r", "remote task")}
	remote.has = true

	taskStore := store.NewStore()
	taskStore.ReplaceAll([]model.Task{task("l", "local task")})
	b := NewBridge(taskStore, remote, nil, "chimed:sync", "device-1", time.Second, zap.NewNop())

	b.Restore(context.Background())

	got := taskStore.Snapshot()
	if len(got) != 1 || got[0].ID != "r" {
		t.Fatalf("restore must replace the local list, got %+v", got)
	}
}

func TestRestoreWithoutSnapshotKeepsLocal(t *testing.T) {
	remote := newFakeRemote()

	taskStore := store.NewStore()
	taskStore.ReplaceAll([]model.Task{task("l", "local task")})
	b := NewBridge(taskStore, remote, nil, "chimed:sync", "device-1", time.Second, zap.NewNop())

	b.Restore(context.Background())

	got := taskStore.Snapshot()
	if len(got) != 1 || got[0].ID != "l" {
		t.Fatalf("missing remote snapshot must keep local state, got %+v", got)
	}
}
