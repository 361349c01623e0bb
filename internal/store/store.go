package store

import (
	"sync"

	"chimed/internal/model"
)

// Patch describes a partial task update. Nil fields are left untouched.
type Patch struct {
	Title     *string
	Date      *string
	Time      *string
	Priority  *string
	Completed *bool
}

// Store is the in-memory ordered task collection. It is the scanner's sole
// data source; a separate layer persists it on change.
type Store struct {
	mu      sync.RWMutex
	tasks   []model.Task
	version uint64

	// coalescing change signals, one buffered channel per subscriber so
	// mutations never block
	subs []chan struct{}
}

func NewStore() *Store {
	return &Store{}
}

// Subscribe returns a coalescing signal channel: at least one receive is
// guaranteed after any mutation, bursts collapse into a single signal.
// Each subscriber gets its own channel.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// Version returns the current mutation counter.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy of the task list in stored order.
func (s *Store) Snapshot() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// ReplaceAll swaps in a whole new collection, preserving the given order.
// Missing fields are defaulted. Returns the new version so callers that
// originated the replacement can recognize it in the change stream.
func (s *Store) ReplaceAll(tasks []model.Task) uint64 {
	s.mu.Lock()
	next := make([]model.Task, len(tasks))
	copy(next, tasks)
	for i := range next {
		next[i].ApplyDefaults()
	}
	s.tasks = next
	s.version++
	v := s.version
	s.mu.Unlock()

	s.signal()
	return v
}

// Add appends a task to the end of the collection.
func (s *Store) Add(t model.Task) {
	t.ApplyDefaults()
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.version++
	s.mu.Unlock()

	s.signal()
}

// Update applies a patch to one task. Changing the schedule (date or time)
// clears the notified flag so the rescheduled instant alerts again.
// Relative order of all tasks is preserved.
func (s *Store) Update(id string, p Patch) (model.Task, bool) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Task{}, false
	}

	t := &s.tasks[idx]
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Date != nil && *p.Date != t.Date {
		t.Date = *p.Date
		t.Notified = false
	}
	if p.Time != nil && *p.Time != t.Time {
		t.Time = *p.Time
		t.Notified = false
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.ApplyDefaults()
	updated := *t
	s.version++
	s.mu.Unlock()

	s.signal()
	return updated, true
}

// Delete removes a task, preserving the order of the rest.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	s.version++
	s.mu.Unlock()

	s.signal()
	return true
}

// Reorder rearranges the collection to match the given id order. Ids not
// present in the store are ignored; stored tasks missing from the list keep
// their relative order at the end.
func (s *Store) Reorder(ids []string) {
	s.mu.Lock()
	byID := make(map[string]int, len(s.tasks))
	for i, t := range s.tasks {
		byID[t.ID] = i
	}

	next := make([]model.Task, 0, len(s.tasks))
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		if i, ok := byID[id]; ok && !taken[id] {
			next = append(next, s.tasks[i])
			taken[id] = true
		}
	}
	for _, t := range s.tasks {
		if !taken[t.ID] {
			next = append(next, t)
		}
	}
	s.tasks = next
	s.version++
	s.mu.Unlock()

	s.signal()
}

// MarkDue flips notified (and optionally completed) for every listed task in
// a single locked update, so simultaneously due tasks never lose a
// transition to interleaved writes.
func (s *Store) MarkDue(ids []string, complete bool) {
	if len(ids) == 0 {
		return
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	s.mu.Lock()
	touched := false
	for i := range s.tasks {
		if !want[s.tasks[i].ID] {
			continue
		}
		s.tasks[i].Notified = true
		if complete {
			s.tasks[i].Completed = true
		}
		touched = true
	}
	if touched {
		s.version++
	}
	s.mu.Unlock()

	if touched {
		s.signal()
	}
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) signal() {
	s.mu.RLock()
	subs := s.subs
	s.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
