package store

import (
	"sync"

	"chimed/internal/model"
)

// SettingsStore holds the alert settings and notifies an optional hook on
// change (persistence, decoded-audio cache invalidation).
type SettingsStore struct {
	mu       sync.RWMutex
	settings model.AlertSettings
	onChange func(prev, next model.AlertSettings)
}

func NewSettingsStore(initial model.AlertSettings) *SettingsStore {
	initial.ApplyDefaults()
	return &SettingsStore{settings: initial}
}

// OnChange registers the change hook. Called outside the store lock.
func (s *SettingsStore) OnChange(fn func(prev, next model.AlertSettings)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *SettingsStore) Get() model.AlertSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *SettingsStore) Set(next model.AlertSettings) {
	next.ApplyDefaults()

	s.mu.Lock()
	prev := s.settings
	s.settings = next
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook(prev, next)
	}
}
