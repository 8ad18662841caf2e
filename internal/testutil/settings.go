package testutil

import (
	"context"
	"sync"

	"github.com/Veraticus/smsledger/internal/model"
)

// StaticSettings serves settings from memory.
type StaticSettings struct {
	Err      error
	settings model.MonitorSettings
	mu       sync.Mutex
}

// NewStaticSettings returns enabled defaults after applying mutate.
func NewStaticSettings(mutate func(*model.MonitorSettings)) *StaticSettings {
	s := model.DefaultMonitorSettings()
	s.Enabled = true
	if mutate != nil {
		mutate(&s)
	}
	return &StaticSettings{settings: s}
}

// GetSettings returns the current settings or Err.
func (s *StaticSettings) GetSettings(context.Context) (model.MonitorSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return model.MonitorSettings{}, s.Err
	}
	return s.settings, nil
}

// Update changes the settings in place.
func (s *StaticSettings) Update(mutate func(*model.MonitorSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.settings)
}
