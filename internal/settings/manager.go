// Package settings persists monitor settings and permission state, and
// reconciles monitoring with the enabled flag.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"golang.org/x/time/rate"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// Storage keys.
const (
	SettingsKey   = "sms_monitor_settings"
	PermissionKey = "sms_permission_state"
)

// DefaultRefreshCooldown bounds how often Refresh probes the platform.
const DefaultRefreshCooldown = 60 * time.Second

// PermissionProber reads and requests OS permissions.
type PermissionProber interface {
	SMSPermission(ctx context.Context) (model.PermissionStatus, error)
	OverlayPermission(ctx context.Context) (model.PermissionStatus, error)
	RequestSMSPermission(ctx context.Context) (model.PermissionStatus, error)
	RequestOverlayPermission(ctx context.Context) (model.PermissionStatus, error)
}

// Reconciler starts and stops message monitoring.
type Reconciler interface {
	StartMonitoring(ctx context.Context) error
	StopMonitoring(ctx context.Context) error
}

// Config holds the dependencies of a Manager.
type Config struct {
	Store    service.KeyValueStore
	Prober   PermissionProber
	Clock    clock.Clock
	Cooldown time.Duration
}

// Manager is the single owner of settings and permission state.
type Manager struct {
	store      service.KeyValueStore
	prober     PermissionProber
	clock      clock.Clock
	limiter    *rate.Limiter
	reconciler Reconciler
	mu         sync.Mutex
}

// New creates a Manager.
func New(cfg Config) (*Manager, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: key-value store is required", common.ErrInvalidInput)
	}
	if cfg.Prober == nil {
		return nil, fmt.Errorf("%w: permission prober is required", common.ErrInvalidInput)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultRefreshCooldown
	}

	return &Manager{
		store:   cfg.Store,
		prober:  cfg.Prober,
		clock:   cfg.Clock,
		limiter: rate.NewLimiter(rate.Every(cfg.Cooldown), 1),
	}, nil
}

// SetReconciler wires the component that starts and stops monitoring.
// It is set after construction because the monitor reads settings too.
func (m *Manager) SetReconciler(r Reconciler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconciler = r
}

// GetSettings returns the stored settings, or defaults when none exist.
func (m *Manager) GetSettings(ctx context.Context) (model.MonitorSettings, error) {
	settings := model.DefaultMonitorSettings()
	found, err := m.load(ctx, SettingsKey, &settings)
	if err != nil {
		return model.MonitorSettings{}, err
	}
	if !found {
		return settings, nil
	}
	return settings.Normalize(), nil
}

// UpdateSettings validates and stores settings. Turning Enabled on starts
// monitoring; if that fails the stored flag is reverted and the error is
// returned wrapped in ErrPermissionDenied. Turning it off stops monitoring.
func (m *Manager) UpdateSettings(ctx context.Context, settings model.MonitorSettings) (model.MonitorSettings, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return model.MonitorSettings{}, err
	}

	m.mu.Lock()
	previous, err := m.GetSettings(ctx)
	if err == nil {
		err = m.save(ctx, SettingsKey, settings)
	}
	reconciler := m.reconciler
	m.mu.Unlock()
	if err != nil {
		return model.MonitorSettings{}, err
	}

	// The reconciler may request permissions through this manager, so it
	// runs without the lock held.
	if reconciler == nil || settings.Enabled == previous.Enabled {
		return settings, nil
	}

	if !settings.Enabled {
		if err := reconciler.StopMonitoring(ctx); err != nil {
			slog.Warn("Failed to stop monitoring", "error", err)
		}
		return settings, nil
	}

	return m.start(ctx, reconciler, settings)
}

// Resume starts monitoring for a new session when the stored settings are
// enabled. A failed start reverts the stored flag like UpdateSettings does.
// It reports whether monitoring was started.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	m.mu.Lock()
	settings, err := m.GetSettings(ctx)
	reconciler := m.reconciler
	m.mu.Unlock()
	if err != nil {
		return false, err
	}
	if !settings.Enabled {
		return false, nil
	}
	if reconciler == nil {
		return false, fmt.Errorf("%w: no monitor to resume", common.ErrInvalidInput)
	}
	if _, err := m.start(ctx, reconciler, settings); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) start(ctx context.Context, reconciler Reconciler, settings model.MonitorSettings) (model.MonitorSettings, error) {
	err := reconciler.StartMonitoring(ctx)
	if err == nil {
		return settings, nil
	}

	settings.Enabled = false
	m.mu.Lock()
	saveErr := m.save(ctx, SettingsKey, settings)
	m.mu.Unlock()
	if saveErr != nil {
		return settings, errors.Join(fmt.Errorf("failed to revert enabled flag: %w", saveErr), err)
	}
	if errors.Is(err, common.ErrPermissionDenied) {
		return settings, err
	}
	return settings, fmt.Errorf("%w: %w", common.ErrPermissionDenied, err)
}

// PermissionState returns the stored permission state.
func (m *Manager) PermissionState(ctx context.Context) (model.PermissionState, error) {
	state := model.DefaultPermissionState()
	if _, err := m.load(ctx, PermissionKey, &state); err != nil {
		return model.PermissionState{}, err
	}
	return state, nil
}

// Refresh probes the platform for current grants. Inside the cooldown it
// returns the cached state without probing.
func (m *Manager) Refresh(ctx context.Context) (model.PermissionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.PermissionState(ctx)
	if err != nil {
		return model.PermissionState{}, err
	}
	if !m.limiter.AllowN(m.clock.Now(), 1) {
		return state, nil
	}

	sms, err := m.prober.SMSPermission(ctx)
	if err != nil {
		return state, fmt.Errorf("failed to check message permission: %w", err)
	}
	overlay, err := m.prober.OverlayPermission(ctx)
	if err != nil {
		return state, fmt.Errorf("failed to check overlay permission: %w", err)
	}

	state.SMS = sms
	state.Overlay = overlay
	state.LastCheckedAt = m.clock.Now()
	if err := m.save(ctx, PermissionKey, state); err != nil {
		return state, err
	}
	return state, nil
}

// RequestSMSPermission asks the platform for message access.
func (m *Manager) RequestSMSPermission(ctx context.Context) (model.PermissionStatus, error) {
	return m.request(ctx, m.prober.RequestSMSPermission, func(s *model.PermissionState, status model.PermissionStatus) {
		s.SMS = status
	})
}

// RequestOverlayPermission asks the platform for popup access.
func (m *Manager) RequestOverlayPermission(ctx context.Context) (model.PermissionStatus, error) {
	return m.request(ctx, m.prober.RequestOverlayPermission, func(s *model.PermissionState, status model.PermissionStatus) {
		s.Overlay = status
	})
}

func (m *Manager) request(
	ctx context.Context,
	ask func(context.Context) (model.PermissionStatus, error),
	apply func(*model.PermissionState, model.PermissionStatus),
) (model.PermissionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.PermissionState(ctx)
	if err != nil {
		return model.PermissionUndetermined, err
	}

	status, err := ask(ctx)
	if err != nil {
		return model.PermissionUndetermined, fmt.Errorf("permission request failed: %w", err)
	}

	now := m.clock.Now()
	state.RequestCount++
	state.LastCheckedAt = now
	if status == model.PermissionDenied {
		state.LastDeniedAt = &now
	}
	apply(&state, status)

	if err := m.save(ctx, PermissionKey, state); err != nil {
		return status, err
	}
	return status, nil
}

// load decodes key into v. It reports false when the key is absent.
func (m *Manager) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := m.store.Get(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := m.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
