package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facebookgo/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/platform"
	"github.com/Veraticus/smsledger/internal/testutil"
)

type fakeReconciler struct {
	startErr error
	onStart  func(ctx context.Context) error
	starts   int
	stops    int
}

func (r *fakeReconciler) StartMonitoring(ctx context.Context) error {
	r.starts++
	if r.onStart != nil {
		return r.onStart(ctx)
	}
	return r.startErr
}

func (r *fakeReconciler) StopMonitoring(context.Context) error {
	r.stops++
	return nil
}

func newTestManager(t *testing.T) (*Manager, *platform.Fake, *clock.Mock) {
	t.Helper()
	caps := platform.NewFake()
	mock := clock.NewMock()
	m, err := New(Config{Store: testutil.SetupTestDB(t), Prober: caps, Clock: mock})
	require.NoError(t, err)
	return m, caps, mock
}

func TestGetSettingsDefaults(t *testing.T) {
	m, _, _ := newTestManager(t)

	got, err := m.GetSettings(context.Background())

	require.NoError(t, err)
	assert.Equal(t, model.DefaultMonitorSettings(), got)
	assert.False(t, got.Enabled)
	assert.Equal(t, 30, got.PopupDurationSeconds)
	assert.True(t, got.UseOverlay)
	assert.Equal(t, "INR", got.Currency)
}

func TestUpdateSettings(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	s := model.DefaultMonitorSettings()
	s.TrustedSenders = []string{"HDFCBK", "hdfcbk", " MPESA "}
	s.Currency = "kes"
	s.PopupDurationSeconds = 45

	saved, err := m.UpdateSettings(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"HDFCBK", "MPESA"}, saved.TrustedSenders)

	got, err := m.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Equal(t, "KES", got.Currency)
	assert.Equal(t, 45*time.Second, got.PopupDuration())
}

func TestUpdateSettingsValidation(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	s := model.DefaultMonitorSettings()
	s.PopupDurationSeconds = 2

	_, err := m.UpdateSettings(ctx, s)
	assert.ErrorIs(t, err, model.ErrInvalidSettings)

	got, err := m.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPopupDurationSeconds, got.PopupDurationSeconds, "invalid settings are not stored")
}

func TestEnableStartsMonitoring(t *testing.T) {
	m, _, _ := newTestManager(t)
	r := &fakeReconciler{}
	m.SetReconciler(r)
	ctx := context.Background()

	s := model.DefaultMonitorSettings()
	s.Enabled = true
	_, err := m.UpdateSettings(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, r.starts)

	// Saving again without toggling does not restart.
	_, err = m.UpdateSettings(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, r.starts)

	s.Enabled = false
	_, err = m.UpdateSettings(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, r.stops)
}

func TestEnableFailureReverts(t *testing.T) {
	tests := []struct {
		startErr error
		name     string
	}{
		{name: "permission denied", startErr: common.ErrPermissionDenied},
		{name: "other failure", startErr: errors.New("source unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t)
			m.SetReconciler(&fakeReconciler{startErr: tt.startErr})
			ctx := context.Background()

			s := model.DefaultMonitorSettings()
			s.Enabled = true
			saved, err := m.UpdateSettings(ctx, s)

			assert.ErrorIs(t, err, common.ErrPermissionDenied)
			assert.False(t, saved.Enabled)

			got, err := m.GetSettings(ctx)
			require.NoError(t, err)
			assert.False(t, got.Enabled, "enabled flag reverted in storage")
		})
	}
}

func TestReconcilerMayRequestPermissions(t *testing.T) {
	m, caps, _ := newTestManager(t)
	caps.Set(func(f *platform.Fake) { f.SMSOnRequest = model.PermissionDenied })

	m.SetReconciler(&fakeReconciler{onStart: func(ctx context.Context) error {
		status, err := m.RequestSMSPermission(ctx)
		if err != nil {
			return err
		}
		if status != model.PermissionGranted {
			return common.ErrPermissionDenied
		}
		return nil
	}})

	s := model.DefaultMonitorSettings()
	s.Enabled = true

	done := make(chan error, 1)
	go func() {
		_, err := m.UpdateSettings(context.Background(), s)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, common.ErrPermissionDenied)
	case <-time.After(5 * time.Second):
		t.Fatal("UpdateSettings deadlocked")
	}

	state, err := m.PermissionState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PermissionDenied, state.SMS)
	assert.Equal(t, 1, state.RequestCount)
	require.NotNil(t, state.LastDeniedAt)
}

func TestRefreshCooldown(t *testing.T) {
	m, caps, mock := newTestManager(t)
	ctx := context.Background()

	state, err := m.PermissionState(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionNotRequested, state.SMS)

	state, err = m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionGranted, state.SMS)
	assert.Equal(t, model.PermissionGranted, state.Overlay)
	assert.Equal(t, mock.Now(), state.LastCheckedAt)

	caps.Set(func(f *platform.Fake) {
		f.SMS = model.PermissionDenied
		f.Overlay = false
	})

	mock.Add(30 * time.Second)
	state, err = m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionGranted, state.SMS, "cached inside the cooldown")

	mock.Add(30 * time.Second)
	state, err = m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionDenied, state.SMS)
	assert.Equal(t, model.PermissionDenied, state.Overlay)
}

func TestRefreshProbeError(t *testing.T) {
	m, caps, _ := newTestManager(t)
	caps.Set(func(f *platform.Fake) { f.CheckErr = errors.New("probe failed") })

	_, err := m.Refresh(context.Background())

	assert.Error(t, err)
}

func TestRequestPermissions(t *testing.T) {
	m, caps, mock := newTestManager(t)
	ctx := context.Background()

	status, err := m.RequestSMSPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionGranted, status)

	caps.Set(func(f *platform.Fake) { f.OverlayOnRequest = false })
	mock.Add(time.Minute)
	status, err = m.RequestOverlayPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.PermissionDenied, status)

	state, err := m.PermissionState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, state.RequestCount)
	assert.Equal(t, model.PermissionGranted, state.SMS)
	assert.Equal(t, model.PermissionDenied, state.Overlay)
	require.NotNil(t, state.LastDeniedAt)
	assert.True(t, state.LastDeniedAt.Equal(mock.Now()))
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestResume(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled does not start", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		r := &fakeReconciler{}
		m.SetReconciler(r)

		started, err := m.Resume(ctx)

		require.NoError(t, err)
		assert.False(t, started)
		assert.Zero(t, r.starts)
	})

	t.Run("enabled starts", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		s := model.DefaultMonitorSettings()
		s.Enabled = true
		_, err := m.UpdateSettings(ctx, s)
		require.NoError(t, err)

		r := &fakeReconciler{}
		m.SetReconciler(r)
		started, err := m.Resume(ctx)

		require.NoError(t, err)
		assert.True(t, started)
		assert.Equal(t, 1, r.starts)
	})

	t.Run("failed start reverts the stored flag", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		s := model.DefaultMonitorSettings()
		s.Enabled = true
		_, err := m.UpdateSettings(ctx, s)
		require.NoError(t, err)

		m.SetReconciler(&fakeReconciler{startErr: errors.New("source unavailable")})
		started, err := m.Resume(ctx)

		assert.ErrorIs(t, err, common.ErrPermissionDenied)
		assert.False(t, started)
		got, err := m.GetSettings(ctx)
		require.NoError(t, err)
		assert.False(t, got.Enabled)
	})
}
