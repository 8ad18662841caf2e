package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/model"
)

var (
	_ Capabilities = (*Terminal)(nil)
	_ Capabilities = (*Fake)(nil)
)

func TestTerminalLockFile(t *testing.T) {
	ctx := context.Background()
	lockFile := filepath.Join(t.TempDir(), "screen.lock")
	term := NewTerminal(TerminalConfig{LockFile: lockFile})

	locked, err := term.IsDeviceLocked(ctx)
	require.NoError(t, err)
	assert.False(t, locked, "missing lock file means unlocked")

	tests := []struct {
		name        string
		content     string
		wantLocked  bool
		wantOverlay bool
	}{
		{name: "empty", content: "", wantLocked: false, wantOverlay: false},
		{name: "locked", content: "locked\n", wantLocked: true, wantOverlay: false},
		{name: "overlay", content: "  OVERLAY  \n", wantLocked: false, wantOverlay: true},
		{name: "both", content: "overlay\nlocked\n", wantLocked: true, wantOverlay: true},
		{name: "unrelated text", content: "unlocked\n", wantLocked: false, wantOverlay: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(lockFile, []byte(tt.content), 0o600))

			locked, err := term.IsDeviceLocked(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLocked, locked)

			busy, err := term.HasOtherOverlayActive(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOverlay, busy)
		})
	}
}

func TestTerminalOverlayRequiresTTY(t *testing.T) {
	out, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = out.Close() }()

	term := NewTerminal(TerminalConfig{Output: out})

	ok, err := term.HasOverlayPermission(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "a regular file is not a terminal")

	status, err := term.RequestOverlayPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PermissionDenied, status)
}

func TestTerminalSMSPermission(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		configured model.PermissionStatus
		want       model.PermissionStatus
	}{
		{configured: "", want: model.PermissionGranted},
		{configured: model.PermissionUndetermined, want: model.PermissionGranted},
		{configured: model.PermissionGranted, want: model.PermissionGranted},
		{configured: model.PermissionDenied, want: model.PermissionDenied},
	}

	for _, tt := range tests {
		t.Run(string(tt.configured), func(t *testing.T) {
			term := NewTerminal(TerminalConfig{SMSPermission: tt.configured})
			got, err := term.RequestSMSPermission(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			current, _ := term.SMSPermission(ctx)
			assert.Equal(t, tt.want, current)
		})
	}
}

func TestFake(t *testing.T) {
	ctx := context.Background()
	f := NewFake()

	ok, err := f.HasOverlayPermission(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	f.Set(func(f *Fake) {
		f.OverlayOnRequest = false
		f.SMSOnRequest = model.PermissionDenied
	})
	status, _ := f.RequestOverlayPermission(ctx)
	assert.Equal(t, model.PermissionDenied, status)
	sms, _ := f.RequestSMSPermission(ctx)
	assert.Equal(t, model.PermissionDenied, sms)
	assert.Equal(t, 1, f.SMSRequests)
	assert.Equal(t, 1, f.OverlayRequests)

	boom := errors.New("probe failed")
	f.Set(func(f *Fake) { f.CheckErr = boom })
	_, err = f.IsDeviceLocked(ctx)
	assert.ErrorIs(t, err, boom)
}
