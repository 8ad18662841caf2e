package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(DataDir(), "smsledger.db"), cfg.Database.Path)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 60*time.Second, cfg.Permissions.Cooldown)
	assert.Equal(t, model.PermissionGranted, cfg.Platform.SMSPermission)
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.Identity().Complete())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SMSLEDGER_BACKEND_USER_ID", "env-user")

	v := newViper()
	v.Set("backend.url", "https://api.example.com/")
	v.Set("backend.account_id", "acct-9")
	v.Set("backend.default_category_id", "cat-misc")
	v.Set("retry.max_attempts", 5)
	v.Set("retry.base_delay", "250ms")
	v.Set("location", "Africa/Nairobi")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Backend.URL)
	identity := cfg.Identity()
	assert.Equal(t, "env-user", identity.UserID)
	assert.Equal(t, "acct-9", identity.AccountID)
	assert.Equal(t, "cat-misc", identity.DefaultCategoryID)
	assert.True(t, identity.Complete())

	opts := cfg.RetryOptions()
	assert.Equal(t, 5, opts.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, opts.InitialDelay)
	assert.InDelta(t, 2.0, opts.Multiplier, 0)
	assert.Equal(t, "Africa/Nairobi", cfg.Location.String())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "zero attempts", key: "retry.max_attempts", val: 0},
		{name: "negative delay", key: "retry.base_delay", val: "-1s"},
		{name: "unknown permission", key: "platform.sms_permission", val: "maybe"},
		{name: "unknown location", key: "location", val: "Mars/Olympus_Mons"},
		{name: "empty database path", key: "database.path", val: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SMSLEDGER_TEST_DIR", "/var/tmp")

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "~", want: home},
		{in: "~/data/db.sqlite", want: filepath.Join(home, "data/db.sqlite")},
		{in: "$SMSLEDGER_TEST_DIR/db", want: "/var/tmp/db"},
		{in: "/abs/path", want: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestDataDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/xdg")
	assert.Equal(t, "/xdg/smsledger", DataDir())
}
