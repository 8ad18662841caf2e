package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // location names resolve without system zoneinfo

	"github.com/spf13/viper"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/gateway"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/settings"
)

// EnvPrefix is prepended to environment overrides, e.g. SMSLEDGER_BACKEND_URL.
const EnvPrefix = "SMSLEDGER"

// Config is the resolved application configuration.
type Config struct {
	Location    *time.Location
	Database    DatabaseConfig
	Platform    PlatformConfig
	MetricsAddr string
	MetricsTLS  bool
	Backend     BackendConfig
	Retry       RetryConfig
	Permissions PermissionsConfig
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string
}

// BackendConfig describes the transaction service.
type BackendConfig struct {
	URL               string
	Token             string
	UserID            string
	AccountID         string
	DefaultCategoryID string
	Timeout           time.Duration
}

// RetryConfig bounds persistence retries.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// PermissionsConfig tunes permission probing.
type PermissionsConfig struct {
	Cooldown time.Duration
}

// PlatformConfig drives the terminal capability adapter.
type PlatformConfig struct {
	SMSPermission model.PermissionStatus
	LockFile      string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(DataDir(), "smsledger.db"))
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("retry.max_attempts", service.DefaultRetryOptions().MaxAttempts)
	v.SetDefault("retry.base_delay", service.DefaultRetryOptions().InitialDelay)
	v.SetDefault("permissions.cooldown", settings.DefaultRefreshCooldown)
	v.SetDefault("platform.sms_permission", string(model.PermissionGranted))
	v.SetDefault("platform.lock_file", filepath.Join(DataDir(), "device.lock"))
	v.SetDefault("location", "Local")
}

// BindEnv enables SMSLEDGER_ environment overrides for nested keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load resolves configuration from v. Defaults must already be set.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{Path: ExpandPath(v.GetString("database.path"))},
		Backend: BackendConfig{
			URL:               strings.TrimRight(v.GetString("backend.url"), "/"),
			Token:             v.GetString("backend.token"),
			UserID:            v.GetString("backend.user_id"),
			AccountID:         v.GetString("backend.account_id"),
			DefaultCategoryID: v.GetString("backend.default_category_id"),
			Timeout:           v.GetDuration("backend.timeout"),
		},
		Retry: RetryConfig{
			MaxAttempts: v.GetInt("retry.max_attempts"),
			BaseDelay:   v.GetDuration("retry.base_delay"),
		},
		Permissions: PermissionsConfig{Cooldown: v.GetDuration("permissions.cooldown")},
		Platform: PlatformConfig{
			SMSPermission: model.PermissionStatus(strings.ToLower(v.GetString("platform.sms_permission"))),
			LockFile:      ExpandPath(v.GetString("platform.lock_file")),
		},
		MetricsAddr: v.GetString("metrics.addr"),
		MetricsTLS:  v.GetBool("metrics.tls"),
	}

	loc, err := loadLocation(v.GetString("location"))
	if err != nil {
		return nil, err
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required", common.ErrInvalidConfig)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry.max_attempts must be at least 1", common.ErrInvalidConfig)
	}
	if c.Retry.BaseDelay < 0 || c.Backend.Timeout < 0 || c.Permissions.Cooldown < 0 {
		return fmt.Errorf("%w: durations must not be negative", common.ErrInvalidConfig)
	}
	switch c.Platform.SMSPermission {
	case model.PermissionGranted, model.PermissionDenied, model.PermissionNotRequested, model.PermissionUndetermined:
	default:
		return fmt.Errorf("%w: unknown platform.sms_permission %q", common.ErrInvalidConfig, c.Platform.SMSPermission)
	}
	return nil
}

// Identity returns the backend identity for persisted transactions.
func (c *Config) Identity() gateway.Identity {
	return gateway.Identity{
		UserID:            c.Backend.UserID,
		AccountID:         c.Backend.AccountID,
		DefaultCategoryID: c.Backend.DefaultCategoryID,
	}
}

// RetryOptions converts the retry section. Waits double from the base
// delay, so a base of 1s gives 2s then 4s.
func (c *Config) RetryOptions() service.RetryOptions {
	opts := service.DefaultRetryOptions()
	opts.MaxAttempts = c.Retry.MaxAttempts
	opts.InitialDelay = c.Retry.BaseDelay
	return opts
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: location %q: %w", common.ErrInvalidConfig, name, err)
	}
	return loc, nil
}
