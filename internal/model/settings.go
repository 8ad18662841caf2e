package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Settings bounds.
const (
	DefaultPopupDurationSeconds = 30
	MinPopupDurationSeconds     = 5
	MaxPopupDurationSeconds     = 300
	DefaultMinimumConfidence    = 0.5
	DefaultCurrency             = "INR"
)

// ErrInvalidSettings is returned when settings fail validation.
var ErrInvalidSettings = errors.New("invalid monitor settings")

// DefaultExcludeKeywords filters one-time codes and marketing traffic.
var DefaultExcludeKeywords = []string{
	"otp", "verification", "code", "login", "password", "pin",
	"offer", "advertisement", "promo", "marketing",
}

// MonitorSettings is the persisted monitoring configuration.
type MonitorSettings struct {
	AutoCategories       map[string]string `json:"auto_categories"`
	Currency             string            `json:"currency"`
	TrustedSenders       []string          `json:"trusted_senders"`
	KeywordFilters       []string          `json:"keyword_filters"`
	ExcludeKeywords      []string          `json:"exclude_keywords"`
	PopupDurationSeconds int               `json:"popup_duration_seconds"`
	MinimumAmount        float64           `json:"minimum_amount"`
	MinimumConfidence    float64           `json:"minimum_confidence"`
	Enabled              bool              `json:"enabled"`
	UseOverlay           bool              `json:"use_overlay"`
}

// DefaultMonitorSettings returns settings for a fresh install.
func DefaultMonitorSettings() MonitorSettings {
	return MonitorSettings{
		Enabled:              false,
		TrustedSenders:       []string{},
		PopupDurationSeconds: DefaultPopupDurationSeconds,
		UseOverlay:           true,
		MinimumAmount:        0,
		MinimumConfidence:    DefaultMinimumConfidence,
		KeywordFilters:       []string{},
		ExcludeKeywords:      append([]string(nil), DefaultExcludeKeywords...),
		Currency:             DefaultCurrency,
		AutoCategories:       map[string]string{},
	}
}

// PopupDuration returns the auto-dismiss interval.
func (s MonitorSettings) PopupDuration() time.Duration {
	if s.PopupDurationSeconds <= 0 {
		return DefaultPopupDurationSeconds * time.Second
	}
	return time.Duration(s.PopupDurationSeconds) * time.Second
}

// Validate checks ranges and returns every problem found.
func (s MonitorSettings) Validate() error {
	var problems []string
	if s.PopupDurationSeconds < MinPopupDurationSeconds || s.PopupDurationSeconds > MaxPopupDurationSeconds {
		problems = append(problems, fmt.Sprintf("popup duration must be between %d and %d seconds",
			MinPopupDurationSeconds, MaxPopupDurationSeconds))
	}
	if s.MinimumAmount < 0 {
		problems = append(problems, "minimum amount cannot be negative")
	}
	if s.MinimumConfidence < 0 || s.MinimumConfidence > 1 {
		problems = append(problems, "minimum confidence must be between 0 and 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// Normalize trims entries and removes case-insensitive duplicates from the
// sender and keyword sets.
func (s MonitorSettings) Normalize() MonitorSettings {
	s.TrustedSenders = dedupeFold(s.TrustedSenders)
	s.KeywordFilters = dedupeFold(s.KeywordFilters)
	s.ExcludeKeywords = dedupeFold(s.ExcludeKeywords)
	s.Currency = strings.ToUpper(strings.TrimSpace(s.Currency))
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	if s.AutoCategories == nil {
		s.AutoCategories = map[string]string{}
	}
	return s
}

// CategoryFor returns the automatic category configured for a merchant.
func (s MonitorSettings) CategoryFor(merchant string) (string, bool) {
	for name, category := range s.AutoCategories {
		if strings.EqualFold(name, merchant) {
			return category, true
		}
	}
	return "", false
}

func dedupeFold(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

// PermissionStatus is the state of a single OS permission.
type PermissionStatus string

// Permission statuses.
const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
	PermissionNotRequested PermissionStatus = "not_requested"
)

// PermissionState is the persisted view of OS capability grants.
type PermissionState struct {
	LastCheckedAt time.Time        `json:"last_checked_at"`
	LastDeniedAt  *time.Time       `json:"last_denied_at,omitempty"`
	SMS           PermissionStatus `json:"sms_permission"`
	Overlay       PermissionStatus `json:"overlay_permission"`
	RequestCount  int              `json:"request_count"`
}

// DefaultPermissionState is the state before anything was asked.
func DefaultPermissionState() PermissionState {
	return PermissionState{
		SMS:     PermissionNotRequested,
		Overlay: PermissionNotRequested,
	}
}
