package tui

import (
	"time"

	"github.com/Veraticus/smsledger/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Now       func() time.Time
	Theme     themes.Theme
	Width     int
	Height    int
	History   int
	AltScreen bool
	Record    bool
	InputTTY  bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Now:       time.Now,
		Theme:     themes.Default,
		Width:     80,
		Height:    24,
		History:   5,
		AltScreen: true,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithClock sets the time source for the countdown.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithHistory sets how many recent events are listed under the popup.
func WithHistory(n int) Option {
	return func(c *Config) {
		c.History = n
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}

// WithRecording writes every frame to a temporary directory for debugging.
func WithRecording(enabled bool) Option {
	return func(c *Config) {
		c.Record = enabled
	}
}

// WithInputTTY reads keys from the controlling terminal instead of stdin,
// leaving stdin free for message input.
func WithInputTTY(enabled bool) Option {
	return func(c *Config) {
		c.InputTTY = enabled
	}
}
