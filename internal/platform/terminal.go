package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/Veraticus/smsledger/internal/model"
)

// Lock file directives. Each sits on its own line.
const (
	LockDirective    = "locked"
	OverlayDirective = "overlay"
)

// TerminalConfig configures a Terminal.
type TerminalConfig struct {
	// SMSPermission is the configured grant for reading messages.
	SMSPermission model.PermissionStatus
	// LockFile, when it exists, signals a locked screen or a competing
	// overlay through its directives.
	LockFile string
	// Output is checked for a TTY. Defaults to os.Stdout.
	Output *os.File
}

// Terminal derives capabilities from configuration, a lock file and the
// controlling terminal.
type Terminal struct {
	output   *os.File
	lockFile string
	sms      model.PermissionStatus
	mu       sync.Mutex
}

// NewTerminal creates a Terminal.
func NewTerminal(cfg TerminalConfig) *Terminal {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.SMSPermission == "" {
		cfg.SMSPermission = model.PermissionNotRequested
	}
	return &Terminal{
		output:   cfg.Output,
		lockFile: cfg.LockFile,
		sms:      cfg.SMSPermission,
	}
}

// SMSPermission returns the configured grant.
func (t *Terminal) SMSPermission(context.Context) (model.PermissionStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sms, nil
}

// RequestSMSPermission grants access unless it was explicitly denied.
func (t *Terminal) RequestSMSPermission(context.Context) (model.PermissionStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sms != model.PermissionDenied {
		t.sms = model.PermissionGranted
	}
	return t.sms, nil
}

// OverlayPermission is granted when the output is an interactive terminal.
func (t *Terminal) OverlayPermission(ctx context.Context) (model.PermissionStatus, error) {
	ok, err := t.HasOverlayPermission(ctx)
	if err != nil {
		return model.PermissionUndetermined, err
	}
	if ok {
		return model.PermissionGranted, nil
	}
	return model.PermissionDenied, nil
}

// RequestOverlayPermission cannot change anything on a terminal, so it
// reports the current state.
func (t *Terminal) RequestOverlayPermission(ctx context.Context) (model.PermissionStatus, error) {
	return t.OverlayPermission(ctx)
}

// HasOverlayPermission reports whether popups can be drawn.
func (t *Terminal) HasOverlayPermission(context.Context) (bool, error) {
	fd := t.output.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd), nil
}

// IsDeviceLocked reports whether the lock file carries the locked directive.
func (t *Terminal) IsDeviceLocked(context.Context) (bool, error) {
	return t.hasDirective(LockDirective)
}

// HasOtherOverlayActive reports whether the lock file carries the overlay
// directive.
func (t *Terminal) HasOtherOverlayActive(context.Context) (bool, error) {
	return t.hasDirective(OverlayDirective)
}

func (t *Terminal) hasDirective(directive string) (bool, error) {
	if t.lockFile == "" {
		return false, nil
	}

	f, err := os.Open(t.lockFile)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open lock file: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), directive) {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read lock file: %w", err)
	}
	return false, nil
}
