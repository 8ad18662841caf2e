// Package coordinator owns the suggestion queue and the single visible
// popup slot.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/facebookgo/clock"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/telemetry"
)

// Config holds the collaborators of a Coordinator. Presenter, Capabilities
// and Settings are required.
type Config struct {
	Presenter    Presenter
	Capabilities Capabilities
	Settings     SettingsReader
	Persister    Persister
	Reporter     FeedbackReporter
	Clock        clock.Clock
	Metrics      *telemetry.Metrics
	// Background starts the coordinator as if the app were not in front.
	Background bool
}

// Coordinator serializes every queue and visibility change behind one
// mutex. At most one suggestion is visible, and the rest wait in FIFO order.
type Coordinator struct {
	presenter Presenter
	caps      Capabilities
	settings  SettingsReader
	persister Persister
	reporter  FeedbackReporter
	clock     clock.Clock
	metrics   *telemetry.Metrics

	visible *model.Suggestion
	timer   *clock.Timer
	queue   []model.Suggestion
	handoff sync.WaitGroup
	// generation invalidates timers that fire after their suggestion left.
	generation uint64
	mu         sync.Mutex
	foreground bool
}

// New creates a coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Presenter == nil {
		return nil, fmt.Errorf("%w: presenter is required", common.ErrInvalidInput)
	}
	if cfg.Capabilities == nil {
		return nil, fmt.Errorf("%w: capabilities are required", common.ErrInvalidInput)
	}
	if cfg.Settings == nil {
		return nil, fmt.Errorf("%w: settings reader is required", common.ErrInvalidInput)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &Coordinator{
		presenter:  cfg.Presenter,
		caps:       cfg.Capabilities,
		settings:   cfg.Settings,
		persister:  cfg.Persister,
		reporter:   cfg.Reporter,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		foreground: !cfg.Background,
	}, nil
}

// Submit turns a scored transaction into a suggestion. It is shown at once
// when nothing else is visible, queued otherwise, or routed to a plain
// notification when a popup cannot be drawn.
func (c *Coordinator) Submit(ctx context.Context, tx model.ExtractedTransaction, raw string) (model.Suggestion, error) {
	settings, err := c.settings.GetSettings(ctx)
	if err != nil {
		return model.Suggestion{}, fmt.Errorf("failed to read settings: %w", err)
	}
	if tx.Confidence < settings.MinimumConfidence {
		return model.Suggestion{}, fmt.Errorf("%w: confidence %.2f < %.2f",
			common.ErrBelowThreshold, tx.Confidence, settings.MinimumConfidence)
	}

	s := model.NewSuggestion(tx, raw, c.clock.Now(), settings.PopupDuration())
	c.metrics.ObserveConfidence(tx.Confidence)

	// Capability checks may block, so they run before taking the lock.
	fallback := c.needsFallback(ctx, settings)

	c.mu.Lock()
	defer c.mu.Unlock()

	if fallback {
		s.State = model.SuggestionNotified
		c.record(s)
		c.presenter.ShowFallbackNotification(s)
		return s, nil
	}

	s.State = model.SuggestionQueued
	c.queue = append(c.queue, s)
	c.record(s)
	c.promoteLocked()

	if c.visible != nil && c.visible.ID == s.ID {
		return *c.visible, nil
	}
	return s, nil
}

// Confirm accepts the visible suggestion, applies the user's overrides and
// hands it to the persister in the background.
func (c *Coordinator) Confirm(ctx context.Context, id string, overrides model.Overrides) (model.Suggestion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkVisibleLocked(id); err != nil {
		return model.Suggestion{}, err
	}

	s := c.takeVisibleLocked(model.SuggestionConfirmed, model.DismissByConfirm)
	if overrides.Title != "" {
		s.Overrides.Title = overrides.Title
	}
	if overrides.CategoryID != "" {
		s.Overrides.CategoryID = overrides.CategoryID
	}
	common.LogInfo("Suggestion confirmed", common.SuggestionFields(s))

	c.persist(context.WithoutCancel(ctx), s)
	c.promoteLocked()
	return s, nil
}

// Dismiss rejects the visible suggestion.
func (c *Coordinator) Dismiss(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkVisibleLocked(id); err != nil {
		return err
	}
	c.takeVisibleLocked(model.SuggestionDismissed, model.DismissByUser)
	c.promoteLocked()
	return nil
}

// Background force-dismisses the visible suggestion. Queued suggestions
// stay queued until Foreground.
func (c *Coordinator) Background() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.foreground = false
	if c.visible != nil {
		c.takeVisibleLocked(model.SuggestionDismissed, model.DismissByBackground)
	}
}

// Foreground marks the app as in front and shows the queue head when the
// device is unlocked and no other overlay competes for the screen.
func (c *Coordinator) Foreground(ctx context.Context) {
	c.mu.Lock()
	c.foreground = true
	pending := c.visible == nil && len(c.queue) > 0
	c.mu.Unlock()

	if !pending || !c.canPromote(ctx) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.promoteLocked()
}

// ReportIncorrectExtraction forwards a complaint about tx and dismisses the
// visible suggestion built from it. The dismissal happens even if the
// report fails.
func (c *Coordinator) ReportIncorrectExtraction(ctx context.Context, raw string, tx model.ExtractedTransaction) error {
	var reportErr error
	if c.reporter != nil {
		if err := c.reporter.ReportIncorrectExtraction(ctx, raw, tx); err != nil {
			reportErr = fmt.Errorf("failed to report extraction: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.visible != nil && c.visible.RawMessage == raw &&
		c.visible.Transaction.SourceMessageID == tx.SourceMessageID {
		c.takeVisibleLocked(model.SuggestionDismissed, model.DismissByReport)
		c.promoteLocked()
	}
	return reportErr
}

// Visible returns the suggestion on screen, if any.
func (c *Coordinator) Visible() (model.Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.visible == nil {
		return model.Suggestion{}, false
	}
	return *c.visible, true
}

// Queued returns a copy of the waiting suggestions in display order.
func (c *Coordinator) Queued() []model.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Suggestion(nil), c.queue...)
}

// Wait blocks until every background persistence handoff has finished.
func (c *Coordinator) Wait() {
	c.handoff.Wait()
}

func (c *Coordinator) checkVisibleLocked(id string) error {
	if c.visible == nil {
		return common.ErrNoVisibleSuggestion
	}
	if c.visible.ID != id {
		return fmt.Errorf("%w: %s is not visible", common.ErrStaleSuggestion, id)
	}
	return nil
}

// takeVisibleLocked clears the visible slot, cancelling its timer first.
func (c *Coordinator) takeVisibleLocked(state model.SuggestionState, reason model.DismissReason) model.Suggestion {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.generation++

	s := *c.visible
	s.State = state
	c.visible = nil
	c.record(s)
	c.presenter.DismissVisible(s, reason)
	return s
}

func (c *Coordinator) promoteLocked() {
	if !c.foreground || c.visible != nil || len(c.queue) == 0 {
		return
	}

	s := c.queue[0]
	c.queue[0] = model.Suggestion{}
	c.queue = c.queue[1:]
	s.State = model.SuggestionVisible

	c.generation++
	gen := c.generation
	id := s.ID
	c.visible = &s
	c.timer = c.clock.AfterFunc(s.DisplayFor, func() { c.expire(id, gen) })

	c.record(s)
	c.presenter.ShowVisible(s)
}

func (c *Coordinator) expire(id string, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.visible == nil || c.visible.ID != id {
		return
	}
	c.timer = nil
	s := c.takeVisibleLocked(model.SuggestionDismissed, model.DismissByTimeout)
	common.LogDebug("Suggestion timed out", common.SuggestionFields(s))
	c.promoteLocked()
}

func (c *Coordinator) persist(ctx context.Context, s model.Suggestion) {
	if c.persister == nil {
		return
	}

	c.handoff.Add(1)
	go func() {
		defer c.handoff.Done()

		if _, err := c.persister.Persist(ctx, s); err != nil {
			if errors.Is(err, common.ErrAlreadyPersisted) {
				return
			}
			common.LogError(err, "Failed to persist suggestion", common.SuggestionFields(s))
			if observer, ok := c.presenter.(FailureObserver); ok {
				observer.PersistenceFailed(s, err)
			}
		}
	}()
}

func (c *Coordinator) needsFallback(ctx context.Context, settings model.MonitorSettings) bool {
	if !settings.UseOverlay {
		return true
	}

	granted, err := c.caps.HasOverlayPermission(ctx)
	if err != nil {
		slog.Warn("Overlay permission check failed", "error", err)
		return true
	}
	if !granted {
		return true
	}
	return !c.canPromote(ctx)
}

// canPromote reports whether a popup may be drawn right now.
func (c *Coordinator) canPromote(ctx context.Context) bool {
	locked, err := c.caps.IsDeviceLocked(ctx)
	if err != nil {
		slog.Warn("Device lock check failed", "error", err)
		return false
	}
	if locked {
		return false
	}

	busy, err := c.caps.HasOtherOverlayActive(ctx)
	if err != nil {
		slog.Warn("Overlay activity check failed", "error", err)
		return false
	}
	return !busy
}

func (c *Coordinator) record(s model.Suggestion) {
	c.metrics.RecordSuggestion(string(s.State))
	c.metrics.SetQueueDepth(len(c.queue))
}
