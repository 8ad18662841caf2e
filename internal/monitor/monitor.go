// Package monitor consumes incoming messages and turns the relevant ones
// into suggestions.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/gateway"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/source"
	"github.com/Veraticus/smsledger/internal/telemetry"
)

// DefaultDrainBatch is how many parked messages are replayed per query.
const DefaultDrainBatch = 50

// Parser evaluates one message.
type Parser interface {
	Parse(msg model.IncomingMessage, settings model.MonitorSettings) model.ParseResult
}

// Submitter receives parsed transactions.
type Submitter interface {
	Submit(ctx context.Context, tx model.ExtractedTransaction, raw string) (model.Suggestion, error)
}

// SettingsService reads settings and requests message access.
type SettingsService interface {
	GetSettings(ctx context.Context) (model.MonitorSettings, error)
	RequestSMSPermission(ctx context.Context) (model.PermissionStatus, error)
}

// Ledger dedupes messages and parks those that arrive too early.
type Ledger interface {
	service.MessageLedger
	service.PendingQueue
}

// Config holds the collaborators of a Service.
type Config struct {
	Source      source.Source
	Parser      Parser
	Coordinator Submitter
	Settings    SettingsService
	Ledger      Ledger
	Metrics     *telemetry.Metrics
	Identity    gateway.Identity
	DrainBatch  int
}

// Service is the message consumer. It implements settings.Reconciler.
type Service struct {
	source   source.Source
	parser   Parser
	coord    Submitter
	settings SettingsService
	ledger   Ledger
	metrics  *telemetry.Metrics
	identity gateway.Identity
	batch    int

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// New creates a monitor service.
func New(cfg Config) (*Service, error) {
	switch {
	case cfg.Source == nil:
		return nil, fmt.Errorf("%w: message source is required", common.ErrInvalidInput)
	case cfg.Parser == nil:
		return nil, fmt.Errorf("%w: parser is required", common.ErrInvalidInput)
	case cfg.Coordinator == nil:
		return nil, fmt.Errorf("%w: coordinator is required", common.ErrInvalidInput)
	case cfg.Settings == nil:
		return nil, fmt.Errorf("%w: settings are required", common.ErrInvalidInput)
	case cfg.Ledger == nil:
		return nil, fmt.Errorf("%w: message ledger is required", common.ErrInvalidInput)
	}
	if cfg.DrainBatch <= 0 {
		cfg.DrainBatch = DefaultDrainBatch
	}

	return &Service{
		source:   cfg.Source,
		parser:   cfg.Parser,
		coord:    cfg.Coordinator,
		settings: cfg.Settings,
		ledger:   cfg.Ledger,
		metrics:  cfg.Metrics,
		identity: cfg.Identity,
		batch:    cfg.DrainBatch,
	}, nil
}

// Running reports whether the consumer is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// HandleMessage processes one message and returns its outcome. Errors are
// reserved for storage and settings failures; rejections are outcomes.
func (s *Service) HandleMessage(ctx context.Context, msg model.IncomingMessage) (string, error) {
	fields := common.MessageFields(msg)

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read settings: %w", err)
	}
	if !settings.Enabled {
		s.metrics.RecordMessage(telemetry.OutcomeDisabled)
		return telemetry.OutcomeDisabled, nil
	}

	if !s.identity.Complete() {
		if err := s.ledger.PushPending(ctx, msg); err != nil {
			return "", fmt.Errorf("failed to park message: %w", err)
		}
		common.LogDebug("Parked message until identity is configured", fields)
		s.metrics.RecordMessage(telemetry.OutcomePending)
		return telemetry.OutcomePending, nil
	}

	claimed, err := s.ledger.ClaimMessage(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("failed to claim message: %w", err)
	}
	if !claimed {
		s.metrics.RecordMessage(telemetry.OutcomeDuplicate)
		return telemetry.OutcomeDuplicate, nil
	}

	outcome := s.evaluate(ctx, msg, settings)
	s.metrics.RecordMessage(outcome)
	if err := s.ledger.RecordOutcome(ctx, msg.ID, outcome); err != nil {
		common.LogError(err, "Failed to record message outcome", fields)
	}
	return outcome, nil
}

func (s *Service) evaluate(ctx context.Context, msg model.IncomingMessage, settings model.MonitorSettings) string {
	result := s.parser.Parse(msg, settings)
	fields := common.MessageFields(msg)

	switch {
	case errors.Is(result.Err, common.ErrNotRelevant):
		return telemetry.OutcomeIrrelevant
	case errors.Is(result.Err, common.ErrBelowMinimum):
		return telemetry.OutcomeBelowMin
	case result.Err != nil:
		fields["error"] = result.Err.Error()
		common.LogDebug("Message rejected", fields)
		return telemetry.OutcomeInvalid
	case result.Transaction.Type == model.TransactionBalanceInquiry:
		return telemetry.OutcomeBalance
	}

	suggestion, err := s.coord.Submit(ctx, result.Transaction, msg.Body)
	if err != nil {
		if !errors.Is(err, common.ErrBelowThreshold) {
			common.LogError(err, "Failed to submit suggestion", fields)
		}
		return telemetry.OutcomeRejected
	}

	common.LogInfo("Suggestion created", common.SuggestionFields(suggestion))
	return telemetry.OutcomeSubmitted
}

// StartMonitoring subscribes to the source and replays parked messages.
// It is a no-op when already running.
func (s *Service) StartMonitoring(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}
	if !s.identity.Complete() {
		return fmt.Errorf("%w: user and account must be configured", common.ErrMissingConfig)
	}

	status, err := s.settings.RequestSMSPermission(ctx)
	if err != nil {
		return err
	}
	if status != model.PermissionGranted {
		return fmt.Errorf("%w: message access is %s", common.ErrPermissionDenied, status)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	msgs, err := s.source.Messages(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to messages: %w", err)
	}

	if err := s.drainPending(runCtx); err != nil {
		common.LogError(err, "Failed to replay parked messages", nil)
	}

	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go s.consume(runCtx, cancel, msgs, done)

	slog.Info("Monitoring started")
	return nil
}

// StopMonitoring cancels the consumer and waits for it to exit.
func (s *Service) StopMonitoring(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		slog.Info("Monitoring stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the current consumer exits, for example because the
// source ran dry. Running reports false by then. It returns nil when not
// running.
func (s *Service) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *Service) consume(ctx context.Context, cancel context.CancelFunc, msgs <-chan model.IncomingMessage, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		cancel()
		close(done)
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if _, err := s.HandleMessage(ctx, msg); err != nil {
				common.LogError(err, "Failed to handle message", common.MessageFields(msg))
			}
		}
	}
}

func (s *Service) drainPending(ctx context.Context) error {
	for {
		msgs, err := s.ledger.PopPending(ctx, s.batch)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if _, err := s.HandleMessage(ctx, msg); err != nil {
				common.LogError(err, "Failed to handle parked message", common.MessageFields(msg))
			}
		}
		if len(msgs) < s.batch {
			return nil
		}
	}
}
