// Package gateway submits confirmed suggestions and extraction reports to
// the backend, retrying transient failures and refusing duplicates.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/facebookgo/clock"

	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
	"github.com/Veraticus/smsledger/internal/telemetry"
)

// Identity names who owns created transactions.
type Identity struct {
	UserID            string
	AccountID         string
	DefaultCategoryID string
}

// Complete reports whether transactions can be attributed.
func (i Identity) Complete() bool {
	return i.UserID != "" && i.AccountID != ""
}

// SettingsReader provides the auto-category table.
type SettingsReader interface {
	GetSettings(ctx context.Context) (model.MonitorSettings, error)
}

// Config holds the dependencies of a Gateway.
type Config struct {
	Backend  Backend
	Ledger   service.PersistenceLedger
	Feedback service.FeedbackStore
	Settings SettingsReader
	Clock    clock.Clock
	Metrics  *telemetry.Metrics
	Identity Identity
	Retry    service.RetryOptions
}

// Gateway persists confirmed suggestions at most once each.
type Gateway struct {
	backend  Backend
	ledger   service.PersistenceLedger
	feedback service.FeedbackStore
	settings SettingsReader
	metrics  *telemetry.Metrics
	inflight map[string]struct{}
	identity Identity
	retry    common.RetryPolicy
	mu       sync.Mutex
}

// New creates a gateway. Backend and Ledger are required.
func New(cfg Config) (*Gateway, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("%w: backend is required", common.ErrInvalidInput)
	}
	if cfg.Ledger == nil {
		return nil, fmt.Errorf("%w: persistence ledger is required", common.ErrInvalidInput)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &Gateway{
		backend:  cfg.Backend,
		ledger:   cfg.Ledger,
		feedback: cfg.Feedback,
		settings: cfg.Settings,
		metrics:  cfg.Metrics,
		identity: cfg.Identity,
		retry:    common.NewRetryPolicy(cfg.Retry, cfg.Clock),
		inflight: make(map[string]struct{}),
	}, nil
}

// SetRetryPolicy replaces the retry policy.
func (g *Gateway) SetRetryPolicy(p common.RetryPolicy) {
	g.retry = p
}

// Persist sends a confirmed suggestion to the backend. The request is built
// once and resent unchanged on each attempt. A terminal failure is recorded
// in the ledger and nothing is requeued. It is returned as
// ErrPersistenceRejected when the backend refused the request outright, and
// as ErrPersistenceExhausted otherwise.
func (g *Gateway) Persist(ctx context.Context, s model.Suggestion) (service.PersistRecord, error) {
	if s.State != model.SuggestionConfirmed {
		return service.PersistRecord{}, fmt.Errorf("%w: suggestion %s is %s", common.ErrInvalidInput, s.ID, s.State)
	}
	amount, ok := s.Transaction.Amount.Get()
	if !ok || !amount.IsPositive() {
		return service.PersistRecord{}, fmt.Errorf("%w: amount must be greater than zero", common.ErrInvalidInput)
	}
	if !g.identity.Complete() {
		return service.PersistRecord{}, fmt.Errorf("%w: user and account are required", common.ErrMissingConfig)
	}

	release, err := g.claim(ctx, s.ID)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyPersisted) {
			g.metrics.RecordPersist(telemetry.PersistDuplicate)
		}
		return service.PersistRecord{}, err
	}
	defer release()

	req := TransactionRequest{
		UserID:     g.identity.UserID,
		AccountID:  g.identity.AccountID,
		Title:      s.Title(),
		Amount:     json.Number(amount.StringFixed(2)),
		CategoryID: g.categoryFor(ctx, s),
		Source:     SourceSMS,
		SMSID:      s.Transaction.SourceMessageID,
		Confidence: s.Transaction.Confidence,
	}

	record := service.PersistRecord{
		SuggestionID:    s.ID,
		SourceMessageID: s.Transaction.SourceMessageID,
		Status:          service.PersistPending,
	}
	if err := g.ledger.SavePersistRecord(ctx, record); err != nil {
		return record, fmt.Errorf("failed to record pending submission: %w", err)
	}

	var resp TransactionResponse
	err = g.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		record.Attempts = attempt
		r, err := g.backend.CreateTransaction(ctx, req, s.ID)
		if err != nil {
			if attempt < g.retry.MaxAttempts && common.IsRetryable(err) {
				g.metrics.RecordPersist(telemetry.PersistRetried)
			}
			return err
		}
		resp = r
		return nil
	})

	// The outcome is recorded even if the caller's context is gone.
	saveCtx := context.WithoutCancel(ctx)

	if err != nil {
		record.Status = service.PersistFailed
		record.LastError = err.Error()
		if saveErr := g.ledger.SavePersistRecord(saveCtx, record); saveErr != nil {
			common.LogError(saveErr, "Failed to record failed submission", common.SuggestionFields(s))
		}
		g.metrics.RecordPersist(telemetry.PersistFailed)
		common.LogError(err, "Giving up on suggestion", common.SuggestionFields(s))
		return record, fmt.Errorf("%w: %w", persistFailure(err), err)
	}

	record.Status = service.PersistSucceeded
	record.RemoteID = resp.RemoteID()
	record.LastError = ""
	if err := g.ledger.SavePersistRecord(saveCtx, record); err != nil {
		common.LogError(err, "Failed to record successful submission", common.SuggestionFields(s))
	}
	g.metrics.RecordPersist(telemetry.PersistSucceeded)
	common.LogInfo("Suggestion persisted", common.SuggestionFields(s))
	return record, nil
}

func persistFailure(err error) error {
	var re *common.RetryableError
	if errors.As(err, &re) && !re.Retryable {
		return common.ErrPersistenceRejected
	}
	return common.ErrPersistenceExhausted
}

// ReportIncorrectExtraction stores the report locally, then forwards it to
// the backend. The local copy is kept if forwarding fails.
func (g *Gateway) ReportIncorrectExtraction(ctx context.Context, raw string, tx model.ExtractedTransaction) error {
	view := tx.View()

	if g.feedback != nil {
		_, err := g.feedback.SaveExtractionReport(ctx, service.ExtractionReport{
			MessageID:  tx.SourceMessageID,
			RawMessage: raw,
			Parsed:     view,
		})
		if err != nil {
			return fmt.Errorf("failed to store extraction report: %w", err)
		}
	}

	if g.identity.UserID == "" {
		return nil
	}

	req := FeedbackRequest{UserID: g.identity.UserID, RawMessage: raw, ParsedData: view}
	return g.retry.Do(ctx, func(ctx context.Context, _ int) error {
		return g.backend.ReportExtraction(ctx, req)
	})
}

// claim consults the ledger and marks the suggestion in flight.
func (g *Gateway) claim(ctx context.Context, id string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inflight[id]; busy {
		return nil, fmt.Errorf("%w: %s is in flight", common.ErrAlreadyPersisted, id)
	}

	existing, err := g.ledger.GetPersistRecord(ctx, id)
	switch {
	case err == nil && existing.Status == service.PersistSucceeded:
		return nil, fmt.Errorf("%w: %s", common.ErrAlreadyPersisted, id)
	case err != nil && !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("failed to consult persistence ledger: %w", err)
	}

	g.inflight[id] = struct{}{}
	return func() {
		g.mu.Lock()
		delete(g.inflight, id)
		g.mu.Unlock()
	}, nil
}

func (g *Gateway) categoryFor(ctx context.Context, s model.Suggestion) string {
	if s.Overrides.CategoryID != "" {
		return s.Overrides.CategoryID
	}
	if g.settings != nil {
		if settings, err := g.settings.GetSettings(ctx); err == nil {
			if category, ok := settings.CategoryFor(s.Transaction.MerchantName()); ok {
				return category
			}
		}
	}
	return g.identity.DefaultCategoryID
}
