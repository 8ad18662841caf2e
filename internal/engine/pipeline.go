// Package engine runs messages through relevance filtering, extraction,
// classification and scoring.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/facebookgo/clock"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/classification"
	"github.com/Veraticus/smsledger/internal/common"
	"github.com/Veraticus/smsledger/internal/extraction"
	"github.com/Veraticus/smsledger/internal/filter"
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// Config holds the dependencies of a Pipeline.
type Config struct {
	Registry *pattern.Registry
	Clock    clock.Clock
	Location *time.Location
}

// Pipeline turns one message into one ParseResult. It holds no mutable
// state and is safe for concurrent use.
type Pipeline struct {
	filter     *filter.Filter
	extractor  *extraction.Extractor
	classifier *classification.Classifier
	aggregator *classification.Aggregator
}

// New creates a pipeline. A nil registry means the built-in one.
func New(cfg Config) *Pipeline {
	if cfg.Registry == nil {
		cfg.Registry = pattern.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	return &Pipeline{
		filter: filter.New(cfg.Registry),
		extractor: extraction.New(cfg.Registry,
			extraction.WithClock(cfg.Clock),
			extraction.WithLocation(cfg.Location)),
		classifier: classification.NewClassifier(cfg.Registry),
		aggregator: classification.NewAggregator(cfg.Clock),
	}
}

// Parse evaluates msg under settings. Irrelevant messages come back with
// Relevant=false and ErrNotRelevant; failed extractions carry
// ErrExtractionFailed and the validation errors.
func (p *Pipeline) Parse(msg model.IncomingMessage, settings model.MonitorSettings) model.ParseResult {
	result := model.ParseResult{Message: msg}

	if !p.filter.IsRelevant(msg, settings) {
		result.Err = common.ErrNotRelevant
		return result
	}
	result.Relevant = true

	tx := p.extractor.Extract(msg, settings.Currency)
	tx.Type = p.classifier.Classify(msg, tx)
	tx.Confidence = p.aggregator.Score(tx)
	result.Transaction = tx
	result.Validation = p.aggregator.Validate(tx)

	if !result.Validation.OK {
		result.Err = fmt.Errorf("%w: %s", common.ErrExtractionFailed, strings.Join(result.Validation.Errors, "; "))
		return result
	}

	if settings.MinimumAmount > 0 {
		minimum := decimal.NewFromFloat(settings.MinimumAmount)
		if tx.AmountValue().LessThan(minimum) {
			result.Err = fmt.Errorf("%w: %s < %s", common.ErrBelowMinimum, tx.AmountValue(), minimum)
		}
	}

	return result
}

// ParseBatch parses messages in order. progress, if set, is called after
// each message.
func (p *Pipeline) ParseBatch(
	ctx context.Context,
	msgs []model.IncomingMessage,
	settings model.MonitorSettings,
	progress func(done int),
) ([]model.ParseResult, error) {
	results := make([]model.ParseResult, 0, len(msgs))
	for i, msg := range msgs {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		r := p.Parse(msg, settings)
		if r.Relevant && r.Err != nil {
			slog.Debug("Message did not parse", "message_id", msg.ID, "error", r.Err)
		}
		results = append(results, r)
		if progress != nil {
			progress(i + 1)
		}
	}
	return results, nil
}
