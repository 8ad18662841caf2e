// Package extraction reads amounts, balances, accounts, merchants, dates and
// references out of bank notifications using the pattern registry.
package extraction

import (
	"math"
	"time"

	"github.com/facebookgo/clock"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// proximityWindow is how far, in bytes, a transaction keyword may sit from
// an amount for the amount to count as adjacent.
const proximityWindow = 50

// Extractor applies the registry to one message at a time. It is safe for
// concurrent use.
type Extractor struct {
	registry *pattern.Registry
	clock    clock.Clock
	location *time.Location
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for the processing-time date fallback.
func WithClock(c clock.Clock) Option {
	return func(e *Extractor) { e.clock = c }
}

// WithLocation sets the zone in which dates without an offset are read.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.location = loc
		}
	}
}

// New creates an Extractor.
func New(registry *pattern.Registry, opts ...Option) *Extractor {
	e := &Extractor{
		registry: registry,
		clock:    clock.New(),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads every field from msg. fallbackCurrency is used when neither
// the message nor the institution names a currency. The returned
// transaction is unclassified and unscored.
func (e *Extractor) Extract(msg model.IncomingMessage, fallbackCurrency string) model.ExtractedTransaction {
	body := msg.Body
	lower := pattern.Fold(body)
	keywords := e.registry.Keywords()
	inst := e.registry.Identify(msg.Sender, body)

	tx := model.ExtractedTransaction{
		SourceMessageID: msg.ID,
		Type:            model.TransactionUnknown,
	}
	if inst != nil {
		tx.Institution = inst.Name
	}

	tx.Date, tx.DateSource = e.extractDate(inst, msg)
	tx.Account = e.extractAccount(inst, body, lower, keywords)

	var balanceSpans []model.Span
	tx.Balance, balanceSpans = e.extractBalance(inst, body)

	protected := e.protectedSpans(inst, body)
	tx.Amount = e.extractAmount(inst, body, lower, keywords, balanceSpans, protected)
	tx.Currency = resolveCurrency(tx.Amount, inst, body, fallbackCurrency)

	tx.Merchant = e.extractMerchant(inst, body)
	tx.Reference = e.extractReference(inst, body)

	vocabulary := make([]string, 0, len(keywords.Debit)+len(keywords.Credit)+len(keywords.Balance))
	vocabulary = append(vocabulary, keywords.Debit...)
	vocabulary = append(vocabulary, keywords.Credit...)
	vocabulary = append(vocabulary, keywords.Balance...)
	tx.Keywords = pattern.FindKeywords(body, vocabulary)

	return tx
}

// protectedSpans are regions whose digits belong to dates or accounts and
// must not be read as bare amounts.
func (e *Extractor) protectedSpans(inst *pattern.CompiledInstitution, body string) []model.Span {
	var spans []model.Span
	for _, field := range []pattern.Field{pattern.FieldDate, pattern.FieldAccount, pattern.FieldReference} {
		for _, rule := range e.registry.Candidates(inst, field) {
			for _, m := range rule.FindAll(body) {
				if field == pattern.FieldDate {
					spans = append(spans, m.Span)
					continue
				}
				spans = append(spans, m.ValueSpan)
			}
		}
	}
	return spans
}

type candidate[T any] struct {
	value T
	span  model.Span
	rule  string
	conf  float64
}

// best keeps the highest-confidence candidate; the earliest one wins ties.
func best[T any](cands []candidate[T]) model.FieldExtraction[T] {
	var winner *candidate[T]
	for i := range cands {
		c := &cands[i]
		if c.conf <= 0 {
			continue
		}
		if winner == nil || c.conf > winner.conf {
			winner = c
		}
	}
	if winner == nil {
		return model.FieldExtraction[T]{}
	}
	return model.Found(winner.value, winner.conf, winner.span, winner.rule)
}

func overlapsAny(s model.Span, spans []model.Span) bool {
	for _, o := range spans {
		if s.Overlaps(o) {
			return true
		}
	}
	return false
}

// clamp bounds c to [0, 1] and rounds to two decimals so repeated additions
// compare exactly.
func clamp(c float64) float64 {
	c = math.Round(c*100) / 100
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
