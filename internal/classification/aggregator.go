package classification

import (
	"math"

	"github.com/facebookgo/clock"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/model"
)

// LargeAmountThreshold marks amounts that earn a plausibility warning.
var LargeAmountThreshold = decimal.NewFromInt(10_000_000)

// Weights are the score contributions. Amount, merchant, account and
// balance are scaled by their field confidence; keyword hits earn
// KeywordPerHit each up to KeywordCap.
type Weights struct {
	Amount        float64
	Type          float64
	Merchant      float64
	KeywordPerHit float64
	KeywordCap    float64
	Institution   float64
	Account       float64
	Balance       float64
}

// DefaultWeights sum to 100.
func DefaultWeights() Weights {
	return Weights{
		Amount:        40,
		Type:          25,
		Merchant:      15,
		KeywordPerHit: 3,
		KeywordCap:    10,
		Institution:   5,
		Account:       3,
		Balance:       2,
	}
}

func (w Weights) total() float64 {
	return w.Amount + w.Type + w.Merchant + w.KeywordCap + w.Institution + w.Account + w.Balance
}

// Aggregator scores and validates extractions.
type Aggregator struct {
	clock   clock.Clock
	weights Weights
}

// NewAggregator creates an aggregator with the default weights. The clock
// is used to detect future-dated transactions.
func NewAggregator(c clock.Clock) *Aggregator {
	if c == nil {
		c = clock.New()
	}
	return &Aggregator{clock: c, weights: DefaultWeights()}
}

// Score returns a deterministic confidence in [0, 1].
func (a *Aggregator) Score(tx model.ExtractedTransaction) float64 {
	w := a.weights
	total := w.total()
	if total <= 0 {
		return 0
	}

	var s float64
	if amount, ok := tx.Amount.Get(); ok && amount.IsPositive() {
		s += w.Amount * tx.Amount.Confidence
	}
	if tx.Type.IsResolved() {
		s += w.Type
	}
	if tx.Merchant.Present() {
		s += w.Merchant * tx.Merchant.Confidence
	}
	s += math.Min(float64(len(tx.Keywords))*w.KeywordPerHit, w.KeywordCap)
	if tx.Institution != "" {
		s += w.Institution
	}
	if tx.Account.Present() {
		s += w.Account * tx.Account.Confidence
	}
	if tx.Balance.Present() {
		s += w.Balance * tx.Balance.Confidence
	}

	score := math.Round(s/total*10000) / 10000
	return math.Max(0, math.Min(1, score))
}

// Validate gates an extraction. Only a missing or non-positive amount is an
// error; everything else is a warning.
func (a *Aggregator) Validate(tx model.ExtractedTransaction) model.Validation {
	var v model.Validation

	amount, ok := tx.Amount.Get()
	switch {
	case !ok:
		v.Errors = append(v.Errors, "amount is missing")
	case !amount.IsPositive():
		v.Errors = append(v.Errors, "amount must be greater than zero")
	case amount.GreaterThan(LargeAmountThreshold):
		v.Warnings = append(v.Warnings, "amount is unusually large")
	}

	if !tx.Type.IsResolved() {
		v.Warnings = append(v.Warnings, "transaction type could not be determined")
	}
	if !tx.Balance.Present() {
		v.Warnings = append(v.Warnings, "balance not found")
	}
	if !tx.Account.Present() {
		v.Warnings = append(v.Warnings, "account not found")
	}
	if !tx.Merchant.Present() {
		v.Warnings = append(v.Warnings, "merchant not found")
	}
	if date, ok := tx.Date.Get(); ok && date.After(a.clock.Now()) {
		v.Warnings = append(v.Warnings, "transaction date is in the future")
	}
	if tx.DateSource == model.DateFromProcessing {
		v.Warnings = append(v.Warnings, "transaction date inferred from processing time")
	}

	v.OK = len(v.Errors) == 0
	return v
}
