package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the classified direction of a message.
type TransactionType string

// Transaction types.
const (
	TransactionDebit          TransactionType = "DEBIT"
	TransactionCredit         TransactionType = "CREDIT"
	TransactionBalanceInquiry TransactionType = "BALANCE_INQUIRY"
	TransactionUnknown        TransactionType = "UNKNOWN"
)

// IsResolved reports whether the type carries information.
func (t TransactionType) IsResolved() bool {
	return t != "" && t != TransactionUnknown
}

// DateSource records where a transaction date came from.
type DateSource string

// Date sources, in decreasing order of confidence.
const (
	DateFromContent    DateSource = "content"
	DateFromReceipt    DateSource = "receipt"
	DateFromProcessing DateSource = "processing"
)

// Span locates a match inside the message body.
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	if s.End <= s.Start || o.End <= o.Start {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

// FieldExtraction is the result of extracting a single field.
// A nil Value means the field was not found.
type FieldExtraction[T any] struct {
	Value      *T
	Pattern    string
	Span       Span
	Confidence float64
}

// Found builds a present extraction.
func Found[T any](v T, confidence float64, span Span, pattern string) FieldExtraction[T] {
	return FieldExtraction[T]{
		Value:      &v,
		Confidence: confidence,
		Span:       span,
		Pattern:    pattern,
	}
}

// Present reports whether the field was extracted.
func (f FieldExtraction[T]) Present() bool {
	return f.Value != nil
}

// Get returns the value and whether it is present.
func (f FieldExtraction[T]) Get() (T, bool) {
	if f.Value == nil {
		var zero T
		return zero, false
	}
	return *f.Value, true
}

// ExtractedTransaction is the structured reading of one message.
type ExtractedTransaction struct {
	Date            FieldExtraction[time.Time]
	Amount          FieldExtraction[decimal.Decimal]
	Balance         FieldExtraction[decimal.Decimal]
	Account         FieldExtraction[string]
	Merchant        FieldExtraction[string]
	Reference       FieldExtraction[string]
	Currency        string
	Type            TransactionType
	DateSource      DateSource
	SourceMessageID string
	Institution     string
	Keywords        []string
	Confidence      float64
}

// AmountValue returns the amount or zero.
func (t ExtractedTransaction) AmountValue() decimal.Decimal {
	v, _ := t.Amount.Get()
	return v
}

// MerchantName returns the merchant or an empty string.
func (t ExtractedTransaction) MerchantName() string {
	v, _ := t.Merchant.Get()
	return v
}

// TransactionView is a flat, serializable rendering of an ExtractedTransaction.
type TransactionView struct {
	Date        time.Time        `json:"date"`
	Balance     *decimal.Decimal `json:"balance,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Account     string           `json:"account,omitempty"`
	Merchant    string           `json:"merchant,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	Currency    string           `json:"currency"`
	Type        TransactionType  `json:"type"`
	DateSource  DateSource       `json:"date_source"`
	MessageID   string           `json:"sms_id"`
	Institution string           `json:"bank_pattern,omitempty"`
	Confidence  float64          `json:"confidence"`
}

// View flattens the transaction for output and feedback reports.
func (t ExtractedTransaction) View() TransactionView {
	v := TransactionView{
		Amount:      t.Amount.Value,
		Balance:     t.Balance.Value,
		Currency:    t.Currency,
		Type:        t.Type,
		DateSource:  t.DateSource,
		MessageID:   t.SourceMessageID,
		Institution: t.Institution,
		Confidence:  t.Confidence,
	}
	if d, ok := t.Date.Get(); ok {
		v.Date = d
	}
	v.Account, _ = t.Account.Get()
	v.Merchant, _ = t.Merchant.Get()
	v.Reference, _ = t.Reference.Get()
	return v
}

// Validation is the outcome of validating an extraction.
type Validation struct {
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	OK       bool     `json:"ok"`
}

// ParseResult is produced for every message the pipeline sees.
type ParseResult struct {
	Err         error
	Message     IncomingMessage
	Transaction ExtractedTransaction
	Validation  Validation
	Relevant    bool
}

// Succeeded reports whether the message yielded a valid transaction.
func (r ParseResult) Succeeded() bool {
	return r.Relevant && r.Err == nil && r.Validation.OK
}

// ParsingStatistics summarizes a batch of parse results.
type ParsingStatistics struct {
	ByType            map[TransactionType]int `json:"by_type"`
	Total             int                     `json:"total"`
	Relevant          int                     `json:"relevant"`
	Successful        int                     `json:"successful"`
	Failed            int                     `json:"failed"`
	AverageConfidence float64                 `json:"average_confidence"`
}
