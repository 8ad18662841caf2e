// Package classification derives transaction types and scores extractions.
package classification

import (
	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// Classifier assigns a TransactionType from keyword evidence.
type Classifier struct {
	keywords pattern.Keywords
}

// NewClassifier creates a classifier over the registry's vocabularies.
func NewClassifier(registry *pattern.Registry) *Classifier {
	return &Classifier{keywords: registry.Keywords()}
}

// Classify applies a fixed priority: balance inquiry, then debit, then
// credit, then unknown. A message mentioning both debit and credit words is
// a debit.
//
// A balance figure alone does not make a balance inquiry: the message must
// have no transaction amount distinct from the balance. This keeps "Rs.500
// debited ... Avbl Bal: Rs.10,000" a debit.
func (c *Classifier) Classify(msg model.IncomingMessage, tx model.ExtractedTransaction) model.TransactionType {
	body := msg.Body

	if tx.Balance.Present() && balanceOnly(tx) && pattern.ContainsAny(body, c.keywords.Balance) {
		return model.TransactionBalanceInquiry
	}
	if pattern.ContainsAny(body, c.keywords.Debit) {
		return model.TransactionDebit
	}
	if pattern.ContainsAny(body, c.keywords.Credit) {
		return model.TransactionCredit
	}
	return model.TransactionUnknown
}

func balanceOnly(tx model.ExtractedTransaction) bool {
	if !tx.Amount.Present() {
		return true
	}
	return tx.Amount.Span.Overlaps(tx.Balance.Span)
}
