package extraction

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

var (
	balanceLabels   = []string{"bal", "balance"}
	balanceEmphasis = []string{"available", "avbl", "avl", "avail", "current", "new"}
)

// extractBalance returns the best balance plus the spans of every balance
// clause found, which amount scoring uses to discount figures inside them.
func (e *Extractor) extractBalance(inst *pattern.CompiledInstitution, body string) (model.FieldExtraction[decimal.Decimal], []model.Span) {
	var (
		cands []candidate[decimal.Decimal]
		spans []model.Span
	)

	for _, rule := range e.registry.Candidates(inst, pattern.FieldBalance) {
		for _, m := range rule.FindAll(body) {
			spans = append(spans, m.Span)
			value, ok := parseNonNegative(m.Value)
			if !ok {
				continue
			}

			conf := m.Confidence
			text := strings.ToLower(m.Span.Text)
			if len(pattern.FindKeywords(text, balanceLabels)) > 0 {
				conf += 0.3
			}
			if len(pattern.FindKeywords(text, balanceEmphasis)) > 0 {
				conf += 0.2
			}

			cands = append(cands, candidate[decimal.Decimal]{
				value: value,
				conf:  clamp(conf),
				span:  m.Span,
				rule:  m.Rule,
			})
		}
	}

	return best(cands), spans
}
