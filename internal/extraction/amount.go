package extraction

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// Confidence adjustments applied to amount candidates.
const (
	proximityBonus = 0.2
	balancePenalty = 0.2
)

// ParseAmount converts a numeral with optional thousands separators into a
// decimal rounded to two places. Only strictly positive values are accepted.
func ParseAmount(s string) (decimal.Decimal, bool) {
	d, ok := parseNonNegative(s)
	if !ok || !d.IsPositive() {
		return decimal.Decimal{}, false
	}
	return d, true
}

func parseNonNegative(s string) (decimal.Decimal, bool) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(clean)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d.Round(2), true
}

func (e *Extractor) extractAmount(
	inst *pattern.CompiledInstitution,
	body, lower string,
	keywords pattern.Keywords,
	balanceSpans, protected []model.Span,
) model.FieldExtraction[decimal.Decimal] {
	var cands []candidate[decimal.Decimal]

	for _, rule := range e.registry.Candidates(inst, pattern.FieldAmount) {
		for _, m := range rule.FindAll(body) {
			if m.Value == "" || embeddedNumeral(body, m.ValueSpan.Start) {
				continue
			}
			value, ok := ParseAmount(m.Value)
			if !ok {
				continue
			}
			if overlapsAny(m.ValueSpan, protected) && !hasCurrencyMarker(m.Span.Text) {
				continue
			}

			conf := m.Confidence
			if pattern.NearAny(lower, keywords.Proximity, m.Span.Start, m.Span.End, proximityWindow) {
				conf += proximityBonus
			}
			if overlapsAny(m.Span, balanceSpans) {
				conf -= balancePenalty
			}

			cands = append(cands, candidate[decimal.Decimal]{
				value: value,
				conf:  clamp(conf),
				span:  m.Span,
				rule:  m.Rule,
			})
		}
	}

	return best(cands)
}

// embeddedNumeral reports whether the digits at start continue an earlier
// number, as in the "000" of "10,000".
func embeddedNumeral(body string, start int) bool {
	if start < 2 {
		return false
	}
	prev := body[start-1]
	return (prev == ',' || prev == '.') && isDigit(body[start-2])
}

func hasCurrencyMarker(text string) bool {
	_, ok := currencyIn(text)
	return ok
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
