package extraction

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

var currencyTokens = []struct {
	token string
	code  string
}{
	{"₹", "INR"},
	{"inr", "INR"},
	{"rs", "INR"},
	{"ksh", "KES"},
	{"kes", "KES"},
	{"usd", "USD"},
	{"$", "USD"},
	{"eur", "EUR"},
	{"€", "EUR"},
	{"gbp", "GBP"},
	{"£", "GBP"},
}

// currencyIn finds the first currency marker in text. Letter tokens must
// start a word; symbols match anywhere.
func currencyIn(text string) (string, bool) {
	lower := pattern.Fold(text)
	bestPos := -1
	code := ""
	for _, ct := range currencyTokens {
		var pos int
		if isLetter(ct.token[0]) {
			positions := pattern.KeywordPositions(lower, ct.token)
			if len(positions) == 0 {
				continue
			}
			pos = positions[0]
		} else {
			pos = strings.Index(lower, ct.token)
			if pos < 0 {
				continue
			}
		}
		if bestPos < 0 || pos < bestPos {
			bestPos = pos
			code = ct.code
		}
	}
	return code, bestPos >= 0
}

// resolveCurrency picks the currency from the amount match, then the
// institution default, then the body, then the fallback.
func resolveCurrency(amount model.FieldExtraction[decimal.Decimal], inst *pattern.CompiledInstitution, body, fallback string) string {
	if amount.Present() {
		if code, ok := currencyIn(amount.Span.Text); ok {
			return code
		}
	}
	if inst != nil && inst.Currency != "" {
		return strings.ToUpper(inst.Currency)
	}
	if code, ok := currencyIn(body); ok {
		return code
	}
	if fallback != "" {
		return strings.ToUpper(fallback)
	}
	return model.DefaultCurrency
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
