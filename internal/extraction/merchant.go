package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// merchantStops end a merchant name.
var merchantStops = map[string]bool{
	"ON": true, "VIA": true, "REF": true, "REFNO": true, "TXN": true, "FOR": true,
	"AT": true, "FROM": true, "TO": true, "WITH": true, "USING": true, "DATED": true,
	"AVL": true, "AVBL": true, "BAL": true, "INFO": true, "IS": true, "OF": true,
	"AND": true, "NEW": true, "UPI": true, "IMPS": true, "NEFT": true, "RTGS": true,
}

// merchantRejects are leading words that show the capture hit an account
// or currency instead of a counterparty.
var merchantRejects = map[string]bool{
	"A": true, "AC": true, "A/C": true, "ACCOUNT": true, "ACCT": true, "CARD": true,
	"VPA": true, "YOUR": true, "RS": true, "INR": true, "KSH": true, "KES": true,
	"USD": true, "BANK": true, "DEAR": true, "CUSTOMER": true,
}

func (e *Extractor) extractMerchant(inst *pattern.CompiledInstitution, body string) model.FieldExtraction[string] {
	var cands []candidate[string]

	for _, rule := range e.registry.Candidates(inst, pattern.FieldMerchant) {
		for _, m := range rule.FindAll(body) {
			name, ok := CleanMerchant(m.Value)
			if !ok {
				continue
			}
			cands = append(cands, candidate[string]{
				value: name,
				conf:  clamp(m.Confidence),
				span:  m.ValueSpan,
				rule:  m.Rule,
			})
		}
	}

	return best(cands)
}

// CleanMerchant trims connector words and numbers from a captured name and
// title-cases it. It returns false when nothing usable is left.
func CleanMerchant(raw string) (string, bool) {
	var kept []string
	for _, field := range strings.Fields(raw) {
		tok := strings.TrimRight(field, ".,;:-'")
		if tok == "" {
			break
		}
		upper := strings.ToUpper(tok)
		if first, _ := utf8.DecodeRuneInString(tok); merchantStops[upper] || unicode.IsDigit(first) {
			break
		}
		kept = append(kept, tok)
		// A trailing period or comma closes the clause.
		if strings.ContainsAny(field[len(field)-1:], ".,") {
			break
		}
	}
	if len(kept) == 0 || merchantRejects[strings.ToUpper(kept[0])] {
		return "", false
	}

	name := titleCase(strings.Join(kept, " "))
	if len(name) < 2 {
		return "", false
	}
	return name, true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
