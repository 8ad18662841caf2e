package extraction

import (
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

func (e *Extractor) extractReference(inst *pattern.CompiledInstitution, body string) model.FieldExtraction[string] {
	var cands []candidate[string]

	for _, rule := range e.registry.Candidates(inst, pattern.FieldReference) {
		for _, m := range rule.FindAll(body) {
			if !strings.ContainsAny(m.Value, "0123456789") {
				continue
			}
			cands = append(cands, candidate[string]{
				value: strings.ToUpper(m.Value),
				conf:  clamp(m.Confidence),
				span:  m.ValueSpan,
				rule:  m.Rule,
			})
		}
	}

	return best(cands)
}
