package extraction

import (
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// contextBonus rewards account references that sit near transaction words.
// It is smaller than the gap between rule tiers, so a masked fragment never
// outranks a full account number.
const contextBonus = 0.05

func (e *Extractor) extractAccount(
	inst *pattern.CompiledInstitution,
	body, lower string,
	keywords pattern.Keywords,
) model.FieldExtraction[string] {
	var cands []candidate[string]

	for _, rule := range e.registry.Candidates(inst, pattern.FieldAccount) {
		for _, m := range rule.FindAll(body) {
			value := strings.TrimSpace(m.Value)
			if value == "" {
				continue
			}
			if strings.Contains(value, "@") {
				value = strings.ToLower(value)
			}

			conf := m.Confidence
			if pattern.NearAny(lower, keywords.Proximity, m.Span.Start, m.Span.End, proximityWindow) {
				conf += contextBonus
			}

			cands = append(cands, candidate[string]{
				value: value,
				conf:  clamp(conf),
				span:  m.Span,
				rule:  m.Rule,
			})
		}
	}

	return best(cands)
}
