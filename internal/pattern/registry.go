// Package pattern holds the declarative registry of institution and generic
// text patterns used to read bank notifications.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/smsledger/internal/model"
)

// Field names an extractable part of a message.
type Field string

// Extractable fields.
const (
	FieldAmount    Field = "amount"
	FieldBalance   Field = "balance"
	FieldAccount   Field = "account"
	FieldMerchant  Field = "merchant"
	FieldDate      Field = "date"
	FieldReference Field = "reference"
)

// ErrInvalidRule is returned when a rule cannot be compiled.
var ErrInvalidRule = errors.New("invalid pattern rule")

// Rule is one candidate regular expression for a field. Group selects the
// capture group holding the value; date rules use named groups instead.
type Rule struct {
	Name          string  `mapstructure:"name"`
	Field         Field   `mapstructure:"field"`
	Regex         string  `mapstructure:"regex"`
	Confidence    float64 `mapstructure:"confidence"`
	Group         int     `mapstructure:"group"`
	Priority      int     `mapstructure:"priority"`
	CaseSensitive bool    `mapstructure:"case_sensitive"`
}

// Institution describes how one bank or wallet writes its messages.
type Institution struct {
	Name     string   `mapstructure:"name"`
	Currency string   `mapstructure:"currency"`
	Senders  []string `mapstructure:"senders"`
	Keywords []string `mapstructure:"keywords"`
	Rules    []Rule   `mapstructure:"rules"`
}

// Keywords are the vocabularies used by the filter, extractor and classifier.
type Keywords struct {
	Debit     []string
	Credit    []string
	Balance   []string
	Amount    []string
	General   []string
	Proximity []string
}

// Financial returns every keyword that marks a message as financial.
func (k Keywords) Financial() []string {
	out := make([]string, 0, len(k.Debit)+len(k.Credit)+len(k.Balance)+len(k.Amount)+len(k.General))
	out = append(out, k.Debit...)
	out = append(out, k.Credit...)
	out = append(out, k.Balance...)
	out = append(out, k.Amount...)
	out = append(out, k.General...)
	return out
}

// Match is a single regex hit.
type Match struct {
	Groups     map[string]string
	Rule       string
	Value      string
	Span       model.Span
	ValueSpan  model.Span
	Confidence float64
	Specific   bool
}

// CompiledRule is a Rule with its compiled expression.
type CompiledRule struct {
	re *regexp.Regexp
	Rule
	specific bool
}

// FindAll returns every non-overlapping match of the rule in body.
func (r CompiledRule) FindAll(body string) []Match {
	idx := r.re.FindAllStringSubmatchIndex(body, -1)
	if len(idx) == 0 {
		return nil
	}
	names := r.re.SubexpNames()
	group := r.Group
	if group <= 0 {
		group = 1
	}

	matches := make([]Match, 0, len(idx))
	for _, loc := range idx {
		m := Match{
			Rule:       r.Name,
			Confidence: r.Confidence,
			Specific:   r.specific,
			Span:       model.Span{Start: loc[0], End: loc[1], Text: body[loc[0]:loc[1]]},
		}
		if 2*group+1 < len(loc) && loc[2*group] >= 0 {
			s, e := loc[2*group], loc[2*group+1]
			m.Value = body[s:e]
			m.ValueSpan = model.Span{Start: s, End: e, Text: m.Value}
		}
		for i, name := range names {
			if name == "" || loc[2*i] < 0 {
				continue
			}
			if m.Groups == nil {
				m.Groups = make(map[string]string)
			}
			m.Groups[name] = body[loc[2*i]:loc[2*i+1]]
		}
		matches = append(matches, m)
	}
	return matches
}

// CompiledInstitution is an Institution ready for matching.
type CompiledInstitution struct {
	rules   map[Field][]CompiledRule
	senders []*regexp.Regexp
	Institution
}

// MatchesSender reports whether sender belongs to the institution.
func (ci *CompiledInstitution) MatchesSender(sender string) bool {
	for _, re := range ci.senders {
		if re.MatchString(sender) {
			return true
		}
	}
	return false
}

// Registry is the set of institution and generic patterns.
// It is safe for concurrent use.
type Registry struct {
	generic      map[Field][]CompiledRule
	institutions []*CompiledInstitution
	keywords     Keywords
	mu           sync.RWMutex
}

// NewRegistry compiles institutions and generic rules.
func NewRegistry(institutions []Institution, generic []Rule, keywords Keywords) (*Registry, error) {
	r := &Registry{keywords: keywords}

	compiledGeneric, err := compileRules(generic, false)
	if err != nil {
		return nil, err
	}
	r.generic = compiledGeneric

	for _, inst := range institutions {
		ci, err := compileInstitution(inst)
		if err != nil {
			return nil, err
		}
		r.institutions = append(r.institutions, ci)
	}

	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := NewRegistry(DefaultInstitutions(), GenericRules(), DefaultKeywords())
	if err != nil {
		panic(fmt.Sprintf("built-in patterns do not compile: %v", err))
	}
	return r
}

// AddInstitutions compiles and appends institutions. An institution with
// the same name as an existing one replaces it.
func (r *Registry) AddInstitutions(institutions []Institution) error {
	compiled := make([]*CompiledInstitution, 0, len(institutions))
	for _, inst := range institutions {
		ci, err := compileInstitution(inst)
		if err != nil {
			return err
		}
		compiled = append(compiled, ci)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ci := range compiled {
		replaced := false
		for i, existing := range r.institutions {
			if strings.EqualFold(existing.Name, ci.Name) {
				r.institutions[i] = ci
				replaced = true
				break
			}
		}
		if !replaced {
			r.institutions = append(r.institutions, ci)
		}
	}
	return nil
}

// Institutions returns the registered institution names in lookup order.
func (r *Registry) Institutions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.institutions))
	for _, ci := range r.institutions {
		names = append(names, ci.Name)
	}
	return names
}

// Keywords returns the registry vocabularies.
func (r *Registry) Keywords() Keywords {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.keywords
}

// Identify finds the institution for a message: by sender first, then by
// institution keywords in the body. It returns nil when nothing matches.
func (r *Registry) Identify(sender, body string) *CompiledInstitution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ci := range r.institutions {
		if ci.MatchesSender(sender) {
			return ci
		}
	}
	for _, ci := range r.institutions {
		if len(FindKeywords(body, ci.Keywords)) > 0 {
			return ci
		}
	}
	return nil
}

// Candidates returns the rules to try for a field: the institution's own
// rules first, then the generic fallbacks.
func (r *Registry) Candidates(inst *CompiledInstitution, field Field) []CompiledRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CompiledRule
	if inst != nil {
		out = append(out, inst.rules[field]...)
	}
	out = append(out, r.generic[field]...)
	return out
}

func compileInstitution(inst Institution) (*CompiledInstitution, error) {
	if strings.TrimSpace(inst.Name) == "" {
		return nil, fmt.Errorf("%w: institution without a name", ErrInvalidRule)
	}
	ci := &CompiledInstitution{Institution: inst}
	for _, s := range inst.Senders {
		re, err := regexp.Compile("(?i)" + s)
		if err != nil {
			return nil, fmt.Errorf("%w: sender pattern %q for %s: %w", ErrInvalidRule, s, inst.Name, err)
		}
		ci.senders = append(ci.senders, re)
	}
	rules, err := compileRules(inst.Rules, true)
	if err != nil {
		return nil, fmt.Errorf("institution %s: %w", inst.Name, err)
	}
	ci.rules = rules
	return ci, nil
}

func compileRules(rules []Rule, specific bool) (map[Field][]CompiledRule, error) {
	out := make(map[Field][]CompiledRule)
	for _, rule := range rules {
		if rule.Field == "" {
			return nil, fmt.Errorf("%w: rule %s has no field", ErrInvalidRule, rule.Name)
		}
		if rule.Confidence < 0 || rule.Confidence > 1 {
			return nil, fmt.Errorf("%w: rule %s confidence %.2f out of range", ErrInvalidRule, rule.Name, rule.Confidence)
		}
		expr := rule.Regex
		if !rule.CaseSensitive && !strings.HasPrefix(expr, "(?i)") {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: %w", ErrInvalidRule, rule.Name, err)
		}
		out[rule.Field] = append(out[rule.Field], CompiledRule{Rule: rule, re: re, specific: specific})
	}

	// Higher priority first; declaration order otherwise.
	for field := range out {
		sort.SliceStable(out[field], func(i, j int) bool {
			return out[field][i].Priority > out[field][j].Priority
		})
	}
	return out, nil
}
