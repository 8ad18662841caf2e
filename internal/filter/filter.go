// Package filter decides whether an incoming message deserves parsing.
package filter

import (
	"strings"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/pattern"
)

// Filter applies the relevance rules. It has no state beyond its vocabulary.
type Filter struct {
	keywords pattern.Keywords
}

// New creates a Filter using the registry's financial vocabulary.
func New(registry *pattern.Registry) *Filter {
	return &Filter{keywords: registry.Keywords()}
}

// IsRelevant reports whether msg should be processed. Trusted senders are
// always relevant. Anyone else needs a financial keyword and no exclude
// keyword in the body.
func (f *Filter) IsRelevant(msg model.IncomingMessage, settings model.MonitorSettings) bool {
	if IsTrustedSender(msg.Sender, settings.TrustedSenders) {
		return true
	}

	financial := append(f.keywords.Financial(), settings.KeywordFilters...)
	if !pattern.ContainsAny(msg.Body, financial) {
		return false
	}
	return !pattern.ContainsWord(msg.Body, settings.ExcludeKeywords)
}

// IsTrustedSender matches sender against the allow-list by
// case-insensitive substring.
func IsTrustedSender(sender string, trusted []string) bool {
	s := strings.ToLower(strings.TrimSpace(sender))
	if s == "" {
		return false
	}
	for _, t := range trusted {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(s, t) {
			return true
		}
	}
	return false
}
