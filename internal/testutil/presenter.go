package testutil

import (
	"sync"

	"github.com/Veraticus/smsledger/internal/model"
)

// EventKind names a presenter callback.
type EventKind string

// Presenter event kinds.
const (
	EventShow     EventKind = "show"
	EventDismiss  EventKind = "dismiss"
	EventFallback EventKind = "fallback"
	EventFailed   EventKind = "persist_failed"
)

// PresenterEvent is one recorded callback.
type PresenterEvent struct {
	Err        error
	Kind       EventKind
	Reason     model.DismissReason
	Suggestion model.Suggestion
}

// RecordingPresenter stores every callback it receives. It is safe for
// concurrent use.
type RecordingPresenter struct {
	events []PresenterEvent
	mu     sync.Mutex
}

// ShowVisible records a show event.
func (p *RecordingPresenter) ShowVisible(s model.Suggestion) {
	p.add(PresenterEvent{Kind: EventShow, Suggestion: s})
}

// DismissVisible records a dismiss event.
func (p *RecordingPresenter) DismissVisible(s model.Suggestion, reason model.DismissReason) {
	p.add(PresenterEvent{Kind: EventDismiss, Suggestion: s, Reason: reason})
}

// ShowFallbackNotification records a fallback event.
func (p *RecordingPresenter) ShowFallbackNotification(s model.Suggestion) {
	p.add(PresenterEvent{Kind: EventFallback, Suggestion: s})
}

// PersistenceFailed records a persistence failure.
func (p *RecordingPresenter) PersistenceFailed(s model.Suggestion, err error) {
	p.add(PresenterEvent{Kind: EventFailed, Suggestion: s, Err: err})
}

// Events returns a copy of everything recorded so far.
func (p *RecordingPresenter) Events() []PresenterEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PresenterEvent(nil), p.events...)
}

// Kinds returns the recorded event kinds in order.
func (p *RecordingPresenter) Kinds() []EventKind {
	events := p.Events()
	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Shown returns the suggestions passed to ShowVisible, in order.
func (p *RecordingPresenter) Shown() []model.Suggestion {
	var out []model.Suggestion
	for _, e := range p.Events() {
		if e.Kind == EventShow {
			out = append(out, e.Suggestion)
		}
	}
	return out
}

// Reset clears the recorded events.
func (p *RecordingPresenter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *RecordingPresenter) add(e PresenterEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}
