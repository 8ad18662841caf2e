package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/smsledger/internal/model"
)

// Sender delivers messages into a running program.
type Sender interface {
	Send(msg tea.Msg)
}

// Presenter forwards coordinator events to the program. It implements
// coordinator.Presenter and coordinator.FailureObserver.
type Presenter struct {
	sender Sender
}

// NewPresenter creates a Presenter that sends to s.
func NewPresenter(s Sender) *Presenter {
	return &Presenter{sender: s}
}

// ShowVisible implements coordinator.Presenter.
func (p *Presenter) ShowVisible(s model.Suggestion) {
	p.sender.Send(suggestionShownMsg{suggestion: s})
}

// DismissVisible implements coordinator.Presenter.
func (p *Presenter) DismissVisible(s model.Suggestion, reason model.DismissReason) {
	p.sender.Send(suggestionDismissedMsg{suggestion: s, reason: reason})
}

// ShowFallbackNotification implements coordinator.Presenter.
func (p *Presenter) ShowFallbackNotification(s model.Suggestion) {
	p.sender.Send(notificationMsg{suggestion: s})
}

// PersistenceFailed implements coordinator.FailureObserver.
func (p *Presenter) PersistenceFailed(s model.Suggestion, err error) {
	p.sender.Send(persistFailedMsg{suggestion: s, err: err})
}
