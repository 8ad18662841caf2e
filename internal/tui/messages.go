package tui

import (
	"time"

	"github.com/Veraticus/smsledger/internal/model"
)

// Coordinator events, delivered through Program.Send.
type suggestionShownMsg struct {
	suggestion model.Suggestion
}

type suggestionDismissedMsg struct {
	suggestion model.Suggestion
	reason     model.DismissReason
}

type notificationMsg struct {
	suggestion model.Suggestion
}

type persistFailedMsg struct {
	err        error
	suggestion model.Suggestion
}

// Results of commands issued by the model.
type actionResultMsg struct {
	err    error
	action string
}

type tickMsg time.Time
