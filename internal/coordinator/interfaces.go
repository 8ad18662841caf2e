package coordinator

import (
	"context"

	"github.com/Veraticus/smsledger/internal/model"
	"github.com/Veraticus/smsledger/internal/service"
)

// Presenter receives suggestion lifecycle events. Calls are made while the
// coordinator holds its lock, so implementations must not call back into
// the Coordinator synchronously.
type Presenter interface {
	ShowVisible(s model.Suggestion)
	DismissVisible(s model.Suggestion, reason model.DismissReason)
	ShowFallbackNotification(s model.Suggestion)
}

// FailureObserver is optionally implemented by a Presenter that wants to
// hear about suggestions the backend never accepted.
type FailureObserver interface {
	PersistenceFailed(s model.Suggestion, err error)
}

// Capabilities answers the display questions asked before a popup.
type Capabilities interface {
	HasOverlayPermission(ctx context.Context) (bool, error)
	IsDeviceLocked(ctx context.Context) (bool, error)
	HasOtherOverlayActive(ctx context.Context) (bool, error)
}

// SettingsReader provides the current monitor settings.
type SettingsReader interface {
	GetSettings(ctx context.Context) (model.MonitorSettings, error)
}

// Persister hands a confirmed suggestion to the backend.
type Persister interface {
	Persist(ctx context.Context, s model.Suggestion) (service.PersistRecord, error)
}

// FeedbackReporter records a user complaint about an extraction.
type FeedbackReporter interface {
	ReportIncorrectExtraction(ctx context.Context, raw string, tx model.ExtractedTransaction) error
}
