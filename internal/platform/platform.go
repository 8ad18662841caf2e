// Package platform answers questions about the host: permissions, screen
// lock and whether a popup may be drawn.
package platform

import (
	"context"

	"github.com/Veraticus/smsledger/internal/model"
)

// Capabilities is the host contract used by the coordinator and the
// settings manager.
type Capabilities interface {
	SMSPermission(ctx context.Context) (model.PermissionStatus, error)
	OverlayPermission(ctx context.Context) (model.PermissionStatus, error)
	RequestSMSPermission(ctx context.Context) (model.PermissionStatus, error)
	RequestOverlayPermission(ctx context.Context) (model.PermissionStatus, error)
	HasOverlayPermission(ctx context.Context) (bool, error)
	IsDeviceLocked(ctx context.Context) (bool, error)
	HasOtherOverlayActive(ctx context.Context) (bool, error)
}
