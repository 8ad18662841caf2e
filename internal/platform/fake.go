package platform

import (
	"context"
	"sync"

	"github.com/Veraticus/smsledger/internal/model"
)

// Fake is a deterministic, mutable Capabilities for tests and demos.
type Fake struct {
	// CheckErr, when set, fails every capability check.
	CheckErr error
	// SMS is the current message permission.
	SMS model.PermissionStatus
	// SMSOnRequest is what RequestSMSPermission changes SMS to.
	SMSOnRequest model.PermissionStatus
	// OverlayOnRequest is what RequestOverlayPermission changes Overlay to.
	OverlayOnRequest bool
	Overlay          bool
	Locked           bool
	OtherOverlay     bool
	SMSRequests      int
	OverlayRequests  int
	mu               sync.Mutex
}

// NewFake returns a Fake with every capability granted.
func NewFake() *Fake {
	return &Fake{
		SMS:              model.PermissionGranted,
		SMSOnRequest:     model.PermissionGranted,
		Overlay:          true,
		OverlayOnRequest: true,
	}
}

// Set mutates the fake under its lock.
func (f *Fake) Set(mutate func(*Fake)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mutate(f)
}

// SMSPermission implements Capabilities.
func (f *Fake) SMSPermission(context.Context) (model.PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SMS, f.CheckErr
}

// OverlayPermission implements Capabilities.
func (f *Fake) OverlayPermission(context.Context) (model.PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CheckErr != nil {
		return model.PermissionUndetermined, f.CheckErr
	}
	if f.Overlay {
		return model.PermissionGranted, nil
	}
	return model.PermissionDenied, nil
}

// RequestSMSPermission implements Capabilities.
func (f *Fake) RequestSMSPermission(context.Context) (model.PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SMSRequests++
	f.SMS = f.SMSOnRequest
	return f.SMS, nil
}

// RequestOverlayPermission implements Capabilities.
func (f *Fake) RequestOverlayPermission(context.Context) (model.PermissionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OverlayRequests++
	f.Overlay = f.OverlayOnRequest
	if f.Overlay {
		return model.PermissionGranted, nil
	}
	return model.PermissionDenied, nil
}

// HasOverlayPermission implements Capabilities.
func (f *Fake) HasOverlayPermission(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Overlay, f.CheckErr
}

// IsDeviceLocked implements Capabilities.
func (f *Fake) IsDeviceLocked(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Locked, f.CheckErr
}

// HasOtherOverlayActive implements Capabilities.
func (f *Fake) HasOtherOverlayActive(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.OtherOverlay, f.CheckErr
}
