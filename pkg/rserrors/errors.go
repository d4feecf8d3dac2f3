// Package rserrors defines the error taxonomy returned by the simulator
// core, grouped into reference errors, configuration errors, session
// errors, and convergence errors.
package rserrors

import (
	"errors"
	"fmt"
)

// Reference errors: the caller named an entity that does not exist, or is
// of the wrong kind. State is unchanged; these are always surfaced.
var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrLinkNotFound       = errors.New("link not found")
	ErrDeviceNameNotFound = errors.New("device name not found")
	ErrDeviceIsInternal   = errors.New("device is an internal router")
	ErrDeviceIsExternal   = errors.New("device is an external router")
)

// Configuration errors: the operation would violate a structural invariant.
// Surfaced without state change.
var (
	ErrCannotConnectExternalRouters = errors.New("cannot connect two external routers")
	ErrCannotConfigureExternalLink  = errors.New("cannot configure link weight or area on an external link")
	ErrInconsistentConfig           = errors.New("inconsistent configuration")
)

// Session errors: an internal consistency failure while processing a single
// event. The event is dropped and logged; the simulation continues.
var (
	ErrNoBGPSession = errors.New("no BGP session")
)

// Convergence errors: produced only by simulate or by forwarding-state
// queries.
var (
	ErrNoConvergence = errors.New("message cap reached before convergence")
)

// DeviceError names the device (by id or name) that a reference error was
// raised for: a sentinel plus context, with Unwrap returning the sentinel
// for errors.Is.
type DeviceError struct {
	Sentinel error
	Device   string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Sentinel, e.Device)
}

func (e *DeviceError) Unwrap() error { return e.Sentinel }

// NewDeviceError wraps sentinel with the offending device identifier.
func NewDeviceError(sentinel error, device string) *DeviceError {
	return &DeviceError{Sentinel: sentinel, Device: device}
}

// ForwardingLoopError is returned by forwarding-state queries when a router
// appears twice on the traversal stack for the same prefix. Path carries the
// partial path up to and including the repeated router, as a slice of
// router-name strings for diagnostic use (callers that need RouterId values
// can recover them from the originating ForwardingState).
type ForwardingLoopError struct {
	Path []string
}

func (e *ForwardingLoopError) Error() string {
	return fmt.Sprintf("forwarding loop: %v", e.Path)
}

// ForwardingBlackHoleError is returned by forwarding-state queries when some
// node on the path has an empty next-hop set.
type ForwardingBlackHoleError struct {
	Path []string
}

func (e *ForwardingBlackHoleError) Error() string {
	return fmt.Sprintf("forwarding black hole: %v", e.Path)
}
