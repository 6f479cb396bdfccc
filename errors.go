package imrender

import "errors"

// Errors returned by the controller.
var (
	// ErrNilDevice is returned when the device or queue is nil, or a
	// provider does not expose HAL types.
	ErrNilDevice = errors.New("imrender: nil device or queue")

	// ErrNilGUI is returned when no GUI is given.
	ErrNilGUI = errors.New("imrender: nil GUI")

	// ErrInvalidFramesInFlight is returned for a non-positive ring length.
	ErrInvalidFramesInFlight = errors.New("imrender: frames in flight must be at least 1")

	// ErrDisposed is returned by operations on a disposed controller.
	ErrDisposed = errors.New("imrender: controller disposed")
)
