// Package decoder adapts camera input into decoded QR text for a single session.
package decoder

import "errors"

var (
	// ErrCameraPermission is reported when the user denied camera access.
	ErrCameraPermission = errors.New("camera permission denied")
	// ErrNoCamera is reported when the device has no usable camera.
	ErrNoCamera = errors.New("no camera found")
	// ErrCameraUnavailable covers every other camera failure.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrNotRunning is returned when input arrives while the decode loop is stopped.
	ErrNotRunning = errors.New("decoder not running")
	// ErrAlreadyRunning is returned by Start on a running decoder.
	ErrAlreadyRunning = errors.New("decoder already running")
)

// ErrorKind is the client-side label for a camera failure.
type ErrorKind string

const (
	KindPermission ErrorKind = "permission"
	KindNotFound   ErrorKind = "not_found"
	KindOther      ErrorKind = "other"
)

// CameraError maps a client-reported failure onto the sentinel errors above.
func CameraError(kind ErrorKind, message string) error {
	var base error
	switch kind {
	case KindPermission:
		base = ErrCameraPermission
	case KindNotFound:
		base = ErrNoCamera
	default:
		base = ErrCameraUnavailable
	}

	if message == "" {
		return base
	}
	return &cameraError{base: base, message: message}
}

type cameraError struct {
	base    error
	message string
}

func (e *cameraError) Error() string { return e.base.Error() + ": " + e.message }
func (e *cameraError) Unwrap() error { return e.base }
