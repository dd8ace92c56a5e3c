package provider

import "errors"

var (
	// ErrUnsupportedPlatform is returned when no provider variant exists for this OS/arch
	ErrUnsupportedPlatform = errors.New("unsupported platform")

	// ErrCaptureFailed is returned when the native capture call fails
	ErrCaptureFailed = errors.New("screen capture failed")

	// ErrPointerUnavailable is returned when the pointer position cannot be read
	ErrPointerUnavailable = errors.New("pointer position unavailable")

	// ErrResourcesInvalid is returned when a capture is attempted on a torn down context
	ErrResourcesInvalid = errors.New("screen capture resources are invalid")
)
