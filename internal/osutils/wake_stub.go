//go:build !darwin && !windows

package osutils

import (
	"errors"
	"os"
)

// ErrWakeUnsupported is returned when no wake mechanism exists on this platform
var ErrWakeUnsupported = errors.New("wake up not implemented on this platform")

// WakeUp is not implemented here
func WakeUp() error {
	return ErrWakeUnsupported
}

// CaptureAvailable reports whether a display server is reachable
func CaptureAvailable() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
