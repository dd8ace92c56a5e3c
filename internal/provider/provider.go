// Package provider defines the platform capability boundary: raw monitor
// rectangles, pointer position, region capture and resource validity.
package provider

import (
	"fmt"
	"image"
	"runtime"

	"screenprobe/internal/bitmap"
	"screenprobe/internal/geometry"
)

// Version is the declared version of the capability layer
const Version = "0.8.2"

// Platform identifies the provider variant
type Platform int

const (
	PlatformUnsupported Platform = iota
	PlatformWindows
	PlatformMacIntel
	PlatformMacARM
	PlatformLinux
)

// Provider supplies the raw primitives the facade is built on.
// Implementations are not required to be safe for concurrent use.
type Provider interface {
	// RawMonitors returns the connected monitors in OS order
	RawMonitors() ([]geometry.RawMonitor, error)

	// PointerPosition returns the pointer in virtual screen coordinates
	PointerPosition() (image.Point, error)

	// CaptureRegion copies the given virtual screen rectangle
	CaptureRegion(r image.Rectangle) (*bitmap.Bitmap, error)

	// ResourcesValid reports whether capture calls are expected to succeed.
	// It must be cheap enough to call before every operation.
	ResourcesValid() bool

	// Version returns the provider's declared version
	Version() string

	// Platform returns the variant this provider was built for
	Platform() Platform
}

// Detect maps a GOOS/GOARCH pair to a provider variant
func Detect(goos, goarch string) Platform {
	switch goos {
	case "windows":
		return PlatformWindows
	case "darwin":
		switch goarch {
		case "arm64":
			return PlatformMacARM
		case "amd64":
			return PlatformMacIntel
		}
	case "linux":
		return PlatformLinux
	}
	return PlatformUnsupported
}

// New creates the provider for the running platform
func New() (Provider, error) {
	return NewFor(Detect(runtime.GOOS, runtime.GOARCH))
}

// NewFor creates the provider for an explicit variant
func NewFor(p Platform) (Provider, error) {
	switch p {
	case PlatformWindows, PlatformMacIntel, PlatformMacARM, PlatformLinux:
		return newNative(p), nil
	default:
		return nil, fmt.Errorf("%w: %s/%s (supported: windows, darwin/amd64, darwin/arm64, linux)",
			ErrUnsupportedPlatform, runtime.GOOS, runtime.GOARCH)
	}
}

// BitmapPolicy returns the pixel format policy captures are checked against
func (p Platform) BitmapPolicy() bitmap.Policy {
	if p == PlatformMacARM {
		return bitmap.PolicyPermissive
	}
	return bitmap.PolicyStrict
}

func (p Platform) String() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformMacIntel:
		return "macOS (Intel)"
	case PlatformMacARM:
		return "macOS (Apple Silicon)"
	case PlatformLinux:
		return "Linux"
	default:
		return "Unsupported"
	}
}
