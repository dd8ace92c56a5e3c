package provider

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"screenprobe/internal/bitmap"
	"screenprobe/internal/geometry"
	"screenprobe/internal/osutils"
)

// nativeProvider implements Provider on top of the OS capture APIs
type nativeProvider struct {
	platform Platform
}

func newNative(p Platform) *nativeProvider {
	return &nativeProvider{platform: p}
}

// RawMonitors returns all active displays. The main display is the one
// anchored at the virtual origin.
func (n *nativeProvider) RawMonitors() ([]geometry.RawMonitor, error) {
	count := screenshot.NumActiveDisplays()
	monitors := make([]geometry.RawMonitor, 0, count)
	for i := 0; i < count; i++ {
		b := screenshot.GetDisplayBounds(i)
		monitors = append(monitors, geometry.RawMonitor{
			X:         b.Min.X,
			Y:         b.Min.Y,
			Width:     b.Dx(),
			Height:    b.Dy(),
			IsMain:    b.Min.X == 0 && b.Min.Y == 0,
			DisplayID: i,
		})
	}
	return monitors, nil
}

// PointerPosition returns the current pointer location
func (n *nativeProvider) PointerPosition() (image.Point, error) {
	x, y, err := pointerPosition()
	if err != nil {
		return image.Point{}, fmt.Errorf("%w: %v", ErrPointerUnavailable, err)
	}
	return image.Pt(x, y), nil
}

// CaptureRegion copies a rectangle of the virtual screen
func (n *nativeProvider) CaptureRegion(r image.Rectangle) (*bitmap.Bitmap, error) {
	if !n.ResourcesValid() {
		return nil, ErrResourcesInvalid
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	bmp, err := bitmap.FromRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	return bmp, nil
}

// ResourcesValid reports whether the desktop can currently be captured
func (n *nativeProvider) ResourcesValid() bool {
	return osutils.CaptureAvailable() && screenshot.NumActiveDisplays() > 0
}

// Version returns the provider version
func (n *nativeProvider) Version() string {
	return Version
}

// Platform returns the provider variant
func (n *nativeProvider) Platform() Platform {
	return n.platform
}
