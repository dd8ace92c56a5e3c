// Package providertest provides an in-memory capability provider for tests.
package providertest

import (
	"errors"
	"image"
	"image/color"

	"screenprobe/internal/bitmap"
	"screenprobe/internal/geometry"
	"screenprobe/internal/provider"
)

// Fake is a programmable Provider backed by a canvas covering the virtual screen
type Fake struct {
	Monitors     []geometry.RawMonitor
	Pointer      image.Point
	PointerErr   error
	CaptureErr   error
	Valid        bool
	VersionValue string
	Variant      provider.Platform

	// InvalidateAfterChecks flips Valid to false once ResourcesValid has been
	// called this many times. Zero disables it.
	InvalidateAfterChecks int

	// BitmapOverride replaces every capture result when set
	BitmapOverride *bitmap.Bitmap

	canvas   *image.RGBA
	Captures []image.Rectangle
	Checks   int
}

// New creates a valid fake with the given monitors and a black canvas
func New(monitors ...geometry.RawMonitor) *Fake {
	f := &Fake{
		Monitors:     monitors,
		Valid:        true,
		VersionValue: provider.Version,
		Variant:      provider.PlatformLinux,
	}
	f.canvas = image.NewRGBA(f.union())
	return f
}

func (f *Fake) union() image.Rectangle {
	var r image.Rectangle
	for _, m := range f.Monitors {
		r = r.Union(image.Rect(m.X, m.Y, m.X+m.Width, m.Y+m.Height))
	}
	return r
}

// Paint sets one pixel of the canvas in virtual screen coordinates
func (f *Fake) Paint(x, y int, c color.RGBA) {
	f.canvas.SetRGBA(x, y, c)
}

// Fill paints a rectangle
func (f *Fake) Fill(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(f.canvas.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.canvas.SetRGBA(x, y, c)
		}
	}
}

// RawMonitors returns the configured monitors
func (f *Fake) RawMonitors() ([]geometry.RawMonitor, error) {
	out := make([]geometry.RawMonitor, len(f.Monitors))
	copy(out, f.Monitors)
	return out, nil
}

// PointerPosition returns the configured pointer
func (f *Fake) PointerPosition() (image.Point, error) {
	if f.PointerErr != nil {
		return image.Point{}, f.PointerErr
	}
	return f.Pointer, nil
}

// CaptureRegion copies r out of the canvas
func (f *Fake) CaptureRegion(r image.Rectangle) (*bitmap.Bitmap, error) {
	f.Captures = append(f.Captures, r)
	if f.CaptureErr != nil {
		return nil, f.CaptureErr
	}
	if !f.Valid {
		return nil, provider.ErrResourcesInvalid
	}
	if f.BitmapOverride != nil {
		return f.BitmapOverride, nil
	}
	if !r.In(f.canvas.Bounds()) {
		return nil, errors.New("fake: capture outside canvas")
	}
	return bitmap.FromRGBA(f.canvas.SubImage(r).(*image.RGBA))
}

// ResourcesValid reports the configured validity
func (f *Fake) ResourcesValid() bool {
	f.Checks++
	if f.InvalidateAfterChecks > 0 && f.Checks > f.InvalidateAfterChecks {
		f.Valid = false
	}
	return f.Valid
}

// Version returns the configured version
func (f *Fake) Version() string {
	return f.VersionValue
}

// Platform returns the configured variant
func (f *Fake) Platform() provider.Platform {
	return f.Variant
}

var _ provider.Provider = (*Fake)(nil)
