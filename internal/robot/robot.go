// Package robot is the display geometry and color query facade over a
// capability provider.
package robot

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/zap"

	"screenprobe/internal/bitmap"
	"screenprobe/internal/geometry"
	"screenprobe/internal/pixel"
	"screenprobe/internal/provider"
)

// CaptureDefault selects the region captured when none is given
type CaptureDefault string

const (
	CaptureMain    CaptureDefault = "main"
	CaptureVirtual CaptureDefault = "virtual"
)

// DefaultNeighborhood is the side of the block sampled around the pointer
const DefaultNeighborhood = 3

// Options configures a Robot
type Options struct {
	// Neighborhood is the odd side length of the block captured around the pointer
	Neighborhood int

	// DefaultCapture is the region Capture uses
	DefaultCapture CaptureDefault

	Logger *zap.SugaredLogger
}

// Robot answers geometry and color queries. It keeps no state between calls:
// every query re-enumerates and re-validates through the provider. A Robot is
// meant for one logical caller at a time.
type Robot struct {
	provider provider.Provider
	opts     Options
	log      *zap.SugaredLogger
}

// New creates a Robot over the given provider
func New(p provider.Provider, opts Options) *Robot {
	if opts.Neighborhood < 1 || opts.Neighborhood%2 == 0 {
		opts.Neighborhood = DefaultNeighborhood
	}
	if opts.DefaultCapture == "" {
		opts.DefaultCapture = CaptureMain
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Robot{
		provider: p,
		opts:     opts,
		log:      log.Named("robot"),
	}
}

// Version returns the provider's declared version
func (r *Robot) Version() string {
	return r.provider.Version()
}

// Platform returns the provider variant
func (r *Robot) Platform() provider.Platform {
	return r.provider.Platform()
}

// ResourcesValid reports whether sampling is currently expected to succeed
func (r *Robot) ResourcesValid() bool {
	return r.provider.ResourcesValid()
}

// Screens enumerates the connected monitors
func (r *Robot) Screens() ([]geometry.Monitor, error) {
	raw, err := r.provider.RawMonitors()
	if err != nil {
		return nil, fmt.Errorf("failed to list monitors: %w", err)
	}
	return geometry.Enumerate(raw)
}

// VirtualBounds computes the union of all monitors from a fresh enumeration
func (r *Robot) VirtualBounds() (geometry.VirtualBounds, error) {
	monitors, err := r.Screens()
	if err != nil {
		return geometry.VirtualBounds{}, err
	}
	return geometry.ComputeVirtualBounds(monitors), nil
}

// ScreenSize answers a size query. ok is false for a miss (negative index or
// past the last monitor).
func (r *Robot) ScreenSize(t geometry.Target) (geometry.ScreenSize, bool, error) {
	if t.Kind == geometry.KindMiss {
		return geometry.ScreenSize{}, false, nil
	}
	monitors, err := r.Screens()
	if err != nil {
		return geometry.ScreenSize{}, false, err
	}
	size, ok := geometry.Resolve(monitors, t)
	return size, ok, nil
}

// PixelColor samples the pixel at (x, y). Coordinates outside the virtual
// screen fail with ErrOutOfBounds before anything is captured. With no
// display attached it fails with ErrNoDisplay. Invalid resources and failed
// captures yield an unavailable sample, not an error.
func (r *Robot) PixelColor(x, y int) (pixel.Sample, error) {
	bounds, err := r.VirtualBounds()
	if err != nil {
		if !errors.Is(err, ErrNoDisplay) && !r.provider.ResourcesValid() {
			r.log.Debugf("PixelColor: enumeration failed with invalid resources: %v", err)
			return pixel.Unavailable(x, y, pixel.ErrResourcesInvalid), nil
		}
		return pixel.Sample{}, err
	}
	if !bounds.Contains(x, y) {
		return pixel.Sample{}, fmt.Errorf("%w: (%d, %d) not within [%d,%d)x[%d,%d)",
			ErrOutOfBounds, x, y, bounds.MinX, bounds.MaxX, bounds.MinY, bounds.MaxY)
	}

	return r.sample(image.Pt(x, y), image.Rect(x, y, x+1, y+1)), nil
}

// MouseColor samples the pixel under the pointer. It captures a small block
// centred on the reported position and reads the centre, so a pointer reported
// in a slightly different coordinate space still lands on a captured pixel.
// The result always carries the error flag; it never fails.
func (r *Robot) MouseColor() pixel.Sample {
	if !r.provider.ResourcesValid() {
		r.log.Debug("MouseColor: resources invalid, returning sentinel")
		return pixel.Unavailable(0, 0, pixel.ErrResourcesInvalid)
	}

	pos, err := r.provider.PointerPosition()
	if err != nil {
		r.log.Debugf("MouseColor: %v", err)
		return pixel.Unavailable(0, 0, pixel.ErrPointerUnavailable)
	}

	bounds, err := r.VirtualBounds()
	if err != nil {
		r.log.Debugf("MouseColor: %v", err)
		return pixel.Unavailable(pos.X, pos.Y, pixel.ErrCaptureFailed)
	}
	if !bounds.Contains(pos.X, pos.Y) {
		r.log.Debugf("MouseColor: pointer (%d, %d) outside virtual screen", pos.X, pos.Y)
		return pixel.Unavailable(pos.X, pos.Y, pixel.ErrPointerOutOfBounds)
	}

	half := r.opts.Neighborhood / 2
	block := image.Rect(pos.X-half, pos.Y-half, pos.X+half+1, pos.Y+half+1).Intersect(bounds.Rect())
	return r.sample(pos, block)
}

// sample captures block and returns the color at pt, which must lie inside it
func (r *Robot) sample(pt image.Point, block image.Rectangle) pixel.Sample {
	if !r.provider.ResourcesValid() {
		r.log.Debugf("sample: resources became invalid before capturing (%d, %d)", pt.X, pt.Y)
		return pixel.Unavailable(pt.X, pt.Y, pixel.ErrResourcesInvalid)
	}

	bmp, err := r.provider.CaptureRegion(block)
	if err != nil {
		r.log.Debugf("sample: capture of %v failed: %v", block, err)
		if !r.provider.ResourcesValid() {
			return pixel.Unavailable(pt.X, pt.Y, pixel.ErrResourcesInvalid)
		}
		return pixel.Unavailable(pt.X, pt.Y, pixel.ErrCaptureFailed)
	}
	if err := bmp.Validate(r.provider.Platform().BitmapPolicy()); err != nil {
		r.log.Debugf("sample: %v", err)
		return pixel.Unavailable(pt.X, pt.Y, pixel.ErrInvalidBitmap)
	}

	c, err := bmp.RGBAt(pt.X-block.Min.X, pt.Y-block.Min.Y)
	if err != nil {
		r.log.Debugf("sample: %v", err)
		return pixel.Unavailable(pt.X, pt.Y, pixel.ErrInvalidBitmap)
	}
	return pixel.Ok(pt.X, pt.Y, c)
}

// Capture captures the default region: the main monitor, or the whole
// virtual screen when configured so.
func (r *Robot) Capture() (*bitmap.Bitmap, error) {
	monitors, err := r.Screens()
	if err != nil {
		return nil, err
	}

	region := geometry.ComputeVirtualBounds(monitors).Rect()
	if r.opts.DefaultCapture == CaptureMain {
		main, _ := geometry.Main(monitors)
		region = main.Rect()
	}
	return r.capture(region)
}

// CaptureRect captures exactly the given rectangle
func (r *Robot) CaptureRect(rect image.Rectangle) (*bitmap.Bitmap, error) {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return nil, fmt.Errorf("%w: capture size must be positive, got %dx%d", ErrInvalidArguments, rect.Dx(), rect.Dy())
	}
	bounds, err := r.VirtualBounds()
	if err != nil {
		return nil, err
	}
	if !rect.In(bounds.Rect()) {
		return nil, fmt.Errorf("%w: capture %v not within %v", ErrOutOfBounds, rect, bounds.Rect())
	}
	return r.capture(rect)
}

func (r *Robot) capture(rect image.Rectangle) (*bitmap.Bitmap, error) {
	if !r.provider.ResourcesValid() {
		return nil, provider.ErrResourcesInvalid
	}
	bmp, err := r.provider.CaptureRegion(rect)
	if err != nil {
		return nil, err
	}
	if err := bmp.Validate(r.provider.Platform().BitmapPolicy()); err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrCaptureFailed, err)
	}
	return bmp, nil
}
