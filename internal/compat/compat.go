// Package compat exposes the facade through loosely typed, variadic entry
// points. Argument counts and types are checked here so the facade itself
// only deals with typed queries.
package compat

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"

	"screenprobe/internal/bitmap"
	"screenprobe/internal/geometry"
	"screenprobe/internal/pixel"
	"screenprobe/internal/provider"
	"screenprobe/internal/robot"
)

// ErrInvalidArguments is returned for a wrong argument count or type
var ErrInvalidArguments = robot.ErrInvalidArguments

const (
	msgPixelArity   = "Invalid number of arguments. Expected 2 or 3 arguments."
	msgSizeArity    = "Invalid number of arguments. Expected 0 or 1 arguments."
	msgCaptureArity = "Invalid number of arguments. Expected 0 or 4 arguments."
)

// Facade is the subset of the robot used by the compatibility layer
type Facade interface {
	Screens() ([]geometry.Monitor, error)
	ScreenSize(t geometry.Target) (geometry.ScreenSize, bool, error)
	PixelColor(x, y int) (pixel.Sample, error)
	MouseColor() pixel.Sample
	Capture() (*bitmap.Bitmap, error)
	CaptureRect(r image.Rectangle) (*bitmap.Bitmap, error)
	Version() string
	ResourcesValid() bool
}

var _ Facade = (*robot.Robot)(nil)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArguments, msg)
}

// IsInvalidArguments reports whether err came from argument checking
func IsInvalidArguments(err error) bool {
	return errors.Is(err, ErrInvalidArguments)
}

// toInt accepts the integer kinds, json.Number and floats, which are
// truncated the way a loosely typed caller's numbers are. Values outside the
// int range are rejected.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		if uint64(n) > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return toInt(i)
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt(f)
	case float32:
		return toInt(float64(n))
	case float64:
		if math.IsNaN(n) || n < math.MinInt || n >= math.MaxInt {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func coords(x, y any) (int, int, error) {
	xi, ok := toInt(x)
	if !ok {
		return 0, 0, invalid(fmt.Sprintf("x must be a number, got %T", x))
	}
	yi, ok := toInt(y)
	if !ok {
		return 0, 0, invalid(fmt.Sprintf("y must be a number, got %T", y))
	}
	return xi, yi, nil
}

// GetPixelColor takes (x, y) or (x, y, rgb). It returns the hex string, or a
// pixel.RGB when rgb is true. Sentinel samples are returned as the full
// pixel.Record in both modes.
func GetPixelColor(f Facade, args ...any) (any, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, invalid(msgPixelArity)
	}
	x, y, err := coords(args[0], args[1])
	if err != nil {
		return nil, err
	}
	asRGB := false
	if len(args) == 3 {
		b, ok := args[2].(bool)
		if !ok {
			return nil, invalid(fmt.Sprintf("rgb flag must be a bool, got %T", args[2]))
		}
		asRGB = b
	}

	s, err := f.PixelColor(x, y)
	if err != nil {
		return nil, err
	}
	if s.HasError() {
		return s.Record(), nil
	}
	if asRGB {
		return s.RGB(), nil
	}
	return s.Hex(), nil
}

// GetMouseColor always returns the full record
func GetMouseColor(f Facade) pixel.Record {
	return f.MouseColor().Record()
}

// GetScreenSize takes an optional index. It returns nil for a miss.
func GetScreenSize(f Facade, args ...any) (*geometry.ScreenSize, error) {
	t := geometry.Virtual()
	switch len(args) {
	case 0:
	case 1:
		i, ok := toInt(args[0])
		if !ok {
			return nil, invalid(fmt.Sprintf("index must be a number, got %T", args[0]))
		}
		t = geometry.TargetFromIndex(i)
	default:
		return nil, invalid(msgSizeArity)
	}

	size, ok, err := f.ScreenSize(t)
	if err != nil || !ok {
		return nil, err
	}
	return &size, nil
}

// GetScreens lists the monitors
func GetScreens(f Facade) ([]geometry.Monitor, error) {
	return f.Screens()
}

// Capture takes no arguments for the default region or exactly x, y, w, h
func Capture(f Facade, args ...int) (*bitmap.Bitmap, error) {
	switch len(args) {
	case 0:
		return f.Capture()
	case 4:
		x, y, w, h := args[0], args[1], args[2], args[3]
		if w <= 0 || h <= 0 {
			return nil, invalid(fmt.Sprintf("capture size must be positive, got %dx%d", w, h))
		}
		return f.CaptureRect(image.Rect(x, y, x+w, y+h))
	default:
		return nil, invalid(msgCaptureArity)
	}
}

// GetVersion returns the provider version
func GetVersion(f Facade) string {
	return f.Version()
}

// IsResourcesValid reports the current resource validity
func IsResourcesValid(f Facade) bool {
	return f.ResourcesValid()
}

// GetPlatform names the provider variant when the facade exposes it
func GetPlatform(f Facade) string {
	if p, ok := f.(interface{ Platform() provider.Platform }); ok {
		return p.Platform().String()
	}
	return provider.PlatformUnsupported.String()
}
