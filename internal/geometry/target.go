package geometry

import "fmt"

// TargetKind discriminates a screen size query
type TargetKind int

const (
	KindVirtual TargetKind = iota
	KindMonitor
	KindMiss
)

// Target selects either the virtual bounds or one monitor of a snapshot
type Target struct {
	Kind  TargetKind
	Index int
}

// Virtual targets the virtual screen bounds
func Virtual() Target {
	return Target{Kind: KindVirtual}
}

// MonitorAt targets the n-th (1-based) monitor
func MonitorAt(n int) Target {
	if n < 1 {
		return Target{Kind: KindMiss, Index: n}
	}
	return Target{Kind: KindMonitor, Index: n}
}

// TargetFromIndex translates the legacy integer convention:
// 0 is the virtual screen, n >= 1 a monitor and anything negative a miss.
func TargetFromIndex(i int) Target {
	switch {
	case i == 0:
		return Virtual()
	case i > 0:
		return MonitorAt(i)
	default:
		return Target{Kind: KindMiss, Index: i}
	}
}

func (t Target) String() string {
	switch t.Kind {
	case KindVirtual:
		return "virtual"
	case KindMonitor:
		return fmt.Sprintf("monitor %d", t.Index)
	default:
		return fmt.Sprintf("invalid index %d", t.Index)
	}
}

// ScreenSize is the answer to a size query. Monitor answers fill X and Y,
// virtual answers fill the Min/Max fields.
type ScreenSize struct {
	Width   int  `json:"width" yaml:"width"`
	Height  int  `json:"height" yaml:"height"`
	X       *int `json:"x,omitempty" yaml:"x,omitempty"`
	Y       *int `json:"y,omitempty" yaml:"y,omitempty"`
	MinX    *int `json:"minX,omitempty" yaml:"minX,omitempty"`
	MinY    *int `json:"minY,omitempty" yaml:"minY,omitempty"`
	MaxX    *int `json:"maxX,omitempty" yaml:"maxX,omitempty"`
	MaxY    *int `json:"maxY,omitempty" yaml:"maxY,omitempty"`
	Virtual bool `json:"-" yaml:"-"`
}

func intPtr(v int) *int { return &v }

// SizeOfMonitor builds the monitor form of ScreenSize
func SizeOfMonitor(m Monitor) ScreenSize {
	return ScreenSize{Width: m.Width, Height: m.Height, X: intPtr(m.X), Y: intPtr(m.Y)}
}

// SizeOfVirtual builds the virtual form of ScreenSize
func SizeOfVirtual(v VirtualBounds) ScreenSize {
	return ScreenSize{
		Width:   v.Width,
		Height:  v.Height,
		MinX:    intPtr(v.MinX),
		MinY:    intPtr(v.MinY),
		MaxX:    intPtr(v.MaxX),
		MaxY:    intPtr(v.MaxY),
		Virtual: true,
	}
}

// Bounds returns the virtual bounds carried by a virtual answer
func (s ScreenSize) Bounds() (VirtualBounds, bool) {
	if !s.Virtual || s.MinX == nil || s.MinY == nil || s.MaxX == nil || s.MaxY == nil {
		return VirtualBounds{}, false
	}
	return VirtualBounds{Width: s.Width, Height: s.Height, MinX: *s.MinX, MinY: *s.MinY, MaxX: *s.MaxX, MaxY: *s.MaxY}, true
}

// Resolve answers a size query against one snapshot. A miss is reported with
// ok == false and is not an error.
func Resolve(monitors []Monitor, t Target) (ScreenSize, bool) {
	switch t.Kind {
	case KindVirtual:
		if len(monitors) == 0 {
			return ScreenSize{}, false
		}
		return SizeOfVirtual(ComputeVirtualBounds(monitors)), true
	case KindMonitor:
		if t.Index < 1 || t.Index > len(monitors) {
			return ScreenSize{}, false
		}
		return SizeOfMonitor(monitors[t.Index-1]), true
	default:
		return ScreenSize{}, false
	}
}
