// Package geometry models the monitor layout: enumeration snapshots, the
// virtual screen bounds and index based lookups.
package geometry

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDisplay is returned when the provider reports no monitors at all
	ErrNoDisplay = errors.New("no display attached")

	// ErrInvalidMonitor is returned when the provider reports a degenerate monitor
	ErrInvalidMonitor = errors.New("invalid monitor geometry")
)

// RawMonitor is a monitor rectangle as reported by the capability provider
type RawMonitor struct {
	X         int
	Y         int
	Width     int
	Height    int
	IsMain    bool
	DisplayID int
}

// Monitor is one entry of an enumeration snapshot
type Monitor struct {
	// Index is 1-based and only stable within one snapshot
	Index     int  `json:"index" yaml:"index"`
	X         int  `json:"x" yaml:"x"`
	Y         int  `json:"y" yaml:"y"`
	Width     int  `json:"width" yaml:"width"`
	Height    int  `json:"height" yaml:"height"`
	IsMain    bool `json:"isMain" yaml:"isMain"`
	DisplayID int  `json:"displayId" yaml:"displayId"`
}

// Enumerate turns the provider's monitor list into an ordered snapshot with
// exactly one main monitor. Provider order is kept.
func Enumerate(raw []RawMonitor) ([]Monitor, error) {
	if len(raw) == 0 {
		return nil, ErrNoDisplay
	}

	monitors := make([]Monitor, len(raw))
	mainIdx := -1
	for i, r := range raw {
		if r.Width <= 0 || r.Height <= 0 {
			return nil, fmt.Errorf("%w: display %d is %dx%d", ErrInvalidMonitor, r.DisplayID, r.Width, r.Height)
		}
		monitors[i] = Monitor{
			Index:     i + 1,
			X:         r.X,
			Y:         r.Y,
			Width:     r.Width,
			Height:    r.Height,
			DisplayID: r.DisplayID,
		}
		if r.IsMain && mainIdx < 0 {
			mainIdx = i
		}
	}

	// Some backends never flag a primary; the first display is the OS default there.
	if mainIdx < 0 {
		mainIdx = 0
	}
	monitors[mainIdx].IsMain = true

	return monitors, nil
}

// Main returns the main monitor of a snapshot
func Main(monitors []Monitor) (Monitor, bool) {
	for _, m := range monitors {
		if m.IsMain {
			return m, true
		}
	}
	return Monitor{}, false
}
