package geometry

import "image"

// VirtualBounds is the union bounding box of all monitors
type VirtualBounds struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	MinX   int `json:"minX" yaml:"minX"`
	MinY   int `json:"minY" yaml:"minY"`
	MaxX   int `json:"maxX" yaml:"maxX"`
	MaxY   int `json:"maxY" yaml:"maxY"`
}

// ComputeVirtualBounds returns the union of all monitor rectangles.
// Monitors left of or above the origin produce negative minimums.
func ComputeVirtualBounds(monitors []Monitor) VirtualBounds {
	if len(monitors) == 0 {
		return VirtualBounds{}
	}

	first := monitors[0]
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height

	for _, m := range monitors[1:] {
		minX = min(minX, m.X)
		minY = min(minY, m.Y)
		maxX = max(maxX, m.X+m.Width)
		maxY = max(maxY, m.Y+m.Height)
	}

	return VirtualBounds{
		Width:  maxX - minX,
		Height: maxY - minY,
		MinX:   minX,
		MinY:   minY,
		MaxX:   maxX,
		MaxY:   maxY,
	}
}

// Contains reports whether (x, y) is an addressable pixel. Max edges are exclusive.
func (v VirtualBounds) Contains(x, y int) bool {
	return x >= v.MinX && x < v.MaxX && y >= v.MinY && y < v.MaxY
}

// Rect returns the bounds as an image rectangle
func (v VirtualBounds) Rect() image.Rectangle {
	return image.Rect(v.MinX, v.MinY, v.MaxX, v.MaxY)
}

// Rect returns the monitor as an image rectangle
func (m Monitor) Rect() image.Rectangle {
	return image.Rect(m.X, m.Y, m.X+m.Width, m.Y+m.Height)
}
