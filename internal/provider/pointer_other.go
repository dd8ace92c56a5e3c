//go:build !windows

package provider

import "github.com/go-vgo/robotgo"

// pointerPosition reads the pointer through robotgo (CoreGraphics or X11)
func pointerPosition() (int, int, error) {
	x, y := robotgo.Location()
	return x, y, nil
}
