//go:build windows

package provider

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos = user32.NewProc("GetCursorPos")
)

type point struct {
	X int32
	Y int32
}

// pointerPosition reads the cursor in physical virtual-screen coordinates
func pointerPosition() (int, int, error) {
	var pt point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return 0, 0, err
	}
	return int(pt.X), int(pt.Y), nil
}
