//go:build windows

package osutils

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procSendInput        = user32.NewProc("SendInput")
	procOpenInputDesktop = user32.NewProc("OpenInputDesktop")
	procCloseDesktop     = user32.NewProc("CloseDesktop")
)

const (
	inputMouse      = 0
	mouseEventfMove = 0x0001
	desktopReadObjs = 0x0001
)

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type input struct {
	Type uint32
	Mi   mouseInput
	_    [8]byte // union padding up to sizeof(INPUT)
}

func sendMove(dx, dy int32) error {
	in := input{Type: inputMouse}
	in.Mi.Dx = dx
	in.Mi.Dy = dy
	in.Mi.DwFlags = mouseEventfMove

	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n == 0 {
		return fmt.Errorf("SendInput failed: %w", err)
	}
	return nil
}

// WakeUp nudges the pointer one pixel and back to end display sleep
func WakeUp() error {
	if err := sendMove(1, 1); err != nil {
		return err
	}
	return sendMove(-1, -1)
}

// CaptureAvailable reports whether the interactive desktop is reachable.
// It is not while the workstation is locked or the secure desktop (UAC) is up.
func CaptureAvailable() bool {
	h, _, _ := procOpenInputDesktop.Call(0, 0, desktopReadObjs)
	if h == 0 {
		return false
	}
	procCloseDesktop.Call(h)
	return true
}
