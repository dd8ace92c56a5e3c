//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL = 13
	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmSysKeyDown = 0x0104
)

type kbdLLHook struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

var vkNames = map[uint32]string{
	0x10: "SHIFT", 0xA0: "SHIFT", 0xA1: "SHIFT",
	0x11: "CTRL", 0xA2: "CTRL", 0xA3: "CTRL",
	0x12: "ALT", 0xA4: "ALT", 0xA5: "ALT",
	0x5B: "CMD", 0x5C: "CMD",
	0x09: "TAB",
	0x0D: "ENTER",
	0x1B: "ESC",
	0x20: "SPACE",
}

func vkName(vk uint32) string {
	if name, ok := vkNames[vk]; ok {
		return name
	}
	switch {
	case vk >= 'A' && vk <= 'Z', vk >= '0' && vk <= '9':
		return string(rune(vk))
	case vk >= 0x70 && vk <= 0x7B:
		return fmt.Sprintf("F%d", vk-0x6F)
	}
	return ""
}

// Low-level hooks carry no user data, so one watcher is active at a time
var (
	hookMu      sync.Mutex
	hookWatcher *Watcher
	hookHandle  uintptr
)

func keyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 {
		kbd := (*kbdLLHook)(unsafe.Pointer(lParam))
		if name := vkName(kbd.VkCode); name != "" {
			hookMu.Lock()
			w := hookWatcher
			hookMu.Unlock()
			if w != nil {
				w.Key(name, wParam == wmKeyDown || wParam == wmSysKeyDown)
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(hookHandle, uintptr(nCode), wParam, lParam)
	return ret
}

func startPlatform(w *Watcher) (func(), error) {
	hookMu.Lock()
	if hookWatcher != nil {
		hookMu.Unlock()
		return nil, fmt.Errorf("keyboard hook already installed")
	}
	hookWatcher = w
	hookMu.Unlock()

	started := make(chan error, 1)
	var threadID uint32

	// The hook must be installed on the thread that pumps messages
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		threadID = windows.GetCurrentThreadId()
		h, _, err := procSetWindowsHookEx.Call(whKeyboardLL, syscall.NewCallback(keyboardProc), 0, 0)
		if h == 0 {
			started <- fmt.Errorf("SetWindowsHookExW failed: %v", err)
			return
		}
		hookHandle = h
		started <- nil

		var msg [48]byte
		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&msg[0])), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
		}
		procUnhookWindowsHookEx.Call(h)
	}()

	if err := <-started; err != nil {
		hookMu.Lock()
		hookWatcher = nil
		hookMu.Unlock()
		return nil, err
	}
	w.log.Info("Hotkey: keyboard hook installed")

	return func() {
		procPostThreadMessage.Call(uintptr(threadID), wmQuit, 0, 0)
		hookMu.Lock()
		hookWatcher = nil
		hookMu.Unlock()
	}, nil
}
