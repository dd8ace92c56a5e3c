//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices
#include <CoreGraphics/CoreGraphics.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

CGEventRef keyCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

static CFRunLoopRef tapLoop;

static inline CFMachPortRef createKeyTap(uintptr_t refcon) {
    CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) |
                       CGEventMaskBit(kCGEventKeyUp) |
                       CGEventMaskBit(kCGEventFlagsChanged);
    return CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
        kCGEventTapOptionListenOnly, mask, keyCallback, (void*)refcon);
}

// runKeyTap blocks until stopKeyTap
static inline void runKeyTap(CFMachPortRef tap) {
    CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
    tapLoop = CFRunLoopGetCurrent();
    CFRunLoopAddSource(tapLoop, source, kCFRunLoopCommonModes);
    CGEventTapEnable(tap, true);
    CFRunLoopRun();
    CGEventTapEnable(tap, false);
    CFRelease(source);
    CFRelease(tap);
    tapLoop = NULL;
}

static inline void stopKeyTap(void) {
    if (tapLoop) {
        CFRunLoopStop(tapLoop);
    }
}
*/
import "C"
import (
	"errors"
	"runtime"
	"runtime/cgo"
	"unsafe"
)

// Virtual key codes from HIToolbox Events.h
var macKeys = map[uint16]string{
	0: "A", 11: "B", 8: "C", 2: "D", 14: "E", 3: "F", 5: "G", 4: "H", 34: "I",
	38: "J", 40: "K", 37: "L", 46: "M", 45: "N", 31: "O", 35: "P", 12: "Q",
	15: "R", 1: "S", 17: "T", 32: "U", 9: "V", 13: "W", 7: "X", 16: "Y", 6: "Z",
	29: "0", 18: "1", 19: "2", 20: "3", 21: "4", 23: "5", 22: "6", 26: "7", 28: "8", 25: "9",
	122: "F1", 120: "F2", 99: "F3", 118: "F4", 96: "F5", 97: "F6",
	98: "F7", 100: "F8", 101: "F9", 109: "F10", 103: "F11", 111: "F12",
	48: "TAB", 36: "ENTER", 53: "ESC", 49: "SPACE",
}

//export keyCallback
func keyCallback(proxy C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, refcon unsafe.Pointer) C.CGEventRef {
	w := cgo.Handle(uintptr(refcon)).Value().(*Watcher)

	switch eventType {
	case C.kCGEventKeyDown, C.kCGEventKeyUp:
		code := uint16(C.CGEventGetIntegerValueField(event, C.kCGKeyboardEventKeycode))
		if name, ok := macKeys[code]; ok {
			w.Key(name, eventType == C.kCGEventKeyDown)
		}
	case C.kCGEventFlagsChanged:
		flags := C.CGEventGetFlags(event)
		w.Key("CMD", flags&C.kCGEventFlagMaskCommand != 0)
		w.Key("SHIFT", flags&C.kCGEventFlagMaskShift != 0)
		w.Key("ALT", flags&C.kCGEventFlagMaskAlternate != 0)
		w.Key("CTRL", flags&C.kCGEventFlagMaskControl != 0)
	}
	return event
}

func startPlatform(w *Watcher) (func(), error) {
	handle := cgo.NewHandle(w)
	started := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer handle.Delete()

		tap := C.createKeyTap(C.uintptr_t(handle))
		if tap == 0 {
			started <- errors.New("failed to create event tap, Accessibility permission missing?")
			return
		}
		started <- nil
		C.runKeyTap(tap)
	}()

	if err := <-started; err != nil {
		return nil, err
	}
	w.log.Info("Hotkey: event tap installed")
	return func() { C.stopKeyTap() }, nil
}
