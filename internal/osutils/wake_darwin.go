//go:build darwin

package osutils

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>

static void nudgePointer() {
    CGEventRef event = CGEventCreate(NULL);
    CGPoint loc = CGEventGetLocation(event);
    CFRelease(event);

    // One pixel out and back, enough to end display sleep.
    CGEventRef move1 = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved,
        CGPointMake(loc.x + 1, loc.y + 1), kCGMouseButtonLeft);
    CGEventPost(kCGHIDEventTap, move1);
    CFRelease(move1);

    CGEventRef move2 = CGEventCreateMouseEvent(NULL, kCGEventMouseMoved,
        CGPointMake(loc.x, loc.y), kCGMouseButtonLeft);
    CGEventPost(kCGHIDEventTap, move2);
    CFRelease(move2);
}

static int captureAvailable() {
    CGDirectDisplayID main = CGMainDisplayID();
    if (main == 0) {
        return 0;
    }
    if (CGDisplayIsAsleep(main)) {
        return 0;
    }
    return CGPreflightScreenCaptureAccess() ? 1 : 0;
}
*/
import "C"

// WakeUp nudges the pointer to bring displays out of sleep
func WakeUp() error {
	C.nudgePointer()
	return nil
}

// CaptureAvailable reports whether the main display is awake and the process
// holds the screen recording permission
func CaptureAvailable() bool {
	return C.captureAvailable() == 1
}
