//go:build windows

package tray

import "errors"

// CopyText is not wired on Windows; the sample is logged instead
func CopyText(text string) error {
	return errors.New("clipboard not supported on windows")
}
