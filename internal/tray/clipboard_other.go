//go:build !windows

package tray

import "github.com/go-vgo/robotgo"

// CopyText puts text on the system clipboard
func CopyText(text string) error {
	return robotgo.WriteAll(text)
}
