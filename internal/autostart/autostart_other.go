//go:build !windows

package autostart

const runKey = `Software\Microsoft\Windows\CurrentVersion\Run`

func enableRegistry(string) error { return ErrUnsupported }

func disableRegistry() error { return ErrUnsupported }

func isEnabledRegistry() bool { return false }
