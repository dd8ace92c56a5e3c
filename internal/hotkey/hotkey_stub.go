//go:build !windows && !darwin

package hotkey

func startPlatform(w *Watcher) (func(), error) {
	return nil, ErrUnsupported
}
