// Package hotkey watches for global key combinations.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrUnsupported is returned by Start where no global keyboard hook exists
	ErrUnsupported = errors.New("global hotkeys are not supported on this platform")

	// ErrInvalidCombo is returned for combinations that cannot be parsed
	ErrInvalidCombo = errors.New("invalid hotkey")
)

var modifiers = map[string]bool{"CTRL": true, "ALT": true, "SHIFT": true, "CMD": true}

var aliases = map[string]string{
	"CONTROL": "CTRL",
	"OPTION":  "ALT",
	"OPT":     "ALT",
	"COMMAND": "CMD",
	"WIN":     "CMD",
	"SUPER":   "CMD",
	"META":    "CMD",
	"RETURN":  "ENTER",
	"ESCAPE":  "ESC",
}

// knownKey reports whether name is a key the platform hooks can report
func knownKey(name string) bool {
	if modifiers[name] {
		return true
	}
	if len(name) == 1 {
		c := name[0]
		return (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	switch name {
	case "SPACE", "ENTER", "ESC", "TAB":
		return true
	}
	var n int
	if _, err := fmt.Sscanf(name, "F%d", &n); err == nil {
		return n >= 1 && n <= 12 && name == fmt.Sprintf("F%d", n)
	}
	return false
}

// Combo is a normalized key combination, modifiers first
type Combo []string

// Parse reads combinations like "Ctrl+Alt+P" or "cmd+shift+c".
// At least one non-modifier key is required.
func Parse(s string) (Combo, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCombo)
	}

	seen := make(map[string]bool)
	var mods, keys Combo
	for _, part := range strings.Split(s, "+") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if a, ok := aliases[name]; ok {
			name = a
		}
		if !knownKey(name) {
			return nil, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidCombo, part, s)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %s repeated in %q", ErrInvalidCombo, name, s)
		}
		seen[name] = true
		if modifiers[name] {
			mods = append(mods, name)
		} else {
			keys = append(keys, name)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: %q has only modifiers", ErrInvalidCombo, s)
	}
	return append(mods, keys...), nil
}

func (c Combo) String() string {
	return strings.Join(c, "+")
}

type binding struct {
	combo  Combo
	fn     func()
	active bool
}

// Watcher tracks pressed keys and fires bound callbacks once per press of a
// combination. Key repeat does not fire again until a key of the combination
// is released.
type Watcher struct {
	mu       sync.Mutex
	bindings []*binding
	down     map[string]bool
	log      *zap.SugaredLogger

	// dispatch runs a fired callback
	dispatch func(func())

	stopPlatform func()
}

// NewWatcher creates a watcher with no bindings
func NewWatcher(log *zap.SugaredLogger) *Watcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Watcher{
		down:     make(map[string]bool),
		log:      log,
		dispatch: func(fn func()) { go fn() },
	}
}

// Bind registers fn for the combination s
func (w *Watcher) Bind(s string, fn func()) error {
	combo, err := Parse(s)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.bindings = append(w.bindings, &binding{combo: combo, fn: fn})
	w.mu.Unlock()
	w.log.Debugf("Hotkey: bound %s", combo)
	return nil
}

// Key records a key transition reported by the platform hook
func (w *Watcher) Key(name string, down bool) {
	name = strings.ToUpper(name)

	w.mu.Lock()
	var fire []*binding
	if down {
		w.down[name] = true
		for _, b := range w.bindings {
			if !b.active && w.held(b.combo) {
				b.active = true
				fire = append(fire, b)
			}
		}
	} else {
		delete(w.down, name)
		for _, b := range w.bindings {
			if b.active && !w.held(b.combo) {
				b.active = false
			}
		}
	}
	w.mu.Unlock()

	for _, b := range fire {
		w.log.Debugf("Hotkey: %s pressed", b.combo)
		w.dispatch(b.fn)
	}
}

func (w *Watcher) held(c Combo) bool {
	for _, k := range c {
		if !w.down[k] {
			return false
		}
	}
	return true
}

// Start installs the platform keyboard hook
func (w *Watcher) Start() error {
	stop, err := startPlatform(w)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.stopPlatform = stop
	w.mu.Unlock()
	return nil
}

// Stop removes the platform hook. It is safe to call without Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	stop := w.stopPlatform
	w.stopPlatform = nil
	w.mu.Unlock()
	if stop != nil {
		stop()
	}
}
