// Package autostart registers the tray to launch on login.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"
)

// Label identifies the login item on every platform
const Label = "com.screenprobe.tray"

// ErrUnsupported is returned on platforms without a login item mechanism
var ErrUnsupported = errors.New("autostart is not supported on this platform")

const launchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Command}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const desktopEntry = `[Desktop Entry]
Type=Application
Name=screenprobe
Comment=Color under the pointer in the system tray
Exec={{.Exec}}
X-GNOME-Autostart-enabled=true
NoDisplay=true
`

var (
	plistTmpl   = template.Must(template.New("plist").Parse(launchAgentPlist))
	desktopTmpl = template.Must(template.New("desktop").Parse(desktopEntry))
)

// Agent describes the command started on login
type Agent struct {
	Exec string
	Args []string

	// Home overrides the user's home directory
	Home string

	goos string
}

// New returns an agent that starts the running executable with args
func New(args ...string) (*Agent, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return &Agent{Exec: exe, Args: args, goos: runtime.GOOS}, nil
}

func (a *Agent) command() []string {
	return append([]string{a.Exec}, a.Args...)
}

func (a *Agent) home() (string, error) {
	if a.Home != "" {
		return a.Home, nil
	}
	return os.UserHomeDir()
}

// Path returns where the login item lives. On Windows it names the registry value.
func (a *Agent) Path() (string, error) {
	switch a.goos {
	case "windows":
		return `HKCU\` + runKey + `\` + Label, nil
	case "darwin", "linux", "freebsd", "openbsd", "netbsd":
	default:
		return "", ErrUnsupported
	}

	home, err := a.home()
	if err != nil {
		return "", err
	}
	if a.goos == "darwin" {
		return filepath.Join(home, "Library", "LaunchAgents", Label+".plist"), nil
	}
	return filepath.Join(home, ".config", "autostart", Label+".desktop"), nil
}

// Enable installs the login item, replacing any previous one
func (a *Agent) Enable() error {
	if a.goos == "windows" {
		return enableRegistry(quoteCommand(a.command(), `"`))
	}

	path, err := a.Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if a.goos == "darwin" {
		return plistTmpl.Execute(f, struct {
			Label   string
			Command []string
		}{Label, a.command()})
	}
	return desktopTmpl.Execute(f, struct{ Exec string }{quoteCommand(a.command(), `"`)})
}

// Disable removes the login item. Removing a missing item is not an error.
func (a *Agent) Disable() error {
	if a.goos == "windows" {
		return disableRegistry()
	}

	path, err := a.Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled reports whether the login item is installed
func (a *Agent) IsEnabled() bool {
	if a.goos == "windows" {
		return isEnabledRegistry()
	}

	path, err := a.Path()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// quoteCommand joins argv, quoting words that contain spaces
func quoteCommand(argv []string, q string) string {
	parts := make([]string, len(argv))
	for i, s := range argv {
		if strings.ContainsAny(s, " \t") {
			s = q + s + q
		}
		parts[i] = s
	}
	return strings.Join(parts, " ")
}
