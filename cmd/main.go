// screenprobe - display geometry and color query tool
// Multi-monitor bounds, pixel and pointer color sampling, and screen capture.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"screenprobe/internal/config"
	"screenprobe/internal/logging"
	"screenprobe/internal/provider"
	"screenprobe/internal/robot"
)

// newProvider is replaced in tests
var newProvider = provider.New

// app carries what every subcommand needs once flags are parsed
type app struct {
	configPath string
	logLevel   string
	format     string

	cfgMgr *config.Manager
	log    *zap.SugaredLogger
	robot  *robot.Robot
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "screenprobe",
		Short: "Display geometry and color query tool",
		Long: `screenprobe answers questions about the attached displays:
- monitor layout and the virtual screen bounds
- the color of any pixel or of the pixel under the pointer
- screen captures as PNG or raw zstd-compressed bitmaps

It can also serve the same queries over HTTP and websocket, or sit in the
system tray showing the color under the pointer.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVarP(&a.format, "format", "f", "table", "Output format: table, json or yaml")

	root.AddCommand(
		a.screensCmd(),
		a.sizeCmd(),
		a.pixelCmd(),
		a.mouseColorCmd(),
		a.captureCmd(),
		a.serveCmd(),
		a.trayCmd(),
		a.watchCmd(),
		a.diagnoseCmd(),
		a.autostartCmd(),
		a.versionCmd(),
	)
	return root
}

func main() {
	root := newRootCmd()
	root.SetArgs(positionalArgs(root, os.Args[1:]))
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config and builds the logger
func (a *app) setup(cmd *cobra.Command, args []string) error {
	switch a.format {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", a.format)
	}

	if a.configPath != "" {
		a.cfgMgr = config.NewManagerAt(a.configPath)
	} else {
		mgr, err := config.NewManager()
		if err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		a.cfgMgr = mgr
	}
	loadErr := a.cfgMgr.Load()

	level := a.cfgMgr.Get().Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	log, err := logging.New(level)
	if err != nil {
		return err
	}
	a.log = log
	a.cfgMgr.SetLogger(log)

	if loadErr != nil {
		a.log.Warnf("Config: failed to load %s, using defaults: %v", a.cfgMgr.Path(), loadErr)
	}
	return nil
}

// facade builds the robot on first use so commands that never touch the
// display work on unsupported platforms.
func (a *app) facade() (*robot.Robot, error) {
	if a.robot != nil {
		return a.robot, nil
	}
	p, err := newProvider()
	if err != nil {
		return nil, err
	}
	cfg := a.cfgMgr.Get()
	a.robot = robot.New(p, robot.Options{
		Neighborhood:   cfg.Sampling.Neighborhood,
		DefaultCapture: robot.CaptureDefault(cfg.Capture.Default),
		Logger:         a.log,
	})
	a.log.Debugf("Robot: using %s provider %s", p.Platform(), p.Version())
	return a.robot, nil
}

// emit writes v as json or yaml, or calls text for the table format
func (a *app) emit(w io.Writer, v interface{}, text func(io.Writer) error) error {
	switch a.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}
