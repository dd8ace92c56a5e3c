package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screenprobe/internal/api"
	"screenprobe/internal/diag"
	"screenprobe/internal/geometry"
	"screenprobe/internal/hotkey"
	"screenprobe/internal/network"
	"screenprobe/internal/osutils"
	"screenprobe/internal/pixel"
	"screenprobe/internal/protocol"
	"screenprobe/internal/tray"
)

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve queries over HTTP and stream pointer colors over websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.facade()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = a.cfgMgr.Get().API.Port
			}

			server := api.NewServer(a.cfgMgr, r, a.log)
			ctx, stop := signalContext()
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start(port) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.log.Info("Service: shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from config)")
	return cmd
}

func (a *app) trayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Show the color under the pointer in the system tray",
		Long: `Run in the system tray, refreshing the title with the color under the
pointer. When the API is enabled in the config, the HTTP server runs alongside.
The pick hotkey from the config (default Ctrl+Alt+P) copies the current color.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.facade()
			if err != nil {
				return err
			}
			cfg := a.cfgMgr.Get()

			// One caller at a time: with the API on, the tray samples through it
			sample := r.MouseColor
			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(a.cfgMgr, r, a.log)
				sample = server.MouseColor
				go func() {
					if err := server.Start(cfg.API.Port); err != nil {
						a.log.Errorf("API server error: %v", err)
					}
				}()
			}

			t := tray.New(fmt.Sprintf("screenprobe %s", r.Version()))
			copySample := func() {
				rec := t.Last().Record()
				data, _ := json.Marshal(rec)
				a.log.Infof("Tray: sample %s", data)
				if err := tray.CopyText(rec.Hex); err != nil {
					a.log.Warnf("Tray: copy failed: %v", err)
				}
			}
			t.AddMenuItem("Copy sample", copySample)

			var keys *hotkey.Watcher
			if cfg.Tray.PickHotkey != "" {
				keys = hotkey.NewWatcher(a.log)
				pick := func() {
					if _, ok := t.SampleNow(); ok {
						copySample()
					}
				}
				if err := keys.Bind(cfg.Tray.PickHotkey, pick); err != nil {
					return err
				}
				if err := keys.Start(); err != nil {
					a.log.Warnf("Tray: pick hotkey %s unavailable: %v", cfg.Tray.PickHotkey, err)
				}
			}

			t.AddSeparator()
			t.AddMenuItem("Quit", func() {
				if keys != nil {
					keys.Stop()
				}
				if server != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					server.Shutdown(ctx)
					cancel()
				}
				t.Stop()
			})

			go t.Follow(time.Duration(cfg.Tray.RefreshMs)*time.Millisecond, sample)

			a.log.Info("Tray: running")
			t.Run()
			return nil
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	var (
		addr  string
		token string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the pointer color stream of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfgMgr.Get()
			if addr == "" {
				addr = fmt.Sprintf("127.0.0.1:%d", cfg.API.Port)
			}
			if !cmd.Flags().Changed("token") {
				token = cfg.API.Token
			}

			out := cmd.OutOrStdout()
			client := network.NewWatchClient(addr, token, a.log)
			client.OnHello = func(p protocol.HelloPayload) {
				fmt.Fprintf(out, "connected to screenprobe %s on %s, every %dms\n", p.Version, p.Platform, p.IntervalMs)
				go client.RequestScreens()
			}
			client.OnScreens = func(monitors []geometry.Monitor) {
				a.emit(out, monitors, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, diag.MonitorTable(monitors).Render())
					return err
				})
			}
			var last pixel.Sample
			client.OnSample = func(s pixel.Sample) {
				if s == last {
					return
				}
				last = s
				a.emit(out, s.Record(), func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "(%d, %d) %s\n", s.X(), s.Y(), describe(s.Record()))
					return err
				})
			}

			ctx, stop := signalContext()
			defer stop()
			client.Run(ctx)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Server address host:port (default 127.0.0.1:<api port>)")
	cmd.Flags().StringVar(&token, "token", "", "API token (default from config)")
	return cmd
}

func (a *app) diagnoseCmd() *cobra.Command {
	var (
		iterations int
		delay      time.Duration
		noWake     bool
	)
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Run self-checks against the attached displays",
		Long: `Run self-checks: version, resource validity (with a wake attempt when
invalid), monitor invariants, index lookups, virtual bounds, out-of-bounds
rejection, sampling idempotence and a pointer sampling stress loop.
Exits non-zero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.facade()
			if err != nil {
				return err
			}
			opts := diag.Options{
				Iterations: iterations,
				Delay:      delay,
				WakeSettle: 500 * time.Millisecond,
				Logger:     a.log,
			}
			if !noWake {
				opts.Wake = osutils.WakeUp
			}

			report := diag.Run(r, opts)
			if err := report.Write(cmd.OutOrStdout(), a.format); err != nil {
				return err
			}
			if !report.Passed() {
				return fmt.Errorf("%d diagnostic check(s) failed", report.Count(diag.StatusFail))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 20, "Pointer samples in the stress loop")
	cmd.Flags().DurationVar(&delay, "delay", 50*time.Millisecond, "Pause between stress samples")
	cmd.Flags().BoolVar(&noWake, "no-wake", false, "Do not nudge the pointer when resources are invalid")
	return cmd
}
