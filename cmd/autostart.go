package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"screenprobe/internal/autostart"
)

// newAgent is replaced in tests
var newAgent = func() (*autostart.Agent, error) { return autostart.New("tray") }

func (a *app) autostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage launching the tray on login",
	}

	status := func(cmd *cobra.Command, agent *autostart.Agent) error {
		path, err := agent.Path()
		if err != nil {
			return err
		}
		info := map[string]interface{}{"enabled": agent.IsEnabled(), "path": path}
		return a.emit(cmd.OutOrStdout(), info, func(w io.Writer) error {
			state := "disabled"
			if agent.IsEnabled() {
				state = "enabled"
			}
			_, err := fmt.Fprintf(w, "autostart %s (%s)\n", state, path)
			return err
		})
	}

	change := func(use, short string, apply func(*autostart.Agent) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				agent, err := newAgent()
				if err != nil {
					return err
				}
				if err := apply(agent); err != nil {
					return fmt.Errorf("autostart %s failed: %w", use, err)
				}
				a.log.Infof("Autostart: %s", use)
				return status(cmd, agent)
			},
		}
	}

	cmd.AddCommand(
		change("enable", "Start the tray on login", (*autostart.Agent).Enable),
		change("disable", "Stop starting the tray on login", (*autostart.Agent).Disable),
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the tray starts on login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				agent, err := newAgent()
				if err != nil {
					return err
				}
				return status(cmd, agent)
			},
		},
	)
	return cmd
}
