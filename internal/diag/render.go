package diag

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"screenprobe/internal/geometry"
)

// Formats accepted by Write
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Write renders the report in the given format
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return r.writeTable(w)
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatTable, FormatJSON, FormatYAML)
	}
}

func (r *Report) writeTable(w io.Writer) error {
	fmt.Fprintf(w, "screenprobe %s on %s\n\n", r.Version, r.Platform)

	if len(r.Monitors) > 0 {
		fmt.Fprintln(w, MonitorTable(r.Monitors).Render())
		fmt.Fprintln(w)
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})
	for _, c := range r.Checks {
		t.AppendRow(table.Row{c.Name, c.Status, c.Detail})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d pass", r.Count(StatusPass)),
		fmt.Sprintf("%d warn, %d fail, %d skip", r.Count(StatusWarn), r.Count(StatusFail), r.Count(StatusSkip))})
	fmt.Fprintln(w, t.Render())

	s := r.Stress
	_, err := fmt.Fprintf(w, "\nmouse color: %d real, %d sentinel, %d malformed of %d (avg %.2fms, min %.2fms, max %.2fms)\n",
		s.Real, s.Sentinel, s.Malformed, s.Iterations, s.AvgMs, s.MinMs, s.MaxMs)
	return err
}

// MonitorTable lays out monitors one per row
func MonitorTable(monitors []geometry.Monitor) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "X", "Y", "Width", "Height", "Main", "Display"})
	for _, m := range monitors {
		main := ""
		if m.IsMain {
			main = "*"
		}
		t.AppendRow(table.Row{m.Index, m.X, m.Y, m.Width, m.Height, main, m.DisplayID})
	}
	return t
}
