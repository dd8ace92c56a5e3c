package main

import (
	"bytes"
	"fmt"
	"image/png"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"screenprobe/internal/api"
	"screenprobe/internal/bitmap"
	"screenprobe/internal/compat"
	"screenprobe/internal/diag"
	"screenprobe/internal/network"
	"screenprobe/internal/pixel"
	"screenprobe/internal/provider"
	"screenprobe/internal/robot"
)

// intOrRaw passes unparsable arguments through so argument checking can
// report them.
func intOrRaw(s string) interface{} {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

func (a *app) screensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List connected monitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.facade()
			if err != nil {
				return err
			}
			monitors, err := compat.GetScreens(r)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), monitors, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, diag.MonitorTable(monitors).Render())
				return err
			})
		},
	}
}

func (a *app) sizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size [index]",
		Short: "Show the virtual screen bounds, or one monitor's size",
		Long: `Show screen dimensions. Without an index, or with index 0, the bounds of
the virtual screen spanning all monitors are shown. Index n >= 1 selects the
n-th monitor as listed by "screens". Unknown indexes print null.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.facade()
			if err != nil {
				return err
			}
			var in []interface{}
			for _, s := range args {
				in = append(in, intOrRaw(s))
			}
			size, err := compat.GetScreenSize(r, in...)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), size, func(w io.Writer) error {
				switch {
				case size == nil:
					_, err = fmt.Fprintln(w, "null")
				case size.Virtual:
					_, err = fmt.Fprintf(w, "%dx%d spanning (%d, %d) to (%d, %d)\n",
						size.Width, size.Height, *size.MinX, *size.MinY, *size.MaxX, *size.MaxY)
				default:
					_, err = fmt.Fprintf(w, "%dx%d at (%d, %d)\n", size.Width, size.Height, *size.X, *size.Y)
				}
				return err
			})
		},
	}
}

func (a *app) pixelCmd() *cobra.Command {
	var asRGB bool
	cmd := &cobra.Command{
		Use:   "pixel <x> <y>",
		Short: "Show the color of a pixel in virtual screen coordinates",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.facade()
			if err != nil {
				return err
			}
			in := make([]interface{}, 0, 3)
			for _, s := range args {
				in = append(in, intOrRaw(s))
			}
			if cmd.Flags().Changed("rgb") {
				in = append(in, asRGB)
			}
			v, err := compat.GetPixelColor(r, in...)
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), v, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, describe(v))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asRGB, "rgb", false, "Print r, g, b components instead of hex")
	return cmd
}

func (a *app) mouseColorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mouse-color",
		Short: "Show the color under the pointer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.facade()
			if err != nil {
				return err
			}
			rec := compat.GetMouseColor(r)
			return a.emit(cmd.OutOrStdout(), rec, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "(%d, %d) %s\n", rec.X, rec.Y, describe(rec))
				return err
			})
		},
	}
}

// describe renders any GetPixelColor result for humans
func describe(v interface{}) string {
	switch c := v.(type) {
	case string:
		return c
	case pixel.RGB:
		return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
	case pixel.Record:
		if c.HasError {
			return fmt.Sprintf("%s (unavailable: %s)", c.Hex, c.ErrorCode)
		}
		return c.Hex
	default:
		return fmt.Sprint(v)
	}
}

func (a *app) captureCmd() *cobra.Command {
	var (
		out  string
		raw  bool
		from string
	)
	cmd := &cobra.Command{
		Use:   "capture [x y w h]",
		Short: "Capture the main monitor or a rectangle",
		Long: `Capture a region of the screen. Without arguments the default region from the
config is captured (the main monitor unless set to "virtual"). The result is
written as PNG, or with --raw as the zstd-compressed bitmap buffer.
With --from the capture is taken by a running "screenprobe serve" instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			rect := make([]int, 0, 4)
			for _, s := range args {
				n, err := strconv.Atoi(s)
				if err != nil {
					return fmt.Errorf("%w: %q is not an integer", compat.ErrInvalidArguments, s)
				}
				rect = append(rect, n)
			}

			var bmp *bitmap.Bitmap
			if from != "" {
				bmp, err = network.FetchCapture(cmd.Context(), from, a.cfgMgr.Get().API.Token, rect...)
			} else {
				var r *robot.Robot
				if r, err = a.facade(); err == nil {
					bmp, err = compat.Capture(r, rect...)
				}
			}
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if raw {
				err = api.EncodeRaw(&buf, bmp)
			} else {
				err = png.Encode(&buf, bmp.Image())
			}
			if err != nil {
				return fmt.Errorf("failed to encode capture: %w", err)
			}
			if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
				return err
			}

			a.log.Infof("Capture: wrote %dx%d to %s (%d bytes)", bmp.Width, bmp.Height, out, buf.Len())
			return a.emit(cmd.OutOrStdout(), bmp, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s: %dx%d, %d bpp, stride %d\n", out, bmp.Width, bmp.Height, bmp.BitsPerPixel, bmp.ByteWidth)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "capture.png", "Output file")
	cmd.Flags().BoolVar(&raw, "raw", false, "Write the raw bitmap buffer, zstd-compressed")
	cmd.Flags().StringVar(&from, "from", "", "Capture on the server at host:port")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			platform := provider.Detect(runtime.GOOS, runtime.GOARCH)
			info := map[string]string{"version": provider.Version, "platform": platform.String()}
			return a.emit(cmd.OutOrStdout(), info, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "screenprobe version %s (%s)\n", provider.Version, platform)
				return err
			})
		},
	}
}
