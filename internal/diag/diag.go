// Package diag runs self-checks against a live facade and reports the results.
package diag

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"go.uber.org/zap"

	"screenprobe/internal/geometry"
	"screenprobe/internal/pixel"
	"screenprobe/internal/provider"
	"screenprobe/internal/robot"
)

// Facade is the subset of the robot exercised by the checks
type Facade interface {
	Version() string
	Platform() provider.Platform
	ResourcesValid() bool
	Screens() ([]geometry.Monitor, error)
	VirtualBounds() (geometry.VirtualBounds, error)
	ScreenSize(t geometry.Target) (geometry.ScreenSize, bool, error)
	PixelColor(x, y int) (pixel.Sample, error)
	MouseColor() pixel.Sample
}

var _ Facade = (*robot.Robot)(nil)

// Status is the outcome of one check
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Check is one named result
type Check struct {
	Name   string `json:"name" yaml:"name"`
	Status Status `json:"status" yaml:"status"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// StressStats counts the outcomes of repeated pointer sampling
type StressStats struct {
	Iterations int     `json:"iterations" yaml:"iterations"`
	Real       int     `json:"real" yaml:"real"`
	Sentinel   int     `json:"sentinel" yaml:"sentinel"`
	Malformed  int     `json:"malformed" yaml:"malformed"`
	AvgMs      float64 `json:"avg_ms" yaml:"avg_ms"`
	MinMs      float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs      float64 `json:"max_ms" yaml:"max_ms"`
}

// Report is the result of Run
type Report struct {
	Version  string                 `json:"version" yaml:"version"`
	Platform string                 `json:"platform" yaml:"platform"`
	Monitors []geometry.Monitor     `json:"monitors" yaml:"monitors"`
	Virtual  *geometry.VirtualBounds `json:"virtual,omitempty" yaml:"virtual,omitempty"`
	Checks   []Check                `json:"checks" yaml:"checks"`
	Stress   StressStats            `json:"stress" yaml:"stress"`
}

// Passed reports whether no check failed
func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// Count returns how many checks ended with the given status
func (r *Report) Count(s Status) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) add(name string, status Status, format string, args ...interface{}) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: fmt.Sprintf(format, args...)})
}

// Options configures Run
type Options struct {
	// Iterations is the number of pointer samples in the stress loop
	Iterations int

	// Delay is the pause between stress samples
	Delay time.Duration

	// ExpectedVersion defaults to provider.Version
	ExpectedVersion string

	// Wake nudges the system out of idle; nil skips wake recovery
	Wake func() error

	// WakeSettle is how long to wait after Wake before re-checking
	WakeSettle time.Duration

	Logger *zap.SugaredLogger
}

var hexPattern = regexp.MustCompile(`^#[0-9A-F]{6}$`)

// Run executes every check in order. It never stops early; later checks that
// depend on a failed one are skipped.
func Run(f Facade, opts Options) *Report {
	if opts.Iterations <= 0 {
		opts.Iterations = 20
	}
	if opts.ExpectedVersion == "" {
		opts.ExpectedVersion = provider.Version
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.Named("diag")

	r := &Report{Version: f.Version(), Platform: f.Platform().String()}

	if r.Version == opts.ExpectedVersion {
		r.add("version", StatusPass, "%s", r.Version)
	} else {
		r.add("version", StatusFail, "got %s, want %s", r.Version, opts.ExpectedVersion)
	}

	checkResources(r, f, opts, log)

	monitors, err := f.Screens()
	if err != nil {
		r.add("monitors", StatusFail, "%v", err)
		for _, name := range []string{"index lookup", "virtual bounds", "out of bounds", "pixel sample", "idempotence"} {
			r.add(name, StatusSkip, "no monitors")
		}
		stress(r, f, opts, log)
		return r
	}
	r.Monitors = monitors
	checkMonitors(r, monitors)
	checkIndexLookup(r, f, monitors)
	checkVirtualBounds(r, f, monitors)
	checkOutOfBounds(r, f)
	checkSampling(r, f, monitors)
	stress(r, f, opts, log)
	return r
}

func checkResources(r *Report, f Facade, opts Options, log *zap.SugaredLogger) {
	if f.ResourcesValid() {
		r.add("resources", StatusPass, "valid")
		return
	}
	if opts.Wake == nil {
		r.add("resources", StatusWarn, "invalid; wake recovery disabled")
		return
	}

	log.Infof("Diag: resources invalid, attempting wake")
	if err := opts.Wake(); err != nil {
		r.add("resources", StatusWarn, "invalid; wake failed: %v", err)
		return
	}
	if opts.WakeSettle > 0 {
		time.Sleep(opts.WakeSettle)
	}
	if f.ResourcesValid() {
		r.add("resources", StatusPass, "recovered after wake")
		return
	}
	r.add("resources", StatusWarn, "still invalid after wake")
}

func checkMonitors(r *Report, monitors []geometry.Monitor) {
	mains := 0
	for i, m := range monitors {
		if m.Index != i+1 {
			r.add("monitors", StatusFail, "monitor at position %d has index %d", i+1, m.Index)
			return
		}
		if m.Width <= 0 || m.Height <= 0 {
			r.add("monitors", StatusFail, "monitor %d is %dx%d", m.Index, m.Width, m.Height)
			return
		}
		if m.IsMain {
			mains++
		}
	}
	if mains != 1 {
		r.add("monitors", StatusFail, "%d monitors flagged main", mains)
		return
	}
	r.add("monitors", StatusPass, "%d connected", len(monitors))
}

func checkIndexLookup(r *Report, f Facade, monitors []geometry.Monitor) {
	for _, m := range monitors {
		size, ok, err := f.ScreenSize(geometry.MonitorAt(m.Index))
		if err != nil || !ok {
			r.add("index lookup", StatusFail, "monitor %d: ok=%v err=%v", m.Index, ok, err)
			return
		}
		if !reflect.DeepEqual(size, geometry.SizeOfMonitor(m)) {
			r.add("index lookup", StatusFail, "monitor %d: size %dx%d differs from enumeration", m.Index, size.Width, size.Height)
			return
		}
	}

	bare, okBare, errBare := f.ScreenSize(geometry.Virtual())
	zero, okZero, errZero := f.ScreenSize(geometry.TargetFromIndex(0))
	if errBare != nil || errZero != nil || !okBare || !okZero || !reflect.DeepEqual(bare, zero) {
		r.add("index lookup", StatusFail, "index 0 does not match the virtual bounds")
		return
	}

	for _, idx := range []int{-1, len(monitors) + 1} {
		if _, ok, err := f.ScreenSize(geometry.TargetFromIndex(idx)); ok || err != nil {
			r.add("index lookup", StatusFail, "index %d should miss (ok=%v err=%v)", idx, ok, err)
			return
		}
	}
	r.add("index lookup", StatusPass, "1..%d resolve, 0 is virtual, -1 and %d miss", len(monitors), len(monitors)+1)
}

func checkVirtualBounds(r *Report, f Facade, monitors []geometry.Monitor) {
	vb, err := f.VirtualBounds()
	if err != nil {
		r.add("virtual bounds", StatusFail, "%v", err)
		return
	}
	r.Virtual = &vb
	if vb.Width != vb.MaxX-vb.MinX || vb.Height != vb.MaxY-vb.MinY {
		r.add("virtual bounds", StatusFail, "size %dx%d inconsistent with extents", vb.Width, vb.Height)
		return
	}
	for _, m := range monitors {
		if !m.Rect().In(vb.Rect()) {
			r.add("virtual bounds", StatusFail, "monitor %d not contained", m.Index)
			return
		}
	}
	r.add("virtual bounds", StatusPass, "%dx%d at (%d, %d)", vb.Width, vb.Height, vb.MinX, vb.MinY)
}

func checkOutOfBounds(r *Report, f Facade) {
	const far = 10_000_000_000_000
	_, err := f.PixelColor(far, far)
	switch {
	case errors.Is(err, robot.ErrOutOfBounds):
		r.add("out of bounds", StatusPass, "rejected before capture")
	case err == nil:
		r.add("out of bounds", StatusFail, "far coordinates were sampled")
	default:
		r.add("out of bounds", StatusFail, "unexpected error kind: %v", err)
	}
}

func checkSampling(r *Report, f Facade, monitors []geometry.Monitor) {
	main, _ := geometry.Main(monitors)
	x, y := main.X+main.Width/2, main.Y+main.Height/2

	first, err := f.PixelColor(x, y)
	if err != nil {
		r.add("pixel sample", StatusFail, "(%d, %d): %v", x, y, err)
		r.add("idempotence", StatusSkip, "no sample")
		return
	}
	if first.HasError() {
		r.add("pixel sample", StatusWarn, "(%d, %d) unavailable: %s", x, y, first.ErrorCode())
		r.add("idempotence", StatusSkip, "no sample")
		return
	}
	r.add("pixel sample", StatusPass, "(%d, %d) %s", x, y, first.Hex())

	second, err := f.PixelColor(x, y)
	switch {
	case err != nil:
		r.add("idempotence", StatusFail, "%v", err)
	case second.HasError():
		r.add("idempotence", StatusWarn, "second sample unavailable: %s", second.ErrorCode())
	case second.Hex() != first.Hex():
		r.add("idempotence", StatusWarn, "%s then %s; screen content changed?", first.Hex(), second.Hex())
	default:
		r.add("idempotence", StatusPass, "%s twice", first.Hex())
	}
}

func stress(r *Report, f Facade, opts Options, log *zap.SugaredLogger) {
	st := StressStats{Iterations: opts.Iterations}
	var total time.Duration
	for i := 0; i < opts.Iterations; i++ {
		if i > 0 && opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
		start := time.Now()
		s := f.MouseColor()
		d := time.Since(start)

		total += d
		ms := float64(d) / float64(time.Millisecond)
		if i == 0 || ms < st.MinMs {
			st.MinMs = ms
		}
		if ms > st.MaxMs {
			st.MaxMs = ms
		}

		rec := s.Record()
		switch {
		case rec.HasError:
			st.Sentinel++
		case !hexPattern.MatchString(rec.Hex) || rec.Hex != (pixel.RGB{R: rec.R, G: rec.G, B: rec.B}).Hex():
			st.Malformed++
		default:
			st.Real++
		}
		log.Debugf("Diag: sample %d/%d %s hasError=%v", i+1, opts.Iterations, rec.Hex, rec.HasError)
	}
	if opts.Iterations > 0 {
		st.AvgMs = float64(total) / float64(time.Millisecond) / float64(opts.Iterations)
	}
	r.Stress = st

	switch {
	case st.Malformed > 0:
		r.add("mouse color", StatusFail, "%d malformed of %d", st.Malformed, st.Iterations)
	case st.Real == 0:
		r.add("mouse color", StatusFail, "only sentinel results (%d of %d)", st.Sentinel, st.Iterations)
	case st.Sentinel > 0:
		r.add("mouse color", StatusWarn, "%d real, %d sentinel of %d", st.Real, st.Sentinel, st.Iterations)
	default:
		r.add("mouse color", StatusPass, "%d real of %d", st.Real, st.Iterations)
	}
}
