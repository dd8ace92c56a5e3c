package diag

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"screenprobe/internal/geometry"
	"screenprobe/internal/provider/providertest"
	"screenprobe/internal/robot"
)

func newFake() *providertest.Fake {
	f := providertest.New(
		geometry.RawMonitor{X: 0, Y: 0, Width: 1920, Height: 1080, IsMain: true, DisplayID: 1},
		geometry.RawMonitor{X: 1920, Y: 0, Width: 1080, Height: 1920, DisplayID: 2},
		geometry.RawMonitor{X: -1080, Y: 0, Width: 1080, Height: 1920, DisplayID: 3},
	)
	f.Pointer = image.Pt(100, 100)
	return f
}

func statuses(r *Report) map[string]Status {
	out := make(map[string]Status, len(r.Checks))
	for _, c := range r.Checks {
		out[c.Name] = c.Status
	}
	return out
}

func TestRunHealthy(t *testing.T) {
	r := Run(robot.New(newFake(), robot.Options{}), Options{Iterations: 5})

	assert.True(t, r.Passed())
	assert.Equal(t, map[string]Status{
		"version":        StatusPass,
		"resources":      StatusPass,
		"monitors":       StatusPass,
		"index lookup":   StatusPass,
		"virtual bounds": StatusPass,
		"out of bounds":  StatusPass,
		"pixel sample":   StatusPass,
		"idempotence":    StatusPass,
		"mouse color":    StatusPass,
	}, statuses(r))
	assert.Len(t, r.Monitors, 3)
	require.NotNil(t, r.Virtual)
	assert.Equal(t, 4080, r.Virtual.Width)
	assert.Equal(t, StressStats{Iterations: 5, Real: 5, AvgMs: r.Stress.AvgMs, MinMs: r.Stress.MinMs, MaxMs: r.Stress.MaxMs}, r.Stress)
}

func TestRunVersionMismatch(t *testing.T) {
	fake := newFake()
	fake.VersionValue = "0.0.1"

	r := Run(robot.New(fake, robot.Options{}), Options{Iterations: 1})
	assert.False(t, r.Passed())
	assert.Equal(t, StatusFail, statuses(r)["version"])
}

func TestRunWakeRecovery(t *testing.T) {
	fake := newFake()
	fake.Valid = false
	woken := 0

	r := Run(robot.New(fake, robot.Options{}), Options{
		Iterations: 2,
		Wake: func() error {
			woken++
			fake.Valid = true
			return nil
		},
	})
	assert.Equal(t, 1, woken)
	assert.Equal(t, StatusPass, statuses(r)["resources"])
	assert.Contains(t, r.Checks[1].Detail, "recovered")
}

func TestRunResourcesStayInvalid(t *testing.T) {
	fake := newFake()
	fake.Valid = false

	r := Run(robot.New(fake, robot.Options{}), Options{
		Iterations: 3,
		Wake:       func() error { return errors.New("no input device") },
	})
	got := statuses(r)
	assert.Equal(t, StatusWarn, got["resources"])
	assert.Equal(t, StatusWarn, got["pixel sample"])
	assert.Equal(t, StatusSkip, got["idempotence"])
	assert.Equal(t, StatusFail, got["mouse color"])
	assert.Equal(t, 3, r.Stress.Sentinel)
	assert.False(t, r.Passed())
}

func TestRunNoDisplay(t *testing.T) {
	fake := newFake()
	fake.Monitors = nil

	r := Run(robot.New(fake, robot.Options{}), Options{Iterations: 1})
	got := statuses(r)
	assert.Equal(t, StatusFail, got["monitors"])
	assert.Equal(t, StatusSkip, got["index lookup"])
	assert.Equal(t, StatusFail, got["mouse color"])
}

func TestRunMixedStress(t *testing.T) {
	fake := newFake()
	fake.InvalidateAfterChecks = 12

	r := Run(robot.New(fake, robot.Options{}), Options{Iterations: 6})
	assert.Positive(t, r.Stress.Real)
	assert.Positive(t, r.Stress.Sentinel)
	assert.Equal(t, 6, r.Stress.Real+r.Stress.Sentinel)
	assert.Equal(t, StatusWarn, statuses(r)["mouse color"])
}

func TestWriteFormats(t *testing.T) {
	r := Run(robot.New(newFake(), robot.Options{}), Options{Iterations: 2})

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatJSON))
	var fromJSON Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, r.Checks, fromJSON.Checks)

	buf.Reset()
	require.NoError(t, r.Write(&buf, FormatYAML))
	var fromYAML Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, r.Checks, fromYAML.Checks)
	assert.Equal(t, r.Monitors, fromYAML.Monitors)

	buf.Reset()
	require.NoError(t, r.Write(&buf, FormatTable))
	out := buf.String()
	assert.Contains(t, out, "index lookup")
	assert.Contains(t, out, "1920")
	assert.Contains(t, out, "mouse color: 2 real")

	assert.Error(t, r.Write(&buf, "xml"))
}
