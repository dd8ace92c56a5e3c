package compat

import (
	"encoding/json"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenprobe/internal/geometry"
	"screenprobe/internal/pixel"
	"screenprobe/internal/provider"
	"screenprobe/internal/provider/providertest"
	"screenprobe/internal/robot"
)

func setup(t *testing.T) (*providertest.Fake, *robot.Robot) {
	t.Helper()
	fake := providertest.New(
		geometry.RawMonitor{X: 0, Y: 0, Width: 1920, Height: 1080, IsMain: true, DisplayID: 1},
		geometry.RawMonitor{X: 1920, Y: 0, Width: 1080, Height: 1920, DisplayID: 2},
		geometry.RawMonitor{X: -1080, Y: 0, Width: 1080, Height: 1920, DisplayID: 3},
	)
	fake.Paint(50, 50, color.RGBA{R: 0x32, G: 0x32, B: 0x00, A: 255})
	return fake, robot.New(fake, robot.Options{})
}

func TestGetPixelColorArity(t *testing.T) {
	_, r := setup(t)

	for _, args := range [][]any{{}, {1}, {1, 2, true, 4}} {
		_, err := GetPixelColor(r, args...)
		require.Error(t, err)
		assert.True(t, IsInvalidArguments(err))
		assert.Contains(t, err.Error(), "Invalid number")
		assert.Contains(t, err.Error(), "Expected 2 or 3 arguments.")
	}
}

func TestGetPixelColorTypes(t *testing.T) {
	_, r := setup(t)

	for _, args := range [][]any{{"1", 2}, {1, nil}, {1, 2, "yes"}} {
		_, err := GetPixelColor(r, args...)
		assert.ErrorIs(t, err, ErrInvalidArguments, "%v", args)
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   any
		want int
		ok   bool
	}{
		{7, 7, true},
		{int64(-3), -3, true},
		{uint(4), 4, true},
		{uint64(5), 5, true},
		{uint64(math.MaxUint64), 0, false},
		{json.Number("12"), 12, true},
		{json.Number("12.9"), 12, true},
		{json.Number("1e30"), 0, false},
		{json.Number("x"), 0, false},
		{float64(-1.5), -1, true},
		{1e30, 0, false},
		{-1e30, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{float32(2.5), 2, true},
		{"3", 0, false},
	}
	for _, tt := range tests {
		got, ok := toInt(tt.in)
		assert.Equal(t, tt.ok, ok, "%T %v", tt.in, tt.in)
		assert.Equal(t, tt.want, got, "%T %v", tt.in, tt.in)
	}
}

func TestGetPixelColorRejectsHugeFloats(t *testing.T) {
	_, r := setup(t)

	_, err := GetPixelColor(r, 1e30, 0)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	v, err := GetPixelColor(r, json.Number("50"), json.Number("50"))
	require.NoError(t, err)
	assert.IsType(t, "", v)
}

func TestGetPixelColorFormats(t *testing.T) {
	_, r := setup(t)

	hex, err := GetPixelColor(r, 50, 50)
	require.NoError(t, err)
	assert.Equal(t, "#323200", hex)

	hex, err = GetPixelColor(r, 50.9, int64(50), false)
	require.NoError(t, err)
	assert.Equal(t, "#323200", hex)

	rgb, err := GetPixelColor(r, 50, 50, true)
	require.NoError(t, err)
	assert.Equal(t, pixel.RGB{R: 0x32, G: 0x32, B: 0x00}, rgb)
}

func TestGetPixelColorOutOfBounds(t *testing.T) {
	_, r := setup(t)

	_, err := GetPixelColor(r, 1e13, 1e13)
	require.ErrorIs(t, err, robot.ErrOutOfBounds)
	assert.Contains(t, err.Error(), "outside the main screen")
	assert.False(t, IsInvalidArguments(err))
}

func TestGetPixelColorSentinelIsFullRecord(t *testing.T) {
	fake, r := setup(t)
	fake.Valid = false

	for _, args := range [][]any{{50, 50}, {50, 50, true}} {
		v, err := GetPixelColor(r, args...)
		require.NoError(t, err)
		rec, ok := v.(pixel.Record)
		require.True(t, ok, "%T", v)
		assert.True(t, rec.HasError)
		assert.Equal(t, "#000000", rec.Hex)
		assert.Equal(t, pixel.ErrResourcesInvalid, rec.ErrorCode)
	}
}

func TestGetMouseColor(t *testing.T) {
	fake, r := setup(t)
	fake.Pointer = image.Pt(50, 50)

	rec := GetMouseColor(r)
	assert.False(t, rec.HasError)
	assert.Equal(t, "#323200", rec.Hex)
	assert.Equal(t, 50, rec.X)

	fake.Valid = false
	rec = GetMouseColor(r)
	assert.True(t, rec.HasError)
	assert.Equal(t, "#000000", rec.Hex)
}

func TestGetScreenSize(t *testing.T) {
	_, r := setup(t)

	bare, err := GetScreenSize(r)
	require.NoError(t, err)
	require.NotNil(t, bare)
	zero, err := GetScreenSize(r, 0)
	require.NoError(t, err)
	assert.Equal(t, bare, zero)
	assert.Equal(t, 4080, bare.Width)
	assert.Equal(t, -1080, *bare.MinX)

	second, err := GetScreenSize(r, 2)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1080, second.Width)
	assert.Equal(t, 1920, *second.X)

	for _, idx := range []any{-1, 4} {
		miss, err := GetScreenSize(r, idx)
		assert.NoError(t, err)
		assert.Nil(t, miss)
	}

	_, err = GetScreenSize(r, 1, 2)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	_, err = GetScreenSize(r, "1")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestCaptureArity(t *testing.T) {
	fake, r := setup(t)

	bmp, err := Capture(r)
	require.NoError(t, err)
	assert.Equal(t, 1920, bmp.Width)
	assert.Equal(t, 1080, bmp.Height)

	bmp, err = Capture(r, 40, 40, 20, 20)
	require.NoError(t, err)
	hex, err := bmp.ColorAt(10, 10)
	require.NoError(t, err)
	assert.Equal(t, "#323200", hex)

	for _, args := range [][]int{{1}, {1, 2}, {1, 2, 3}, {1, 2, 3, 4, 5}, {0, 0, -5, 10}, {0, 0, 10, 0}} {
		_, err := Capture(r, args...)
		assert.ErrorIs(t, err, ErrInvalidArguments, "%v", args)
	}
	assert.Len(t, fake.Captures, 2)
}

func TestVersionAndValidity(t *testing.T) {
	fake, r := setup(t)

	assert.Equal(t, provider.Version, GetVersion(r))
	assert.Equal(t, "Linux", GetPlatform(r))
	assert.True(t, IsResourcesValid(r))
	fake.Valid = false
	assert.False(t, IsResourcesValid(r))
}
