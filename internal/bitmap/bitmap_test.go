package bitmap

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gradient builds a 4-byte-per-pixel buffer where pixel (x, y) is
// (x, y, x^y, 0xEE) and each row is padded by pad bytes.
func gradient(w, h, pad int) (int, []byte) {
	byteWidth := w*4 + pad
	buf := make([]byte, byteWidth*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*byteWidth + x*4
			buf[off] = byte(x)
			buf[off+1] = byte(y)
			buf[off+2] = byte(x ^ y)
			buf[off+3] = 0xEE
		}
	}
	return byteWidth, buf
}

func TestColorAtUsesStrideArithmetic(t *testing.T) {
	byteWidth, buf := gradient(100, 100, 0)
	b, err := New(100, 100, byteWidth, 32, 4, buf)
	require.NoError(t, err)

	off := 50*b.ByteWidth + 50*4
	want := []byte{buf[off], buf[off+1], buf[off+2]}

	hex, err := b.ColorAt(50, 50)
	require.NoError(t, err)
	assert.Equal(t, "#323200", hex)
	assert.Equal(t, []byte{0x32, 0x32, 0x00}, want)
}

func TestColorAtWithRowPadding(t *testing.T) {
	byteWidth, buf := gradient(10, 5, 24)
	b, err := New(10, 5, byteWidth, 32, 4, buf)
	require.NoError(t, err)

	c, err := b.RGBAt(9, 4)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), c.R)
	assert.Equal(t, uint8(4), c.G)
	assert.Equal(t, uint8(9^4), c.B)
}

func TestColorAtIgnoresAlpha(t *testing.T) {
	buf := []byte{0x10, 0x20, 0x30, 0x00, 0x10, 0x20, 0x30, 0xFF}
	b, err := New(2, 1, 8, 32, 4, buf)
	require.NoError(t, err)

	first, err := b.ColorAt(0, 0)
	require.NoError(t, err)
	second, err := b.ColorAt(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "#102030", first)
	assert.Equal(t, first, second)
}

func TestColorAtRejectsOutOfRange(t *testing.T) {
	byteWidth, buf := gradient(4, 3, 0)
	b, err := New(4, 3, byteWidth, 32, 4, buf)
	require.NoError(t, err)

	for _, p := range [][2]int{{4, 0}, {0, 3}, {-1, 0}, {0, -1}, {100, 100}} {
		_, err := b.ColorAt(p[0], p[1])
		assert.ErrorIs(t, err, ErrOutOfBitmap, "point %v", p)
	}
}

func TestTwentyFourBitPixels(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 0, 0, 7, 8, 9, 10, 11, 12, 0, 0}
	b, err := New(2, 2, 8, 24, 3, buf)
	require.NoError(t, err)

	hex, err := b.ColorAt(1, 1)
	require.NoError(t, err)
	assert.Equal(t, "#0A0B0C", hex)
}

func TestNewRejectsInconsistentMetadata(t *testing.T) {
	tests := []struct {
		name                              string
		w, h, byteWidth, bits, bytes, buf int
	}{
		{"zero width", 0, 1, 4, 32, 4, 4},
		{"bits mismatch", 1, 1, 4, 24, 4, 4},
		{"too few bytes per pixel", 1, 1, 2, 16, 2, 2},
		{"short stride", 2, 1, 4, 32, 4, 8},
		{"short buffer", 2, 2, 8, 32, 4, 12},
		{"too many bytes per pixel", 1, 1, 16, 128, 16, 16},
		{"stride overflows", 1, 3, math.MaxInt/2 + 1, 32, 4, 16},
		{"row overflows", math.MaxInt/2, 1, math.MaxInt, 32, 4, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h, tt.byteWidth, tt.bits, tt.bytes, make([]byte, tt.buf))
			assert.ErrorIs(t, err, ErrInvalidBitmap)
		})
	}
}

func TestBufferIsOwned(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	b, err := New(1, 1, 4, 32, 4, buf)
	require.NoError(t, err)

	buf[0] = 0xFF
	hex, _ := b.ColorAt(0, 0)
	assert.Equal(t, "#010203", hex)

	out := b.Bytes()
	out[1] = 0xFF
	hex, _ = b.ColorAt(0, 0)
	assert.Equal(t, "#010203", hex)
}

func TestValidatePolicies(t *testing.T) {
	wide, err := New(1, 1, 6, 48, 6, make([]byte, 6))
	require.NoError(t, err)
	assert.ErrorIs(t, wide.Validate(PolicyStrict), ErrInvalidBitmap)
	assert.NoError(t, wide.Validate(PolicyPermissive))

	std, err := New(1, 1, 4, 32, 4, make([]byte, 4))
	require.NoError(t, err)
	assert.NoError(t, std.Validate(PolicyStrict))
	assert.NoError(t, std.Validate(PolicyPermissive))

	var missing *Bitmap
	assert.ErrorIs(t, missing.Validate(PolicyPermissive), ErrInvalidBitmap)
}

func TestFromRGBAAndImageRoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(2, 1, color.RGBA{R: 0xAA, G: 0xBB, B: 0xCC, A: 0x80})

	b, err := FromRGBA(img)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Width)
	assert.Equal(t, 2, b.Height)
	assert.Equal(t, 12, b.ByteWidth)

	hex, err := b.ColorAt(2, 1)
	require.NoError(t, err)
	assert.Equal(t, "#AABBCC", hex)

	out := b.Image()
	assert.Equal(t, color.RGBA{R: 0xAA, G: 0xBB, B: 0xCC, A: 0xFF}, out.RGBAAt(2, 1))
}

func TestFromRGBASubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 3, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	sub := img.SubImage(image.Rect(1, 1, 4, 4)).(*image.RGBA)

	b, err := FromRGBA(sub)
	require.NoError(t, err)
	hex, err := b.ColorAt(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "#010203", hex)
}
