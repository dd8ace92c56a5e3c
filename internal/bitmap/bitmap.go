// Package bitmap provides an immutable view over a raw screen capture buffer.
package bitmap

import (
	"fmt"
	"image"
	"math"

	"screenprobe/internal/pixel"
)

// Policy selects how strictly pixel formats are checked
type Policy int

const (
	// PolicyStrict accepts only 24 and 32 bit pixels
	PolicyStrict Policy = iota
	// PolicyPermissive accepts 2 to 8 bytes per pixel. Apple Silicon capture
	// contexts report unusual formats right after wake.
	PolicyPermissive
)

func (p Policy) String() string {
	if p == PolicyPermissive {
		return "permissive"
	}
	return "strict"
}

// Bitmap is a captured screen region. The pixel layout is R, G, B followed by
// optional extra bytes (usually alpha) per pixel.
type Bitmap struct {
	Width         int `json:"width"`
	Height        int `json:"height"`
	ByteWidth     int `json:"byteWidth"`
	BitsPerPixel  int `json:"bitsPerPixel"`
	BytesPerPixel int `json:"bytesPerPixel"`

	buf []byte
}

// New builds a bitmap from raw metadata. buf is copied.
func New(width, height, byteWidth, bitsPerPixel, bytesPerPixel int, buf []byte) (*Bitmap, error) {
	b := &Bitmap{
		Width:         width,
		Height:        height,
		ByteWidth:     byteWidth,
		BitsPerPixel:  bitsPerPixel,
		BytesPerPixel: bytesPerPixel,
	}
	if err := b.checkLayout(len(buf)); err != nil {
		return nil, err
	}
	b.buf = make([]byte, byteWidth*height)
	copy(b.buf, buf)
	return b, nil
}

// FromRGBA adopts a captured RGBA image
func FromRGBA(img *image.RGBA) (*Bitmap, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidBitmap)
	}
	r := img.Bounds()
	start := img.PixOffset(r.Min.X, r.Min.Y)
	if start < 0 || start > len(img.Pix) {
		return nil, fmt.Errorf("%w: image origin outside pixel buffer", ErrInvalidBitmap)
	}
	return New(r.Dx(), r.Dy(), img.Stride, 32, 4, img.Pix[start:])
}

func (b *Bitmap) checkLayout(bufLen int) error {
	switch {
	case b.Width <= 0 || b.Height <= 0:
		return fmt.Errorf("%w: non-positive size %dx%d", ErrInvalidBitmap, b.Width, b.Height)
	case b.BytesPerPixel < 3:
		return fmt.Errorf("%w: %d bytes per pixel cannot hold RGB", ErrInvalidBitmap, b.BytesPerPixel)
	case b.BytesPerPixel > 8:
		return fmt.Errorf("%w: %d bytes per pixel", ErrInvalidBitmap, b.BytesPerPixel)
	case b.BytesPerPixel*8 != b.BitsPerPixel:
		return fmt.Errorf("%w: %d bits per pixel does not match %d bytes per pixel", ErrInvalidBitmap, b.BitsPerPixel, b.BytesPerPixel)
	case b.Width > math.MaxInt/b.BytesPerPixel, b.ByteWidth > math.MaxInt/b.Height:
		return fmt.Errorf("%w: %dx%d with byte width %d overflows", ErrInvalidBitmap, b.Width, b.Height, b.ByteWidth)
	case b.ByteWidth < b.Width*b.BytesPerPixel:
		return fmt.Errorf("%w: byte width %d shorter than a row of %d pixels", ErrInvalidBitmap, b.ByteWidth, b.Width)
	}
	// The last row only needs its pixels, not the full stride.
	need := b.ByteWidth*(b.Height-1) + b.Width*b.BytesPerPixel
	if bufLen < need {
		return fmt.Errorf("%w: buffer holds %d bytes, need %d", ErrInvalidBitmap, bufLen, need)
	}
	return nil
}

// Validate applies the platform pixel format policy
func (b *Bitmap) Validate(p Policy) error {
	if b == nil || len(b.buf) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidBitmap)
	}
	switch p {
	case PolicyPermissive:
		if b.BytesPerPixel < 2 || b.BytesPerPixel > 8 {
			return fmt.Errorf("%w: %d bytes per pixel", ErrInvalidBitmap, b.BytesPerPixel)
		}
	default:
		if b.BitsPerPixel != 24 && b.BitsPerPixel != 32 {
			return fmt.Errorf("%w: %d bits per pixel", ErrInvalidBitmap, b.BitsPerPixel)
		}
	}
	return nil
}

// InBounds reports whether (x, y) addresses a pixel of the bitmap
func (b *Bitmap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// RGBAt returns the color at (x, y)
func (b *Bitmap) RGBAt(x, y int) (pixel.RGB, error) {
	if !b.InBounds(x, y) {
		return pixel.RGB{}, fmt.Errorf("%w: (%d, %d) not in %dx%d", ErrOutOfBitmap, x, y, b.Width, b.Height)
	}
	off := y*b.ByteWidth + x*b.BytesPerPixel
	p := b.buf[off : off+b.BytesPerPixel]
	return pixel.RGB{R: p[0], G: p[1], B: p[2]}, nil
}

// ColorAt returns the "#RRGGBB" color at (x, y). Bytes past the third are ignored.
func (b *Bitmap) ColorAt(x, y int) (string, error) {
	c, err := b.RGBAt(x, y)
	if err != nil {
		return "", err
	}
	return c.Hex(), nil
}

// Bytes returns a copy of the raw buffer
func (b *Bitmap) Bytes() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// Image converts the bitmap to an opaque RGBA image
func (b *Bitmap) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			off := y*b.ByteWidth + x*b.BytesPerPixel
			i := img.PixOffset(x, y)
			img.Pix[i] = b.buf[off]
			img.Pix[i+1] = b.buf[off+1]
			img.Pix[i+2] = b.buf[off+2]
			img.Pix[i+3] = 255
		}
	}
	return img
}
