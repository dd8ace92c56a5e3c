// Package pixel provides color values and the tagged color sample result.
package pixel

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a single 24-bit color
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

const hexDigits = "0123456789ABCDEF"

// Hex formats the color as uppercase "#RRGGBB"
func (c RGB) Hex() string {
	var b [7]byte
	b[0] = '#'
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		b[1+i*2] = hexDigits[v>>4]
		b[2+i*2] = hexDigits[v&0x0F]
	}
	return string(b[:])
}

func (c RGB) String() string {
	return c.Hex()
}

// ParseHex parses "#RRGGBB" (either case) into a color
func ParseHex(s string) (RGB, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(strings.ToUpper(s[1:]), 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
