package bitmap

import "errors"

var (
	// ErrOutOfBitmap is returned when a pixel lookup falls outside the bitmap
	ErrOutOfBitmap = errors.New("requested coordinates are outside the bitmap's dimensions")

	// ErrInvalidBitmap is returned when the bitmap metadata does not describe its buffer
	ErrInvalidBitmap = errors.New("invalid bitmap")
)
