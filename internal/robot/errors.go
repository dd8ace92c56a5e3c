package robot

import (
	"errors"

	"screenprobe/internal/geometry"
)

var (
	// ErrOutOfBounds is returned for coordinates outside the virtual screen
	ErrOutOfBounds = errors.New("requested coordinates are outside the main screen's dimensions")

	// ErrInvalidArguments is returned for malformed queries
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrNoDisplay is returned when no monitor is attached
	ErrNoDisplay = geometry.ErrNoDisplay
)
