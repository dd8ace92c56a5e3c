package pixel

import "encoding/json"

// ErrorCode explains why a sample is unavailable
type ErrorCode int

const (
	ErrNone ErrorCode = iota
	ErrResourcesInvalid
	ErrPointerUnavailable
	ErrCaptureFailed
	ErrInvalidBitmap
	ErrPointerOutOfBounds
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNone:
		return "none"
	case ErrResourcesInvalid:
		return "resources invalid"
	case ErrPointerUnavailable:
		return "pointer unavailable"
	case ErrCaptureFailed:
		return "capture failed"
	case ErrInvalidBitmap:
		return "invalid bitmap"
	case ErrPointerOutOfBounds:
		return "pointer out of bounds"
	default:
		return "unknown"
	}
}

// Sample is the result of a color query at a point. It is either an
// observation (Ok) or a sentinel (Unavailable) whose color must not be used.
type Sample struct {
	x, y  int
	color RGB
	code  ErrorCode
}

// Ok returns a sample carrying a real observation
func Ok(x, y int, c RGB) Sample {
	return Sample{x: x, y: y, color: c}
}

// Unavailable returns the sentinel sample. The color is always black.
func Unavailable(x, y int, code ErrorCode) Sample {
	if code == ErrNone {
		code = ErrResourcesInvalid
	}
	return Sample{x: x, y: y, code: code}
}

// X returns the sampled x coordinate
func (s Sample) X() int { return s.x }

// Y returns the sampled y coordinate
func (s Sample) Y() int { return s.y }

// HasError reports whether the sample is a sentinel
func (s Sample) HasError() bool { return s.code != ErrNone }

// ErrorCode returns the reason for a sentinel, ErrNone for observations
func (s Sample) ErrorCode() ErrorCode { return s.code }

// Observation returns the observed color; ok is false for sentinels.
func (s Sample) Observation() (RGB, bool) {
	if s.HasError() {
		return RGB{}, false
	}
	return s.color, true
}

// RGB returns the wire color, black for sentinels
func (s Sample) RGB() RGB {
	if s.HasError() {
		return RGB{}
	}
	return s.color
}

// Hex returns the wire hex string, "#000000" for sentinels
func (s Sample) Hex() string {
	return s.RGB().Hex()
}

// Record is the flat wire form of a sample
type Record struct {
	X         int       `json:"x" yaml:"x"`
	Y         int       `json:"y" yaml:"y"`
	R         uint8     `json:"r" yaml:"r"`
	G         uint8     `json:"g" yaml:"g"`
	B         uint8     `json:"b" yaml:"b"`
	Hex       string    `json:"hex" yaml:"hex"`
	HasError  bool      `json:"hasError" yaml:"hasError"`
	ErrorCode ErrorCode `json:"errorCode" yaml:"errorCode"`
}

// Record flattens the sample
func (s Sample) Record() Record {
	c := s.RGB()
	return Record{
		X:         s.x,
		Y:         s.y,
		R:         c.R,
		G:         c.G,
		B:         c.B,
		Hex:       c.Hex(),
		HasError:  s.HasError(),
		ErrorCode: s.code,
	}
}

// Sample rebuilds a sample from its wire form. The color of a record flagged
// with an error is discarded.
func (r Record) Sample() Sample {
	if r.HasError {
		return Unavailable(r.X, r.Y, r.ErrorCode)
	}
	return Ok(r.X, r.Y, RGB{R: r.R, G: r.G, B: r.B})
}

func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Record())
}

func (s *Sample) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	*s = r.Sample()
	return nil
}
