package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"screenprobe/internal/api"
	"screenprobe/internal/bitmap"
)

// maxCaptureBody bounds the compressed body read from a server
const maxCaptureBody = 256 << 20

// ErrRemote is returned when the server answers a capture with an error
var ErrRemote = errors.New("remote capture failed")

// FetchCapture asks the server at hostAddr for a raw capture and rebuilds the
// bitmap. rect is empty for the server's default region or x, y, w, h.
func FetchCapture(ctx context.Context, hostAddr, token string, rect ...int) (*bitmap.Bitmap, error) {
	q := url.Values{"encoding": {"zstd"}}
	switch len(rect) {
	case 0:
	case 4:
		for i, key := range []string{"x", "y", "w", "h"} {
			q.Set(key, strconv.Itoa(rect[i]))
		}
	default:
		return nil, fmt.Errorf("capture rectangle needs 0 or 4 values, got %d", len(rect))
	}
	u := url.URL{Scheme: "http", Host: hostAddr, Path: "/api/capture", RawQuery: q.Encode()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCaptureBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %d %s", ErrRemote, resp.StatusCode, e.Error)
	}
	return api.DecodeRaw(resp.Header, body)
}
