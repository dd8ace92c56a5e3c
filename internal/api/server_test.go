package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenprobe/internal/bitmap"
	"screenprobe/internal/config"
	"screenprobe/internal/geometry"
	"screenprobe/internal/pixel"
	"screenprobe/internal/protocol"
	"screenprobe/internal/provider"
	"screenprobe/internal/provider/providertest"
	"screenprobe/internal/robot"
)

type testEnv struct {
	fake   *providertest.Fake
	server *Server
	http   *httptest.Server
}

func newTestEnv(t *testing.T, mutate func(c *config.Config)) *testEnv {
	t.Helper()

	fake := providertest.New(
		geometry.RawMonitor{X: 0, Y: 0, Width: 1920, Height: 1080, IsMain: true, DisplayID: 1},
		geometry.RawMonitor{X: 1920, Y: 0, Width: 1080, Height: 1920, DisplayID: 2},
		geometry.RawMonitor{X: -1080, Y: 0, Width: 1080, Height: 1920, DisplayID: 3},
	)
	fake.Paint(50, 50, color.RGBA{R: 0x32, G: 0x32, B: 0x00, A: 255})
	fake.Pointer = image.Pt(50, 50)

	mgr := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	cfg := mgr.Get()
	cfg.API.StreamIntervalMs = 10
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, mgr.Set(cfg))

	s := NewServer(mgr, robot.New(fake, robot.Options{}), nil)
	go s.wsMgr.start()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.wsMgr.stop()
	})
	return &testEnv{fake: fake, server: s, http: ts}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.API.Token = "secret" })

	resp := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.API.Token = "secret" })

	resp := env.get(t, "/api/screens")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, env.http.URL+"/api/screens", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestScreens(t *testing.T) {
	env := newTestEnv(t, nil)

	var monitors []geometry.Monitor
	decode(t, env.get(t, "/api/screens"), &monitors)
	require.Len(t, monitors, 3)
	assert.True(t, monitors[0].IsMain)
	assert.Equal(t, -1080, monitors[2].X)
}

func TestScreensNoDisplay(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fake.Monitors = nil

	resp := env.get(t, "/api/screens")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	env.fake.Valid = false
	resp = env.get(t, "/api/pixel?x=0&y=0")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestScreenSize(t *testing.T) {
	env := newTestEnv(t, nil)

	var virtual map[string]int
	decode(t, env.get(t, "/api/screen-size"), &virtual)
	assert.Equal(t, map[string]int{"width": 4080, "height": 1920, "minX": -1080, "minY": 0, "maxX": 3000, "maxY": 1920}, virtual)

	var second map[string]int
	decode(t, env.get(t, "/api/screen-size?index=2"), &second)
	assert.Equal(t, map[string]int{"width": 1080, "height": 1920, "x": 1920, "y": 0}, second)

	miss := env.get(t, "/api/screen-size?index=4")
	assert.Equal(t, http.StatusOK, miss.StatusCode)
	body, err := io.ReadAll(miss.Body)
	require.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(body)))

	bad := env.get(t, "/api/screen-size?index=abc")
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestPixel(t *testing.T) {
	env := newTestEnv(t, nil)

	var hex string
	decode(t, env.get(t, "/api/pixel?x=50&y=50"), &hex)
	assert.Equal(t, "#323200", hex)

	var rgb pixel.RGB
	decode(t, env.get(t, "/api/pixel?x=50&y=50&rgb=true"), &rgb)
	assert.Equal(t, pixel.RGB{R: 0x32, G: 0x32}, rgb)
}

func TestPixelErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		query  string
		status int
		want   string
	}{
		{"x=50", http.StatusBadRequest, "Invalid number of arguments"},
		{"", http.StatusBadRequest, "Invalid number of arguments"},
		{"x=a&y=1", http.StatusBadRequest, "invalid arguments"},
		{"x=1&y=1&rgb=maybe", http.StatusBadRequest, "invalid arguments"},
		{"x=10000000000000&y=10000000000000", http.StatusUnprocessableEntity, "outside the main screen"},
	}

	for _, tt := range tests {
		resp := env.get(t, "/api/pixel?"+tt.query)
		assert.Equal(t, tt.status, resp.StatusCode, tt.query)
		var body map[string]string
		decode(t, resp, &body)
		assert.Contains(t, body["error"], tt.want, tt.query)
	}
	assert.Empty(t, env.fake.Captures)
}

func TestPixelSentinel(t *testing.T) {
	env := newTestEnv(t, nil)
	env.fake.Valid = false

	var rec pixel.Record
	resp := env.get(t, "/api/pixel?x=50&y=50&rgb=true")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &rec)
	assert.True(t, rec.HasError)
	assert.Equal(t, "#000000", rec.Hex)
}

func TestMouseColor(t *testing.T) {
	env := newTestEnv(t, nil)

	var rec pixel.Record
	decode(t, env.get(t, "/api/mouse-color"), &rec)
	assert.False(t, rec.HasError)
	assert.Equal(t, "#323200", rec.Hex)
	assert.Equal(t, 50, rec.X)
}

func TestCapturePNG(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/api/capture?x=40&y=40&w=20&h=20")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())
	r, g, b, _ := img.At(10, 10).RGBA()
	assert.Equal(t, [3]uint32{0x32, 0x32, 0}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestCaptureZstd(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.get(t, "/api/capture?x=40&y=40&w=20&h=20&encoding=zstd")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	bmp, err := DecodeRaw(resp.Header, body)
	require.NoError(t, err)
	assert.Equal(t, 20, bmp.Width)
	assert.Equal(t, 32, bmp.BitsPerPixel)
	hex, err := bmp.ColorAt(10, 10)
	require.NoError(t, err)
	assert.Equal(t, "#323200", hex)
}

func TestDecodeRawRejectsOverflowingHeaders(t *testing.T) {
	var body bytes.Buffer
	enc, err := zstd.NewWriter(&body)
	require.NoError(t, err)
	_, err = enc.Write(make([]byte, 16))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	h := http.Header{}
	h.Set(HeaderWidth, "1")
	h.Set(HeaderHeight, "3")
	h.Set(HeaderByteWidth, strconv.Itoa(math.MaxInt/2+1))
	h.Set(HeaderBitsPerPixel, "32")
	h.Set(HeaderBytesPerPixel, "4")

	_, err = DecodeRaw(h, body.Bytes())
	assert.ErrorIs(t, err, bitmap.ErrInvalidBitmap)

	h.Del(HeaderWidth)
	_, err = DecodeRaw(h, body.Bytes())
	assert.Error(t, err)
}

func TestCaptureErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		query  string
		status int
	}{
		{"x=0&y=0", http.StatusBadRequest},
		{"x=0&y=0&w=ten&h=10", http.StatusBadRequest},
		{"x=0&y=0&w=10&h=10&encoding=bmp", http.StatusBadRequest},
		{"x=2990&y=0&w=20&h=20", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		resp := env.get(t, "/api/capture?"+tt.query)
		assert.Equal(t, tt.status, resp.StatusCode, tt.query)
	}

	env.fake.Valid = false
	resp := env.get(t, "/api/capture?x=0&y=0&w=10&h=10")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t, nil)

	var body map[string]interface{}
	decode(t, env.get(t, "/api/version"), &body)
	assert.Equal(t, provider.Version, body["version"])
	assert.Equal(t, "Linux", body["platform"])
	assert.Equal(t, true, body["resources_valid"])
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := http.Post(env.http.URL+"/api/pixel?x=1&y=1", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func readMessage(t *testing.T, conn *websocket.Conn, want protocol.MessageType) protocol.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg protocol.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

func TestWebSocketStream(t *testing.T) {
	env := newTestEnv(t, nil)

	url := "ws" + strings.TrimPrefix(env.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello protocol.HelloPayload
	require.NoError(t, protocol.DecodePayload(readMessage(t, conn, protocol.TypeHello), &hello))
	_, err = uuid.Parse(hello.ClientID)
	assert.NoError(t, err)
	assert.Equal(t, provider.Version, hello.Version)
	assert.Equal(t, 10, hello.IntervalMs)

	var rec pixel.Record
	require.NoError(t, protocol.DecodePayload(readMessage(t, conn, protocol.TypeSample), &rec))
	assert.Equal(t, "#323200", rec.Hex)

	require.NoError(t, conn.WriteJSON(protocol.Message{Type: protocol.TypeScreensRequest}))
	var monitors []geometry.Monitor
	require.NoError(t, protocol.DecodePayload(readMessage(t, conn, protocol.TypeScreens), &monitors))
	assert.Len(t, monitors, 3)
}
