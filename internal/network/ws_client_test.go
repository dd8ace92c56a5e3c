package network

import (
	"context"
	"image"
	"image/color"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"screenprobe/internal/api"
	"screenprobe/internal/config"
	"screenprobe/internal/geometry"
	"screenprobe/internal/pixel"
	"screenprobe/internal/protocol"
	"screenprobe/internal/provider/providertest"
	"screenprobe/internal/robot"
)

func startServer(t *testing.T, token string) string {
	t.Helper()

	fake := providertest.New(geometry.RawMonitor{Width: 800, Height: 600, IsMain: true})
	fake.Paint(10, 20, color.RGBA{R: 0xDE, G: 0xAD, B: 0x01, A: 255})
	fake.Pointer = image.Pt(10, 20)

	mgr := config.NewManagerAt(filepath.Join(t.TempDir(), "config.json"))
	cfg := mgr.Get()
	cfg.API.StreamIntervalMs = 10
	cfg.API.Token = token
	require.NoError(t, mgr.Set(cfg))

	s := api.NewServer(mgr, robot.New(fake, robot.Options{}), nil)
	ts := httptest.NewServer(s.Handler())
	go s.StartHub()
	t.Cleanup(func() {
		ts.Close()
		s.Shutdown(context.Background())
	})
	return strings.TrimPrefix(ts.URL, "http://")
}

func TestWatchClientReceivesStream(t *testing.T) {
	addr := startServer(t, "secret")

	hello := make(chan protocol.HelloPayload, 1)
	samples := make(chan pixel.Sample, 16)
	screens := make(chan []geometry.Monitor, 1)

	c := NewWatchClient(addr, "secret", nil)
	c.OnHello = func(p protocol.HelloPayload) { hello <- p }
	c.OnSample = func(s pixel.Sample) {
		select {
		case samples <- s:
		default:
		}
	}
	c.OnScreens = func(m []geometry.Monitor) { screens <- m }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	select {
	case p := <-hello:
		assert.NotEmpty(t, p.ClientID)
	case <-time.After(5 * time.Second):
		t.Fatal("no hello received")
	}
	assert.NotEmpty(t, c.ClientID())
	assert.True(t, c.IsConnected())

	select {
	case s := <-samples:
		assert.False(t, s.HasError())
		assert.Equal(t, "#DEAD01", s.Hex())
	case <-time.After(5 * time.Second):
		t.Fatal("no sample received")
	}

	c.RequestScreens()
	select {
	case m := <-screens:
		require.Len(t, m, 1)
		assert.Equal(t, 800, m[0].Width)
	case <-time.After(5 * time.Second):
		t.Fatal("no screens received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop")
	}
}

func TestWatchClientRejectedWithoutToken(t *testing.T) {
	addr := startServer(t, "secret")

	c := NewWatchClient(addr, "", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	c.Run(ctx)

	assert.False(t, c.IsConnected())
	assert.Empty(t, c.ClientID())
}
