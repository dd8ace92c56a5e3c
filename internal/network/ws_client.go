// Package network provides the client side of the sample stream.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"screenprobe/internal/geometry"
	"screenprobe/internal/pixel"
	"screenprobe/internal/protocol"
)

// WatchClient subscribes to a server's sample stream and reconnects on loss
type WatchClient struct {
	hostAddr       string
	token          string
	reconnectDelay time.Duration
	send           chan protocol.Message
	log            *zap.SugaredLogger

	// Callbacks
	OnHello   func(protocol.HelloPayload)
	OnSample  func(pixel.Sample)
	OnScreens func([]geometry.Monitor)

	mu          sync.Mutex
	isConnected bool
	clientID    string
}

// NewWatchClient creates a client for the server at hostAddr ("host:port")
func NewWatchClient(hostAddr, token string, log *zap.SugaredLogger) *WatchClient {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &WatchClient{
		hostAddr:       hostAddr,
		token:          token,
		reconnectDelay: 5 * time.Second,
		send:           make(chan protocol.Message, 16),
		log:            log.Named("watch"),
	}
}

// Run connects and processes messages until ctx is done
func (c *WatchClient) Run(ctx context.Context) {
	for {
		c.connect(ctx)

		// Disconnected. Wait a bit and retry.
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectDelay):
			c.log.Info("WS Client: Attempting reconnection...")
		}
	}
}

func (c *WatchClient) connect(ctx context.Context) {
	u := url.URL{Scheme: "ws", Host: c.hostAddr, Path: "/ws"}
	c.log.Infof("WS Client: Connecting to %s", u.String())

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		c.log.Warnf("WS Client: Connection failed: %v", err)
		return
	}
	defer conn.Close()

	c.mu.Lock()
	c.isConnected = true
	c.mu.Unlock()

	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		c.writePump(ctx, conn)
	}()
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-connDone:
		}
	}()

	c.readPump(conn)
	conn.Close()

	c.mu.Lock()
	c.isConnected = false
	c.mu.Unlock()

	<-connDone
}

func (c *WatchClient) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warnf("WS Client: Read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warnf("WS Client: Invalid message: %v", err)
			continue
		}
		c.handleMessage(msg)
	}
}

// writePump stops when the connection breaks; readPump closing conn makes
// the next write fail.
func (c *WatchClient) writePump(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.Warnf("WS Client: Write error: %v", err)
				return
			}

		case <-ticker.C:
			if !c.IsConnected() {
				return
			}

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		}
	}
}

func (c *WatchClient) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeHello:
		var payload protocol.HelloPayload
		if err := protocol.DecodePayload(msg, &payload); err != nil {
			c.log.Warnf("WS Client: Invalid hello: %v", err)
			return
		}
		c.mu.Lock()
		c.clientID = payload.ClientID
		c.mu.Unlock()
		c.log.Infof("WS Client: Subscribed as %s (server %s on %s)", payload.ClientID, payload.Version, payload.Platform)
		if c.OnHello != nil {
			c.OnHello(payload)
		}

	case protocol.TypeSample:
		var rec pixel.Record
		if err := protocol.DecodePayload(msg, &rec); err != nil {
			c.log.Warnf("WS Client: Invalid sample: %v", err)
			return
		}
		if c.OnSample != nil {
			c.OnSample(rec.Sample())
		}

	case protocol.TypeScreens:
		var monitors []geometry.Monitor
		if err := protocol.DecodePayload(msg, &monitors); err != nil {
			c.log.Warnf("WS Client: Invalid screens: %v", err)
			return
		}
		if c.OnScreens != nil {
			c.OnScreens(monitors)
		}

	case protocol.TypeError:
		var payload protocol.ErrorPayload
		protocol.DecodePayload(msg, &payload)
		c.log.Warnf("WS Client: Server error: %s", payload.Message)
	}
}

// RequestScreens asks the server for its monitor list
func (c *WatchClient) RequestScreens() {
	c.send <- protocol.Message{Type: protocol.TypeScreensRequest}
}

// IsConnected returns true if the client is connected
func (c *WatchClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}

// ClientID returns the identifier the server assigned, empty before hello
func (c *WatchClient) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}
