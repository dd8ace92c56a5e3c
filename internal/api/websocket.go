package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"screenprobe/internal/compat"
	"screenprobe/internal/pixel"
	"screenprobe/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Local tool; any origin may subscribe
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSManager handles WebSocket connections and the sample stream
type WSManager struct {
	server     *Server
	interval   time.Duration
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan protocol.Message
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	stopOnce   sync.Once
}

// WebSocketClient represents a connected stream subscriber
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	id      string
	ip      string
}

func newWSManager(s *Server, intervalMs int) *WSManager {
	if intervalMs <= 0 {
		intervalMs = 250
	}
	return &WSManager{
		server:     s,
		interval:   time.Duration(intervalMs) * time.Millisecond,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan protocol.Message),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	go m.stream()

	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.clientsMu.Unlock()
			m.server.log.Infof("WS: client %s registered from %s. Total clients: %d", client.id, client.ip, total)

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				m.server.log.Infof("WS: client %s unregistered. Total clients: %d", client.id, len(m.clients))
			}
			m.clientsMu.Unlock()

		case message := <-m.broadcast:
			m.broadcastMessage(message)

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				close(client.send)
				delete(m.clients, client)
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) stop() {
	m.stopOnce.Do(func() { close(m.shutdown) })
}

// ClientCount returns the number of connected subscribers
func (m *WSManager) ClientCount() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

// stream samples the pointer color on every tick while anyone is listening.
// It is the only goroutine of the hub that touches the facade.
func (m *WSManager) stream() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.ClientCount() == 0 {
				continue
			}
			m.BroadcastSample(m.server.MouseColor())

		case <-m.shutdown:
			return
		}
	}
}

func (m *WSManager) broadcastMessage(message protocol.Message) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		m.server.log.Warnf("WS: failed to marshal broadcast message: %v", err)
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		select {
		case client.send <- jsonMsg:
		default:
			close(client.send)
			delete(m.clients, client)
		}
	}
}

// Broadcast queues a message for every subscriber
func (m *WSManager) Broadcast(msg protocol.Message) {
	select {
	case m.broadcast <- msg:
	case <-m.shutdown:
	}
}

// BroadcastSample pushes one sample to every subscriber
func (m *WSManager) BroadcastSample(s pixel.Sample) {
	m.Broadcast(protocol.Message{Type: protocol.TypeSample, Payload: s.Record()})
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.server.log.Warnf("WS: failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		id:      uuid.NewString(),
		ip:      r.RemoteAddr,
	}

	m.server.facadeMu.Lock()
	hello := protocol.HelloPayload{
		ClientID:   client.id,
		Version:    compat.GetVersion(m.server.facade),
		Platform:   m.server.facade.Platform().String(),
		IntervalMs: int(m.interval / time.Millisecond),
	}
	m.server.facadeMu.Unlock()
	client.queue(protocol.Message{Type: protocol.TypeHello, Payload: hello})

	select {
	case m.register <- client:
	case <-m.shutdown:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// queue marshals msg onto the client's send buffer, dropping it when full
func (c *WebSocketClient) queue(msg protocol.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.server.log.Warnf("WS: read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.manager.server.log.Warnf("WS: invalid message format: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeScreensRequest:
		s := c.manager.server
		s.facadeMu.Lock()
		monitors, err := compat.GetScreens(s.facade)
		s.facadeMu.Unlock()
		if err != nil {
			c.reply(protocol.Message{Type: protocol.TypeError, Payload: protocol.ErrorPayload{Message: err.Error()}})
			return
		}
		c.reply(protocol.Message{Type: protocol.TypeScreens, Payload: monitors})

	default:
		c.manager.server.log.Debugf("WS: ignoring %q from %s", msg.Type, c.id)
	}
}

// reply queues msg only while the client is still registered; the hub closes
// send under the same lock.
func (c *WebSocketClient) reply(msg protocol.Message) {
	c.manager.clientsMu.RLock()
	defer c.manager.clientsMu.RUnlock()
	if c.manager.clients[c] {
		c.queue(msg)
	}
}
