package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/rfpanel-core/internal/catalog"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/config"
	"github.com/nerrad567/rfpanel-core/internal/infrastructure/logging"
	"github.com/nerrad567/rfpanel-core/internal/panel"
	"github.com/nerrad567/rfpanel-core/internal/power"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypeTap         = "tap"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	wsSendBufferSize = 256

	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
)

// Channels lists every event channel a client may subscribe to.
var Channels = []string{
	power.EventButtonPressed,
	panel.EventModeChanged,
	EventBridgeHealth,
}

// WSMessage is the envelope for everything the server sends.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// wsRequest is a message received from a client.
type wsRequest struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe requests.
// An empty channel list means every channel.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// WSTapPayload is the payload of a tap request: the button the kiosk
// reports as touched.
type WSTapPayload struct {
	Page   int            `json:"page"`
	Column catalog.Column `json:"column"`
	Slot   int            `json:"slot"`
}

// TapFunc handles a tap received over a WebSocket.
type TapFunc func(ctx context.Context, ref catalog.ButtonRef) (*power.Execution, error)

// Hub tracks connected panel clients and fans events out to the ones
// subscribed to each channel.
//
// A channel may have a snapshot function; a client subscribing to it is sent
// the current value straight away, so a freshly opened kiosk shows the right
// mode without waiting for the next toggle.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu        sync.RWMutex
	clients   map[*WSClient]struct{}
	snapshots map[string]func() any
}

// NewHub creates a hub. Call Run to tie its lifetime to a context.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:       cfg,
		logger:    logger,
		clients:   make(map[*WSClient]struct{}),
		snapshots: make(map[string]func() any),
	}
}

// SetSnapshot registers fn as the current-state source for channel.
func (h *Hub) SetSnapshot(channel string, fn func() any) {
	h.mu.Lock()
	h.snapshots[channel] = fn
	h.mu.Unlock()
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// Unregister removes a client. Only the call that actually removes it closes
// the send channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		client.closeSend()
		h.logger.Debug("websocket client disconnected", "clients", n)
	}
}

// Broadcast sends payload to every client subscribed to channel.
// It implements power.EventBroadcaster.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(eventMessage(channel, payload))
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "channel", channel, "error", err)
		return
	}

	// Hub lock is released before client locks are taken.
	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	recipients := 0
	for _, client := range clients {
		if client.isSubscribed(channel) {
			client.trySend(data)
			recipients++
		}
	}
	if recipients > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", recipients)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot(channel string) (any, bool) {
	h.mu.RLock()
	fn, ok := h.snapshots[channel]
	h.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return fn(), true
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.closeSend()
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

func eventMessage(channel string, payload any) WSMessage {
	return WSMessage{
		Type:      WSTypeEvent,
		Channel:   channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	}
}

// ─── Connection ────────────────────────────────────────────────────

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// LAN-only kiosk API; cross-origin policy lives in the CORS middleware.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// WSClient is one connected kiosk or dashboard.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	tap  TapFunc

	mu            sync.RWMutex
	subscriptions map[string]struct{}
	closed        bool // send is closed; guarded by mu
}

func newWSClient(hub *Hub, conn *websocket.Conn, tap TapFunc) *WSClient {
	return &WSClient{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		tap:           tap,
		subscriptions: make(map[string]struct{}),
	}
}

// handleWebSocket upgrades the connection. Clients receive nothing until
// they subscribe; they may send taps at any time.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := newWSClient(s.hub, conn, s.panel.Tap)
	s.hub.Register(client)

	timing := newWSTiming(s.wsCfg)
	go client.writePump(timing)
	go client.readPump(timing)
}

// wsTiming holds the keepalive settings with defaults applied.
type wsTiming struct {
	readLimit    int64
	pingInterval time.Duration
	pongWait     time.Duration
}

func newWSTiming(cfg config.WebSocketConfig) wsTiming {
	t := wsTiming{
		readLimit:    int64(cfg.MaxMessageSize),
		pingInterval: time.Duration(cfg.PingInterval) * time.Second,
		pongWait:     time.Duration(cfg.PongTimeout) * time.Second,
	}
	if t.pingInterval <= 0 {
		t.pingInterval = defaultPingInterval
	}
	if t.pongWait <= 0 {
		t.pongWait = defaultPongTimeout
	}
	return t
}

// deadline is how long a silent client is kept.
func (t wsTiming) deadline() time.Time {
	return time.Now().Add(t.pingInterval + t.pongWait)
}

func (c *WSClient) readPump(t wsTiming) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(t.readLimit)
	c.conn.SetReadDeadline(t.deadline()) //nolint:errcheck // reported by the next read
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(t.deadline())
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		// Browsers do not always answer protocol pings; any message counts.
		c.conn.SetReadDeadline(t.deadline()) //nolint:errcheck // reported by the next read
		c.handleMessage(data)
	}
}

func (c *WSClient) writePump(t wsTiming) {
	ticker := time.NewTicker(t.pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(t.pongWait)) //nolint:errcheck // write error checked below
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(t.pongWait)) //nolint:errcheck // write error checked below
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Client requests ───────────────────────────────────────────────

func (c *WSClient) handleMessage(data []byte) {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch req.Type {
	case WSTypeSubscribe:
		c.handleSubscribe(req)
	case WSTypeUnsubscribe:
		c.handleUnsubscribe(req)
	case WSTypeTap:
		c.handleTap(req)
	case WSTypePing:
		c.reply(req.ID, WSTypePong, nil)
	default:
		c.sendError(req.ID, "unknown message type: "+req.Type)
	}
}

// channels decodes a subscribe/unsubscribe payload. It reports false after
// sending an error to the client.
func (c *WSClient) channels(req wsRequest) ([]string, bool) {
	var sub WSSubscribePayload
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &sub); err != nil {
			c.sendError(req.ID, "invalid "+req.Type+" payload")
			return nil, false
		}
	}
	if len(sub.Channels) == 0 {
		return Channels, true
	}
	for _, ch := range sub.Channels {
		if !slices.Contains(Channels, ch) {
			c.sendError(req.ID, "unknown channel: "+ch)
			return nil, false
		}
	}
	return sub.Channels, true
}

func (c *WSClient) handleSubscribe(req wsRequest) {
	channels, ok := c.channels(req)
	if !ok {
		return
	}

	c.mu.Lock()
	for _, ch := range channels {
		c.subscriptions[ch] = struct{}{}
	}
	c.mu.Unlock()

	c.hub.logger.Debug("websocket client subscribed", "channels", channels)
	c.reply(req.ID, WSTypeResponse, map[string]any{"subscribed": channels})

	for _, ch := range channels {
		if payload, ok := c.hub.snapshot(ch); ok {
			c.sendJSON(eventMessage(ch, payload))
		}
	}
}

func (c *WSClient) handleUnsubscribe(req wsRequest) {
	channels, ok := c.channels(req)
	if !ok {
		return
	}

	c.mu.Lock()
	for _, ch := range channels {
		delete(c.subscriptions, ch)
	}
	c.mu.Unlock()

	c.reply(req.ID, WSTypeResponse, map[string]any{"unsubscribed": channels})
}

// handleTap presses a button in the panel's current mode. The execution is
// returned to the tapping client; subscribers also get button.pressed.
func (c *WSClient) handleTap(req wsRequest) {
	if c.tap == nil {
		c.sendError(req.ID, "taps are not accepted on this connection")
		return
	}

	var p WSTapPayload
	if err := json.Unmarshal(req.Payload, &p); err != nil {
		c.sendError(req.ID, "invalid tap payload")
		return
	}
	column, err := catalog.ParseColumn(string(p.Column))
	if err != nil || p.Page < 1 || p.Slot < 1 {
		c.sendError(req.ID, "tap needs page, column (L or R) and slot")
		return
	}
	ref := catalog.ButtonRef{Page: p.Page, Column: column, Slot: p.Slot}

	exec, err := c.tap(context.Background(), ref)
	switch {
	case errors.Is(err, panel.ErrBounced):
		c.sendError(req.ID, "tap ignored: repeated within bounce time")
	case errors.Is(err, catalog.ErrButtonNotFound):
		c.sendError(req.ID, "button not found: "+ref.String())
	case err != nil:
		c.hub.logger.Warn("websocket tap failed", "button", ref.String(), "error", err)
		c.sendError(req.ID, "tap failed")
	default:
		c.reply(req.ID, WSTypeResponse, exec)
	}
}

// ─── Sending ───────────────────────────────────────────────────────

// trySend queues data without blocking. A full buffer drops the message,
// as does a client whose send channel is already closed.
func (c *WSClient) trySend(data []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
	}
}

// closeSend closes the send channel once. It waits for any in-flight
// trySend to finish.
func (c *WSClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) sendJSON(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *WSClient) reply(id, msgType string, payload any) {
	c.sendJSON(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	})
}

func (c *WSClient) sendError(id, message string) {
	c.reply(id, WSTypeError, map[string]string{"message": message})
}
