// Package ws fans protocol events out to WebSocket subscribers. Clients
// subscribe to signal bus channels; every event published on a subscribed
// channel is forwarded as a JSON frame.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sealbet/sealbet/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
	replayBatch    = 100
)

// defaultChannels are subscribed for every new client until it sends its own
// subscription message.
var defaultChannels = []string{
	domain.ChannelMarkets,
	domain.ChannelBets,
	domain.ChannelResolutions,
	domain.ChannelClaims,
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte

	mu   sync.RWMutex
	subs map[string]bool
}

func (c *client) setSubscriptions(channels []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = make(map[string]bool, len(channels))
	for _, ch := range channels {
		c.subs[ch] = true
	}
}

func (c *client) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.subs[channel] {
		return true
	}
	// Wildcard subscription: "ch:*" matches every channel with that prefix.
	for sub := range c.subs {
		if strings.HasSuffix(sub, "*") && strings.HasPrefix(channel, strings.TrimSuffix(sub, "*")) {
			return true
		}
	}
	return false
}

type subscribeMsg struct {
	Action   string   `json:"action"`
	Channels []string `json:"channels"`
	// SinceID requests stream backlog after the given event ID for each
	// subscribed channel; "0" replays the full retained history.
	SinceID string `json:"since_id"`
}

type outboundFrame struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// Hub owns the WebSocket client set and bridges the signal bus to it.
type Hub struct {
	bus      domain.SignalBus
	protocol domain.ProtocolStore
	logger   *slog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan outboundFrame

	mu      sync.RWMutex
	clients map[*client]bool
}

func NewHub(bus domain.SignalBus, protocol domain.ProtocolStore, logger *slog.Logger) *Hub {
	return &Hub{
		bus:        bus,
		protocol:   protocol,
		logger:     logger.With(slog.String("component", "ws_hub")),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outboundFrame, sendBufferSize),
		clients:    make(map[*client]bool),
	}
}

// Run pumps bus messages to connected clients until ctx is cancelled. It
// subscribes to every default channel; per-client filtering happens at send
// time.
func (h *Hub) Run(ctx context.Context) {
	for _, channel := range defaultChannels {
		go h.pump(ctx, channel)
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case frame := <-h.broadcast:
			h.deliver(frame)
		}
	}
}

func (h *Hub) pump(ctx context.Context, channel string) {
	if h.bus == nil {
		return
	}
	msgs, err := h.bus.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Warn("subscribe failed", slog.String("channel", channel), slog.Any("error", err))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case h.broadcast <- outboundFrame{Channel: channel, Data: payload}:
			default:
				h.logger.Warn("broadcast queue full, dropping", slog.String("channel", channel))
			}
		}
	}
}

func (h *Hub) deliver(frame outboundFrame) {
	raw, err := json.Marshal(frame)
	if err != nil {
		h.logger.Warn("marshal frame", slog.Any("error", err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.isSubscribed(frame.Channel) {
			continue
		}
		select {
		case c.send <- raw:
		default:
			// Slow consumer; drop the frame rather than block the hub.
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// HandleWS upgrades the connection and registers the client with default
// subscriptions.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", slog.Any("error", err))
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	c.setSubscriptions(defaultChannels)

	h.register <- c
	go h.writePump(c)
	go h.readPump(c)

	h.sendSnapshot(r.Context(), c)
}

// sendSnapshot pushes the current protocol state as the first frame so a
// client has a baseline before incremental events arrive.
func (h *Hub) sendSnapshot(ctx context.Context, c *client) {
	if h.protocol == nil {
		return
	}
	state, err := h.protocol.GetState(ctx)
	if err != nil {
		h.logger.Warn("snapshot state", slog.Any("error", err))
		return
	}
	raw, err := json.Marshal(map[string]any{
		"type":            "protocol_snapshot",
		"paused":          state.Paused,
		"total_staked":    state.TotalStaked,
		"total_ve_supply": state.TotalVeSupply,
		"reward_pool":     state.RewardPool,
		"insurance_fund":  state.InsuranceFund,
	})
	if err != nil {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", slog.Any("error", err))
			}
			return
		}
		h.handleSubscription(c, raw)
	}
}

func (h *Hub) handleSubscription(c *client, raw []byte) {
	var msg subscribeMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	switch msg.Action {
	case "subscribe":
		c.setSubscriptions(msg.Channels)
		if msg.SinceID != "" {
			go h.replay(c, msg.Channels, msg.SinceID)
		}
	case "unsubscribe":
		c.setSubscriptions(nil)
	}
}

// replay pushes retained stream history for the given channels so a
// reconnecting client can fill its gap before live frames resume.
func (h *Hub) replay(c *client, channels []string, sinceID string) {
	if h.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, channel := range channels {
		msgs, err := h.bus.StreamRead(ctx, "st:"+channel, sinceID, replayBatch)
		if err != nil {
			h.logger.Warn("replay failed", slog.String("channel", channel), slog.Any("error", err))
			continue
		}
		for _, m := range msgs {
			frame, err := json.Marshal(outboundFrame{Channel: channel, Data: m.Payload})
			if err != nil {
				continue
			}
			select {
			case c.send <- frame:
			default:
				return
			}
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
