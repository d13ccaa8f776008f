package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"raahi/internal/domain"
)

// ErrNotConnected means the channel is currently down. Outbound position
// updates are dropped, never queued; the next sampling tick is the only
// corrective mechanism.
var ErrNotConnected = errors.New("update channel not connected")

// FleetHandler receives inbound snapshot batches, one at a time, in
// delivery order.
type FleetHandler func(routeID string, buses []*domain.VehicleRecord)

// Config tunes the reconnect behavior of the channel.
type Config struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

func DefaultConfig() Config {
	return Config{
		DialTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
		PingInterval: 30 * time.Second,
		ReconnectMin: time.Second,
		ReconnectMax: 30 * time.Second,
	}
}

// Client maintains a single auto-reconnecting websocket to the tracking
// server. At most one route subscription and one fleet handler are active at
// a time; both survive reconnects, and the subscription is re-issued on every
// successful dial.
type Client struct {
	url      string
	clientID string
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	send    chan []byte
	routeID string
	handler FleetHandler
}

func New(url string, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		url:      url,
		clientID: uuid.New().String(),
		cfg:      cfg,
		logger:   logger.With("component", "channel"),
	}
}

// Run dials and serves the channel until ctx is cancelled, reconnecting with
// exponential backoff after every failure.
func (c *Client) Run(ctx context.Context) {
	backoff := c.cfg.ReconnectMin

	for {
		if ctx.Err() != nil {
			return
		}

		connected, err := c.connectAndServe(ctx)
		if ctx.Err() != nil {
			return
		}
		if connected {
			backoff = c.cfg.ReconnectMin
		}
		if err != nil {
			c.logger.Warn("channel disconnected", "error", err, "retry_in", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > c.cfg.ReconnectMax {
			backoff = c.cfg.ReconnectMax
		}
	}
}

// Subscribe tracks routeID, replacing any prior subscription. Calling it
// again with the same route is a no-op. The intent is sent immediately when
// connected and re-sent after every reconnect.
func (c *Client) Subscribe(routeID string) {
	c.mu.Lock()
	if c.routeID == routeID {
		c.mu.Unlock()
		return
	}
	c.routeID = routeID
	send := c.send
	c.mu.Unlock()

	if send == nil || routeID == "" {
		return
	}

	data, err := encodeMessage(msgTrackRoute, trackRoutePayload{RouteID: routeID})
	if err != nil {
		return
	}
	c.enqueue(send, data, msgTrackRoute)
}

// PublishPosition sends one driver position, fire-and-forget. Returns
// ErrNotConnected when the channel is down; the caller drops the sample.
func (c *Client) PublishPosition(pos domain.VehiclePosition) error {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()

	if send == nil {
		return ErrNotConnected
	}

	data, err := encodeMessage(msgBusLocationUpdate, pos)
	if err != nil {
		return fmt.Errorf("encoding position: %w", err)
	}

	select {
	case send <- data:
		return nil
	default:
		return ErrNotConnected
	}
}

// OnFleetUpdate registers the single inbound snapshot handler, detaching any
// previous one so batches are never delivered twice.
func (c *Client) OnFleetUpdate(h FleetHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = h
}

// Connected reports whether a websocket session is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send != nil
}

func (c *Client) connectAndServe(ctx context.Context) (connected bool, err error) {
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{
		HTTPHeader: http.Header{"X-Client-ID": []string{c.clientID}},
	})
	cancel()
	if err != nil {
		return false, fmt.Errorf("dialing %s: %w", c.url, err)
	}

	send := make(chan []byte, 64)

	c.mu.Lock()
	c.send = send
	routeID := c.routeID
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.send = nil
		c.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.logger.Info("channel connected", "url", c.url, "client_id", c.clientID)

	if routeID != "" {
		data, encErr := encodeMessage(msgTrackRoute, trackRoutePayload{RouteID: routeID})
		if encErr == nil {
			c.enqueue(send, data, msgTrackRoute)
		}
	}

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()

	go c.writeLoop(loopCtx, conn, send)

	return true, c.readLoop(loopCtx, conn)
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("invalid message format", "error", err)
			continue
		}

		switch msg.Type {
		case msgBusesUpdated:
			c.dispatchFleetUpdate(msg.Payload)
		}
	}
}

func (c *Client) dispatchFleetUpdate(payload json.RawMessage) {
	var batch struct {
		RouteID string                  `json:"routeId"`
		Buses   []*domain.VehicleRecord `json:"buses"`
	}
	if err := json.Unmarshal(payload, &batch); err != nil {
		c.logger.Debug("invalid fleet update payload", "error", err)
		return
	}

	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()

	// synchronous call keeps one-batch-at-a-time, delivery-order processing
	if handler != nil {
		handler(batch.RouteID, batch.Buses)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn, send chan []byte) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-send:
			writeCtx, cancel := context.WithTimeout(ctx, c.cfg.WriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, c.cfg.WriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) enqueue(send chan []byte, data []byte, msgType string) {
	select {
	case send <- data:
	default:
		c.logger.Debug("send buffer full, dropping message", "type", msgType)
	}
}
