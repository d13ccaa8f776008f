package channel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"raahi/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		DialTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PingInterval: time.Minute,
		ReconnectMin: 20 * time.Millisecond,
		ReconnectMax: 100 * time.Millisecond,
	}
}

// fakeServer records every message the client sends and can push messages
// back over the newest connection.
type fakeServer struct {
	ts *httptest.Server

	mu       sync.Mutex
	received []wsMessage
	conn     *websocket.Conn
	dials    int
}

func newFakeServer(t *testing.T) *fakeServer {
	fs := &fakeServer{}
	fs.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		fs.mu.Lock()
		fs.conn = conn
		fs.dials++
		fs.mu.Unlock()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			var msg wsMessage
			if json.Unmarshal(data, &msg) == nil {
				fs.mu.Lock()
				fs.received = append(fs.received, msg)
				fs.mu.Unlock()
			}
		}
	}))
	t.Cleanup(fs.ts.Close)
	return fs
}

func (fs *fakeServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.ts.URL, "http")
}

func (fs *fakeServer) dialCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.dials
}

func (fs *fakeServer) messagesOfType(msgType string) []wsMessage {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []wsMessage
	for _, m := range fs.received {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

func (fs *fakeServer) push(t *testing.T, msgType string, payload interface{}) {
	fs.mu.Lock()
	conn := fs.conn
	fs.mu.Unlock()
	if conn == nil {
		t.Fatal("no server-side connection to push on")
	}

	data, err := encodeMessage(msgType, payload)
	if err != nil {
		t.Fatalf("encoding push: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("pushing message: %v", err)
	}
}

func (fs *fakeServer) dropConnection() {
	fs.mu.Lock()
	conn := fs.conn
	fs.conn = nil
	fs.mu.Unlock()
	if conn != nil {
		conn.Close(websocket.StatusGoingAway, "dropped")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestClient_SubscribeSendsTrackRoute(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.wsURL(), testConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitFor(t, 2*time.Second, c.Connected)

	c.Subscribe("R1")

	waitFor(t, 2*time.Second, func() bool {
		return len(fs.messagesOfType(msgTrackRoute)) == 1
	})

	var payload trackRoutePayload
	msg := fs.messagesOfType(msgTrackRoute)[0]
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.RouteID != "R1" {
		t.Errorf("expected routeId R1, got %q", payload.RouteID)
	}

	// same route again is idempotent
	c.Subscribe("R1")
	time.Sleep(50 * time.Millisecond)
	if n := len(fs.messagesOfType(msgTrackRoute)); n != 1 {
		t.Errorf("re-subscribing to the same route must be a no-op, got %d intents", n)
	}
}

func TestClient_PublishPosition(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.wsURL(), testConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitFor(t, 2*time.Second, c.Connected)

	err := c.PublishPosition(domain.VehiclePosition{
		BusNumber: "42",
		Lat:       28.6139,
		Lng:       77.2090,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(fs.messagesOfType(msgBusLocationUpdate)) == 1
	})

	var pos domain.VehiclePosition
	msg := fs.messagesOfType(msgBusLocationUpdate)[0]
	if err := json.Unmarshal(msg.Payload, &pos); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if pos.BusNumber != "42" || pos.Lat != 28.6139 {
		t.Errorf("unexpected position on the wire: %+v", pos)
	}
}

func TestClient_PublishWhileDisconnected(t *testing.T) {
	c := New("ws://127.0.0.1:1", testConfig(), testLogger())

	err := c.PublishPosition(domain.VehiclePosition{BusNumber: "42"})
	if err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestClient_DispatchesFleetUpdates(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.wsURL(), testConfig(), testLogger())

	var mu sync.Mutex
	var gotRoute string
	var gotBuses []*domain.VehicleRecord
	c.OnFleetUpdate(func(routeID string, buses []*domain.VehicleRecord) {
		mu.Lock()
		defer mu.Unlock()
		gotRoute = routeID
		gotBuses = buses
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitFor(t, 2*time.Second, c.Connected)

	fs.push(t, msgBusesUpdated, map[string]interface{}{
		"routeId": "R1",
		"buses": []domain.VehicleRecord{
			{BusNumber: "101", Coordinates: domain.Coordinate{Lat: 28.61, Lng: 77.21}, Status: domain.StatusActive},
		},
	})

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotRoute == "R1"
	})

	mu.Lock()
	defer mu.Unlock()
	if len(gotBuses) != 1 || gotBuses[0].BusNumber != "101" {
		t.Errorf("unexpected batch: %+v", gotBuses)
	}
}

func TestClient_HandlerReplacementStopsOldDelivery(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.wsURL(), testConfig(), testLogger())

	var mu sync.Mutex
	oldCalls, newCalls := 0, 0
	c.OnFleetUpdate(func(string, []*domain.VehicleRecord) {
		mu.Lock()
		oldCalls++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)
	waitFor(t, 2*time.Second, c.Connected)

	c.OnFleetUpdate(func(string, []*domain.VehicleRecord) {
		mu.Lock()
		newCalls++
		mu.Unlock()
	})

	fs.push(t, msgBusesUpdated, map[string]interface{}{"routeId": "R1", "buses": []domain.VehicleRecord{}})

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return newCalls == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if oldCalls != 0 {
		t.Errorf("detached handler still received %d batches", oldCalls)
	}
}

func TestClient_ResubscribesAfterReconnect(t *testing.T) {
	fs := newFakeServer(t)
	c := New(fs.wsURL(), testConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	waitFor(t, 2*time.Second, c.Connected)
	c.Subscribe("R1")
	waitFor(t, 2*time.Second, func() bool {
		return len(fs.messagesOfType(msgTrackRoute)) == 1
	})

	fs.dropConnection()

	waitFor(t, 3*time.Second, func() bool {
		return fs.dialCount() >= 2 && len(fs.messagesOfType(msgTrackRoute)) >= 2
	})

	msgs := fs.messagesOfType(msgTrackRoute)
	var payload trackRoutePayload
	if err := json.Unmarshal(msgs[len(msgs)-1].Payload, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.RouteID != "R1" {
		t.Errorf("reconnect must re-issue the active subscription, got %q", payload.RouteID)
	}
}
