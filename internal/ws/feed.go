package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"parktrack/internal/models"
)

const (
	defaultPingInterval = 30 * time.Second
	writeTimeout        = 10 * time.Second
	sendBuffer          = 16
)

// Feed broadcasts gate events to connected dashboard clients. It is
// publish-only: client frames are read solely to service pings and detect
// disconnects.
type Feed struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

type client struct {
	ws   *websocket.Conn
	send chan []byte
}

// NewFeed builds the broadcast hub.
func NewFeed(logger *zap.Logger) *Feed {
	return &Feed{
		clients: make(map[*client]struct{}),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Publish fans an event out to every connected client. Slow clients drop
// messages rather than blocking the scan path.
func (f *Feed) Publish(event models.GateEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		f.logger.Warn("failed to marshal gate event", zap.Error(err))
		return
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
			f.logger.Warn("dropping gate event, client buffer full")
		}
	}
}

// HandleWS is the HTTP handler for GET /ws/feed.
func (f *Feed) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{ws: conn, send: make(chan []byte, sendBuffer)}
	f.add(c)
	f.logger.Info("dashboard client connected", zap.String("remote", conn.RemoteAddr().String()))

	ctx, cancel := context.WithCancel(r.Context())
	go c.writePump(ctx)
	go func() {
		defer cancel()
		c.readPump()
		f.remove(c)
	}()
}

func (f *Feed) add(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c] = struct{}{}
}

func (f *Feed) remove(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		close(c.send)
	}
}

func (c *client) readPump() {
	defer c.ws.Close()
	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(2 * defaultPingInterval))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(2 * defaultPingInterval))
		return nil
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(defaultPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}
