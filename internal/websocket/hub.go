package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"artastic/internal/notify"
	"artastic/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Front ends are served from other origins; the session token guards the socket.
		return true
	},
}

const (
	TypeSnapshot     = "snapshot"
	TypeNotification = "notification"
)

type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// Source is the state the hub mirrors to clients.
type Source interface {
	Snapshot() store.Snapshot
	Subscribe() (<-chan store.Snapshot, func())
}

type Client struct {
	conn *websocket.Conn
	send chan Message
	hub  *Hub
}

// Hub pushes every new store snapshot and every notification to the
// connected front ends.
type Hub struct {
	source     Source
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.Logger
}

func NewHub(source Source, logger *zap.Logger) *Hub {
	return &Hub{
		source:     source,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func newMessage(messageType string, data interface{}) Message {
	return Message{Type: messageType, Data: data, Timestamp: time.Now().Format(time.RFC3339)}
}

// Run serves the hub until ctx is done, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	snapshots, cancel := h.source.Subscribe()
	defer cancel()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			client.send <- newMessage(TypeSnapshot, h.source.Snapshot())
			h.logger.Info("client connected", zap.Int("client_count", count))

		case client := <-h.unregister:
			h.remove(client)

		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			h.fanOut(newMessage(TypeSnapshot, snap))

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mutex.Unlock()
	h.logger.Info("client disconnected", zap.Int("client_count", count))
}

// fanOut drops clients whose buffer is full.
func (h *Hub) fanOut(message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// Notify forwards a notification to every connected client.
func (h *Hub) Notify(_ context.Context, n notify.Notification) {
	select {
	case h.broadcast <- newMessage(TypeNotification, n):
	default:
		h.logger.Warn("broadcast channel full, dropping notification", zap.String("message", n.Message))
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan Message, sendBuffer),
		hub:  h,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// readPump only watches for the close; clients never send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.logger.Warn("websocket write failed", zap.Error(err))
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
