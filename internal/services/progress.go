package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/daviserra-code/Fantacalcio-AI/internal/optimizer"
)

// ProgressHub fans optimization progress out to websocket subscribers.
// Clients subscribe to run ids; "*" receives every run.
type ProgressHub struct {
	clients    map[*ProgressClient]bool
	register   chan *ProgressClient
	unregister chan *ProgressClient
	logger     *logrus.Logger
	mu         sync.RWMutex
}

type ProgressClient struct {
	hub  *ProgressHub
	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
	runs map[string]bool
}

// ProgressMessage is the envelope every websocket frame carries
type ProgressMessage struct {
	Type      string          `json:"type"`
	RunID     string          `json:"run_id"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProgressSubscription is the only message clients send upstream
type ProgressSubscription struct {
	Action string   `json:"action"` // "subscribe" or "unsubscribe"
	RunIDs []string `json:"run_ids"`
}

func NewProgressHub(logger *logrus.Logger) *ProgressHub {
	return &ProgressHub{
		clients:    make(map[*ProgressClient]bool),
		register:   make(chan *ProgressClient),
		unregister: make(chan *ProgressClient),
		logger:     logger,
	}
}

// Run processes client registration and teardown until the process exits
func (h *ProgressHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Progress client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a new client to the hub
func (h *ProgressHub) Register(client *ProgressClient) {
	h.register <- client
}

// ClientCount reports how many clients are connected
func (h *ProgressHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishProgress pushes a per-generation update to subscribers of its run
func (h *ProgressHub) PublishProgress(update optimizer.ProgressUpdate) {
	h.publish("generation", update.RunID, update)
}

// PublishResult pushes the final result of a run to its subscribers
func (h *ProgressHub) PublishResult(runID string, result interface{}) {
	h.publish("result", runID, result)
}

func (h *ProgressHub) publish(messageType, runID string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Warnf("Failed to marshal progress payload: %v", err)
		return
	}

	message := ProgressMessage{
		Type:      messageType,
		RunID:     runID,
		Data:      jsonData,
		Timestamp: time.Now().UTC(),
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Warnf("Failed to marshal progress message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.IsSubscribedTo(runID) {
			select {
			case client.send <- messageBytes:
			default:
				// Skip if client's buffer is full
			}
		}
	}
}

func NewProgressClient(hub *ProgressHub, conn *websocket.Conn) *ProgressClient {
	return &ProgressClient{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
		runs: make(map[string]bool),
	}
}

// IsSubscribedTo reports whether the client wants updates for a run
func (c *ProgressClient) IsSubscribedTo(runID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runs[runID] || c.runs["*"]
}

func (c *ProgressClient) subscribe(runIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range runIDs {
		c.runs[id] = true
	}
}

func (c *ProgressClient) unsubscribe(runIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range runIDs {
		delete(c.runs, id)
	}
}

// ReadPump consumes subscription messages until the connection closes
func (c *ProgressClient) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var sub ProgressSubscription
		err := c.conn.ReadJSON(&sub)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Errorf("Progress websocket error: %v", err)
			}
			break
		}

		switch sub.Action {
		case "subscribe":
			c.subscribe(sub.RunIDs)
		case "unsubscribe":
			c.unsubscribe(sub.RunIDs)
		}
	}
}

// WritePump flushes queued messages and keeps the connection alive with pings
func (c *ProgressClient) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain anything queued behind this message into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

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
