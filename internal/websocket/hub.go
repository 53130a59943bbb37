package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"

	"github.com/airadio/api/internal/model"
	"github.com/airadio/api/internal/task"
)

// Client represents a WebSocket client
type Client struct {
	TaskID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub pushes job updates to the sockets watching them
type Hub struct {
	// Clients grouped by task ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu     sync.RWMutex
	logger zerolog.Logger
}

var _ task.Observer = (*Hub)(nil)

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	TaskID  string
	Message []byte
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.TaskID] == nil {
				h.clients[client.TaskID] = make(map[*Client]bool)
			}
			h.clients[client.TaskID][client] = true
			h.mu.Unlock()
			h.logger.Debug().Str("task_id", client.TaskID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
			h.logger.Debug().Str("task_id", client.TaskID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.TaskID] {
				select {
				case client.Send <- msg.Message:
				default:
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.TaskID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.Send)
		if len(clients) == 0 {
			delete(h.clients, client.TaskID)
		}
	}
}

// Subscribers is the number of sockets watching taskID
func (h *Hub) Subscribers(taskID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[taskID])
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// JobProgress implements task.Observer
func (h *Hub) JobProgress(view model.JobView) {
	step := ""
	if view.CurrentStep != nil {
		step = string(*view.CurrentStep)
	}
	h.send(view.ID, model.WSProgressMessage{
		Type:        model.WSMessageTypeProgress,
		TaskID:      view.ID,
		Progress:    view.Progress,
		Status:      view.Status,
		CurrentStep: step,
	})
}

// JobCompleted implements task.Observer
func (h *Hub) JobCompleted(view model.JobView) {
	h.send(view.ID, model.WSCompleteMessage{
		Type:   model.WSMessageTypeComplete,
		TaskID: view.ID,
		Result: view,
	})
}

// JobFailed implements task.Observer
func (h *Hub) JobFailed(view model.JobView) {
	msg := ""
	if view.Error != nil {
		msg = *view.Error
	}
	h.send(view.ID, model.WSErrorMessage{
		Type:   model.WSMessageTypeError,
		TaskID: view.ID,
		Error: model.WSError{
			Code:    "JOB_FAILED",
			Message: msg,
		},
	})
}

// send never blocks the caller, which is the job worker.
func (h *Hub) send(taskID string, v any) {
	if h.Subscribers(taskID) == 0 {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error().Err(err).Str("task_id", taskID).Msg("failed to marshal websocket message")
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{TaskID: taskID, Message: data}:
	default:
		h.logger.Warn().Str("task_id", taskID).Msg("websocket broadcast queue full, dropping message")
	}
}

// reply queues data for one client if it is still registered.
func (h *Hub) reply(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client.TaskID][client] {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, taskID string) {
	client := &Client{
		TaskID: taskID,
		Conn:   c,
		Send:   make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Str("task_id", taskID).Msg("websocket error")
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			h.reply(client, pong)
		}
	}
}
