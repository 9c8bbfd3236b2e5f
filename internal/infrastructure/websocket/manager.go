package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/internal/domain/service"
	"convochat/internal/infrastructure/listeners"
	"convochat/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 8 * 1024
	sendBufferSize = 64
)

// LiveService is what a socket needs from the chat layer.
type LiveService interface {
	Conversation(ctx context.Context, userID, conversationID string) (entity.Conversation, error)
	MarkRead(ctx context.Context, userID, conversationID string) error
	WatchConversations(userID string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe
	WatchGroups(userID string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe
	WatchMessages(ctx context.Context, userID, conversationID string, onNext func([]*entity.Message), onError func(error)) (repository.Unsubscribe, error)
}

// Client is one authenticated socket. It owns the live subscriptions opened
// through it and the unread projection derived from them.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	listeners *listeners.Registry
	projector *service.Projector

	mu     sync.Mutex
	closed bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	c := &Client{
		UserID:    userID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
		listeners: listeners.NewRegistry(),
	}
	c.projector = service.NewProjector(userID, func(view service.UnreadView) {
		c.push(newFrame(FrameUnread, "", newUnreadData(view)))
	})
	return c
}

// enqueue hands payload to the write pump. Frames for a closed client or a
// full buffer are dropped.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		logger.Warn("WebSocket: send buffer full for %s, dropping frame", c.UserID)
		return false
	}
}

// close stops every subscription and the write pump. Safe to call twice.
func (c *Client) close() {
	c.listeners.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// Manager tracks connected clients and serves their frames.
type Manager struct {
	live       LiveService
	clients    map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager(live LiveService) *Manager {
	return &Manager{
		live:       live,
		clients:    make(map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the registration loop until ctx is done, then disconnects every
// remaining client.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client] = struct{}{}
				m.mutex.Unlock()
				logger.Info("WebSocket client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.remove(client)
				logger.Info("WebSocket client unregistered: %s", client.UserID)

			case <-ctx.Done():
				close(m.done)
				m.mutex.Lock()
				clients := m.clients
				m.clients = make(map[*Client]struct{})
				m.mutex.Unlock()
				for client := range clients {
					client.close()
				}
				return
			}
		}
	}()
}

func (m *Manager) register(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
		client.close()
	}
}

func (m *Manager) remove(client *Client) {
	m.mutex.Lock()
	delete(m.clients, client)
	m.mutex.Unlock()
	client.close()
}

// ClientCount is the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Serve registers a freshly upgraded connection and starts its pumps. It
// returns nil when the manager has already shut down.
func (m *Manager) Serve(userID string, conn *websocket.Conn) *Client {
	client := NewClient(userID, conn)
	if !m.register(client) {
		conn.Close()
		return nil
	}

	go client.WritePump()
	go client.ReadPump(m)
	return client
}

// ReadPump reads frames until the connection fails, then unregisters.
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for %s: %v", c.UserID, err)
			}
			return
		}
		m.HandleClientMessage(c, message)
	}
}

// WritePump serialises every write to the connection and keeps it alive with
// pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error for %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
