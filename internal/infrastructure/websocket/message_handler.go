package websocket

import (
	"context"
	"encoding/json"
	"time"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/service"
	"convochat/internal/infrastructure/listeners"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
)

const frameTimeout = 10 * time.Second

// Frame types sent by the client.
const (
	FramePing                   = "ping"
	FrameSubscribeConversations = "subscribe_conversations"
	FrameSubscribeGroups        = "subscribe_groups"
	FrameSubscribeMessages      = "subscribe_messages"
	FrameUnsubscribe            = "unsubscribe"
	FrameMarkRead               = "mark_read"
)

// Frame types sent by the server.
const (
	FramePong          = "pong"
	FrameConversations = "conversations"
	FrameUnread        = "unread"
	FrameMessages      = "messages"
	FrameError         = "error"
)

// ClientFrame is an inbound frame. Data is decoded per Type.
type ClientFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WSMessage is an outbound frame. Key names the subscription it belongs to.
type WSMessage struct {
	Type      string      `json:"type"`
	Key       string      `json:"key,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type SubscribeMessagesData struct {
	ConversationID string `json:"conversation_id"`
}

type UnsubscribeData struct {
	Key string `json:"key"`
}

// MarkReadData marks a conversation read. With only Key set the badge is
// hidden locally and nothing is written.
type MarkReadData struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Key            string `json:"key,omitempty"`
}

type ConversationsData struct {
	Items []entity.ConversationListItem `json:"items"`
}

type MessagesData struct {
	ConversationID string            `json:"conversation_id"`
	Messages       []*entity.Message `json:"messages"`
}

type UnreadData struct {
	Direct           map[string]int `json:"direct"`
	Groups           map[string]int `json:"groups"`
	GroupsWithUnread int            `json:"groups_with_unread"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newUnreadData(view service.UnreadView) UnreadData {
	return UnreadData{
		Direct:           view.Direct,
		Groups:           view.Groups,
		GroupsWithUnread: view.GroupsWithUnread(),
	}
}

func newFrame(frameType, key string, data interface{}) WSMessage {
	return WSMessage{
		Type:      frameType,
		Key:       key,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// HandleClientMessage decodes one inbound frame and dispatches it.
func (m *Manager) HandleClientMessage(client *Client, messageBytes []byte) {
	var frame ClientFrame
	if err := json.Unmarshal(messageBytes, &frame); err != nil {
		logger.Debug("WebSocket: invalid frame from %s: %v", client.UserID, err)
		client.pushError("", errors.BadRequest("Invalid message format", err))
		return
	}

	switch frame.Type {
	case FramePing:
		client.push(newFrame(FramePong, "", map[string]string{"status": "alive"}))

	case FrameSubscribeConversations:
		m.subscribeConversations(client)

	case FrameSubscribeGroups:
		m.subscribeGroups(client)

	case FrameSubscribeMessages:
		var data SubscribeMessagesData
		if !decodeData(client, frame, &data) {
			return
		}
		m.subscribeMessages(client, data.ConversationID)

	case FrameUnsubscribe:
		var data UnsubscribeData
		if !decodeData(client, frame, &data) {
			return
		}
		if !client.listeners.Has(data.Key) {
			logger.Debug("WebSocket: %s unsubscribed from unknown key %s", client.UserID, data.Key)
		}
		client.listeners.Cleanup(data.Key)

	case FrameMarkRead:
		var data MarkReadData
		if !decodeData(client, frame, &data) {
			return
		}
		m.markRead(client, data)

	default:
		logger.Debug("WebSocket: unknown frame type %q from %s", frame.Type, client.UserID)
		client.pushError("", errors.BadRequest("Unknown message type", nil))
	}
}

func decodeData(client *Client, frame ClientFrame, into interface{}) bool {
	if len(frame.Data) == 0 {
		client.pushError("", errors.BadRequest("Missing data for "+frame.Type, nil))
		return false
	}
	if err := json.Unmarshal(frame.Data, into); err != nil {
		client.pushError("", errors.BadRequest("Invalid data for "+frame.Type, err))
		return false
	}
	return true
}

// subscribeConversations streams the viewer's conversation list and feeds it
// through the client's unread projector.
func (m *Manager) subscribeConversations(client *Client) {
	key := listeners.ConversationsKey(client.UserID)
	unsubscribe := m.live.WatchConversations(client.UserID, func(items []entity.ConversationListItem) {
		client.push(newFrame(FrameConversations, key, ConversationsData{Items: items}))
		client.projector.Apply(items)
	}, client.subscriptionFailed(key))
	client.listeners.Register(key, unsubscribe)
}

func (m *Manager) subscribeGroups(client *Client) {
	key := listeners.GroupsKey(client.UserID)
	unsubscribe := m.live.WatchGroups(client.UserID, func(items []entity.ConversationListItem) {
		client.push(newFrame(FrameConversations, key, ConversationsData{Items: items}))
	}, client.subscriptionFailed(key))
	client.listeners.Register(key, unsubscribe)
}

func (m *Manager) subscribeMessages(client *Client, conversationID string) {
	if conversationID == "" {
		client.pushError("", errors.Validation("conversation_id is required"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	key := listeners.MessagesKey(conversationID)
	unsubscribe, err := m.live.WatchMessages(ctx, client.UserID, conversationID, func(messages []*entity.Message) {
		client.push(newFrame(FrameMessages, key, MessagesData{
			ConversationID: conversationID,
			Messages:       messages,
		}))
	}, client.subscriptionFailed(key))
	if err != nil {
		client.pushError(key, err)
		return
	}
	client.listeners.Register(key, unsubscribe)
}

// markRead hides the badge at once and then persists the read-mark. The
// suppression stays until the server reports zero unread for the badge.
func (m *Manager) markRead(client *Client, data MarkReadData) {
	if data.ConversationID == "" {
		if data.Key == "" {
			client.pushError("", errors.Validation("conversation_id or key is required"))
			return
		}
		client.projector.MarkLocallyRead(data.Key)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	conversation, err := m.live.Conversation(ctx, client.UserID, data.ConversationID)
	if err != nil {
		client.pushError("", err)
		return
	}
	client.projector.MarkLocallyRead(service.SuppressionKey(client.UserID, conversation))

	if err := m.live.MarkRead(ctx, client.UserID, data.ConversationID); err != nil {
		logger.Warn("WebSocket: mark read %s for %s failed: %v", data.ConversationID, client.UserID, err)
		client.pushError("", err)
	}
}

// subscriptionFailed reports a dead stream to the client. The key stays
// registered until the client unsubscribes or subscribes again.
func (c *Client) subscriptionFailed(key string) func(error) {
	return func(err error) {
		c.pushError(key, err)
	}
}

func (c *Client) push(message WSMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Error("WebSocket: failed to marshal %s frame: %v", message.Type, err)
		return
	}
	c.enqueue(payload)
}

func (c *Client) pushError(key string, err error) {
	message := "Internal server error"
	if appErr, ok := errors.From(err); ok {
		message = appErr.Message
	}
	c.push(newFrame(FrameError, key, ErrorData{
		Code:    errors.CodeOf(err),
		Message: message,
	}))
}
