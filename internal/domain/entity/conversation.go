package entity

import (
	"encoding/json"
	"time"
)

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

const MinGroupParticipants = 3

// LastMessage is the denormalized preview of the newest message.
type LastMessage struct {
	Text      string    `json:"text"`
	SenderID  string    `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationSummary holds the fields shared by every conversation variant.
type ConversationSummary struct {
	ID           string                `json:"id"`
	Participants []string              `json:"participants"`
	CreatedAt    time.Time             `json:"created_at"`
	LastActivity time.Time             `json:"last_activity"`
	LastMessage  *LastMessage          `json:"last_message"`
	LastReadBy   map[string]*time.Time `json:"last_read_by"`
	UnreadCount  map[string]int        `json:"unread_count"`
}

func (s *ConversationSummary) Base() *ConversationSummary {
	return s
}

func (s *ConversationSummary) HasParticipant(uid string) bool {
	for _, p := range s.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

// UnreadFor returns the unread counter of uid, 0 when absent.
func (s *ConversationSummary) UnreadFor(uid string) int {
	if s.UnreadCount == nil {
		return 0
	}
	return s.UnreadCount[uid]
}

// Conversation is either a *DirectConversation or a *GroupConversation.
type Conversation interface {
	Kind() ConversationType
	Base() *ConversationSummary
	isConversation()
}

type DirectConversation struct {
	ConversationSummary
}

func (*DirectConversation) Kind() ConversationType { return ConversationDirect }
func (*DirectConversation) isConversation()        {}

// OtherParticipant returns the participant that is not viewer, or "" if the
// conversation has no such participant.
func (c *DirectConversation) OtherParticipant(viewer string) string {
	for _, p := range c.Participants {
		if p != viewer {
			return p
		}
	}
	return ""
}

func (c *DirectConversation) MarshalJSON() ([]byte, error) {
	type direct DirectConversation
	return json.Marshal(struct {
		Type ConversationType `json:"type"`
		*direct
	}{ConversationDirect, (*direct)(c)})
}

type GroupConversation struct {
	ConversationSummary
	Title           string `json:"title,omitempty"`
	ParticipantsKey string `json:"participants_key"`
	CreatedBy       string `json:"created_by"`
}

func (*GroupConversation) Kind() ConversationType { return ConversationGroup }
func (*GroupConversation) isConversation()        {}

func (c *GroupConversation) MarshalJSON() ([]byte, error) {
	type group GroupConversation
	return json.Marshal(struct {
		Type ConversationType `json:"type"`
		*group
	}{ConversationGroup, (*group)(c)})
}

// ConversationListItem is one row of a viewer's ordered conversation list,
// with the viewer's own unread counter lifted out of the shared map.
type ConversationListItem struct {
	Conversation Conversation `json:"conversation"`
	UnreadCount  int          `json:"unread_count"`
}

// NewGroupInput is the validated request to create a group conversation.
type NewGroupInput struct {
	Title        string
	Participants []string
	CreatedBy    string
}
