package repository

import (
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"convochat/internal/domain/entity"
)

const (
	conversationsCollection = "conversations"
	messagesCollection      = "messages"
	usersCollection         = "users"
	groupKeysCollection     = "groupKeys"
)

type lastMessageDoc struct {
	Text      string    `firestore:"text"`
	SenderID  string    `firestore:"senderId"`
	Timestamp time.Time `firestore:"timestamp"`
}

// conversationDoc is the stored shape of both conversation variants. The
// "type" field selects which entity it decodes into.
type conversationDoc struct {
	Type            string                `firestore:"type"`
	Participants    []string              `firestore:"participants"`
	ParticipantsKey string                `firestore:"participantsKey,omitempty"`
	Title           *string               `firestore:"title,omitempty"`
	CreatedBy       string                `firestore:"createdBy,omitempty"`
	CreatedAt       time.Time             `firestore:"createdAt"`
	LastActivity    time.Time             `firestore:"lastActivity"`
	LastMessage     *lastMessageDoc       `firestore:"lastMessage"`
	LastReadBy      map[string]*time.Time `firestore:"lastReadBy"`
	UnreadCount     map[string]int64      `firestore:"unreadCount"`
}

func (d *conversationDoc) hasParticipant(uid string) bool {
	for _, p := range d.Participants {
		if p == uid {
			return true
		}
	}
	return false
}

func (d *conversationDoc) summary(id string) entity.ConversationSummary {
	s := entity.ConversationSummary{
		ID:           id,
		Participants: d.Participants,
		CreatedAt:    d.CreatedAt,
		LastActivity: d.LastActivity,
		LastReadBy:   d.LastReadBy,
		UnreadCount:  make(map[string]int, len(d.UnreadCount)),
	}
	if s.LastReadBy == nil {
		s.LastReadBy = map[string]*time.Time{}
	}
	for uid, n := range d.UnreadCount {
		s.UnreadCount[uid] = int(n)
	}
	if d.LastMessage != nil {
		s.LastMessage = &entity.LastMessage{
			Text:      d.LastMessage.Text,
			SenderID:  d.LastMessage.SenderID,
			Timestamp: d.LastMessage.Timestamp,
		}
	}
	return s
}

// toEntity decodes by the stored type tag. Documents written before the tag
// existed are direct conversations.
func (d *conversationDoc) toEntity(id string) (entity.Conversation, error) {
	switch entity.ConversationType(d.Type) {
	case entity.ConversationDirect, "":
		return &entity.DirectConversation{ConversationSummary: d.summary(id)}, nil
	case entity.ConversationGroup:
		g := &entity.GroupConversation{
			ConversationSummary: d.summary(id),
			ParticipantsKey:     d.ParticipantsKey,
			CreatedBy:           d.CreatedBy,
		}
		if d.Title != nil {
			g.Title = *d.Title
		}
		return g, nil
	default:
		return nil, fmt.Errorf("conversation %s has unknown type %q", id, d.Type)
	}
}

func decodeConversation(snap *firestore.DocumentSnapshot) (entity.Conversation, error) {
	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return doc.toEntity(snap.Ref.ID)
}

type messageDoc struct {
	ConversationID string    `firestore:"conversationId"`
	SenderID       string    `firestore:"senderId"`
	SenderName     string    `firestore:"senderName"`
	Text           string    `firestore:"text"`
	Type           string    `firestore:"type"`
	Timestamp      time.Time `firestore:"timestamp,serverTimestamp"`
}

func newMessageDoc(p entity.MessagePayload) messageDoc {
	return messageDoc{
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		SenderName:     p.SenderName,
		Text:           p.Text,
		Type:           p.Type,
	}
}

func (d *messageDoc) toEntity(id string) *entity.Message {
	return &entity.Message{
		ID:             id,
		ConversationID: d.ConversationID,
		SenderID:       d.SenderID,
		SenderName:     d.SenderName,
		Text:           d.Text,
		Type:           d.Type,
		Timestamp:      entity.CommittedServerTime(d.Timestamp),
	}
}

// pendingMessage is the caller's view of a message whose timestamp has not
// been read back from the store yet.
func pendingMessage(id string, p entity.MessagePayload, local time.Time) *entity.Message {
	return &entity.Message{
		ID:             id,
		ConversationID: p.ConversationID,
		SenderID:       p.SenderID,
		SenderName:     p.SenderName,
		Text:           p.Text,
		Type:           p.Type,
		Timestamp:      entity.PendingServerTime(local),
	}
}

func listItems(uid string, snaps []*firestore.DocumentSnapshot, onBad func(id string, err error)) []entity.ConversationListItem {
	items := make([]entity.ConversationListItem, 0, len(snaps))
	for _, snap := range snaps {
		c, err := decodeConversation(snap)
		if err != nil {
			onBad(snap.Ref.ID, err)
			continue
		}
		items = append(items, entity.ConversationListItem{
			Conversation: c,
			UnreadCount:  c.Base().UnreadFor(uid),
		})
	}
	return items
}
