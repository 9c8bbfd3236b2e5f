package repository

import (
	"context"

	"convochat/internal/domain/entity"
)

// RecentMessageWindow is the number of newest messages a conversation
// subscription delivers.
const RecentMessageWindow = 50

type MessageRepository interface {
	CreateRef() entity.MessageRef
	BuildTextPayload(input entity.TextPayloadInput) entity.MessagePayload
	SubscribeByConversationAsc(conversationID string, onNext func([]*entity.Message), onError func(error)) Unsubscribe
}

// MessageAppender writes one message and the matching conversation summary as
// a single all-or-nothing unit.
type MessageAppender interface {
	AppendDirect(ctx context.Context, ref entity.MessageRef, conversationID string, payload entity.MessagePayload, recipientID string) (*entity.Message, error)
	AppendGroup(ctx context.Context, conversationID string, payload entity.MessagePayload, senderID string) (*entity.Message, error)
}
