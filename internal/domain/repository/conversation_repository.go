package repository

import (
	"context"

	"convochat/internal/domain/entity"
)

// Unsubscribe stops a live subscription. Safe to call more than once.
type Unsubscribe func()

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (entity.Conversation, error)

	// Direct conversations. The id is derived from the participant pair, so
	// lookups return (nil, nil) when the conversation does not exist yet.
	GetByParticipants(ctx context.Context, a, b string) (*entity.DirectConversation, error)
	CreateDirectIfMissing(ctx context.Context, a, b string) (*entity.DirectConversation, error)
	GetOrCreateDirect(ctx context.Context, a, b string) (*entity.DirectConversation, error)
	MarkReadForUser(ctx context.Context, conversationID, uid string) error

	// ListOrdered is the one-shot form of SubscribeOrdered.
	ListOrdered(ctx context.Context, uid string) ([]entity.ConversationListItem, error)

	// SubscribeOrdered streams every conversation uid participates in,
	// newest activity first.
	SubscribeOrdered(uid string, onNext func([]entity.ConversationListItem), onError func(error)) Unsubscribe

	// Group conversations.
	FindGroupByParticipantsKey(ctx context.Context, key string) (*entity.GroupConversation, error)
	CreateGroup(ctx context.Context, input entity.NewGroupInput) (*entity.GroupConversation, error)
	MarkGroupReadForUser(ctx context.Context, conversationID, uid string) error
	ListGroupsOrdered(ctx context.Context, uid string) ([]entity.ConversationListItem, error)
	SubscribeGroupsOrdered(uid string, onNext func([]entity.ConversationListItem), onError func(error)) Unsubscribe
}
