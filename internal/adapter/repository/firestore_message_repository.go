package repository

import (
	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/internal/infrastructure/listeners"
	"convochat/pkg/logger"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

// CreateRef allocates the id of a message before the append transaction runs.
func (r *firestoreMessageRepository) CreateRef() entity.MessageRef {
	return entity.MessageRef{ID: uuid.New().String()}
}

func (r *firestoreMessageRepository) BuildTextPayload(input entity.TextPayloadInput) entity.MessagePayload {
	return BuildTextPayload(input)
}

// BuildTextPayload stamps the text type and a default sender name. The send
// time is left to the store.
func BuildTextPayload(input entity.TextPayloadInput) entity.MessagePayload {
	senderName := input.SenderName
	if senderName == "" {
		senderName = entity.DefaultSenderName
	}
	return entity.MessagePayload{
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		SenderName:     senderName,
		Text:           input.Text,
		Type:           entity.MessageTypeText,
	}
}

// SubscribeByConversationAsc streams the newest RecentMessageWindow messages
// of a conversation, oldest first.
func (r *firestoreMessageRepository) SubscribeByConversationAsc(conversationID string, onNext func([]*entity.Message), onError func(error)) repository.Unsubscribe {
	q := r.client.Collection(messagesCollection).
		Where("conversationId", "==", conversationID).
		OrderBy("timestamp", firestore.Desc).
		Limit(repository.RecentMessageWindow)

	return subscribeQuery(listeners.MessagesKey(conversationID), q, func(docs []*firestore.DocumentSnapshot) {
		onNext(messagesAscending(docs))
	}, onError)
}

// messagesAscending decodes a newest-first result set into oldest-first order.
func messagesAscending(docs []*firestore.DocumentSnapshot) []*entity.Message {
	messages := make([]*entity.Message, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		var doc messageDoc
		if err := docs[i].DataTo(&doc); err != nil {
			logger.Warn("Skipping unreadable message %s: %v", docs[i].Ref.ID, err)
			continue
		}
		messages = append(messages, doc.toEntity(docs[i].Ref.ID))
	}
	return messages
}
