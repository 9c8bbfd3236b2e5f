package repository

import (
	"context"
	stderrors "errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
)

type firestoreMessageAppender struct {
	client *firestore.Client
	now    func() time.Time
}

func NewFirestoreMessageAppender(client *firestore.Client) repository.MessageAppender {
	return &firestoreMessageAppender{
		client: client,
		now:    time.Now,
	}
}

// AppendDirect writes the message at ref and updates the conversation summary
// in one transaction. The recipient's counter moves by a server-side
// increment, so concurrent senders never lose each other's bump.
func (a *firestoreMessageAppender) AppendDirect(ctx context.Context, ref entity.MessageRef, conversationID string, payload entity.MessagePayload, recipientID string) (*entity.Message, error) {
	convRef := a.client.Collection(conversationsCollection).Doc(conversationID)
	msgRef := a.client.Collection(messagesCollection).Doc(ref.ID)
	payload.ConversationID = conversationID

	err := a.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		convo, err := readConversation(tx, convRef)
		if err != nil {
			return err
		}
		if !convo.hasParticipant(payload.SenderID) {
			return errors.NotAParticipant(conversationID, payload.SenderID)
		}
		if recipientID != "" && !convo.hasParticipant(recipientID) {
			return errors.NotAParticipant(conversationID, recipientID)
		}

		if err := tx.Create(msgRef, newMessageDoc(payload)); err != nil {
			return err
		}

		updates := summaryUpdates(payload)
		if recipientID != "" {
			updates = append(updates, firestore.Update{
				FieldPath: firestore.FieldPath{"unreadCount", recipientID},
				Value:     firestore.Increment(1),
			})
		}
		return tx.Update(convRef, updates)
	})
	if err != nil {
		logger.LogAppendError(conversationID, "append_direct", err)
		return nil, classifyAppendError(err)
	}

	return pendingMessage(ref.ID, payload, a.now()), nil
}

// AppendGroup allocates the message id itself and recomputes every other
// member's counter from the transaction's own read of the conversation.
func (a *firestoreMessageAppender) AppendGroup(ctx context.Context, conversationID string, payload entity.MessagePayload, senderID string) (*entity.Message, error) {
	convRef := a.client.Collection(conversationsCollection).Doc(conversationID)
	msgRef := a.client.Collection(messagesCollection).Doc(uuid.New().String())
	payload.ConversationID = conversationID
	payload.SenderID = senderID

	err := a.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		convo, err := readConversation(tx, convRef)
		if err != nil {
			return err
		}
		if !convo.hasParticipant(senderID) {
			return errors.NotAParticipant(conversationID, senderID)
		}

		if err := tx.Create(msgRef, newMessageDoc(payload)); err != nil {
			return err
		}

		updates := summaryUpdates(payload)
		for uid, next := range nextGroupUnread(convo, senderID) {
			updates = append(updates, firestore.Update{
				FieldPath: firestore.FieldPath{"unreadCount", uid},
				Value:     next,
			})
		}
		return tx.Update(convRef, updates)
	})
	if err != nil {
		logger.LogAppendError(conversationID, "append_group", err)
		return nil, classifyAppendError(err)
	}

	return pendingMessage(msgRef.ID, payload, a.now()), nil
}

func readConversation(tx *firestore.Transaction, ref *firestore.DocumentRef) (*conversationDoc, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, err
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func summaryUpdates(payload entity.MessagePayload) []firestore.Update {
	return []firestore.Update{
		{Path: "lastMessage", Value: map[string]interface{}{
			"text":      payload.Text,
			"senderId":  payload.SenderID,
			"timestamp": firestore.ServerTimestamp,
		}},
		{Path: "lastActivity", Value: firestore.ServerTimestamp},
	}
}

// nextGroupUnread returns the new counter of every participant except the
// sender. The sender's own entry is not part of the result.
func nextGroupUnread(convo *conversationDoc, senderID string) map[string]int64 {
	next := make(map[string]int64, len(convo.Participants))
	for _, uid := range convo.Participants {
		if uid == senderID {
			continue
		}
		next[uid] = convo.UnreadCount[uid] + 1
	}
	return next
}

func classifyAppendError(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return errors.Internal("Failed to append message", err)
}
