package usecase

import (
	"context"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/internal/domain/service"
	"convochat/internal/infrastructure/ratelimit"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
)

type ChatUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	appender         repository.MessageAppender
	outbox           *outbox
	limiter          ActionLimiter
}

func NewChatUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	appender repository.MessageAppender,
	userRepo repository.UserRepository,
	sendGate SendGate,
	limiter ActionLimiter,
	maxMessageLength int,
) *ChatUseCase {
	return &ChatUseCase{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		appender:         appender,
		outbox: &outbox{
			userRepo:  userRepo,
			gate:      sendGate,
			maxLength: maxMessageLength,
		},
		limiter: limiter,
	}
}

type SendDirectInput struct {
	RecipientID string
	Text        string
}

// OpenDirect returns the conversation between userID and recipientID,
// creating it on first contact, and marks it read for userID.
func (uc *ChatUseCase) OpenDirect(ctx context.Context, userID, recipientID string) (*entity.DirectConversation, error) {
	if err := validatePair(userID, recipientID); err != nil {
		return nil, err
	}
	if ok, wait := uc.limiter.Allow(userID, ratelimit.ActionOpenConversation); !ok {
		return nil, errors.Throttled("Too many conversations opened, please slow down", wait)
	}

	conversation, err := uc.conversationRepo.GetOrCreateDirect(ctx, userID, recipientID)
	if err != nil {
		return nil, err
	}

	if err := uc.conversationRepo.MarkReadForUser(ctx, conversation.ID, userID); err != nil {
		return nil, err
	}
	if conversation.UnreadCount != nil {
		conversation.UnreadCount[userID] = 0
	}
	return conversation, nil
}

// SendDirect sends a text message from userID to input.RecipientID through
// their direct conversation.
func (uc *ChatUseCase) SendDirect(ctx context.Context, userID string, input SendDirectInput) (*entity.Message, error) {
	if err := validatePair(userID, input.RecipientID); err != nil {
		return nil, err
	}

	text, senderName, err := uc.outbox.admit(ctx, userID, input.Text)
	if err != nil {
		return nil, err
	}

	conversation, err := uc.conversationRepo.GetOrCreateDirect(ctx, userID, input.RecipientID)
	if err != nil {
		return nil, err
	}

	ref := uc.messageRepo.CreateRef()
	payload := uc.messageRepo.BuildTextPayload(entity.TextPayloadInput{
		ConversationID: conversation.ID,
		SenderID:       userID,
		SenderName:     senderName,
		Text:           text,
	})

	message, err := uc.appender.AppendDirect(ctx, ref, conversation.ID, payload, conversation.OtherParticipant(userID))
	if err != nil {
		return nil, err
	}

	logger.Debug("User %s sent message %s in %s", userID, message.ID, conversation.ID)
	return message, nil
}

// Conversation loads a conversation userID participates in.
func (uc *ChatUseCase) Conversation(ctx context.Context, userID, conversationID string) (entity.Conversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.Base().HasParticipant(userID) {
		return nil, errors.NotAParticipant(conversationID, userID)
	}
	return conversation, nil
}

// MarkRead resets userID's unread counter on a direct or group conversation.
func (uc *ChatUseCase) MarkRead(ctx context.Context, userID, conversationID string) error {
	conversation, err := uc.Conversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	switch conversation.Kind() {
	case entity.ConversationGroup:
		return uc.conversationRepo.MarkGroupReadForUser(ctx, conversationID, userID)
	default:
		return uc.conversationRepo.MarkReadForUser(ctx, conversationID, userID)
	}
}

func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]entity.ConversationListItem, error) {
	return uc.conversationRepo.ListOrdered(ctx, userID)
}

// Unread projects the server-side counters of userID's conversations into
// badge maps.
func (uc *ChatUseCase) Unread(ctx context.Context, userID string) (service.UnreadView, error) {
	items, err := uc.conversationRepo.ListOrdered(ctx, userID)
	if err != nil {
		return service.UnreadView{}, err
	}
	return service.ProjectUnread(userID, items, nil), nil
}

func (uc *ChatUseCase) WatchConversations(userID string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe {
	return uc.conversationRepo.SubscribeOrdered(userID, onNext, onError)
}

func (uc *ChatUseCase) WatchGroups(userID string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe {
	return uc.conversationRepo.SubscribeGroupsOrdered(userID, onNext, onError)
}

// WatchMessages streams the recent message window of a conversation userID
// participates in.
func (uc *ChatUseCase) WatchMessages(ctx context.Context, userID, conversationID string, onNext func([]*entity.Message), onError func(error)) (repository.Unsubscribe, error) {
	if _, err := uc.Conversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}
	return uc.messageRepo.SubscribeByConversationAsc(conversationID, onNext, onError), nil
}

func validatePair(userID, recipientID string) error {
	if recipientID == "" {
		return errors.Validation("Recipient is required")
	}
	if userID == recipientID {
		return errors.Validation("You cannot start a conversation with yourself")
	}
	return nil
}
