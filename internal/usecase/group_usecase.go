package usecase

import (
	"context"
	"strings"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
	"convochat/internal/infrastructure/ratelimit"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
	"convochat/pkg/utils"
)

const MaxGroupTitleLength = 100

type GroupUseCase struct {
	conversationRepo repository.ConversationRepository
	messageRepo      repository.MessageRepository
	appender         repository.MessageAppender
	outbox           *outbox
	limiter          ActionLimiter
}

func NewGroupUseCase(
	conversationRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	appender repository.MessageAppender,
	userRepo repository.UserRepository,
	sendGate SendGate,
	limiter ActionLimiter,
	maxMessageLength int,
) *GroupUseCase {
	return &GroupUseCase{
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

type CreateGroupInput struct {
	Title        string
	Participants []string
}

// CreateGroup returns the group whose member set is the creator plus
// input.Participants, creating it only if no such group exists. created is
// false when an existing group was returned.
func (uc *GroupUseCase) CreateGroup(ctx context.Context, creatorID string, input CreateGroupInput) (group *entity.GroupConversation, created bool, err error) {
	title := strings.TrimSpace(input.Title)
	if len([]rune(title)) > MaxGroupTitleLength {
		return nil, false, errors.Validation("Group title is too long")
	}

	participants := utils.DedupeParticipants(append([]string{creatorID}, input.Participants...))
	if len(participants) < entity.MinGroupParticipants {
		return nil, false, errors.Validation("Please select at least 2 other participants")
	}

	if ok, wait := uc.limiter.Allow(creatorID, ratelimit.ActionCreateGroup); !ok {
		return nil, false, errors.Throttled("Too many groups created, please try again later", wait)
	}

	key := utils.ParticipantsKey(participants)
	existing, err := uc.conversationRepo.FindGroupByParticipantsKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	group, err = uc.conversationRepo.CreateGroup(ctx, entity.NewGroupInput{
		Title:        title,
		Participants: participants,
		CreatedBy:    creatorID,
	})
	if err == nil {
		return group, true, nil
	}
	if !errors.Is(err, errors.CodeConflict) {
		return nil, false, err
	}

	// Lost the race against an identical create: hand back the winner.
	logger.Info("Group with key %s created concurrently, returning existing", key)
	existing, findErr := uc.conversationRepo.FindGroupByParticipantsKey(ctx, key)
	if findErr != nil {
		return nil, false, findErr
	}
	if existing == nil {
		return nil, false, err
	}
	return existing, false, nil
}

// SendMessage posts text to a group userID belongs to.
func (uc *GroupUseCase) SendMessage(ctx context.Context, userID, conversationID, text string) (*entity.Message, error) {
	if conversationID == "" {
		return nil, errors.Validation("Conversation id is required")
	}
	if _, err := uc.group(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	text, senderName, err := uc.outbox.admit(ctx, userID, text)
	if err != nil {
		return nil, err
	}

	payload := uc.messageRepo.BuildTextPayload(entity.TextPayloadInput{
		ConversationID: conversationID,
		SenderID:       userID,
		SenderName:     senderName,
		Text:           text,
	})
	return uc.appender.AppendGroup(ctx, conversationID, payload, userID)
}

func (uc *GroupUseCase) MarkRead(ctx context.Context, userID, conversationID string) error {
	if _, err := uc.group(ctx, userID, conversationID); err != nil {
		return err
	}
	return uc.conversationRepo.MarkGroupReadForUser(ctx, conversationID, userID)
}

func (uc *GroupUseCase) ListGroups(ctx context.Context, userID string) ([]entity.ConversationListItem, error) {
	return uc.conversationRepo.ListGroupsOrdered(ctx, userID)
}

func (uc *GroupUseCase) group(ctx context.Context, userID, conversationID string) (*entity.GroupConversation, error) {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	group, ok := conversation.(*entity.GroupConversation)
	if !ok {
		return nil, errors.NotFound("Group", nil)
	}
	if !group.HasParticipant(userID) {
		return nil, errors.NotAParticipant(conversationID, userID)
	}
	return group, nil
}
