package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"convochat/internal/adapter/api/middleware"
	"convochat/internal/domain/entity"
	"convochat/internal/domain/service"
	"convochat/internal/usecase"
	"convochat/pkg/errors"
)

type ChatService interface {
	OpenDirect(ctx context.Context, userID, recipientID string) (*entity.DirectConversation, error)
	SendDirect(ctx context.Context, userID string, input usecase.SendDirectInput) (*entity.Message, error)
	MarkRead(ctx context.Context, userID, conversationID string) error
	ListConversations(ctx context.Context, userID string) ([]entity.ConversationListItem, error)
	Unread(ctx context.Context, userID string) (service.UnreadView, error)
}

type GroupService interface {
	CreateGroup(ctx context.Context, creatorID string, input usecase.CreateGroupInput) (*entity.GroupConversation, bool, error)
	SendMessage(ctx context.Context, userID, conversationID, text string) (*entity.Message, error)
	MarkRead(ctx context.Context, userID, conversationID string) error
	ListGroups(ctx context.Context, userID string) ([]entity.ConversationListItem, error)
}

type UserService interface {
	UpsertProfile(ctx context.Context, uid string, input usecase.UpsertProfileInput) (*entity.User, error)
	SetOnline(ctx context.Context, uid string, online bool) error
	GetUser(ctx context.Context, uid string) (*entity.User, error)
	ListUsers(ctx context.Context, viewerID string) ([]*entity.User, error)
}

// currentUser returns the uid set by the auth middleware.
func currentUser(c echo.Context) (string, error) {
	uid, ok := c.Get(middleware.ContextKeyUID).(string)
	if !ok || uid == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}
	return uid, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.BadRequest("Invalid request body", err)
	}
	return c.Validate(req)
}
