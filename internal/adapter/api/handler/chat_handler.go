package handler

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/domain/entity"
	"convochat/internal/usecase"
	"convochat/pkg/response"
)

type ChatHandler struct {
	chatUseCase ChatService
}

func NewChatHandler(chatUseCase ChatService) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type openDirectRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
}

type sendDirectRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Text        string `json:"text"`
}

// ListConversations returns every conversation of the caller, newest first.
func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	items, err := h.chatUseCase.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	if items == nil {
		items = []entity.ConversationListItem{}
	}
	return response.Success(c, items)
}

func (h *ChatHandler) Unread(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	view, err := h.chatUseCase.Unread(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"direct":             view.Direct,
		"groups":             view.Groups,
		"groups_with_unread": view.GroupsWithUnread(),
	})
}

// OpenDirect gets or creates the conversation with recipient_id and marks it
// read for the caller.
func (h *ChatHandler) OpenDirect(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req openDirectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.chatUseCase.OpenDirect(c.Request().Context(), userID, req.RecipientID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}

func (h *ChatHandler) SendDirect(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendDirectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendDirect(c.Request().Context(), userID, usecase.SendDirectInput{
		RecipientID: req.RecipientID,
		Text:        req.Text,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.MarkRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
