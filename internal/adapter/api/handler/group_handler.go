package handler

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/domain/entity"
	"convochat/internal/usecase"
	"convochat/pkg/response"
)

type GroupHandler struct {
	groupUseCase GroupService
}

func NewGroupHandler(groupUseCase GroupService) *GroupHandler {
	return &GroupHandler{
		groupUseCase: groupUseCase,
	}
}

type createGroupRequest struct {
	Title        string   `json:"title" validate:"max=100"`
	Participants []string `json:"participants" validate:"required,min=2,dive,required"`
}

type sendGroupMessageRequest struct {
	Text string `json:"text"`
}

func (h *GroupHandler) ListGroups(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	items, err := h.groupUseCase.ListGroups(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	if items == nil {
		items = []entity.ConversationListItem{}
	}
	return response.Success(c, items)
}

// CreateGroup answers 201 for a new group and 200 when a group with the same
// members already existed.
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req createGroupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	group, created, err := h.groupUseCase.CreateGroup(c.Request().Context(), userID, usecase.CreateGroupInput{
		Title:        req.Title,
		Participants: req.Participants,
	})
	if err != nil {
		return response.Error(c, err)
	}
	if created {
		return response.Created(c, group)
	}
	return response.Success(c, group)
}

func (h *GroupHandler) SendMessage(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req sendGroupMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.groupUseCase.SendMessage(c.Request().Context(), userID, c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *GroupHandler) MarkRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.groupUseCase.MarkRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
