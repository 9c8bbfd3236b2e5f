package handler

import (
	"github.com/labstack/echo/v4"

	"convochat/internal/domain/entity"
	"convochat/internal/usecase"
	"convochat/pkg/response"
)

type UserHandler struct {
	userUseCase UserService
}

func NewUserHandler(userUseCase UserService) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type upsertProfileRequest struct {
	Email       string `json:"email" validate:"omitempty,email"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
	Avatar      string `json:"avatar" validate:"omitempty,url"`
}

type setOnlineRequest struct {
	Online *bool `json:"online" validate:"required"`
}

type userResponse struct {
	*entity.User
	Status string `json:"status"`
}

func toUserResponse(user *entity.User) userResponse {
	return userResponse{User: user, Status: user.StatusText(timeNow())}
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	users, err := h.userUseCase.ListUsers(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}

	result := make([]userResponse, 0, len(users))
	for _, user := range users {
		result = append(result, toUserResponse(user))
	}
	return response.Success(c, result)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, toUserResponse(user))
}

// UpsertMe stores the caller's profile, typically right after sign-in.
func (h *UserHandler) UpsertMe(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req upsertProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.UpsertProfile(c.Request().Context(), uid, usecase.UpsertProfileInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Avatar:      req.Avatar,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, toUserResponse(user))
}

func (h *UserHandler) SetOnline(c echo.Context) error {
	uid, err := currentUser(c)
	if err != nil {
		return response.Error(c, err)
	}

	var req setOnlineRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	if err := h.userUseCase.SetOnline(c.Request().Context(), uid, *req.Online); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
