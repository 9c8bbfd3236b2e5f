package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"convochat/internal/adapter/api"
	"convochat/internal/adapter/api/middleware"
	"convochat/internal/domain/entity"
	"convochat/internal/domain/service"
	"convochat/internal/usecase"
	"convochat/pkg/errors"
	"convochat/pkg/response"
)

type mockChatService struct {
	mock.Mock
}

func (m *mockChatService) OpenDirect(ctx context.Context, userID, recipientID string) (*entity.DirectConversation, error) {
	args := m.Called(ctx, userID, recipientID)
	c, _ := args.Get(0).(*entity.DirectConversation)
	return c, args.Error(1)
}

func (m *mockChatService) SendDirect(ctx context.Context, userID string, input usecase.SendDirectInput) (*entity.Message, error) {
	args := m.Called(ctx, userID, input)
	msg, _ := args.Get(0).(*entity.Message)
	return msg, args.Error(1)
}

func (m *mockChatService) MarkRead(ctx context.Context, userID, conversationID string) error {
	return m.Called(ctx, userID, conversationID).Error(0)
}

func (m *mockChatService) ListConversations(ctx context.Context, userID string) ([]entity.ConversationListItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]entity.ConversationListItem)
	return items, args.Error(1)
}

func (m *mockChatService) Unread(ctx context.Context, userID string) (service.UnreadView, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(service.UnreadView), args.Error(1)
}

type mockGroupService struct {
	mock.Mock
}

func (m *mockGroupService) CreateGroup(ctx context.Context, creatorID string, input usecase.CreateGroupInput) (*entity.GroupConversation, bool, error) {
	args := m.Called(ctx, creatorID, input)
	g, _ := args.Get(0).(*entity.GroupConversation)
	return g, args.Bool(1), args.Error(2)
}

func (m *mockGroupService) SendMessage(ctx context.Context, userID, conversationID, text string) (*entity.Message, error) {
	args := m.Called(ctx, userID, conversationID, text)
	msg, _ := args.Get(0).(*entity.Message)
	return msg, args.Error(1)
}

func (m *mockGroupService) MarkRead(ctx context.Context, userID, conversationID string) error {
	return m.Called(ctx, userID, conversationID).Error(0)
}

func (m *mockGroupService) ListGroups(ctx context.Context, userID string) ([]entity.ConversationListItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]entity.ConversationListItem)
	return items, args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) UpsertProfile(ctx context.Context, uid string, input usecase.UpsertProfileInput) (*entity.User, error) {
	args := m.Called(ctx, uid, input)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserService) SetOnline(ctx context.Context, uid string, online bool) error {
	return m.Called(ctx, uid, online).Error(0)
}

func (m *mockUserService) GetUser(ctx context.Context, uid string) (*entity.User, error) {
	args := m.Called(ctx, uid)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserService) ListUsers(ctx context.Context, viewerID string) ([]*entity.User, error) {
	args := m.Called(ctx, viewerID)
	users, _ := args.Get(0).([]*entity.User)
	return users, args.Error(1)
}

// do runs h as uid against a fresh echo context.
func do(t *testing.T, h echo.HandlerFunc, method, target, body, uid string, params ...string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	e := echo.New()
	e.Validator = api.NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set(middleware.ContextKeyUID, uid)
	}
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}

	require.NoError(t, h(c))

	var resp response.Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestChatHandler_SendDirect(t *testing.T) {
	svc := new(mockChatService)
	h := NewChatHandler(svc)

	svc.On("SendDirect", mock.Anything, "alice", usecase.SendDirectInput{RecipientID: "bob", Text: "hi"}).
		Return(&entity.Message{ID: "m1", Text: "hi"}, nil)

	rec, resp := do(t, h.SendDirect, http.MethodPost, "/v1/conversations/direct/messages", `{"recipient_id":"bob","text":"hi"}`, "alice")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestChatHandler_SendDirect_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{"empty", errors.EmptyMessage(), http.StatusBadRequest, errors.CodeEmptyMessage, ""},
		{"too long", errors.MessageTooLong(1000), http.StatusBadRequest, errors.CodeMessageTooLong, ""},
		{"throttled", errors.Throttled("wait", 1500*time.Millisecond), http.StatusTooManyRequests, errors.CodeTooManyRequests, "2"},
		{"outsider", errors.NotAParticipant("c", "alice"), http.StatusForbidden, errors.CodeNotAParticipant, ""},
		{"store", errors.Internal("boom", nil), http.StatusInternalServerError, errors.CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockChatService)
			svc.On("SendDirect", mock.Anything, "alice", mock.Anything).Return(nil, tt.err)

			rec, resp := do(t, NewChatHandler(svc).SendDirect, http.MethodPost, "/", `{"recipient_id":"bob","text":"x"}`, "alice")

			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
		})
	}
}

func TestChatHandler_OpenDirect_RequiresRecipient(t *testing.T) {
	svc := new(mockChatService)

	rec, resp := do(t, NewChatHandler(svc).OpenDirect, http.MethodPost, "/", `{}`, "alice")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeValidation, resp.Error.Code)
	svc.AssertNotCalled(t, "OpenDirect", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatHandler_RequiresAuthentication(t *testing.T) {
	rec, resp := do(t, NewChatHandler(new(mockChatService)).ListConversations, http.MethodGet, "/", "", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, errors.CodeUnauthorized, resp.Error.Code)
}

func TestChatHandler_MarkRead(t *testing.T) {
	svc := new(mockChatService)
	svc.On("MarkRead", mock.Anything, "alice", "alice_bob").Return(nil)

	rec, _ := do(t, NewChatHandler(svc).MarkRead, http.MethodPut, "/", "", "alice", "id", "alice_bob")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestChatHandler_Unread(t *testing.T) {
	svc := new(mockChatService)
	svc.On("Unread", mock.Anything, "alice").Return(service.UnreadView{
		Direct: map[string]int{"bob": 1},
		Groups: map[string]int{"g1": 4, "g2": 1},
	}, nil)

	rec, resp := do(t, NewChatHandler(svc).Unread, http.MethodGet, "/", "", "alice")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["groups_with_unread"])
}

func TestGroupHandler_CreateGroup(t *testing.T) {
	group := &entity.GroupConversation{ConversationSummary: entity.ConversationSummary{ID: "g1"}}

	t.Run("new group", func(t *testing.T) {
		svc := new(mockGroupService)
		svc.On("CreateGroup", mock.Anything, "alice", usecase.CreateGroupInput{Title: "Trip", Participants: []string{"bob", "carol"}}).
			Return(group, true, nil)

		rec, _ := do(t, NewGroupHandler(svc).CreateGroup, http.MethodPost, "/", `{"title":"Trip","participants":["bob","carol"]}`, "alice")
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("existing group", func(t *testing.T) {
		svc := new(mockGroupService)
		svc.On("CreateGroup", mock.Anything, "alice", mock.Anything).Return(group, false, nil)

		rec, _ := do(t, NewGroupHandler(svc).CreateGroup, http.MethodPost, "/", `{"participants":["bob","carol"]}`, "alice")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("too few participants", func(t *testing.T) {
		svc := new(mockGroupService)

		rec, resp := do(t, NewGroupHandler(svc).CreateGroup, http.MethodPost, "/", `{"participants":["bob"]}`, "alice")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, errors.CodeValidation, resp.Error.Code)
	})
}

func TestGroupHandler_SendMessage(t *testing.T) {
	svc := new(mockGroupService)
	svc.On("SendMessage", mock.Anything, "alice", "g1", "hello").Return(&entity.Message{ID: "m1"}, nil)

	rec, _ := do(t, NewGroupHandler(svc).SendMessage, http.MethodPost, "/", `{"text":"hello"}`, "alice", "id", "g1")

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestUserHandler_SetOnline(t *testing.T) {
	svc := new(mockUserService)
	svc.On("SetOnline", mock.Anything, "alice", false).Return(nil)

	rec, _ := do(t, NewUserHandler(svc).SetOnline, http.MethodPut, "/", `{"online":false}`, "alice")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = do(t, NewUserHandler(svc).SetOnline, http.MethodPut, "/", `{}`, "alice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNumberOfCalls(t, "SetOnline", 1)
}

func TestUserHandler_GetUserCarriesStatus(t *testing.T) {
	svc := new(mockUserService)
	svc.On("GetUser", mock.Anything, "bob").Return(&entity.User{UID: "bob", DisplayName: "Bob", IsOnline: true}, nil)

	rec, resp := do(t, NewUserHandler(svc).GetUser, http.MethodGet, "/", "", "alice", "id", "bob")

	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Online", data["status"])
	assert.Equal(t, "Bob", data["display_name"])
}

func TestUserHandler_GetUserNotFound(t *testing.T) {
	svc := new(mockUserService)
	svc.On("GetUser", mock.Anything, "ghost").Return(nil, errors.NotFound("User", nil))

	rec, resp := do(t, NewUserHandler(svc).GetUser, http.MethodGet, "/", "", "alice", "id", "ghost")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeNotFound, resp.Error.Code)
}
