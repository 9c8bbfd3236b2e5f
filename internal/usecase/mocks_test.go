package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"convochat/internal/domain/entity"
	"convochat/internal/domain/repository"
)

type mockConversationRepo struct {
	mock.Mock
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id string) (entity.Conversation, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(entity.Conversation)
	return c, args.Error(1)
}

func (m *mockConversationRepo) GetByParticipants(ctx context.Context, a, b string) (*entity.DirectConversation, error) {
	args := m.Called(ctx, a, b)
	c, _ := args.Get(0).(*entity.DirectConversation)
	return c, args.Error(1)
}

func (m *mockConversationRepo) CreateDirectIfMissing(ctx context.Context, a, b string) (*entity.DirectConversation, error) {
	args := m.Called(ctx, a, b)
	c, _ := args.Get(0).(*entity.DirectConversation)
	return c, args.Error(1)
}

func (m *mockConversationRepo) GetOrCreateDirect(ctx context.Context, a, b string) (*entity.DirectConversation, error) {
	args := m.Called(ctx, a, b)
	c, _ := args.Get(0).(*entity.DirectConversation)
	return c, args.Error(1)
}

func (m *mockConversationRepo) MarkReadForUser(ctx context.Context, conversationID, uid string) error {
	return m.Called(ctx, conversationID, uid).Error(0)
}

func (m *mockConversationRepo) ListOrdered(ctx context.Context, uid string) ([]entity.ConversationListItem, error) {
	args := m.Called(ctx, uid)
	items, _ := args.Get(0).([]entity.ConversationListItem)
	return items, args.Error(1)
}

func (m *mockConversationRepo) SubscribeOrdered(uid string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe {
	args := m.Called(uid, onNext, onError)
	return unsubscribeArg(args.Get(0))
}

func (m *mockConversationRepo) FindGroupByParticipantsKey(ctx context.Context, key string) (*entity.GroupConversation, error) {
	args := m.Called(ctx, key)
	g, _ := args.Get(0).(*entity.GroupConversation)
	return g, args.Error(1)
}

func (m *mockConversationRepo) CreateGroup(ctx context.Context, input entity.NewGroupInput) (*entity.GroupConversation, error) {
	args := m.Called(ctx, input)
	g, _ := args.Get(0).(*entity.GroupConversation)
	return g, args.Error(1)
}

func (m *mockConversationRepo) MarkGroupReadForUser(ctx context.Context, conversationID, uid string) error {
	return m.Called(ctx, conversationID, uid).Error(0)
}

func (m *mockConversationRepo) ListGroupsOrdered(ctx context.Context, uid string) ([]entity.ConversationListItem, error) {
	args := m.Called(ctx, uid)
	items, _ := args.Get(0).([]entity.ConversationListItem)
	return items, args.Error(1)
}

func (m *mockConversationRepo) SubscribeGroupsOrdered(uid string, onNext func([]entity.ConversationListItem), onError func(error)) repository.Unsubscribe {
	args := m.Called(uid, onNext, onError)
	return unsubscribeArg(args.Get(0))
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) CreateRef() entity.MessageRef {
	return m.Called().Get(0).(entity.MessageRef)
}

func (m *mockMessageRepo) BuildTextPayload(input entity.TextPayloadInput) entity.MessagePayload {
	name := input.SenderName
	if name == "" {
		name = entity.DefaultSenderName
	}
	return entity.MessagePayload{
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		SenderName:     name,
		Text:           input.Text,
		Type:           entity.MessageTypeText,
	}
}

func (m *mockMessageRepo) SubscribeByConversationAsc(conversationID string, onNext func([]*entity.Message), onError func(error)) repository.Unsubscribe {
	args := m.Called(conversationID, onNext, onError)
	return unsubscribeArg(args.Get(0))
}

type mockAppender struct {
	mock.Mock
}

func (m *mockAppender) AppendDirect(ctx context.Context, ref entity.MessageRef, conversationID string, payload entity.MessagePayload, recipientID string) (*entity.Message, error) {
	args := m.Called(ctx, ref, conversationID, payload, recipientID)
	msg, _ := args.Get(0).(*entity.Message)
	return msg, args.Error(1)
}

func (m *mockAppender) AppendGroup(ctx context.Context, conversationID string, payload entity.MessagePayload, senderID string) (*entity.Message, error) {
	args := m.Called(ctx, conversationID, payload, senderID)
	msg, _ := args.Get(0).(*entity.Message)
	return msg, args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, uid string) (*entity.User, error) {
	args := m.Called(ctx, uid)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) SetOnlineStatus(ctx context.Context, uid string, online bool) error {
	return m.Called(ctx, uid, online).Error(0)
}

func (m *mockUserRepo) ListOrderedByName(ctx context.Context, limit int) ([]*entity.User, error) {
	args := m.Called(ctx, limit)
	users, _ := args.Get(0).([]*entity.User)
	return users, args.Error(1)
}

type stubGate struct {
	allow bool
	wait  time.Duration
	calls int
}

func (g *stubGate) CanSendNow(string) bool {
	g.calls++
	return g.allow
}

func (g *stubGate) RetryAfter(string) time.Duration { return g.wait }

type stubLimiter struct {
	allow   bool
	wait    time.Duration
	actions []string
}

func (l *stubLimiter) Allow(_ string, action string) (bool, time.Duration) {
	l.actions = append(l.actions, action)
	if l.allow {
		return true, 0
	}
	return false, l.wait
}

func directConversation(a, b string) *entity.DirectConversation {
	id := a + "_" + b
	if b < a {
		id = b + "_" + a
	}
	return &entity.DirectConversation{ConversationSummary: entity.ConversationSummary{
		ID:           id,
		Participants: []string{a, b},
		UnreadCount:  map[string]int{a: 0, b: 0},
	}}
}

func groupConversation(id string, participants ...string) *entity.GroupConversation {
	unread := make(map[string]int, len(participants))
	for _, p := range participants {
		unread[p] = 0
	}
	return &entity.GroupConversation{ConversationSummary: entity.ConversationSummary{
		ID:           id,
		Participants: participants,
		UnreadCount:  unread,
	}}
}

func unsubscribeArg(v interface{}) repository.Unsubscribe {
	switch fn := v.(type) {
	case repository.Unsubscribe:
		return fn
	case func():
		return fn
	default:
		return func() {}
	}
}
