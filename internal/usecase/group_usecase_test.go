package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"convochat/internal/domain/entity"
	"convochat/internal/infrastructure/ratelimit"
	"convochat/pkg/errors"
)

type groupFixture struct {
	conversations *mockConversationRepo
	messages      *mockMessageRepo
	appender      *mockAppender
	users         *mockUserRepo
	gate          *stubGate
	limiter       *stubLimiter
	uc            *GroupUseCase
}

func newGroupFixture() *groupFixture {
	f := &groupFixture{
		conversations: new(mockConversationRepo),
		messages:      new(mockMessageRepo),
		appender:      new(mockAppender),
		users:         new(mockUserRepo),
		gate:          &stubGate{allow: true},
		limiter:       &stubLimiter{allow: true},
	}
	f.uc = NewGroupUseCase(f.conversations, f.messages, f.appender, f.users, f.gate, f.limiter, DefaultMaxMessageLength)
	return f
}

func TestGroupUseCase_CreateGroup_AddsCreatorAndDedupes(t *testing.T) {
	f := newGroupFixture()
	created := groupConversation("g1", "alice", "bob", "carol")

	f.conversations.On("FindGroupByParticipantsKey", mock.Anything, "alice_bob_carol").Return(nil, nil)
	f.conversations.On("CreateGroup", mock.Anything, entity.NewGroupInput{
		Title:        "Trip",
		Participants: []string{"alice", "bob", "carol"},
		CreatedBy:    "alice",
	}).Return(created, nil)

	group, isNew, err := f.uc.CreateGroup(context.Background(), "alice", CreateGroupInput{
		Title:        "  Trip ",
		Participants: []string{"carol", "bob", "carol", "alice"},
	})

	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, created, group)
	assert.Equal(t, []string{ratelimit.ActionCreateGroup}, f.limiter.actions)
	f.conversations.AssertExpectations(t)
}

func TestGroupUseCase_CreateGroup_ReturnsExisting(t *testing.T) {
	f := newGroupFixture()
	existing := groupConversation("g1", "alice", "bob", "carol")
	f.conversations.On("FindGroupByParticipantsKey", mock.Anything, "alice_bob_carol").Return(existing, nil)

	group, isNew, err := f.uc.CreateGroup(context.Background(), "bob", CreateGroupInput{Participants: []string{"carol", "alice"}})

	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "g1", group.ID)
	f.conversations.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything)
}

func TestGroupUseCase_CreateGroup_TooFewParticipants(t *testing.T) {
	f := newGroupFixture()

	_, _, err := f.uc.CreateGroup(context.Background(), "alice", CreateGroupInput{Participants: []string{"bob", "alice"}})

	assert.True(t, errors.IsValidation(err))
	assert.Empty(t, f.limiter.actions)
}

func TestGroupUseCase_CreateGroup_LostRaceReturnsWinner(t *testing.T) {
	f := newGroupFixture()
	winner := groupConversation("g-winner", "alice", "bob", "carol")

	f.conversations.On("FindGroupByParticipantsKey", mock.Anything, "alice_bob_carol").Return(nil, nil).Once()
	f.conversations.On("CreateGroup", mock.Anything, mock.Anything).Return(nil, errors.Conflict("exists"))
	f.conversations.On("FindGroupByParticipantsKey", mock.Anything, "alice_bob_carol").Return(winner, nil).Once()

	group, isNew, err := f.uc.CreateGroup(context.Background(), "alice", CreateGroupInput{Participants: []string{"bob", "carol"}})

	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "g-winner", group.ID)
}

func TestGroupUseCase_CreateGroup_Throttled(t *testing.T) {
	f := newGroupFixture()
	f.limiter.allow = false

	_, _, err := f.uc.CreateGroup(context.Background(), "alice", CreateGroupInput{Participants: []string{"bob", "carol"}})
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestGroupUseCase_SendMessage(t *testing.T) {
	f := newGroupFixture()
	f.conversations.On("GetByID", mock.Anything, "g1").Return(groupConversation("g1", "alice", "bob", "carol"), nil)
	f.users.On("GetByID", mock.Anything, "alice").Return(&entity.User{DisplayName: "Alice"}, nil)
	f.appender.On("AppendGroup", mock.Anything, "g1", entity.MessagePayload{
		ConversationID: "g1",
		SenderID:       "alice",
		SenderName:     "Alice",
		Text:           "hello all",
		Type:           entity.MessageTypeText,
	}, "alice").Return(&entity.Message{ID: "m1", ConversationID: "g1"}, nil)

	msg, err := f.uc.SendMessage(context.Background(), "alice", "g1", "hello all\n")

	require.NoError(t, err)
	assert.Equal(t, "m1", msg.ID)
	f.appender.AssertExpectations(t)
}

func TestGroupUseCase_SendMessage_RejectsOutsider(t *testing.T) {
	f := newGroupFixture()
	f.conversations.On("GetByID", mock.Anything, "g1").Return(groupConversation("g1", "alice", "bob", "carol"), nil)

	_, err := f.uc.SendMessage(context.Background(), "mallory", "g1", "hi")
	assert.True(t, errors.Is(err, errors.CodeNotAParticipant))
	f.appender.AssertNotCalled(t, "AppendGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGroupUseCase_SendMessage_RejectsDirectConversation(t *testing.T) {
	f := newGroupFixture()
	f.conversations.On("GetByID", mock.Anything, "alice_bob").Return(directConversation("alice", "bob"), nil)

	_, err := f.uc.SendMessage(context.Background(), "alice", "alice_bob", "hi")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	f.appender.AssertNotCalled(t, "AppendGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGroupUseCase_SendMessage_PropagatesAppendError(t *testing.T) {
	f := newGroupFixture()
	f.conversations.On("GetByID", mock.Anything, "g1").Return(groupConversation("g1", "alice", "bob", "carol"), nil)
	f.users.On("GetByID", mock.Anything, "bob").Return(nil, errors.NotFound("User", nil))
	f.appender.On("AppendGroup", mock.Anything, "g1", mock.Anything, "bob").
		Return(nil, errors.NotAParticipant("g1", "bob"))

	_, err := f.uc.SendMessage(context.Background(), "bob", "g1", "hi")
	assert.True(t, errors.Is(err, errors.CodeNotAParticipant))
}

func TestGroupUseCase_MarkRead(t *testing.T) {
	f := newGroupFixture()
	f.conversations.On("GetByID", mock.Anything, "g1").Return(groupConversation("g1", "alice", "bob", "carol"), nil)
	f.conversations.On("GetByID", mock.Anything, "alice_bob").Return(directConversation("alice", "bob"), nil)
	f.conversations.On("MarkGroupReadForUser", mock.Anything, "g1", "bob").Return(nil)

	require.NoError(t, f.uc.MarkRead(context.Background(), "bob", "g1"))
	assert.True(t, errors.Is(f.uc.MarkRead(context.Background(), "mallory", "g1"), errors.CodeNotAParticipant))
	assert.True(t, errors.Is(f.uc.MarkRead(context.Background(), "bob", "alice_bob"), errors.CodeNotFound))
	f.conversations.AssertNumberOfCalls(t, "MarkGroupReadForUser", 1)
}
