package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectConversation_OtherParticipant(t *testing.T) {
	c := &DirectConversation{ConversationSummary{ID: "a_b", Participants: []string{"a", "b"}}}

	assert.Equal(t, "b", c.OtherParticipant("a"))
	assert.Equal(t, "a", c.OtherParticipant("b"))
	assert.Equal(t, "a", c.OtherParticipant("z"))
}

func TestConversationSummary_UnreadFor(t *testing.T) {
	s := &ConversationSummary{UnreadCount: map[string]int{"a": 2}}

	assert.Equal(t, 2, s.UnreadFor("a"))
	assert.Equal(t, 0, s.UnreadFor("b"))
	assert.Equal(t, 0, (&ConversationSummary{}).UnreadFor("a"))
}

func TestConversation_MarshalJSONCarriesType(t *testing.T) {
	var conversations []Conversation = []Conversation{
		&DirectConversation{ConversationSummary{ID: "a_b", Participants: []string{"a", "b"}}},
		&GroupConversation{ConversationSummary: ConversationSummary{ID: "g1"}, Title: "crew", ParticipantsKey: "a_b_c"},
	}

	raw, err := json.Marshal(conversations)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, "direct", decoded[0]["type"])
	assert.Equal(t, "a_b", decoded[0]["id"])
	assert.Equal(t, "group", decoded[1]["type"])
	assert.Equal(t, "crew", decoded[1]["title"])
	assert.Equal(t, "a_b_c", decoded[1]["participants_key"])
}

func TestUser_StatusText(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "Online", (&User{IsOnline: true}).StatusText(now))
	assert.Equal(t, "Recently active", (&User{LastSeen: now.Add(-time.Minute)}).StatusText(now))
	assert.Equal(t, "Offline", (&User{LastSeen: now.Add(-time.Hour)}).StatusText(now))
	assert.Equal(t, "Offline", (&User{}).StatusText(now))
	assert.Equal(t, "jane", DisplayNameFromEmail("jane@example.com"))
}
