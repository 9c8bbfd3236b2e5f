package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationIDForUsers_Commutative(t *testing.T) {
	pairs := [][2]string{
		{"a", "b"},
		{"uidZ", "uidA"},
		{"same", "same"},
		{"", "x"},
	}

	for _, p := range pairs {
		assert.Equal(t, ConversationIDForUsers(p[0], p[1]), ConversationIDForUsers(p[1], p[0]))
	}
	assert.Equal(t, "a_b", ConversationIDForUsers("b", "a"))
}

func TestParticipantsKey_IgnoresOrderAndDuplicates(t *testing.T) {
	want := "u1_u2_u3"
	variants := [][]string{
		{"u1", "u2", "u3"},
		{"u3", "u1", "u2"},
		{"u2", "u3", "u1"},
		{"u3", "u1", "u1", "u2"},
		{"u2", "u2", "u2", "u3", "u1", "u3"},
	}

	for _, v := range variants {
		assert.Equal(t, want, ParticipantsKey(v), "variant %v", v)
	}
}

func TestParticipantsKey_Empty(t *testing.T) {
	assert.Equal(t, "", ParticipantsKey(nil))
	assert.Equal(t, "solo", ParticipantsKey([]string{"solo", "solo"}))
}

func TestDedupeParticipants_DoesNotMutateInput(t *testing.T) {
	in := []string{"c", "a", "c", "b"}
	out := DedupeParticipants(in)

	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Equal(t, []string{"c", "a", "c", "b"}, in)
}
