package utils

import (
	"sort"
	"strings"
)

const keySeparator = "_"

// ConversationIDForUsers returns the deterministic id of the direct
// conversation between a and b. The result does not depend on argument order.
func ConversationIDForUsers(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, keySeparator)
}

// DedupeParticipants returns the sorted set of distinct ids in uids.
func DedupeParticipants(uids []string) []string {
	seen := make(map[string]struct{}, len(uids))
	out := make([]string, 0, len(uids))
	for _, uid := range uids {
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// ParticipantsKey fingerprints a participant set: sorted, deduplicated and
// joined. Permutations and repeated ids of the same set yield the same key.
func ParticipantsKey(uids []string) string {
	return strings.Join(DedupeParticipants(uids), keySeparator)
}
