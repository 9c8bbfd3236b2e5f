package service

import (
	"sync"

	"convochat/internal/domain/entity"
)

// UnreadView is the display-ready unread state of one viewer. Direct is keyed
// by the other participant's id, Groups by conversation id. Only positive
// counts appear.
type UnreadView struct {
	Direct map[string]int `json:"direct"`
	Groups map[string]int `json:"groups"`
}

// GroupsWithUnread is the number of groups holding at least one unread message.
func (v UnreadView) GroupsWithUnread() int {
	return len(v.Groups)
}

// SuppressionKey is the key a conversation's badge is stored under in an
// UnreadView, and therefore the key used to suppress it locally.
func SuppressionKey(viewer string, c entity.Conversation) string {
	switch conv := c.(type) {
	case *entity.DirectConversation:
		return conv.OtherParticipant(viewer)
	case *entity.GroupConversation:
		return conv.ID
	default:
		return ""
	}
}

// ProjectUnread blends the server's unread counters with the set of badges the
// viewer has already cleared locally. It never changes server state.
func ProjectUnread(viewer string, items []entity.ConversationListItem, suppressed map[string]struct{}) UnreadView {
	view := UnreadView{
		Direct: make(map[string]int),
		Groups: make(map[string]int),
	}

	for _, item := range items {
		if item.Conversation == nil {
			continue
		}
		key := SuppressionKey(viewer, item.Conversation)
		if key == "" {
			continue
		}
		count := item.Conversation.Base().UnreadFor(viewer)
		if count <= 0 {
			continue
		}
		if _, hidden := suppressed[key]; hidden {
			continue
		}

		switch item.Conversation.Kind() {
		case entity.ConversationDirect:
			view.Direct[key] = count
		case entity.ConversationGroup:
			view.Groups[key] = count
		}
	}
	return view
}

// Projector keeps a viewer's suppression set and last snapshot, and re-derives
// the UnreadView whenever either changes.
type Projector struct {
	viewer   string
	onChange func(UnreadView)

	mu         sync.Mutex
	suppressed map[string]struct{}
	last       []entity.ConversationListItem
}

// NewProjector returns a projector for viewer. onChange, if set, is called
// with every newly derived view.
func NewProjector(viewer string, onChange func(UnreadView)) *Projector {
	return &Projector{
		viewer:     viewer,
		onChange:   onChange,
		suppressed: make(map[string]struct{}),
	}
}

// Apply projects a fresh snapshot batch. A suppression is dropped once the
// server reports zero for its key, so later messages show up again.
func (p *Projector) Apply(items []entity.ConversationListItem) UnreadView {
	p.mu.Lock()
	p.last = items
	view := ProjectUnread(p.viewer, items, p.suppressed)
	for _, item := range items {
		if item.Conversation == nil {
			continue
		}
		if item.Conversation.Base().UnreadFor(p.viewer) == 0 {
			delete(p.suppressed, SuppressionKey(p.viewer, item.Conversation))
		}
	}
	p.mu.Unlock()

	p.emit(view)
	return view
}

// MarkLocallyRead hides key's badge immediately, before the read-mark round
// trip completes.
func (p *Projector) MarkLocallyRead(key string) UnreadView {
	p.mu.Lock()
	p.suppressed[key] = struct{}{}
	view := ProjectUnread(p.viewer, p.last, p.suppressed)
	p.mu.Unlock()

	p.emit(view)
	return view
}

func (p *Projector) emit(view UnreadView) {
	if p.onChange != nil {
		p.onChange(view)
	}
}
