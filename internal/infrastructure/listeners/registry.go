// Package listeners tracks live subscriptions by logical key so a component
// that re-subscribes never leaks the previous subscription.
package listeners

import (
	"sync"

	"convochat/pkg/logger"
)

// Registry maps a subscription key such as "messages_<conversationId>" to
// the func that cancels it. At most one subscription per key is live.
type Registry struct {
	mu      sync.Mutex
	cancels map[string]func()
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{
		cancels: make(map[string]func()),
	}
}

// Register stores cancel under key, cancelling whatever was registered there
// before. On a closed registry cancel runs at once and nothing is stored.
func (r *Registry) Register(key string, cancel func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		safeCancel(key, cancel)
		return
	}
	prev, ok := r.cancels[key]
	r.cancels[key] = cancel
	r.mu.Unlock()

	if ok {
		safeCancel(key, prev)
	}
}

// Cleanup cancels and forgets key. Unknown keys are a no-op.
func (r *Registry) Cleanup(key string) {
	r.mu.Lock()
	cancel, ok := r.cancels[key]
	delete(r.cancels, key)
	r.mu.Unlock()

	if ok {
		safeCancel(key, cancel)
	}
}

// CleanupAll cancels every registered subscription and empties the registry.
func (r *Registry) CleanupAll() {
	r.mu.Lock()
	cancels := r.cancels
	r.cancels = make(map[string]func())
	r.mu.Unlock()

	for key, cancel := range cancels {
		safeCancel(key, cancel)
	}
	if len(cancels) > 0 {
		logger.Debug("Cleaned up %d listeners", len(cancels))
	}
}

// Close cancels everything and makes later Register calls cancel their handle
// immediately.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.CleanupAll()
}

func (r *Registry) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.cancels[key]
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

// safeCancel runs cancel outside the registry lock. A panicking cancel is
// swallowed; the entry is already gone either way.
func safeCancel(key string, cancel func()) {
	if cancel == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			logger.Debug("Listener %s cancel failed: %v", key, rec)
		}
	}()
	cancel()
}

func ConversationsKey(uid string) string { return "convos_" + uid }

func GroupsKey(uid string) string { return "groups_" + uid }

func MessagesKey(conversationID string) string { return "messages_" + conversationID }
