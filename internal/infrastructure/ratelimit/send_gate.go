package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMessageCooldown   = time.Second
	DefaultMessagesPerWindow = 30
	sendWindow               = time.Minute
)

// SendGate is the per-sender message throttle: a cooldown between two sends
// plus a cap on sends in the trailing minute. State lives in process memory
// only, so it is a UX guard and not a security boundary.
type SendGate struct {
	mu       sync.Mutex
	cooldown time.Duration
	maxSends int
	window   time.Duration
	now      func() time.Time
	senders  map[string]*senderState
}

type senderState struct {
	lastSend time.Time
	sends    []time.Time
}

type SendGateOption func(*SendGate)

func WithCooldown(d time.Duration) SendGateOption {
	return func(g *SendGate) { g.cooldown = d }
}

func WithMaxPerMinute(n int) SendGateOption {
	return func(g *SendGate) { g.maxSends = n }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) SendGateOption {
	return func(g *SendGate) { g.now = now }
}

func NewSendGate(opts ...SendGateOption) *SendGate {
	g := &SendGate{
		cooldown: DefaultMessageCooldown,
		maxSends: DefaultMessagesPerWindow,
		window:   sendWindow,
		now:      time.Now,
		senders:  make(map[string]*senderState),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanSendNow reports whether userID may send right now and, if so, records
// the send.
func (g *SendGate) CanSendNow(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	state, ok := g.senders[userID]
	if !ok {
		state = &senderState{}
		g.senders[userID] = state
	}

	if !state.lastSend.IsZero() && now.Sub(state.lastSend) < g.cooldown {
		return false
	}

	state.sends = trimBefore(state.sends, now.Add(-g.window))
	if len(state.sends) >= g.maxSends {
		return false
	}

	state.lastSend = now
	state.sends = append(state.sends, now)
	return true
}

// RetryAfter estimates how long userID has to wait before CanSendNow can
// succeed. It does not record anything.
func (g *SendGate) RetryAfter(userID string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.senders[userID]
	if !ok {
		return 0
	}

	now := g.now()
	var wait time.Duration
	if !state.lastSend.IsZero() {
		if d := g.cooldown - now.Sub(state.lastSend); d > wait {
			wait = d
		}
	}
	recent := trimBefore(state.sends, now.Add(-g.window))
	if len(recent) >= g.maxSends {
		oldest := recent[len(recent)-g.maxSends]
		if d := oldest.Add(g.window).Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}

// Reset forgets every sender.
func (g *SendGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.senders = make(map[string]*senderState)
}

// Cleanup drops senders with no send inside the trailing window.
func (g *SendGate) Cleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-g.window)
	for userID, state := range g.senders {
		if state.lastSend.Before(cutoff) {
			delete(g.senders, userID)
		}
	}
}

func (g *SendGate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.senders)
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (g *SendGate) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				g.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// trimBefore drops timestamps at or before cutoff. times is ascending.
func trimBefore(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
