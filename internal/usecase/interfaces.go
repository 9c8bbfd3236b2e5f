package usecase

import (
	"context"
	"time"

	"convochat/internal/infrastructure/firebase"
)

type FirebaseAuthClient interface {
	VerifyToken(ctx context.Context, token string) (string, error)
	LookupIdentity(ctx context.Context, uid string) (*firebase.Identity, error)
}

// SendGate throttles message sends per sender.
type SendGate interface {
	CanSendNow(userID string) bool
	RetryAfter(userID string) time.Duration
}

// ActionLimiter throttles named, less frequent actions such as creating a group.
type ActionLimiter interface {
	Allow(userID, action string) (bool, time.Duration)
}
