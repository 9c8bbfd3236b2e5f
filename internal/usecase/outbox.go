package usecase

import (
	"context"

	"convochat/internal/domain/repository"
	"convochat/pkg/errors"
	"convochat/pkg/logger"
)

// outbox holds the checks every outgoing message passes before it reaches
// the store.
type outbox struct {
	userRepo  repository.UserRepository
	gate      SendGate
	maxLength int
}

// admit validates text, consumes a send slot for userID and resolves the
// sender's display name. An unknown sender keeps an empty name so the
// payload builder falls back to its default.
func (o *outbox) admit(ctx context.Context, userID, text string) (string, string, error) {
	trimmed, err := normalizeText(text, o.maxLength)
	if err != nil {
		return "", "", err
	}

	if !o.gate.CanSendNow(userID) {
		wait := o.gate.RetryAfter(userID)
		logger.Debug("Send throttled for user %s, retry in %v", userID, wait)
		return "", "", errors.Throttled("Please wait before sending another message", wait)
	}

	var name string
	if o.userRepo != nil {
		user, err := o.userRepo.GetByID(ctx, userID)
		if err != nil {
			logger.Warn("Could not resolve sender name for %s: %v", userID, err)
		} else if user != nil {
			name = user.DisplayName
		}
	}
	return trimmed, name, nil
}
