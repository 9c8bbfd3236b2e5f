package usecase

import (
	"strings"
	"unicode/utf8"

	"convochat/pkg/errors"
)

const DefaultMaxMessageLength = 1000

// normalizeText trims surrounding whitespace and rejects empty or oversized
// messages. Length is counted in characters, not bytes.
func normalizeText(text string, max int) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", errors.EmptyMessage()
	}
	if max <= 0 {
		max = DefaultMaxMessageLength
	}
	if utf8.RuneCountInString(trimmed) > max {
		return "", errors.MessageTooLong(max)
	}
	return trimmed, nil
}
