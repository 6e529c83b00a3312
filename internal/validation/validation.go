package validation

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

var ErrEmptyBody = errors.New("message body must not be empty")

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		return s[:max]
	}
	return s
}

// MessageBody normalizes a compose-input body and rejects empty input.
func MessageBody(body string) (string, error) {
	body = TrimAndLimit(body, MaxMessageLength())
	if body == "" {
		return "", ErrEmptyBody
	}
	return body, nil
}
