// Package model provides value objects for API parameter validation.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns a new time-ordered identifier.
// UUIDv7 values generated by one process are monotonic, so (created_at, id)
// gives a stable order even when several rows share a timestamp.
func NewID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// ParseID parses an identifier taken from a request path.
func ParseID(idStr string) (uuid.UUID, error) {
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("id is required")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid UUID format")
	}
	return id, nil
}

// Now returns the current time in the precision every store keeps.
func Now() time.Time {
	return Timestamp(time.Now())
}

// Timestamp normalizes t to UTC with microsecond precision.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NormalizeText trims surrounding whitespace and rejects blank values.
// field is used in the error message.
func NormalizeText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", NewValidationErrorf("%s is required", field)
	}
	return trimmed, nil
}

// ProjectInput is one entry of a batch project creation request.
type ProjectInput struct {
	Name *string `json:"name"`
}

// TaskInput is one entry of a batch task creation request.
type TaskInput struct {
	Title *string `json:"title"`
}
