// Package persistence contains helpers shared by repository implementations.
package persistence

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Strangemortal/Holistiq/internal/domain"
)

// ErrInvalidCursor is returned for tokens that were not produced by EncodeCursor.
var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeCursor serialises the cursor to a string token.
func EncodeCursor(c *domain.Cursor) string {
	if c == nil {
		return ""
	}
	raw := fmt.Sprintf("%s|%s", c.RecordedAt.UTC().Format(time.RFC3339Nano), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses the encoded cursor token. An empty token yields a nil cursor.
func DecodeCursor(token string) (*domain.Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return &domain.Cursor{RecordedAt: ts, ID: parts[1]}, nil
}

// Before reports whether record sorts strictly after c in newest-first order.
func Before(c *domain.Cursor, record domain.SessionRecord) bool {
	if c == nil {
		return true
	}
	if record.RecordedAt.Equal(c.RecordedAt) {
		return record.ID < c.ID
	}
	return record.RecordedAt.Before(c.RecordedAt)
}
