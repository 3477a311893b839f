package common

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor is an opaque pagination token wrapping DynamoDB's
// LastEvaluatedKey. Clients echo it back verbatim; its contents are a
// private detail of the storage layer.
type Cursor map[string]string

// EncodeCursor renders a cursor as a URL-safe token. An empty cursor
// encodes to the empty string, meaning no further pages.
func EncodeCursor(c Cursor) (string, error) {
	if len(c) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses a token produced by EncodeCursor. The empty string
// decodes to a nil cursor (first page).
func DecodeCursor(token string) (Cursor, error) {
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	return c, nil
}

// ClampLimit normalizes a client-supplied page size.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
