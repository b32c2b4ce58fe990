package drawing

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// RowVersion is an opaque concurrency token. Tokens are compared by equality
// only; their ordering carries no meaning.
type RowVersion []byte

// NewRowVersion returns a fresh token. Successive calls never repeat.
func NewRowVersion() RowVersion {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		id = uuid.New()
	}
	token := make(RowVersion, len(id))
	copy(token, id[:])
	return token
}

// ParseRowVersion decodes the base64 wire form. The empty string yields an
// empty token.
func ParseRowVersion(encoded string) (RowVersion, error) {
	if encoded == "" {
		return RowVersion{}, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid row version: %w", err)
	}
	return RowVersion(raw), nil
}

// Equal compares two tokens byte for byte.
func (v RowVersion) Equal(other RowVersion) bool {
	return bytes.Equal(v, other)
}

// String returns the base64 wire form.
func (v RowVersion) String() string {
	if len(v) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(v)
}
