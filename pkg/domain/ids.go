// Package domain holds typed identifiers shared across service boundaries.
// IDs are distinct types over uuid.UUID so a user ID can never be passed
// where another aggregate's ID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "donorhub/pkg/domain-errors"
)

// UserID identifies a donor profile. It doubles as the JWT subject for
// self-access checks.
type UserID uuid.UUID

// ParseUserID validates a string as a user ID. Empty strings, malformed
// UUIDs, and the nil UUID are all rejected at the trust boundary.
func ParseUserID(raw string) (UserID, error) {
	if raw == "" {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user id must not be the nil UUID")
	}
	return UserID(parsed), nil
}

func (id UserID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText encodes the ID as its canonical UUID string. Defined types do
// not inherit uuid.UUID's methods, so without this a UserID would JSON-encode
// as a 16-number byte array.
func (id UserID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText decodes a canonical UUID string.
func (id *UserID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}

// IsNil reports whether the ID is the zero value.
func (id UserID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}
