package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "donorhub/pkg/domain-errors"
)

// ParseUserID guards the trust boundary: every inbound identifier must be a
// valid, non-nil UUID before it reaches stores or external systems.
func TestParseUserID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseUserID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseUserID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(valid), id)
		assert.Equal(t, valid.String(), id.String())
		assert.False(t, id.IsNil())
	})
}

// UserID must JSON-encode as the canonical UUID string, not as uuid.UUID's
// underlying byte array.
func TestUserID_JSON(t *testing.T) {
	id, err := ParseUserID("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	require.NoError(t, err)

	encoded, err := json.Marshal(struct {
		ID UserID `json:"id"`
	}{ID: id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"f47ac10b-58cc-4372-a567-0e02b2c3d479"}`, string(encoded))

	var decoded struct {
		ID UserID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, id, decoded.ID)

	var bad struct {
		ID UserID `json:"id"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"id":"not-a-uuid"}`), &bad))
}
