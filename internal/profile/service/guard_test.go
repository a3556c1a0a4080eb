package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "donorhub/pkg/domain"
	dErrors "donorhub/pkg/domain-errors"
)

func TestAuthorizeSelfAccess(t *testing.T) {
	owner := id.UserID(uuid.New())
	other := id.UserID(uuid.New())

	t.Run("allows the owner", func(t *testing.T) {
		err := AuthorizeSelfAccess(&Identity{Subject: owner.String()}, owner)
		assert.NoError(t, err)
	})

	t.Run("denies a different subject", func(t *testing.T) {
		err := AuthorizeSelfAccess(&Identity{Subject: other.String()}, owner)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("denies a missing identity", func(t *testing.T) {
		err := AuthorizeSelfAccess(nil, owner)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("denies an empty subject", func(t *testing.T) {
		err := AuthorizeSelfAccess(&Identity{}, owner)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("malformed subject is an internal fault, not a denial", func(t *testing.T) {
		err := AuthorizeSelfAccess(&Identity{Subject: "{{garbage}}"}, owner)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
