// Package store persists donor profiles. Implementations are
// interface-driven so services stay testable and the memory, PostgreSQL,
// and cached variants can be swapped without rewiring business code.
package store

import (
	"context"

	"donorhub/internal/profile/models"
	id "donorhub/pkg/domain"
	"donorhub/pkg/platform/sentinel"
)

// ErrNotFound is returned when no profile exists for the requested ID.
var ErrNotFound = sentinel.ErrNotFound

// ErrAlreadyExists is returned by Create when the ID is already taken.
var ErrAlreadyExists = sentinel.ErrConflict

// Store is the persistence boundary for donor profiles.
type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	Close(ctx context.Context) error
}
