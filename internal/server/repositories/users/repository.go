// Package users declares the server-side repository contract for user
// accounts and its SQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/dao"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound
// when no row matches.
type Repository interface {
	// Create inserts user, assigning an ID and creation time when unset.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns users ordered by ID.
	List(ctx context.Context, offset, limit int) ([]models.User, error)

	// Update writes the given columns and returns the stored record.
	Update(ctx context.Context, id string, fields dao.Values) (*models.User, error)

	// Delete removes the user and reports how many rows were removed.
	Delete(ctx context.Context, id string) (int64, error)
}
