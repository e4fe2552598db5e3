// Package refreshsessions declares the server-side repository contract for
// refresh sessions and its SQL implementation.
package refreshsessions

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository stores refresh sessions keyed by their opaque token.
type Repository interface {
	Create(ctx context.Context, s *models.RefreshSession) error

	// GetByToken returns common.ErrorNotFound when the token is unknown.
	GetByToken(ctx context.Context, token string) (*models.RefreshSession, error)

	// ListByUser returns the live rows of userID ordered by ID.
	ListByUser(ctx context.Context, userID string) ([]models.RefreshSession, error)

	// Rotate replaces the token, lifetime and creation time of the row whose
	// token is still oldToken. It returns common.ErrorNotFound when that row
	// no longer holds oldToken, i.e. another rotation or a revoke won.
	Rotate(ctx context.Context, oldToken string, next *models.RefreshSession) (*models.RefreshSession, error)

	// Delete* report the number of rows removed; zero is not an error.
	DeleteByID(ctx context.Context, id int64) (int64, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
