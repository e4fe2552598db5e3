package refreshsessions

import (
	"context"
	"math"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/dao"
)

// Column names of the refresh_sessions table.
const (
	ColID           = "id"
	ColRefreshToken = "refresh_token"
	ColExpiresIn    = "expires_in"
	ColCreatedAt    = "created_at"
	ColUserID       = "user_id"
)

// Descriptor describes the refresh_sessions table for the given sqlx bind
// type.
func Descriptor(bind int) dao.Descriptor {
	return dao.Descriptor{
		Table:   "refresh_sessions",
		Key:     ColID,
		Columns: []string{ColID, ColRefreshToken, ColExpiresIn, ColCreatedAt, ColUserID},
		Bind:    bind,
	}
}

type SQLRepository struct {
	db    dbx.DBTX
	table *dao.Table[models.RefreshSession]
}

func NewSQLRepository(db dbx.DBTX, bind int) *SQLRepository {
	return &SQLRepository{db: db, table: dao.NewTable[models.RefreshSession](Descriptor(bind))}
}

func (r *SQLRepository) Create(ctx context.Context, s *models.RefreshSession) error {
	return r.table.Insert(ctx, r.db, dao.Values{
		ColID:           s.ID,
		ColRefreshToken: s.RefreshToken,
		ColExpiresIn:    s.ExpiresIn,
		ColCreatedAt:    s.CreatedAt,
		ColUserID:       s.UserID,
	})
}

func (r *SQLRepository) GetByToken(ctx context.Context, token string) (*models.RefreshSession, error) {
	return r.table.FindOne(ctx, r.db, dao.Filter{ColRefreshToken: token})
}

func (r *SQLRepository) ListByUser(ctx context.Context, userID string) ([]models.RefreshSession, error) {
	return r.table.FindAll(ctx, r.db, dao.Filter{ColUserID: userID}, 0, math.MaxInt32)
}

func (r *SQLRepository) Rotate(ctx context.Context, oldToken string, next *models.RefreshSession) (*models.RefreshSession, error) {
	return r.table.Update(ctx, r.db,
		dao.Filter{ColRefreshToken: oldToken},
		dao.Values{
			ColRefreshToken: next.RefreshToken,
			ColExpiresIn:    next.ExpiresIn,
			ColCreatedAt:    next.CreatedAt,
		})
}

func (r *SQLRepository) DeleteByID(ctx context.Context, id int64) (int64, error) {
	return r.table.Delete(ctx, r.db, dao.Filter{ColID: id})
}

func (r *SQLRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return r.table.Delete(ctx, r.db, dao.Filter{ColRefreshToken: token})
}

func (r *SQLRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.table.Delete(ctx, r.db, dao.Filter{ColUserID: userID})
}
