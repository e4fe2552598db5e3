package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/dao"
	"github.com/google/uuid"
)

// Column names of the users table.
const (
	ColID             = "id"
	ColEmail          = "email"
	ColFullName       = "full_name"
	ColHashedPassword = "hashed_password"
	ColIsActive       = "is_active"
	ColIsVerified     = "is_verified"
	ColIsSuperuser    = "is_superuser"
	ColCreatedAt      = "created_at"
)

// Descriptor describes the users table for the given sqlx bind type.
func Descriptor(bind int) dao.Descriptor {
	return dao.Descriptor{
		Table: "users",
		Key:   ColID,
		Columns: []string{
			ColID, ColEmail, ColFullName, ColHashedPassword,
			ColIsActive, ColIsVerified, ColIsSuperuser, ColCreatedAt,
		},
		Bind: bind,
	}
}

type SQLRepository struct {
	db    dbx.DBTX
	table *dao.Table[models.User]
}

func NewSQLRepository(db dbx.DBTX, bind int) *SQLRepository {
	return &SQLRepository{db: db, table: dao.NewTable[models.User](Descriptor(bind))}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	err := r.table.Insert(ctx, r.db, dao.Values{
		ColID:             user.ID,
		ColEmail:          user.Email,
		ColFullName:       user.FullName,
		ColHashedPassword: user.HashedPassword,
		ColIsActive:       user.IsActive,
		ColIsVerified:     user.IsVerified,
		ColIsSuperuser:    user.IsSuperuser,
		ColCreatedAt:      user.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.table.FindOne(ctx, r.db, dao.Filter{ColID: id})
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.table.FindOne(ctx, r.db, dao.Filter{ColEmail: email})
}

func (r *SQLRepository) List(ctx context.Context, offset, limit int) ([]models.User, error) {
	return r.table.FindAll(ctx, r.db, nil, offset, limit)
}

func (r *SQLRepository) Update(ctx context.Context, id string, fields dao.Values) (*models.User, error) {
	return r.table.Update(ctx, r.db, dao.Filter{ColID: id}, fields)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) (int64, error) {
	return r.table.Delete(ctx, r.db, dao.Filter{ColID: id})
}
