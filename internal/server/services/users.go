package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/idgen"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/dao"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/storage"
)

// Listing bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// UserService implements registration and profile management.
type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      passwords.Hasher
	sessions    *SessionService
}

func NewUserService(m repomanager.RepositoryManager, hasher passwords.Hasher, sessions *SessionService) *UserService {
	return &UserService{repomanager: m, hasher: hasher, sessions: sessions}
}

func validEmail(email string) bool {
	if email == "" || strings.TrimSpace(email) != email {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, msg)
}

// Register creates an active, unverified, non-superuser account. Only the
// password hash is stored.
func (s *UserService) Register(ctx context.Context, db dbx.DBTX, in models.UserCreate) (*models.User, error) {
	if !validEmail(in.Email) {
		return nil, validationErr("invalid email")
	}
	if in.Password == "" {
		return nil, validationErr("password is required")
	}

	repo := s.repomanager.Users(db)

	_, err := repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internalErr("find user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internalErr("hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:          in.Email,
		FullName:       in.FullName,
		HashedPassword: hash,
		IsActive:       true,
	})
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, internalErr("create user", err)
	}
	return user, nil
}

// Get returns the user with id or common.ErrorNotFound.
func (s *UserService) Get(ctx context.Context, db dbx.DBTX, id string) (*models.User, error) {
	if !idgen.IsUUID(id) {
		return nil, common.ErrorNotFound
	}
	user, err := s.repomanager.Users(db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, internalErr("find user", err)
	}
	return user, nil
}

// List pages through all users. A non-positive limit means DefaultListLimit;
// limits above MaxListLimit are clamped.
func (s *UserService) List(ctx context.Context, db dbx.DBTX, offset, limit int) ([]models.User, error) {
	if offset < 0 {
		return nil, validationErr("offset must not be negative")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	list, err := s.repomanager.Users(db).List(ctx, offset, limit)
	if err != nil {
		return nil, internalErr("list users", err)
	}
	return list, nil
}

// Update applies a self-service change. Privilege flags in upd are ignored.
func (s *UserService) Update(ctx context.Context, db dbx.DBTX, id string, upd models.UserUpdate) (*models.User, error) {
	upd.IsActive, upd.IsVerified, upd.IsSuperuser = nil, nil, nil
	return s.update(ctx, db, id, upd)
}

// UpdatePrivileged applies a change made by a superuser, flags included.
func (s *UserService) UpdatePrivileged(ctx context.Context, db dbx.DBTX, id string, upd models.UserUpdate) (*models.User, error) {
	return s.update(ctx, db, id, upd)
}

func (s *UserService) update(ctx context.Context, db dbx.DBTX, id string, upd models.UserUpdate) (*models.User, error) {
	if !idgen.IsUUID(id) {
		return nil, common.ErrorNotFound
	}

	fields := dao.Values{}
	if upd.Email != nil {
		if !validEmail(*upd.Email) {
			return nil, validationErr("invalid email")
		}
		fields[users.ColEmail] = *upd.Email
	}
	if upd.FullName != nil {
		fields[users.ColFullName] = *upd.FullName
	}
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, validationErr("password must not be empty")
		}
		hash, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, internalErr("hash password", err)
		}
		fields[users.ColHashedPassword] = hash
	}
	if upd.IsActive != nil {
		fields[users.ColIsActive] = *upd.IsActive
	}
	if upd.IsVerified != nil {
		fields[users.ColIsVerified] = *upd.IsVerified
	}
	if upd.IsSuperuser != nil {
		fields[users.ColIsSuperuser] = *upd.IsSuperuser
	}

	if len(fields) == 0 {
		return s.Get(ctx, db, id)
	}

	user, err := s.repomanager.Users(db).Update(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, err
		case storage.IsUniqueViolation(err):
			return nil, common.ErrorConflict
		default:
			return nil, internalErr("update user", err)
		}
	}
	return user, nil
}

// SoftDelete deactivates the account and revokes all its sessions.
func (s *UserService) SoftDelete(ctx context.Context, db dbx.DBTX, id string) error {
	inactive := false
	if _, err := s.update(ctx, db, id, models.UserUpdate{IsActive: &inactive}); err != nil {
		return err
	}
	if _, err := s.sessions.RevokeAll(ctx, db, id); err != nil {
		return err
	}
	return nil
}

// HardDelete removes the account; its sessions go with it through the
// foreign key.
func (s *UserService) HardDelete(ctx context.Context, db dbx.DBTX, id string) error {
	if !idgen.IsUUID(id) {
		return common.ErrorNotFound
	}
	n, err := s.repomanager.Users(db).Delete(ctx, id)
	if err != nil {
		return internalErr("delete user", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// EnsureSuperuser creates an active, verified superuser unless an account
// with email already exists. It reports whether an account was created.
func (s *UserService) EnsureSuperuser(ctx context.Context, db dbx.DBTX, email, fullName, password string) (*models.User, bool, error) {
	if !validEmail(email) {
		return nil, false, validationErr("invalid email")
	}
	if password == "" {
		return nil, false, validationErr("password is required")
	}

	repo := s.repomanager.Users(db)

	existing, err := repo.GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, internalErr("find user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, internalErr("hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Email:          email,
		FullName:       fullName,
		HashedPassword: hash,
		IsActive:       true,
		IsVerified:     true,
		IsSuperuser:    true,
	})
	if err != nil {
		return nil, false, internalErr("create superuser", err)
	}
	return user, true, nil
}
