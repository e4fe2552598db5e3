package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/idgen"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRegister_ForcesFlagsAndHashes(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "ann@example.com", "s3cret")

	got, err := e.users.Get(context.Background(), e.db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.True(t, got.IsActive)
	assert.False(t, got.IsVerified)
	assert.False(t, got.IsSuperuser)
	assert.Equal(t, "plain$s3cret", got.HashedPassword)
}

func TestRegister_Conflict(t *testing.T) {
	e := newEnv(t)
	e.register(t, "ann@example.com", "pw")

	_, err := e.users.Register(context.Background(), e.db, models.UserCreate{Email: "ann@example.com", Password: "x"})
	require.ErrorIs(t, err, common.ErrorConflict)

	// a different case is a different email
	_, err = e.users.Register(context.Background(), e.db, models.UserCreate{Email: "Ann@example.com", Password: "x"})
	require.NoError(t, err)
}

func TestRegister_UniqueViolationIsConflict(t *testing.T) {
	us := &fakeUsers{
		byID:      map[string]*models.User{},
		createErr: fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"}),
	}
	e := newEnvWith(t, nil, &fakeManager{users: us, sessions: &fakeSessions{}})

	_, err := e.users.Register(context.Background(), nil, models.UserCreate{Email: "race@example.com", Password: "pw"})
	require.ErrorIs(t, err, common.ErrorConflict)
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)

	for _, in := range []models.UserCreate{
		{Email: "", Password: "pw"},
		{Email: "not-an-email", Password: "pw"},
		{Email: " ann@example.com", Password: "pw"},
		{Email: "ann@example.com", Password: ""},
	} {
		_, err := e.users.Register(context.Background(), e.db, in)
		require.ErrorIs(t, err, common.ErrorValidation, in.Email)
	}
}

func TestGet_NotFound(t *testing.T) {
	e := newEnv(t)

	_, err := e.users.Get(context.Background(), e.db, idgen.NewUUID())
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.users.Get(context.Background(), e.db, "1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList_Limits(t *testing.T) {
	us := &fakeUsers{byID: map[string]*models.User{}}
	e := newEnvWith(t, nil, &fakeManager{users: us, sessions: &fakeSessions{}})
	ctx := context.Background()

	_, err := e.users.List(ctx, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, us.listLimit)

	_, err = e.users.List(ctx, nil, 5, 5000)
	require.NoError(t, err)
	assert.Equal(t, MaxListLimit, us.listLimit)
	assert.Equal(t, 5, us.listOffset)

	_, err = e.users.List(ctx, nil, -1, 10)
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestList_SQLite(t *testing.T) {
	e := newEnv(t)
	e.register(t, "a@example.com", "pw")
	e.register(t, "b@example.com", "pw")
	e.register(t, "c@example.com", "pw")

	all, err := e.users.List(context.Background(), e.db, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := e.users.List(context.Background(), e.db, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestUpdate_IgnoresPrivilegeFlags(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "ann@example.com", "pw")

	got, err := e.users.Update(context.Background(), e.db, u.ID, models.UserUpdate{
		FullName:    ptr("Ann Lee"),
		Password:    ptr("new"),
		IsSuperuser: ptr(true),
		IsVerified:  ptr(true),
		IsActive:    ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", got.FullName)
	assert.Equal(t, "plain$new", got.HashedPassword)
	assert.False(t, got.IsSuperuser)
	assert.False(t, got.IsVerified)
	assert.True(t, got.IsActive)
}

func TestUpdate_EmptyReturnsCurrent(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "ann@example.com", "pw")

	got, err := e.users.Update(context.Background(), e.db, u.ID, models.UserUpdate{IsSuperuser: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.False(t, got.IsSuperuser)
}

func TestUpdatePrivileged_SetsFlags(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "ann@example.com", "pw")

	got, err := e.users.UpdatePrivileged(context.Background(), e.db, u.ID, models.UserUpdate{
		IsSuperuser: ptr(true),
		IsVerified:  ptr(true),
	})
	require.NoError(t, err)
	assert.True(t, got.IsSuperuser)
	assert.True(t, got.IsVerified)
	assert.True(t, got.IsActive)
}

func TestUpdate_EmailConflictAndMissing(t *testing.T) {
	e := newEnv(t)
	e.register(t, "ann@example.com", "pw")
	bob := e.register(t, "bob@example.com", "pw")
	ctx := context.Background()

	_, err := e.users.Update(ctx, e.db, bob.ID, models.UserUpdate{Email: ptr("ann@example.com")})
	require.ErrorIs(t, err, common.ErrorConflict)

	_, err = e.users.Update(ctx, e.db, bob.ID, models.UserUpdate{Email: ptr("bogus")})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = e.users.Update(ctx, e.db, bob.ID, models.UserUpdate{Password: ptr("")})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = e.users.UpdatePrivileged(ctx, e.db, idgen.NewUUID(), models.UserUpdate{FullName: ptr("x")})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSoftDelete_DeactivatesAndRevokes(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "ann@example.com", "pw")
	p := e.issue(t, u.ID)
	e.issue(t, u.ID)

	err := e.tx(t, func(ctx context.Context, tx dbx.DBTX) error {
		return e.users.SoftDelete(ctx, tx, u.ID)
	})
	require.NoError(t, err)

	got, err := e.users.Get(context.Background(), e.db, u.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Empty(t, e.sessionsOf(t, u.ID))

	_, err = e.rotate(t, p.RefreshToken)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	err = e.users.SoftDelete(context.Background(), e.db, idgen.NewUUID())
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestHardDelete_CascadesSessions(t *testing.T) {
	e := newEnv(t)
	u := e.register(t, "ann@example.com", "pw")
	p := e.issue(t, u.ID)
	ctx := context.Background()

	require.NoError(t, e.users.HardDelete(ctx, e.db, u.ID))
	assert.Empty(t, e.sessionsOf(t, u.ID))

	_, err := e.rotate(t, p.RefreshToken)
	require.ErrorIs(t, err, common.ErrInvalidToken)

	require.ErrorIs(t, e.users.HardDelete(ctx, e.db, u.ID), common.ErrorNotFound)
	require.ErrorIs(t, e.users.HardDelete(ctx, e.db, "x"), common.ErrorNotFound)
}

func TestEnsureSuperuser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, created, err := e.users.EnsureSuperuser(ctx, e.db, "root@example.com", "Root", "pw")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsVerified)
	assert.True(t, u.IsActive)

	again, created, err := e.users.EnsureSuperuser(ctx, e.db, "root@example.com", "Other", "pw2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Root", again.FullName)

	_, _, err = e.users.EnsureSuperuser(ctx, e.db, "root@example.com", "Root", "")
	require.ErrorIs(t, err, common.ErrorValidation)
}
