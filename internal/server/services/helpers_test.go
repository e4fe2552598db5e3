package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/idgen"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/refreshsessions"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/storage"
	"github.com/stretchr/testify/require"
)

const refreshTTL = 30 * 24 * time.Hour

// fakeHasher keeps hashes readable and counts verifications.
type fakeHasher struct {
	mu       sync.Mutex
	verifies int
}

func (h *fakeHasher) Hash(secret string) (string, error) {
	return "plain$" + secret, nil
}

func (h *fakeHasher) Verify(secret, hash string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return hash == "plain$"+secret, nil
}

func (h *fakeHasher) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type env struct {
	db       *sql.DB
	manager  repomanager.RepositoryManager
	hasher   *fakeHasher
	clock    *testClock
	codec    *auth.Codec
	sessions *SessionService
	users    *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, storage.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "services.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	m, err := repomanager.NewSQLRepositoryManager(storage.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, m.RunMigrations(ctx, db))

	return newEnvWith(t, db, m)
}

func newEnvWith(t *testing.T, db *sql.DB, m repomanager.RepositoryManager) *env {
	t.Helper()

	codec, err := auth.NewCodec([]byte("test-secret"), "HS256", 15*time.Minute)
	require.NoError(t, err)
	ids, err := idgen.NewSnowflake(1)
	require.NoError(t, err)

	clock := &testClock{now: time.Now().UTC().Truncate(time.Second)}
	hasher := &fakeHasher{}

	sessions, err := NewSessionService(m, codec, hasher, ids, refreshTTL, WithClock(clock.Now))
	require.NoError(t, err)

	return &env{
		db:       db,
		manager:  m,
		hasher:   hasher,
		clock:    clock,
		codec:    codec,
		sessions: sessions,
		users:    NewUserService(m, hasher, sessions),
	}
}

func (e *env) tx(t *testing.T, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	t.Helper()
	return dbx.WithTx(context.Background(), e.db, nil, fn)
}

func (e *env) register(t *testing.T, email, password string) *models.User {
	t.Helper()
	var u *models.User
	err := e.tx(t, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		u, err = e.users.Register(ctx, tx, models.UserCreate{
			Email: email, FullName: strings.Split(email, "@")[0], Password: password,
		})
		return err
	})
	require.NoError(t, err)
	return u
}

func (e *env) issue(t *testing.T, userID string) *models.TokenPair {
	t.Helper()
	var p *models.TokenPair
	err := e.tx(t, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		p, err = e.sessions.Issue(ctx, tx, userID)
		return err
	})
	require.NoError(t, err)
	return p
}

func (e *env) rotate(t *testing.T, token string) (*models.TokenPair, error) {
	t.Helper()
	var p *models.TokenPair
	err := e.tx(t, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		p, err = e.sessions.Rotate(ctx, tx, token)
		return err
	})
	return p, err
}

func (e *env) sessionsOf(t *testing.T, userID string) []models.RefreshSession {
	t.Helper()
	list, err := e.manager.RefreshSessions(e.db).ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return list
}

// fakeManager serves hand-written repositories.
type fakeManager struct {
	users    users.Repository
	sessions refreshsessions.Repository
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *fakeManager) RefreshSessions(dbx.DBTX) refreshsessions.Repository {
	return m.sessions
}
