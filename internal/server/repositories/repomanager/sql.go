package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/refreshsessions"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/authkeeper/internal/server/storage"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends SQL repositories for one driver.
type SQLRepositoryManager struct {
	dialect string
	bind    int
}

// NewSQLRepositoryManager returns a manager for a database/sql driver name
// known to the storage package.
func NewSQLRepositoryManager(driver string) (*SQLRepositoryManager, error) {
	dialect, err := storage.Dialect(driver)
	if err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: dialect, bind: storage.BindType(driver)}, nil
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.bind)
}

func (m *SQLRepositoryManager) RefreshSessions(db dbx.DBTX) refreshsessions.Repository {
	return refreshsessions.NewSQLRepository(db, m.bind)
}

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// newMigrator is a seam for tests.
var newMigrator = func(dialect goose.Dialect, db *sql.DB, fsys fs.FS) (migrator, error) {
	return goose.NewProvider(dialect, db, fsys)
}

func gooseDialect(dialect string) goose.Dialect {
	if dialect == migrations.SQLite {
		return goose.DialectSQLite3
	}
	return goose.DialectPostgres
}

// RunMigrations applies every pending embedded migration of the manager's
// dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := migrations.FS(m.dialect)
	if err != nil {
		return err
	}

	p, err := newMigrator(gooseDialect(m.dialect), db, fsys)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}
