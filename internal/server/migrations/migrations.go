// Package migrations embeds the SQL schema, one directory per dialect.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect directory names.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// FS returns the migrations of dialect rooted at the dialect directory.
func FS(dialect string) (fs.FS, error) {
	switch dialect {
	case Postgres, SQLite:
		return fs.Sub(files, dialect)
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
}
