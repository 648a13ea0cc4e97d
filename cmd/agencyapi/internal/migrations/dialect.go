package migrations

import (
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// IsSQLite reports whether db runs on the embedded SQLite driver rather than
// PostgreSQL.
func IsSQLite(db *bun.DB) bool {
	return db.Dialect().Name() == dialect.SQLite
}

// dropTableStmt returns the statement dropping table if present. On
// PostgreSQL dependent objects go with it.
func dropTableStmt(db *bun.DB, table string) string {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", table)
	if !IsSQLite(db) {
		stmt += " CASCADE"
	}
	return stmt
}
