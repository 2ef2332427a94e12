package sqlstore

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// pgUniqueViolation is the SQLSTATE of a unique constraint violation.
const pgUniqueViolation = "23505"

type dialect struct {
	driver string
	goose  goose.Dialect
	// dir is the migration directory inside migrations.FS.
	dir string
	// month formats a DATE column as MM-YYYY.
	month func(col string) string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver: DriverSQLite,
		goose:  goose.DialectSQLite3,
		dir:    "sqlite3",
		month:  func(col string) string { return "strftime('%m-%Y', " + col + ")" },
	},
	DriverPostgres: {
		driver: DriverPostgres,
		goose:  goose.DialectPostgres,
		dir:    "postgres",
		month:  func(col string) string { return "to_char(" + col + ", 'MM-YYYY')" },
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	return d, nil
}

// isUniqueViolation reports whether err is a unique constraint failure on
// either backend.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}
