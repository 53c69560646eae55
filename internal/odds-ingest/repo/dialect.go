package repo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect isola as diferenças de SQL entre Postgres e SQLite
type Dialect interface {
	Name() string
	Placeholder(n int) string
	Schema() []string
	IsUniqueViolation(err error) bool
}

type postgresDialect struct{}

func (postgresDialect) Name() string              { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (postgresDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS candidate (
			candidate_id    SERIAL PRIMARY KEY,
			created_at      TIMESTAMPTZ NOT NULL,
			lastname        CHAR(45) NOT NULL,
			win_probability DOUBLE PRECISION,
			CONSTRAINT candidate_lastname_key UNIQUE (lastname)
		)`,
	}
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string            { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS candidate (
			candidate_id    INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at      DATETIME NOT NULL,
			lastname        CHAR(45) NOT NULL UNIQUE,
			win_probability REAL
		)`,
	}
}

func (sqliteDialect) IsUniqueViolation(err error) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	switch code := sqErr.Code(); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// sem extended result codes só sobra a mensagem
		return strings.Contains(sqErr.Error(), "UNIQUE")
	}
	return false
}

var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectFor resolve o dialeto pelo nome do driver (DB_DRIVER)
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres, nil
	case "sqlite":
		return SQLite, nil
	}
	return nil, errors.New("unknown sql dialect " + strconv.Quote(driver))
}
