package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

func DialectFor(engine string) (Dialect, error) {
	switch Dialect(engine) {
	case MySQL, Postgres, SQLite:
		return Dialect(engine), nil
	default:
		return "", fmt.Errorf("unsupported database type: %s", engine)
	}
}

// Quote quotes an identifier, doubling embedded quote characters.
func (d Dialect) Quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// PlaceholderFormat is the bind marker style of the dialect.
func (d Dialect) PlaceholderFormat() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

func (d Dialect) column(alias, column string) string {
	return alias + "." + d.Quote(column)
}
