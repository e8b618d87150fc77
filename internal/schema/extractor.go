package schema

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kitzberger/cli-browser/pkg/logger"
)

// Querier is the subset of *sql.DB the extractor needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Extractor reads physical column names from the database catalog. It backs the
// column prompt for tables whose metadata does not declare a column list.
type Extractor struct {
	db     Querier
	engine string
	logger *logger.Logger
}

func NewExtractor(db Querier, engine string, logger *logger.Logger) *Extractor {
	return &Extractor{
		db:     db,
		engine: engine,
		logger: logger,
	}
}

func (e *Extractor) ExtractColumns(ctx context.Context, table string) ([]string, error) {
	e.logger.Debugf("Extracting columns of %s...", table)

	var query string
	switch e.engine {
	case "mysql":
		query = `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`
	case "postgres":
		query = `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1
			ORDER BY ordinal_position`
	case "sqlite":
		query = "SELECT name FROM pragma_table_info(?) ORDER BY cid"
	default:
		return nil, fmt.Errorf("unsupported database type: %s", e.engine)
	}

	rows, err := e.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read column metadata: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read column metadata: %w", err)
	}

	e.logger.Debugf("%d columns extracted for %s", len(columns), table)
	return columns, nil
}
