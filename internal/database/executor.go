package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/pkg/logger"
)

// QueryExecutionError wraps a data store failure together with the statement
// that caused it.
type QueryExecutionError struct {
	Query string
	Err   error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query failed: %v (query: %s)", e.Err, e.Query)
}

func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// Executor runs read-only queries with an optional per-call timeout.
type Executor struct {
	conn    *Connection
	timeout time.Duration
	logger  *logger.Logger
}

func NewExecutor(conn *Connection, timeout time.Duration, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.Discard()
	}
	return &Executor{conn: conn, timeout: timeout, logger: log}
}

func (e *Executor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func (e *Executor) trace(q query.Query) {
	if e.logger.IsLevelEnabled(logrus.DebugLevel) {
		e.logger.Debugf("executing %s", spew.Sdump(q))
	}
}

// Count runs a scalar count query.
func (e *Executor) Count(ctx context.Context, q query.Query) (int64, error) {
	e.trace(q)
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	var count sql.NullInt64
	if err := e.conn.DB.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&count); err != nil {
		return 0, &QueryExecutionError{Query: q.SQL, Err: err}
	}
	return count.Int64, nil
}

// Fetch returns all rows of q in select-list order.
func (e *Executor) Fetch(ctx context.Context, q query.Query) ([]Row, error) {
	e.trace(q)
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	rows, err := e.conn.DB.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, &QueryExecutionError{Query: q.SQL, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, &QueryExecutionError{Query: q.SQL, Err: err}
	}

	var result []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, &QueryExecutionError{Query: q.SQL, Err: err}
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result = append(result, NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryExecutionError{Query: q.SQL, Err: err}
	}
	return result, nil
}

// normalizeValue turns driver byte slices into strings so that rendering and
// enrichment deal with one representation.
func normalizeValue(value interface{}) interface{} {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}

// IsQueryError reports whether err came from the data store.
func IsQueryError(err error) bool {
	var qe *QueryExecutionError
	return errors.As(err, &qe)
}
