// Package catalog answers metadata questions about tables: what they look like
// according to the schema registry, and which discriminator values they hold.
package catalog

import (
	"context"
	"fmt"

	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/internal/schema"
)

// Executor runs read-only queries.
type Executor interface {
	Fetch(ctx context.Context, q query.Query) ([]database.Row, error)
}

// ColumnExtractor introspects physical columns.
type ColumnExtractor interface {
	ExtractColumns(ctx context.Context, table string) ([]string, error)
}

// ValueCount is one distinct value of a column and its number of records.
type ValueCount struct {
	Value string
	Count int64
}

type Catalog struct {
	registry  *schema.Registry
	executor  Executor
	builder   *query.Builder
	extractor ColumnExtractor
}

func New(registry *schema.Registry, executor Executor, builder *query.Builder, extractor ColumnExtractor) *Catalog {
	return &Catalog{
		registry:  registry,
		executor:  executor,
		builder:   builder,
		extractor: extractor,
	}
}

func (c *Catalog) DescribeTable(name string) (*schema.TableSchema, error) {
	return c.registry.Describe(name)
}

func (c *Catalog) ListTables() []string {
	return c.registry.Tables()
}

// DistinctValues enumerates the values of column. Soft-deleted rows are always
// excluded, whatever the session restrictions are.
func (c *Catalog) DistinctValues(ctx context.Context, table, column string, filters []query.Filter) ([]ValueCount, error) {
	ts, err := c.registry.Describe(table)
	if err != nil {
		return nil, err
	}

	rows, err := c.executor.Fetch(ctx, c.builder.BuildDistinct(ts, column, filters))
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s.%s: %w", table, column, err)
	}

	values := make([]ValueCount, 0, len(rows))
	for _, row := range rows {
		raw, _ := row.Get(column)
		count, _ := row.Get(query.CountColumn)
		values = append(values, ValueCount{
			Value: database.FormatValue(raw),
			Count: database.ToInt64(count),
		})
	}
	return values, nil
}

// Columns returns the declared column list, or the physical columns when the
// schema does not declare any.
func (c *Catalog) Columns(ctx context.Context, table string) ([]string, error) {
	ts, err := c.registry.Describe(table)
	if err != nil {
		return nil, err
	}
	if len(ts.Columns) > 0 {
		return ts.Columns, nil
	}
	if c.extractor == nil {
		return nil, fmt.Errorf("no column list available for %s", table)
	}
	return c.extractor.ExtractColumns(ctx, table)
}
