package query

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/kitzberger/cli-browser/internal/restriction"
	"github.com/kitzberger/cli-browser/internal/schema"
)

const (
	recordAlias = "r"
	parentAlias = "p"
	// CountColumn is the alias of the aggregate in distinct and group-by queries.
	CountColumn = "count"
	// rootPageLimit excludes the tree root (0) and the site root meta page (1).
	rootPageLimit = 1
)

type Builder struct {
	dialect Dialect
	now     func() time.Time
}

type Option func(*Builder)

// WithClock overrides the time used for start/end time restrictions.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func NewBuilder(dialect Dialect, opts ...Option) *Builder {
	b := &Builder{dialect: dialect, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *Builder) col(column string) string {
	return b.dialect.column(recordAlias, column)
}

func (b *Builder) selectFrom(table string, columns ...string) sq.SelectBuilder {
	return sq.StatementBuilder.
		PlaceholderFormat(b.dialect.PlaceholderFormat()).
		Select(columns...).
		From(b.dialect.Quote(table) + " " + recordAlias)
}

// where adds pid > 1, every active restriction and the equality filters.
func (b *Builder) where(sb sq.SelectBuilder, table *schema.TableSchema, set restriction.Set, filters []Filter) sq.SelectBuilder {
	sb = sb.Where(sq.Gt{b.col(schema.ParentKey): rootPageLimit})
	sb = b.whereRestrictions(sb, table, set)
	return b.whereFilters(sb, filters)
}

func (b *Builder) whereRestrictions(sb sq.SelectBuilder, table *schema.TableSchema, set restriction.Set) sq.SelectBuilder {
	now := b.now().Unix()
	for _, kind := range restriction.Kinds {
		if restriction.IsActive(set, kind, table) != restriction.Active {
			continue
		}
		column, _ := restriction.ControlColumn(table, kind)
		col := b.col(column)
		switch kind {
		case restriction.Deleted, restriction.Disabled:
			sb = sb.Where(col + " = 0")
		case restriction.StartTime:
			sb = sb.Where(sq.LtOrEq{col: now})
		case restriction.EndTime:
			sb = sb.Where(sq.Or{sq.Expr(col + " = 0"), sq.Gt{col: now}})
		}
	}
	return sb
}

// whereFilters keeps the filter order; a single sq.Eq would sort its keys.
func (b *Builder) whereFilters(sb sq.SelectBuilder, filters []Filter) sq.SelectBuilder {
	for _, f := range filters {
		sb = sb.Where(sq.Eq{b.col(f.Column): f.Value})
	}
	return sb
}

func toQuery(sb sq.SelectBuilder) Query {
	sql, args := sb.MustSql()
	return Query{SQL: sql, Args: args}
}

// BuildCount counts matching records. The result is a single scalar.
func (b *Builder) BuildCount(table *schema.TableSchema, set restriction.Set, filters []Filter) Query {
	sb := b.selectFrom(table.Name, "COUNT("+b.col(schema.PrimaryKey)+")")
	return toQuery(b.where(sb, table, set, filters))
}

// BuildGroupCount counts the distinct parents of matching records, the total of
// the group-by-parent view.
func (b *Builder) BuildGroupCount(table *schema.TableSchema, set restriction.Set, filters []Filter) Query {
	sb := b.selectFrom(table.Name, "COUNT(DISTINCT "+b.col(schema.ParentKey)+")")
	return toQuery(b.where(sb, table, set, filters))
}

func (b *Builder) BuildList(spec Spec) Query {
	columns := spec.Columns
	if columns == nil {
		columns = DefaultColumns(spec.Table, spec.Restrictions, hasFilterOn(spec.Filters, spec.Table.TypeField))
	}

	items := make([]string, 0, len(columns))
	for _, column := range columns {
		items = append(items, b.col(column))
	}
	sb := b.selectFrom(spec.Table.Name, items...)

	for _, projection := range spec.Projections {
		expr, ok := projection.Render(b.dialect, recordAlias)
		if !ok {
			continue
		}
		sb = sb.Column(sq.Expr(expr + " AS " + b.dialect.Quote(projection.Alias)))
	}

	if spec.ParentTable != "" {
		sb = sb.InnerJoin(fmt.Sprintf("%s %s ON %s = %s",
			b.dialect.Quote(spec.ParentTable), parentAlias,
			b.dialect.column(parentAlias, schema.PrimaryKey), b.col(schema.ParentKey)))
	}
	sb = b.where(sb, spec.Table, spec.Restrictions, spec.Filters)

	order := spec.OrderBy
	if len(order) == 0 {
		order = DefaultOrder(spec.Table)
	}
	sb = sb.OrderBy(b.orderBy(order, false)...)

	return toQuery(paginate(sb, spec.Limit, spec.Offset))
}

// BuildGroupByParent produces (count, pid) pairs for the matching records.
func (b *Builder) BuildGroupByParent(spec Spec) Query {
	sb := b.selectFrom(spec.Table.Name,
		"COUNT("+b.col(schema.PrimaryKey)+") AS "+b.dialect.Quote(CountColumn),
		b.col(schema.ParentKey))
	sb = b.where(sb, spec.Table, spec.Restrictions, spec.Filters).
		GroupBy(b.col(schema.ParentKey))

	order := spec.OrderBy
	if len(order) == 0 {
		order = []Order{{Column: CountColumn, Descending: true}, {Column: schema.ParentKey}}
	}
	sb = sb.OrderBy(b.orderBy(order, true)...)

	return toQuery(paginate(sb, spec.Limit, spec.Offset))
}

// BuildDistinct lists the values of column with their number of records. Only
// soft-deleted rows are excluded; the session restrictions do not apply.
func (b *Builder) BuildDistinct(table *schema.TableSchema, column string, filters []Filter) Query {
	sb := b.selectFrom(table.Name,
		b.col(column),
		"COUNT("+b.col(column)+") AS "+b.dialect.Quote(CountColumn))
	sb = b.whereRestrictions(sb, table, restriction.SoftDeleteOnly())
	sb = b.whereFilters(sb, filters).
		GroupBy(b.col(column)).
		OrderBy(b.col(column))
	return toQuery(sb)
}

// BuildRecord fetches the given columns of one record by uid, without any
// restriction.
func (b *Builder) BuildRecord(table string, uid int64, columns ...string) Query {
	items := make([]string, 0, len(columns))
	for _, column := range columns {
		items = append(items, b.col(column))
	}
	sb := b.selectFrom(table, items...).
		Where(sq.Eq{b.col(schema.PrimaryKey): uid})
	return toQuery(sb)
}

// DefaultOrder lists the most recently updated records first.
func DefaultOrder(table *schema.TableSchema) []Order {
	if table.UpdatedAt == "" {
		return []Order{{Column: schema.PrimaryKey, Descending: true}}
	}
	return []Order{{Column: table.UpdatedAt, Descending: true}, {Column: schema.PrimaryKey, Descending: true}}
}

func (b *Builder) orderBy(order []Order, aggregate bool) []string {
	parts := make([]string, 0, len(order))
	for _, o := range order {
		expr := b.col(o.Column)
		if aggregate && o.Column == CountColumn {
			expr = b.dialect.Quote(CountColumn)
		}
		if o.Descending {
			expr += " DESC"
		} else {
			expr += " ASC"
		}
		parts = append(parts, expr)
	}
	return parts
}

func paginate(sb sq.SelectBuilder, limit, offset int) sq.SelectBuilder {
	if limit <= 0 {
		return sb
	}
	sb = sb.Limit(uint64(limit))
	if offset > 0 {
		sb = sb.Offset(uint64(offset))
	}
	return sb
}

func hasFilterOn(filters []Filter, column string) bool {
	if column == "" {
		return false
	}
	for _, f := range filters {
		if f.Column == column {
			return true
		}
	}
	return false
}
