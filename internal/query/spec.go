package query

import (
	"github.com/kitzberger/cli-browser/internal/restriction"
	"github.com/kitzberger/cli-browser/internal/schema"
)

// Query is a rendered statement plus its bind arguments.
type Query struct {
	SQL  string
	Args []any
}

// Filter is an equality constraint on a discriminator column.
type Filter struct {
	Column string
	Value  string
}

type Order struct {
	Column     string
	Descending bool
}

// Projection is a computed select item. Render returns false when the dialect
// cannot express it; the projection is then left out.
type Projection struct {
	Alias  string
	Render func(d Dialect, alias string) (string, bool)
}

// ExtractXMLValue projects the text at xpath inside an XML column. Only MySQL
// offers ExtractValue.
func ExtractXMLValue(column, xpath, as string) Projection {
	return Projection{
		Alias: as,
		Render: func(d Dialect, alias string) (string, bool) {
			if d != MySQL {
				return "", false
			}
			return "ExtractValue(" + d.column(alias, column) + ", '" + xpath + "')", true
		},
	}
}

// Spec describes one list or aggregate fetch.
type Spec struct {
	Table        *schema.TableSchema
	Restrictions restriction.Set
	Filters      []Filter
	// Columns nil selects the default column policy.
	Columns     []string
	Projections []Projection
	// ParentTable, when set, inner joins the location entity on uid = pid.
	ParentTable string
	OrderBy     []Order
	Limit       int
	Offset      int
}

// DefaultColumns implements the column policy used when no explicit columns were
// requested.
func DefaultColumns(table *schema.TableSchema, set restriction.Set, typeChosen bool) []string {
	columns := []string{schema.PrimaryKey, schema.ParentKey}
	if table.HasTypeField() && !typeChosen {
		columns = append(columns, table.TypeField)
	}
	columns = append(columns, table.Label)
	if table.UpdatedAt != "" {
		columns = append(columns, table.UpdatedAt)
	}
	columns = append(columns, restriction.ShownColumns(set, table)...)
	return dedupe(columns)
}

func dedupe(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	out := make([]string, 0, len(columns))
	for _, column := range columns {
		if column == "" || seen[column] {
			continue
		}
		seen[column] = true
		out = append(out, column)
	}
	return out
}
