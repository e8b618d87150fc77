// Package restriction turns the visibility flags of a browsing session into
// per-table decisions about which rows are filtered and which control columns
// are shown.
package restriction

import "github.com/kitzberger/cli-browser/internal/schema"

type Kind string

const (
	Deleted   Kind = "deleted"
	Disabled  Kind = "disabled"
	StartTime Kind = "starttime"
	EndTime   Kind = "endtime"
)

// Kinds lists every restriction kind in the order columns are added to select lists.
var Kinds = []Kind{Deleted, Disabled, StartTime, EndTime}

// Activity is the three-valued result of IsActive.
type Activity int

const (
	// Absent means the table has no control column for the kind.
	Absent Activity = iota
	// Active means rows are filtered by the kind.
	Active
	// Inactive means the kind is defined but rows are not filtered by it.
	Inactive
)

func (a Activity) String() string {
	switch a {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	default:
		return "absent"
	}
}

// Flags mirrors the command line switches.
type Flags struct {
	IncludeDeleted bool
	ExcludeHidden  bool
	ExcludeFuture  bool
	ExcludePast    bool
}

// Set holds one flag per kind. It is computed once per session.
type Set struct {
	values map[Kind]bool
}

func Resolve(flags Flags) Set {
	return Set{values: map[Kind]bool{
		Deleted:   !flags.IncludeDeleted,
		Disabled:  flags.ExcludeHidden,
		StartTime: flags.ExcludeFuture,
		EndTime:   flags.ExcludePast,
	}}
}

// SoftDeleteOnly filters deleted rows and nothing else. Metadata probes use it
// regardless of the session set.
func SoftDeleteOnly() Set {
	return Set{values: map[Kind]bool{Deleted: true}}
}

func (s Set) Applies(kind Kind) bool {
	return s.values[kind]
}

// ControlColumn returns the column implementing kind for the table.
func ControlColumn(table *schema.TableSchema, kind Kind) (string, bool) {
	var column string
	switch kind {
	case Deleted:
		column = table.Delete
	case Disabled:
		column = table.EnableColumns.Disabled
	case StartTime:
		column = table.EnableColumns.StartTime
	case EndTime:
		column = table.EnableColumns.EndTime
	}
	return column, column != ""
}

func IsActive(set Set, kind Kind, table *schema.TableSchema) Activity {
	if _, ok := ControlColumn(table, kind); !ok {
		return Absent
	}
	if set.Applies(kind) {
		return Active
	}
	return Inactive
}

// ShownColumns returns the control columns of kinds that are defined but not
// applied, so the operator can see why a row would otherwise be filtered.
func ShownColumns(set Set, table *schema.TableSchema) []string {
	var columns []string
	for _, kind := range Kinds {
		if IsActive(set, kind, table) != Inactive {
			continue
		}
		column, _ := ControlColumn(table, kind)
		columns = append(columns, column)
	}
	return columns
}
