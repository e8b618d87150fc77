package browser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kitzberger/cli-browser/internal/restriction"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// InputValidationError reports a malformed option before any query runs.
type InputValidationError struct {
	Field  string
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Options are the user's choices for one browsing session.
type Options struct {
	Table   string
	Type    string
	Subtype string

	Restrictions restriction.Flags
	Limit        int

	// Columns nil selects the default column policy.
	Columns []string
	// PromptColumns asks for the columns interactively.
	PromptColumns bool

	GroupByPID  bool
	GroupBySite bool
	WithURL     bool
	WithSite    bool
}

// ParseColumns splits a comma separated column list, dropping empty entries.
func ParseColumns(value string) []string {
	var columns []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			columns = append(columns, part)
		}
	}
	return columns
}

func (o Options) Validate() error {
	if o.Limit <= 0 {
		return &InputValidationError{Field: "limit", Reason: fmt.Sprintf("must be a positive number, got %d", o.Limit)}
	}
	if o.Table != "" && !identifierPattern.MatchString(o.Table) {
		return &InputValidationError{Field: "table", Reason: fmt.Sprintf("%q is not a table name", o.Table)}
	}
	for _, column := range o.Columns {
		if !identifierPattern.MatchString(column) {
			return &InputValidationError{Field: "columns", Reason: fmt.Sprintf("%q is not a column name", column)}
		}
	}
	if o.GroupByPID && o.GroupBySite {
		return &InputValidationError{Field: "group-by", Reason: "--group-by-pid and --group-by-site cannot be combined"}
	}
	if o.grouped() && (len(o.Columns) > 0 || o.PromptColumns) {
		return &InputValidationError{Field: "columns", Reason: "columns cannot be chosen for grouped listings"}
	}
	return nil
}

func (o Options) grouped() bool {
	return o.GroupByPID || o.GroupBySite
}

func (o Options) needsLocations() bool {
	return o.WithURL || o.WithSite || o.GroupBySite
}
