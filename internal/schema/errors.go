package schema

import "fmt"

// SchemaError reports an unknown table or a table missing a required control field.
type SchemaError struct {
	Table  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error for table %q: %s", e.Table, e.Reason)
}
