package browser

import "github.com/kitzberger/cli-browser/internal/query"

// flexformActionsPath addresses the controller actions stored in a plugin's
// FlexForm settings.
const flexformActionsPath = `//T3FlexForms/data/sheet/language/field[@index="switchableControllerActions"]/value`

// CommandSpec parameterizes the controller for one browsing command.
type CommandSpec struct {
	Name string
	// Table fixes the browsed table; empty means it comes from the options or a prompt.
	Table string
	// DefaultType is preselected in the type prompt when the table holds it.
	DefaultType string
	// Subtypes enables the second-level discriminator prompt.
	Subtypes    bool
	Projections []query.Projection
	// MarkupColumns are entity-decoded before rendering.
	MarkupColumns []string
	// JoinParent restricts listings to records whose parent page exists.
	JoinParent bool
}

var RecordsCommand = CommandSpec{
	Name:       "records",
	JoinParent: true,
}

var ContentCommand = CommandSpec{
	Name:        "content",
	Table:       "tt_content",
	DefaultType: "list",
	Subtypes:    true,
	Projections: []query.Projection{
		query.ExtractXMLValue("pi_flexform", flexformActionsPath, "switchableControllerActions"),
	},
	MarkupColumns: []string{"switchableControllerActions"},
	JoinParent:    true,
}

func (c CommandSpec) isMarkup(column string) bool {
	for _, m := range c.MarkupColumns {
		if m == column {
			return true
		}
	}
	return false
}
