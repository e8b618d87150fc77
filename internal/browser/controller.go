// Package browser runs an interactive browsing session over one table: it
// resolves the table and its discriminators, counts the matching records and
// pages through them until the user stops or the records run out.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kitzberger/cli-browser/internal/catalog"
	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/internal/restriction"
	"github.com/kitzberger/cli-browser/internal/schema"
	"github.com/kitzberger/cli-browser/pkg/interactive"
	"github.com/kitzberger/cli-browser/pkg/logger"
)

const allOption = "[all]"

type Catalog interface {
	DescribeTable(name string) (*schema.TableSchema, error)
	ListTables() []string
	DistinctValues(ctx context.Context, table, column string, filters []query.Filter) ([]catalog.ValueCount, error)
	Columns(ctx context.Context, table string) ([]string, error)
}

type Executor interface {
	Count(ctx context.Context, q query.Query) (int64, error)
	Fetch(ctx context.Context, q query.Query) ([]database.Row, error)
}

type LocationResolver interface {
	SiteIdentifier(ctx context.Context, pid int64) (string, error)
	URL(ctx context.Context, pid int64) (string, error)
}

type Renderer interface {
	Render(rows []database.Row)
	RenderEmpty()
	Heading(format string, args ...any)
}

type Progress interface {
	Begin(total int64, description string)
	Advance(n int)
	End()
}

// Dependencies are the collaborators of a Controller. Locations may be nil when
// neither URLs nor sites are requested; Progress and Logger may be nil.
type Dependencies struct {
	Catalog     Catalog
	Executor    Executor
	Builder     *query.Builder
	Locations   LocationResolver
	Prompter    interactive.Prompter
	Renderer    Renderer
	Progress    Progress
	Logger      *logger.Logger
	Timezone    *time.Location
	ParentTable string
}

type state int

const (
	stateInit state = iota
	stateResolvingTable
	stateResolvingType
	stateCounting
	statePaging
	stateConfirmingContinue
	stateDone
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateResolvingTable:
		return "resolving-table"
	case stateResolvingType:
		return "resolving-type"
	case stateCounting:
		return "counting"
	case statePaging:
		return "paging"
	case stateConfirmingContinue:
		return "confirming-continue"
	default:
		return "done"
	}
}

// Result summarizes a finished session.
type Result struct {
	SessionID string
	Table     string
	Total     int64
	Pages     int
	Shown     int
}

type Controller struct {
	command CommandSpec
	deps    Dependencies
}

func NewController(command CommandSpec, deps Dependencies) *Controller {
	if deps.Logger == nil {
		deps.Logger = logger.Discard()
	}
	if deps.Progress == nil {
		deps.Progress = noProgress{}
	}
	if deps.Prompter == nil {
		deps.Prompter = interactive.DefaultsPrompter{}
	}
	if deps.Timezone == nil {
		deps.Timezone = time.Local
	}
	return &Controller{command: command, deps: deps}
}

// session is the mutable state of one Run.
type session struct {
	id      string
	log     *logrus.Entry
	opts    Options
	table   *schema.TableSchema
	set     restriction.Set
	filters []query.Filter
	typ     string
	subtype string
	columns []string
	view    view
	total   int64
	offset  int
	result  Result
}

// Run drives one browsing session to completion.
func (c *Controller) Run(ctx context.Context, opts Options) (*Result, error) {
	s := &session{id: uuid.NewString(), opts: opts}
	s.log = c.deps.Logger.WithSession(s.id)
	s.result.SessionID = s.id

	defer c.deps.Progress.End()

	st := stateInit
	for st != stateDone {
		s.log.WithField("state", st.String()).Debug("session step")

		next, err := c.step(ctx, s, st)
		if err != nil {
			return nil, err
		}
		st = next
	}

	s.log.WithFields(logrus.Fields{
		"table": s.result.Table,
		"total": s.result.Total,
		"shown": s.result.Shown,
	}).Debug("session finished")
	return &s.result, nil
}

func (c *Controller) step(ctx context.Context, s *session, st state) (state, error) {
	switch st {
	case stateInit:
		if err := s.opts.Validate(); err != nil {
			return stateDone, err
		}
		if s.opts.needsLocations() && c.deps.Locations == nil {
			return stateDone, &InputValidationError{Field: "site", Reason: "site lookups are not available"}
		}
		s.set = restriction.Resolve(s.opts.Restrictions)
		return stateResolvingTable, nil

	case stateResolvingTable:
		if err := c.resolveTable(s); err != nil {
			return stateDone, err
		}
		return stateResolvingType, nil

	case stateResolvingType:
		if err := c.resolveType(ctx, s); err != nil {
			return stateDone, err
		}
		if err := c.resolveColumns(ctx, s); err != nil {
			return stateDone, err
		}
		return stateCounting, nil

	case stateCounting:
		return c.count(ctx, s)

	case statePaging:
		return c.page(ctx, s)

	case stateConfirmingContinue:
		ok, err := c.deps.Prompter.Confirm("Continue?", true)
		if err != nil {
			if interactive.Quit(err) {
				return stateDone, nil
			}
			return stateDone, err
		}
		if !ok {
			return stateDone, nil
		}
		s.offset += s.opts.Limit
		return statePaging, nil
	}
	return stateDone, nil
}

func (c *Controller) resolveTable(s *session) error {
	name := c.command.Table
	if name == "" {
		name = s.opts.Table
	}
	if name == "" {
		chosen, err := c.deps.Prompter.Choose("Table", c.deps.Catalog.ListTables(), -1)
		if err != nil {
			return err
		}
		name = chosen
	}

	ts, err := c.deps.Catalog.DescribeTable(name)
	if err != nil {
		return err
	}
	s.table = ts
	s.result.Table = ts.Name
	return nil
}

func (c *Controller) resolveType(ctx context.Context, s *session) error {
	ts := s.table
	if !ts.HasTypeField() {
		if s.opts.Type != "" {
			return &InputValidationError{Field: "type", Reason: fmt.Sprintf("table %s has no type field", ts.Name)}
		}
		return nil
	}

	typ := s.opts.Type
	if typ == "" {
		chosen, err := c.chooseValue(ctx, s, "Type", ts.TypeField, nil, c.command.DefaultType)
		if err != nil {
			return err
		}
		typ = chosen
	}
	if typ == "" {
		if s.opts.Subtype != "" {
			s.log.Warnf("ignoring subtype %q without a type", s.opts.Subtype)
		}
		return nil
	}
	s.typ = typ
	s.filters = append(s.filters, query.Filter{Column: ts.TypeField, Value: typ})

	if !c.command.Subtypes {
		return nil
	}
	field, ok := ts.SubtypeField(typ)
	if !ok {
		if s.opts.Subtype != "" {
			s.log.Warnf("type %q of %s has no subtype field, ignoring subtype %q", typ, ts.Name, s.opts.Subtype)
		}
		return nil
	}

	subtype := s.opts.Subtype
	if subtype == "" {
		chosen, err := c.chooseValue(ctx, s, "Subtype", field, s.filters, "")
		if err != nil {
			return err
		}
		subtype = chosen
	}
	if subtype != "" {
		s.subtype = subtype
		s.filters = append(s.filters, query.Filter{Column: field, Value: subtype})
	}
	return nil
}

// chooseValue offers the distinct values of column plus "[all]". An empty
// result means all values.
func (c *Controller) chooseValue(ctx context.Context, s *session, label, column string, filters []query.Filter, preferred string) (string, error) {
	values, err := c.deps.Catalog.DistinctValues(ctx, s.table.Name, column, filters)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", nil
	}

	options := make([]string, 0, len(values)+1)
	options = append(options, allOption)
	byLabel := make(map[string]string, len(values))
	defaultIndex := 0
	for _, v := range values {
		option := fmt.Sprintf("%s (%d)", displayValue(v.Value), v.Count)
		if v.Value == preferred && preferred != "" {
			defaultIndex = len(options)
		}
		options = append(options, option)
		byLabel[option] = v.Value
	}

	chosen, err := c.deps.Prompter.Choose(label, options, defaultIndex)
	if err != nil {
		return "", err
	}
	return byLabel[chosen], nil
}

func (c *Controller) resolveColumns(ctx context.Context, s *session) error {
	if s.opts.grouped() {
		return nil
	}

	columns := s.opts.Columns
	if s.opts.PromptColumns {
		available, err := c.deps.Catalog.Columns(ctx, s.table.Name)
		if err != nil {
			return err
		}
		picked, err := c.deps.Prompter.ChooseMany("Columns", available)
		if err != nil {
			return err
		}
		columns = picked
	}
	if len(columns) == 0 {
		s.columns = nil
		return nil
	}

	if s.opts.WithURL || s.opts.WithSite {
		columns = ensureColumn(columns, schema.ParentKey)
	}
	s.columns = columns
	return nil
}

func (c *Controller) count(ctx context.Context, s *session) (state, error) {
	s.view = c.viewFor(s)

	total, err := s.view.total(ctx)
	if err != nil {
		return stateDone, err
	}
	s.total = total
	s.result.Total = total

	// a zero total still pages once; the empty first page renders the notice
	c.deps.Renderer.Heading("%s", c.totalLine(s))
	c.deps.Progress.Begin(total, s.table.Name)
	return statePaging, nil
}

func (c *Controller) totalLine(s *session) string {
	noun := "records"
	if s.opts.GroupByPID {
		noun = "pages with records"
	} else if s.opts.GroupBySite {
		noun = "sites with records"
	}

	line := fmt.Sprintf("It's a total of %s available %s %s", humanize.Comma(s.total), s.table.Name, noun)
	if s.typ != "" {
		line += fmt.Sprintf(" of type %s", s.typ)
		if s.subtype != "" {
			line += "/" + s.subtype
		}
	}
	return line
}

func (c *Controller) page(ctx context.Context, s *session) (state, error) {
	rows, err := s.view.page(ctx, s.offset, s.opts.Limit)
	if err != nil {
		return stateDone, err
	}

	s.result.Pages++
	if len(rows) == 0 {
		c.deps.Renderer.RenderEmpty()
		return stateDone, nil
	}

	c.deps.Renderer.Render(rows)
	s.result.Shown += len(rows)
	c.deps.Progress.Advance(len(rows))

	if int64(s.offset+s.opts.Limit) >= s.total {
		return stateDone, nil
	}
	return stateConfirmingContinue, nil
}

func ensureColumn(columns []string, column string) []string {
	for _, c := range columns {
		if c == column {
			return columns
		}
	}
	out := make([]string, 0, len(columns)+1)
	out = append(out, columns...)
	return append(out, column)
}

func displayValue(value string) string {
	if value == "" {
		return "''"
	}
	return value
}

type noProgress struct{}

func (noProgress) Begin(int64, string) {}
func (noProgress) Advance(int)         {}
func (noProgress) End()                {}
