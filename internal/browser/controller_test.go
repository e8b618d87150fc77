package browser_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitzberger/cli-browser/internal/browser"
	"github.com/kitzberger/cli-browser/internal/catalog"
	"github.com/kitzberger/cli-browser/internal/config"
	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/internal/render"
	"github.com/kitzberger/cli-browser/internal/restriction"
	"github.com/kitzberger/cli-browser/internal/schema"
	"github.com/kitzberger/cli-browser/internal/site"
	"github.com/kitzberger/cli-browser/internal/testdb"
	"github.com/kitzberger/cli-browser/pkg/interactive"
	"github.com/kitzberger/cli-browser/pkg/logger"
)

var fixedNow = time.Unix(1700000000, 0)

type countingExecutor struct {
	inner   *database.Executor
	queries []string
}

func (c *countingExecutor) Count(ctx context.Context, q query.Query) (int64, error) {
	c.queries = append(c.queries, q.SQL)
	return c.inner.Count(ctx, q)
}

func (c *countingExecutor) Fetch(ctx context.Context, q query.Query) ([]database.Row, error) {
	c.queries = append(c.queries, q.SQL)
	return c.inner.Fetch(ctx, q)
}

// pageRecorder keeps the row count of every rendered page.
type pageRecorder struct {
	total int64
	pages []int
}

func (p *pageRecorder) Begin(total int64, description string) { p.total = total }
func (p *pageRecorder) Advance(n int)                          { p.pages = append(p.pages, n) }
func (p *pageRecorder) End()                                   {}

type harness struct {
	conn     *database.Connection
	exec     *countingExecutor
	progress pageRecorder
	output   bytes.Buffer
	prompts  bytes.Buffer
	answers  string
	resolver *site.Resolver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := testdb.Open(t)
	testdb.InsertPages(t, conn,
		testdb.Page{UID: 1, PID: 0, Title: "Home", Slug: "/", IsSiteRoot: true},
		testdb.Page{UID: 5, PID: 1, Title: "News", Slug: "/news"},
		testdb.Page{UID: 6, PID: 1, Title: "Events", Slug: "/events"},
		testdb.Page{UID: 90, PID: 0, Title: "Storage"},
		testdb.Page{UID: 91, PID: 90, Title: "Records"},
	)
	h := &harness{
		conn: conn,
		exec: &countingExecutor{inner: database.NewExecutor(conn, time.Second, nil)},
	}
	h.resolver = site.NewResolver(h.exec, query.NewBuilder(conn.Dialect), "pages", "slug", []config.SiteConfig{
		{Identifier: "main", Base: "https://example.org/", RootPageID: 1},
	})
	return h
}

func (h *harness) controller(t *testing.T, command browser.CommandSpec) *browser.Controller {
	t.Helper()
	registry, err := schema.DefaultRegistry()
	require.NoError(t, err)

	builder := query.NewBuilder(h.conn.Dialect, query.WithClock(func() time.Time { return fixedNow }))
	extractor := schema.NewExtractor(h.conn.DB, h.conn.Engine(), logger.Discard())

	return browser.NewController(command, browser.Dependencies{
		Catalog:     catalog.New(registry, h.exec, builder, extractor),
		Executor:    h.exec,
		Builder:     builder,
		Locations:   h.resolver,
		Prompter:    interactive.NewLinePrompter(strings.NewReader(h.answers), &h.prompts),
		Renderer:    render.NewRenderer(&h.output, render.WithoutColor()),
		Progress:    &h.progress,
		Timezone:    time.UTC,
		ParentTable: "pages",
	})
}

func textOptions() browser.Options {
	return browser.Options{Table: "tt_content", Type: "text", Limit: 5}
}

func TestPagesThroughAllRecords(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 12)
	h.answers = "y\n\n"

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)

	assert.Equal(t, int64(12), result.Total)
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 12, result.Shown)
	assert.Equal(t, 2, strings.Count(h.prompts.String(), "Continue?"))
	assert.NotEmpty(t, result.SessionID)
	assert.Equal(t, int64(12), h.progress.total)
	assert.Equal(t, []int{5, 5, 2}, h.progress.pages, "last page holds the remainder")

	out := h.output.String()
	assert.Contains(t, out, "It's a total of 12 available tt_content records of type text")
	assert.Equal(t, 3, strings.Count(out, "| uid "))
	assert.Less(t, strings.Index(out, "Element 12"), strings.Index(out, "Element 11"), "newest first")
	assert.Contains(t, out, "2023-11-14 22:13")
}

func TestStopsWhenUserDeclines(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 12)
	h.answers = "n\n"

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 5, result.Shown)
	assert.Equal(t, 1, strings.Count(h.prompts.String(), "Continue?"))
}

func TestEndOfInputStopsPaging(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 7)

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)
}

func TestExactMultipleOfPageSizeDoesNotPromptAfterLastPage(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 10)
	h.answers = "y\n"

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 1, strings.Count(h.prompts.String(), "Continue?"))
}

func TestZeroRecords(t *testing.T) {
	h := newHarness(t)

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.Total)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 0, result.Shown)
	assert.Contains(t, h.output.String(), "No records found.")
	assert.Equal(t, 1, strings.Count(h.output.String(), "No records found."))
	assert.NotContains(t, h.prompts.String(), "Continue?")
	assert.Empty(t, h.progress.pages)

	require.Len(t, h.exec.queries, 2)
	assert.True(t, strings.HasPrefix(h.exec.queries[0], "SELECT COUNT("), h.exec.queries[0])
	assert.NotContains(t, h.exec.queries[1], "COUNT(")
	assert.Contains(t, h.exec.queries[1], "LIMIT 5")
}

func TestRecordsOnRootPageAreSkipped(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 1, 1, 3)
	testdb.SeedTextElements(t, h.conn, 5, 10, 2)

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
}

func TestWithDeletedShowsDeletedColumn(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 3)
	testdb.InsertContent(t, h.conn, testdb.Content{UID: 4, PID: 5, Header: "Gone", CType: "text", Tstamp: 1700000100, Deleted: true})

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.NotContains(t, h.output.String(), "deleted")
	assert.NotContains(t, h.output.String(), "Gone")

	h2 := newHarness(t)
	testdb.SeedTextElements(t, h2.conn, 5, 1, 3)
	testdb.InsertContent(t, h2.conn, testdb.Content{UID: 4, PID: 5, Header: "Gone", CType: "text", Tstamp: 1700000100, Deleted: true})

	opts := textOptions()
	opts.Restrictions = restriction.Flags{IncludeDeleted: true}
	result, err = h2.controller(t, browser.RecordsCommand).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Total)
	assert.Contains(t, h2.output.String(), "| deleted |")
	assert.Contains(t, h2.output.String(), "Gone")
}

func TestHiddenAndTimedRecords(t *testing.T) {
	h := newHarness(t)
	testdb.InsertContent(t, h.conn,
		testdb.Content{UID: 1, PID: 5, CType: "text", Header: "visible"},
		testdb.Content{UID: 2, PID: 5, CType: "text", Header: "hidden", Hidden: true},
		testdb.Content{UID: 3, PID: 5, CType: "text", Header: "future", StartTime: fixedNow.Unix() + 60},
		testdb.Content{UID: 4, PID: 5, CType: "text", Header: "past", EndTime: fixedNow.Unix() - 60},
	)

	opts := textOptions()
	opts.Restrictions = restriction.Flags{ExcludeHidden: true, ExcludeFuture: true, ExcludePast: true}
	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)

	h2 := newHarness(t)
	testdb.InsertContent(t, h2.conn,
		testdb.Content{UID: 1, PID: 5, CType: "text", Header: "visible"},
		testdb.Content{UID: 2, PID: 5, CType: "text", Header: "hidden", Hidden: true},
	)
	result, err = h2.controller(t, browser.RecordsCommand).Run(context.Background(), textOptions())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	assert.Contains(t, h2.output.String(), "| hidden |", "control column of a kind that does not filter is shown")
}

func TestContentPromptsForTypeAndSubtype(t *testing.T) {
	h := newHarness(t)
	testdb.InsertContent(t, h.conn,
		testdb.Content{UID: 1, PID: 5, CType: "list", ListType: "news_pi1", Header: "News list"},
		testdb.Content{UID: 2, PID: 5, CType: "list", ListType: "news_pi1", Header: "News detail"},
		testdb.Content{UID: 3, PID: 5, CType: "list", ListType: "form_pi1"},
		testdb.Content{UID: 4, PID: 5, CType: "list", ListType: "hidden_pi1", Hidden: true},
		testdb.Content{UID: 5, PID: 5, CType: "list", ListType: "deleted_pi1", Deleted: true},
		testdb.Content{UID: 6, PID: 5, CType: "text"},
	)
	// accept the preselected "list" type, then pick news_pi1
	h.answers = "\n4\n"

	result, err := h.controller(t, browser.ContentCommand).Run(context.Background(), browser.Options{Limit: 5})
	require.NoError(t, err)

	prompts := h.prompts.String()
	assert.Contains(t, prompts, "  2) list (4)")
	assert.Contains(t, prompts, "Select (1-3) [list (4)]")
	assert.Contains(t, prompts, "hidden_pi1 (1)")
	assert.NotContains(t, prompts, "deleted_pi1")

	assert.Equal(t, int64(2), result.Total)
	assert.Contains(t, h.output.String(), "of type list/news_pi1")
	assert.Contains(t, h.output.String(), "News detail")
}

func TestContentAllTypes(t *testing.T) {
	h := newHarness(t)
	testdb.InsertContent(t, h.conn,
		testdb.Content{UID: 1, PID: 5, CType: "list", ListType: "news_pi1"},
		testdb.Content{UID: 2, PID: 5, CType: "text"},
	)
	h.answers = "1\n"

	result, err := h.controller(t, browser.ContentCommand).Run(context.Background(), browser.Options{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
	assert.NotContains(t, h.prompts.String(), "Subtype")
	assert.Contains(t, h.output.String(), "| CType ")
}

func TestUnknownTableFailsBeforeQuerying(t *testing.T) {
	h := newHarness(t)

	_, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), browser.Options{Table: "tx_unknown", Limit: 5})
	require.Error(t, err)

	var schemaErr *schema.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "tx_unknown", schemaErr.Table)
	assert.Empty(t, h.exec.queries)
}

func TestInvalidOptions(t *testing.T) {
	h := newHarness(t)
	c := h.controller(t, browser.RecordsCommand)

	cases := map[string]browser.Options{
		"limit":    {Table: "tt_content", Limit: 0},
		"table":    {Table: "tt_content; DROP", Limit: 5},
		"columns":  {Table: "tt_content", Limit: 5, Columns: []string{"uid", "1=1"}},
		"group-by": {Table: "tt_content", Limit: 5, GroupByPID: true, GroupBySite: true},
	}
	for field, opts := range cases {
		_, err := c.Run(context.Background(), opts)

		var inputErr *browser.InputValidationError
		require.True(t, errors.As(err, &inputErr), field)
		assert.Equal(t, field, inputErr.Field)
	}
	assert.Empty(t, h.exec.queries)
}

func TestTypeOnTableWithoutTypeField(t *testing.T) {
	h := newHarness(t)

	_, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), browser.Options{Table: "sys_note", Type: "x", Limit: 5})

	var inputErr *browser.InputValidationError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "type", inputErr.Field)
}

func TestQueryFailureIsSurfaced(t *testing.T) {
	h := newHarness(t)
	_, err := h.conn.DB.Exec("DROP TABLE sys_note")
	require.NoError(t, err)

	_, err = h.controller(t, browser.RecordsCommand).Run(context.Background(), browser.Options{Table: "sys_note", Limit: 5})
	require.Error(t, err)
	assert.True(t, database.IsQueryError(err))
}

func TestTablePrompt(t *testing.T) {
	h := newHarness(t)
	_, err := h.conn.DB.Exec("INSERT INTO sys_note (uid, pid, subject, tstamp) VALUES (1, 5, 'Remember', 1700000000)")
	require.NoError(t, err)
	h.answers = "sys_note\n"

	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), browser.Options{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "sys_note", result.Table)
	assert.Contains(t, h.output.String(), "Remember")
}

func TestExplicitColumnsGetParentForURLs(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 1)

	opts := textOptions()
	opts.Columns = []string{"uid", "header"}
	opts.WithURL = true
	opts.WithSite = true
	_, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), opts)
	require.NoError(t, err)

	out := h.output.String()
	assert.Contains(t, out, "| uid | header    | pid | site | url ")
	assert.Contains(t, out, "| 1   | Element 1 | 5   | main | https://example.org/news |")
}

func TestRecordsOutsideSitesHaveBlankLocation(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 91, 1, 1)

	opts := textOptions()
	opts.WithSite = true
	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Shown)
	assert.Contains(t, h.output.String(), "| site |")
}

func TestColumnsPrompt(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 2)
	h.answers = "1,3\n"

	opts := textOptions()
	opts.PromptColumns = true
	_, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), opts)
	require.NoError(t, err)

	out := h.output.String()
	assert.Contains(t, out, "| uid | header    |")
	assert.NotContains(t, out, "tstamp")
}

func TestGroupByParent(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 3)
	testdb.SeedTextElements(t, h.conn, 6, 10, 1)

	opts := textOptions()
	opts.GroupByPID = true
	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Total)
	out := h.output.String()
	assert.Contains(t, out, "It's a total of 2 available tt_content pages with records of type text")
	assert.Contains(t, out, "| count | pid |")
	assert.Less(t, strings.Index(out, "| 3     | 5   |"), strings.Index(out, "| 1     | 6   |"))
}

func TestGroupBySite(t *testing.T) {
	h := newHarness(t)
	testdb.SeedTextElements(t, h.conn, 5, 1, 3)
	testdb.SeedTextElements(t, h.conn, 6, 10, 1)
	testdb.SeedTextElements(t, h.conn, 91, 20, 2)

	opts := textOptions()
	opts.GroupBySite = true
	result, err := h.controller(t, browser.RecordsCommand).Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, int64(2), result.Total)
	out := h.output.String()
	assert.Contains(t, out, "| site | pages | count |")
	assert.Contains(t, out, "| main | 2     | 4     |")
	assert.Contains(t, out, "|      | 1     | 2     |")
}
