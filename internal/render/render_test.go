package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kitzberger/cli-browser/internal/database"
)

func TestRenderTable(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, WithoutColor())

	rows := []database.Row{
		database.NewRow([]string{"uid", "header"}, []any{int64(1), "Hello"}),
		database.NewRow([]string{"uid", "header"}, []any{int64(12), nil}),
	}
	r.Render(rows)

	expected := "" +
		"+-----+--------+\n" +
		"| uid | header |\n" +
		"+-----+--------+\n" +
		"| 1   | Hello  |\n" +
		"| 12  | NULL   |\n" +
		"+-----+--------+\n"
	assert.Equal(t, expected, out.String())
}

func TestRenderDoesNotMutateRows(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, WithoutColor())

	row := database.NewRow([]string{"uid", "bodytext"}, []any{int64(1), "line one\nline two"})
	r.Render([]database.Row{row})

	value, _ := row.Get("bodytext")
	assert.Equal(t, "line one\nline two", value)
	assert.Contains(t, out.String(), "line one line two")
	assert.Equal(t, []string{"uid", "bodytext"}, row.Columns())
}

func TestRenderEmpty(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, WithoutColor())

	r.Render(nil)
	assert.Equal(t, "No records found.\n", out.String())

	out.Reset()
	r.RenderEmpty()
	assert.Equal(t, "No records found.\n", out.String())
}

func TestRenderWideCharacters(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, WithoutColor())

	r.Render([]database.Row{database.NewRow([]string{"t"}, []any{"日本"})})
	assert.Contains(t, out.String(), "| 日本 |")
	assert.Contains(t, out.String(), "+------+")
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "2023-11-14 22:13", FormatTimestamp(int64(1700000000), time.UTC))
	assert.Equal(t, "2023-11-14 22:13", FormatTimestamp("1700000000", time.UTC))
	assert.Equal(t, "", FormatTimestamp(int64(0), time.UTC))
	assert.Equal(t, "", FormatTimestamp(nil, time.UTC))
	assert.Equal(t, "", FormatTimestamp("", time.UTC))
}

func TestUnescapeMarkup(t *testing.T) {
	assert.Equal(t, "News->list;News->detail", UnescapeMarkup("  News-&gt;list;News-&gt;detail "))
	assert.Equal(t, "", UnescapeMarkup(nil))
}
