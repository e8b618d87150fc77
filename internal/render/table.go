// Package render writes record pages to the terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/kitzberger/cli-browser/internal/database"
)

const emptyNotice = "No records found."

type Renderer struct {
	out     io.Writer
	header  *color.Color
	notice  *color.Color
	heading *color.Color
}

type Option func(*Renderer)

// WithoutColor disables ANSI colors, e.g. when output is piped or under test.
func WithoutColor() Option {
	return func(r *Renderer) {
		r.header.DisableColor()
		r.notice.DisableColor()
		r.heading.DisableColor()
	}
}

func NewRenderer(out io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		out:     out,
		header:  color.New(color.Bold),
		notice:  color.New(color.FgYellow),
		heading: color.New(color.FgCyan),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render prints rows as a table using the first row's column order. Rows are
// only read.
func (r *Renderer) Render(rows []database.Row) {
	if len(rows) == 0 {
		r.RenderEmpty()
		return
	}

	columns := rows[0].Columns()
	cells := make([][]string, len(rows))
	widths := make([]int, len(columns))
	for i, column := range columns {
		widths[i] = runewidth.StringWidth(column)
	}
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, column := range columns {
			value, _ := row.Get(column)
			cell := formatCell(value)
			cells[i][j] = cell
			if w := runewidth.StringWidth(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}

	sep := separator(widths)
	var b strings.Builder
	b.WriteString(sep)
	b.WriteByte('|')
	for i, column := range columns {
		b.WriteString(" " + r.header.Sprint(pad(column, widths[i])) + " |")
	}
	b.WriteByte('\n')
	b.WriteString(sep)
	for _, row := range cells {
		b.WriteByte('|')
		for i, cell := range row {
			b.WriteString(" " + pad(cell, widths[i]) + " |")
		}
		b.WriteByte('\n')
	}
	b.WriteString(sep)

	fmt.Fprint(r.out, b.String())
}

func (r *Renderer) RenderEmpty() {
	fmt.Fprintln(r.out, r.notice.Sprint(emptyNotice))
}

// Heading prints an informational line such as the total or the page summary.
func (r *Renderer) Heading(format string, args ...any) {
	fmt.Fprintln(r.out, r.heading.Sprintf(format, args...))
}

func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func separator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

func formatCell(value interface{}) string {
	if value == nil {
		return "NULL"
	}
	// keep the table on one line per record
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(database.FormatValue(value))
}
