package browser

import (
	"context"
	"errors"
	"sort"

	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/internal/render"
	"github.com/kitzberger/cli-browser/internal/schema"
	"github.com/kitzberger/cli-browser/internal/site"
)

const (
	siteColumn  = "site"
	urlColumn   = "url"
	pagesColumn = "pages"
)

// view is one way of listing the matching records: plain rows, counts per
// parent page or counts per site.
type view interface {
	total(ctx context.Context) (int64, error)
	page(ctx context.Context, offset, limit int) ([]database.Row, error)
}

func (c *Controller) viewFor(s *session) view {
	switch {
	case s.opts.GroupBySite:
		return &siteView{c: c, s: s}
	case s.opts.GroupByPID:
		return &parentView{c: c, s: s}
	default:
		return &recordView{c: c, s: s}
	}
}

func (c *Controller) spec(s *session, offset, limit int) query.Spec {
	spec := query.Spec{
		Table:        s.table,
		Restrictions: s.set,
		Filters:      s.filters,
		Columns:      s.columns,
		Projections:  c.command.Projections,
		Limit:        limit,
		Offset:       offset,
	}
	if c.command.JoinParent {
		spec.ParentTable = c.deps.ParentTable
	}
	return spec
}

type recordView struct {
	c *Controller
	s *session
}

func (v *recordView) total(ctx context.Context) (int64, error) {
	return v.c.deps.Executor.Count(ctx, v.c.deps.Builder.BuildCount(v.s.table, v.s.set, v.s.filters))
}

func (v *recordView) page(ctx context.Context, offset, limit int) ([]database.Row, error) {
	rows, err := v.c.deps.Executor.Fetch(ctx, v.c.deps.Builder.BuildList(v.c.spec(v.s, offset, limit)))
	if err != nil {
		return nil, err
	}

	out := make([]database.Row, 0, len(rows))
	for _, row := range rows {
		enriched, err := v.c.enrich(ctx, v.s, row)
		if err != nil {
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

type parentView struct {
	c *Controller
	s *session
}

func (v *parentView) total(ctx context.Context) (int64, error) {
	return v.c.deps.Executor.Count(ctx, v.c.deps.Builder.BuildGroupCount(v.s.table, v.s.set, v.s.filters))
}

func (v *parentView) page(ctx context.Context, offset, limit int) ([]database.Row, error) {
	spec := v.c.spec(v.s, offset, limit)
	spec.ParentTable = ""
	rows, err := v.c.deps.Executor.Fetch(ctx, v.c.deps.Builder.BuildGroupByParent(spec))
	if err != nil {
		return nil, err
	}

	out := make([]database.Row, 0, len(rows))
	for _, row := range rows {
		enriched := database.NewRow(row.Columns(), row.Values())
		if err := v.c.addLocation(ctx, v.s, &enriched); err != nil {
			return nil, err
		}
		out = append(out, enriched)
	}
	return out, nil
}

// siteView folds the per-page counts into one line per site. The folding
// happens once, on the first call.
type siteView struct {
	c      *Controller
	s      *session
	groups []database.Row
	loaded bool
}

type siteGroup struct {
	site    string
	pages   int64
	records int64
}

func (v *siteView) load(ctx context.Context) error {
	if v.loaded {
		return nil
	}

	spec := v.c.spec(v.s, 0, 0)
	spec.ParentTable = ""
	rows, err := v.c.deps.Executor.Fetch(ctx, v.c.deps.Builder.BuildGroupByParent(spec))
	if err != nil {
		return err
	}

	bySite := make(map[string]*siteGroup)
	for _, row := range rows {
		pid, _ := row.Get(schema.ParentKey)
		count, _ := row.Get(query.CountColumn)

		identifier, err := v.c.lookup(ctx, v.s, database.ToInt64(pid), v.c.deps.Locations.SiteIdentifier)
		if err != nil {
			return err
		}
		g, ok := bySite[identifier]
		if !ok {
			g = &siteGroup{site: identifier}
			bySite[identifier] = g
		}
		g.pages++
		g.records += database.ToInt64(count)
	}

	groups := make([]*siteGroup, 0, len(bySite))
	for _, g := range bySite {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].records != groups[j].records {
			return groups[i].records > groups[j].records
		}
		return groups[i].site < groups[j].site
	})

	v.groups = make([]database.Row, 0, len(groups))
	for _, g := range groups {
		v.groups = append(v.groups, database.NewRow(
			[]string{siteColumn, pagesColumn, query.CountColumn},
			[]any{g.site, g.pages, g.records},
		))
	}
	v.loaded = true
	return nil
}

func (v *siteView) total(ctx context.Context) (int64, error) {
	if err := v.load(ctx); err != nil {
		return 0, err
	}
	return int64(len(v.groups)), nil
}

func (v *siteView) page(ctx context.Context, offset, limit int) ([]database.Row, error) {
	if err := v.load(ctx); err != nil {
		return nil, err
	}
	if offset >= len(v.groups) {
		return nil, nil
	}
	end := offset + limit
	if end > len(v.groups) {
		end = len(v.groups)
	}
	return v.groups[offset:end], nil
}

// enrich returns a display copy of row: timestamps formatted, markup decoded,
// site and URL columns appended when requested.
func (c *Controller) enrich(ctx context.Context, s *session, row database.Row) (database.Row, error) {
	columns := row.Columns()
	values := make([]any, len(columns))
	for i, column := range columns {
		value, _ := row.Get(column)
		switch {
		case s.table.IsTimestampColumn(column):
			value = render.FormatTimestamp(value, c.deps.Timezone)
		case c.command.isMarkup(column):
			value = render.UnescapeMarkup(value)
		}
		values[i] = value
	}

	out := database.NewRow(columns, values)
	if err := c.addLocation(ctx, s, &out); err != nil {
		return database.Row{}, err
	}
	return out, nil
}

func (c *Controller) addLocation(ctx context.Context, s *session, row *database.Row) error {
	if !s.opts.WithSite && !s.opts.WithURL {
		return nil
	}

	raw, _ := row.Get(schema.ParentKey)
	pid := database.ToInt64(raw)

	if s.opts.WithSite {
		identifier, err := c.lookup(ctx, s, pid, c.deps.Locations.SiteIdentifier)
		if err != nil {
			return err
		}
		row.Set(siteColumn, identifier)
	}
	if s.opts.WithURL {
		url, err := c.lookup(ctx, s, pid, c.deps.Locations.URL)
		if err != nil {
			return err
		}
		row.Set(urlColumn, url)
	}
	return nil
}

// lookup treats a page outside every configured site as a blank value.
func (c *Controller) lookup(ctx context.Context, s *session, pid int64, fn func(context.Context, int64) (string, error)) (string, error) {
	value, err := fn(ctx, pid)
	if errors.Is(err, site.ErrSiteNotFound) {
		s.log.WithField("pid", pid).Warn(err.Error())
		return "", nil
	}
	return value, err
}
