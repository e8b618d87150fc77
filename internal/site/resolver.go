// Package site maps page ids to the site they belong to and to a public URL.
package site

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kitzberger/cli-browser/internal/config"
	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/internal/schema"
)

// ErrSiteNotFound is returned when no configured site root lies on a page's rootline.
var ErrSiteNotFound = errors.New("site not found")

// maxDepth guards against cycles in corrupt page trees.
const maxDepth = 99

type Executor interface {
	Fetch(ctx context.Context, q query.Query) ([]database.Row, error)
}

type Site struct {
	Identifier string
	Base       string
	RootPageID int64
}

type page struct {
	uid  int64
	pid  int64
	slug string
}

// Resolver walks the page tree upwards until it meets a configured site root.
// Lookups are cached for the lifetime of the resolver.
type Resolver struct {
	executor  Executor
	builder   *query.Builder
	table     string
	slugField string
	sites     map[int64]Site
	pages     map[int64]page
	owners    map[int64]Site
}

func NewResolver(executor Executor, builder *query.Builder, pagesTable, slugField string, sites []config.SiteConfig) *Resolver {
	r := &Resolver{
		executor:  executor,
		builder:   builder,
		table:     pagesTable,
		slugField: slugField,
		sites:     make(map[int64]Site, len(sites)),
		pages:     make(map[int64]page),
		owners:    make(map[int64]Site),
	}
	for _, s := range sites {
		r.sites[s.RootPageID] = Site{Identifier: s.Identifier, Base: s.Base, RootPageID: s.RootPageID}
	}
	return r
}

func (r *Resolver) SiteIdentifier(ctx context.Context, pid int64) (string, error) {
	s, err := r.siteFor(ctx, pid)
	if err != nil {
		return "", err
	}
	return s.Identifier, nil
}

// URL joins the site base with the page slug.
func (r *Resolver) URL(ctx context.Context, pid int64) (string, error) {
	s, err := r.siteFor(ctx, pid)
	if err != nil {
		return "", err
	}
	p, err := r.lookup(ctx, pid)
	if err != nil {
		return "", err
	}

	base := strings.TrimRight(s.Base, "/")
	slug := strings.TrimSpace(p.slug)
	if slug == "" {
		return fmt.Sprintf("%s/index.php?id=%d", base, pid), nil
	}
	if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}
	return base + slug, nil
}

func (r *Resolver) siteFor(ctx context.Context, pid int64) (Site, error) {
	if s, ok := r.owners[pid]; ok {
		return s, nil
	}

	current := pid
	for depth := 0; depth < maxDepth && current > 0; depth++ {
		if s, ok := r.sites[current]; ok {
			r.owners[pid] = s
			return s, nil
		}
		p, err := r.lookup(ctx, current)
		if err != nil {
			return Site{}, err
		}
		current = p.pid
	}
	return Site{}, fmt.Errorf("%w for page %d", ErrSiteNotFound, pid)
}

func (r *Resolver) lookup(ctx context.Context, uid int64) (page, error) {
	if p, ok := r.pages[uid]; ok {
		return p, nil
	}

	q := r.builder.BuildRecord(r.table, uid, schema.PrimaryKey, schema.ParentKey, r.slugField)
	rows, err := r.executor.Fetch(ctx, q)
	if err != nil {
		return page{}, err
	}
	if len(rows) == 0 {
		return page{}, fmt.Errorf("%w: page %d does not exist", ErrSiteNotFound, uid)
	}

	row := rows[0]
	pid, _ := row.Get(schema.ParentKey)
	slug, _ := row.Get(r.slugField)
	p := page{uid: uid, pid: database.ToInt64(pid), slug: database.FormatValue(slug)}
	r.pages[uid] = p
	return p, nil
}
