package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kitzberger/cli-browser/internal/browser"
	"github.com/kitzberger/cli-browser/internal/catalog"
	"github.com/kitzberger/cli-browser/internal/config"
	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/internal/render"
	"github.com/kitzberger/cli-browser/internal/restriction"
	"github.com/kitzberger/cli-browser/internal/schema"
	"github.com/kitzberger/cli-browser/internal/site"
	"github.com/kitzberger/cli-browser/pkg/interactive"
	"github.com/kitzberger/cli-browser/pkg/logger"
	"github.com/kitzberger/cli-browser/pkg/progress"
)

// Service wires configuration, connection and collaborators for one command.
type Service struct {
	out      io.Writer
	progress io.Writer
	color    bool
}

func NewService(out io.Writer) *Service {
	if out == nil {
		out = os.Stdout
	}
	return &Service{out: out, progress: os.Stderr, color: out == os.Stdout}
}

// BrowseRequest carries everything one browsing session needs.
type BrowseRequest struct {
	Config   *config.Config
	Command  browser.CommandSpec
	Options  browser.Options
	Prompter interactive.Prompter
	Verbose  bool
}

func (s *Service) Browse(ctx context.Context, req BrowseRequest) (*browser.Result, error) {
	cfg := req.Config
	log := logger.NewLogger(req.Verbose)

	registry, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load table metadata: %w", err)
	}

	timeout, err := cfg.QueryTimeout()
	if err != nil {
		return nil, err
	}
	tz, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	log.Debugf("Connecting to %s (%s)...", cfg.ServerLabel(), cfg.Database.Type)
	conn, err := database.NewConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	exec := database.NewExecutor(conn, timeout, log)
	builder := query.NewBuilder(conn.Dialect)
	extractor := schema.NewExtractor(conn.DB, conn.Engine(), log)

	deps := browser.Dependencies{
		Catalog:     catalog.New(registry, exec, builder, extractor),
		Executor:    exec,
		Builder:     builder,
		Prompter:    req.Prompter,
		Renderer:    s.renderer(),
		Progress:    progress.NewTracker(s.progress, cfg.ProgressEnabled()),
		Logger:      log,
		Timezone:    tz,
		ParentTable: cfg.Browser.ParentTable,
	}
	opts := req.Options
	if opts.WithURL || opts.WithSite || opts.GroupBySite {
		if len(cfg.Sites) == 0 {
			log.Warn("No sites configured, site and URL columns stay empty")
		}
		deps.Locations = site.NewResolver(exec, builder, cfg.Browser.ParentTable, cfg.Pages.SlugField, cfg.Sites)
	}

	return browser.NewController(req.Command, deps).Run(ctx, opts)
}

// ListTables prints the known tables and the control columns they define. It
// needs no database connection.
func (s *Service) ListTables(cfg *config.Config) error {
	registry, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return fmt.Errorf("failed to load table metadata: %w", err)
	}

	columns := []string{"table", "title", "label", "type"}
	for _, kind := range restriction.Kinds {
		columns = append(columns, string(kind))
	}

	var rows []database.Row
	for _, name := range registry.Tables() {
		ts, err := registry.Describe(name)
		if err != nil {
			// listed anyway so broken metadata is visible
			rows = append(rows, database.NewRow(columns[:2], []any{name, err.Error()}))
			continue
		}
		values := []any{ts.Name, ts.Title, ts.Label, displayValue(ts.TypeField, "-")}
		for _, kind := range restriction.Kinds {
			column, _ := restriction.ControlColumn(ts, kind)
			values = append(values, displayValue(column, "-"))
		}
		rows = append(rows, database.NewRow(columns, values))
	}

	r := s.renderer()
	r.Render(rows)
	r.Heading("Total tables: %d", len(rows))
	return nil
}

func (s *Service) renderer() *render.Renderer {
	if s.color {
		return render.NewRenderer(s.out)
	}
	return render.NewRenderer(s.out, render.WithoutColor())
}

func displayValue(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
