package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	_ "time/tzdata"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kitzberger/cli-browser/internal/app"
	"github.com/kitzberger/cli-browser/internal/browser"
	"github.com/kitzberger/cli-browser/internal/config"
	"github.com/kitzberger/cli-browser/internal/profiles"
	"github.com/kitzberger/cli-browser/internal/restriction"
	"github.com/kitzberger/cli-browser/pkg/interactive"
)

const appName = "cli-browser: CMS record browser"

// promptColumns is the value --columns takes when given without one.
const promptColumns = "?"

const defaultConfigFile = "clibrowser.yaml"

var rootCmd = &cobra.Command{
	Use:   "clibrowser",
	Short: "Browse CMS records from the command line",
	Long: `Browse the records of a TYPO3 style database page by page, with control over
deleted, hidden and scheduled records, type filters and site URLs.`,
	RunE: runInteractive,
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Browse the records of any known table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd, browser.RecordsCommand)
	},
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Browse content elements, optionally filtered by CType and list_type",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBrowse(cmd, browser.ContentCommand)
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the known tables and their control columns",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the guided interactive workflow",
	RunE:  runInteractive,
}

var (
	configPath    string
	profileName   string
	verbose       bool
	noInteraction bool
	useTUI        bool

	withDeleted   bool
	withoutHidden bool
	withoutPast   bool
	withoutFuture bool
	limit         int
	columns       string
	tableName     string
	typeValue     string
	subtypeValue  string
	groupByPID    bool
	groupBySite   bool
	withURL       bool
	withSite      bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to the configuration file (default ./"+defaultConfigFile+")")
	flags.StringVar(&profileName, "profile", "", "Name of a saved connection profile under "+app.DefaultConfigDir+"/")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVarP(&noInteraction, "no-interaction", "n", false, "Never prompt; use defaults and show all pages")
	flags.BoolVar(&useTUI, "tui", false, "Ask questions in a console UI instead of line prompts")

	addBrowseFlags(recordsCmd)
	recordsCmd.Flags().StringVar(&tableName, "table", "", "Table to browse (prompted when omitted)")

	addBrowseFlags(contentCmd)
	contentCmd.Flags().SetNormalizeFunc(contentFlagAliases)

	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(contentCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(interactiveCmd)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &browser.InputValidationError{Field: "flags", Reason: err.Error()}
	})

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func addBrowseFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&withDeleted, "with-deleted", false, "Include soft-deleted records")
	f.BoolVar(&withoutHidden, "without-hidden", false, "Exclude disabled records")
	f.BoolVar(&withoutPast, "without-past", false, "Exclude records whose endtime has passed")
	f.BoolVar(&withoutFuture, "without-future", false, "Exclude records whose starttime lies ahead")
	f.IntVarP(&limit, "limit", "l", config.DefaultLimit, "Records per page")
	f.StringVar(&columns, "columns", "", "Comma separated columns; without a value the columns are prompted")
	f.Lookup("columns").NoOptDefVal = promptColumns
	f.StringVar(&typeValue, "type", "", "Value of the type field (prompted when omitted)")
	f.StringVar(&subtypeValue, "subtype", "", "Value of the subtype field, where the type defines one")
	f.BoolVar(&groupByPID, "group-by-pid", false, "Count records per page instead of listing them")
	f.BoolVar(&groupBySite, "group-by-site", false, "Count records per site instead of listing them")
	f.BoolVar(&withURL, "url", false, "Add the URL of each record's page")
	f.BoolVar(&withSite, "site", false, "Add the site identifier of each record's page")
}

// contentFlagAliases accepts the field names of the content table as flag names.
func contentFlagAliases(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "CType", "ctype":
		name = "type"
	case "list_type", "list-type":
		name = "subtype"
	}
	return pflag.NormalizedName(name)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if interactive.Quit(err) || errors.Is(err, context.Canceled) {
			return
		}
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func runInteractive(cmd *cobra.Command, args []string) error {
	application := app.NewApplication(os.Stdin, os.Stdout, printBanner, app.DefaultConfigDir, verbose)
	return application.RunInteractive(cmd.Context())
}

func runBrowse(cmd *cobra.Command, command browser.CommandSpec) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	opts := browseOptions(cmd.Flags(), cfg)
	if err := opts.Validate(); err != nil {
		return err
	}

	prompter, closePrompter, err := newPrompter()
	if err != nil {
		return err
	}
	defer closePrompter()

	_, err = app.NewService(os.Stdout).Browse(cmd.Context(), app.BrowseRequest{
		Config:   cfg,
		Command:  command,
		Options:  opts,
		Prompter: prompter,
		Verbose:  verbose,
	})
	return err
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}
	return app.NewService(os.Stdout).ListTables(cfg)
}

func browseOptions(flags *pflag.FlagSet, cfg *config.Config) browser.Options {
	opts := browser.Options{
		Table:   strings.TrimSpace(tableName),
		Type:    strings.TrimSpace(typeValue),
		Subtype: strings.TrimSpace(subtypeValue),
		Restrictions: restriction.Flags{
			IncludeDeleted: withDeleted,
			ExcludeHidden:  withoutHidden,
			ExcludeFuture:  withoutFuture,
			ExcludePast:    withoutPast,
		},
		Limit:       limit,
		GroupByPID:  groupByPID,
		GroupBySite: groupBySite,
		WithURL:     withURL,
		WithSite:    withSite,
	}

	if !flags.Changed("limit") && cfg != nil {
		opts.Limit = cfg.Browser.Limit
	}

	if flags.Changed("columns") {
		if columns == promptColumns {
			opts.PromptColumns = true
		} else {
			opts.Columns = browser.ParseColumns(columns)
		}
	}
	return opts
}

// loadConfig resolves --profile, --config or the default file. Without any of
// them, required decides between an error and an empty configuration.
func loadConfig(required bool) (*config.Config, error) {
	switch {
	case profileName != "":
		return profiles.NewManager(app.DefaultConfigDir).Load(profileName)
	case configPath != "":
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("cannot load config: %w", err)
		}
		return cfg, nil
	}

	if _, err := os.Stat(defaultConfigFile); err == nil {
		cfg, err := config.LoadConfig(defaultConfigFile)
		if err != nil {
			return nil, fmt.Errorf("cannot load config: %w", err)
		}
		return cfg, nil
	}

	if required {
		return nil, fmt.Errorf("no configuration found: pass --config, --profile or create ./%s", defaultConfigFile)
	}
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg, nil
}

func newPrompter() (interactive.Prompter, func(), error) {
	noop := func() {}

	switch {
	case noInteraction:
		return interactive.DefaultsPrompter{}, noop, nil
	case useTUI:
		return interactive.NewTUIPrompter(), noop, nil
	}

	terminal, err := interactive.NewTerminalPrompter()
	if err != nil {
		// not a terminal, e.g. piped input
		return interactive.NewLinePrompter(os.Stdin, os.Stdout), noop, nil
	}
	return terminal, func() { _ = terminal.Close() }, nil
}

func printBanner() {
	fmt.Println(appName)
	fmt.Println(strings.Repeat("-", len(appName)))
}
