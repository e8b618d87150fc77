package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kitzberger/cli-browser/internal/browser"
	"github.com/kitzberger/cli-browser/internal/config"
	"github.com/kitzberger/cli-browser/internal/profiles"
	"github.com/kitzberger/cli-browser/internal/restriction"
	"github.com/kitzberger/cli-browser/pkg/interactive"
)

const DefaultConfigDir = "configs"

// Application is the guided menu shown when no subcommand is given.
type Application struct {
	reader         *bufio.Reader
	out            io.Writer
	printBanner    func()
	profileManager *profiles.Manager
	service        *Service
	verbose        bool
}

func NewApplication(r io.Reader, out io.Writer, printBanner func(), profileDir string, verbose bool) *Application {
	if r == nil {
		r = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	var reader *bufio.Reader
	if br, ok := r.(*bufio.Reader); ok {
		reader = br
	} else {
		reader = bufio.NewReader(r)
	}

	return &Application{
		reader:         reader,
		out:            out,
		printBanner:    printBanner,
		profileManager: profiles.NewManager(profileDir),
		service:        NewService(out),
		verbose:        verbose,
	}
}

func (a *Application) RunInteractive(ctx context.Context) error {
	if a.printBanner != nil {
		a.printBanner()
	}
	fmt.Fprintln(a.out, "Interactive mode is ready. Press Ctrl+C or choose option 5 to exit.")

	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Select an operation:")
		fmt.Fprintln(a.out, "  1) Browse records")
		fmt.Fprintln(a.out, "  2) Browse content elements")
		fmt.Fprintln(a.out, "  3) List known tables")
		fmt.Fprintln(a.out, "  4) Remove a saved configuration")
		fmt.Fprintln(a.out, "  5) Exit")

		fmt.Fprint(a.out, "\nChoice: ")
		choice, err := a.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.exit()
				return nil
			}
			return err
		}

		var opErr error
		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "1", "records":
			opErr = a.handleBrowse(ctx, browser.RecordsCommand)
		case "2", "content":
			opErr = a.handleBrowse(ctx, browser.ContentCommand)
		case "3", "tables":
			opErr = a.handleTables()
		case "4", "remove":
			opErr = a.handleRemoveProfile()
		case "5", "exit", "quit", "q":
			a.exit()
			return nil
		default:
			fmt.Fprintln(a.out, "Invalid selection. Try again.")
			continue
		}

		if opErr != nil {
			if interactive.Quit(opErr) {
				a.exit()
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(a.out, "Operation failed: %v\n", opErr)
		}
	}
}

func (a *Application) exit() {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Exiting interactive mode.")
}

func (a *Application) handleBrowse(ctx context.Context, command browser.CommandSpec) error {
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Browse %s\n", command.Name)

	cfg, err := a.loadOrPromptConfig()
	if err != nil {
		return err
	}

	opts, err := a.promptBrowseOptions(cfg)
	if err != nil {
		return err
	}

	_, err = a.service.Browse(ctx, BrowseRequest{
		Config:   cfg,
		Command:  command,
		Options:  opts,
		Prompter: interactive.NewLinePrompter(a.reader, a.out),
		Verbose:  a.verbose,
	})
	return err
}

func (a *Application) handleTables() error {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "List known tables")

	cfg, err := a.loadOrPromptConfig()
	if err != nil {
		return err
	}
	return a.service.ListTables(cfg)
}

func (a *Application) handleRemoveProfile() error {
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Saved configurations in %s:\n", a.profileManager.Directory())

	saved, err := a.profileManager.List("")
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		fmt.Fprintln(a.out, "No saved configurations.")
		return nil
	}
	for i, profile := range saved {
		fmt.Fprintf(a.out, "  %d) %s (%s, %s)\n", i+1, profile.Name, profile.Type, profile.Server)
	}

	index, err := a.promptInt("Configuration to remove (0 to cancel)", 0)
	if err != nil {
		return err
	}
	if index == 0 {
		return nil
	}
	if index < 0 || index > len(saved) {
		fmt.Fprintln(a.out, "Please choose a valid option.")
		return nil
	}

	profile := saved[index-1]
	remove, err := a.promptYesNo(fmt.Sprintf("Remove %s?", profile.Name), false)
	if err != nil || !remove {
		return err
	}
	if err := a.profileManager.Delete(profile.Path); err != nil {
		return fmt.Errorf("failed to remove %s: %w", profile.Name, err)
	}
	fmt.Fprintf(a.out, "Removed %s\n", profile.Name)
	return nil
}

func (a *Application) promptBrowseOptions(cfg *config.Config) (browser.Options, error) {
	opts := browser.Options{}

	limit, err := a.promptInt("Records per page", cfg.Browser.Limit)
	if err != nil {
		return opts, err
	}
	for limit <= 0 {
		fmt.Fprintln(a.out, "Please enter a positive number.")
		if limit, err = a.promptInt("Records per page", cfg.Browser.Limit); err != nil {
			return opts, err
		}
	}
	opts.Limit = limit

	flags := restriction.Flags{}
	questions := []struct {
		text   string
		target *bool
	}{
		{"Include deleted records?", &flags.IncludeDeleted},
		{"Hide disabled records?", &flags.ExcludeHidden},
		{"Hide records that have ended?", &flags.ExcludePast},
		{"Hide records that start in the future?", &flags.ExcludeFuture},
		{"Group by page?", &opts.GroupByPID},
	}
	for _, q := range questions {
		answer, err := a.promptYesNo(q.text, false)
		if err != nil {
			return opts, err
		}
		*q.target = answer
	}
	opts.Restrictions = flags

	if len(cfg.Sites) > 0 && !opts.GroupByPID {
		if opts.WithURL, err = a.promptYesNo("Show page URLs?", false); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func (a *Application) promptString(label string, required bool) (string, error) {
	for {
		fmt.Fprintf(a.out, "%s: ", label)
		input, err := a.readLine()
		if err != nil {
			return "", err
		}
		if input == "" && required {
			fmt.Fprintln(a.out, "Please provide a value.")
			continue
		}
		return input, nil
	}
}

func (a *Application) promptYesNo(question string, defaultValue bool) (bool, error) {
	suffix := "(y/N)"
	if defaultValue {
		suffix = "(Y/n)"
	}

	for {
		fmt.Fprintf(a.out, "%s %s ", question, suffix)
		input, err := a.readLine()
		if err != nil {
			return false, err
		}

		if input == "" {
			return defaultValue, nil
		}

		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(a.out, "Please answer with y or n.")
		}
	}
}

func (a *Application) promptInt(question string, defaultValue int) (int, error) {
	for {
		fmt.Fprintf(a.out, "%s [%d]: ", question, defaultValue)
		input, err := a.readLine()
		if err != nil {
			return 0, err
		}

		if input == "" {
			return defaultValue, nil
		}

		value, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(a.out, "Please enter a valid number.")
			continue
		}

		return value, nil
	}
}

func (a *Application) promptStringWithDefault(label, defaultValue string) (string, error) {
	for {
		if defaultValue != "" {
			fmt.Fprintf(a.out, "%s [%s]: ", label, defaultValue)
		} else {
			fmt.Fprintf(a.out, "%s: ", label)
		}

		input, err := a.readLine()
		if err != nil {
			return "", err
		}

		if input == "" {
			if defaultValue != "" {
				return defaultValue, nil
			}
			fmt.Fprintln(a.out, "Please provide a value.")
			continue
		}

		return input, nil
	}
}

func (a *Application) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *Application) loadOrPromptConfig() (*config.Config, error) {
	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Configure the database connection")

		if cfg, ok, err := a.selectProfile(); err != nil {
			return nil, err
		} else if ok {
			return cfg, nil
		}

		dbType, err := a.promptDatabaseType()
		if err != nil {
			return nil, err
		}

		cfg, err := a.promptManualConfig(dbType)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}

		if err := a.persistConfig(cfg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			fmt.Fprintf(a.out, "Warning: failed to save config: %v\n", err)
		}

		return cfg, nil
	}
}

func (a *Application) promptManualConfig(dbType string) (*config.Config, error) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: dbType,
		},
	}

	switch dbType {
	case "mysql", "postgres":
		name, port, dbName := "MySQL/MariaDB", 3306, "typo3"
		if dbType == "postgres" {
			name, port = "PostgreSQL", 5432
		}
		fmt.Fprintf(a.out, "\nEnter %s connection details:\n", name)

		host, err := a.promptStringWithDefault("Host", "localhost")
		if err != nil {
			return nil, err
		}
		port, err = a.promptInt("Port", port)
		if err != nil {
			return nil, err
		}
		dbName, err = a.promptStringWithDefault("Database name", dbName)
		if err != nil {
			return nil, err
		}
		username, err := a.promptString("Username (leave blank for none)", false)
		if err != nil {
			return nil, err
		}
		password, err := a.promptString("Password (leave blank for none)", false)
		if err != nil {
			return nil, err
		}

		cfg.Database.Host = host
		cfg.Database.Port = port
		cfg.Database.Database = dbName
		cfg.Database.Username = username
		cfg.Database.Password = password

		if dbType == "postgres" {
			sslMode, err := a.promptStringWithDefault("SSL mode", "disable")
			if err != nil {
				return nil, err
			}
			cfg.Database.SSLMode = strings.TrimSpace(sslMode)
		}

	case "sqlite":
		fmt.Fprintln(a.out, "\nEnter SQLite connection details:")

		path, err := a.promptString("Database file", true)
		if err != nil {
			return nil, err
		}
		cfg.Database.Path = path

	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *Application) promptDatabaseType() (string, error) {
	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Select database type:")
		fmt.Fprintln(a.out, "1. MySQL / MariaDB")
		fmt.Fprintln(a.out, "2. PostgreSQL")
		fmt.Fprintln(a.out, "3. SQLite")
		fmt.Fprint(a.out, "Selection: ")

		input, err := a.readLine()
		if err != nil {
			return "", err
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "1":
			return "mysql", nil
		case "2":
			return "postgres", nil
		case "3":
			return "sqlite", nil
		default:
			if normalized := config.NormalizeDatabaseType(input); input != "" && isSupported(normalized) {
				return normalized, nil
			}
			fmt.Fprintln(a.out, "Please choose 1, 2 or 3.")
		}
	}
}

func isSupported(dbType string) bool {
	switch dbType {
	case "mysql", "postgres", "sqlite":
		return true
	}
	return false
}

func (a *Application) selectProfile() (*config.Config, bool, error) {
	profiles, err := a.profileManager.List("")
	if err != nil {
		return nil, false, err
	}

	if len(profiles) == 0 {
		return nil, false, nil
	}

	for {
		fmt.Fprintln(a.out, "Saved configurations:")
		for i, profile := range profiles {
			fmt.Fprintf(a.out, "  %d) %s (%s, %s)\n", i+1, profile.Name, profile.Type, profile.Server)
		}
		fmt.Fprintln(a.out, "  n) Create a new configuration")

		choice, err := a.promptString("Select a configuration (number) or 'n'", true)
		if err != nil {
			return nil, false, err
		}

		choice = strings.ToLower(strings.TrimSpace(choice))
		if choice == "n" || choice == "new" {
			return nil, false, nil
		}

		index, err := strconv.Atoi(choice)
		if err != nil || index < 1 || index > len(profiles) {
			fmt.Fprintln(a.out, "Please choose a valid option.")
			continue
		}

		cfg, err := config.LoadConfig(profiles[index-1].Path)
		if err != nil {
			fmt.Fprintf(a.out, "Failed to load %s: %v\n", profiles[index-1].Name, err)
			continue
		}

		return cfg, true, nil
	}
}

func (a *Application) persistConfig(cfg *config.Config) error {
	save, err := a.promptYesNo("Save this configuration for future use?", true)
	if err != nil || !save {
		return err
	}

	defaultName := fmt.Sprintf("%s_%s", cfg.Database.Type, time.Now().Format("20060102_150405"))
	name, err := a.promptStringWithDefault("Configuration name", defaultName)
	if err != nil {
		return err
	}

	profile, err := a.profileManager.Save(name, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved configuration to %s\n", profile.Path)
	return nil
}
