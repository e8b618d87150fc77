package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLimit        = 5
	DefaultQueryTimeout = 30 * time.Second
	DefaultParentTable  = "pages"
	DefaultSlugField    = "slug"
)

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode,omitempty"`
	Path     string `yaml:"path,omitempty"`
	DSN      string `yaml:"dsn,omitempty"`
}

type BrowserConfig struct {
	Limit        int    `yaml:"limit,omitempty"`
	QueryTimeout string `yaml:"query_timeout,omitempty"`
	Timezone     string `yaml:"timezone,omitempty"`
	ParentTable  string `yaml:"parent_table,omitempty"`
	Progress     *bool  `yaml:"progress,omitempty"`
}

type SchemaConfig struct {
	Path string `yaml:"path,omitempty"`
}

type SiteConfig struct {
	Identifier string `yaml:"identifier"`
	Base       string `yaml:"base"`
	RootPageID int64  `yaml:"root_page_id"`
}

type PagesConfig struct {
	SlugField string `yaml:"slug_field,omitempty"`
}

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Browser  BrowserConfig  `yaml:"browser,omitempty"`
	Schema   SchemaConfig   `yaml:"schema,omitempty"`
	Sites    []SiteConfig   `yaml:"sites,omitempty"`
	Pages    PagesConfig    `yaml:"pages,omitempty"`
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults normalizes the engine name and fills engine specific defaults.
func (c *Config) ApplyDefaults() {
	c.Database.Type = NormalizeDatabaseType(c.Database.Type)

	switch c.Database.Type {
	case "mysql":
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
	case "postgres":
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}

	if c.Browser.Limit <= 0 {
		c.Browser.Limit = DefaultLimit
	}
	if strings.TrimSpace(c.Browser.ParentTable) == "" {
		c.Browser.ParentTable = DefaultParentTable
	}
	if strings.TrimSpace(c.Pages.SlugField) == "" {
		c.Pages.SlugField = DefaultSlugField
	}
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "postgres":
		if c.Database.DSN == "" && c.Database.Database == "" {
			return fmt.Errorf("database name is required for %s", c.Database.Type)
		}
	case "sqlite":
		if c.Database.DSN == "" && c.Database.Path == "" {
			return fmt.Errorf("path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if _, err := c.QueryTimeout(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for _, site := range c.Sites {
		if strings.TrimSpace(site.Identifier) == "" || site.RootPageID <= 0 {
			return fmt.Errorf("site entries need an identifier and a root_page_id")
		}
	}
	return nil
}

func (c *Config) QueryTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Browser.QueryTimeout)
	if raw == "" {
		return DefaultQueryTimeout, nil
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid query_timeout %q: %w", raw, err)
	}
	return timeout, nil
}

func (c *Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Browser.Timezone)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func (c *Config) ProgressEnabled() bool {
	return c.Browser.Progress == nil || *c.Browser.Progress
}

// GetConnectionString returns the DSN handed to database/sql for the configured engine.
func (c *Config) GetConnectionString() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}

	switch c.Database.Type {
	case "mysql":
		dsn := mysql.NewConfig()
		dsn.User = c.Database.Username
		dsn.Passwd = c.Database.Password
		dsn.Net = "tcp"
		dsn.Addr = fmt.Sprintf("%s:%d", hostOrLocalhost(c.Database.Host), c.Database.Port)
		dsn.DBName = c.Database.Database
		return dsn.FormatDSN()
	case "postgres":
		dsn := url.URL{
			Scheme:   "postgres",
			Host:     net.JoinHostPort(hostOrLocalhost(c.Database.Host), strconv.Itoa(c.Database.Port)),
			Path:     "/" + c.Database.Database,
			RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
		}
		switch {
		case c.Database.Password != "":
			dsn.User = url.UserPassword(c.Database.Username, c.Database.Password)
		case c.Database.Username != "":
			dsn.User = url.User(c.Database.Username)
		}
		return dsn.String()
	case "sqlite":
		return "file:" + c.Database.Path + "?mode=ro"
	default:
		return ""
	}
}

// ServerLabel is a password-free description of the target, used in log lines and menus.
func (c *Config) ServerLabel() string {
	if c.Database.Type == "sqlite" {
		return c.Database.Path
	}
	if c.Database.DSN != "" {
		return c.Database.Type + " (dsn)"
	}
	return fmt.Sprintf("%s:%d/%s", hostOrLocalhost(c.Database.Host), c.Database.Port, c.Database.Database)
}

func hostOrLocalhost(host string) string {
	if strings.TrimSpace(host) == "" {
		return "localhost"
	}
	return host
}

func NormalizeDatabaseType(dbType string) string {
	dbType = strings.ToLower(strings.TrimSpace(dbType))
	if dbType == "" {
		return "mysql"
	}

	switch dbType {
	case "mysql", "mariadb":
		return "mysql"
	case "postgres", "postgresql", "pgsql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return dbType
	}
}
