package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kitzberger/cli-browser/internal/config"
	"github.com/kitzberger/cli-browser/internal/query"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

var driverName = map[string]string{
	"mysql":    "mysql",
	"postgres": "postgres",
	"sqlite":   "sqlite",
}

const pingTimeout = 5 * time.Second

type Connection struct {
	DB      *sql.DB
	Config  *config.Config
	Dialect query.Dialect
}

func NewConnection(ctx context.Context, cfg *config.Config) (*Connection, error) {
	driver, ok := driverName[cfg.Database.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type for SQL connection: %s", cfg.Database.Type)
	}
	dialect, err := query.DialectFor(cfg.Database.Type)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, cfg.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to reach database: %w", err)
	}

	return &Connection{
		DB:      db,
		Config:  cfg,
		Dialect: dialect,
	}, nil
}

// Wrap adapts an already opened handle, mainly for tests.
func Wrap(db *sql.DB, dialect query.Dialect) *Connection {
	return &Connection{DB: db, Dialect: dialect}
}

func (c *Connection) Close() error {
	return c.DB.Close()
}

func (c *Connection) Engine() string {
	return string(c.Dialect)
}
