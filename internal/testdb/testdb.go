// Package testdb provides a file backed SQLite database shaped like the CMS
// core tables for package tests.
package testdb

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"

	_ "modernc.org/sqlite"
)

const schemaDDL = `
CREATE TABLE pages (
	uid INTEGER PRIMARY KEY,
	pid INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	slug TEXT NOT NULL DEFAULT '',
	doktype INTEGER NOT NULL DEFAULT 1,
	is_siteroot INTEGER NOT NULL DEFAULT 0,
	tstamp INTEGER NOT NULL DEFAULT 0,
	crdate INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0,
	hidden INTEGER NOT NULL DEFAULT 0,
	starttime INTEGER NOT NULL DEFAULT 0,
	endtime INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE tt_content (
	uid INTEGER PRIMARY KEY,
	pid INTEGER NOT NULL DEFAULT 0,
	header TEXT NOT NULL DEFAULT '',
	CType TEXT NOT NULL DEFAULT '',
	list_type TEXT NOT NULL DEFAULT '',
	pi_flexform TEXT,
	tstamp INTEGER NOT NULL DEFAULT 0,
	crdate INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0,
	hidden INTEGER NOT NULL DEFAULT 0,
	starttime INTEGER NOT NULL DEFAULT 0,
	endtime INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE sys_note (
	uid INTEGER PRIMARY KEY,
	pid INTEGER NOT NULL DEFAULT 0,
	subject TEXT NOT NULL DEFAULT '',
	tstamp INTEGER NOT NULL DEFAULT 0,
	crdate INTEGER NOT NULL DEFAULT 0,
	deleted INTEGER NOT NULL DEFAULT 0
);
`

type Page struct {
	UID, PID   int64
	Title      string
	Slug       string
	IsSiteRoot bool
	Deleted    bool
}

type Content struct {
	UID, PID  int64
	Header    string
	CType     string
	ListType  string
	Tstamp    int64
	Deleted   bool
	Hidden    bool
	StartTime int64
	EndTime   int64
}

// Open creates an empty database with the core tables and returns a wrapped connection.
func Open(t *testing.T) *database.Connection {
	t.Helper()
	conn, _ := OpenFile(t)
	return conn
}

// OpenFile is Open that also returns the database file, for code that opens
// its own connection from configuration.
func OpenFile(t *testing.T) (*database.Connection, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cms.db")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range strings.Split(schemaDDL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}

	return database.Wrap(db, query.SQLite), path
}

func InsertPages(t *testing.T, conn *database.Connection, pages ...Page) {
	t.Helper()
	for _, p := range pages {
		_, err := conn.DB.Exec(
			"INSERT INTO pages (uid, pid, title, slug, is_siteroot, deleted) VALUES (?, ?, ?, ?, ?, ?)",
			p.UID, p.PID, p.Title, p.Slug, boolInt(p.IsSiteRoot), boolInt(p.Deleted),
		)
		require.NoError(t, err)
	}
}

func InsertContent(t *testing.T, conn *database.Connection, elements ...Content) {
	t.Helper()
	for _, c := range elements {
		_, err := conn.DB.Exec(
			"INSERT INTO tt_content (uid, pid, header, CType, list_type, tstamp, crdate, deleted, hidden, starttime, endtime)"+
				" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			c.UID, c.PID, c.Header, c.CType, c.ListType, c.Tstamp, c.Tstamp,
			boolInt(c.Deleted), boolInt(c.Hidden), c.StartTime, c.EndTime,
		)
		require.NoError(t, err)
	}
}

// SeedTextElements inserts n visible "text" elements on page pid, uids starting at firstUID.
func SeedTextElements(t *testing.T, conn *database.Connection, pid int64, firstUID int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		uid := firstUID + int64(i)
		InsertContent(t, conn, Content{
			UID:    uid,
			PID:    pid,
			Header: fmt.Sprintf("Element %d", uid),
			CType:  "text",
			Tstamp: 1700000000 + uid,
		})
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
