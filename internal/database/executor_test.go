package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitzberger/cli-browser/internal/database"
	"github.com/kitzberger/cli-browser/internal/query"
	"github.com/kitzberger/cli-browser/internal/testdb"
)

func TestExecutorCountAndFetch(t *testing.T) {
	conn := testdb.Open(t)
	testdb.InsertPages(t, conn, testdb.Page{UID: 2, PID: 1, Title: "Home", Slug: "/"})
	testdb.SeedTextElements(t, conn, 2, 10, 3)

	exec := database.NewExecutor(conn, time.Second, nil)
	ctx := context.Background()

	total, err := exec.Count(ctx, query.Query{SQL: "SELECT COUNT(uid) FROM tt_content WHERE pid > ?", Args: []any{1}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	rows, err := exec.Fetch(ctx, query.Query{SQL: "SELECT uid, header, pi_flexform FROM tt_content ORDER BY uid"})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"uid", "header", "pi_flexform"}, rows[0].Columns())
	uid, ok := rows[0].Get("uid")
	require.True(t, ok)
	assert.EqualValues(t, 10, uid)
	header, _ := rows[2].Get("header")
	assert.Equal(t, "Element 12", header)
	flex, ok := rows[0].Get("pi_flexform")
	assert.True(t, ok)
	assert.Nil(t, flex)
}

func TestExecutorWrapsFailures(t *testing.T) {
	conn := testdb.Open(t)
	exec := database.NewExecutor(conn, 0, nil)

	_, err := exec.Fetch(context.Background(), query.Query{SQL: "SELECT nope FROM missing_table"})
	require.Error(t, err)

	var queryErr *database.QueryExecutionError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, "SELECT nope FROM missing_table", queryErr.Query)
	assert.True(t, database.IsQueryError(err))

	_, err = exec.Count(context.Background(), query.Query{SQL: "SELECT COUNT(*) FROM missing_table"})
	assert.True(t, database.IsQueryError(err))
}

func TestCountIsIdempotent(t *testing.T) {
	conn := testdb.Open(t)
	testdb.SeedTextElements(t, conn, 5, 1, 7)
	exec := database.NewExecutor(conn, time.Second, nil)

	q := query.Query{SQL: "SELECT COUNT(uid) FROM tt_content WHERE pid > ? AND deleted = 0", Args: []any{1}}
	first, err := exec.Count(context.Background(), q)
	require.NoError(t, err)
	second, err := exec.Count(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRowSetKeepsOrder(t *testing.T) {
	row := database.NewRow([]string{"uid", "pid"}, []any{int64(1), int64(2)})
	row.Set("url", "https://example.org/")
	row.Set("pid", int64(3))

	assert.Equal(t, []string{"uid", "pid", "url"}, row.Columns())
	assert.Equal(t, []any{int64(1), int64(3), "https://example.org/"}, row.Values())
	assert.Equal(t, 3, row.Len())
}
