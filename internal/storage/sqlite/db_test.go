package sqlite

import (
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN_KeepsExistingParameters(t *testing.T) {
	dsn, err := buildDSN("data/history.db?_pragma=foreign_keys(1)")
	require.NoError(t, err)

	file, rawQuery, ok := strings.Cut(dsn, "?")
	require.True(t, ok)
	assert.Equal(t, "data/history.db", file)

	query, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"foreign_keys(1)", "busy_timeout(5000)", "journal_mode(WAL)"}, query["_pragma"])
}

func TestBuildDSN_PlainPath(t *testing.T) {
	dsn, err := buildDSN("history.db")
	require.NoError(t, err)

	query, err := url.ParseQuery(strings.SplitN(dsn, "?", 2)[1])
	require.NoError(t, err)
	assert.Equal(t, []string{"busy_timeout(5000)", "journal_mode(WAL)"}, query["_pragma"])
}

func TestOpen_PathWithParameters(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Open(file + "?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer db.Close()

	var foreignKeys, busyTimeout int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout))
	assert.Equal(t, 1, foreignKeys)
	assert.Equal(t, 5000, busyTimeout)
	assert.FileExists(t, file)
}
