package sqlitemigrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestApplyRecordsApplied(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);")},
	}

	applied, err := Apply(context.Background(), db, migrations, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create.sql"}, applied)
	assert.EqualValues(t, 1, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))
	assert.True(t, tableExists(t, db, "items"))
}

func TestApplySkipsAlreadyApplied(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"001_create.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);")},
	}

	_, err := Apply(context.Background(), db, migrations, "")
	require.NoError(t, err)

	applied, err := Apply(context.Background(), db, migrations, "")
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestApplyOrdersFilesLexically(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"002_index.sql":  &fstest.MapFile{Data: []byte("CREATE INDEX idx_items_name ON items(name);")},
		"001_create.sql": &fstest.MapFile{Data: []byte("CREATE TABLE items(id TEXT PRIMARY KEY, name TEXT);")},
		"README.md":      &fstest.MapFile{Data: []byte("not sql")},
	}

	applied, err := Apply(context.Background(), db, migrations, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create.sql", "002_index.sql"}, applied)
}

func TestApplyDoesNotRecordFailedMigration(t *testing.T) {
	db := openTestDB(t)
	bad := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREAT table things(id INT);")},
	}
	_, err := Apply(context.Background(), db, bad, "")
	require.Error(t, err)
	assert.EqualValues(t, 0, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))

	good := fstest.MapFS{
		"001_bad.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);")},
	}
	_, err = Apply(context.Background(), db, good, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"))
}

func TestApplyRespectsRoot(t *testing.T) {
	db := openTestDB(t)
	migrations := fstest.MapFS{
		"timeline/001_timeline.sql": &fstest.MapFile{Data: []byte("-- +migrate Up\nCREATE TABLE timeline_rows(id TEXT PRIMARY KEY);")},
	}

	_, err := Apply(context.Background(), db, migrations, "timeline")
	require.NoError(t, err)

	var name string
	require.NoError(t, db.QueryRow("SELECT name FROM schema_migrations LIMIT 1").Scan(&name))
	assert.Equal(t, "timeline/001_timeline.sql", name)
	assert.True(t, tableExists(t, db, "timeline_rows"))
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a(id INT);\n-- +migrate Down\nDROP TABLE a;"
	assert.Equal(t, "\nCREATE TABLE a(id INT);\n", UpSection(content))
	assert.Equal(t, "SELECT 1;", UpSection("SELECT 1;"))
}

func TestApplyRequiresDB(t *testing.T) {
	_, err := Apply(context.Background(), nil, fstest.MapFS{}, "")
	assert.Error(t, err)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func queryInt64(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var value int64
	require.NoError(t, db.QueryRow(query).Scan(&value))
	return value
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&found)
	if err == sql.ErrNoRows {
		return false
	}
	require.NoError(t, err)
	return found == name
}
