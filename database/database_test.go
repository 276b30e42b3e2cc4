package database_test

import (
	"context"
	"testing"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(tableName string) database.Config {
	return database.Config{
		Type:   "sqlite",
		DSN:    ":memory:",
		Tables: fileloader.Tables{Uploads: tableName},
	}
}

func setupTestDB(t *testing.T, tableName string) database.Database {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig(tableName))
	require.NoError(t, err)

	t.Cleanup(func() { _ = db.Close() })

	return db
}

func setupTestDBWithMigration(t *testing.T, tableName string) database.Database {
	t.Helper()

	db := setupTestDB(t, tableName)
	require.NoError(t, db.Migrate(context.Background()))

	return db
}

func TestConnect_SQLite(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t, "file_uploads")

	assert.NoError(t, db.Ping(context.Background()))
}

func TestConnect_InvalidType(t *testing.T) {
	t.Parallel()

	cfg := database.Config{
		Type:   "invalid",
		DSN:    "whatever",
		Tables: fileloader.Tables{Uploads: "file_uploads"},
	}

	_, err := database.Connect(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestConnect_InvalidTableName(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig("Bad-Name")

	_, err := database.Connect(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid uploads table name")
}

func TestDatabase_Validate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("before migration", func(t *testing.T) {
		db := setupTestDB(t, "validate_before_test")
		assert.Error(t, db.Validate(ctx), "validate should fail without tables")
	})

	t.Run("after migration", func(t *testing.T) {
		db := setupTestDBWithMigration(t, "validate_after_test")
		assert.NoError(t, db.Validate(ctx), "validate should pass after migration")
	})
}

func TestDatabase_GetRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := setupTestDBWithMigration(t, "getrepo_test").GetRepo()
	require.NotNil(t, repo)

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)

	record, err := tx.Insert(ctx, fileloader.RecordEntry{
		Name:      "notes.txt",
		SizeKB:    0.5,
		Content:   "hello",
		MediaType: "text/plain",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	result, err := repo.List(ctx, fileloader.ListQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, record.ID, result.Items[0].ID)
}

func TestDatabase_Close(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.Connect(ctx, newTestConfig("close_test"))
	require.NoError(t, err)

	assert.NoError(t, db.Close())
	assert.Error(t, db.Ping(ctx), "ping should fail after close")
}
