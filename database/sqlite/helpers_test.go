package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"path/filepath"
	"testing"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) fileloader.UploadRepo {
	t.Helper()

	tableName := fmt.Sprintf("uploads_%s", getRandomString(t))
	tables := fileloader.Tables{Uploads: tableName}

	return connectTestRepo(t, ":memory:", tables)
}

// setupFileRepo creates a repo backed by a database file in a temp dir.
func setupFileRepo(t *testing.T) fileloader.UploadRepo {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "uploads.db")
	return connectTestRepo(t, dsn, fileloader.Tables{Uploads: "file_uploads"})
}

func connectTestRepo(t *testing.T, dsn string, tables fileloader.Tables) fileloader.UploadRepo {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite.Connect(ctx, dsn, tables)
	require.NoError(t, err, "failed to connect")
	t.Cleanup(func() { _ = db.Close() })

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	return db.GetRepo()
}

func strPtr(s string) *string { return &s }

func sampleEntry(name string) fileloader.RecordEntry {
	return fileloader.RecordEntry{
		Name:          name,
		SizeKB:        600.0 / 1024,
		Content:       "hello world",
		MediaType:     "text/plain",
		ObjectKey:     name + ".key.txt",
		ObjectURL:     "https://bucket.s3.amazonaws.com/" + name + ".key.txt",
		ObjectETag:    strPtr("etag-" + name),
		ObjectVersion: nil,
		ObjectMetadata: fileloader.ObjectMetadata{
			fileloader.MetaETag:         strPtr("etag-" + name),
			fileloader.MetaVersionID:    nil,
			fileloader.MetaOriginalName: strPtr(name),
		},
	}
}

// insertCommitted stores entry in its own committed transaction.
func insertCommitted(t *testing.T, repo fileloader.UploadRepo, entry fileloader.RecordEntry) fileloader.UploadRecord {
	t.Helper()
	ctx := context.Background()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)

	record, err := tx.Insert(ctx, entry)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	return record
}
