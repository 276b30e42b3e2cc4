package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"
	"testing"

	fileloader "github.com/abdoelhafi/file-loader-app"
	"github.com/abdoelhafi/file-loader-app/database/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testCleanup  func()
)

// getSharedTestDatabase returns a shared database pool for all tests,
// reusing one container across the package.
func getSharedTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		testCleanup = func() {
			if testPool != nil {
				testPool.Close()
			}
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testCleanup()
			t.Fatalf("failed to get connection string: %v", err)
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			testCleanup()
			t.Fatalf("could not connect to database: %v", err)
		}

		testPool = pool
	})

	if testPool == nil {
		t.Fatal("postgres test database is unavailable")
	}

	return testPool
}

// getRandomString generates a random string for unique test identifiers.
func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// getDSN extracts the DSN from the pool config.
func getDSN(pool *pgxpool.Pool) string {
	return pool.Config().ConnString()
}

// setupTestRepo creates a repo with a unique table name for test isolation.
func setupTestRepo(t *testing.T) fileloader.UploadRepo {
	t.Helper()

	pool := getSharedTestDatabase(t)
	ctx := context.Background()

	tables := fileloader.Tables{Uploads: fmt.Sprintf("uploads_%s", getRandomString(t))}

	db, err := postgres.Connect(ctx, getDSN(pool), tables)
	require.NoError(t, err, "failed to connect")

	err = db.Migrate(ctx)
	require.NoError(t, err, "failed to migrate")

	t.Cleanup(func() {
		_ = db.Close()
		_ = postgres.DropTables(ctx, pool, tables)
	})

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
		ObjectVersion: strPtr("v1"),
		ObjectMetadata: fileloader.ObjectMetadata{
			fileloader.MetaETag:         strPtr("etag-" + name),
			fileloader.MetaVersionID:    strPtr("v1"),
			fileloader.MetaLastModified: nil,
			fileloader.MetaOriginalName: strPtr(name),
		},
	}
}

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
