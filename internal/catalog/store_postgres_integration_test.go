//go:build integration

package catalog

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cbioportal-query-assistant/internal/database"
)

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	url, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	require.NoError(t, database.MigrateUp(ctx, url, "../../migrations", logger))

	db, err := database.NewConnection(ctx, database.Config{URL: url}, logger)
	require.NoError(t, err)
	defer db.Close()

	store, err := NewPostgresStore(db.SQL())
	require.NoError(t, err)

	_, err = store.Load(ctx)
	require.Error(t, err)

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot().Entries, got.Entries)

	// The lib/pq path sees the same data.
	pqStore, err := NewPostgresStoreFromURL(url)
	require.NoError(t, err)
	defer pqStore.Close()

	c := New(WithStore(pqStore), WithLogger(logger))
	assert.Equal(t, SourceSnapshot, c.Load(ctx))
	assert.Equal(t, 3, c.Size())
}
