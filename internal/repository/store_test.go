package repository

import (
	"context"
	"testing"
	"time"

	"geoanalytics-api/internal/geo"
	"geoanalytics-api/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datasetStore interface {
	Migrate(ctx context.Context) error
	CreateDataset(ctx context.Context, d *models.Dataset, rows []geo.Row) error
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	ListDatasets(ctx context.Context, limit int) ([]models.Dataset, error)
	GetRows(ctx context.Context, id uuid.UUID) ([]geo.Row, error)
	DeleteDataset(ctx context.Context, id uuid.UUID) error
}

var (
	_ datasetStore = (*PostgresRepository)(nil)
	_ datasetStore = (*SQLiteRepository)(nil)
)

func newDataset(name string, created time.Time, rows int) *models.Dataset {
	return &models.Dataset{
		ID:        uuid.New(),
		Name:      name,
		Format:    "csv",
		Columns:   []string{"lat", "lng", "name"},
		RowCount:  rows,
		CreatedAt: created.UTC().Truncate(time.Millisecond),
	}
}

// testDatasetStore exercises the behaviour shared by every store.
func testDatasetStore(t *testing.T, store datasetStore) {
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrate is idempotent")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []geo.Row{
		{"lat": geo.NumberValue(40.7128), "lng": geo.StringValue("-74.006"), "name": geo.StringValue("NYC")},
		nil,
		{"lat": geo.NumberValue(34.05), "lng": geo.NumberValue(-118.24), "name": geo.NullValue()},
	}

	older := newDataset("older.csv", base, len(rows))
	older.ArchiveKey = "uploads/older.csv"
	newer := newDataset("newer.csv", base.Add(time.Hour), 0)

	require.NoError(t, store.CreateDataset(ctx, older, rows))
	require.NoError(t, store.CreateDataset(ctx, newer, nil))

	t.Run("get", func(t *testing.T) {
		got, err := store.GetDataset(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, older.ID, got.ID)
		assert.Equal(t, older.Columns, got.Columns)
		assert.Equal(t, 3, got.RowCount)
		assert.Equal(t, "uploads/older.csv", got.ArchiveKey)
		assert.True(t, older.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := store.GetDataset(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrDatasetNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := store.ListDatasets(ctx, 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)

		limited, err := store.ListDatasets(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("rows round trip", func(t *testing.T) {
		got, err := store.GetRows(ctx, older.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, geo.NumberValue(40.7128), got[0]["lat"])
		assert.Equal(t, geo.StringValue("-74.006"), got[0]["lng"])
		assert.Nil(t, got[1])
		assert.True(t, got[2]["name"].IsNull())

		empty, err := store.GetRows(ctx, newer.ID)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteDataset(ctx, older.ID))

		_, err := store.GetDataset(ctx, older.ID)
		assert.ErrorIs(t, err, models.ErrDatasetNotFound)

		remaining, err := store.GetRows(ctx, older.ID)
		require.NoError(t, err)
		assert.Empty(t, remaining)

		assert.ErrorIs(t, store.DeleteDataset(ctx, older.ID), models.ErrDatasetNotFound)
	})
}
