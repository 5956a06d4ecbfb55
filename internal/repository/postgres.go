package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"geoanalytics-api/internal/geo"
	"geoanalytics-api/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS datasets (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		format VARCHAR(16) NOT NULL,
		columns TEXT[] NOT NULL,
		row_count INTEGER NOT NULL,
		archive_key TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS dataset_rows (
		dataset_id UUID NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		data JSONB,
		PRIMARY KEY (dataset_id, row_index)
	);
	CREATE INDEX IF NOT EXISTS datasets_created_at_idx ON datasets (created_at DESC);
`

// PostgresRepository stores datasets in PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the dataset tables if they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("repository: failed to migrate schema: %w", err)
	}
	return nil
}

// CreateDataset inserts the dataset and bulk copies its rows in one transaction
func (r *PostgresRepository) CreateDataset(ctx context.Context, d *models.Dataset, rows []geo.Row) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO datasets (id, name, format, columns, row_count, archive_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.Name, d.Format, d.Columns, d.RowCount, d.ArchiveKey, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert dataset: %w", err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"dataset_rows"},
		[]string{"dataset_id", "row_index", "data"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			data, err := json.Marshal(rows[i])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			return []any{d.ID, i, data}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("repository: failed to copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit dataset: %w", err)
	}
	return nil
}

// GetDataset returns the metadata of one dataset
func (r *PostgresRepository) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	sql := `
		SELECT id, name, format, columns, row_count, archive_key, created_at
		FROM datasets
		WHERE id = $1
	`

	var d models.Dataset
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&d.ID,
		&d.Name,
		&d.Format,
		&d.Columns,
		&d.RowCount,
		&d.ArchiveKey,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("repository: failed to get dataset: %w", err)
	}

	return &d, nil
}

// ListDatasets returns the most recent datasets first
func (r *PostgresRepository) ListDatasets(ctx context.Context, limit int) ([]models.Dataset, error) {
	sql := `
		SELECT id, name, format, columns, row_count, archive_key, created_at
		FROM datasets
		ORDER BY created_at DESC, id
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		var d models.Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.Format, &d.Columns, &d.RowCount, &d.ArchiveKey, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan dataset: %w", err)
		}
		datasets = append(datasets, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating datasets: %w", err)
	}

	return datasets, nil
}

// GetRows returns the stored rows of a dataset in upload order
func (r *PostgresRepository) GetRows(ctx context.Context, id uuid.UUID) ([]geo.Row, error) {
	rows, err := r.db.Query(ctx, `SELECT data FROM dataset_rows WHERE dataset_id = $1 ORDER BY row_index`, id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query rows: %w", err)
	}
	defer rows.Close()

	result := []geo.Row{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("repository: failed to scan row: %w", err)
		}
		row, err := decodeRow(data)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return result, nil
}

// DeleteDataset removes a dataset and its rows
func (r *PostgresRepository) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrDatasetNotFound
	}
	return nil
}

func decodeRow(data []byte) (geo.Row, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var row geo.Row
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("repository: failed to decode row: %w", err)
	}
	return row, nil
}
