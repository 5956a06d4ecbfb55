package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"geoanalytics-api/internal/geo"
	"geoanalytics-api/internal/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS datasets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		format TEXT NOT NULL,
		columns TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		archive_key TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS dataset_rows (
		dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
		row_index INTEGER NOT NULL,
		data TEXT,
		PRIMARY KEY (dataset_id, row_index)
	);
	CREATE INDEX IF NOT EXISTS datasets_created_at_idx ON datasets (created_at DESC);
`

// SQLiteRepository stores datasets in an embedded SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens the database at path with WAL journaling and foreign keys enabled
func OpenSQLite(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: failed to ping sqlite: %w", err)
	}
	return db, nil
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Migrate creates the dataset tables if they do not exist
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("repository: failed to migrate schema: %w", err)
	}
	return nil
}

// CreateDataset inserts the dataset and its rows in one transaction
func (r *SQLiteRepository) CreateDataset(ctx context.Context, d *models.Dataset, rows []geo.Row) error {
	columns, err := json.Marshal(d.Columns)
	if err != nil {
		return fmt.Errorf("repository: failed to encode columns: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (id, name, format, columns, row_count, archive_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID.String(), d.Name, d.Format, string(columns), d.RowCount, d.ArchiveKey, d.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("repository: failed to insert dataset: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dataset_rows (dataset_id, row_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("repository: failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("repository: failed to encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, d.ID.String(), i, string(data)); err != nil {
			return fmt.Errorf("repository: failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("repository: failed to commit dataset: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteDataset(s rowScanner) (*models.Dataset, error) {
	var (
		d         models.Dataset
		id        string
		columns   string
		createdAt int64
	)
	if err := s.Scan(&id, &d.Name, &d.Format, &columns, &d.RowCount, &d.ArchiveKey, &createdAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("repository: invalid dataset id %q: %w", id, err)
	}
	d.ID = parsed
	if err := json.Unmarshal([]byte(columns), &d.Columns); err != nil {
		return nil, fmt.Errorf("repository: failed to decode columns: %w", err)
	}
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &d, nil
}

// GetDataset returns the metadata of one dataset
func (r *SQLiteRepository) GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, format, columns, row_count, archive_key, created_at
		FROM datasets
		WHERE id = ?
	`, id.String())

	d, err := scanSQLiteDataset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("repository: failed to get dataset: %w", err)
	}
	return d, nil
}

// ListDatasets returns the most recent datasets first
func (r *SQLiteRepository) ListDatasets(ctx context.Context, limit int) ([]models.Dataset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, format, columns, row_count, archive_key, created_at
		FROM datasets
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		d, err := scanSQLiteDataset(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan dataset: %w", err)
		}
		datasets = append(datasets, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating datasets: %w", err)
	}

	return datasets, nil
}

// GetRows returns the stored rows of a dataset in upload order
func (r *SQLiteRepository) GetRows(ctx context.Context, id uuid.UUID) ([]geo.Row, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM dataset_rows WHERE dataset_id = ? ORDER BY row_index`, id.String())
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query rows: %w", err)
	}
	defer rows.Close()

	result := []geo.Row{}
	for rows.Next() {
		var data sql.NullString
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("repository: failed to scan row: %w", err)
		}
		row, err := decodeRow([]byte(data.String))
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
func (r *SQLiteRepository) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("repository: failed to delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: failed to delete dataset: %w", err)
	}
	if n == 0 {
		return models.ErrDatasetNotFound
	}
	return nil
}
