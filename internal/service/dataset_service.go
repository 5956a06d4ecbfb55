package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"geoanalytics-api/internal/geo"
	"geoanalytics-api/internal/models"
	"geoanalytics-api/internal/parser"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("service: file too large")

// DatasetRepository persists datasets and their rows
type DatasetRepository interface {
	CreateDataset(ctx context.Context, d *models.Dataset, rows []geo.Row) error
	GetDataset(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	ListDatasets(ctx context.Context, limit int) ([]models.Dataset, error)
	GetRows(ctx context.Context, id uuid.UUID) ([]geo.Row, error)
	DeleteDataset(ctx context.Context, id uuid.UUID) error
}

// Archive stores raw uploads. It is optional.
type Archive interface {
	Key(datasetID, filename string) string
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

type DatasetOptions struct {
	MaxUploadBytes   int64
	DetectSampleSize int
}

// DatasetService manages uploaded datasets
type DatasetService struct {
	repo    DatasetRepository
	archive Archive
	opts    DatasetOptions
	now     func() time.Time
}

// UploadResult is the stored dataset with the mapping suggested for it.
type UploadResult struct {
	Dataset          *models.Dataset   `json:"dataset"`
	SuggestedMapping geo.ColumnMapping `json:"suggestedMapping"`
}

// NewDatasetService creates a new dataset service. archive may be nil.
func NewDatasetService(repo DatasetRepository, archive Archive, opts DatasetOptions) *DatasetService {
	if opts.DetectSampleSize <= 0 {
		opts.DetectSampleSize = geo.DetectSampleSize
	}
	return &DatasetService{repo: repo, archive: archive, opts: opts, now: time.Now}
}

// Upload parses, archives and stores a file.
func (s *DatasetService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	format, err := parser.FormatOf(filename)
	if err != nil {
		return nil, err
	}

	data, err := s.read(r)
	if err != nil {
		return nil, err
	}

	table, err := parser.ParseFormat(format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	d := &models.Dataset{
		ID:        uuid.New(),
		Name:      filename,
		Format:    string(format),
		Columns:   table.Columns,
		RowCount:  len(table.Rows),
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}

	if s.archive != nil {
		key := s.archive.Key(d.ID.String(), filename)
		if err := s.archive.Put(ctx, key, bytes.NewReader(data), format.ContentType()); err != nil {
			log.Warn().Err(err).Str("dataset_id", d.ID.String()).Str("key", key).Msg("failed to archive upload")
		} else {
			d.ArchiveKey = key
		}
	}

	if err := s.repo.CreateDataset(ctx, d, table.Rows); err != nil {
		return nil, fmt.Errorf("service: failed to store dataset: %w", err)
	}

	log.Info().
		Str("dataset_id", d.ID.String()).
		Str("name", d.Name).
		Int("rows", d.RowCount).
		Msg("dataset uploaded")

	return &UploadResult{
		Dataset:          d,
		SuggestedMapping: geo.DetectColumnsN(table.Columns, table.Rows, s.opts.DetectSampleSize),
	}, nil
}

func (s *DatasetService) read(r io.Reader) ([]byte, error) {
	if s.opts.MaxUploadBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("service: failed to read upload: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("service: failed to read upload: %w", err)
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// Get returns dataset metadata
func (s *DatasetService) Get(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	d, err := s.repo.GetDataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get dataset: %w", err)
	}
	return d, nil
}

// List returns the most recent datasets. limit is clamped to [1, MaxListLimit].
func (s *DatasetService) List(ctx context.Context, limit int) ([]models.Dataset, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	datasets, err := s.repo.ListDatasets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list datasets: %w", err)
	}
	return datasets, nil
}

// Delete removes the dataset, its rows and its archived upload.
func (s *DatasetService) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetDataset(ctx, id)
	if err != nil {
		return fmt.Errorf("service: failed to get dataset: %w", err)
	}

	if err := s.repo.DeleteDataset(ctx, id); err != nil {
		return fmt.Errorf("service: failed to delete dataset: %w", err)
	}

	if s.archive != nil && d.ArchiveKey != "" {
		if err := s.archive.Delete(ctx, d.ArchiveKey); err != nil {
			log.Warn().Err(err).Str("dataset_id", id.String()).Str("key", d.ArchiveKey).Msg("failed to delete archived upload")
		}
	}
	return nil
}

// Table loads a dataset's columns and rows.
func (s *DatasetService) Table(ctx context.Context, id uuid.UUID) (*geo.Table, error) {
	d, err := s.repo.GetDataset(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get dataset: %w", err)
	}

	rows, err := s.repo.GetRows(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get rows: %w", err)
	}
	return &geo.Table{Columns: d.Columns, Rows: rows}, nil
}

// DetectColumns suggests a column mapping for a stored dataset.
func (s *DatasetService) DetectColumns(ctx context.Context, id uuid.UUID) (geo.ColumnMapping, error) {
	table, err := s.Table(ctx, id)
	if err != nil {
		return geo.ColumnMapping{}, err
	}
	return geo.DetectColumnsN(table.Columns, table.Rows, s.opts.DetectSampleSize), nil
}
