package service

import (
	"context"
	"errors"
	"fmt"

	"geoanalytics-api/internal/geo"

	"github.com/google/uuid"
)

var (
	ErrMappingIncomplete = errors.New("latitude and longitude columns must both be mapped")
	ErrUnknownColumn     = errors.New("mapped column not found in dataset")
)

// TableSource loads stored datasets
type TableSource interface {
	Table(ctx context.Context, id uuid.UUID) (*geo.Table, error)
}

// TimezoneLocator resolves the IANA zone at a coordinate. tzf finders satisfy it.
type TimezoneLocator interface {
	GetTimezoneName(lng, lat float64) string
}

type PipelineOptions struct {
	PreviewRows       int
	CellSize          float64
	SimplifyTolerance float64
}

// GeoService runs the geospatial pipeline over stored or inline tables
type GeoService struct {
	tables TableSource
	tz     TimezoneLocator
	opts   PipelineOptions
}

// InlineResult is everything the pipeline derives from an inline table.
type InlineResult struct {
	Mapping    geo.ColumnMapping     `json:"mapping"`
	Validation geo.ValidationSummary `json:"validation"`
	Analysis   geo.Analysis          `json:"analysis"`
	Routes     geo.RouteAnalysis     `json:"routes"`
}

// NewGeoService creates a new geo service. tz may be nil.
func NewGeoService(tables TableSource, tz TimezoneLocator, opts PipelineOptions) *GeoService {
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = geo.DefaultPreviewSize
	}
	if opts.CellSize <= 0 {
		opts.CellSize = geo.DefaultCellSize
	}
	return &GeoService{tables: tables, tz: tz, opts: opts}
}

func (s *GeoService) load(ctx context.Context, id uuid.UUID) (*geo.Table, error) {
	table, err := s.tables.Table(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load dataset: %w", err)
	}
	return table, nil
}

// CheckMapping verifies that coordinates are mapped and that every mapped
// column exists in columns.
func CheckMapping(columns []string, m geo.ColumnMapping) error {
	if !m.HasCoordinates() {
		return ErrMappingIncomplete
	}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	for _, c := range m.Columns() {
		if !known[c] {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return nil
}

// Validate checks a stored dataset's coordinates under m.
func (s *GeoService) Validate(ctx context.Context, id uuid.UUID, m geo.ColumnMapping, preview int) (geo.Validation, error) {
	table, err := s.load(ctx, id)
	if err != nil {
		return geo.Validation{}, err
	}
	return s.ValidateTable(table, m, preview)
}

// ValidateTable checks table's coordinates. preview <= 0 uses the configured preview size.
func (s *GeoService) ValidateTable(table *geo.Table, m geo.ColumnMapping, preview int) (geo.Validation, error) {
	if err := CheckMapping(table.Columns, m); err != nil {
		return geo.Validation{}, err
	}
	if preview <= 0 {
		preview = s.opts.PreviewRows
	}
	return geo.ValidateRows(table.Rows, m, preview), nil
}

// Analyze computes spatial aggregates of a stored dataset.
func (s *GeoService) Analyze(ctx context.Context, id uuid.UUID, m geo.ColumnMapping, cellSize float64) (geo.Analysis, error) {
	table, err := s.load(ctx, id)
	if err != nil {
		return geo.Analysis{}, err
	}
	return s.AnalyzeTable(table, m, cellSize)
}

// AnalyzeTable computes spatial aggregates of table. cellSize <= 0 uses the configured cell size.
func (s *GeoService) AnalyzeTable(table *geo.Table, m geo.ColumnMapping, cellSize float64) (geo.Analysis, error) {
	if err := CheckMapping(table.Columns, m); err != nil {
		return geo.Analysis{}, err
	}
	if cellSize <= 0 {
		cellSize = s.opts.CellSize
	}

	a := geo.Analyze(geo.ExtractPoints(table.Rows, m), geo.AnalyzeOptions{CellSize: cellSize})
	if s.tz != nil && a.Centroid != nil {
		a.Timezone = s.tz.GetTimezoneName(a.Centroid.Lng, a.Centroid.Lat)
	}
	return a, nil
}

// Routes builds the route of a stored dataset.
func (s *GeoService) Routes(ctx context.Context, id uuid.UUID, m geo.ColumnMapping) (geo.RouteAnalysis, error) {
	table, err := s.load(ctx, id)
	if err != nil {
		return geo.RouteAnalysis{}, err
	}
	return s.RoutesTable(table, m)
}

// RoutesTable builds the route of table.
func (s *GeoService) RoutesTable(table *geo.Table, m geo.ColumnMapping) (geo.RouteAnalysis, error) {
	if err := CheckMapping(table.Columns, m); err != nil {
		return geo.RouteAnalysis{}, err
	}
	return geo.BuildRoutes(table.Rows, m, geo.RouteOptions{SimplifyTolerance: s.opts.SimplifyTolerance}), nil
}

// Points extracts the valid points of a stored dataset.
func (s *GeoService) Points(ctx context.Context, id uuid.UUID, m geo.ColumnMapping) ([]geo.GeoPoint, error) {
	table, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CheckMapping(table.Columns, m); err != nil {
		return nil, err
	}
	return geo.ExtractPoints(table.Rows, m), nil
}

// Inline runs the whole pipeline over a table that is not stored. Without
// mapped coordinates the mapping is detected first. A table without rows
// yields zeroed results and skips the mapping checks.
func (s *GeoService) Inline(table *geo.Table, m geo.ColumnMapping, cellSize float64) (*InlineResult, error) {
	if !m.HasCoordinates() {
		m = geo.DetectColumns(table.Columns, table.Rows)
	}

	if len(table.Rows) == 0 {
		if cellSize <= 0 {
			cellSize = s.opts.CellSize
		}
		return &InlineResult{
			Mapping:    m,
			Validation: geo.ValidateRows(nil, m, s.opts.PreviewRows).Summary,
			Analysis:   geo.Analyze(nil, geo.AnalyzeOptions{CellSize: cellSize}),
			Routes:     geo.BuildRoutes(nil, m, geo.RouteOptions{SimplifyTolerance: s.opts.SimplifyTolerance}),
		}, nil
	}

	validation, err := s.ValidateTable(table, m, 0)
	if err != nil {
		return nil, err
	}
	analysis, err := s.AnalyzeTable(table, m, cellSize)
	if err != nil {
		return nil, err
	}
	routes, err := s.RoutesTable(table, m)
	if err != nil {
		return nil, err
	}

	return &InlineResult{
		Mapping:    m,
		Validation: validation.Summary,
		Analysis:   analysis,
		Routes:     routes,
	}, nil
}
