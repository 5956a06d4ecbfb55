package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"geoanalytics-api/internal/export"
	"geoanalytics-api/internal/geo"
	"geoanalytics-api/internal/parser"
	"geoanalytics-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GeoHandler exposes the geospatial pipeline
type GeoHandler struct {
	service GeoService
}

// GeoService interface for dependency injection
type GeoService interface {
	Validate(ctx context.Context, id uuid.UUID, m geo.ColumnMapping, preview int) (geo.Validation, error)
	Analyze(ctx context.Context, id uuid.UUID, m geo.ColumnMapping, cellSize float64) (geo.Analysis, error)
	Routes(ctx context.Context, id uuid.UUID, m geo.ColumnMapping) (geo.RouteAnalysis, error)
	Points(ctx context.Context, id uuid.UUID, m geo.ColumnMapping) ([]geo.GeoPoint, error)
	Inline(table *geo.Table, m geo.ColumnMapping, cellSize float64) (*service.InlineResult, error)
}

// MappingRequest selects the columns the pipeline reads
type MappingRequest struct {
	Mapping  geo.ColumnMapping `json:"mapping"`
	CellSize float64           `json:"cellSize"`
}

// InlineRequest carries a table that is analyzed without being stored.
// Without columns, the sorted union of row keys is used. Rows that are not
// objects are kept as malformed rows.
type InlineRequest struct {
	Columns  []string          `json:"columns"`
	Rows     []json.RawMessage `json:"rows" swaggertype:"array,object"`
	Mapping  geo.ColumnMapping `json:"mapping"`
	CellSize float64           `json:"cellSize"`
}

// NewGeoHandler creates a new geo handler
func NewGeoHandler(svc GeoService) *GeoHandler {
	return &GeoHandler{service: svc}
}

func bindMapping(c *gin.Context) (MappingRequest, bool) {
	var req MappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	if !checkCellSize(c, req.CellSize) {
		return req, false
	}
	return req, true
}

// checkCellSize accepts zero (the configured default) or a size of at least
// geo.MinCellSize.
func checkCellSize(c *gin.Context, size float64) bool {
	if size < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cellSize must not be negative"})
		return false
	}
	if size > 0 && size < geo.MinCellSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cellSize must be at least %g", geo.MinCellSize)})
		return false
	}
	return true
}

// Validate handles POST /api/v1/datasets/:id/validate requests
//
//	@Summary	Validate coordinates under a mapping
//	@Tags		pipeline
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"dataset id"
//	@Param		preview	query		int				false	"number of preview rows"
//	@Param		request	body		MappingRequest	true	"column mapping"
//	@Success	200		{object}	geo.Validation
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/v1/datasets/{id}/validate [post]
func (h *GeoHandler) Validate(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	preview := 0
	if s := c.Query("preview"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preview size"})
			return
		}
		preview = n
	}

	req, ok := bindMapping(c)
	if !ok {
		return
	}

	result, err := h.service.Validate(c.Request.Context(), id, req.Mapping, preview)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Analyze handles POST /api/v1/datasets/:id/analysis requests
//
//	@Summary	Spatial aggregates of a dataset
//	@Tags		pipeline
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"dataset id"
//	@Param		request	body		MappingRequest	true	"column mapping and cell size"
//	@Success	200		{object}	geo.Analysis
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/v1/datasets/{id}/analysis [post]
func (h *GeoHandler) Analyze(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}
	req, ok := bindMapping(c)
	if !ok {
		return
	}

	analysis, err := h.service.Analyze(c.Request.Context(), id, req.Mapping, req.CellSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// Routes handles POST /api/v1/datasets/:id/routes requests
//
//	@Summary	Route metrics of a dataset
//	@Tags		pipeline
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"dataset id"
//	@Param		request	body		MappingRequest	true	"column mapping"
//	@Success	200		{object}	geo.RouteAnalysis
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/api/v1/datasets/{id}/routes [post]
func (h *GeoHandler) Routes(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}
	req, ok := bindMapping(c)
	if !ok {
		return
	}

	routes, err := h.service.Routes(c.Request.Context(), id, req.Mapping)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, routes)
}

// Export handles POST /api/v1/datasets/:id/export requests
//
//	@Summary	Export points, clusters or the route
//	@Tags		pipeline
//	@Accept		json
//	@Produce	json
//	@Produce	text/csv
//	@Param		id		path	string			true	"dataset id"
//	@Param		format	query	string			false	"geojson, csv, clusters or route"
//	@Param		request	body	MappingRequest	true	"column mapping"
//	@Success	200
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/datasets/{id}/export [post]
func (h *GeoHandler) Export(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "geojson")
	switch format {
	case "geojson", "csv", "clusters", "route":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported export format"})
		return
	}

	req, ok := bindMapping(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	switch format {
	case "csv":
		points, err := h.service.Points(ctx, id, req.Mapping)
		if err != nil {
			respondError(c, err)
			return
		}
		data, err := export.PointsCSV(points)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="points.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)

	case "clusters":
		analysis, err := h.service.Analyze(ctx, id, req.Mapping, req.CellSize)
		if err != nil {
			respondError(c, err)
			return
		}
		writeGeoJSON(c, export.ClustersGeoJSON(analysis.Clusters, analysis.CellSize))

	case "route":
		routes, err := h.service.Routes(ctx, id, req.Mapping)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(routes.Routes) == 0 {
			writeGeoJSON(c, export.GeoJSONPoints(nil))
			return
		}
		writeGeoJSON(c, export.GeoJSONRoute(routes.Routes[0]))

	default:
		points, err := h.service.Points(ctx, id, req.Mapping)
		if err != nil {
			respondError(c, err)
			return
		}
		writeGeoJSON(c, export.GeoJSONPoints(points))
	}
}

func writeGeoJSON(c *gin.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}

// AnalyzeInline handles POST /api/v1/analyze requests
//
//	@Summary	Run the pipeline over inline rows
//	@Tags		pipeline
//	@Accept		json
//	@Produce	json
//	@Param		request	body		InlineRequest	true	"table and optional mapping"
//	@Success	200		{object}	service.InlineResult
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/v1/analyze [post]
func (h *GeoHandler) AnalyzeInline(c *gin.Context) {
	var req InlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !checkCellSize(c, req.CellSize) {
		return
	}

	rows, keys, err := parser.DecodeRows(req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}
	columns := req.Columns
	if len(columns) == 0 {
		sort.Strings(keys)
		columns = keys
	}

	result, err := h.service.Inline(&geo.Table{Columns: columns, Rows: rows}, req.Mapping, req.CellSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
