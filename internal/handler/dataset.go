package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"geoanalytics-api/internal/geo"
	"geoanalytics-api/internal/models"
	"geoanalytics-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DatasetHandler handles dataset upload and management requests
type DatasetHandler struct {
	service DatasetService
}

// DatasetService interface for dependency injection
type DatasetService interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*service.UploadResult, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	List(ctx context.Context, limit int) ([]models.Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DetectColumns(ctx context.Context, id uuid.UUID) (geo.ColumnMapping, error)
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(svc DatasetService) *DatasetHandler {
	return &DatasetHandler{service: svc}
}

// Upload handles POST /api/v1/datasets requests
//
//	@Summary	Upload a dataset
//	@Tags		datasets
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"CSV, TSV, XLSX or JSON file"
//	@Success	201		{object}	service.UploadResult
//	@Failure	400		{object}	ErrorResponse
//	@Failure	413		{object}	ErrorResponse
//	@Failure	415		{object}	ErrorResponse
//	@Router		/api/v1/datasets [post]
func (h *DatasetHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required form file 'file'"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer file.Close()

	result, err := h.service.Upload(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// List handles GET /api/v1/datasets requests
//
//	@Summary	List datasets, newest first
//	@Tags		datasets
//	@Produce	json
//	@Param		limit	query		int	false	"maximum number of datasets"
//	@Success	200		{array}		models.Dataset
//	@Router		/api/v1/datasets [get]
func (h *DatasetHandler) List(c *gin.Context) {
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	datasets, err := h.service.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, datasets)
}

// Get handles GET /api/v1/datasets/:id requests
//
//	@Summary	Get dataset metadata
//	@Tags		datasets
//	@Produce	json
//	@Param		id	path		string	true	"dataset id"
//	@Success	200	{object}	models.Dataset
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/datasets/{id} [get]
func (h *DatasetHandler) Get(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	dataset, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataset)
}

// Delete handles DELETE /api/v1/datasets/:id requests
//
//	@Summary	Delete a dataset
//	@Tags		datasets
//	@Param		id	path	string	true	"dataset id"
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/datasets/{id} [delete]
func (h *DatasetHandler) Delete(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Detect handles GET /api/v1/datasets/:id/detect requests
//
//	@Summary	Suggest a column mapping
//	@Tags		datasets
//	@Produce	json
//	@Param		id	path		string	true	"dataset id"
//	@Success	200	{object}	geo.ColumnMapping
//	@Failure	404	{object}	ErrorResponse
//	@Router		/api/v1/datasets/{id}/detect [get]
func (h *DatasetHandler) Detect(c *gin.Context) {
	id, ok := datasetID(c)
	if !ok {
		return
	}

	mapping, err := h.service.DetectColumns(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mapping)
}
