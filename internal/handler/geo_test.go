package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"geoanalytics-api/internal/geo"
	"geoanalytics-api/internal/models"
	"geoanalytics-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockGeoService is a mock implementation of the GeoService interface
type MockGeoService struct {
	mock.Mock
}

func (m *MockGeoService) Validate(ctx context.Context, id uuid.UUID, mapping geo.ColumnMapping, preview int) (geo.Validation, error) {
	args := m.Called(ctx, id, mapping, preview)
	return args.Get(0).(geo.Validation), args.Error(1)
}

func (m *MockGeoService) Analyze(ctx context.Context, id uuid.UUID, mapping geo.ColumnMapping, cellSize float64) (geo.Analysis, error) {
	args := m.Called(ctx, id, mapping, cellSize)
	return args.Get(0).(geo.Analysis), args.Error(1)
}

func (m *MockGeoService) Routes(ctx context.Context, id uuid.UUID, mapping geo.ColumnMapping) (geo.RouteAnalysis, error) {
	args := m.Called(ctx, id, mapping)
	return args.Get(0).(geo.RouteAnalysis), args.Error(1)
}

func (m *MockGeoService) Points(ctx context.Context, id uuid.UUID, mapping geo.ColumnMapping) ([]geo.GeoPoint, error) {
	args := m.Called(ctx, id, mapping)
	points, _ := args.Get(0).([]geo.GeoPoint)
	return points, args.Error(1)
}

func (m *MockGeoService) Inline(table *geo.Table, mapping geo.ColumnMapping, cellSize float64) (*service.InlineResult, error) {
	args := m.Called(table, mapping, cellSize)
	result, _ := args.Get(0).(*service.InlineResult)
	return result, args.Error(1)
}

var latLng = geo.ColumnMapping{Latitude: "lat", Longitude: "lng"}

func geoRouter(svc GeoService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewGeoHandler(svc)
	r := gin.New()
	r.POST("/api/v1/datasets/:id/validate", h.Validate)
	r.POST("/api/v1/datasets/:id/analysis", h.Analyze)
	r.POST("/api/v1/datasets/:id/routes", h.Routes)
	r.POST("/api/v1/datasets/:id/export", h.Export)
	r.POST("/api/v1/analyze", h.AnalyzeInline)
	return r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGeoHandler_Validate(t *testing.T) {
	id := uuid.New()
	path := "/api/v1/datasets/" + id.String() + "/validate"
	body := `{"mapping":{"latitude":"lat","longitude":"lng"}}`

	tests := []struct {
		name           string
		query          string
		body           string
		mockPreview    int
		mockError      error
		expectedStatus int
		expectedError  string
	}{
		{name: "ok with preview", query: "?preview=3", body: body, mockPreview: 3, expectedStatus: http.StatusOK},
		{name: "invalid preview", query: "?preview=x", body: body, mockPreview: -1, expectedStatus: http.StatusBadRequest, expectedError: "invalid preview size"},
		{name: "invalid body", body: `{`, mockPreview: -1, expectedStatus: http.StatusBadRequest, expectedError: "invalid request body"},
		{name: "incomplete mapping", body: body, mockError: service.ErrMappingIncomplete, expectedStatus: http.StatusBadRequest, expectedError: service.ErrMappingIncomplete.Error()},
		{name: "unknown dataset", body: body, mockError: models.ErrDatasetNotFound, expectedStatus: http.StatusNotFound, expectedError: "dataset not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockGeoService)
			if tt.mockPreview >= 0 {
				mockSvc.On("Validate", mock.Anything, id, latLng, tt.mockPreview).Return(geo.Validation{}, tt.mockError)
			}

			w := post(geoRouter(mockSvc), path+tt.query, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, map[string]interface{}{"error": tt.expectedError}, decodeBody(t, w))
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestGeoHandler_Analyze(t *testing.T) {
	id := uuid.New()
	mockSvc := new(MockGeoService)
	mockSvc.On("Analyze", mock.Anything, id, latLng, 0.5).Return(geo.Analysis{PointCount: 2, CellSize: 0.5}, nil)

	w := post(geoRouter(mockSvc), "/api/v1/datasets/"+id.String()+"/analysis",
		`{"mapping":{"latitude":"lat","longitude":"lng"},"cellSize":0.5}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w).(map[string]interface{})
	assert.Equal(t, float64(2), body["pointCount"])
	mockSvc.AssertExpectations(t)

	w = post(geoRouter(mockSvc), "/api/v1/datasets/"+id.String()+"/analysis",
		`{"mapping":{"latitude":"lat","longitude":"lng"},"cellSize":-1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(geoRouter(mockSvc), "/api/v1/datasets/"+id.String()+"/analysis",
		`{"mapping":{"latitude":"lat","longitude":"lng"},"cellSize":1e-20}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cellSize must be at least")
}

func TestGeoHandler_Routes(t *testing.T) {
	id := uuid.New()
	mockSvc := new(MockGeoService)
	mockSvc.On("Routes", mock.Anything, id, latLng).Return(geo.RouteAnalysis{}, assert.AnError)

	w := post(geoRouter(mockSvc), "/api/v1/datasets/"+id.String()+"/routes", `{"mapping":{"latitude":"lat","longitude":"lng"}}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]interface{}{"error": "internal server error"}, decodeBody(t, w))
}

func TestGeoHandler_Export(t *testing.T) {
	id := uuid.New()
	path := "/api/v1/datasets/" + id.String() + "/export"
	body := `{"mapping":{"latitude":"lat","longitude":"lng"}}`
	points := []geo.GeoPoint{{Index: 0, Lat: 1, Lng: 2, Value: 1, Label: "Point 1"}}

	tests := []struct {
		name                string
		query               string
		setup               func(*MockGeoService)
		expectedStatus      int
		expectedContentType string
		expectedContains    string
	}{
		{
			name:                "geojson by default",
			setup:               func(m *MockGeoService) { m.On("Points", mock.Anything, id, latLng).Return(points, nil) },
			expectedStatus:      http.StatusOK,
			expectedContentType: "application/geo+json",
			expectedContains:    `"coordinates":[2,1]`,
		},
		{
			name:                "csv",
			query:               "?format=csv",
			setup:               func(m *MockGeoService) { m.On("Points", mock.Anything, id, latLng).Return(points, nil) },
			expectedStatus:      http.StatusOK,
			expectedContentType: "text/csv; charset=utf-8",
			expectedContains:    "index,latitude,longitude",
		},
		{
			name:  "clusters",
			query: "?format=clusters",
			setup: func(m *MockGeoService) {
				m.On("Analyze", mock.Anything, id, latLng, 0.0).Return(geo.Analysis{
					CellSize: 0.01,
					Clusters: []geo.Cluster{{GridLat: 1, GridLng: 2, Count: 1}},
				}, nil)
			},
			expectedStatus:      http.StatusOK,
			expectedContentType: "application/geo+json",
			expectedContains:    `"Polygon"`,
		},
		{
			name:  "route",
			query: "?format=route",
			setup: func(m *MockGeoService) {
				m.On("Routes", mock.Anything, id, latLng).Return(geo.RouteAnalysis{
					Routes: []geo.Route{geo.NewRoute(points, geo.RouteOptions{})},
				}, nil)
			},
			expectedStatus:      http.StatusOK,
			expectedContentType: "application/geo+json",
			expectedContains:    `"waypoint"`,
		},
		{
			name:             "unknown format",
			query:            "?format=kml",
			setup:            func(m *MockGeoService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedContains: "unsupported export format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockGeoService)
			tt.setup(mockSvc)

			w := post(geoRouter(mockSvc), path+tt.query, body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedContentType != "" {
				assert.Equal(t, tt.expectedContentType, w.Header().Get("Content-Type"))
			}
			assert.Contains(t, w.Body.String(), tt.expectedContains)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestGeoHandler_AnalyzeInline(t *testing.T) {
	tests := []struct {
		name             string
		body             string
		setup            func(m *MockGeoService)
		expectedStatus   int
		expectedContains string
	}{
		{
			name: "columns from sorted row keys",
			body: `{"rows":[{"lng":2,"lat":1}]}`,
			setup: func(m *MockGeoService) {
				m.On("Inline", mock.MatchedBy(func(table *geo.Table) bool {
					return assert.ObjectsAreEqual([]string{"lat", "lng"}, table.Columns) && len(table.Rows) == 1
				}), geo.ColumnMapping{}, 0.0).Return(&service.InlineResult{Mapping: latLng}, nil)
			},
			expectedStatus:   http.StatusOK,
			expectedContains: `"mapping":{"latitude":"lat","longitude":"lng"}`,
		},
		{
			name: "non-object rows kept as malformed rows",
			body: `{"rows":[{"lat":1,"lng":2},5,"x",null],"mapping":{"latitude":"lat","longitude":"lng"}}`,
			setup: func(m *MockGeoService) {
				m.On("Inline", mock.MatchedBy(func(table *geo.Table) bool {
					return len(table.Rows) == 4 && table.Rows[0] != nil &&
						table.Rows[1] == nil && table.Rows[2] == nil && table.Rows[3] == nil
				}), latLng, 0.0).Return(&service.InlineResult{Mapping: latLng}, nil)
			},
			expectedStatus:   http.StatusOK,
			expectedContains: `"mapping"`,
		},
		{
			name: "empty rows",
			body: `{"rows":[],"mapping":{"latitude":"lat","longitude":"lng"}}`,
			setup: func(m *MockGeoService) {
				m.On("Inline", mock.MatchedBy(func(table *geo.Table) bool {
					return len(table.Rows) == 0 && len(table.Columns) == 0
				}), latLng, 0.0).Return(&service.InlineResult{Mapping: latLng}, nil)
			},
			expectedStatus:   http.StatusOK,
			expectedContains: `"mapping"`,
		},
		{
			name:             "negative cell size",
			body:             `{"rows":[],"cellSize":-1}`,
			setup:            func(m *MockGeoService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedContains: "cellSize must not be negative",
		},
		{
			name:             "cell size below floor",
			body:             `{"rows":[],"cellSize":1e-20}`,
			setup:            func(m *MockGeoService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedContains: "cellSize must be at least",
		},
		{
			name:             "rows not an array",
			body:             `{"rows":5}`,
			setup:            func(m *MockGeoService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedContains: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockGeoService)
			tt.setup(mockSvc)

			w := post(geoRouter(mockSvc), "/api/v1/analyze", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedContains)
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestGeoHandler_AnalyzeInlineWithService(t *testing.T) {
	r := geoRouter(service.NewGeoService(nil, nil, service.PipelineOptions{}))

	tests := []struct {
		name          string
		body          string
		expectedTotal float64
		expectedValid float64
		expectedCount float64
	}{
		{
			name:          "malformed rows",
			body:          `{"rows":[{"lat":1,"lng":2},5,"x",null],"mapping":{"latitude":"lat","longitude":"lng"}}`,
			expectedTotal: 4,
			expectedValid: 1,
			expectedCount: 1,
		},
		{
			name:          "empty rows",
			body:          `{"rows":[],"mapping":{"latitude":"lat","longitude":"lng"}}`,
			expectedTotal: 0,
			expectedValid: 0,
			expectedCount: 0,
		},
		{
			name:          "tiny cell size keeps distinct cells",
			body:          `{"rows":[{"lat":40,"lng":-74},{"lat":-33,"lng":151},{"lat":10,"lng":10}],"mapping":{"latitude":"lat","longitude":"lng"},"cellSize":1e-9}`,
			expectedTotal: 3,
			expectedValid: 3,
			expectedCount: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, "/api/v1/analyze", tt.body)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decodeBody(t, w).(map[string]interface{})
			validation := body["validation"].(map[string]interface{})
			assert.Equal(t, tt.expectedTotal, validation["totalRows"])
			assert.Equal(t, tt.expectedValid, validation["validPoints"])
			analysis := body["analysis"].(map[string]interface{})
			assert.Equal(t, tt.expectedCount, analysis["pointCount"])
		})
	}

	w := post(r, "/api/v1/analyze", `{"rows":[{"lat":40,"lng":-74},{"lat":-33,"lng":151}],"mapping":{"latitude":"lat","longitude":"lng"},"cellSize":1e-9}`)
	require.Equal(t, http.StatusOK, w.Code)
	analysis := decodeBody(t, w).(map[string]interface{})["analysis"].(map[string]interface{})
	assert.Len(t, analysis["clusters"], 2)
}
