package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(lat, lng, value float64) GeoPoint {
	return GeoPoint{Lat: lat, Lng: lng, Value: value}
}

func withCategory(p GeoPoint, c string) GeoPoint {
	p.Category = &c
	return p
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 0, HaversineKm(48.85, 2.35, 48.85, 2.35), 1e-12)
	// Paris to London
	assert.InDelta(t, 343.5, HaversineKm(48.8566, 2.3522, 51.5074, -0.1278), 1.0)
}

func TestHaversineKm_Symmetric(t *testing.T) {
	coords := [][2]float64{{0, 0}, {40.7128, -74.006}, {-33.87, 151.21}, {89.9, 179.9}, {-89.9, -179.9}, {35.68, 139.77}}
	for _, a := range coords {
		for _, b := range coords {
			assert.InDelta(t, HaversineKm(a[0], a[1], b[0], b[1]), HaversineKm(b[0], b[1], a[0], a[1]), 1e-9)
		}
	}
}

func TestComputeBounds(t *testing.T) {
	_, ok := ComputeBounds(nil)
	assert.False(t, ok)

	single, ok := ComputeBounds([]GeoPoint{pt(10, 20, 1)})
	require.True(t, ok)
	assert.Equal(t, BoundingRegion{North: 10, South: 10, East: 20, West: 20}, single)
	assert.Equal(t, LatLng{Lat: 10, Lng: 20}, single.Centroid())
	assert.Equal(t, 0.0, single.AreaKm2())

	b, ok := ComputeBounds([]GeoPoint{pt(1, 2, 1), pt(-3, 8, 1), pt(5, -4, 1)})
	require.True(t, ok)
	assert.Equal(t, BoundingRegion{North: 5, South: -3, East: 8, West: -4}, b)
	assert.Equal(t, LatLng{Lat: 1, Lng: 2}, b.Centroid())
	assert.Equal(t, Span{Lat: 8, Lng: 12}, b.Span())

	bound := b.Bound()
	assert.Equal(t, -4.0, bound.Left())
	assert.Equal(t, 5.0, bound.Top())
}

func TestBoundingRegion_AreaKm2(t *testing.T) {
	b := BoundingRegion{North: 1, South: 0, East: 1, West: 0}
	expected := 111 * 111 * math.Cos(0.5*math.Pi/180)
	assert.InDelta(t, expected, b.AreaKm2(), 1e-6)
}

func TestDensity(t *testing.T) {
	_, ok := Density(5, 0)
	assert.False(t, ok)

	d, ok := Density(10, 4)
	assert.True(t, ok)
	assert.Equal(t, 2.5, d)
}

func TestClusterPoints(t *testing.T) {
	points := []GeoPoint{
		pt(40.7128, -74.0060, 10),
		pt(40.7139, -74.0051, 5),
		pt(40.7199, -74.0001, 1),
		pt(40.7201, -74.0001, 2), // across the 40.72 edge
		pt(34.0522, -118.2437, 7),
	}

	clusters := ClusterPoints(points, 0.01)

	require.Len(t, clusters, 3)
	assert.Equal(t, 3, clusters[0].Count)
	assert.InDelta(t, 40.71, clusters[0].GridLat, 1e-9)
	assert.InDelta(t, -74.01, clusters[0].GridLng, 1e-9)
	assert.Equal(t, 16.0, clusters[0].TotalValue)
	assert.Equal(t, 1, clusters[1].Count)
	assert.Equal(t, 1, clusters[2].Count)

	total := 0
	for _, c := range clusters {
		total += c.Count
		assert.Len(t, c.Points, c.Count)
	}
	assert.Equal(t, len(points), total)
}

func TestClusterPoints_DefaultCellSize(t *testing.T) {
	clusters := ClusterPoints([]GeoPoint{pt(0.001, 0.001, 1), pt(0.009, 0.009, 1)}, 0)

	require.Len(t, clusters, 1)
	assert.Equal(t, 2, clusters[0].Count)
}

func TestClusterPoints_TinyCellSize(t *testing.T) {
	points := []GeoPoint{pt(40, -74, 1), pt(-33, 151, 1), pt(10, 10, 1)}

	clusters := ClusterPoints(points, 1e-20)

	require.Len(t, clusters, 3)
	wantLat := []float64{-33, 10, 40}
	wantLng := []float64{151, 10, -74}
	for i, c := range clusters {
		assert.Equal(t, 1, c.Count)
		assert.InDelta(t, wantLat[i], c.GridLat, 1e-6)
		assert.InDelta(t, wantLng[i], c.GridLng, 1e-6)
	}
}

func TestNormalizeCellSize(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, DefaultCellSize},
		{"negative", -1, DefaultCellSize},
		{"nan", math.NaN(), DefaultCellSize},
		{"inf", math.Inf(1), DefaultCellSize},
		{"below floor", 1e-20, MinCellSize},
		{"regular", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCellSize(tt.in))
		})
	}

	a := Analyze([]GeoPoint{pt(1, 1, 1)}, AnalyzeOptions{CellSize: 1e-20})
	assert.Equal(t, MinCellSize, a.CellSize)
}

func TestFindOutliers(t *testing.T) {
	points := []GeoPoint{
		pt(0, 0, 1), pt(0, 0.01, 1), pt(0.01, 0, 1), pt(0.01, 0.01, 1),
		pt(0.005, 0.005, 1), pt(0.006, 0.004, 1), pt(0.004, 0.006, 1),
		pt(1, 1, 1),
	}
	outliers := FindOutliers(points, LatLng{Lat: 0.005, Lng: 0.005})

	require.Len(t, outliers, 1)
	assert.Equal(t, 1.0, outliers[0].Point.Lat)
	assert.Greater(t, outliers[0].DistanceKm, 0.0)
}

func TestFindOutliers_IdenticalPoints(t *testing.T) {
	points := []GeoPoint{pt(5, 5, 1), pt(5, 5, 1)}

	assert.Empty(t, FindOutliers(points, LatLng{Lat: 5, Lng: 5}))
	assert.Empty(t, FindOutliers(nil, LatLng{}))
}

func TestCategoryStats(t *testing.T) {
	points := []GeoPoint{
		withCategory(pt(0, 0, 10), "zone 10"),
		withCategory(pt(2, 2, 20), "zone 10"),
		withCategory(pt(1, 1, 5), "zone 2"),
		pt(4, 4, 3),
	}

	stats := CategoryStats(points)

	require.Len(t, stats, 3)
	assert.Equal(t, "Default", stats[0].Category)
	assert.Equal(t, "zone 2", stats[1].Category)
	assert.Equal(t, CategoryStat{
		Category:     "zone 10",
		Count:        2,
		TotalValue:   30,
		AverageValue: 15,
		AverageLat:   1,
		AverageLng:   1,
	}, stats[2])
}

func TestAnalyze(t *testing.T) {
	points := []GeoPoint{pt(0, 0, 1), pt(2, 4, 3), pt(1, 2, 2)}

	a := Analyze(points, AnalyzeOptions{CellSize: 0.5})

	assert.Equal(t, 3, a.PointCount)
	require.NotNil(t, a.Bounds)
	require.NotNil(t, a.Centroid)
	assert.Equal(t, LatLng{Lat: 1, Lng: 2}, *a.Centroid)
	assert.True(t, a.Centroid.Lat >= a.Bounds.South && a.Centroid.Lat <= a.Bounds.North)
	assert.True(t, a.Centroid.Lng >= a.Bounds.West && a.Centroid.Lng <= a.Bounds.East)
	require.NotNil(t, a.Density)
	assert.InDelta(t, 3/a.AreaKm2, *a.Density, 1e-12)
	assert.Equal(t, ValueStats{Sum: 6, Mean: 2, Min: 1, Max: 3}, a.Values)
	assert.InDelta(t, 0, a.Distances.Min, 1e-9)
	assert.InDelta(t, HaversineKm(1, 2, 0, 0), a.Distances.Max, 1e-9)
	assert.Equal(t, 0.5, a.CellSize)
	assert.Len(t, a.Clusters, 3)
	assert.Len(t, a.Categories, 1)
}

func TestAnalyze_SinglePointHasNoDensity(t *testing.T) {
	a := Analyze([]GeoPoint{pt(10, 10, 1)}, AnalyzeOptions{})

	assert.Nil(t, a.Density)
	assert.Equal(t, 0.0, a.AreaKm2)
	assert.Equal(t, DefaultCellSize, a.CellSize)
	assert.Empty(t, a.Outliers)
}

func TestAnalyze_Empty(t *testing.T) {
	a := Analyze(nil, AnalyzeOptions{})

	assert.Equal(t, 0, a.PointCount)
	assert.Nil(t, a.Bounds)
	assert.Nil(t, a.Centroid)
	assert.Nil(t, a.Density)
	assert.NotNil(t, a.Clusters)
	assert.Empty(t, a.Clusters)
	assert.Empty(t, a.Categories)
	assert.Empty(t, a.Outliers)
}
