package geo

import (
	"math"
	"sort"

	"github.com/maruel/natural"
	"github.com/paulmach/orb"
)

const (
	// DefaultCellSize is the grid clustering cell edge in degrees.
	DefaultCellSize = 0.01

	// MinCellSize keeps grid cell indices within int64 for any valid
	// coordinate. Smaller cell sizes are raised to it.
	MinCellSize = 1e-9

	// DefaultCategory collects points without a category.
	DefaultCategory = "Default"

	// outlierFactor flags points farther than this multiple of the mean
	// distance from the centroid.
	outlierFactor = 2.0
)

// LatLng is a bare coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingRegion is the axis-aligned rectangle containing a point set.
type BoundingRegion struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Span is the extent of a BoundingRegion in degrees.
type Span struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ComputeBounds returns the bounding region of points. ok is false for an
// empty set. A single point yields a degenerate region.
func ComputeBounds(points []GeoPoint) (b BoundingRegion, ok bool) {
	if len(points) == 0 {
		return BoundingRegion{}, false
	}
	b = BoundingRegion{North: points[0].Lat, South: points[0].Lat, East: points[0].Lng, West: points[0].Lng}
	for _, p := range points[1:] {
		b.North = math.Max(b.North, p.Lat)
		b.South = math.Min(b.South, p.Lat)
		b.East = math.Max(b.East, p.Lng)
		b.West = math.Min(b.West, p.Lng)
	}
	return b, true
}

// Centroid is the midpoint of the region, not the center of mass.
func (b BoundingRegion) Centroid() LatLng {
	return LatLng{Lat: (b.North + b.South) / 2, Lng: (b.East + b.West) / 2}
}

func (b BoundingRegion) Span() Span {
	return Span{Lat: b.North - b.South, Lng: b.East - b.West}
}

// AreaKm2 is a flat-plane approximation of the region's area. It is only
// meaningful for small regions away from the poles.
func (b BoundingRegion) AreaKm2() float64 {
	s := b.Span()
	meanLat := b.Centroid().Lat * math.Pi / 180
	return math.Abs(s.Lat * KmPerDegree * s.Lng * KmPerDegree * math.Cos(meanLat))
}

// Bound converts the region to an orb.Bound (x = lng, y = lat).
func (b BoundingRegion) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// Density is points per km². ok is false when area is zero.
func Density(count int, areaKm2 float64) (float64, bool) {
	if areaKm2 == 0 {
		return 0, false
	}
	return float64(count) / areaKm2, true
}

// Cluster is the aggregate of all points falling in one grid cell.
type Cluster struct {
	GridLat    float64    `json:"gridLat"`
	GridLng    float64    `json:"gridLng"`
	Count      int        `json:"count"`
	TotalValue float64    `json:"totalValue"`
	Points     []GeoPoint `json:"points"`
}

type cellKey struct{ lat, lng int64 }

// NormalizeCellSize maps a non-positive or non-finite size to
// DefaultCellSize and raises sizes below MinCellSize to it.
func NormalizeCellSize(size float64) float64 {
	switch {
	case size <= 0 || math.IsNaN(size) || math.IsInf(size, 0):
		return DefaultCellSize
	case size < MinCellSize:
		return MinCellSize
	}
	return size
}

// ClusterPoints buckets points into cellSize-degree grid cells. Cells are
// never merged with their neighbours, so a tight group straddling a cell
// edge becomes two clusters. Clusters are ordered by count, largest first.
func ClusterPoints(points []GeoPoint, cellSize float64) []Cluster {
	cellSize = NormalizeCellSize(cellSize)

	cells := make(map[cellKey]*Cluster)
	for _, p := range points {
		key := cellKey{
			lat: int64(math.Floor(p.Lat / cellSize)),
			lng: int64(math.Floor(p.Lng / cellSize)),
		}
		c, ok := cells[key]
		if !ok {
			c = &Cluster{
				GridLat: float64(key.lat) * cellSize,
				GridLng: float64(key.lng) * cellSize,
			}
			cells[key] = c
		}
		c.Count++
		c.TotalValue += p.Value
		c.Points = append(c.Points, p)
	}

	clusters := make([]Cluster, 0, len(cells))
	for _, c := range cells {
		clusters = append(clusters, *c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i], clusters[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.GridLat != b.GridLat {
			return a.GridLat < b.GridLat
		}
		return a.GridLng < b.GridLng
	})
	return clusters
}

// Outlier is a point unusually far from the centroid.
type Outlier struct {
	Point      GeoPoint `json:"point"`
	DistanceKm float64  `json:"distanceKm"`
}

// FindOutliers flags every point whose distance from center exceeds twice the
// mean distance. A single extreme point inflates the mean and can hide others.
func FindOutliers(points []GeoPoint, center LatLng) []Outlier {
	outliers := []Outlier{}
	if len(points) == 0 {
		return outliers
	}

	dists := distancesFrom(points, center)
	var sum float64
	for _, d := range dists {
		sum += d
	}
	threshold := outlierFactor * sum / float64(len(dists))

	for i, d := range dists {
		if d > threshold {
			outliers = append(outliers, Outlier{Point: points[i], DistanceKm: d})
		}
	}
	return outliers
}

func distancesFrom(points []GeoPoint, center LatLng) []float64 {
	dists := make([]float64, len(points))
	for i, p := range points {
		dists[i] = HaversineKm(center.Lat, center.Lng, p.Lat, p.Lng)
	}
	return dists
}

// CategoryStat aggregates the points sharing one category.
type CategoryStat struct {
	Category     string  `json:"category"`
	Count        int     `json:"count"`
	TotalValue   float64 `json:"totalValue"`
	AverageValue float64 `json:"averageValue"`
	AverageLat   float64 `json:"averageLat"`
	AverageLng   float64 `json:"averageLng"`
}

// CategoryStats groups points by category, in natural order of the name.
func CategoryStats(points []GeoPoint) []CategoryStat {
	type acc struct {
		count  int
		sum    float64
		sumLat float64
		sumLng float64
	}
	groups := make(map[string]*acc)
	for _, p := range points {
		name := DefaultCategory
		if p.Category != nil {
			name = *p.Category
		}
		a, ok := groups[name]
		if !ok {
			a = &acc{}
			groups[name] = a
		}
		a.count++
		a.sum += p.Value
		a.sumLat += p.Lat
		a.sumLng += p.Lng
	}

	stats := make([]CategoryStat, 0, len(groups))
	for name, a := range groups {
		n := float64(a.count)
		stats = append(stats, CategoryStat{
			Category:     name,
			Count:        a.count,
			TotalValue:   a.sum,
			AverageValue: a.sum / n,
			AverageLat:   a.sumLat / n,
			AverageLng:   a.sumLng / n,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return natural.Less(stats[i].Category, stats[j].Category)
	})
	return stats
}

// DistanceStats summarizes point distances from the centroid, in km.
type DistanceStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ValueStats summarizes point weights.
type ValueStats struct {
	Sum  float64 `json:"sum"`
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// AnalyzeOptions tunes Analyze.
type AnalyzeOptions struct {
	CellSize float64
}

// Analysis bundles every spatial aggregate of a point set. Bounds and
// Centroid are nil for an empty set; Density is nil when the area is zero.
type Analysis struct {
	PointCount int             `json:"pointCount"`
	Bounds     *BoundingRegion `json:"bounds"`
	Centroid   *LatLng         `json:"centroid"`
	Span       Span            `json:"span"`
	AreaKm2    float64         `json:"areaKm2"`
	Density    *float64        `json:"density"`
	Distances  DistanceStats   `json:"distanceFromCentroid"`
	Values     ValueStats      `json:"values"`
	Categories []CategoryStat  `json:"categories"`
	CellSize   float64         `json:"cellSize"`
	Clusters   []Cluster       `json:"clusters"`
	Outliers   []Outlier       `json:"outliers"`
	Timezone   string          `json:"timezone,omitempty"`
}

// Analyze computes the full spatial summary of points. An empty input yields
// a zeroed Analysis with empty collections.
func Analyze(points []GeoPoint, opts AnalyzeOptions) Analysis {
	cellSize := NormalizeCellSize(opts.CellSize)

	a := Analysis{
		PointCount: len(points),
		Categories: []CategoryStat{},
		CellSize:   cellSize,
		Clusters:   []Cluster{},
		Outliers:   []Outlier{},
	}

	bounds, ok := ComputeBounds(points)
	if !ok {
		return a
	}
	center := bounds.Centroid()
	a.Bounds = &bounds
	a.Centroid = &center
	a.Span = bounds.Span()
	a.AreaKm2 = bounds.AreaKm2()
	if d, ok := Density(len(points), a.AreaKm2); ok {
		a.Density = &d
	}

	a.Distances = distanceStats(distancesFrom(points, center))
	a.Values = valueStats(points)
	a.Categories = CategoryStats(points)
	a.Clusters = ClusterPoints(points, cellSize)
	a.Outliers = FindOutliers(points, center)
	return a
}

func distanceStats(dists []float64) DistanceStats {
	if len(dists) == 0 {
		return DistanceStats{}
	}
	sorted := append([]float64(nil), dists...)
	sort.Float64s(sorted)

	var sum float64
	for _, d := range sorted {
		sum += d
	}
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return DistanceStats{
		Mean:   sum / float64(n),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

func valueStats(points []GeoPoint) ValueStats {
	if len(points) == 0 {
		return ValueStats{}
	}
	s := ValueStats{Min: points[0].Value, Max: points[0].Value}
	for _, p := range points {
		s.Sum += p.Value
		s.Min = math.Min(s.Min, p.Value)
		s.Max = math.Max(s.Max, p.Value)
	}
	s.Mean = s.Sum / float64(len(points))
	return s
}
