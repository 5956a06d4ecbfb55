package geo

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
)

// RouteOptions tunes BuildRoutes.
type RouteOptions struct {
	// SimplifyTolerance is the Douglas-Peucker threshold in degrees used
	// for Route.Path. Zero keeps every waypoint.
	SimplifyTolerance float64
}

// Segment joins two consecutive waypoints. DurationHours and SpeedKmh are
// set only when both ends carry timestamps and time actually elapsed.
type Segment struct {
	From          int      `json:"from"`
	To            int      `json:"to"`
	DistanceKm    float64  `json:"distanceKm"`
	DurationHours *float64 `json:"durationHours"`
	SpeedKmh      *float64 `json:"speedKmh"`
}

// RouteMetrics aggregates a route.
type RouteMetrics struct {
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	TotalTimeHours  float64 `json:"totalTimeHours"`
	AverageSpeedKmh float64 `json:"averageSpeedKmh"`
	MaxSpeedKmh     float64 `json:"maxSpeedKmh"`
	WaypointCount   int     `json:"waypointCount"`
}

// Route is an ordered sequence of waypoints. Path is the simplified polyline
// for drawing, as [lng, lat] pairs.
type Route struct {
	Points   []GeoPoint     `json:"points"`
	Segments []Segment      `json:"segments"`
	Metrics  RouteMetrics   `json:"metrics"`
	Path     orb.LineString `json:"path"`
}

// RouteAnalysis holds every route built from a dataset. The whole dataset
// currently forms a single route.
type RouteAnalysis struct {
	Routes []Route `json:"routes"`
}

// BuildRoutes orders the valid points of rows into a route. With a mapped
// timestamp column the points are sorted by time, untimed points last in
// their original order; without one, row order is kept.
func BuildRoutes(rows []Row, m ColumnMapping, opts RouteOptions) RouteAnalysis {
	points := ExtractPoints(rows, m)
	if m.Timestamp != "" {
		SortByTimestamp(points)
	}
	return RouteAnalysis{Routes: []Route{NewRoute(points, opts)}}
}

// SortByTimestamp stably sorts points by ascending timestamp. Points without
// a timestamp move after all timed points.
func SortByTimestamp(points []GeoPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		a, b := points[i].Timestamp, points[j].Timestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
}

// NewRoute computes segments and metrics over points in the given order.
func NewRoute(points []GeoPoint, opts RouteOptions) Route {
	r := Route{
		Points:   points,
		Segments: []Segment{},
		Metrics:  RouteMetrics{WaypointCount: len(points)},
		Path:     orb.LineString{},
	}
	if r.Points == nil {
		r.Points = []GeoPoint{}
	}
	if len(points) < 2 {
		r.Path = routePath(points, 0)
		return r
	}

	var speeds []float64
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		seg := Segment{From: prev.Index, To: cur.Index, DistanceKm: Distance(prev, cur)}
		r.Metrics.TotalDistanceKm += seg.DistanceKm

		if prev.Timestamp != nil && cur.Timestamp != nil {
			hours := cur.Timestamp.Sub(*prev.Timestamp).Hours()
			if hours > 0 {
				speed := seg.DistanceKm / hours
				seg.DurationHours = &hours
				seg.SpeedKmh = &speed
				speeds = append(speeds, speed)
			}
		}
		r.Segments = append(r.Segments, seg)
	}

	first, last := points[0], points[len(points)-1]
	if first.Timestamp != nil && last.Timestamp != nil {
		r.Metrics.TotalTimeHours = last.Timestamp.Sub(*first.Timestamp).Hours()
	}

	if len(speeds) > 0 {
		var sum float64
		for _, s := range speeds {
			sum += s
			if s > r.Metrics.MaxSpeedKmh {
				r.Metrics.MaxSpeedKmh = s
			}
		}
		r.Metrics.AverageSpeedKmh = sum / float64(len(speeds))
	}

	r.Path = routePath(points, opts.SimplifyTolerance)
	return r
}

func routePath(points []GeoPoint, tolerance float64) orb.LineString {
	ls := make(orb.LineString, 0, len(points))
	for _, p := range points {
		ls = append(ls, orb.Point{p.Lng, p.Lat})
	}
	if tolerance <= 0 || len(ls) < 3 {
		return ls
	}
	if simplified, ok := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString); ok {
		return simplified
	}
	return ls
}
