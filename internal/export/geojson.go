package export

import (
	"time"

	"geoanalytics-api/internal/geo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONPoints renders points as a FeatureCollection of Point features.
func GeoJSONPoints(points []geo.GeoPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		fc.Append(pointFeature(p))
	}
	return fc
}

// GeoJSONRoute renders a route as its path LineString followed by one
// feature per waypoint.
func GeoJSONRoute(r geo.Route) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	line := geojson.NewFeature(r.Path)
	line.Properties["kind"] = "route"
	line.Properties["totalDistanceKm"] = r.Metrics.TotalDistanceKm
	line.Properties["totalTimeHours"] = r.Metrics.TotalTimeHours
	line.Properties["averageSpeedKmh"] = r.Metrics.AverageSpeedKmh
	line.Properties["maxSpeedKmh"] = r.Metrics.MaxSpeedKmh
	line.Properties["waypointCount"] = r.Metrics.WaypointCount
	fc.Append(line)

	for i, p := range r.Points {
		f := pointFeature(p)
		f.Properties["kind"] = "waypoint"
		f.Properties["order"] = i
		fc.Append(f)
	}
	return fc
}

// ClustersGeoJSON renders each grid cell as a Polygon spanning cellSize
// degrees from its south-west corner.
func ClustersGeoJSON(clusters []geo.Cluster, cellSize float64) *geojson.FeatureCollection {
	if cellSize <= 0 {
		cellSize = geo.DefaultCellSize
	}

	fc := geojson.NewFeatureCollection()
	for _, c := range clusters {
		cell := orb.Bound{
			Min: orb.Point{c.GridLng, c.GridLat},
			Max: orb.Point{c.GridLng + cellSize, c.GridLat + cellSize},
		}
		f := geojson.NewFeature(cell.ToPolygon())
		f.Properties["gridLat"] = c.GridLat
		f.Properties["gridLng"] = c.GridLng
		f.Properties["count"] = c.Count
		f.Properties["totalValue"] = c.TotalValue
		fc.Append(f)
	}
	return fc
}

func pointFeature(p geo.GeoPoint) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
	f.ID = p.Index
	f.Properties["index"] = p.Index
	f.Properties["label"] = p.Label
	f.Properties["value"] = p.Value
	if p.Category != nil {
		f.Properties["category"] = *p.Category
	}
	if p.Timestamp != nil {
		f.Properties["timestamp"] = p.Timestamp.UTC().Format(time.RFC3339)
	}
	return f
}
