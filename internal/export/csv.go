package export

import (
	"fmt"
	"strings"
	"time"

	"geoanalytics-api/internal/geo"

	"github.com/jszwec/csvutil"
)

type pointRecord struct {
	Index     int     `csv:"index"`
	Latitude  float64 `csv:"latitude"`
	Longitude float64 `csv:"longitude"`
	Value     float64 `csv:"value"`
	Label     string  `csv:"label"`
	Category  string  `csv:"category,omitempty"`
	Timestamp string  `csv:"timestamp,omitempty"`
}

// PointsCSV encodes points as a flat CSV table with a header row.
func PointsCSV(points []geo.GeoPoint) ([]byte, error) {
	records := make([]pointRecord, 0, len(points))
	for _, p := range points {
		rec := pointRecord{
			Index:     p.Index,
			Latitude:  p.Lat,
			Longitude: p.Lng,
			Value:     p.Value,
			Label:     p.Label,
		}
		if p.Category != nil {
			rec.Category = *p.Category
		}
		if p.Timestamp != nil {
			rec.Timestamp = p.Timestamp.UTC().Format(time.RFC3339)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		header, err := csvutil.Header(pointRecord{}, "csv")
		if err != nil {
			return nil, fmt.Errorf("export: failed to build csv header: %w", err)
		}
		return []byte(strings.Join(header, ",") + "\n"), nil
	}

	data, err := csvutil.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("export: failed to encode points: %w", err)
	}
	return data, nil
}
