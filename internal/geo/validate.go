package geo

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultPreviewSize is how many leading rows a Validation previews.
const DefaultPreviewSize = 10

// GeoPoint is a validated coordinate pair derived from one source row.
type GeoPoint struct {
	Index     int        `json:"index"`
	Lat       float64    `json:"lat"`
	Lng       float64    `json:"lng"`
	Value     float64    `json:"value"`
	Label     string     `json:"label"`
	Category  *string    `json:"category"`
	Timestamp *time.Time `json:"timestampValue"`
	SourceRow Row        `json:"sourceRow,omitempty"`
}

// Reason explains why a row did not yield a GeoPoint.
type Reason string

const (
	ReasonMalformedRow        Reason = "malformed_row"
	ReasonMissingLatitude     Reason = "missing_latitude"
	ReasonMissingLongitude    Reason = "missing_longitude"
	ReasonInvalidLatitude     Reason = "invalid_latitude"
	ReasonInvalidLongitude    Reason = "invalid_longitude"
	ReasonLatitudeOutOfRange  Reason = "latitude_out_of_range"
	ReasonLongitudeOutOfRange Reason = "longitude_out_of_range"
)

var reasonText = map[Reason]string{
	ReasonMalformedRow:        "Malformed row",
	ReasonMissingLatitude:     "Missing latitude",
	ReasonMissingLongitude:    "Missing longitude",
	ReasonInvalidLatitude:     "Invalid latitude",
	ReasonInvalidLongitude:    "Invalid longitude",
	ReasonLatitudeOutOfRange:  "Latitude out of range",
	ReasonLongitudeOutOfRange: "Longitude out of range",
}

// Text is the human readable form shown next to a rejected row.
func (r Reason) Text() string {
	if t, ok := reasonText[r]; ok {
		return t
	}
	return string(r)
}

// PreviewRow is a leading row of the dataset annotated with its validity.
type PreviewRow struct {
	Index   int      `json:"index"`
	Row     Row      `json:"row"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Valid   bool     `json:"valid"`
	Reasons []Reason `json:"reasons,omitempty"`
	Issues  []string `json:"issues,omitempty"`
}

// ValidationSummary counts the outcome of validating every row.
type ValidationSummary struct {
	TotalRows     int     `json:"totalRows"`
	ValidPoints   int     `json:"validPoints"`
	InvalidPoints int     `json:"invalidPoints"`
	ValidityRate  float64 `json:"validityRate"`
}

// Validation is the result of ValidateRows.
type Validation struct {
	Preview []PreviewRow      `json:"preview"`
	Points  []GeoPoint        `json:"points"`
	Summary ValidationSummary `json:"summary"`
}

// ValidateRows converts rows into GeoPoints under mapping m. Rows that fail
// are excluded from Points and reported in the preview; nothing panics on
// malformed input. previewSize <= 0 uses DefaultPreviewSize.
func ValidateRows(rows []Row, m ColumnMapping, previewSize int) Validation {
	if previewSize <= 0 {
		previewSize = DefaultPreviewSize
	}

	result := Validation{
		Preview: make([]PreviewRow, 0, min(previewSize, len(rows))),
		Points:  make([]GeoPoint, 0, len(rows)),
	}

	for i, row := range rows {
		lat, lng, reasons := parseCoordinates(row, m)
		valid := len(reasons) == 0
		if valid {
			result.Points = append(result.Points, newGeoPoint(i, row, lat, lng, m))
		}

		if i < previewSize {
			pr := PreviewRow{Index: i, Row: row, Valid: valid, Reasons: reasons}
			if !math.IsNaN(lat) {
				pr.Lat = &lat
			}
			if !math.IsNaN(lng) {
				pr.Lng = &lng
			}
			for _, r := range reasons {
				pr.Issues = append(pr.Issues, r.Text())
			}
			result.Preview = append(result.Preview, pr)
		}
	}

	result.Summary = summarize(len(rows), len(result.Points))
	return result
}

// ExtractPoints returns only the valid GeoPoints of rows, in row order.
func ExtractPoints(rows []Row, m ColumnMapping) []GeoPoint {
	points := make([]GeoPoint, 0, len(rows))
	for i, row := range rows {
		lat, lng, reasons := parseCoordinates(row, m)
		if len(reasons) == 0 {
			points = append(points, newGeoPoint(i, row, lat, lng, m))
		}
	}
	return points
}

func summarize(total, valid int) ValidationSummary {
	s := ValidationSummary{
		TotalRows:     total,
		ValidPoints:   valid,
		InvalidPoints: total - valid,
	}
	if total > 0 {
		s.ValidityRate = math.Round(float64(valid)/float64(total)*1000) / 10
	}
	return s
}

// parseCoordinates returns NaN for a coordinate that could not be read.
func parseCoordinates(row Row, m ColumnMapping) (lat, lng float64, reasons []Reason) {
	lat, lng = math.NaN(), math.NaN()
	if row == nil {
		return lat, lng, []Reason{ReasonMalformedRow}
	}

	latCell, lngCell := row.Lookup(m.Latitude), row.Lookup(m.Longitude)

	switch f, ok := latCell.Float(); {
	case latCell.IsEmpty():
		reasons = append(reasons, ReasonMissingLatitude)
	case !ok:
		reasons = append(reasons, ReasonInvalidLatitude)
	default:
		lat = f
		if f < -90 || f > 90 {
			reasons = append(reasons, ReasonLatitudeOutOfRange)
		}
	}

	switch f, ok := lngCell.Float(); {
	case lngCell.IsEmpty():
		reasons = append(reasons, ReasonMissingLongitude)
	case !ok:
		reasons = append(reasons, ReasonInvalidLongitude)
	default:
		lng = f
		if f < -180 || f > 180 {
			reasons = append(reasons, ReasonLongitudeOutOfRange)
		}
	}

	return lat, lng, reasons
}

func newGeoPoint(index int, row Row, lat, lng float64, m ColumnMapping) GeoPoint {
	p := GeoPoint{
		Index:     index,
		Lat:       lat,
		Lng:       lng,
		Value:     1,
		SourceRow: row,
	}

	if m.Value != "" {
		p.Value = 0
		if f, ok := row.Lookup(m.Value).Float(); ok {
			p.Value = f
		}
	}

	if label := strings.TrimSpace(row.Lookup(m.Label).String()); m.Label != "" && label != "" {
		p.Label = label
	} else {
		p.Label = fmt.Sprintf("Point %d", index+1)
	}

	if m.Category != "" {
		if c := strings.TrimSpace(row.Lookup(m.Category).String()); c != "" {
			p.Category = &c
		}
	}

	if m.Timestamp != "" {
		if t, ok := ParseTimestamp(row.Lookup(m.Timestamp)); ok {
			p.Timestamp = &t
		}
	}

	return p
}
