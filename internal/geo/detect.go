package geo

import (
	"regexp"
	"strings"
	"unicode"
)

// DetectSampleSize is how many leading rows the content pass inspects.
const DetectSampleSize = 20

type rolePattern struct {
	role    Role
	pattern *regexp.Regexp
}

// Patterns run against the normalized column name (lowercase, camelCase split
// on "_"), so they only need lowercase alternatives.
var rolePatterns = []rolePattern{
	{RoleLatitude, regexp.MustCompile(`(^|[^a-z])(lat|latitude|latitud|lat_?deg)([^a-z]|$)|^y$`)},
	{RoleLongitude, regexp.MustCompile(`(^|[^a-z])(lng|lon|long|longitude|longitud|lon_?deg)([^a-z]|$)|^x$`)},
	{RoleValue, regexp.MustCompile(`(^|[^a-z])(value|val|amount|count|sales|revenue|total|price|cost|quantity|qty|weight|score|population|magnitude|intensity)s?([^a-z]|$)`)},
	{RoleLabel, regexp.MustCompile(`(^|[^a-z])(name|label|title|description|desc|place|location|address|city|site|station|store)s?([^a-z]|$)`)},
	{RoleCategory, regexp.MustCompile(`(^|[^a-z])(category|categories|cat|type|class|group|kind|segment|status|region|tag)s?([^a-z]|$)`)},
	{RoleTimestamp, regexp.MustCompile(`(^|[^a-z])(time|timestamp|date|datetime|created|updated|recorded|ts)([^a-z]|$)`)},
}

// normalizeColumnName lowercases name and turns camelCase humps into "_"
// boundaries, so "pickupLatitude" reads as "pickup_latitude".
func normalizeColumnName(name string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(name))
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// DetectColumns guesses a ColumnMapping from column names, falling back to
// the content of the first DetectSampleSize rows for coordinates.
func DetectColumns(columns []string, sample []Row) ColumnMapping {
	return DetectColumnsN(columns, sample, DetectSampleSize)
}

// DetectColumnsN is DetectColumns with an explicit sample size.
func DetectColumnsN(columns []string, sample []Row, sampleSize int) ColumnMapping {
	var m ColumnMapping

	for _, col := range columns {
		if strings.TrimSpace(col) == "" {
			continue
		}
		name := normalizeColumnName(col)
		for _, rp := range rolePatterns {
			if m.Get(rp.role) != "" {
				continue
			}
			if rp.pattern.MatchString(name) {
				m.Set(rp.role, col)
				break
			}
		}
	}

	if m.HasCoordinates() {
		return m
	}

	if sampleSize <= 0 {
		sampleSize = DetectSampleSize
	}
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	for _, col := range columns {
		if strings.TrimSpace(col) == "" || m.assigned(col) {
			continue
		}
		lo, hi, ok := numericRange(sample, col)
		if !ok {
			continue
		}
		if m.Latitude == "" && lo >= -90 && hi <= 90 {
			m.Latitude = col
		} else if m.Longitude == "" && lo >= -180 && hi <= 180 {
			m.Longitude = col
		}
		if m.HasCoordinates() {
			break
		}
	}

	return m
}

// numericRange returns the min and max of column over sample. ok is false
// unless every sampled cell is a finite number and there is at least one.
func numericRange(sample []Row, column string) (lo, hi float64, ok bool) {
	n := 0
	for _, row := range sample {
		if row == nil {
			continue
		}
		f, valid := row.Lookup(column).Float()
		if !valid {
			return 0, 0, false
		}
		if n == 0 || f < lo {
			lo = f
		}
		if n == 0 || f > hi {
			hi = f
		}
		n++
	}
	return lo, hi, n > 0
}
