package geo

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Jan 2, 2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006",
	"2006-01",
	"2006",
}

// compactDateLayout is tried before the epoch reading of 8-digit strings.
const compactDateLayout = "20060102"

// epochMillisThreshold separates Unix seconds from Unix milliseconds.
// 1e11 seconds is in the year 5138; 1e11 milliseconds is March 1973.
const epochMillisThreshold = 1e11

// ParseTimestamp reads a cell as a point in time. Numbers and all-digit
// strings are Unix epochs in seconds or milliseconds, except 8-digit strings
// that form a valid YYYYMMDD date.
func ParseTimestamp(v Value) (time.Time, bool) {
	switch v.Kind() {
	case KindNumber:
		f, ok := v.Float()
		if !ok {
			return time.Time{}, false
		}
		return fromEpoch(f), true
	case KindString:
		return parseTimestampString(v.String())
	}
	return time.Time{}, false
}

func parseTimestampString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if len(s) == len(compactDateLayout) && isDigits(s) {
		if t, err := time.ParseInLocation(compactDateLayout, s, time.UTC); err == nil {
			return t, true
		}
	}

	if isEpochLiteral(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f), true
		}
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isEpochLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	dot := false
	for _, r := range s {
		switch {
		case r == '.' && !dot:
			dot = true
		case r < '0' || r > '9':
			return false
		}
	}
	// a bare year like "2024" is a date, not an epoch
	return len(s) > 4 || dot
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func fromEpoch(f float64) time.Time {
	if math.Abs(f) >= epochMillisThreshold {
		return time.UnixMilli(int64(f)).UTC()
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
