package geo

import (
	"fmt"
	"strings"
)

// Role is the semantic meaning a column can be assigned.
type Role int

const (
	RoleLatitude Role = iota
	RoleLongitude
	RoleValue
	RoleLabel
	RoleCategory
	RoleTimestamp
)

var roleNames = [...]string{
	RoleLatitude:  "latitude",
	RoleLongitude: "longitude",
	RoleValue:     "value",
	RoleLabel:     "label",
	RoleCategory:  "category",
	RoleTimestamp: "timestamp",
}

// Roles returns every role in assignment order. Detection depends on this order.
func Roles() []Role {
	return []Role{RoleLatitude, RoleLongitude, RoleValue, RoleLabel, RoleCategory, RoleTimestamp}
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// ParseRole resolves a role from its name, case-insensitively.
func ParseRole(name string) (Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range Roles() {
		if roleNames[r] == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("geo: unknown role %q", name)
}

// ColumnMapping assigns at most one column name to each role. Empty means unmapped.
type ColumnMapping struct {
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
	Value     string `json:"value,omitempty"`
	Label     string `json:"label,omitempty"`
	Category  string `json:"category,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

func (m *ColumnMapping) field(r Role) *string {
	switch r {
	case RoleLatitude:
		return &m.Latitude
	case RoleLongitude:
		return &m.Longitude
	case RoleValue:
		return &m.Value
	case RoleLabel:
		return &m.Label
	case RoleCategory:
		return &m.Category
	case RoleTimestamp:
		return &m.Timestamp
	}
	return nil
}

// Get returns the column mapped to r.
func (m ColumnMapping) Get(r Role) string {
	if f := m.field(r); f != nil {
		return *f
	}
	return ""
}

// Set maps column to r. Unknown roles are ignored.
func (m *ColumnMapping) Set(r Role, column string) {
	if f := m.field(r); f != nil {
		*f = column
	}
}

// HasCoordinates reports whether both latitude and longitude are mapped.
// Aggregation and routing require it.
func (m ColumnMapping) HasCoordinates() bool {
	return m.Latitude != "" && m.Longitude != ""
}

// Columns returns the distinct mapped column names in role order.
func (m ColumnMapping) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range Roles() {
		c := m.Get(r)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
	}
	return cols
}

func (m ColumnMapping) assigned(column string) bool {
	for _, r := range Roles() {
		if m.Get(r) == column {
			return true
		}
	}
	return false
}
