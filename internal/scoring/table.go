package scoring

import "strings"

// Table maps item codes to point values. Lookups are case-insensitive and
// codes absent from the table resolve to the configured default.
type Table struct {
	points       map[string]int
	defaultValue int
}

func NewTable(points map[string]int, defaultValue int) *Table {
	t := &Table{
		points:       make(map[string]int, len(points)),
		defaultValue: defaultValue,
	}
	for code, v := range points {
		t.points[Normalize(code)] = v
	}
	return t
}

// Normalize canonicalizes an item code for lookup and storage.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (t *Table) PointsFor(code string) int {
	if v, ok := t.points[Normalize(code)]; ok {
		return v
	}
	return t.defaultValue
}

func (t *Table) Default() int {
	return t.defaultValue
}
