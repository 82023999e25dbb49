package cypher

// QueryResult holds the loosely typed rows of a raw query.
type QueryResult struct {
	Rows []map[string]any
}

// Single returns the only row, or false when the result is empty or has more
// than one row.
func (r QueryResult) Single() (map[string]any, bool) {
	if len(r.Rows) != 1 {
		return nil, false
	}
	return r.Rows[0], true
}

// NumberOrZero returns the named numeric field of the first row, or 0 when
// the result is empty or the field is absent or non-numeric.
func (r QueryResult) NumberOrZero(key string) int {
	if len(r.Rows) == 0 {
		return 0
	}
	n, _ := asInt(r.Rows[0][key])
	return n
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
