package store

import "strings"

// Empty reports whether an attribute value counts as not provided: absent,
// false, zero, "", "0" or an empty collection.
func Empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case string:
		s := strings.TrimSpace(x)
		return s == "" || s == "0"
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
