package store

import "testing"

func TestEmpty(t *testing.T) {
	empty := []any{nil, false, float64(0), 0, int64(0), "", "  ", "0", []any{}, map[string]any{}}
	for _, v := range empty {
		if !Empty(v) {
			t.Fatalf("Empty(%#v) = false", v)
		}
	}
	filled := []any{true, float64(1760000000), 3, "uploads/id.png", "no", []any{"x"}, map[string]any{"k": 1}}
	for _, v := range filled {
		if Empty(v) {
			t.Fatalf("Empty(%#v) = true", v)
		}
	}
}
