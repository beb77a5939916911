package btree

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sharedcode/trix"
)

func Test_CompareBuiltins(t *testing.T) {
	cases := []struct {
		name string
		x, y any
		want int
	}{
		{"int", 1, 2, -1},
		{"int equal", 7, 7, 0},
		{"int8", int8(5), int8(3), 1},
		{"int16", int16(-2), int16(4), -1},
		{"int32", int32(9), int32(9), 0},
		{"int64", int64(100), int64(10), 1},
		{"uint", uint(1), uint(2), -1},
		{"uint8", uint8(2), uint8(2), 0},
		{"uint16", uint16(9), uint16(1), 1},
		{"uint32", uint32(3), uint32(30), -1},
		{"uint64", uint64(8), uint64(8), 0},
		{"float32", float32(1.5), float32(2.5), -1},
		{"float64", 3.25, 3.0, 1},
		{"string", "apple", "banana", -1},
	}
	for _, c := range cases {
		if got := Compare(c.x, c.y); got != c.want {
			t.Errorf("Compare(%s: %v, %v) failed, got = %d, want = %d.", c.name, c.x, c.y, got, c.want)
		}
	}
}

func Test_CompareUUIDAndTime(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	if got := Compare(a, b); got != -1 {
		t.Errorf("Compare(uuid) failed, got = %d, want = -1.", got)
	}
	if got := Compare(trix.UUID(b), trix.UUID(a)); got != 1 {
		t.Errorf("Compare(trix.UUID) failed, got = %d, want = 1.", got)
	}

	earlier := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)
	if got := Compare(earlier, later); got != -1 {
		t.Errorf("Compare(time) failed, got = %d, want = -1.", got)
	}
	if got := Compare(later, later); got != 0 {
		t.Errorf("Compare(equal time) failed, got = %d, want = 0.", got)
	}
}

func Test_CompareComparerAndFallback(t *testing.T) {
	if got := Compare(versionKey{1, 2}, versionKey{1, 3}); got != -1 {
		t.Errorf("Compare(Comparer) failed, got = %d, want = -1.", got)
	}
	if got := Compare(versionKey{2, 0}, versionKey{1, 9}); got != 1 {
		t.Errorf("Compare(Comparer) failed, got = %d, want = 1.", got)
	}

	// unknown types fall back to their formatted representation
	type opaque struct{ v int }
	if got := Compare(opaque{1}, opaque{2}); got >= 0 {
		t.Errorf("Compare(fallback) failed, got = %d, want < 0.", got)
	}
}
