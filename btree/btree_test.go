package btree

import (
	"cmp"
	"fmt"
	"math/rand"
	"strconv"
	"testing"

	"github.com/sharedcode/trix"
)

func Test_GenericScenario(t *testing.T) {
	tr, err := New[int64, string](8)
	if err != nil {
		t.Fatalf("New(8) failed, got error = %v, want nil.", err)
	}

	rnd := rand.New(rand.NewSource(2))
	keys := rnd.Perm(64)
	for _, k := range keys {
		key := int64(k)
		value := strconv.FormatInt(key, 10)
		if _, err := tr.ComputeIfAbsent(key, func() string { return value }); err != nil {
			t.Fatalf("ComputeIfAbsent(%d) failed, got error = %v, want nil.", key, err)
		}
	}
	if tr.Size() != 64 {
		t.Errorf("Size() failed, got = %d, want = 64.", tr.Size())
	}

	// the generic range excludes the upper end
	end := int64(16)
	it, err := tr.Range(nil, &end)
	if err != nil {
		t.Fatalf("Range(nil, 16) failed, got error = %v, want nil.", err)
	}
	count := 0
	last := int64(-1)
	for {
		v, ok := it.Next()
		if !ok {
			break
		}
		k, _ := strconv.ParseInt(v, 10, 64)
		if k <= last {
			t.Errorf("Range(nil, 16) order failed, got %d after %d.", k, last)
		}
		last = k
		count++
	}
	if count != 16 {
		t.Errorf("Range(nil, 16) count failed, got = %d, want = 16.", count)
	}

	// bounded start, unbounded end
	start := int64(48)
	it, err = tr.Range(&start, nil)
	if err != nil {
		t.Fatalf("Range(48, nil) failed, got error = %v, want nil.", err)
	}
	count = 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		count++
	}
	if count != 16 {
		t.Errorf("Range(48, nil) count failed, got = %d, want = 16.", count)
	}

	// both bounds, exclusive upper end
	start, end = 10, 20
	it, _ = tr.Range(&start, &end)
	count = 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		count++
	}
	if count != 10 {
		t.Errorf("Range(10, 20) count failed, got = %d, want = 10.", count)
	}
}

func Test_GenericStringKeys(t *testing.T) {
	tr, err := New[string, int](4)
	if err != nil {
		t.Fatalf("New(4) failed, got error = %v, want nil.", err)
	}
	words := []string{"pear", "apple", "fig", "cherry", "date", "banana", "grape", "kiwi"}
	for i, w := range words {
		if _, _, err := tr.Put(w, i); err != nil {
			t.Fatalf("Put(%s) failed, got error = %v, want nil.", w, err)
		}
	}
	if v, found := tr.Get("fig"); !found || v != 2 {
		t.Errorf("Get(fig) failed, got = (%v, %v), want = (2, true).", v, found)
	}
	if _, found := tr.Get("mango"); found {
		t.Errorf("Get(mango) failed, got hit, want miss.")
	}

	all := tr.GetAll()
	if len(all) != len(words) {
		t.Fatalf("GetAll() length failed, got = %d, want = %d.", len(all), len(words))
	}
	// values come back ordered by key
	wantFirst := words[1] // "apple"
	if all[0] != 1 {
		t.Errorf("GetAll() order failed, got value %d first, want the one stored under %s.", all[0], wantFirst)
	}

	if v, found := tr.Remove("date"); !found || v != 4 {
		t.Errorf("Remove(date) failed, got = (%v, %v), want = (4, true).", v, found)
	}
	if tr.Size() != len(words)-1 {
		t.Errorf("Size() failed, got = %d, want = %d.", tr.Size(), len(words)-1)
	}
}

type versionKey struct {
	major int
	minor int
}

func (k versionKey) Compare(other interface{}) int {
	o := other.(versionKey)
	if i := cmp.Compare(k.major, o.major); i != 0 {
		return i
	}
	return cmp.Compare(k.minor, o.minor)
}

func Test_GenericComparerKey(t *testing.T) {
	tr, err := New[versionKey, string](4)
	if err != nil {
		t.Fatalf("New(4) failed, got error = %v, want nil.", err)
	}
	keys := []versionKey{{2, 1}, {1, 9}, {1, 2}, {3, 0}, {2, 0}, {1, 0}}
	for _, k := range keys {
		tr.Put(k, fmt.Sprintf("v%d.%d", k.major, k.minor))
	}
	if v, found := tr.Get(versionKey{2, 0}); !found || v != "v2.0" {
		t.Errorf("Get({2,0}) failed, got = (%v, %v), want = (v2.0, true).", v, found)
	}
	all := tr.GetAll()
	want := []string{"v1.0", "v1.2", "v1.9", "v2.0", "v2.1", "v3.0"}
	for i, v := range all {
		if v != want[i] {
			t.Errorf("GetAll() order failed, got = %s at %d, want = %s.", v, i, want[i])
		}
	}
}

func Test_GenericComparerFunc(t *testing.T) {
	// reverse ordering through an explicit comparer
	tr, err := NewWithComparer[int, string](4, func(a, b int) int { return cmp.Compare(b, a) })
	if err != nil {
		t.Fatalf("NewWithComparer(4) failed, got error = %v, want nil.", err)
	}
	for i := 0; i < 10; i++ {
		tr.Put(i, strconv.Itoa(i))
	}
	all := tr.GetAll()
	for i, v := range all {
		if want := strconv.Itoa(9 - i); v != want {
			t.Errorf("GetAll() reverse order failed, got = %s at %d, want = %s.", v, i, want)
		}
	}
}

func Test_GenericInvalidInputs(t *testing.T) {
	if _, err := New[int64, string](2); !trix.IsInvalidArgument(err) {
		t.Errorf("New(2) failed, got error = %v, want InvalidArgument.", err)
	}

	tr, _ := New[int64, *string](4)
	if _, _, err := tr.Put(1, nil); !trix.IsInvalidArgument(err) {
		t.Errorf("Put(1, nil) failed, got error = %v, want InvalidArgument.", err)
	}
	if _, err := tr.ComputeIfAbsent(1, nil); !trix.IsInvalidArgument(err) {
		t.Errorf("ComputeIfAbsent(1, nil) failed, got error = %v, want InvalidArgument.", err)
	}
	if _, err := tr.ComputeIfAbsent(1, func() *string { return nil }); !trix.IsInvalidArgument(err) {
		t.Errorf("ComputeIfAbsent(1, nil-returning) failed, got error = %v, want InvalidArgument.", err)
	}
	if tr.Size() != 0 {
		t.Errorf("Size() after rejected inserts failed, got = %d, want = 0.", tr.Size())
	}

	start, end := int64(5), int64(3)
	if _, err := tr.Range(&start, &end); !trix.IsInvalidArgument(err) {
		t.Errorf("Range(5, 3) failed, got error = %v, want InvalidArgument.", err)
	}
}

func Test_GenericDeepTree(t *testing.T) {
	tr, _ := New[int64, int64](3)
	const count = 500
	rnd := rand.New(rand.NewSource(3))
	keys := rnd.Perm(count)
	for _, k := range keys {
		tr.Put(int64(k), int64(k))
	}
	if tr.Size() != count {
		t.Fatalf("Size() failed, got = %d, want = %d.", tr.Size(), count)
	}
	if tr.Height() < 4 {
		t.Errorf("Height() failed, got = %d, want a multi-level tree at order 3.", tr.Height())
	}
	all := tr.GetAll()
	for i, v := range all {
		if v != int64(i) {
			t.Fatalf("GetAll() order failed, got = %d at %d.", v, i)
		}
	}
	// drain through collapses
	for _, k := range keys {
		if _, found := tr.Remove(int64(k)); !found {
			t.Fatalf("Remove(%d) failed, got miss, want hit.", k)
		}
	}
	if tr.Size() != 0 || tr.Height() != 0 {
		t.Errorf("drained tree failed, got size = %d height = %d, want 0/0.", tr.Size(), tr.Height())
	}
}
