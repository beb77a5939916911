package btree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sharedcode/trix"
)

// LongBtree is the B+-tree specialization for 64-bit integer keys. It shares
// the Btree design (node algebra, split and merge rules, leaf chain) with
// tighter key storage and primitive comparisons. It is not
// thread-safe; wrap it in a ConcurrentLongBtree when shared across goroutines.
type LongBtree[TV any] struct {
	order  int
	root   *longNode[TV]
	height int
	size   int
	level0 *longNode[TV]
}

type longInsertContext[TV any] struct {
	value    TV
	hasValue bool
	supplier func() TV
	existed  bool
}

type longSearchContext[TV any] struct {
	value TV
	found bool
	node  *longNode[TV]
	index int
}

// NewLong creates a LongBtree of the given order (per-node capacity).
func NewLong[TV any](order int) (*LongBtree[TV], error) {
	if order < 3 {
		return nil, trix.NewInvalidArgument("order must be at least 3")
	}
	t := &LongBtree[TV]{order: order}
	t.level0 = newLongNode[TV](order)
	t.root = t.level0
	return t, nil
}

// Clear removes all elements from the tree.
func (t *LongBtree[TV]) Clear() {
	t.height = 0
	t.size = 0
	t.level0 = newLongNode[TV](t.order)
	t.root = t.level0
}

// IsEmpty returns true if the tree holds no elements.
func (t *LongBtree[TV]) IsEmpty() bool {
	return t.size == 0
}

// Size returns the number of elements inside the tree.
func (t *LongBtree[TV]) Size() int {
	return t.size
}

// Height returns the height of the root above the leaves; 0 means the root is a leaf.
func (t *LongBtree[TV]) Height() int {
	return t.height
}

// Get returns the value associated with the given key and whether the key is present.
func (t *LongBtree[TV]) Get(key int64) (TV, bool) {
	var sc longSearchContext[TV]
	t.search(t.root, t.height, key, &sc)
	return sc.value, sc.found
}

// Put stores value under key and returns the displaced value, if the key was
// already present. A nil value is rejected with an InvalidArgument error
// before any mutation.
func (t *LongBtree[TV]) Put(key int64, value TV) (TV, bool, error) {
	var zero TV
	if trix.IsNilValue(value) {
		return zero, false, trix.NewInvalidArgument("value cannot be nil")
	}
	ic := longInsertContext[TV]{value: value, hasValue: true}
	if err := t.put(key, &ic); err != nil {
		return zero, false, err
	}
	if !ic.existed {
		return zero, false, nil
	}
	return ic.value, true, nil
}

// ComputeIfAbsent returns the value stored under key, calling supplier to
// produce it only when the key is absent. A nil supplier, or a supplier
// returning nil, is rejected with an InvalidArgument error before any mutation.
func (t *LongBtree[TV]) ComputeIfAbsent(key int64, supplier func() TV) (TV, error) {
	var zero TV
	if supplier == nil {
		return zero, trix.NewInvalidArgument("value supplier cannot be nil")
	}
	ic := longInsertContext[TV]{supplier: supplier}
	if err := t.put(key, &ic); err != nil {
		return zero, err
	}
	return ic.value, nil
}

// Remove deletes the value associated with the given key and returns it,
// along with whether the key was present. Removing an absent key is a no-op.
func (t *LongBtree[TV]) Remove(key int64) (TV, bool) {
	var sc longSearchContext[TV]
	t.delete(t.root, t.height, key, &sc)
	// check if we can lower the level
	for t.root.count == 1 && t.height > 0 {
		t.root = t.root.child(0)
		t.height--
	}
	return sc.value, sc.found
}

// Range returns a forward iterator over the values whose keys lie in
// [start, end]. Note the upper end is inclusive, unlike the generic Btree.
func (t *LongBtree[TV]) Range(start, end int64) (*LongIterator[TV], error) {
	if start > end {
		return nil, trix.NewInvalidArgument("start cannot be greater than end")
	}
	var sc longSearchContext[TV]
	t.search(t.root, t.height, start, &sc)
	it := &LongIterator[TV]{node: sc.node, index: sc.index, end: end}
	// start sorts after every key of its leaf; begin on the next non-empty leaf
	for it.node != nil && it.index >= it.node.count {
		it.node = it.node.next
		it.index = 0
	}
	return it, nil
}

// GetAll returns all values in key order by walking the leaf chain.
func (t *LongBtree[TV]) GetAll() []TV {
	result := make([]TV, 0, t.size)
	n := t.level0
	index := 0
	for len(result) < t.size {
		if index < n.count {
			result = append(result, n.value(index))
			index++
		}
		if index >= n.count {
			n = n.next
			index = 0
		}
	}
	return result
}

func (t *LongBtree[TV]) searchKeys(n *longNode[TV], key int64) (int, bool) {
	return slices.BinarySearch(n.keys[:n.count], key)
}

// childIndex maps a key's search index to the covering child slot; see
// Btree.childIndex for why the step-left matters.
func (t *LongBtree[TV]) childIndex(ix int, key int64, n *longNode[TV]) int {
	if ix >= n.count {
		ix = n.count - 1
	}
	if ix > 0 && n.keys[ix] > key {
		ix--
	}
	return ix
}

func (t *LongBtree[TV]) search(n *longNode[TV], level int, key int64, sc *longSearchContext[TV]) {
	ix, found := t.searchKeys(n, key)
	if level == 0 {
		sc.node = n
		if found {
			sc.value = n.value(ix)
			sc.found = true
		}
		sc.index = ix
		return
	}
	ix = t.childIndex(ix, key, n)
	t.search(n.child(ix), level-1, key, sc)
}

func (t *LongBtree[TV]) put(key int64, ic *longInsertContext[TV]) error {
	u, err := t.insert(t.root, t.height, key, ic)
	if err != nil {
		return err
	}
	if u != nil {
		// need to split root
		newRoot := newLongNode[TV](t.order)
		newRoot.append(t.root.keys[0], t.root)
		newRoot.append(u.keys[0], u)
		t.root = newRoot
		t.height++
	}
	return nil
}

func (t *LongBtree[TV]) insert(n *longNode[TV], level int, key int64, ic *longInsertContext[TV]) (*longNode[TV], error) {
	ix, found := t.searchKeys(n, key)

	if level == 0 {
		if found {
			// found the element - overwrite if needed
			if ic.hasValue {
				displaced := n.value(ix)
				n.children[ix] = ic.value
				ic.value = displaced
			} else {
				ic.value = n.value(ix)
			}
			ic.existed = true
			return nil, nil
		}
		if !ic.hasValue {
			v := ic.supplier()
			if trix.IsNilValue(v) {
				return nil, trix.NewInvalidArgument("supplied value cannot be nil")
			}
			ic.value = v
			ic.hasValue = true
		}
		t.size++
		if n.count < t.order {
			// insert into the current node
			if ix >= n.count {
				n.append(key, ic.value)
			} else {
				n.insertAt(ix, key, ic.value)
			}
			return nil, nil
		}
		// split and insert, splicing the new leaf into the forward chain
		second := t.splitAndAdd(n, key, ic.value, ix)
		second.next = n.next
		n.next = second
		return second, nil
	}

	ix = t.childIndex(ix, key, n)
	child := n.child(ix)
	u, err := t.insert(child, level-1, key, ic)
	if ix == 0 {
		// the descent may have lowered the subtree minimum
		n.keys[0] = child.keys[0]
	}
	if err != nil || u == nil {
		return nil, err
	}
	// insert the returned sibling right of the child it split from
	if n.count < t.order {
		if ix+1 >= n.count {
			n.append(u.keys[0], u)
		} else {
			n.insertAt(ix+1, u.keys[0], u)
		}
		return nil, nil
	}
	return t.splitAndAdd(n, u.keys[0], u, ix+1), nil
}

func (t *LongBtree[TV]) splitAndAdd(n *longNode[TV], key int64, child any, ix int) *longNode[TV] {
	pivot := (t.order + 1) >> 1
	second := newLongNode[TV](t.order)
	copyArrayElements(second.keys, n.keys[pivot:], n.count-pivot)
	copyArrayElements(second.children, n.children[pivot:], n.count-pivot)
	second.count = t.order - pivot
	n.count = pivot
	for i := pivot; i < t.order; i++ {
		n.keys[i] = 0
		n.children[i] = nil
	}
	if ix < pivot {
		n.insertAt(ix, key, child)
	} else {
		second.insertAt(ix-pivot, key, child)
	}
	return second
}

func (t *LongBtree[TV]) delete(n *longNode[TV], level int, key int64, sc *longSearchContext[TV]) {
	ix, found := t.searchKeys(n, key)
	if level == 0 {
		if found {
			sc.value = n.value(ix)
			sc.found = true
			n.deleteAt(ix)
			t.size--
		}
		return
	}
	ix = t.childIndex(ix, key, n)
	t.delete(n.child(ix), level-1, key, sc)
	if !sc.found {
		return
	}
	// the subtree shrank; check each adjacent pair of children once, from the right
	if n.count > 1 {
		for i := n.count - 1; i > 0; i-- {
			first := n.child(i - 1)
			second := n.child(i)
			if first.count+second.count < t.order {
				// enough space to merge both nodes
				first.merge(second)
				if level == 1 {
					first.next = second.next
				}
				n.deleteAt(i)
			} else if first.count < t.order>>1 {
				// move entries over to redistribute
				pivot := t.order >> 1
				for first.count < pivot {
					first.append(second.keys[0], second.children[0])
					second.deleteAt(0)
				}
				// update index
				n.keys[i] = second.keys[0]
			}
		}
	}
}

// String returns a string representation of this B-tree (for debugging).
func (t *LongBtree[TV]) String() string {
	var s strings.Builder
	t.dump(&s, t.root, t.height, "")
	s.WriteString("\n")
	return s.String()
}

func (t *LongBtree[TV]) dump(s *strings.Builder, n *longNode[TV], level int, indent string) {
	if level == 0 {
		for i := 0; i < n.count; i++ {
			fmt.Fprintf(s, "%s%d:%v\n", indent, n.keys[i], n.value(i))
		}
		return
	}
	for i := 0; i < n.count; i++ {
		fmt.Fprintf(s, "%s(%d)\n", indent, n.keys[i])
		t.dump(s, n.child(i), level-1, indent+"     ")
	}
}

// LongIterator is a forward cursor over the leaf chain of a LongBtree,
// admitting keys up to and including the upper end.
type LongIterator[TV any] struct {
	node  *longNode[TV]
	index int
	end   int64
}

// Next returns the next value in key order, or false when the range is exhausted.
func (it *LongIterator[TV]) Next() (TV, bool) {
	var zero TV
	if it.node == nil || it.index >= it.node.count {
		return zero, false
	}
	if it.node.keys[it.index] > it.end {
		return zero, false
	}
	v := it.node.value(it.index)
	it.index++
	if it.index >= it.node.count {
		it.index = 0
		it.node = it.node.next
		for it.node != nil && it.node.count <= 0 {
			it.node = it.node.next
		}
	}
	return v, true
}
