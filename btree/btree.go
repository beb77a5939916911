package btree

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sharedcode/trix"
)

// Btree is an in-memory B+-tree with keys of any totally ordered type.
// Keys are unique; storing a key that already exists replaces its value.
// All values live on level-0 (leaf) nodes, which are chained in key order so
// range scans walk the chain instead of re-descending. It is not thread-safe;
// see ConcurrentLongBtree for a guarded variant.
type Btree[TK Ordered, TV any] struct {
	order    int
	comparer ComparerFunc[TK]
	root     *node[TK, TV]
	height   int
	size     int
	// level0 is the leftmost leaf, the entry point for whole-tree iteration.
	level0 *node[TK, TV]
}

type insertContext[TK Ordered, TV any] struct {
	value    TV
	hasValue bool
	supplier func() TV
	existed  bool
}

type searchContext[TK Ordered, TV any] struct {
	value TV
	found bool
	node  *node[TK, TV]
	index int
}

// New creates a Btree of the given order (per-node capacity). Keys are ordered
// by the Compare fallback ladder; use NewWithComparer for a custom ordering.
func New[TK Ordered, TV any](order int) (*Btree[TK, TV], error) {
	return NewWithComparer[TK, TV](order, nil)
}

// NewWithComparer creates a Btree ordering keys with the given comparer.
// A nil comparer selects the Compare fallback ladder.
func NewWithComparer[TK Ordered, TV any](order int, comparer ComparerFunc[TK]) (*Btree[TK, TV], error) {
	if order < 3 {
		return nil, trix.NewInvalidArgument("order must be at least 3")
	}
	t := &Btree[TK, TV]{
		order:    order,
		comparer: comparer,
	}
	t.level0 = newNode[TK, TV](order)
	t.root = t.level0
	return t, nil
}

// Clear removes all elements from the tree.
func (t *Btree[TK, TV]) Clear() {
	t.height = 0
	t.size = 0
	t.level0 = newNode[TK, TV](t.order)
	t.root = t.level0
}

// IsEmpty returns true if the tree holds no elements.
func (t *Btree[TK, TV]) IsEmpty() bool {
	return t.size == 0
}

// Size returns the number of elements inside the tree.
func (t *Btree[TK, TV]) Size() int {
	return t.size
}

// Height returns the height of the root above the leaves; 0 means the root is a leaf.
func (t *Btree[TK, TV]) Height() int {
	return t.height
}

// Get returns the value associated with the given key and whether the key is present.
func (t *Btree[TK, TV]) Get(key TK) (TV, bool) {
	var sc searchContext[TK, TV]
	t.search(t.root, t.height, key, &sc)
	return sc.value, sc.found
}

// Put stores value under key and returns the displaced value, if the key was
// already present. A nil value is rejected with an InvalidArgument error
// before any mutation.
func (t *Btree[TK, TV]) Put(key TK, value TV) (TV, bool, error) {
	var zero TV
	if trix.IsNilValue(value) {
		return zero, false, trix.NewInvalidArgument("value cannot be nil")
	}
	ic := insertContext[TK, TV]{value: value, hasValue: true}
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
func (t *Btree[TK, TV]) ComputeIfAbsent(key TK, supplier func() TV) (TV, error) {
	var zero TV
	if supplier == nil {
		return zero, trix.NewInvalidArgument("value supplier cannot be nil")
	}
	ic := insertContext[TK, TV]{supplier: supplier}
	if err := t.put(key, &ic); err != nil {
		return zero, err
	}
	return ic.value, nil
}

// Remove deletes the value associated with the given key and returns it,
// along with whether the key was present. Removing an absent key is a no-op.
func (t *Btree[TK, TV]) Remove(key TK) (TV, bool) {
	var sc searchContext[TK, TV]
	t.delete(t.root, t.height, key, &sc)
	// check if we can lower the level
	for t.root.count == 1 && t.height > 0 {
		t.root = t.root.child(0)
		t.height--
	}
	return sc.value, sc.found
}

// Range returns a forward iterator over the values whose keys lie in
// [start, end). A nil start means "from the first leaf"; a nil end leaves the
// upper side unbounded. Note the upper end is exclusive, unlike LongBtree.
func (t *Btree[TK, TV]) Range(start, end *TK) (*Iterator[TK, TV], error) {
	if start != nil && end != nil && t.compare(*start, *end) > 0 {
		return nil, trix.NewInvalidArgument("start cannot be greater than end")
	}
	it := &Iterator[TK, TV]{tree: t, end: end}
	if start != nil {
		var sc searchContext[TK, TV]
		t.search(t.root, t.height, *start, &sc)
		it.node = sc.node
		it.index = sc.index
		// start sorts after every key of its leaf; begin on the next non-empty leaf
		for it.node != nil && it.index >= it.node.count {
			it.node = it.node.next
			it.index = 0
		}
	} else {
		// start from the first element
		it.node = t.level0
		it.index = 0
	}
	return it, nil
}

// GetAll returns all values in key order by walking the leaf chain.
func (t *Btree[TK, TV]) GetAll() []TV {
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

func (t *Btree[TK, TV]) compare(a, b TK) int {
	if t.comparer != nil {
		return t.comparer(a, b)
	}
	return Compare(a, b)
}

// searchKeys binary-searches the node's live keys and returns the match or
// insertion index, plus whether the key was found.
func (t *Btree[TK, TV]) searchKeys(n *node[TK, TV], key TK) (int, bool) {
	return slices.BinarySearchFunc(n.keys[:n.count], key, t.compare)
}

// childIndex maps a key's search index to the child slot whose key range
// covers it: clamp into the live range, then step one slot left when the
// slot's key strictly exceeds the query. Without the step-left an insert below
// the current minimum would descend into the wrong subtree and break the
// slot-key-equals-subtree-min invariant.
func (t *Btree[TK, TV]) childIndex(ix int, key TK, n *node[TK, TV]) int {
	if ix >= n.count {
		ix = n.count - 1
	}
	if ix > 0 && t.compare(n.keys[ix], key) > 0 {
		ix--
	}
	return ix
}

func (t *Btree[TK, TV]) search(n *node[TK, TV], level int, key TK, sc *searchContext[TK, TV]) {
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

func (t *Btree[TK, TV]) put(key TK, ic *insertContext[TK, TV]) error {
	u, err := t.insert(t.root, t.height, key, ic)
	if err != nil {
		return err
	}
	if u != nil {
		// need to split root
		newRoot := newNode[TK, TV](t.order)
		newRoot.append(t.root.keys[0], t.root)
		newRoot.append(u.keys[0], u)
		t.root = newRoot
		t.height++
	}
	return nil
}

func (t *Btree[TK, TV]) insert(n *node[TK, TV], level int, key TK, ic *insertContext[TK, TV]) (*node[TK, TV], error) {
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

// splitAndAdd splits the full node at pivot (order+1)/2, moves the upper slots
// into a fresh sibling, inserts the pending entry into whichever side its index
// lands on, and returns the sibling for up-propagation.
func (t *Btree[TK, TV]) splitAndAdd(n *node[TK, TV], key TK, child any, ix int) *node[TK, TV] {
	pivot := (t.order + 1) >> 1
	second := newNode[TK, TV](t.order)
	copyArrayElements(second.keys, n.keys[pivot:], n.count-pivot)
	copyArrayElements(second.children, n.children[pivot:], n.count-pivot)
	second.count = t.order - pivot
	n.count = pivot
	var zero TK
	for i := pivot; i < t.order; i++ {
		n.keys[i] = zero
		n.children[i] = nil
	}
	if ix < pivot {
		n.insertAt(ix, key, child)
	} else {
		second.insertAt(ix-pivot, key, child)
	}
	return second
}

func (t *Btree[TK, TV]) delete(n *node[TK, TV], level int, key TK, sc *searchContext[TK, TV]) {
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
func (t *Btree[TK, TV]) String() string {
	var s strings.Builder
	t.dump(&s, t.root, t.height, "")
	s.WriteString("\n")
	return s.String()
}

func (t *Btree[TK, TV]) dump(s *strings.Builder, n *node[TK, TV], level int, indent string) {
	if level == 0 {
		for i := 0; i < n.count; i++ {
			fmt.Fprintf(s, "%s%v:%v\n", indent, n.keys[i], n.value(i))
		}
		return
	}
	for i := 0; i < n.count; i++ {
		fmt.Fprintf(s, "%s(%v)\n", indent, n.keys[i])
		t.dump(s, n.child(i), level-1, indent+"     ")
	}
}
