package rtree

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sharedcode/trix"
	"github.com/sharedcode/trix/btree"
)

// Rtree is an in-memory R-tree generic over the stored value type. The caller
// supplies two projections at construction: toKey derives the primary key a
// value is addressed by, toBox derives its bounding box. Primary keys are
// unique; adding a value whose key is present replaces the old value.
//
// Values are handles: the tree compares them by interface identity when
// unlinking, so they should be pointer-shaped (a pointer, or a small
// comparable struct used consistently). The tree is not thread-safe.
type Rtree[TK btree.Ordered, TV any] struct {
	order  int
	toKey  func(TV) TK
	toBox  func(TV) Box
	root   *rnode[TV]
	height int
	// indexKey maps each primary key to the leaf currently owning its value,
	// so Get and Remove skip the spatial descent entirely.
	indexKey *btree.Btree[TK, *indexRef[TV]]
}

// indexRef records which leaf holds a value. Overwritten in place whenever a
// reshape relocates the value.
type indexRef[TV any] struct {
	value TV
	node  *rnode[TV]
}

type rinsertContext[TK btree.Ordered, TV any] struct {
	key   TK
	box   Box
	value TV
}

// New creates an Rtree of the given order (per-node capacity) with the two
// value projections.
func New[TK btree.Ordered, TV any](order int, toKey func(TV) TK, toBox func(TV) Box) (*Rtree[TK, TV], error) {
	if order < 3 {
		return nil, trix.NewInvalidArgument("order must be at least 3")
	}
	if toKey == nil || toBox == nil {
		return nil, trix.NewInvalidArgument("toKey and toBox projections cannot be nil")
	}
	index, err := btree.New[TK, *indexRef[TV]](order)
	if err != nil {
		return nil, err
	}
	return &Rtree[TK, TV]{
		order:    order,
		toKey:    toKey,
		toBox:    toBox,
		root:     newRNode[TV](order, true),
		indexKey: index,
	}, nil
}

// Clear removes all elements from the tree.
func (t *Rtree[TK, TV]) Clear() {
	t.height = 0
	t.root = newRNode[TV](t.order, true)
	t.indexKey.Clear()
}

// IsEmpty returns true if the tree holds no elements.
func (t *Rtree[TK, TV]) IsEmpty() bool {
	return t.indexKey.IsEmpty()
}

// Size returns the number of elements inside the tree.
func (t *Rtree[TK, TV]) Size() int {
	return t.indexKey.Size()
}

// Height returns the height of the root above the leaves; 0 means the root is a leaf.
func (t *Rtree[TK, TV]) Height() int {
	return t.height
}

// Get returns the value stored under the given primary key and whether the
// key is present. The lookup runs on the key index, not the spatial tree.
func (t *Rtree[TK, TV]) Get(key TK) (TV, bool) {
	var zero TV
	ref, found := t.indexKey.Get(key)
	if !found {
		return zero, false
	}
	return ref.value, true
}

// Add stores the value, displacing any value already stored under the same
// primary key; the displaced value is returned. A nil value is rejected with
// an InvalidArgument error before any mutation.
func (t *Rtree[TK, TV]) Add(value TV) (TV, bool, error) {
	var zero TV
	if trix.IsNilValue(value) {
		return zero, false, trix.NewInvalidArgument("value cannot be nil")
	}
	return t.put(value)
}

// Remove deletes the value stored under the given primary key and returns it,
// along with whether the key was present. Removing an absent key is a no-op.
func (t *Rtree[TK, TV]) Remove(key TK) (TV, bool, error) {
	var zero TV
	ref, found := t.indexKey.Remove(key)
	if !found {
		return zero, false, nil
	}
	n := ref.node
	if err := n.deleteByIdentity(any(ref.value)); err != nil {
		return zero, false, err
	}
	if n.parent != nil {
		t.removeEmptyAndMerge(n.parent)
	}
	// check if we can lower the level
	for t.root.count == 1 && t.height > 0 {
		t.root = t.root.child(0)
		t.root.parent = nil
		t.height--
	}
	return ref.value, true, nil
}

// RemoveByValue derives the value's primary key and removes it.
func (t *Rtree[TK, TV]) RemoveByValue(value TV) (TV, bool, error) {
	return t.Remove(t.toKey(value))
}

// Intersect emits every stored value whose box the query box contains or
// touches. The consumer is invoked once per matching value.
func (t *Rtree[TK, TV]) Intersect(box Box, consumer func(TV)) {
	t.search(t.root, t.height, box, consumer)
}

// GetAll emits every stored value.
func (t *Rtree[TK, TV]) GetAll(consumer func(TV)) {
	t.searchAll(t.root, t.height, consumer)
}

func (t *Rtree[TK, TV]) put(value TV) (TV, bool, error) {
	key := t.toKey(value)
	// remove if exists
	displaced, existed, err := t.Remove(key)
	if err != nil {
		return displaced, existed, err
	}
	ic := &rinsertContext[TK, TV]{
		key:   key,
		box:   t.toBox(value),
		value: value,
	}
	u := t.insert(t.root, t.height, ic)
	if u != nil {
		// need to split root
		newRoot := newRNode[TV](t.order, false)
		newRoot.append(t.root.unionBox(), t.root)
		newRoot.append(u.unionBox(), u)
		t.root.parent = newRoot
		u.parent = newRoot
		t.root = newRoot
		t.height++
	}
	return displaced, existed, nil
}

// insert returns the new sibling node when the descent split one off.
func (t *Rtree[TK, TV]) insert(n *rnode[TV], level int, ic *rinsertContext[TK, TV]) *rnode[TV] {
	if level == 0 {
		if n.count < t.order {
			n.append(ic.box, ic.value)
			t.updateIndex(ic.key, ic.value, n)
			if n.parent != nil {
				n.parent.updateUpward()
			}
			return nil
		}
		return t.splitAndAdd(n, ic, nil)
	}
	// pick the subtree: the first slot whose box contains the new box, else
	// the box-order insertion point clamped into the live range
	box := ic.box
	ix := -1
	for i := 0; i < n.count; i++ {
		if n.boxes[i].Intersect(box) == Contains {
			ix = i
			break
		}
	}
	if ix < 0 {
		ix = binarySearchBoxes(n.boxes[:n.count], box)
		if ix >= n.count {
			ix = n.count - 1
		}
		// The linear tree steps one slot left here when the slot orders after
		// the probe; the spatial tree does not apply that adjustment.
		// if ix > 0 && n.boxes[ix].Compare(box) > 0 {
		// 	ix--
		// }
	}
	u := t.insert(n.child(ix), level-1, ic)
	if u == nil {
		return nil
	}
	// insert the returned sibling into the current node
	if n.count < t.order {
		n.append(u.boxes[0], u)
		n.updateUpward()
		return nil
	}
	return t.splitAndAdd(n, ic, u)
}

func (t *Rtree[TK, TV]) updateIndex(key TK, value TV, n *rnode[TV]) {
	t.indexKey.Put(key, &indexRef[TV]{value: value, node: n})
}

// binarySearchBoxes returns the box-order insertion point of box within the
// live boxes.
func binarySearchBoxes(boxes []Box, box Box) int {
	return sort.Search(len(boxes), func(i int) bool {
		return boxes[i].Compare(box) >= 0
	})
}

// splitAndAdd splits the full node together with one incoming entry: the
// pending value for a leaf, appendNode for an internal node. All order+1
// entries are arranged in descending box order; the first (order+2)/2 stay in
// the left node and the rest move to the returned sibling. Relocated values
// get fresh index refs; relocated child nodes get reparented.
func (t *Rtree[TK, TV]) splitAndAdd(n *rnode[TV], ic *rinsertContext[TK, TV], appendNode *rnode[TV]) *rnode[TV] {
	order := t.order
	indexes := make([]int, order+1)
	boxes := make([]Box, order+1)
	children := make([]any, order+1)
	for i := 0; i < order; i++ {
		indexes[i] = i
		boxes[i] = n.boxes[i]
		children[i] = n.children[i]
	}
	indexes[order] = order
	if appendNode != nil {
		boxes[order] = appendNode.unionBox()
		children[order] = appendNode
	} else {
		boxes[order] = ic.box
		children[order] = ic.value
	}

	// arrange indexes by descending box order
	sort.Slice(indexes, func(a, b int) bool {
		return boxes[indexes[b]].Compare(boxes[indexes[a]]) < 0
	})

	pivot := (order + 2) >> 1
	second := newRNode[TV](order, n.leaf)
	for i := pivot; i < order; i++ {
		n.boxes[i] = nil
		n.children[i] = nil
	}
	n.count = pivot
	second.count = order + 1 - pivot
	second.parent = n.parent
	// order nodes
	newIndex := 0
	for i := 0; i <= order; i++ {
		ix := indexes[i]
		if ix == order {
			newIndex = i
		}
		if i < pivot {
			n.boxes[i] = boxes[ix]
			n.children[i] = children[ix]
		} else {
			second.boxes[i-pivot] = boxes[ix]
			second.children[i-pivot] = children[ix]
		}
	}
	if appendNode == nil {
		// refresh the index refs of every value that moved to the new leaf
		for i := 0; i < second.count; i++ {
			v := second.value(i)
			t.updateIndex(t.toKey(v), v, second)
		}
		if newIndex < pivot {
			// the incoming value stayed in the left leaf
			v := n.value(newIndex)
			t.updateIndex(t.toKey(v), v, n)
		}
	} else {
		// update parents
		for i := 0; i < second.count; i++ {
			second.child(i).parent = second
		}
	}
	return second
}

// removeEmptyAndMerge compacts the children of n after a removal underneath
// it: adjacent pairs are merged when they jointly fit one node, or
// redistributed when the left child drops below half capacity. Level-0 moves
// refresh the affected index refs; moved child nodes are reparented. The walk
// recurses to the root through the parent links, refreshing slot boxes at
// every level that holds more than one child.
func (t *Rtree[TK, TV]) removeEmptyAndMerge(n *rnode[TV]) {
	if n.count > 1 {
		for i := n.count - 2; i >= 0; i-- {
			child := n.child(i)
			child2 := n.child(i + 1)
			count := child.count
			if count+child2.count <= t.order {
				child.merge(child2)
				n.deleteAt(i + 1)
				for l := child.count - 1; l >= count; l-- {
					if child.leaf {
						v := child.value(l)
						t.updateIndex(t.toKey(v), v, child)
					} else {
						child.child(l).parent = child
					}
				}
			} else if count < t.order>>1 {
				// move entries over to redistribute
				pivot := t.order >> 1
				for child.count < pivot {
					b := child2.boxes[0]
					v := child2.children[0]
					child.append(b, v)
					child2.deleteAt(0)
					if child.leaf {
						t.updateIndex(t.toKey(v.(TV)), v.(TV), child)
					} else {
						v.(*rnode[TV]).parent = child
					}
				}
			}
		}
		n.updateBoxes()
	}
	if n.parent != nil {
		t.removeEmptyAndMerge(n.parent)
	}
}

func (t *Rtree[TK, TV]) search(n *rnode[TV], level int, box Box, consumer func(TV)) {
	if level == 0 {
		t.searchLeaf(n, box, consumer)
		return
	}
	for i := 0; i < n.count; i++ {
		switch box.Intersect(n.boxes[i]) {
		case Contains:
			// the query covers the whole subtree; emit everything underneath
			t.searchAll(n.child(i), level-1, consumer)
		case Intersects:
			t.search(n.child(i), level-1, box, consumer)
		}
	}
}

func (t *Rtree[TK, TV]) searchLeaf(n *rnode[TV], box Box, consumer func(TV)) {
	for i := 0; i < n.count; i++ {
		switch box.Intersect(n.boxes[i]) {
		case Contains, Intersects:
			consumer(n.value(i))
		}
	}
}

func (t *Rtree[TK, TV]) searchAll(n *rnode[TV], level int, consumer func(TV)) {
	if level == 0 {
		for i := 0; i < n.count; i++ {
			consumer(n.value(i))
		}
		return
	}
	for i := 0; i < n.count; i++ {
		t.searchAll(n.child(i), level-1, consumer)
	}
}

// validateIndex asserts that every index entry points at the leaf currently
// holding its value. A violation is an engine fault.
func (t *Rtree[TK, TV]) validateIndex() error {
	it, err := t.indexKey.Range(nil, nil)
	if err != nil {
		return err
	}
next:
	for {
		ref, ok := it.Next()
		if !ok {
			return nil
		}
		for i := 0; i < ref.node.count; i++ {
			if ref.node.children[i] == any(ref.value) {
				continue next
			}
		}
		return trix.NewInternalConsistency(
			fmt.Sprintf("index entry for node %v points at a value the node does not hold", ref.node.id),
			ref.node.id)
	}
}

// String returns a string representation of this R-tree (for debugging).
func (t *Rtree[TK, TV]) String() string {
	var s strings.Builder
	t.dump(&s, t.root, t.height, "")
	s.WriteString("\n")
	return s.String()
}

func (t *Rtree[TK, TV]) dump(s *strings.Builder, n *rnode[TV], level int, indent string) {
	if level == 0 {
		for i := 0; i < n.count; i++ {
			fmt.Fprintf(s, "%s%v:%v\n", indent, n.boxes[i], n.value(i))
		}
		return
	}
	for i := 0; i < n.count; i++ {
		fmt.Fprintf(s, "%s%v (%v)\n", indent, n.boxes[i], n.child(i).id)
		t.dump(s, n.child(i), level-1, indent+"     ")
	}
}
