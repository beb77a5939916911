package rtree

import (
	"fmt"

	"github.com/sharedcode/trix"
)

// rnode is a fixed-capacity R-tree node holding parallel box/child arrays.
// children holds stored values on leaf nodes and child node pointers on
// internal nodes. Internal nodes are reached bottom-up through parent when
// refreshing ancestor boxes after a point update; the back-reference is a pure
// lookup, never ownership.
type rnode[TV any] struct {
	id       trix.UUID
	count    int
	leaf     bool
	parent   *rnode[TV]
	boxes    []Box
	children []any
}

func newRNode[TV any](order int, leaf bool) *rnode[TV] {
	return &rnode[TV]{
		id:       trix.NewUUID(),
		leaf:     leaf,
		boxes:    make([]Box, order),
		children: make([]any, order),
	}
}

func (n *rnode[TV]) value(ix int) TV {
	return n.children[ix].(TV)
}

func (n *rnode[TV]) child(ix int) *rnode[TV] {
	return n.children[ix].(*rnode[TV])
}

// unionBox returns a fresh clone covering every live slot box. The node must
// hold at least one slot.
func (n *rnode[TV]) unionBox() Box {
	box := n.boxes[0].Clone()
	for i := 1; i < n.count; i++ {
		n.boxes[i].Union(box)
	}
	return box
}

func (n *rnode[TV]) append(box Box, child any) {
	n.boxes[n.count] = box
	n.children[n.count] = child
	n.count++
}

func (n *rnode[TV]) deleteAt(ix int) {
	if n.count > 1 && ix+1 < n.count {
		copy(n.boxes[ix:], n.boxes[ix+1:n.count])
		copy(n.children[ix:], n.children[ix+1:n.count])
	}
	n.count--
	n.boxes[n.count] = nil
	n.children[n.count] = nil
}

// deleteByIdentity removes the slot whose child is the given handle. A miss
// means the key index and the node disagree, which is an engine fault.
func (n *rnode[TV]) deleteByIdentity(child any) error {
	for ix := 0; ix < n.count; ix++ {
		if n.children[ix] == child {
			n.deleteAt(ix)
			return nil
		}
	}
	return trix.NewInternalConsistency(
		fmt.Sprintf("node %v does not hold the value its index entry points at", n.id), n.id)
}

// updateBoxes rewrites each slot's box from the matching child's union.
// Internal nodes only.
func (n *rnode[TV]) updateBoxes() {
	for i := 0; i < n.count; i++ {
		n.boxes[i] = n.child(i).unionBox()
	}
}

// updateUpward recomputes boxes from this node up to the root.
func (n *rnode[TV]) updateUpward() {
	n.updateBoxes()
	if n.parent != nil {
		n.parent.updateUpward()
	}
}

// merge appends all of other's live slots to n and clears other. The caller
// guarantees the joint count fits the capacity.
func (n *rnode[TV]) merge(other *rnode[TV]) {
	copy(n.boxes[n.count:], other.boxes[:other.count])
	copy(n.children[n.count:], other.children[:other.count])
	n.count += other.count
	for i := 0; i < other.count; i++ {
		other.boxes[i] = nil
		other.children[i] = nil
	}
	other.count = 0
}
