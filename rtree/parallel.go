package rtree

import (
	"context"

	"github.com/sharedcode/trix"
)

// IntersectParallel is Intersect with the per-subtree recursions fanned out to
// a bounded task runner. maxParallel caps the concurrent subtree tasks; a
// value <= 0 selects the number of CPUs. The consumer runs on the runner's
// goroutines and must be safe for concurrent invocation. Matches are the same
// set the serial Intersect emits, in no particular order.
func (t *Rtree[TK, TV]) IntersectParallel(ctx context.Context, box Box, consumer func(TV), maxParallel int) error {
	tr := trix.NewTaskRunner(ctx, maxParallel)
	if err := t.searchParallel(tr, t.root, t.height, box, consumer); err != nil {
		return err
	}
	return tr.Wait()
}

// GetAllParallel is GetAll with the per-subtree recursions fanned out to a
// bounded task runner; see IntersectParallel for the consumer contract.
func (t *Rtree[TK, TV]) GetAllParallel(ctx context.Context, consumer func(TV), maxParallel int) error {
	tr := trix.NewTaskRunner(ctx, maxParallel)
	if err := t.searchAllParallel(tr, t.root, t.height, consumer); err != nil {
		return err
	}
	return tr.Wait()
}

func (t *Rtree[TK, TV]) searchParallel(tr *trix.TaskRunner, n *rnode[TV], level int, box Box, consumer func(TV)) error {
	if level == 0 {
		t.searchLeaf(n, box, consumer)
		return nil
	}
	for i := 0; i < n.count; i++ {
		child := n.child(i)
		switch box.Intersect(n.boxes[i]) {
		case Contains:
			if err := tr.Go(func() error {
				return t.searchAllParallel(tr, child, level-1, consumer)
			}); err != nil {
				return err
			}
		case Intersects:
			if err := tr.Go(func() error {
				return t.searchParallel(tr, child, level-1, box, consumer)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Rtree[TK, TV]) searchAllParallel(tr *trix.TaskRunner, n *rnode[TV], level int, consumer func(TV)) error {
	if level == 0 {
		for i := 0; i < n.count; i++ {
			consumer(n.value(i))
		}
		return nil
	}
	for i := 0; i < n.count; i++ {
		child := n.child(i)
		if err := tr.Go(func() error {
			return t.searchAllParallel(tr, child, level-1, consumer)
		}); err != nil {
			return err
		}
	}
	return nil
}
