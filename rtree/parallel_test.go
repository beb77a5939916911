package rtree

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
)

func Test_ParallelMatchesSerial(t *testing.T) {
	rnd := rand.New(rand.NewSource(21))
	tr := newSpanTree(t, 4)
	values := makeSpans(rnd, 500)
	for _, v := range values {
		if _, _, err := tr.Add(v); err != nil {
			t.Fatalf("Add(%v) failed, got error = %v, want nil.", v, err)
		}
	}

	box := &spanBox{s: 1200, e: 3600}
	serial := map[string]bool{}
	tr.Intersect(box, func(v *span) { serial[v.id] = true })

	ctx := context.Background()
	for _, maxParallel := range []int{0, 1, 8} {
		var mu sync.Mutex
		parallel := map[string]bool{}
		err := tr.IntersectParallel(ctx, box, func(v *span) {
			mu.Lock()
			parallel[v.id] = true
			mu.Unlock()
		}, maxParallel)
		if err != nil {
			t.Fatalf("IntersectParallel(maxParallel=%d) failed, got error = %v, want nil.", maxParallel, err)
		}
		if len(parallel) != len(serial) {
			t.Errorf("IntersectParallel(maxParallel=%d) count failed, got = %d, want = %d.", maxParallel, len(parallel), len(serial))
		}
		for id := range serial {
			if !parallel[id] {
				t.Errorf("IntersectParallel(maxParallel=%d) failed, missing value %s.", maxParallel, id)
			}
		}
	}
}

func Test_GetAllParallel(t *testing.T) {
	rnd := rand.New(rand.NewSource(22))
	tr := newSpanTree(t, 4)
	const count = 1000
	values := makeSpans(rnd, count)
	for _, v := range values {
		tr.Add(v)
	}

	var counter int32
	err := tr.GetAllParallel(context.Background(), func(v *span) {
		atomic.AddInt32(&counter, 1)
	}, 8)
	if err != nil {
		t.Fatalf("GetAllParallel() failed, got error = %v, want nil.", err)
	}
	if got := atomic.LoadInt32(&counter); got != count {
		t.Errorf("GetAllParallel() count failed, got = %d, want = %d.", got, count)
	}
}

func Test_ParallelOnSmallTree(t *testing.T) {
	tr := newSpanTree(t, 3)
	tr.Add(&span{id: "only", s: 0, e: 5})

	var counter int32
	err := tr.GetAllParallel(context.Background(), func(v *span) {
		atomic.AddInt32(&counter, 1)
	}, 4)
	if err != nil {
		t.Fatalf("GetAllParallel() failed, got error = %v, want nil.", err)
	}
	if counter != 1 {
		t.Errorf("GetAllParallel() count failed, got = %d, want = 1.", counter)
	}

	var hits int32
	err = tr.IntersectParallel(context.Background(), &spanBox{s: 0, e: 10}, func(v *span) {
		atomic.AddInt32(&hits, 1)
	}, 4)
	if err != nil {
		t.Fatalf("IntersectParallel() failed, got error = %v, want nil.", err)
	}
	if hits != 1 {
		t.Errorf("IntersectParallel() count failed, got = %d, want = 1.", hits)
	}
}
