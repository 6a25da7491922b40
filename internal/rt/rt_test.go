package rt

import (
	"sync"
	"testing"
)

func TestTripleBufferLatestWins(t *testing.T) {
	tb := NewTripleBuffer(0)

	if v, fresh := tb.Latest(); fresh || v != 0 {
		t.Fatalf("initial Latest = (%d, %v), want (0, false)", v, fresh)
	}

	tb.Publish(1)
	tb.Publish(2)
	tb.Publish(3)

	v, fresh := tb.Latest()
	if !fresh || v != 3 {
		t.Fatalf("Latest = (%d, %v), want (3, true): intermediates may skip", v, fresh)
	}

	// No republish: the same value reads back stale.
	v, fresh = tb.Latest()
	if fresh || v != 3 {
		t.Fatalf("second Latest = (%d, %v), want (3, false)", v, fresh)
	}
}

func TestTripleBufferConcurrent(t *testing.T) {
	tb := NewTripleBuffer(0)
	const n = 100000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= n; i++ {
			tb.Publish(i)
		}
	}()

	// Values observed by the consumer must be monotonic by publication.
	last := 0
	for last < n {
		v, _ := tb.Latest()
		if v < last {
			t.Fatalf("observed %d after %d: stale value surfaced", v, last)
		}
		last = v
	}
	wg.Wait()
}

func TestRingPushPop(t *testing.T) {
	r := NewRing(4)
	if r.Cap() != 4 {
		t.Fatalf("Cap = %d, want 4", r.Cap())
	}

	for i := 0; i < 4; i++ {
		if !r.Push(float64(i)) {
			t.Fatalf("push %d failed on non-full ring", i)
		}
	}
	if r.Push(99) {
		t.Fatal("push succeeded on full ring")
	}

	for i := 0; i < 4; i++ {
		v, ok := r.Pop()
		if !ok || v != float64(i) {
			t.Fatalf("pop %d = (%v, %v), want (%d, true)", i, v, ok, i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("pop succeeded on empty ring")
	}
}

func TestRingConcurrentTransfers(t *testing.T) {
	r := NewRing(64)
	const n = 50000

	go func() {
		for i := 0; i < n; {
			if r.Push(float64(i)) {
				i++
			}
		}
	}()

	// The consumer must see every sample exactly once, in order.
	next := 0.0
	for next < n {
		if v, ok := r.Pop(); ok {
			if v != next {
				t.Fatalf("got %v, want %v", v, next)
			}
			next++
		}
	}
}

func TestRingDrain(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 5; i++ {
		r.Push(float64(i))
	}
	dst := make([]float64, 3)
	if n := r.Drain(dst); n != 3 {
		t.Fatalf("Drain = %d, want 3", n)
	}
	if dst[0] != 0 || dst[2] != 2 {
		t.Errorf("drained %v, want oldest first", dst)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2 remaining", r.Len())
	}
}

func TestFrameQueueDropOldest(t *testing.T) {
	q := NewFrameQueue[int](2)
	q.Push(1)
	q.Push(2)
	q.Push(3) // drops 1

	v, ok := q.Pop()
	if !ok || v != 2 {
		t.Fatalf("Pop = (%d, %v), want (2, true) after oldest dropped", v, ok)
	}
	v, ok = q.Pop()
	if !ok || v != 3 {
		t.Fatalf("Pop = (%d, %v), want (3, true)", v, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop on empty queue must report not-ok")
	}
	if q.Dropped() != 1 {
		t.Errorf("Dropped = %d, want 1", q.Dropped())
	}
}

func TestFrameQueueNonBlockingEmpty(t *testing.T) {
	q := NewFrameQueue[string](3)
	if _, ok := q.Pop(); ok {
		t.Fatal("empty queue must not block or return a value")
	}
	q.Push("frame")
	if v, ok := q.Pop(); !ok || v != "frame" {
		t.Fatalf("Pop = (%q, %v)", v, ok)
	}
}
