package duthread

import (
	"testing"

	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/value"
)

func newTestHeap(t *testing.T) *heap.Heap {
	t.Helper()
	return heap.New(nil, nil, heap.DefaultConfig())
}

func TestThread_PushPop(t *testing.T) {
	h := newTestHeap(t)
	th := New(h)

	th.Push(value.Number(1))
	th.Push(value.Number(2))
	th.Push(value.Number(3))

	if th.Top() != 3 {
		t.Fatalf("expected top 3, got %d", th.Top())
	}
	if v := th.Pop(); v.Float() != 3 {
		t.Fatalf("expected pop 3, got %v", v)
	}
	if th.Top() != 2 {
		t.Fatalf("expected top 2, got %d", th.Top())
	}
}

func TestThread_GrowsBeyondReserve(t *testing.T) {
	h := newTestHeap(t)
	th := New(h)

	for i := 0; i < 1000; i++ {
		th.Push(value.Int(i))
	}
	if th.Top() != 1000 {
		t.Fatalf("expected top 1000, got %d", th.Top())
	}
	for i := 999; i >= 0; i-- {
		v := th.Pop()
		if int(v.Float()) != i {
			t.Fatalf("pop order mismatch at %d: got %v", i, v)
		}
	}
}

func TestThread_SetTopRefcounts(t *testing.T) {
	h := newTestHeap(t)
	th := New(h)

	s := h.StringTable().Intern([]byte("hi"))
	th.Push(value.Ref(s))
	h.DecRef(s) // drop our local hold; the stack slot's IncRef keeps it alive

	if s.Refcount != 1 {
		t.Fatalf("expected refcount 1 while on stack, got %d", s.Refcount)
	}

	th.SetTop(0)

	if s.Refcount != 0 {
		t.Fatalf("expected refcount 0 after SetTop popped the slot, got %d", s.Refcount)
	}
}

func TestThread_Unwind(t *testing.T) {
	h := newTestHeap(t)
	th := New(h)

	th.Push(value.Number(1))
	mark := th.Mark()

	th.Push(value.Number(2))
	th.PushActivation(Activation{Base: 1})
	th.PushCatch(CatchEntry{CallDepth: 1, ValueDepth: 2, Target: 10})

	th.Unwind(mark)

	if th.Top() != 1 {
		t.Fatalf("expected top restored to 1, got %d", th.Top())
	}
	if th.CallDepth() != 0 {
		t.Fatalf("expected call depth restored to 0, got %d", th.CallDepth())
	}
	if th.CatchDepth() != 0 {
		t.Fatalf("expected catch depth restored to 0, got %d", th.CatchDepth())
	}
}

func TestThread_RootsReportsLiveValueStackSlots(t *testing.T) {
	h := newTestHeap(t)
	th := New(h)
	h.AddRoot(th)

	str := h.StringTable().Intern([]byte("hello"))
	th.Push(value.Ref(str))
	th.Push(value.Number(1)) // not a heap reference, shouldn't appear

	roots := th.Roots()
	found := false
	for _, r := range roots {
		if r == heap.Traceable(str) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the interned string to be reported as a root")
	}
	if len(roots) != 1 {
		t.Fatalf("expected exactly 1 root, got %d", len(roots))
	}
}

func TestThread_CheckInterrupt(t *testing.T) {
	h := newTestHeap(t)
	th := New(h)
	th.InterruptAt = 3
	th.CancelReason = errTestInterrupt

	if err := th.CheckInterrupt(); err != nil {
		t.Fatalf("expected no interrupt yet, got %v", err)
	}
	if err := th.CheckInterrupt(); err != nil {
		t.Fatalf("expected no interrupt yet, got %v", err)
	}
	if err := th.CheckInterrupt(); err != errTestInterrupt {
		t.Fatalf("expected interrupt to fire on the 3rd check, got %v", err)
	}
}

type testInterruptError struct{}

func (testInterruptError) Error() string { return "interrupted" }

var errTestInterrupt error = testInterruptError{}
