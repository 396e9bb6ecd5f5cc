package sched

import (
	"testing"

	"github.com/HachikoT/myos/kernel/proc"
)

func resetRunQueue() func() {
	rq = runQueue{}
	return func() { rq = runQueue{} }
}

func newProc(pid int, priority uint32) *proc.Proc {
	p := &proc.Proc{Pid: pid, Priority: priority, State: proc.StateRunnable}
	return p
}

func TestEnqueueDequeueTrackProcNum(t *testing.T) {
	defer resetRunQueue()()

	a := newProc(1, 1)
	b := newProc(2, 1)

	enqueue(a)
	enqueue(b)
	if rq.procNum != 2 {
		t.Fatalf("procNum = %d, want 2", rq.procNum)
	}
	if !a.InRunQ || !b.InRunQ {
		t.Fatalf("InRunQ not set by enqueue")
	}

	dequeue(a)
	if rq.procNum != 1 {
		t.Fatalf("procNum = %d, want 1", rq.procNum)
	}
	if a.InRunQ {
		t.Fatalf("InRunQ still set after dequeue")
	}
}

func TestEnqueueClampsTimeSlice(t *testing.T) {
	defer resetRunQueue()()

	p := newProc(1, 1)
	p.TimeSlice = 0
	enqueue(p)
	if p.TimeSlice != MaxTimeSlice {
		t.Fatalf("TimeSlice = %d, want %d (zero clamps to max)", p.TimeSlice, MaxTimeSlice)
	}

	q := newProc(2, 1)
	q.TimeSlice = MaxTimeSlice + 10
	enqueue(q)
	if q.TimeSlice != MaxTimeSlice {
		t.Fatalf("TimeSlice = %d, want %d (over-budget clamps to max)", q.TimeSlice, MaxTimeSlice)
	}
}

func TestPickNextReturnsLeastStrideAndAdvancesIt(t *testing.T) {
	defer resetRunQueue()()

	low := newProc(1, 1)
	low.Stride = 10
	high := newProc(2, 1)
	high.Stride = 100

	enqueue(high)
	enqueue(low)

	next := pickNext()
	if next != low {
		t.Fatalf("pickNext returned pid %d, want the lower-stride proc (pid %d)", next.Pid, low.Pid)
	}
	if low.Stride != 10+BigStride {
		t.Fatalf("stride after pick = %d, want %d", low.Stride, 10+BigStride)
	}
}

func TestPickNextZeroPriorityAdvancesByFullBigStride(t *testing.T) {
	defer resetRunQueue()()

	p := newProc(1, 0)
	enqueue(p)

	pickNext()
	if p.Stride != BigStride {
		t.Fatalf("stride = %d, want %d (priority 0 advances by the full BigStride)", p.Stride, BigStride)
	}
}

func TestPickNextOnEmptyPoolReturnsNil(t *testing.T) {
	defer resetRunQueue()()

	if pickNext() != nil {
		t.Fatalf("pickNext on an empty pool should return nil")
	}
}

func TestClassEnqueueSkipsIdle(t *testing.T) {
	defer resetRunQueue()()

	idle := &proc.Proc{Pid: 0}
	classEnqueue(idle)
	if rq.procNum != 0 {
		t.Fatalf("procNum = %d, want 0 (idle never enters the run pool)", rq.procNum)
	}
}

func TestTickExhaustsTimeSliceThenRequestsReschedule(t *testing.T) {
	p := newProc(1, 1)
	p.TimeSlice = 2

	Tick(p)
	if p.NeedResched {
		t.Fatalf("NeedResched set too early, TimeSlice = %d", p.TimeSlice)
	}
	Tick(p)
	if !p.NeedResched {
		t.Fatalf("NeedResched should be set once TimeSlice reaches 0")
	}
}

func TestWakeupProcEnqueuesSleepingProcess(t *testing.T) {
	defer resetRunQueue()()

	p := &proc.Proc{Pid: 5, State: proc.StateSleeping, WaitState: proc.WaitChild}
	WakeupProc(p)

	if p.State != proc.StateRunnable {
		t.Fatalf("State = %v, want StateRunnable", p.State)
	}
	if p.WaitState != 0 {
		t.Fatalf("WaitState = %#x, want 0", p.WaitState)
	}
	if rq.procNum != 1 {
		t.Fatalf("procNum = %d, want 1 (woken proc should be enqueued)", rq.procNum)
	}
}
