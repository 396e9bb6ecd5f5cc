package sched

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel/proc"
	"github.com/HachikoT/myos/kernel/skewheap"
)

// BigStride is the stride scheduler's step divisor, the Go equivalent of
// BIG_STRIDE: every time a process is picked, its stride advances by
// BigStride/priority, so a higher priority advances more slowly and is
// picked more often.
const BigStride uint32 = 0x7FFFFFFF

// MaxTimeSlice bounds how many ticks a process runs before proc_tick forces
// a reschedule, the Go equivalent of MAX_TIME_SLICE.
const MaxTimeSlice = 5

// runQueue is the stride scheduler's run pool: a skew heap of runnable
// processes ordered by ascending stride, the Go equivalent of struct
// run_queue.
type runQueue struct {
	pool    *skewheap.Node
	procNum int
}

var rq runQueue

// procOfRunPool recovers the owning Proc from a *skewheap.Node taken from
// rq.pool, the le2proc(le, run_pool) macro translated into the same
// unsafe.Offsetof trick kernel/proc's own registry.go uses for its list
// links.
func procOfRunPool(n *skewheap.Node) *proc.Proc {
	return (*proc.Proc)(unsafe.Pointer(uintptr(unsafe.Pointer(n)) - unsafe.Offsetof(proc.Proc{}.RunPool)))
}

// strideLess orders two run-pool nodes by ascending stride, the Go
// equivalent of proc_stride_comp_f. The subtraction (rather than a plain
// uint32 comparison) matters: stride wraps around uint32 arithmetic exactly
// as the original's int32_t difference does, so a process whose stride has
// wrapped past the others still compares correctly.
func strideLess(a, b *skewheap.Node) bool {
	pa, pb := procOfRunPool(a), procOfRunPool(b)
	return int32(pa.Stride-pb.Stride) < 0
}

// enqueue inserts p into the run pool, the Go equivalent of stride_enqueue.
func enqueue(p *proc.Proc) {
	rq.pool = skewheap.Insert(rq.pool, &p.RunPool, strideLess)
	if p.TimeSlice == 0 || p.TimeSlice > MaxTimeSlice {
		p.TimeSlice = MaxTimeSlice
	}
	p.InRunQ = true
	rq.procNum++
}

// dequeue removes p from the run pool, the Go equivalent of stride_dequeue.
func dequeue(p *proc.Proc) {
	rq.pool = skewheap.Remove(rq.pool, &p.RunPool, strideLess)
	p.InRunQ = false
	rq.procNum--
}

// pickNext returns the runnable process with the least stride, advancing
// its stride for the next round, the Go equivalent of stride_pick_next.
// Returns nil if the run pool is empty.
func pickNext() *proc.Proc {
	min := skewheap.Min(rq.pool)
	if min == nil {
		return nil
	}
	p := procOfRunPool(min)
	if p.Priority == 0 {
		p.Stride += BigStride
	} else {
		p.Stride += BigStride / p.Priority
	}
	return p
}

// classEnqueue and classDequeue wrap enqueue/dequeue with the idle-process
// exclusion every call site needs, the Go equivalent of
// sched_class_enqueue/sched_class_dequeue: idle is never run-pool
// addressed, it is only ever reached as schedule's fallback.
func classEnqueue(p *proc.Proc) {
	if p != proc.Idle() {
		enqueue(p)
	}
}

func classDequeue(p *proc.Proc) {
	dequeue(p)
}
