// Package sched implements the stride scheduling policy: a run queue keyed
// on ascending process stride, picked so that a process's share of the CPU
// is proportional to its priority. It knows nothing about process lifecycle
// beyond the fields kernel/proc.Proc exposes for scheduling bookkeeping
// (RunLink, RunPool, InRunQ, TimeSlice, Stride, Priority); Init registers
// Schedule/WakeupProc back into kernel/proc the same way kernel/swap
// registers into kernel/mm, so kernel/proc never imports this package.
package sched

import (
	"github.com/HachikoT/myos/kernel/kfmt"
	"github.com/HachikoT/myos/kernel/proc"
	"github.com/HachikoT/myos/kernel/sync"
)

// Init wires this package's Schedule/WakeupProc into kernel/proc, the Go
// equivalent of sched_init (minus the pluggable sched_class table: this
// module only ever ships the stride policy, so there is nothing to
// dispatch through).
func Init() {
	rq = runQueue{}
	proc.SetSchedule(Schedule)
	proc.SetWakeupProc(WakeupProc)
	kfmt.Printf("sched class: stride_scheduler\n")
}

// WakeupProc transitions p to Runnable and enqueues it if it is not already
// running, the Go equivalent of wakeup_proc.
func WakeupProc(p *proc.Proc) {
	var m sync.IRQMutex
	m.Lock()
	if p.State != proc.StateRunnable {
		p.State = proc.StateRunnable
		p.WaitState = 0
		if p != proc.Current() {
			classEnqueue(p)
		}
	}
	m.Unlock()
}

// Schedule picks the next process to run and switches to it, the Go
// equivalent of schedule(): re-enqueue the current process if it is still
// runnable, pick the least-stride runnable process (idle if none), then
// hand off via proc.Run.
func Schedule() {
	var m sync.IRQMutex
	m.Lock()

	current := proc.Current()
	current.NeedResched = false
	if current.State == proc.StateRunnable {
		classEnqueue(current)
	}

	next := pickNext()
	if next != nil {
		classDequeue(next)
	}
	if next == nil {
		next = proc.Idle()
	}
	next.Runs++

	m.Unlock()

	if next != current {
		proc.Run(next)
	}
}

// Tick accounts one timer tick against the currently running process, the
// Go equivalent of sched_class_proc_tick: idle always asks for a
// reschedule so the CPU never spins in cpu_idle longer than one tick once
// anything else becomes runnable; anything else exhausts its time slice
// before need_resched is set.
func Tick(p *proc.Proc) {
	if p == proc.Idle() {
		p.NeedResched = true
		return
	}
	if p.TimeSlice > 0 {
		p.TimeSlice--
	}
	if p.TimeSlice == 0 {
		p.NeedResched = true
	}
}
