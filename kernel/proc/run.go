package proc

import (
	"github.com/HachikoT/myos/kernel/gdt"
	"github.com/HachikoT/myos/kernel/irq"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mm"
	"github.com/HachikoT/myos/kernel/sync"
)

var (
	idleProc *Proc
	initProc *Proc
	current  *Proc
)

// Current returns the process currently executing on the CPU.
func Current() *Proc { return current }

// Idle returns the kernel's idle process (pid 0).
func Idle() *Proc { return idleProc }

// InitProc returns the init kernel thread (the reaper of last resort for
// reparented orphans).
func InitProc() *Proc { return initProc }

// scheduleFn and wakeupProcFn are registered by kernel/sched, the same
// registration-hook pattern kernel/swap uses against kernel/mm: this
// package never imports the scheduling policy, only calls back into
// whatever policy installed itself.
var (
	scheduleFn   func()
	wakeupProcFn func(p *Proc)
)

// SetSchedule registers the scheduler's entry point, called whenever this
// package needs to give up the CPU (do_wait, do_exit).
func SetSchedule(fn func()) { scheduleFn = fn }

// SetWakeupProc registers the scheduler's wakeup_proc: transition a
// sleeping/uninitialized process to Runnable and enqueue it.
func SetWakeupProc(fn func(p *Proc)) { wakeupProcFn = fn }

func schedule() {
	if scheduleFn != nil {
		scheduleFn()
	}
}

func wakeupProc(p *Proc) {
	if wakeupProcFn != nil {
		wakeupProcFn(p)
	}
}

// Run switches execution to proc if it is not already current, the Go
// equivalent of proc_run: install its kernel stack top and CR3, then swap
// the callee-saved register context. Called by the scheduler once it has
// picked a victim.
func Run(p *Proc) {
	if p == current {
		return
	}
	var m sync.IRQMutex
	m.Lock()
	prev := current
	current = p
	gdt.SetKernelStack(p.Kstack + uintptr(mem.KstackSize))
	writeCR3Fn(p.CR3)
	switchTo(&prev.Context, &p.Context)
	m.Unlock()
}

// wireMm installs this package's Current() into kernel/mm's page-fault
// dispatch, the Go equivalent of trap_dispatch reaching do_pgfault through
// the running process's mm. Called once from Init.
func wireMm() {
	mm.CurrentMm = func() *mm.Mm {
		if current == nil {
			return nil
		}
		return current.Mm
	}
}

// wireTrap installs trapEpilogue into kernel/irq. Called once from Init.
func wireTrap() {
	irq.SetTrapHook(trapEpilogue)
}

// trapEpilogue is the Go equivalent of trap(): chain-save and restore
// current's trap frame around run() (trap_dispatch), then — only for a
// trap taken in user mode — act on an exit request or a pending
// reschedule exactly as trap()'s caller does. Kept separate from wireTrap
// so it can be exercised directly without going through kernel/irq.
func trapEpilogue(f *irq.Frame, run func()) {
	p := current
	if p == nil {
		run()
		return
	}

	otf := p.Tf
	p.Tf = f
	inKernel := f.InKernelMode()

	run()

	p.Tf = otf
	if inKernel {
		return
	}
	if p.Flags&FlagExiting != 0 {
		DoExit(killedExitCode)
	}
	if p.NeedResched {
		schedule()
	}
}
