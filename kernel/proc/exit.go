package proc

import (
	"github.com/HachikoT/myos/kernel/sync"
)

// DoExit tears down current's address space, marks it a zombie carrying
// errorCode, reparents its children onto init and wakes whichever of
// current's parent or init needs to reap them, then yields the CPU for the
// last time. The Go equivalent of do_exit: like the original, it never
// returns to its caller — the process that calls it never runs again until
// DoWait frees its Proc.
func DoExit(errorCode int) {
	if current == idleProc {
		panic("idle process exit")
	}
	if current == initProc {
		panic("init process exit")
	}

	if current.Mm != nil {
		writeCR3Fn(bootCR3Fn())
		current.Mm.RefCount--
		if current.Mm.RefCount == 0 {
			exitMmapFn(current.Mm)
			freePgdirFn(current.Mm.Pdt)
		}
		current.Mm = nil
	}
	current.State = StateZombie
	current.ExitCode = errorCode

	var m sync.IRQMutex
	m.Lock()
	parent := lookupProc(current.ParentPid)
	if parent != nil && parent.WaitState == WaitChild {
		wakeupProc(parent)
	}
	for current.childPid != noPid {
		child := lookupProc(current.childPid)
		if child == nil {
			break
		}
		current.childPid = child.olderPid

		child.youngerPid = noPid
		child.olderPid = initProc.childPid
		if child.olderPid != noPid {
			if older := lookupProc(child.olderPid); older != nil {
				older.youngerPid = child.Pid
			}
		}
		child.ParentPid = initProc.Pid
		initProc.childPid = child.Pid

		if child.State == StateZombie && initProc.WaitState == WaitChild {
			wakeupProc(initProc)
		}
	}
	m.Unlock()

	schedule()
	panic("do_exit returned")
}
