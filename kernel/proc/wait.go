package proc

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/sync"
)

// DoWait waits for pid (or, if pid is 0, any child) to become a zombie,
// stores its exit code through codeStore if non-nil, then frees its kernel
// stack and Proc. The Go equivalent of do_wait: it sleeps and reschedules
// in a loop rather than blocking the call directly, since this package
// never owns the scheduler itself.
func DoWait(pid int, codeStore *int) *kernel.Error {
	for {
		var target *Proc
		hasKid := false

		if pid != 0 {
			target = Find(pid)
			if target != nil && target.ParentPid == current.Pid {
				hasKid = true
				if target.State == StateZombie {
					return reapChild(target, codeStore)
				}
			}
		} else {
			for cp := current.childPid; cp != noPid; {
				child := lookupProc(cp)
				if child == nil {
					break
				}
				hasKid = true
				if child.State == StateZombie {
					target = child
					break
				}
				cp = child.olderPid
			}
			if target != nil {
				return reapChild(target, codeStore)
			}
		}

		if !hasKid {
			return kernel.NewError(errModule, kernel.KindBadProc, "no such child")
		}

		current.State = StateSleeping
		current.WaitState = WaitChild
		schedule()
		if current.Flags&FlagExiting != 0 {
			DoExit(killedExitCode)
		}
	}
}

// killedExitCode is the exit code DoWait passes to DoExit when woken by a
// kill while still waiting, the Go equivalent of -E_KILLED.
const killedExitCode = -1

// reapChild finishes collecting proc: records its exit code, unlinks it
// from the pid table and process tree, and frees its kernel stack and
// record. The Go equivalent of do_wait's found: label.
func reapChild(proc *Proc, codeStore *int) *kernel.Error {
	if proc == idleProc || proc == initProc {
		panic("wait idle or init process")
	}
	if codeStore != nil {
		*codeStore = proc.ExitCode
	}

	var m sync.IRQMutex
	m.Lock()
	unhashProc(proc)
	removeLinks(proc)
	m.Unlock()

	putKstack(proc)
	return nil
}
