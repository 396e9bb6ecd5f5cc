package proc

import "github.com/HachikoT/myos/kernel"

// DoKill marks pid for termination by setting FlagExiting, waking it if it
// was sleeping interruptibly so it notices on its next scheduling point.
// The Go equivalent of do_kill.
func DoKill(pid int) *kernel.Error {
	proc := Find(pid)
	if proc == nil {
		return kernel.NewError(errModule, kernel.KindInvalidArg, "no such process")
	}
	if proc.Flags&FlagExiting != 0 {
		return kernel.NewError(errModule, kernel.KindKilled, "already exiting")
	}
	proc.Flags |= FlagExiting
	if proc.WaitState&WaitInterrupted != 0 {
		wakeupProc(proc)
	}
	return nil
}
