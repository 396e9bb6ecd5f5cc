package proc

import "github.com/HachikoT/myos/kernel/irq"

// kernelThreadEntry is the assembly trampoline every kernel thread's first
// dispatch runs through. copyThread seeds the trap frame's EBX/EDX with the
// thread's fn/arg and its EIP with this address; forkRets pops that frame
// and IRETs here with EBX=fn, EDX=arg still live, matching
// kernel_thread_entry's contract: call fn(arg), then exit with its return
// value. Declared-only; not part of this retrieval pack.
func kernelThreadEntry()

// forkRets pops a full trap frame off the kernel stack and IRETs into the
// context it describes. It is the last step of both a fresh thread's first
// dispatch and a forked process's first return to user mode, the Go
// equivalent of forkrets. Declared-only; not part of this retrieval pack.
func forkRets(tf *irq.Frame)

// forkRet is forkret: the address copyThread installs as a new process's
// initial Context.EIP. The scheduler's first switchTo into a brand new
// process lands here, which simply resumes the trap frame copyThread
// prepared.
func forkRet() {
	forkRets(current.Tf)
}
