package proc

// Context holds the callee-saved registers and the instruction/stack
// pointers preserved across a voluntary switch between kernel threads
// (switch_to). EAX and EFLAGS are deliberately absent: every switch happens
// through a call to switchTo, so the C calling convention already treats
// EAX as caller-saved, and EFLAGS is restored by whichever path eventually
// resumes the target (an IRET out of forkRets, or switchTo's own return).
type Context struct {
	EIP, ESP                   uint32
	EBX, ECX, EDX               uint32
	ESI, EDI, EBP               uint32
}

// switchTo saves the running callee-saved registers and EIP/ESP into from,
// then loads to's into the CPU — the Go equivalent of switch_to. It is
// declared-only; the body is hand-written 386 assembly (not part of this
// retrieval pack). The first time a given Context is switched into, control
// does not return through the normal call/ret path: to.EIP was seeded by
// copyThread to forkRet, so the switch "returns" into forkRet instead of
// back into switchTo's caller.
func switchTo(from, to *Context)
