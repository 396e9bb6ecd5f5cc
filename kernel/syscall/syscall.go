// Package syscall dispatches the kernel's fixed syscall table: it reads
// EAX for the call number and EDX/ECX/EBX/EDI/ESI for up to five arguments
// off the trap frame int 0x80 leaves behind, the Go equivalent of
// syscall.c's syscall() entry point. Every handler wraps the matching
// kernel/proc operation.
package syscall

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/driver/pit"
	"github.com/HachikoT/myos/kernel/irq"
	"github.com/HachikoT/myos/kernel/kfmt"
	"github.com/HachikoT/myos/kernel/proc"
)

const errModule = "syscall"

// errBadPointer is returned whenever a user-supplied pointer argument fails
// mm's validated-copy checks (outside any vma, or lacking the permission
// the access needs) — the Go equivalent of -E_INVAL from user_mem_check.
var errBadPointer = kernel.NewError(errModule, kernel.KindInvalidArg, "invalid user-space pointer argument")

// ticksFn is the tick source sys_gettime reads, the same seam-variable
// indirection the rest of this module wraps hardware-backed calls in:
// tests substitute a fake rather than depending on pit's live counter.
var ticksFn = pit.Ticks

// Init registers the syscall gate's trap handler. Call once during boot,
// after irq.Init.
func Init() {
	irq.HandleException(irq.Syscall, dispatch)
}

// dispatch reads the syscall number and argument registers off tf, calls
// the matching table entry and writes its return value back into tf's EAX,
// the Go equivalent of syscall(). tf is handed to handlers that need the
// calling process's live register state (sys_fork), the same frame
// original_source reaches through g_cur_proc->tf since trap_dispatch is
// given no other handle to it.
func dispatch(tf *irq.Frame) {
	num := int(tf.Regs.EAX)
	if num < 0 || num >= len(table) || table[num] == nil {
		tf.DumpTo()
		kfmt.Panic("undefined syscall")
	}

	arg := [5]uint32{tf.Regs.EDX, tf.Regs.ECX, tf.Regs.EBX, tf.Regs.EDI, tf.Regs.ESI}
	tf.Regs.EAX = uint32(table[num](tf, arg))
}

func sysExit(tf *irq.Frame, arg [5]uint32) int32 {
	proc.DoExit(int(int32(arg[0])))
	panic("sysExit: DoExit returned")
}

func sysFork(tf *irq.Frame, arg [5]uint32) int32 {
	stack := uintptr(tf.ESP)
	pid, err := proc.DoFork(0, stack, tf)
	if err != nil {
		return int32(err.Errno())
	}
	return int32(pid)
}

func sysWait(tf *irq.Frame, arg [5]uint32) int32 {
	pid := int(int32(arg[0]))
	storeAddr := uintptr(arg[1])

	var code int
	if err := proc.DoWait(pid, &code); err != nil {
		return int32(err.Errno())
	}
	if storeAddr != 0 {
		if !storeInt32(proc.Current().Mm, storeAddr, int32(code)) {
			return int32(errBadPointer.Errno())
		}
	}
	return 0
}

func sysExec(tf *irq.Frame, arg [5]uint32) int32 {
	const maxNameLen = 255
	m := proc.Current().Mm

	name, ok := copyUserString(m, uintptr(arg[0]), maxNameLen)
	if !ok {
		return int32(errBadPointer.Errno())
	}
	argc := int(int32(arg[1]))
	argv, ok := copyUserStringArray(m, uintptr(arg[2]), argc, proc.ExecMaxArgLen)
	if !ok {
		return int32(errBadPointer.Errno())
	}

	if err := proc.DoExecve(name, argv); err != nil {
		return int32(err.Errno())
	}
	return 0
}

func sysYield(tf *irq.Frame, arg [5]uint32) int32 {
	proc.DoYield()
	return 0
}

func sysKill(tf *irq.Frame, arg [5]uint32) int32 {
	pid := int(int32(arg[0]))
	if err := proc.DoKill(pid); err != nil {
		return int32(err.Errno())
	}
	return 0
}

func sysGetPid(tf *irq.Frame, arg [5]uint32) int32 {
	return int32(proc.Current().Pid)
}

func sysPutc(tf *irq.Frame, arg [5]uint32) int32 {
	kfmt.Printf("%s", string(rune(arg[0])))
	return 0
}

func sysPgdir(tf *irq.Frame, arg [5]uint32) int32 {
	current := proc.Current()
	kfmt.Printf("proc pid %d name %s cr3 %x\n", current.Pid, current.Name(), current.CR3)
	return 0
}

func sysGetTime(tf *irq.Frame, arg [5]uint32) int32 {
	return int32(ticksFn())
}
