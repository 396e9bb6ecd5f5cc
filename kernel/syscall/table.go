package syscall

import "github.com/HachikoT/myos/kernel/irq"

// Syscall numbers. original_source's syscalls[] array is indexed by
// constants from libs/unistd.h, which does not survive extraction; these
// are ordinary sequential numbers assigned in the same order syscall.c
// declares its table, not a recovered constant.
const (
	SysExit = iota + 1
	SysFork
	SysWait
	SysExec
	SysYield
	SysKill
	SysGetPid
	SysPutc
	SysPgdir
	SysGetTime
)

// handlerFunc implements one syscall. arg holds the five argument registers
// in EDX, ECX, EBX, EDI, ESI order, the Go equivalent of a sys_* function's
// uint32_t arg[5]; tf is the calling process's live trap frame, needed only
// by sys_fork.
type handlerFunc func(tf *irq.Frame, arg [5]uint32) int32

// table maps syscall number to handler, the Go equivalent of the syscalls[]
// array. Index 0 is intentionally unused, matching the gap an iota-from-1
// numbering leaves.
var table = [...]handlerFunc{
	SysExit:    sysExit,
	SysFork:    sysFork,
	SysWait:    sysWait,
	SysExec:    sysExec,
	SysYield:   sysYield,
	SysKill:    sysKill,
	SysGetPid:  sysGetPid,
	SysPutc:    sysPutc,
	SysPgdir:   sysPgdir,
	SysGetTime: sysGetTime,
}
