package proc

import (
	"reflect"
	"unsafe"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/gdt"
	"github.com/HachikoT/myos/kernel/irq"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/sync"
)

// EFlagsIF is the interrupt-enable bit, set on every fresh trap frame so a
// newly scheduled process starts with interrupts on.
const EFlagsIF = 1 << 9

// copyMm gives proc a virtual address space: cloneFlags&CloneVM shares the
// parent's mm outright (a kernel thread, or a pthread-style clone), otherwise
// a new mm is built and the parent's mappings duplicated into it eagerly,
// matching dup_mmap. The Go equivalent of copy_mm.
func copyMm(cloneFlags uint32, proc *Proc) *kernel.Error {
	oldmm := current.Mm
	if oldmm == nil {
		return nil
	}
	if cloneFlags&CloneVM != 0 {
		oldmm.RefCount++
		proc.Mm = oldmm
		proc.CR3 = oldmm.Pdt.PhysAddr()
		return nil
	}

	if err := setupPgdir(proc); err != nil {
		return err
	}

	oldmm.Lock()
	err := dupMmapFn(proc.Mm, oldmm)
	oldmm.Unlock()
	if err != nil {
		putPgdir(proc)
		return err
	}
	return nil
}

// copyThread seeds proc's kernel-stack trap frame from tf, points its esp at
// the caller-supplied user stack, clears the child's return-value register
// and arranges for the scheduler's first switchTo to land in forkRet, which
// resumes exactly this frame. The Go equivalent of copy_thread.
func copyThread(proc *Proc, esp uintptr, tf *irq.Frame) {
	tfTop := (*irq.Frame)(unsafe.Pointer(proc.Kstack + uintptr(mem.KstackSize) - unsafe.Sizeof(*tf)))
	*tfTop = *tf
	tfTop.Regs.EAX = 0
	tfTop.ESP = uint32(esp)
	tfTop.EFlags |= EFlagsIF
	proc.Tf = tfTop

	proc.Context = Context{
		EIP: uint32(reflect.ValueOf(forkRet).Pointer()),
		ESP: uint32(uintptr(unsafe.Pointer(tfTop))),
	}
}

// DoFork creates a new process that begins life as a copy of current,
// returning its pid. It is the Go equivalent of do_fork: allocate a Proc,
// give it a kernel stack, an open-file table, an address space and a trap
// frame, then publish it (pid, hash bucket, tree links) and hand it to the
// scheduler.
func DoFork(cloneFlags uint32, stack uintptr, tf *irq.Frame) (int, *kernel.Error) {
	if nProcess >= MaxProcess {
		return 0, kernel.NewError(errModule, kernel.KindNoFreeProc, "too many processes")
	}

	proc := allocProc()
	proc.ParentPid = current.Pid

	if err := setupKstack(proc); err != nil {
		return 0, err
	}
	copyFiles(cloneFlags, proc)
	if err := copyMm(cloneFlags, proc); err != nil {
		putFiles(proc)
		putKstack(proc)
		return 0, err
	}
	copyThread(proc, stack, tf)

	var m sync.IRQMutex
	m.Lock()
	proc.Pid = getPid()
	hashProc(proc)
	setLinks(proc)
	m.Unlock()

	wakeupProc(proc)
	return proc.Pid, nil
}

// KernelThread starts fn(arg) as a new kernel thread sharing the calling
// process's address space (CLONE_VM). The Go equivalent of kernel_thread: it
// builds the synthetic trap frame kernel_thread_entry's contract expects —
// fn and arg passed through EBX/EDX exactly as copy_thread leaves them for
// any other process — and forks it.
//
// fn is a plain function value, not a closure: its address is recovered with
// reflect so it fits in the single machine register kernelThreadEntry reads
// it from, the same reflect-over-unsafe idiom this package's direct-map
// helpers already use for raw addresses.
func KernelThread(fn func(arg unsafe.Pointer) int, arg unsafe.Pointer, cloneFlags uint32) (int, *kernel.Error) {
	var tf irq.Frame
	tf.CS = gdt.KernelCodeSelector
	tf.DS = gdt.KernelDataSelector
	tf.ES = gdt.KernelDataSelector
	tf.SS = gdt.KernelDataSelector
	tf.Regs.EBX = uint32(reflect.ValueOf(fn).Pointer())
	tf.Regs.EDX = uint32(uintptr(arg))
	tf.EIP = uint32(reflect.ValueOf(kernelThreadEntry).Pointer())
	return DoFork(cloneFlags|CloneVM, 0, &tf)
}
