package vmm

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/cpu"
	"github.com/HachikoT/myos/kernel/irq"
	"github.com/HachikoT/myos/kernel/kfmt"
)

var (
	// pageFaultFn is registered by kernel/mm via SetPageFaultHandler. vmm
	// itself knows nothing about vmas, COW or swapping; it only owns the
	// page table primitives and the trap plumbing that reaches this
	// callback, mirroring how trap_dispatch hands page faults off to
	// do_pgfault in original_source/kern/trap/trap.c.
	pageFaultFn func(faultAddr uintptr, errCode uint32) *kernel.Error

	// mocked by tests; automatically inlined by the compiler otherwise.
	readCR2Fn                 = cpu.ReadCR2
	handleExceptionWithCodeFn = irq.HandleExceptionWithCode
	panicFn                   = kfmt.Panic
)

// SetPageFaultHandler registers the callback used to resolve page faults
// against the faulting process's address space. It must be called before
// Init so that the very first page fault has somewhere to go.
func SetPageFaultHandler(fn func(faultAddr uintptr, errCode uint32) *kernel.Error) {
	pageFaultFn = fn
}

func pageFaultHandler(errCode uint32, frame *irq.Frame) {
	faultAddr := readCR2Fn()

	if pageFaultFn != nil {
		if err := pageFaultFn(faultAddr, errCode); err == nil {
			return
		}
	}

	kfmt.Printf("\npage fault at 0x%x (error code 0x%x)\n", faultAddr, errCode)
	frame.DumpTo()

	if frame.InKernelMode() {
		panicFn(kernel.NewError(errModule, kernel.KindUnspecified, "unrecoverable page fault in kernel mode"))
		return
	}

	// TODO: deliver a SIGSEGV-equivalent to the faulting process once
	// kernel/proc grows signal delivery; for now an unhandled user fault
	// is treated the same as a kernel one.
	panicFn(kernel.NewError(errModule, kernel.KindUnspecified, "unrecoverable page fault in user mode"))
}

func generalProtectionFaultHandler(_ uint32, frame *irq.Frame) {
	kfmt.Printf("\ngeneral protection fault\n")
	frame.DumpTo()
	panicFn(kernel.NewError(errModule, kernel.KindUnspecified, "general protection fault"))
}

// Init installs the page-fault and general-protection-fault exception
// handlers. Call SetPageFaultHandler first.
func Init() {
	handleExceptionWithCodeFn(irq.PageFault, pageFaultHandler)
	handleExceptionWithCodeFn(irq.GeneralProtect, generalProtectionFaultHandler)
}
