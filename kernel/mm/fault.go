package mm

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
)

// Page-fault error code bits, as pushed by the CPU and read out of CR2's
// companion error code: bit 0 distinguishes not-present from
// protection-violation, bit 1 is write vs. read, bit 2 is user vs. kernel.
const (
	pfPresent = 1 << 0
	pfWrite   = 1 << 1
	pfUser    = 1 << 2
)

// CurrentMm is set by kernel/proc once process scheduling exists; it
// reports the address space of whichever process faulted. Left nil, every
// fault is treated as unresolvable.
var CurrentMm func() *Mm

// swapInFn resolves a non-zero, not-present PTE (a swap entry) back into a
// present mapping with the given permission bits. It is nil until
// kernel/swap registers itself, at which point a fault against a
// swapped-out page can be serviced; until then such a fault is unresolvable.
var swapInFn func(mm *Mm, la uintptr, perm vmm.Flag) *kernel.Error

// SetSwapIn registers the swap subsystem's page-in handler.
func SetSwapIn(fn func(mm *Mm, la uintptr, perm vmm.Flag) *kernel.Error) { swapInFn = fn }

// mapSwappableFn enters a freshly installed user frame into the reclaim
// policy's working set. It is nil until kernel/swap registers itself, at
// which point every page AllocPage installs becomes a swap victim
// candidate; left nil, frames are simply never considered for eviction.
var mapSwappableFn func(mm *Mm, la uintptr, frame *pmm.Page)

// SetMapSwappable registers the swap subsystem's working-set hook.
func SetMapSwappable(fn func(mm *Mm, la uintptr, frame *pmm.Page)) { mapSwappableFn = fn }

// Init wires the page-fault handler into the trap dispatcher.
func Init() {
	vmm.SetPageFaultHandler(pageFault)
}

func pageFault(addr uintptr, errCode uint32) *kernel.Error {
	var m *Mm
	if CurrentMm != nil {
		m = CurrentMm()
	}
	return HandlePageFault(m, errCode, addr)
}

// HandlePageFault resolves a page fault at addr within mm, the Go
// equivalent of do_pgfault. It returns nil once the fault has been serviced
// (a fresh page installed, or a swapped-out page brought back in) and an
// error when the fault is not resolvable — an access outside any mapped
// vma, or a permission violation the vma's flags forbid.
func HandlePageFault(mm *Mm, errCode uint32, addr uintptr) *kernel.Error {
	if mm == nil {
		return kernel.NewError(errModule, kernel.KindInvalidArg, "page fault with no active address space")
	}

	vma := mm.FindVma(addr)
	if vma == nil || vma.Start > addr {
		return kernel.NewError(errModule, kernel.KindInvalidArg, "page fault at an address outside any mapping")
	}

	// Any P=1 fault is a protection violation against a page already mapped
	// present (read against a present page, or a write with no COW support)
	// and is always fatal, regardless of W; only a P=0 fault can be resolved
	// by installing or swapping in a page.
	if errCode&pfPresent != 0 {
		return kernel.NewError(errModule, kernel.KindInvalidArg, "protection violation against a present page")
	}

	switch errCode & pfWrite {
	case pfWrite: // write, not present
		if vma.Flags&VmWrite == 0 {
			return kernel.NewError(errModule, kernel.KindInvalidArg, "write fault against a read-only mapping")
		}
	default: // read, not present
		if vma.Flags&(VmRead|VmExec) == 0 {
			return kernel.NewError(errModule, kernel.KindInvalidArg, "read fault against a non-readable mapping")
		}
	}

	perm := vmm.FlagUser
	if vma.Flags&VmWrite != 0 {
		perm |= vmm.FlagWrite
	}
	addr &^= uintptr(mem.PageMask)

	raw, err := rawPTEFn(mm.Pdt, addr, true)
	if err != nil {
		return err
	}

	if *raw == 0 {
		if _, err := installPageFn(mm, addr, perm); err != nil {
			return err
		}
		return nil
	}

	// A non-zero but not-present PTE holds a swap entry.
	if swapInFn == nil {
		return kernel.NewError(errModule, kernel.KindUnspecified, "page fault against a swapped-out page with no swap subsystem installed")
	}
	return swapInFn(mm, addr, perm)
}
