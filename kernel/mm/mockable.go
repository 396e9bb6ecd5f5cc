package mm

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
)

// These indirections isolate mm's address-space bookkeeping from the
// physical allocator and page tables, the same seam idiom pmm/vmm/irq use:
// production code wires the real implementations; tests substitute fakes so
// vma and fault-resolution logic can be exercised without a real direct map.
var (
	allocFramesFn = pmm.AllocFrames
	freeFramesFn  = pmm.FreeFrames
	frameNumberFn = pmm.FrameNumber

	pageInsertFn = vmm.PageInsert
	unmapFn      = vmm.Unmap
	translateFn  = vmm.Translate
	rawPTEFn     = vmm.RawPTE

	memsetFn  = mem.Memset
	memcopyFn = mem.Memcopy

	// userBytesFn overlays a []byte view on top of a user-space address;
	// tests substitute one backed by an ordinary Go buffer instead of a
	// fictional user-mode pointer.
	userBytesFn = userBytes
)

func pa2kva(pa uintptr) uintptr { return pa + mem.KernBase }

// installPageFn backs HandlePageFault's not-present branch; it is a package
// var (rather than mm.AllocPage called directly) so fault-resolution tests
// can substitute a fake that never touches a frame allocator.
var installPageFn = func(mm *Mm, la uintptr, flags vmm.Flag) (*pmm.Page, *kernel.Error) {
	return mm.AllocPage(la, flags)
}
