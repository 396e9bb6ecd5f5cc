package swap

import (
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
)

// These indirections isolate the clock-scan and swap-in/out logic from the
// physical allocator and page tables, the same seam idiom kernel/mm's own
// mockable.go uses: production code wires the real pmm/vmm functions, tests
// substitute fakes so the policy can be exercised without a real direct map.
var (
	allocFramesFn = pmm.AllocFrames
	freeFramesFn  = pmm.FreeFrames
	frameNumberFn = pmm.FrameNumber
	frameAtFn     = pmm.FrameAt

	rawPTEFn     = vmm.RawPTE
	pageInsertFn = vmm.PageInsert
	translateFn  = vmm.Translate
	invalidateFn = vmm.InvalidatePage

	// pageBytesFn overlays a []byte view of length mem.PageSize on top of a
	// kernel-virtual address; tests substitute one backed by an ordinary Go
	// buffer instead of a fictional direct-map pointer.
	pageBytesFn = pageBytes
)

func pa2kva(pa uintptr) uintptr { return pa + mem.KernBase }
