package proc

import (
	"github.com/HachikoT/myos/kernel/cpu"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
	"github.com/HachikoT/myos/kernel/mm"
)

// These indirections isolate process lifecycle logic from the physical
// allocator, page tables and address-space object, the same seam idiom
// kernel/mm and kernel/swap use: production code wires the real pmm/vmm/mm
// functions, tests substitute fakes so fork/exit/wait/exec can be exercised
// without a real direct map or frame allocator.
var (
	allocFramesFn = pmm.AllocFrames
	freeFramesFn  = pmm.FreeFrames
	frameNumberFn = pmm.FrameNumber
	frameAtPaFn   = func(pa uintptr) *pmm.Page { return pmm.FrameAt(int(pa >> mem.PageShift)) }

	newAddressSpaceFn  = vmm.NewAddressSpace
	cloneKernelSpaceFn = vmm.CloneKernelSpace
	freePgdirFn        = vmm.FreeAddressSpace
	bootCR3Fn          = func() uintptr { return vmm.BootPdt().PhysAddr() }

	mmCreateFn = mm.NewMm
	dupMmapFn  = mm.DupMmap
	exitMmapFn = mm.ExitMmap

	memsetFn  = mem.Memset
	memcopyFn = mem.Memcopy

	writeCR3Fn = cpu.WriteCR3
)

var pa2kva = func(pa uintptr) uintptr { return pa + mem.KernBase }
