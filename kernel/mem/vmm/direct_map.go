package vmm

import (
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
)

var (
	// the following are mocked by tests, which run without a real direct
	// map or a populated pmm frame table, and are otherwise automatically
	// inlined by the compiler.
	pa2kvaFn        = func(pa uintptr) uintptr { return pa + mem.KernBase }
	pa2pageFn       = func(pa uintptr) *pmm.Page { return pmm.FrameAt(int(pa >> mem.PageShift)) }
	framePhysAddrFn = func(p *pmm.Page) uintptr { return uintptr(pmm.FrameNumber(p)) << mem.PageShift }
)

// pa2kva translates a physical address to the kernel virtual address that
// maps it one-to-one, per the direct map installed at boot
// ([KernBase, KernTop) <- [0, KMemSize)).
func pa2kva(pa uintptr) uintptr { return pa2kvaFn(pa) }

// kva2pa is the inverse of pa2kva.
func kva2pa(va uintptr) uintptr { return va - mem.KernBase }

// pa2page returns the frame descriptor for the frame at physical address pa.
func pa2page(pa uintptr) *pmm.Page { return pa2pageFn(pa) }

// framePhysAddr returns the physical address of the frame p describes.
func framePhysAddr(p *pmm.Page) uintptr { return framePhysAddrFn(p) }
