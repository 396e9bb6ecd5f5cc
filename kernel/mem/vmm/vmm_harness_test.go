package vmm

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
)

// fakeMemory stands in for physical memory during tests: a fixed number of
// PageSize-sized Go-heap slots plus a matching slice of frame descriptors,
// addressed the same way pmm addresses real frames (frame number == slot
// index). Every vmm function that would otherwise touch real physical
// memory or the real pmm allocator is redirected here via the package's
// mock seams (pa2kvaFn, pa2pageFn, framePhysAddrFn, frameAllocFn,
// frameFreeFn, switchPDTFn, activePDTFn, invalidatePgFn).
type fakeMemory struct {
	slots     [][]byte
	descs     []pmm.Page
	nextFrame int
	activePA  uintptr
	flushed   []uintptr
}

func newFakeMemory(n int) *fakeMemory {
	fm := &fakeMemory{
		slots: make([][]byte, n),
		descs: make([]pmm.Page, n),
		// No fake directory is active until a test calls Activate.
		activePA: ^uintptr(0),
	}
	for i := range fm.slots {
		fm.slots[i] = make([]byte, mem.PageSize)
	}
	return fm
}

func (fm *fakeMemory) install() func() {
	origKva, origPage, origPhys := pa2kvaFn, pa2pageFn, framePhysAddrFn
	origAlloc, origFree := frameAllocFn, frameFreeFn
	origSwitch, origActive, origInval := switchPDTFn, activePDTFn, invalidatePgFn

	pa2kvaFn = func(pa uintptr) uintptr {
		idx := pa >> mem.PageShift
		off := pa & uintptr(mem.PageMask)
		return uintptr(unsafe.Pointer(&fm.slots[idx][off]))
	}
	pa2pageFn = func(pa uintptr) *pmm.Page {
		return &fm.descs[pa>>mem.PageShift]
	}
	framePhysAddrFn = func(p *pmm.Page) uintptr {
		idx := (uintptr(unsafe.Pointer(p)) - uintptr(unsafe.Pointer(&fm.descs[0]))) / unsafe.Sizeof(pmm.Page{})
		return idx << mem.PageShift
	}
	frameAllocFn = func() (*pmm.Page, *kernel.Error) {
		if fm.nextFrame >= len(fm.descs) {
			return nil, kernel.NewError("test", kernel.KindOutOfMemory, "fake memory exhausted")
		}
		p := &fm.descs[fm.nextFrame]
		*p = pmm.Page{}
		fm.nextFrame++
		return p, nil
	}
	frameFreeFn = func(*pmm.Page, int) {}
	switchPDTFn = func(pa uintptr) { fm.activePA = pa }
	activePDTFn = func() uintptr { return fm.activePA }
	invalidatePgFn = func(la uintptr) { fm.flushed = append(fm.flushed, la) }

	return func() {
		pa2kvaFn, pa2pageFn, framePhysAddrFn = origKva, origPage, origPhys
		frameAllocFn, frameFreeFn = origAlloc, origFree
		switchPDTFn, activePDTFn, invalidatePgFn = origSwitch, origActive, origInval
	}
}

// allocFrame hands out a fresh fake frame directly, bypassing frameAllocFn
// (useful when a test wants a frame handle without going through a PDE/PTE
// allocation path).
func (fm *fakeMemory) allocFrame() *pmm.Page {
	p, err := frameAllocFn()
	if err != nil {
		panic(err)
	}
	return p
}

func (fm *fakeMemory) newPDT() PageDirectoryTable {
	frame := fm.allocFrame()
	pdt := NewPageDirectoryTable(frame)
	pdt.Init()
	return pdt
}
