package mm

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
)

// fakeAddressSpace stands in for a page directory during tests: mappings
// are just a Go map from virtual to physical address, so exercising
// MmMap/DupMmap/ExitMmap/HandlePageFault never dereferences a fictional
// physical address the way the real direct map would.
type fakeAddressSpace struct {
	mappings  map[uintptr]uintptr // la -> pa, present mappings only
	nextFrame uintptr
	inserts   []uintptr // la of every PageInsert call, in order
	unmaps    []uintptr // la of every Unmap call, in order
}

func newFakeAddressSpace() *fakeAddressSpace {
	return &fakeAddressSpace{mappings: map[uintptr]uintptr{}}
}

// install replaces every mm package seam with one backed by fas, returning
// a restore closure.
func (fas *fakeAddressSpace) install() func() {
	origAlloc, origFree, origFrameNum := allocFramesFn, freeFramesFn, frameNumberFn
	origInsert, origUnmap, origTranslate, origRawPTE := pageInsertFn, unmapFn, translateFn, rawPTEFn
	origMemset, origMemcopy := memsetFn, memcopyFn
	origInstallPage := installPageFn

	allocFramesFn = func(n int) (*pmm.Page, *kernel.Error) {
		fas.nextFrame += uintptr(n)
		return &pmm.Page{}, nil
	}
	freeFramesFn = func(base *pmm.Page, n int) {}
	frameNumberFn = func(p *pmm.Page) int { return int(fas.nextFrame) }

	pageInsertFn = func(pdt vmm.PageDirectoryTable, frame *pmm.Page, la uintptr, flags vmm.Flag) *kernel.Error {
		fas.inserts = append(fas.inserts, la)
		fas.mappings[la] = uintptr(frameNumberFn(frame)) << mem.PageShift
		return nil
	}
	unmapFn = func(pdt vmm.PageDirectoryTable, page vmm.Page) {
		fas.unmaps = append(fas.unmaps, page.Address())
		delete(fas.mappings, page.Address())
	}
	translateFn = func(pdt vmm.PageDirectoryTable, la uintptr) (uintptr, *kernel.Error) {
		pa, ok := fas.mappings[la&^uintptr(mem.PageMask)]
		if !ok {
			return 0, vmm.ErrInvalidMapping
		}
		return pa | (la & uintptr(mem.PageMask)), nil
	}
	rawPTEFn = func(pdt vmm.PageDirectoryTable, la uintptr, create bool) (*uint32, *kernel.Error) {
		var v uint32
		if _, ok := fas.mappings[la&^uintptr(mem.PageMask)]; ok {
			v = 1
		}
		return &v, nil
	}
	memsetFn = func(addr uintptr, value byte, size mem.Size) {}
	memcopyFn = func(src, dst uintptr, size mem.Size) {}
	installPageFn = func(m *Mm, la uintptr, flags vmm.Flag) (*pmm.Page, *kernel.Error) {
		frame, err := allocFramesFn(1)
		if err != nil {
			return nil, err
		}
		return frame, pageInsertFn(m.Pdt, frame, la, flags)
	}

	return func() {
		allocFramesFn, freeFramesFn, frameNumberFn = origAlloc, origFree, origFrameNum
		pageInsertFn, unmapFn, translateFn, rawPTEFn = origInsert, origUnmap, origTranslate, origRawPTE
		memsetFn, memcopyFn = origMemset, origMemcopy
		installPageFn = origInstallPage
	}
}
