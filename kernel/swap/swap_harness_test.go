package swap

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
)

// fakeKernel stands in for the physical allocator and page tables during
// tests: PTEs are an ordinary Go map keyed by linear address, frames are
// individually heap-allocated Page structs rather than slots in a shared
// descriptor array, and "physical memory" is a map from frame number to an
// in-process backing buffer pageBytesFn overlays. This mirrors kernel/mm's
// own fakeAddressSpace harness, extended with persistent PTE storage since
// the clock scan reads the same PTE more than once and needs its mutations
// (the Accessed bit, the eventual swap entry) to stick across calls.
type fakeKernel struct {
	ptes      map[uintptr]*uint32
	frameID   map[*pmm.Page]uint32
	nextFrame uint32
	memory    map[uint32][]byte
	freed     []uint32
	inserts   []uintptr
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		ptes:    map[uintptr]*uint32{},
		frameID: map[*pmm.Page]uint32{},
		memory:  map[uint32][]byte{},
	}
}

// setPTE pre-populates a present mapping at la backed by a freshly allocated
// fake frame, returning the frame and its backing buffer so a test can seed
// page content.
func (fk *fakeKernel) setPTE(la uintptr, flags vmm.Flag) (*pmm.Page, []byte) {
	frame := &pmm.Page{}
	fk.nextFrame++
	fk.frameID[frame] = fk.nextFrame
	buf := make([]byte, mem.PageSize)
	fk.memory[fk.nextFrame] = buf

	la &^= uintptr(mem.PageMask)
	v := fk.nextFrame<<mem.PageShift | uint32(flags) | uint32(vmm.FlagPresent)
	fk.ptes[la] = &v
	return frame, buf
}

func (fk *fakeKernel) install() func() {
	origAlloc, origFree, origFrameNum, origFrameAt := allocFramesFn, freeFramesFn, frameNumberFn, frameAtFn
	origRaw, origInsert, origTranslate, origInvalidate := rawPTEFn, pageInsertFn, translateFn, invalidateFn
	origPageBytes := pageBytesFn

	allocFramesFn = func(n int) (*pmm.Page, *kernel.Error) {
		p := &pmm.Page{}
		fk.nextFrame++
		fk.frameID[p] = fk.nextFrame
		fk.memory[fk.nextFrame] = make([]byte, mem.PageSize)
		return p, nil
	}
	freeFramesFn = func(base *pmm.Page, n int) {
		fk.freed = append(fk.freed, fk.frameID[base])
		delete(fk.memory, fk.frameID[base])
	}
	frameNumberFn = func(p *pmm.Page) int { return int(fk.frameID[p]) }
	frameAtFn = func(n int) *pmm.Page {
		for p, id := range fk.frameID {
			if int(id) == n {
				return p
			}
		}
		return nil
	}

	rawPTEFn = func(pdt vmm.PageDirectoryTable, la uintptr, create bool) (*uint32, *kernel.Error) {
		la &^= uintptr(mem.PageMask)
		if v, ok := fk.ptes[la]; ok {
			return v, nil
		}
		if !create {
			return nil, nil
		}
		v := new(uint32)
		fk.ptes[la] = v
		return v, nil
	}
	pageInsertFn = func(pdt vmm.PageDirectoryTable, frame *pmm.Page, la uintptr, flags vmm.Flag) *kernel.Error {
		la &^= uintptr(mem.PageMask)
		fk.inserts = append(fk.inserts, la)
		v := uint32(frameNumberFn(frame))<<mem.PageShift | uint32(flags) | uint32(vmm.FlagPresent)
		fk.ptes[la] = &v
		return nil
	}
	translateFn = func(pdt vmm.PageDirectoryTable, la uintptr) (uintptr, *kernel.Error) {
		v, ok := fk.ptes[la&^uintptr(mem.PageMask)]
		if !ok || *v&uint32(vmm.FlagPresent) == 0 {
			return 0, vmm.ErrInvalidMapping
		}
		return uintptr(*v&^uint32(mem.PageMask)) | (la & uintptr(mem.PageMask)), nil
	}
	invalidateFn = func(pdt vmm.PageDirectoryTable, la uintptr) {}

	pageBytesFn = func(addr uintptr) []byte {
		frameNum := uint32((addr - mem.KernBase) >> mem.PageShift)
		buf, ok := fk.memory[frameNum]
		if !ok {
			buf = make([]byte, mem.PageSize)
			fk.memory[frameNum] = buf
		}
		return buf
	}

	return func() {
		allocFramesFn, freeFramesFn, frameNumberFn, frameAtFn = origAlloc, origFree, origFrameNum, origFrameAt
		rawPTEFn, pageInsertFn, translateFn, invalidateFn = origRaw, origInsert, origTranslate, origInvalidate
		pageBytesFn = origPageBytes
	}
}

// fakeDevice is an in-process stand-in for the swap backing store.
type fakeDevice struct {
	pageCount uint32
	slots     map[uint32][]byte
	reads     []uint32
	writes    []uint32
}

func newFakeDevice(pageCount uint32) *fakeDevice {
	return &fakeDevice{pageCount: pageCount, slots: map[uint32][]byte{}}
}

func (d *fakeDevice) PageCount() uint32 { return d.pageCount }

func (d *fakeDevice) WritePage(offset uint32, src []byte) *kernel.Error {
	d.writes = append(d.writes, offset)
	buf := make([]byte, len(src))
	copy(buf, src)
	d.slots[offset] = buf
	return nil
}

func (d *fakeDevice) ReadPage(offset uint32, dst []byte) *kernel.Error {
	d.reads = append(d.reads, offset)
	copy(dst, d.slots[offset])
	return nil
}

func fakePdt() vmm.PageDirectoryTable { return vmm.PageDirectoryTable{} }
