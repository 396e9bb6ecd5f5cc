package mm

import (
	"sort"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
	"github.com/HachikoT/myos/kernel/sync"
)

const errModule = "mm"

// Mm owns a process's entire virtual address space: its page directory and
// the sorted set of vmas mapped within it. It is the Go equivalent of
// mm_struct.
type Mm struct {
	Pdt vmm.PageDirectoryTable

	vmas  []*Vma // sorted by Start, kept disjoint
	cache *Vma   // last vma a lookup hit, mm_struct's mmap_cache fast path

	// RefCount is the number of processes sharing this address space
	// (mm_struct.mm_count); a thread group's members all point at the same
	// Mm and increment this when cloned with CLONE_VM.
	RefCount int

	sem      *sync.Sema
	LockedBy int // pid holding the lock across dup_mmap, 0 if unlocked

	// SwapPriv is opaque reclaim-policy state owned and type-asserted by
	// kernel/swap (mm_struct.sm_priv); nil until kernel/swap's InitMm has
	// been called for this Mm, and for kernel-only Mms that never go
	// through it.
	SwapPriv interface{}
}

// NewMm creates an empty address space backed by pdt.
func NewMm(pdt vmm.PageDirectoryTable) *Mm {
	return &Mm{Pdt: pdt, sem: sync.NewSema(1)}
}

// Lock serializes dup_mmap against concurrent fault handling on the same Mm.
func (mm *Mm) Lock() { mm.sem.Down() }

// Unlock releases a Lock.
func (mm *Mm) Unlock() { mm.sem.Up(); mm.LockedBy = 0 }

// FindVma returns the vma covering addr, or nil if none does. It mirrors
// find_vma's mmap_cache fast path, falling back to a search over the sorted
// vma slice (a sorted slice with a cached last hit, rather than the
// original's intrusive linked list, since a Go slice already gives us
// random-access search for free).
func (mm *Mm) FindVma(addr uintptr) *Vma {
	if mm.cache != nil && mm.cache.contains(addr) {
		return mm.cache
	}

	i := sort.Search(len(mm.vmas), func(i int) bool { return mm.vmas[i].End > addr })
	if i == len(mm.vmas) || !mm.vmas[i].contains(addr) {
		return nil
	}
	mm.cache = mm.vmas[i]
	return mm.cache
}

// InsertVma adds vma to the address space. vma must not overlap any
// existing mapping; callers (MmMap, DupMmap) check this before constructing
// it, and InsertVma panics if vma overlaps either of its new neighbours.
func (mm *Mm) InsertVma(vma *Vma) {
	i := sort.Search(len(mm.vmas), func(i int) bool { return mm.vmas[i].Start > vma.Start })
	if (i > 0 && mm.vmas[i-1].End > vma.Start) || (i < len(mm.vmas) && vma.End > mm.vmas[i].Start) {
		panic("InsertVma: vma overlaps a neighbouring mapping")
	}
	mm.vmas = append(mm.vmas, nil)
	copy(mm.vmas[i+1:], mm.vmas[i:])
	mm.vmas[i] = vma
}

// MmMap creates and inserts a new vma covering [addr, addr+len), rounded out
// to whole pages, with the given flags. It mirrors mm_map.
func (mm *Mm) MmMap(addr uintptr, length uint32, flags VmFlags) (*Vma, *kernel.Error) {
	start := addr &^ uintptr(mem.PageMask)
	end := (addr + uintptr(length) + uintptr(mem.PageMask)) &^ uintptr(mem.PageMask)
	if !mem.UserAccess(start, end) {
		return nil, kernel.NewError(errModule, kernel.KindInvalidArg, "mm_map: address range outside user space")
	}

	probe := Vma{Start: start, End: end}
	for _, existing := range mm.vmas {
		if existing.overlaps(&probe) {
			return nil, kernel.NewError(errModule, kernel.KindInvalidArg, "mm_map: overlaps an existing mapping")
		}
	}

	vma := newVma(start, end, flags)
	mm.InsertVma(vma)
	return vma, nil
}

// DupMmap copies every vma and its backing pages from "from" into "to",
// mirroring dup_mmap with share=false: fork gives the child process its own
// private copy of every page, never a shared mapping.
func DupMmap(to, from *Mm) *kernel.Error {
	for _, vma := range from.vmas {
		nvma := newVma(vma.Start, vma.End, vma.Flags)
		to.InsertVma(nvma)
		if err := copyRange(to.Pdt, from.Pdt, vma.Start, vma.End); err != nil {
			return err
		}
	}
	return nil
}

// copyRange duplicates every present page mapped in [start, end) of fromPdt
// into toPdt, allocating a fresh frame and copying its contents for each.
func copyRange(toPdt, fromPdt vmm.PageDirectoryTable, start, end uintptr) *kernel.Error {
	for la := start; la < end; la += uintptr(mem.PageSize) {
		srcPa, err := translateFn(fromPdt, la)
		if err == vmm.ErrInvalidMapping {
			continue
		}
		if err != nil {
			return err
		}

		dstFrame, err := allocFramesFn(1)
		if err != nil {
			return err
		}
		dstPa := uintptr(frameNumberFn(dstFrame)) << mem.PageShift
		memcopyFn(pa2kva(srcPa), pa2kva(dstPa), mem.PageSize)

		if err := pageInsertFn(toPdt, dstFrame, la, vmm.FlagUser|vmm.FlagWrite); err != nil {
			return err
		}
	}
	return nil
}

// ExitMmap releases every page mapped by mm's vmas. It mirrors exit_mmap,
// collapsed into a single pass since, unlike the original, Unmap's eventual
// frame release never reenters mm's own vma list.
func ExitMmap(mm *Mm) {
	for _, vma := range mm.vmas {
		for la := vma.Start; la < vma.End; la += uintptr(mem.PageSize) {
			unmapFn(mm.Pdt, vmm.PageFromAddress(la))
		}
	}
	mm.vmas = nil
	mm.cache = nil
}

// AllocPage allocates a zeroed frame and maps it at la within mm's address
// space, the Go equivalent of pgdir_alloc_page.
func (mm *Mm) AllocPage(la uintptr, flags vmm.Flag) (*pmm.Page, *kernel.Error) {
	frame, err := allocFramesFn(1)
	if err != nil {
		return nil, err
	}
	pa := uintptr(frameNumberFn(frame)) << mem.PageShift
	memsetFn(pa2kva(pa), 0, mem.PageSize)

	if err := pageInsertFn(mm.Pdt, frame, la, flags); err != nil {
		freeFramesFn(frame, 1)
		return nil, err
	}
	if mapSwappableFn != nil {
		mapSwappableFn(mm, la, frame)
	}
	return frame, nil
}
