package vmm

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
)

const errModule = "vmm"

const entriesPerTable = 1024

var (
	// frameAllocFn is used by tests and is otherwise pmm.AllocFrames(1),
	// the only place this package needs to grow a page table.
	frameAllocFn = func() (*pmm.Page, *kernel.Error) { return pmm.AllocFrames(1) }
	frameFreeFn  = pmm.FreeFrames

	// bootPdt is g_boot_pgdir: the page directory the kernel itself booted
	// with, every PDE of which (the direct physical map, and whatever else
	// the kernel half of the address space needs) is copied into every new
	// process pgdir so a CR3 switch never loses kernel-mode addressability.
	bootPdt PageDirectoryTable
)

// PageDirectoryTable is the top-level (and, for 386 2-level paging, only
// intermediate) table in an address space's page hierarchy. It is identified
// by the physical frame number that holds its 1024 page directory entries.
type PageDirectoryTable struct {
	pdtFrame uintptr
}

// NewPageDirectoryTable wraps the page directory whose frame descriptor is
// page; the frame must already belong to the allocator (typically obtained
// via pmm.AllocFrames(1)).
func NewPageDirectoryTable(page *pmm.Page) PageDirectoryTable {
	return PageDirectoryTable{pdtFrame: framePhysAddr(page) >> mem.PageShift}
}

// Active returns the page directory table currently loaded in CR3.
func Active() PageDirectoryTable {
	return PageDirectoryTable{pdtFrame: activePDTFn() >> mem.PageShift}
}

// NewAddressSpace allocates a fresh page directory frame and initializes it,
// the Go equivalent of pgdir_alloc_page used by proc.copy_mm for a brand new
// process's address space.
func NewAddressSpace() (PageDirectoryTable, *kernel.Error) {
	frame, err := frameAllocFn()
	if err != nil {
		return PageDirectoryTable{}, err
	}
	frame.Ref = 1
	pdt := NewPageDirectoryTable(frame)
	pdt.Init()
	return pdt, nil
}

// FreeAddressSpace releases the page directory frame NewAddressSpace
// allocated, the Go equivalent of put_pgdir. Callers must have already torn
// down every mapping the table still held (kernel/mm's ExitMmap).
func FreeAddressSpace(pdt PageDirectoryTable) {
	frameFreeFn(pmm.FrameAt(int(pdt.pdtFrame)), 1)
}

// SetBootPdt records pdt as the kernel's own page directory, the template
// every new process address space's kernel half is copied from. Call it
// once during boot, after the initial page directory is built and before
// any process address space is created.
func SetBootPdt(pdt PageDirectoryTable) { bootPdt = pdt }

// BootPdt returns the page directory recorded by SetBootPdt — the Go
// equivalent of g_boot_pgdir/g_boot_cr3 — used by kernel/proc to give a
// freshly allocated process a valid CR3 before any address space of its
// own has been attached.
func BootPdt() PageDirectoryTable { return bootPdt }

// CloneKernelSpace copies every PDE of the boot page directory into pdt,
// then re-installs pdt's own VPT self-map. It is the Go equivalent of
// setup_pgdir's memcpy(pgdir, g_boot_pgdir, PG_SIZE) followed by the VPT
// fixup: every process pgdir ends up sharing the kernel's page-table
// frames for the direct map, so kernel-mode code stays reachable the
// instant CR3 is switched to it.
func CloneKernelSpace(pdt PageDirectoryTable) {
	copy(pdt.entries()[:], bootPdt.entries()[:])

	var vptEntry pageTableEntry
	vptEntry.SetAddr(pdt.physAddr())
	vptEntry.SetFlags(FlagPresent | FlagWrite)
	pdt.entries()[pdIndex(mem.VPT)] = vptEntry
}

func (pdt PageDirectoryTable) physAddr() uintptr { return pdt.pdtFrame << mem.PageShift }

// PhysAddr returns the physical address of pdt's page directory frame, the
// value loaded into CR3 to activate it.
func (pdt PageDirectoryTable) PhysAddr() uintptr { return pdt.physAddr() }

func (pdt PageDirectoryTable) entries() *[entriesPerTable]pageTableEntry {
	return (*[entriesPerTable]pageTableEntry)(unsafe.Pointer(pa2kva(pdt.physAddr())))
}

// Init zeroes the directory and installs the VPT recursive self-map
// invariant (PDE[PDX(VPT)] = pa(pdt) | Present | Write), the same structural
// invariant original_source's pgdir_init/proc.c copy_mm establish for every
// new address space.
func (pdt PageDirectoryTable) Init() {
	tbl := pdt.entries()
	for i := range tbl {
		tbl[i] = 0
	}
	var vptEntry pageTableEntry
	vptEntry.SetAddr(pdt.physAddr())
	vptEntry.SetFlags(FlagPresent | FlagWrite)
	tbl[pdIndex(mem.VPT)] = vptEntry
}

// Activate loads this table into CR3, making it the active address space.
func (pdt PageDirectoryTable) Activate() {
	switchPDTFn(pdt.physAddr())
}

// getPTE returns the page table entry for la, allocating (and linking in) a
// new page table frame if the covering PDE is not present and create is
// true. It mirrors get_pte from original_source/kern/mm/pmm.c.
func getPTE(pdt PageDirectoryTable, la uintptr, create bool) (*pageTableEntry, *kernel.Error) {
	pde := &pdt.entries()[pdIndex(la)]
	if !pde.HasFlags(FlagPresent) {
		if !create {
			return nil, nil
		}
		frame, err := frameAllocFn()
		if err != nil {
			return nil, err
		}
		frame.Ref = 1
		pa := framePhysAddr(frame)
		mem.Memset(pa2kva(pa), 0, mem.PageSize)
		*pde = 0
		pde.SetAddr(pa)
		pde.SetFlags(FlagPresent | FlagWrite | FlagUser)
	}

	table := (*[entriesPerTable]pageTableEntry)(unsafe.Pointer(pa2kva(pde.Addr())))
	return &table[ptIndex(la)], nil
}

// PageInsert maps frame at virtual address la within pdt with the given
// flags, replacing any previous mapping. It mirrors page_insert.
func PageInsert(pdt PageDirectoryTable, frame *pmm.Page, la uintptr, flags Flag) *kernel.Error {
	pte, err := getPTE(pdt, la, true)
	if err != nil {
		return err
	}
	if pte == nil {
		return kernel.NewError(errModule, kernel.KindOutOfMemory, "failed to allocate page table frame")
	}

	frame.Ref++
	if pte.HasFlags(FlagPresent) {
		existing := pa2page(pte.Addr())
		if existing == frame {
			frame.Ref--
		} else {
			unmapPTE(pdt, la, pte)
		}
	}

	pa := framePhysAddr(frame)
	*pte = 0
	pte.SetAddr(pa)
	pte.SetFlags(flags | FlagPresent)
	flushTLBIfActive(pdt, la)
	return nil
}

// PageRemove unmaps the page at virtual address la within pdt, if any,
// releasing the underlying frame once its reference count reaches zero. It
// mirrors page_remove.
func PageRemove(pdt PageDirectoryTable, la uintptr) {
	pte, _ := getPTE(pdt, la, false)
	if pte == nil {
		return
	}
	unmapPTE(pdt, la, pte)
}

func unmapPTE(pdt PageDirectoryTable, la uintptr, pte *pageTableEntry) {
	if !pte.HasFlags(FlagPresent) {
		return
	}
	page := pa2page(pte.Addr())
	page.Ref--
	if page.Ref <= 0 {
		frameFreeFn(page, 1)
	}
	*pte = 0
	flushTLBIfActive(pdt, la)
}

// BootMapSegment installs a straight la->pa mapping for size bytes (rounded
// up to whole pages), allocating page table frames as needed. It mirrors
// boot_map_segment, used to build the kernel's direct map at boot.
func BootMapSegment(pdt PageDirectoryTable, la, size, pa uintptr, flags Flag) *kernel.Error {
	n := mem.Size(size + (la & uintptr(mem.PageMask))).Pages()
	la &^= uintptr(mem.PageMask)
	pa &^= uintptr(mem.PageMask)

	for i := uint32(0); i < n; i++ {
		pte, err := getPTE(pdt, la, true)
		if err != nil {
			return err
		}
		*pte = 0
		pte.SetAddr(pa)
		pte.SetFlags(flags | FlagPresent)
		la += uintptr(mem.PageSize)
		pa += uintptr(mem.PageSize)
	}
	return nil
}

// RawPTE returns the page table entry covering la (creating the backing
// page table frame on demand) for callers outside this package that need to
// read or overwrite its raw bits directly — namely kernel/swap, which
// stores a swap entry in an otherwise non-present PTE.
func RawPTE(pdt PageDirectoryTable, la uintptr, create bool) (*uint32, *kernel.Error) {
	pte, err := getPTE(pdt, la, create)
	if err != nil || pte == nil {
		return nil, err
	}
	return (*uint32)(unsafe.Pointer(pte)), nil
}
