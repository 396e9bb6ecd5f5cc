package vmm

import "github.com/HachikoT/myos/kernel/mem"

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual memory address pointed to by this Page.
func (p Page) Address() uintptr {
	return uintptr(p << mem.PageShift)
}

// PageFromAddress returns the Page that contains the given virtual address,
// rounding down if the address is not page-aligned.
func PageFromAddress(virtAddr uintptr) Page {
	return Page((virtAddr &^ uintptr(mem.PageMask)) >> mem.PageShift)
}

const (
	// pdShift/ptShift split a 386 linear address into PDX/PTX/offset per
	// original_source/kern/mm/mmu.h.
	pdShift = 22
	ptShift = 12

	pdMask = 0x3FF
	ptMask = 0x3FF
)

// pdIndex returns the page directory index (PDX) for la.
func pdIndex(la uintptr) uintptr {
	return (la >> pdShift) & pdMask
}

// ptIndex returns the page table index (PTX) for la.
func ptIndex(la uintptr) uintptr {
	return (la >> ptShift) & ptMask
}
