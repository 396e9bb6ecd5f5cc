package vmm

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem/pmm"
)

// Map establishes a mapping between virtual page and physical frame within
// pdt, thin sugar over PageInsert for callers working in page-index terms.
func Map(pdt PageDirectoryTable, page Page, frame *pmm.Page, flags Flag) *kernel.Error {
	return PageInsert(pdt, frame, page.Address(), flags)
}

// Unmap removes the mapping (if any) for page within pdt.
func Unmap(pdt PageDirectoryTable, page Page) {
	PageRemove(pdt, page.Address())
}
