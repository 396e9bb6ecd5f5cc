package vmm

import (
	"github.com/HachikoT/myos/kernel/cpu"
	"github.com/HachikoT/myos/kernel/mem"
)

var (
	// the following are mocked by tests; in the kernel binary they are
	// automatically inlined.
	switchPDTFn    = cpu.WriteCR3
	activePDTFn    = cpu.ReadCR3
	invalidatePgFn = cpu.Invlpg
)

// flushTLBIfActive invalidates the TLB entry for la only if pdt is the page
// directory table currently loaded in CR3, mirroring tlb_invalidate's guard
// against flushing entries that belong to an inactive address space.
func flushTLBIfActive(pdt PageDirectoryTable, la uintptr) {
	if activePDTFn() == pdt.pdtFrame<<mem.PageShift {
		invalidatePgFn(la)
	}
}

// InvalidatePage flushes the TLB entry for la if pdt is active. Exported for
// kernel/swap, which mutates PTE bits directly via RawPTE (clearing the
// Accessed bit during a clock scan, or replacing a present mapping with a
// swap entry) and must invalidate the stale translation itself.
func InvalidatePage(pdt PageDirectoryTable, la uintptr) {
	flushTLBIfActive(pdt, la)
}
