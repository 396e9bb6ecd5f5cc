package vmm

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
)

// ErrInvalidMapping is returned when trying to look up a virtual address
// that has no present mapping.
var ErrInvalidMapping = &kernel.Error{Module: "vmm", Message: "virtual address does not point to a mapped physical page", Kind: kernel.KindInvalidArg}

// Flag describes a bit of a page directory or page table entry. The layout
// matches the 386 PDE/PTE format (present, writable, user, write-through,
// cache-disable, accessed, dirty), plus one software-defined bit reused for
// copy-on-write bookkeeping.
type Flag uint32

const (
	// FlagPresent is set when the entry points to a page or table in memory.
	FlagPresent Flag = 1 << iota

	// FlagWrite allows writes to the mapped page.
	FlagWrite

	// FlagUser allows ring-3 access to the mapped page.
	FlagUser

	// FlagWriteThrough selects write-through caching for the mapped page.
	FlagWriteThrough

	// FlagCacheDisable disables caching for the mapped page.
	FlagCacheDisable

	// FlagAccessed is set by the CPU on first access.
	FlagAccessed

	// FlagDirty is set by the CPU on first write (PTE only).
	FlagDirty
)

// FlagCopyOnWrite is a software-defined bit (within the AVL range reserved
// for OS use) marking a read-only page that should be duplicated on write.
const FlagCopyOnWrite Flag = 1 << 9

// pageTableEntry is a raw 32-bit page directory or page table entry.
type pageTableEntry uint32

// HasFlags reports whether all of flags are set.
func (pte pageTableEntry) HasFlags(flags Flag) bool {
	return uint32(pte)&uint32(flags) == uint32(flags)
}

// SetFlags sets flags on the entry.
func (pte *pageTableEntry) SetFlags(flags Flag) {
	*pte |= pageTableEntry(flags)
}

// ClearFlags clears flags on the entry.
func (pte *pageTableEntry) ClearFlags(flags Flag) {
	*pte &^= pageTableEntry(flags)
}

// Addr returns the physical address this entry points to, stripping flag bits.
func (pte pageTableEntry) Addr() uintptr {
	return uintptr(pte) &^ uintptr(mem.PageMask)
}

// SetAddr updates the physical address this entry points to, preserving flags.
func (pte *pageTableEntry) SetAddr(pa uintptr) {
	*pte = pageTableEntry(pa&^uintptr(mem.PageMask)) | (*pte & pageTableEntry(mem.PageMask))
}

// Raw returns the entry's underlying bit pattern, used by kernel/swap to
// store a swap entry in an otherwise non-present PTE.
func (pte pageTableEntry) Raw() uint32 { return uint32(pte) }
