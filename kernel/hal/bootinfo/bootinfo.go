// Package bootinfo decodes the BIOS E820 memory map that the boot sector
// leaves behind before switching the CPU into protected mode. Unlike a
// GRUB/multiboot kernel, a boot-sector kernel has no tagged info structure:
// the loader probes memory with INT 0x15, EAX=0xE820 and stores the results
// as a flat, fixed-layout table at a well-known physical address before
// jumping to the kernel entry point.
package bootinfo

import "unsafe"

const (
	// maxEntries bounds the number of regions the boot sector records.
	maxEntries = 20

	// defaultTableAddr is the physical address (already covered by the
	// direct map) at which the boot sector leaves the e820 table.
	defaultTableAddr = 0x8000
)

// RegionType classifies a memory region reported by the E820 probe.
type RegionType uint32

// Region types as reported by the BIOS E820 call.
const (
	// RegionAvailable marks memory usable for general allocation.
	RegionAvailable RegionType = 1

	// RegionReserved marks memory that must never be handed to the
	// frame allocator.
	RegionReserved RegionType = 2
)

// entry mirrors the 20-byte packed record the boot sector writes per probed
// range: base address, length and type, all little-endian. The 64-bit
// fields are held as 32-bit halves so the record stays 20 bytes with no
// padding on every architecture.
type entry struct {
	addrLow, addrHigh uint32
	sizeLow, sizeHigh uint32
	kind              uint32
}

// table mirrors the boot sector's e820map layout: an entry count followed by
// up to maxEntries fixed-size records.
type table struct {
	count uint32
	_     [4]byte // padding to align entries on an 8-byte boundary
	ents  [maxEntries]entry
}

var tableAddr uintptr = defaultTableAddr

// SetTableAddr overrides the physical address of the e820 table. Tests use
// this to point at a synthetic table; production boot uses the default.
func SetTableAddr(addr uintptr) {
	tableAddr = addr
}

// Region describes one memory range reported by the firmware.
type Region struct {
	PhysAddr uint64
	Length   uint64
	Type     RegionType
}

// RegionVisitor is invoked once per memory region. Returning false stops the
// scan early.
type RegionVisitor func(r Region) bool

// VisitRegions invokes visitor for every region in the e820 table in the
// order the firmware reported them.
func VisitRegions(visitor RegionVisitor) {
	t := (*table)(unsafe.Pointer(tableAddr))
	n := int(t.count)
	if n > maxEntries {
		n = maxEntries
	}
	for i := 0; i < n; i++ {
		e := t.ents[i]
		kind := RegionType(e.kind)
		if kind != RegionAvailable {
			kind = RegionReserved
		}
		addr := uint64(e.addrHigh)<<32 | uint64(e.addrLow)
		size := uint64(e.sizeHigh)<<32 | uint64(e.sizeLow)
		if !visitor(Region{PhysAddr: addr, Length: size, Type: kind}) {
			return
		}
	}
}

// HighestAvailable returns the exclusive end address of the highest
// available region reported, capped at capBytes. This is the bound the
// frame allocator uses to size its page-descriptor table.
func HighestAvailable(capBytes uint64) uint64 {
	var maxEnd uint64
	VisitRegions(func(r Region) bool {
		if r.Type != RegionAvailable {
			return true
		}
		end := r.PhysAddr + r.Length
		if end > maxEnd && r.PhysAddr < capBytes {
			maxEnd = end
		}
		return true
	})
	if maxEnd > capBytes {
		maxEnd = capBytes
	}
	return maxEnd
}
