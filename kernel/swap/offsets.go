package swap

import "github.com/HachikoT/myos/kernel"

// freeOffsets holds swap-device offsets not currently backing any entry, as
// a LIFO stack; any order works since offsets are otherwise interchangeable,
// and a stack keeps allocation and release both O(1).
var freeOffsets []uint32

// configureOffsets (re)initializes the allocator against a device holding n
// slots; offset 0 is never added, so it can never be allocated.
func configureOffsets(n uint32) {
	freeOffsets = freeOffsets[:0]
	for off := n; off > 1; off-- {
		freeOffsets = append(freeOffsets, off-1)
	}
}

func allocOffset() (uint32, *kernel.Error) {
	if len(freeOffsets) == 0 {
		return 0, kernel.NewError(errModule, kernel.KindOutOfMemory, "swap device has no free slots")
	}
	off := freeOffsets[len(freeOffsets)-1]
	freeOffsets = freeOffsets[:len(freeOffsets)-1]
	return off, nil
}

func freeOffset(off uint32) {
	freeOffsets = append(freeOffsets, off)
}
