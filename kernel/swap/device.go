package swap

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mm"
)

// Device is the block-addressable swap backing store boundary: the disk is
// treated strictly as a sequence of PageSize-sized slots, one per swap-entry
// offset. The filesystem, VFS and IDE driver that would actually implement
// this are out of scope; kernel/swap only needs this narrow contract, the
// Go equivalent of swapfs_read/swapfs_write's (entry, page) interface.
type Device interface {
	// PageCount returns the number of slots the device holds. Valid swap
	// offsets are [1, PageCount); offset 0 is reserved.
	PageCount() uint32
	// ReadPage fills dst, which is exactly one page long, from the slot at
	// offset.
	ReadPage(offset uint32, dst []byte) *kernel.Error
	// WritePage writes src, exactly one page long, to the slot at offset.
	WritePage(offset uint32, src []byte) *kernel.Error
}

var device Device

// Init wires the reclaim policy into kernel/mm's page-fault and
// frame-installation hooks and configures the swap-entry allocator against
// dev. Call it once, after kernel/mm.Init, before any user process can
// fault.
func Init(dev Device) {
	device = dev
	configureOffsets(dev.PageCount())
	mm.SetMapSwappable(func(m *mm.Mm, la uintptr, frame *pmm.Page) {
		MapSwappable(m, la, frame, true)
	})
	mm.SetSwapIn(swapIn)
}
