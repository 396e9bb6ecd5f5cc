package pmm

import (
	"reflect"
	"unsafe"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/hal/bootinfo"
	"github.com/HachikoT/myos/kernel/mem"
)

// Init lays out the frame descriptor table right after the kernel image
// (mirroring page_init's `pages = ROUNDUP(end, PGSIZE)`), then walks the
// e820 map handed off by the boot sector, reserving every descriptor and
// only releasing the frames that fall in an available region above the
// descriptor table itself.
func Init(kernelEnd uintptr) *kernel.Error {
	reset()

	highest := bootinfo.HighestAvailable(mem.KMemSize)
	if highest == 0 {
		return kernel.NewError(errModule, kernel.KindOutOfMemory, "no usable memory reported by the boot loader")
	}

	numFrames := mem.Size(highest).Pages()

	descBytes := uintptr(numFrames) * pageDescSize
	tableStart := mem.Pa(kernelEnd).RoundUp()

	frames = *(*[]Page)(unsafe.Pointer(&reflect.SliceHeader{
		Data: uintptr(tableStart),
		Len:  int(numFrames),
		Cap:  int(numFrames),
	}))

	for i := range frames {
		frames[i] = Page{}
		frames[i].Flags = FlagReserved
	}

	freeFloor := mem.Pa(uintptr(tableStart) + descBytes).RoundUp()

	bootinfo.VisitRegions(func(r bootinfo.Region) bool {
		if r.Type != bootinfo.RegionAvailable {
			return true
		}

		begin := mem.Pa(uintptr(r.PhysAddr))
		end := mem.Pa(uintptr(r.PhysAddr + r.Length))

		if begin < freeFloor {
			begin = freeFloor
		}
		if end > mem.Pa(uintptr(mem.KMemSize)) {
			end = mem.Pa(uintptr(mem.KMemSize))
		}
		if begin >= end {
			return true
		}

		begin = begin.RoundUp()
		end = end.RoundDown()
		if begin >= end {
			return true
		}

		startFrame := int(begin) >> mem.PageShift
		n := int(end-begin) >> mem.PageShift
		if n > 0 {
			MapFree(startFrame, n)
		}
		return true
	})

	return nil
}

const pageDescSize = uintptr(unsafe.Sizeof(Page{}))
