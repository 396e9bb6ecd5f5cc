// Package pmm is the physical frame allocator: a first-fit free-area list
// of page descriptors, one per physical 4KiB frame.
package pmm

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel/list"
)

// Flags records per-frame allocator state.
type Flags uint32

const (
	// FlagReserved marks a descriptor that is not on the free list: either
	// permanently reserved (below the allocatable floor) or currently
	// allocated to a caller.
	FlagReserved Flags = 1 << iota

	// FlagProperty marks the first descriptor of a free run; Property on
	// that descriptor holds the run's length in frames.
	FlagProperty
)

// Page describes one physical page frame. Node must stay the first field:
// pageOf recovers the enclosing Page from a *list.Node via a bare pointer
// conversion, which is only valid when Node sits at offset 0.
type Page struct {
	list.Node

	Ref      int32
	Flags    Flags
	Property uint32

	// ReclaimLink chains this frame into the swap subsystem's clock list
	// when it is swappable; ReclaimLA is the linear address it was last
	// mapped at, needed to find its owning PTE when it is chosen as a
	// victim. Both are unused (ReclaimLink an empty self-linked node) for
	// frames that are never registered with the reclaim policy.
	ReclaimLink list.Node
	ReclaimLA   uintptr
}

func pageOf(n *list.Node) *Page {
	return (*Page)(unsafe.Pointer(n))
}

// PageFromReclaimLink recovers the Page owning a *list.Node obtained by
// walking a list built from ReclaimLink rather than the free-list Node at
// offset 0, the le2page pattern for a struct's second embedded link.
func PageFromReclaimLink(n *list.Node) *Page {
	return (*Page)(unsafe.Pointer(uintptr(unsafe.Pointer(n)) - unsafe.Offsetof(Page{}.ReclaimLink)))
}

// frames is the descriptor array, one entry per frame from 0 to len(frames).
// It is sized and populated by Init.
var frames []Page

// indexOf returns p's position in frames, the frame number it describes.
func indexOf(p *Page) int {
	return int((uintptr(unsafe.Pointer(p)) - uintptr(unsafe.Pointer(&frames[0]))) / unsafe.Sizeof(Page{}))
}

// FrameAt returns the descriptor for the given frame number.
func FrameAt(n int) *Page {
	return &frames[n]
}

// FrameNumber returns p's frame number.
func FrameNumber(p *Page) int {
	return indexOf(p)
}

// NumFrames returns the size of the descriptor table.
func NumFrames() int {
	return len(frames)
}
