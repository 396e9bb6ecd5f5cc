package pmm

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/list"
)

const errModule = "pmm"

var (
	freeList list.Node
	numFree  uint32
)

// reset re-initializes the free list; used by Init and by tests that need a
// clean allocator between cases.
func reset() {
	freeList.Init()
	numFree = 0
}

func init() {
	reset()
}

// MapFree adds the n frames starting at frame index base to the free list
// as a single run, the equivalent of ff_mem_map_init for one contiguous
// region. Callers invoke this once per available e820 region at boot.
func MapFree(base, n int) {
	if n == 0 {
		return
	}
	for i := base; i < base+n; i++ {
		p := &frames[i]
		p.Ref = 0
		p.Flags = FlagProperty
		p.Property = 0
		freeList.AddBefore(&p.Node)
	}
	numFree += uint32(n)
	frames[base].Property = uint32(n)
}

// AllocFrames finds the first free run of at least n contiguous frames,
// splits off any excess and returns the first frame of the allocated run.
func AllocFrames(n int) (*Page, *kernel.Error) {
	if n <= 0 {
		return nil, kernel.NewError(errModule, kernel.KindInvalidArg, "frame count must be positive")
	}
	if uint32(n) > numFree {
		return nil, kernel.NewError(errModule, kernel.KindOutOfMemory, "no contiguous free run large enough")
	}

	le := &freeList
	for le = le.Next(); le != &freeList; {
		p := pageOf(le)
		if p.Property >= uint32(n) {
			for i := 0; i < n; i++ {
				pp := pageOf(le)
				pp.Flags |= FlagReserved
				pp.Flags &^= FlagProperty
				next := le.Next()
				le.Del()
				le = next
			}
			if p.Property > uint32(n) {
				pageOf(le).Property = p.Property - uint32(n)
			}
			numFree -= uint32(n)
			return p, nil
		}
		le = le.Next()
	}
	return nil, kernel.NewError(errModule, kernel.KindOutOfMemory, "no contiguous free run large enough")
}

// FreeFrames returns n frames starting at base to the free list, inserting
// them in frame-number order and coalescing with the adjacent runs on
// either side, mirroring ff_free_pages.
func FreeFrames(base *Page, n int) {
	if n <= 0 {
		panic("pmm: free count must be positive")
	}
	if base.Flags&FlagReserved == 0 {
		panic("pmm: freeing a frame that isn't reserved")
	}

	baseIdx := indexOf(base)

	le := &freeList
	var p *Page
	for le = le.Next(); le != &freeList; le = le.Next() {
		p = pageOf(le)
		if indexOf(p) > baseIdx {
			break
		}
	}
	insertBefore := le

	for i := 0; i < n; i++ {
		f := &frames[baseIdx+i]
		f.Flags &^= FlagReserved
		insertBefore.AddBefore(&f.Node)
	}

	base.Flags = FlagProperty
	base.Ref = 0
	base.Property = uint32(n)

	// merge with the following run if it starts immediately after this one.
	if insertBefore != &freeList {
		following := pageOf(insertBefore)
		if indexOf(following) == baseIdx+n {
			base.Property += following.Property
			following.Property = 0
		}
	}

	// merge with the preceding run if it ends immediately before this one.
	prevNode := base.Node.Prev()
	if prevNode != &freeList {
		prev := pageOf(prevNode)
		if indexOf(prev) == baseIdx-1 {
			for node := prevNode; node != &freeList; node = node.Prev() {
				pp := pageOf(node)
				if pp.Property != 0 {
					pp.Property += base.Property
					base.Property = 0
					break
				}
			}
		}
	}

	numFree += uint32(n)
}

// NumFreeFrames returns the number of frames currently on the free list.
func NumFreeFrames() uint32 {
	return numFree
}
