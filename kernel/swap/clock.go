package swap

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/list"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mm"
)

// mmState is the per-address-space reclaim state (mm_struct.sm_priv): a
// circular list of swappable frames in insertion order, plus a clock hand
// recording where the next scan resumes.
type mmState struct {
	head  list.Node
	clock *list.Node
	count int
}

// InitMm attaches fresh reclaim-policy state to m, the Go equivalent of
// init_mm. Call it once per address space before any of its pages are
// registered as swappable.
func InitMm(m *mm.Mm) {
	st := &mmState{}
	st.head.Init()
	st.clock = &st.head
	m.SwapPriv = st
}

func stateOf(m *mm.Mm) *mmState {
	st, _ := m.SwapPriv.(*mmState)
	return st
}

// MapSwappable enters frame, mapped at la within m, into the reclaim
// policy's working set. canSwap mirrors the original signature's ability to
// register a frame that must never be evicted (a canSwap=false page is
// simply not linked in); every frame this kernel hands to pgdir_alloc_page
// is swappable, so the only real caller always passes true.
func MapSwappable(m *mm.Mm, la uintptr, frame *pmm.Page, canSwap bool) {
	if !canSwap {
		return
	}
	st := stateOf(m)
	if st == nil {
		return
	}
	frame.ReclaimLink.Init()
	frame.ReclaimLA = la
	st.head.AddBefore(&frame.ReclaimLink)
	st.count++
}

// SetUnswappable removes the frame mapped at la within m from the reclaim
// policy's working set, e.g. before a caller pins it for I/O that must not
// race with eviction.
func SetUnswappable(m *mm.Mm, la uintptr) *kernel.Error {
	st := stateOf(m)
	if st == nil {
		return nil
	}

	pa, err := translateFn(m.Pdt, la)
	if err != nil {
		return err
	}
	frame := frameAtFn(int(pa >> mem.PageShift))

	if st.clock == &frame.ReclaimLink {
		st.clock = frame.ReclaimLink.Next()
	}
	frame.ReclaimLink.Del()
	st.count--
	return nil
}
