package swap

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/list"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
	"github.com/HachikoT/myos/kernel/mm"
)

// SwapOut evicts up to n frames from m's working set, the Go equivalent of
// swap_out. inTick distinguishes a call made from the timer-tick-driven
// background reclaim pass from one made synchronously under memory
// pressure; both behave identically here since the swap device is a
// polled, synchronous boundary with nothing to distinguish.
func SwapOut(m *mm.Mm, n int, inTick bool) *kernel.Error {
	st := stateOf(m)
	if st == nil {
		return kernel.NewError(errModule, kernel.KindInvalidArg, "swap_out: mm has no reclaim policy state")
	}
	for i := 0; i < n; i++ {
		if err := swapOutOne(m, st); err != nil {
			return err
		}
	}
	return nil
}

// swapOutOne runs one clock scan to find and evict a single victim frame.
// It walks at most two full laps of the list: Accessed pages are cleared
// and given a second chance on the first lap, guaranteeing every remaining
// page is a candidate by the second.
func swapOutOne(m *mm.Mm, st *mmState) *kernel.Error {
	if st.count == 0 {
		return kernel.NewError(errModule, kernel.KindOutOfMemory, "swap_out: mm has no swappable frames left")
	}

	for i := 0; i < 2*st.count+1; i++ {
		if st.clock == &st.head {
			st.clock = st.head.Next()
			continue
		}
		cur := st.clock
		frame := pmm.PageFromReclaimLink(cur)

		raw, err := rawPTEFn(m.Pdt, frame.ReclaimLA, false)
		if err != nil {
			return err
		}
		if raw == nil {
			return kernel.NewError(errModule, kernel.KindUnspecified, "swap_out: reclaim-listed frame has no backing page table entry")
		}

		if *raw&uint32(vmm.FlagAccessed) != 0 {
			*raw &^= uint32(vmm.FlagAccessed)
			invalidateFn(m.Pdt, frame.ReclaimLA)
			st.clock = cur.Next()
			continue
		}

		return evict(m, st, cur, frame, raw)
	}
	return kernel.NewError(errModule, kernel.KindUnspecified, "swap_out: no victim found after a full clock scan")
}

// evict writes frame's contents to a freshly allocated swap-device slot,
// replaces its PTE with the resulting swap entry, unlinks it from the
// working set and returns the frame to the physical allocator.
func evict(m *mm.Mm, st *mmState, node *list.Node, frame *pmm.Page, raw *uint32) *kernel.Error {
	st.clock = node.Next()
	node.Del()
	st.count--

	offset, err := allocOffset()
	if err != nil {
		return err
	}

	pa := uintptr(frameNumberFn(frame)) << mem.PageShift
	if err := device.WritePage(offset, pageBytesFn(pa2kva(pa))); err != nil {
		freeOffset(offset)
		return err
	}

	*raw = uint32(MakeEntry(offset))
	invalidateFn(m.Pdt, frame.ReclaimLA)
	freeFramesFn(frame, 1)
	return nil
}

// swapIn resolves a fault against a PTE that encodes a swap entry: it reads
// the evicted page back from the device into a freshly allocated frame,
// installs it at la with perm (computed by the page-fault handler from the
// faulting vma's flags), and re-registers the frame with the reclaim
// policy. It is the function kernel/mm.SetSwapIn registers, the Go
// equivalent of the swap_in half of do_pgfault's case 6.
func swapIn(m *mm.Mm, la uintptr, perm vmm.Flag) *kernel.Error {
	raw, err := rawPTEFn(m.Pdt, la, true)
	if err != nil {
		return err
	}
	if raw == nil || !Valid(*raw) {
		return kernel.NewError(errModule, kernel.KindInvalidArg, "swap_in: PTE does not encode a swap entry")
	}
	entry := Entry(*raw)

	frame, err := allocFramesFn(1)
	if err != nil {
		return err
	}
	pa := uintptr(frameNumberFn(frame)) << mem.PageShift

	if err := device.ReadPage(entry.Offset(), pageBytesFn(pa2kva(pa))); err != nil {
		freeFramesFn(frame, 1)
		return err
	}

	if err := pageInsertFn(m.Pdt, frame, la, perm); err != nil {
		freeFramesFn(frame, 1)
		return err
	}
	freeOffset(entry.Offset())

	MapSwappable(m, la, frame, true)
	return nil
}
