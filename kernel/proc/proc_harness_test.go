package proc

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
	"github.com/HachikoT/myos/kernel/mm"
)

// installFakes overrides every hardware/mm-layer seam this package defines
// (kernel/proc/mockable.go) with trivial in-process fakes, so fork/exit/wait
// can be exercised without a real direct map, frame allocator or page
// tables. It returns a restore func, the same harness-installer shape
// kernel/swap and kernel/mm use.
func installFakes() func() {
	origAllocFrames, origFreeFrames, origFrameNumber, origFrameAtPa :=
		allocFramesFn, freeFramesFn, frameNumberFn, frameAtPaFn
	origNewAS, origCloneKS, origFreePgdir, origBootCR3 :=
		newAddressSpaceFn, cloneKernelSpaceFn, freePgdirFn, bootCR3Fn
	origMmCreate, origDupMmap, origExitMmap := mmCreateFn, dupMmapFn, exitMmapFn
	origMemset, origMemcopy := memsetFn, memcopyFn
	origWriteCR3 := writeCR3Fn
	origPa2kva := pa2kva

	backing := map[int][]byte{}
	nextFrame := 0

	allocFramesFn = func(n int) (*pmm.Page, *kernel.Error) {
		nextFrame++
		id := nextFrame
		backing[id] = make([]byte, int(mem.PageSize)*n)
		p := &pmm.Page{}
		framesOf[p] = id
		return p, nil
	}
	freeFramesFn = func(base *pmm.Page, n int) {
		delete(backing, framesOf[base])
		delete(framesOf, base)
	}
	frameNumberFn = func(p *pmm.Page) int { return framesOf[p] }
	frameAtPaFn = func(pa uintptr) *pmm.Page { return &pmm.Page{} }

	newAddressSpaceFn = func() (vmm.PageDirectoryTable, *kernel.Error) {
		return vmm.PageDirectoryTable{}, nil
	}
	cloneKernelSpaceFn = func(vmm.PageDirectoryTable) {}
	freePgdirFn = func(vmm.PageDirectoryTable) {}
	bootCR3Fn = func() uintptr { return 0 }

	mmCreateFn = mm.NewMm
	dupMmapFn = func(to, from *mm.Mm) *kernel.Error { return nil }
	exitMmapFn = func(m *mm.Mm) {}

	memsetFn = func(addr uintptr, value byte, size mem.Size) {}
	memcopyFn = func(src, dst uintptr, size mem.Size) {}
	writeCR3Fn = func(uintptr) {}
	pa2kva = func(pa uintptr) uintptr {
		buf := backing[int(pa>>mem.PageShift)]
		return uintptr(unsafe.Pointer(&buf[0])) + pa&uintptr(mem.PageMask)
	}

	return func() {
		allocFramesFn, freeFramesFn, frameNumberFn, frameAtPaFn =
			origAllocFrames, origFreeFrames, origFrameNumber, origFrameAtPa
		newAddressSpaceFn, cloneKernelSpaceFn, freePgdirFn, bootCR3Fn =
			origNewAS, origCloneKS, origFreePgdir, origBootCR3
		mmCreateFn, dupMmapFn, exitMmapFn = origMmCreate, origDupMmap, origExitMmap
		memsetFn, memcopyFn = origMemset, origMemcopy
		writeCR3Fn = origWriteCR3
		pa2kva = origPa2kva
	}
}

// framesOf maps a fake frame's identity to the id installFakes assigned it,
// since *pmm.Page carries no usable field when never pushed through the
// real allocator.
var framesOf = map[*pmm.Page]int{}

// resetProcState clears every package-level registry var between tests,
// since they are process-global singletons production code never resets.
// The two list.Node sentinels are self-referential, so they are reset by
// re-Init()ing rather than saved and restored by value.
func resetProcState() func() {
	origNProcess, origLastPid, origNextSafe := nProcess, lastPid, nextSafe
	origIdle, origInit, origCurrent := idleProc, initProc, current
	origSchedule, origWakeup := scheduleFn, wakeupProcFn

	procList.Init()
	for i := range hashList {
		hashList[i].Init()
	}
	nProcess = 0
	lastPid, nextSafe = MaxPid, MaxPid
	idleProc, initProc, current = nil, nil, nil
	scheduleFn, wakeupProcFn = nil, nil

	return func() {
		procList.Init()
		for i := range hashList {
			hashList[i].Init()
		}
		nProcess, lastPid, nextSafe = origNProcess, origLastPid, origNextSafe
		idleProc, initProc, current = origIdle, origInit, origCurrent
		scheduleFn, wakeupProcFn = origSchedule, origWakeup
	}
}

// newTestProc allocates and publishes (pid, hash, tree links) a bare Proc
// under parent, bypassing DoFork's kstack/mm/trapframe setup for tests that
// only care about the process tree and registry.
func newTestProc(parentPid int) *Proc {
	p := allocProc()
	p.ParentPid = parentPid
	p.Pid = getPid()
	hashProc(p)
	setLinks(p)
	return p
}
