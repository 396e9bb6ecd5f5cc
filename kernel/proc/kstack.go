package proc

import (
	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/mem"
)

// setupKstack allocates a fresh kernel stack for proc: KstackPage contiguous
// frames, reached thereafter only through the direct map, the Go equivalent
// of setup_kstack.
func setupKstack(proc *Proc) *kernel.Error {
	frame, err := allocFramesFn(mem.KstackPage)
	if err != nil {
		return err
	}
	proc.Kstack = pa2kva(uintptr(frameNumberFn(frame)) << mem.PageShift)
	return nil
}

// putKstack frees the kernel stack setupKstack allocated, the Go equivalent
// of put_kstack.
func putKstack(proc *Proc) {
	pa := proc.Kstack - mem.KernBase
	frame := frameAtPaFn(pa)
	freeFramesFn(frame, mem.KstackPage)
	proc.Kstack = 0
}
