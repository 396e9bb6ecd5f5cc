package proc

import "github.com/HachikoT/myos/kernel"

// setupPgdir gives proc its own page directory: a fresh table whose kernel
// half is a copy of the boot page directory, so the kernel stays reachable
// the instant CR3 switches to it. The Go equivalent of setup_pgdir.
func setupPgdir(proc *Proc) *kernel.Error {
	pdt, err := newAddressSpaceFn()
	if err != nil {
		return err
	}
	cloneKernelSpaceFn(pdt)
	proc.CR3 = pdt.PhysAddr()
	proc.Mm = mmCreateFn(pdt)
	return nil
}

// putPgdir releases the mm setupPgdir installed: every vma's frames, then
// the page-directory frame itself. The Go equivalent of exit_mmap followed
// by put_pgdir.
func putPgdir(proc *Proc) {
	if proc.Mm != nil {
		exitMmapFn(proc.Mm)
		freePgdirFn(proc.Mm.Pdt)
		proc.Mm = nil
	}
}
