package proc

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/fs"
	"github.com/HachikoT/myos/kernel/gdt"
	"github.com/HachikoT/myos/kernel/irq"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/vmm"
	"github.com/HachikoT/myos/kernel/mm"
)

// ExecMaxArgNum and ExecMaxArgLen bound an exec's argv, as kernel_execve's
// callers assume. original_source references EXEC_MAX_ARG_NUM/LEN without
// ever defining them (no unistd.h survives extraction); these are ordinary
// teaching-OS defaults, not a recovered constant.
const (
	ExecMaxArgNum = 32
	ExecMaxArgLen = 4095
)

// readAt seeks f to offset and fills buf, the Go equivalent of
// load_icode_read.
func readAt(f fs.File, offset int64, buf []byte) *kernel.Error {
	if err := f.Seek(offset); err != nil {
		return err
	}
	n, err := f.Read(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return kernel.NewError(errModule, kernel.KindUnspecified, "short read")
	}
	return nil
}

// loadIcode replaces current's address space with the ELF image behind f,
// the Go equivalent of load_icode: build a fresh mm/pgdir, map and
// populate every PT_LOAD segment, map a UstackSize user stack vma with its
// top four pages pre-allocated, lay argv out
// on top of it, then hand current a trap frame that resumes at the
// binary's entry point in ring 3.
func loadIcode(f fs.File, argv []string) *kernel.Error {
	if current.Mm != nil {
		panic("loadIcode: current.Mm must be empty")
	}

	pdt, err := newAddressSpaceFn()
	if err != nil {
		return err
	}
	cloneKernelSpaceFn(pdt)
	m := mmCreateFn(pdt)

	cleanup := func() {
		exitMmapFn(m)
		freePgdirFn(pdt)
	}

	var hdr elf32Header
	hdrBuf := bytesAt(uintptr(unsafe.Pointer(&hdr)), elf32HeaderSize)
	if err := readAt(f, 0, hdrBuf); err != nil {
		cleanup()
		return err
	}
	if hdr.Magic != elfMagic {
		cleanup()
		return kernel.NewError(errModule, kernel.KindInvalidELF, "bad ELF magic")
	}

	for i := 0; i < int(hdr.Phnum); i++ {
		var ph elf32Phdr
		phBuf := bytesAt(uintptr(unsafe.Pointer(&ph)), elf32PhdrSize)
		off := int64(hdr.Phoff) + int64(elf32PhdrSize)*int64(i)
		if err := readAt(f, off, phBuf); err != nil {
			cleanup()
			return err
		}
		if ph.Type != elfPTLoad {
			continue
		}
		if ph.Filesz > ph.Memsz {
			cleanup()
			return kernel.NewError(errModule, kernel.KindInvalidELF, "segment filesz > memsz")
		}
		if ph.Filesz == 0 {
			continue
		}

		vmFlags := mm.VmFlags(0)
		perm := vmm.FlagUser
		if ph.Flags&elfPFX != 0 {
			vmFlags |= mm.VmExec
		}
		if ph.Flags&elfPFW != 0 {
			vmFlags |= mm.VmWrite
		}
		if ph.Flags&elfPFR != 0 {
			vmFlags |= mm.VmRead
		}
		if vmFlags&mm.VmWrite != 0 {
			perm |= vmm.FlagWrite
		}

		if _, err := m.MmMap(uintptr(ph.Va), ph.Memsz, vmFlags); err != nil {
			cleanup()
			return err
		}

		if err := loadSegment(f, m, perm, ph); err != nil {
			cleanup()
			return err
		}
	}

	vmFlags := mm.VmRead | mm.VmWrite | mm.VmStack
	if _, err := m.MmMap(mem.UstackTop-uintptr(mem.UstackSize), mem.UstackSize, vmFlags); err != nil {
		cleanup()
		return err
	}
	for i := uintptr(1); i <= 4; i++ {
		if _, err := m.AllocPage(mem.UstackTop-i*uintptr(mem.PageSize), vmm.FlagUser|vmm.FlagWrite); err != nil {
			cleanup()
			return err
		}
	}

	m.RefCount++
	current.Mm = m
	current.CR3 = pdt.PhysAddr()
	writeCR3Fn(current.CR3)

	stacktop := layoutArgv(mem.UstackTop, argv)

	tf := &irq.Frame{}
	tf.CS = gdt.UserCodeSelector
	tf.DS, tf.ES, tf.SS = gdt.UserDataSelector, gdt.UserDataSelector, gdt.UserDataSelector
	tf.ESP = uint32(stacktop)
	tf.EIP = hdr.Entry
	tf.EFlags = EFlagsIF
	current.Tf = tf

	return nil
}

// loadSegment reads ph's file-backed bytes into freshly allocated frames,
// zero-filling the bss tail (ph.Memsz - ph.Filesz), page by page, exactly
// as load_icode's two while loops do.
func loadSegment(f fs.File, m *mm.Mm, perm vmm.Flag, ph elf32Phdr) *kernel.Error {
	start := uintptr(ph.Va)
	la := start &^ uintptr(mem.PageMask)
	fileEnd := uintptr(ph.Va + ph.Filesz)
	memEnd := uintptr(ph.Va + ph.Memsz)
	offset := int64(ph.Offset)

	for start < fileEnd {
		frame, err := m.AllocPage(la, perm)
		if err != nil {
			return err
		}
		off := start - la
		size := uintptr(mem.PageSize) - off
		if fileEnd < la+uintptr(mem.PageSize) {
			size -= la + uintptr(mem.PageSize) - fileEnd
		}
		dst := pa2kva(uintptr(frameNumberFn(frame))<<mem.PageShift) + off
		buf := bytesAt(dst, int(size))
		if err := readAt(f, offset, buf); err != nil {
			return err
		}
		start += size
		offset += int64(size)
		la += uintptr(mem.PageSize)
	}

	for start < memEnd {
		frame, err := m.AllocPage(la, perm)
		if err != nil {
			return err
		}
		off := start - la
		size := uintptr(mem.PageSize) - off
		if memEnd < la+uintptr(mem.PageSize) {
			size -= la + uintptr(mem.PageSize) - memEnd
		}
		dst := pa2kva(uintptr(frameNumberFn(frame))<<mem.PageShift) + off
		memsetFn(dst, 0, mem.Size(size))
		start += size
		la += uintptr(mem.PageSize)
	}
	return nil
}

// layoutArgv writes argv's strings and a char*[] pointer table just below
// ustackTop, followed by argc, matching load_icode's uargv construction,
// and returns the resulting stack pointer.
func layoutArgv(ustackTop uintptr, argv []string) uintptr {
	argvSize := 0
	for _, s := range argv {
		argvSize += len(s) + 1
	}

	stacktop := ustackTop - uintptr((argvSize/4+1)*4)
	uargv := stacktop - uintptr(len(argv))*4

	written := uintptr(0)
	for i, s := range argv {
		dst := stacktop + written
		copyString(dst, s)
		*(*uint32)(unsafe.Pointer(uargv + uintptr(i)*4)) = uint32(dst)
		written += uintptr(len(s) + 1)
	}

	stacktop = uargv - 4
	*(*int32)(unsafe.Pointer(stacktop)) = int32(len(argv))
	return stacktop
}

func copyString(dst uintptr, s string) {
	buf := bytesAt(dst, len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
}

// DoExecve replaces current's program image with the ELF binary at path,
// passing argv. The Go equivalent of do_execve: tear down the old address
// space, load the new one, and rename the process after path (truncated to
// nameLen bytes). Like the
// original, a failure past the point of no return kills current instead of
// returning an error.
func DoExecve(path string, argv []string) *kernel.Error {
	if len(argv) < 1 || len(argv) > ExecMaxArgNum {
		return kernel.NewError(errModule, kernel.KindInvalidArg, "bad argc")
	}

	name := path
	if len(name) > nameLen {
		name = name[:nameLen]
	}

	f, ferr := fs.Open(path, fs.ReadOnly)
	if ferr != nil {
		DoExit(ferr.Errno())
		panic("DoExecve: DoExit returned")
	}
	defer f.Close()

	oldmm := current.Mm
	if oldmm != nil {
		writeCR3Fn(bootCR3Fn())
		oldmm.RefCount--
		if oldmm.RefCount == 0 {
			exitMmapFn(oldmm)
			freePgdirFn(oldmm.Pdt)
		}
		current.Mm = nil
	}

	if err := loadIcode(f, argv); err != nil {
		DoExit(err.Errno())
		panic("DoExecve: DoExit returned")
	}

	current.SetName(name)
	return nil
}
