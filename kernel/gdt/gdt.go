// Package gdt installs the global descriptor table: flat kernel/user code
// and data segments plus the single task-state segment used to hold the
// per-process kernel stack pointer (SS0:ESP0) that the CPU loads on every
// ring 3 -> ring 0 transition.
package gdt

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel/cpu"
)

// Segment selectors. Each index corresponds to a slot in table; the low
// three bits (RPL/TI) are fixed up by selector().
const (
	SegNull = iota
	SegKernelCode
	SegKernelData
	SegUserCode
	SegUserData
	SegTSS
	segCount
)

// Selector values as loaded into CS/DS/ES/SS/... Ring 3 selectors carry an
// RPL of 3 in their low two bits.
const (
	KernelCodeSelector = SegKernelCode << 3
	KernelDataSelector = SegKernelData << 3
	UserCodeSelector   = (SegUserCode << 3) | 3
	UserDataSelector   = (SegUserData << 3) | 3
	TSSSelector        = SegTSS << 3
)

// Segment type bits, as defined for non-system descriptors.
const (
	typeExecutable = 0x8
	typeWritable   = 0x2
	typeReadable   = 0x2

	typeCode = typeExecutable | typeReadable
	typeData = typeWritable

	typeTSS32 = 0x9 // 32-bit TSS, available
)

// desc is the 8-byte x86 segment descriptor: limit, base, type/flags, laid
// out exactly as the CPU expects it in the GDT.
type desc struct {
	limitLow  uint16
	baseLow   uint16
	baseMid   uint8
	access    uint8
	limitHigh uint8 // low nibble: limit bits 19:16; high nibble: flags (G, D/B, L, AVL)
	baseHigh  uint8
}

func newDesc(base uint32, limit uint32, access uint8, flags uint8) desc {
	return desc{
		limitLow:  uint16(limit & 0xffff),
		baseLow:   uint16(base & 0xffff),
		baseMid:   uint8((base >> 16) & 0xff),
		access:    access,
		limitHigh: uint8((limit>>16)&0xf) | (flags << 4),
		baseHigh:  uint8((base >> 24) & 0xff),
	}
}

// flat32 builds a 4GiB, page-granular, 32-bit descriptor of the given type
// and descriptor privilege level, the shape used for every segment except
// the TSS.
func flat32(segType uint8, dpl uint8) desc {
	const (
		present    = 1 << 7
		application = 1 << 4 // S bit: 1 = code/data, 0 = system
		granularity = 1 << 3 // limit scaled by 4K
		size32      = 1 << 2 // D/B: 32-bit segment
	)
	access := present | application | (dpl << 5) | segType
	flags := uint8(granularity | size32)
	return newDesc(0, 0xfffff, access, flags)
}

func systemDesc(base uint32, limit uint32, segType uint8, dpl uint8) desc {
	const present = 1 << 7
	access := present | (dpl << 5) | segType
	return newDesc(base, limit, access, 0)
}

// tss is the 32-bit task state segment. Only ss0/esp0 (the ring 0 stack
// loaded on a privilege-level change) and the I/O bitmap offset are used;
// hardware task switching is never invoked.
type tss struct {
	linkPrev uint32
	esp0     uint32
	ss0      uint32
	esp1     uint32
	ss1      uint32
	esp2     uint32
	ss2      uint32
	cr3      uint32
	eip      uint32
	eflags   uint32
	eax, ecx, edx, ebx uint32
	esp, ebp           uint32
	esi, edi           uint32
	es, cs, ss, ds, fs, gs uint32
	ldt      uint32
	trapBit  uint16
	ioMapOff uint16
}

// pointer mirrors the operand of LGDT/LIDT: a 16-bit limit followed by a
// 32-bit linear base address.
type pointer struct {
	limit uint16
	base  uint32
}

var (
	table [segCount]desc
	kTSS  tss
	ptr   pointer
)

// Init builds the GDT and TSS and installs both with LGDT/LTR. kernStackTop
// is the initial ring-0 stack pointer; SetKernelStack updates it on every
// context switch to a different process.
func Init(kernStackTop uintptr) {
	table[SegNull] = desc{}
	table[SegKernelCode] = flat32(typeCode, 0)
	table[SegKernelData] = flat32(typeData, 0)
	table[SegUserCode] = flat32(typeCode, 3)
	table[SegUserData] = flat32(typeData, 3)

	kTSS = tss{}
	kTSS.ss0 = KernelDataSelector
	kTSS.esp0 = uint32(kernStackTop)
	kTSS.ioMapOff = uint16(unsafe.Sizeof(tss{}))

	table[SegTSS] = systemDesc(uint32(uintptr(unsafe.Pointer(&kTSS))), uint32(unsafe.Sizeof(tss{})-1), typeTSS32, 0)

	ptr = pointer{
		limit: uint16(unsafe.Sizeof(table) - 1),
		base:  uint32(uintptr(unsafe.Pointer(&table[0]))),
	}

	cpu.Lgdt(uintptr(unsafe.Pointer(&ptr)))
	cpu.Ltr(TSSSelector)
}

// SetKernelStack updates the ring-0 stack pointer the CPU will switch to on
// the next ring 3 -> ring 0 transition (syscall, interrupt, exception). It
// must be called whenever the scheduler switches to a different process.
func SetKernelStack(top uintptr) {
	kTSS.esp0 = uint32(top)
}
