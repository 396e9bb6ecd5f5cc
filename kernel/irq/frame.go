// Package irq dispatches the 386 trap/interrupt/syscall gate table: it owns
// the IDT, the 32-bit trap frame layout the CPU (and the stub vector table)
// leaves on the kernel stack, and the handler registry that trap_dispatch
// consults.
package irq

import "github.com/HachikoT/myos/kernel/kfmt"

// Number identifies an IDT slot: a CPU exception, the syscall gate or a
// remapped hardware IRQ.
type Number uint32

// Processor-defined exception vectors.
const (
	DivideError     = Number(0)
	Debug           = Number(1)
	NMI             = Number(2)
	Breakpoint      = Number(3)
	Overflow        = Number(4)
	BoundsCheck     = Number(5)
	IllegalOpcode   = Number(6)
	DeviceNA        = Number(7)
	DoubleFault     = Number(8)
	InvalidTSS      = Number(10)
	SegmentNP       = Number(11)
	StackFault      = Number(12)
	GeneralProtect  = Number(13)
	PageFault       = Number(14)
	FloatingPoint   = Number(16)
	AlignmentCheck  = Number(17)
	MachineCheck    = Number(18)
	SIMDFloat       = Number(19)
)

// Syscall is the software interrupt vector user code raises to enter the
// kernel.
const Syscall = Number(0x80)

// IRQOffset is the vector the master PIC's IRQ 0 is remapped to; IRQ n
// arrives as vector IRQOffset+n.
const IRQOffset = 32

// IRQ line numbers (pre-remap), the same assignment the 8259A wiring uses.
const (
	IRQTimer = 0
	IRQKbd   = 1
	IRQSlave = 2
	IRQCOM1  = 4
	IRQIDE1  = 14
	IRQIDE2  = 15
)

// Registers mirrors the "pushal" block the vector stub saves before calling
// into Go: all eight general-purpose registers in the fixed pushal order.
// ESP here is the value PUSHAL recorded before it moved the stack pointer;
// POPAL discards it on return rather than restoring ESP from it.
type Registers struct {
	EDI, ESI, EBP, ESP uint32
	EBX, EDX, ECX, EAX uint32
}

// Frame is the full 32-bit trap frame as it sits on the kernel stack when a
// Go handler runs: the pushed GP registers, the four segment selectors the
// stub saves, the trap number and (for exceptions that define one) the
// hardware error code, followed by the CPU-pushed return frame. Esp and Ss
// are only valid when the trap crossed a privilege-level change (Cs&3 != 0
// at entry); trap_dispatch never reads them in the kernel-to-kernel case.
type Frame struct {
	Regs Registers

	GS, FS, ES, DS uint32

	TrapNo uint32
	ErrCode uint32

	EIP    uint32
	CS     uint32
	EFlags uint32

	ESP uint32
	SS  uint32
}

// InKernelMode reports whether the trapped context was already running in
// ring 0.
func (f *Frame) InKernelMode() bool {
	return f.CS&0x3 == 0
}

// DumpTo prints a register/frame dump in the teacher's cprintf-derived
// format, used by the default unhandled-trap path and by fatal page faults.
func (f *Frame) DumpTo() {
	kfmt.Printf("trap frame:\n")
	kfmt.Printf("  edi %8x esi %8x ebp %8x\n", f.Regs.EDI, f.Regs.ESI, f.Regs.EBP)
	kfmt.Printf("  ebx %8x edx %8x ecx %8x eax %8x\n", f.Regs.EBX, f.Regs.EDX, f.Regs.ECX, f.Regs.EAX)
	kfmt.Printf("  ds %4x es %4x fs %4x gs %4x\n", f.DS, f.ES, f.FS, f.GS)
	kfmt.Printf("  trap %8x err %8x\n", f.TrapNo, f.ErrCode)
	kfmt.Printf("  eip %8x cs %4x eflags %8x\n", f.EIP, f.CS, f.EFlags)
	if !f.InKernelMode() {
		kfmt.Printf("  esp %8x ss %4x\n", f.ESP, f.SS)
	}
}
