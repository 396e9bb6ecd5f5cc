// Package cpu exposes the assembly-backed platform primitives: port I/O,
// control-register access, descriptor-table loads and TLB maintenance. Every
// function here is declared without a body; its implementation lives in
// hand-written 386 assembly that is not part of this retrieval pack.
package cpu

// EnableInterrupts sets EFLAGS.IF (STI).
func EnableInterrupts()

// DisableInterrupts clears EFLAGS.IF (CLI).
func DisableInterrupts()

// InterruptsEnabled reports whether EFLAGS.IF is currently set.
func InterruptsEnabled() bool

// Halt stops instruction execution until the next interrupt (HLT).
func Halt()

// Inb reads a byte from the given I/O port.
func Inb(port uint16) uint8

// Outb writes a byte to the given I/O port.
func Outb(port uint16, val uint8)

// Inl reads a 32-bit word from the given I/O port.
func Inl(port uint16) uint32

// Outl writes a 32-bit word to the given I/O port.
func Outl(port uint16, val uint32)

// ReadCR2 returns the faulting linear address recorded by the last page
// fault.
func ReadCR2() uintptr

// ReadCR3 returns the physical address of the currently active page
// directory.
func ReadCR3() uintptr

// WriteCR3 installs pgdirPhysAddr as the active page directory and flushes
// the entire TLB.
func WriteCR3(pgdirPhysAddr uintptr)

// Invlpg flushes a single TLB entry for the given linear address.
func Invlpg(la uintptr)

// Lgdt loads the GDT register from the descriptor at gdtPtrAddr.
func Lgdt(gdtPtrAddr uintptr)

// Lidt loads the IDT register from the descriptor at idtPtrAddr.
func Lidt(idtPtrAddr uintptr)

// Ltr loads the task register with the given TSS selector.
func Ltr(selector uint16)
