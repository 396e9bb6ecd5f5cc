package irq

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel/cpu"
	"github.com/HachikoT/myos/kernel/gdt"
)

// Gate descriptor types understood by SetGate.
const (
	gateType32Interrupt = 0xE
	gateType32Trap      = 0xF
)

// gateDesc is the 8-byte IDT gate descriptor: split entry-point offset,
// segment selector, type/DPL/present byte.
type gateDesc struct {
	offsetLow  uint16
	selector   uint16
	reserved   uint8
	typeAttr   uint8
	offsetHigh uint16
}

func newGate(offset uintptr, selector uint16, gateType uint8, dpl uint8) gateDesc {
	const present = 1 << 7
	return gateDesc{
		offsetLow:  uint16(offset & 0xffff),
		selector:   selector,
		reserved:   0,
		typeAttr:   present | (dpl << 5) | gateType,
		offsetHigh: uint16((offset >> 16) & 0xffff),
	}
}

type idtPointer struct {
	limit uint16
	base  uint32
}

const numVectors = 256

var (
	idt [numVectors]gateDesc
	ptr idtPointer

	excHandlers     [numVectors]ExceptionHandler
	excCodeHandlers [numVectors]ExceptionHandlerWithCode
	irqHandlers     [numVectors]IRQHandler
)

// ExceptionHandler handles an exception vector that pushes no error code.
type ExceptionHandler func(*Frame)

// ExceptionHandlerWithCode handles an exception vector that pushes a
// hardware error code (8, 10-14, 17).
type ExceptionHandlerWithCode func(errCode uint32, f *Frame)

// IRQHandler handles a remapped hardware interrupt vector.
type IRQHandler func(*Frame)

// vectorEntry returns the entry point address of the assembly stub for the
// given vector. The stub table itself is hand-written assembly (256
// four-or-five-byte "push vector; jmp common_stub" trampolines, mirroring
// the original __vectors array) that is not part of this retrieval pack.
func vectorEntry(vec Number) uintptr

// Init builds the 256-entry IDT (every vector routed through the shared
// assembly stub table at Init time) and loads it with LIDT. User code is
// only ever allowed to raise vector Syscall directly (DPL 3); every other
// gate stays at DPL 0 so a ring-3 INT instruction targeting it faults.
func Init() {
	for v := 0; v < numVectors; v++ {
		dpl := uint8(0)
		if Number(v) == Syscall {
			dpl = 3
		}
		idt[v] = newGate(vectorEntry(Number(v)), gdt.KernelCodeSelector, gateType32Interrupt, dpl)
	}

	ptr = idtPointer{
		limit: uint16(unsafe.Sizeof(idt) - 1),
		base:  uint32(uintptr(unsafe.Pointer(&idt[0]))),
	}
	cpu.Lidt(uintptr(unsafe.Pointer(&ptr)))
}

// HandleException registers a handler for an exception vector that carries
// no hardware error code.
func HandleException(num Number, handler ExceptionHandler) {
	excHandlers[num] = handler
}

// HandleExceptionWithCode registers a handler for an exception vector whose
// gate pushes a hardware error code.
func HandleExceptionWithCode(num Number, handler ExceptionHandlerWithCode) {
	excCodeHandlers[num] = handler
}

// HandleIRQ registers a handler for a remapped hardware interrupt line.
func HandleIRQ(line uint8, handler IRQHandler) {
	irqHandlers[IRQOffset+line] = handler
}

// carriesErrorCode reports whether the CPU automatically pushes an error
// code for this exception vector.
func carriesErrorCode(num Number) bool {
	switch num {
	case DoubleFault, InvalidTSS, SegmentNP, StackFault, GeneralProtect, PageFault, AlignmentCheck:
		return true
	default:
		return false
	}
}

// trapHookFn, once registered, wraps every trapDispatch the way trap()
// wraps trap_dispatch in the original: chaining the interrupted process's
// trap frame and, on return from a user-mode trap, checking for a pending
// exit or reschedule. kernel/proc installs this during Init; this package
// cannot import kernel/proc directly (kernel/proc.Proc.Tf is a *Frame, so
// the import would cycle), so it is wired through this registration hook
// the same way kernel/swap registers into kernel/mm. Left nil, dispatch
// runs the handler directly — the case for every trap taken before
// kernel/proc.Init runs.
var trapHookFn func(f *Frame, run func())

// SetTrapHook registers the process-aware trap wrapper.
func SetTrapHook(fn func(f *Frame, run func())) { trapHookFn = fn }

// dispatch is called by the shared assembly stub with a pointer to the
// trap frame it built on the kernel stack. It is the Go-side equivalent of
// trap(): run trapDispatch, wrapped by trapHookFn when one is registered.
//go:redirect-from irq_common_stub
func dispatch(f *Frame) {
	if trapHookFn != nil {
		trapHookFn(f, func() { trapDispatch(f) })
		return
	}
	trapDispatch(f)
}

// trapDispatch routes by vector number to the registered handler, falling
// back to a frame dump for anything unregistered. The Go equivalent of
// trap_dispatch.
func trapDispatch(f *Frame) {
	num := Number(f.TrapNo)

	switch {
	case num == Syscall:
		if h := excHandlers[num]; h != nil {
			h(f)
			return
		}
	case num >= IRQOffset && int(num) < len(irqHandlers):
		if h := irqHandlers[num]; h != nil {
			h(f)
			return
		}
	case carriesErrorCode(num):
		if h := excCodeHandlers[num]; h != nil {
			h(f.ErrCode, f)
			return
		}
	default:
		if h := excHandlers[num]; h != nil {
			h(f)
			return
		}
	}

	if f.InKernelMode() {
		f.DumpTo()
		panic("irq: unhandled trap in kernel mode")
	}
	f.DumpTo()
}
