// Package kmain wires every subsystem together and hands control to the
// scheduler. This is the Go equivalent of original_source/kern/init/init.c's
// kern_init/init_main.
package kmain

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel"
	"github.com/HachikoT/myos/kernel/driver/kbd"
	"github.com/HachikoT/myos/kernel/driver/pic"
	"github.com/HachikoT/myos/kernel/driver/pit"
	"github.com/HachikoT/myos/kernel/driver/serial"
	"github.com/HachikoT/myos/kernel/gdt"
	"github.com/HachikoT/myos/kernel/hal"
	"github.com/HachikoT/myos/kernel/irq"
	"github.com/HachikoT/myos/kernel/kfmt"
	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/pmm"
	"github.com/HachikoT/myos/kernel/mem/vmm"
	"github.com/HachikoT/myos/kernel/mm"
	"github.com/HachikoT/myos/kernel/proc"
	"github.com/HachikoT/myos/kernel/sched"
	"github.com/HachikoT/myos/kernel/syscall"
)

// timerHz is the PIT's tick rate; every tick advances the current process's
// time slice (kernel/sched.Tick), the Go equivalent of original_source's
// TICK_NUM-driven clock_handler.
const timerHz = 100

// bootStack is the kernel's own stack, used by idle (pid 0) and by every
// trap taken before the very first context switch installs a process's own
// kernel stack in the TSS. The boot loader that starts this kernel hands it
// no stack of its own, so one is reserved here the same way a rt0 stub
// reserves a .bss stack for a freshly booted kernel image.
var bootStack [mem.KstackPage * uint32(mem.PageSize)]byte

var errKmainReturned = kernel.NewError("kmain", kernel.KindUnspecified, "Kmain returned")

// Kmain is the kernel's single entry point, called once the boot sector has
// switched the CPU into protected mode and jumped here. kernelEnd is the
// first physical address past the loaded kernel image, the same value
// original_source's page_init derives from the linker-provided `end` symbol.
//
//go:noinline
func Kmain(kernelEnd uintptr) {
	hal.InitTerminal()
	hal.ActiveTerminal.Clear()
	kfmt.SetOutputSink(hal.ActiveTerminal)

	kfmt.Printf("myos booting\n")

	kstackTop := uintptr(unsafe.Pointer(&bootStack[len(bootStack)-1])) + 1

	if err := pmm.Init(kernelEnd); err != nil {
		kfmt.Panic(err)
	}

	vmm.SetBootPdt(vmm.Active())
	mm.Init()
	vmm.Init()

	gdt.Init(kstackTop)
	irq.Init()
	pic.Init()
	pit.Init(timerHz)
	kbd.Init()
	serial.Init()

	irq.HandleIRQ(0, func(_ *irq.Frame) {
		pit.Tick()
		sched.Tick(proc.Current())
	})
	irq.HandleIRQ(1, func(_ *irq.Frame) { kbd.Intr() })
	irq.HandleIRQ(4, func(_ *irq.Frame) { serial.Intr() })

	proc.Init(kstackTop, initMain)
	sched.Init()
	syscall.Init()

	kfmt.Printf("myos: entering idle loop\n")

	proc.CpuIdle()

	kfmt.Panic(errKmainReturned)
}

// initMain is pid 1's body. A from-scratch kernel has no program to exec
// yet (no filesystem or IDE driver survived this port — see DESIGN.md), so
// init simply yields forever the same way it would while blocked waiting on
// real children once a shell exists. The Go equivalent of init_main in
// original_source/kern/process/proc.c, reduced to its idle loop.
func initMain(_ unsafe.Pointer) int {
	for {
		proc.DoYield()
	}
}
