// Package pit programs the 8253/8254 programmable interval timer that
// drives IRQ 0, the kernel's only source of preemption ticks.
package pit

import (
	"github.com/HachikoT/myos/kernel/cpu"
	"github.com/HachikoT/myos/kernel/driver/pic"
)

const (
	channel0    = 0x40
	modeCommand = 0x43

	inputFreq = 1193182

	selectChannel0 = 0x00
	rateGenerator  = 0x04
	accessLoHi     = 0x30

	// irqLine is the PIC line the timer is wired to.
	irqLine = 0
)

var (
	ticks uint64

	outbFn     = cpu.Outb
	picEnableFn = pic.Enable
)

// divisor returns the reload value that yields a tick frequency of hz.
func divisor(hz uint32) uint16 {
	return uint16((inputFreq + hz/2) / hz)
}

// Init programs channel 0 for a periodic rate-generator tick at hz Hz and
// unmasks the timer's PIC line.
func Init(hz uint32) {
	ticks = 0

	div := divisor(hz)
	outbFn(modeCommand, selectChannel0|rateGenerator|accessLoHi)
	outbFn(channel0, uint8(div&0xff))
	outbFn(channel0, uint8(div>>8))

	picEnableFn(irqLine)
}

// Tick is called by the IRQ 0 handler on every timer interrupt.
func Tick() {
	ticks++
}

// Ticks returns the number of timer interrupts observed since Init.
func Ticks() uint64 {
	return ticks
}
