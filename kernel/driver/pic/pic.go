// Package pic remaps and masks the two cascaded 8259A programmable
// interrupt controllers. The BIOS wires IRQ 0-15 to vectors 8-15 and 0x70-
// 0x77, which collide with the CPU's own exception vectors; this package
// reprograms both chips to raise IRQOffset+n instead, mirroring the
// standard 8259A ICW1-ICW4 dance.
package pic

import "github.com/HachikoT/myos/kernel/cpu"

const (
	masterCmd  = 0x20
	masterData = 0x21
	slaveCmd   = 0xA0
	slaveData  = 0xA1

	irqSlave  = 2  // IRQ line the slave PIC cascades into on the master
	irqOffset = 32 // vector IRQ 0 is remapped to
)

var (
	mask    uint16 = 0xFFFF &^ (1 << irqSlave)
	didInit bool

	// outbFn is mocked by tests.
	outbFn = cpu.Outb
)

func setMask(m uint16) {
	mask = m
	if didInit {
		outbFn(masterData, uint8(m))
		outbFn(slaveData, uint8(m>>8))
	}
}

// Enable unmasks the given IRQ line (0-15) so the PIC will forward it.
func Enable(irq uint8) {
	setMask(mask &^ (1 << irq))
}

// Init remaps both PICs so IRQ n arrives at vector irqOffset+n, masks every
// line except the master->slave cascade, then restores whatever lines
// Enable had already been asked to unmask.
func Init() {
	didInit = true

	outbFn(masterData, 0xFF)
	outbFn(slaveData, 0xFF)

	// master: ICW1 (cascaded, ICW4 required), ICW2 (vector offset),
	// ICW3 (slave attached on IRQ2), ICW4 (8086 mode).
	outbFn(masterCmd, 0x11)
	outbFn(masterData, irqOffset)
	outbFn(masterData, 1<<irqSlave)
	outbFn(masterData, 0x3)

	// slave: ICW1, ICW2 (vector offset + 8), ICW3 (own cascade id), ICW4.
	outbFn(slaveCmd, 0x11)
	outbFn(slaveData, irqOffset+8)
	outbFn(slaveData, irqSlave)
	outbFn(slaveData, 0x3)

	outbFn(masterCmd, 0x68)
	outbFn(masterCmd, 0x0a)
	outbFn(slaveCmd, 0x68)
	outbFn(slaveCmd, 0x0a)

	if mask != 0xFFFF {
		setMask(mask)
	}
}
