// Package serial drives the COM1 UART (16550-compatible), the Go
// equivalent of original_source/kern/driver/console.c's serial_init/
// serial_putc/serial_proc_data.
package serial

import (
	"github.com/HachikoT/myos/kernel/cpu"
	"github.com/HachikoT/myos/kernel/driver/pic"
)

const (
	com1 = 0x3F8

	regRX  = com1 + 0 // In:  receive buffer (DLAB=0)
	regTX  = com1 + 0 // Out: transmit buffer (DLAB=0)
	regDLL = com1 + 0 // Out: divisor latch low (DLAB=1)
	regDLM = com1 + 1 // Out: divisor latch high (DLAB=1)
	regIER = com1 + 1 // Out: interrupt enable
	regIIR = com1 + 2 // In:  interrupt id
	regFCR = com1 + 2 // Out: FIFO control
	regLCR = com1 + 3 // Out: line control
	regMCR = com1 + 4 // Out: modem control
	regLSR = com1 + 5 // In:  line status

	lcrDLAB  = 0x80
	lcrWLen8 = 0x03

	ierRDI = 0x01

	lsrData  = 0x01
	lsrTxRdy = 0x20

	// divisor for a 9600 baud rate against the UART's 115200 baud clock.
	divisor9600 = 115200 / 9600

	// irqLine is the PIC line COM1 is wired to.
	irqLine = 4

	buflen = 256
)

var (
	exists bool

	buf        [buflen]byte
	rpos, wpos uint32

	inbFn       = cpu.Inb
	outbFn      = cpu.Outb
	picEnableFn = pic.Enable
)

// Exists reports whether Init found a working UART at COM1. A LSR read of
// 0xFF (all bits set, including reserved bit 2) indicates the port does not
// exist, the same probe console.c's serial_init performs.
func Exists() bool { return exists }

// Init programs COM1 for 9600-8-N-1, enables its receive-data interrupt and,
// if the port answers, unmasks its PIC line.
func Init() {
	outbFn(regFCR, 0) // disable the FIFO

	outbFn(regLCR, lcrDLAB)
	outbFn(regDLL, uint8(divisor9600))
	outbFn(regDLM, 0)
	outbFn(regLCR, lcrWLen8&^lcrDLAB)

	outbFn(regMCR, 0)
	outbFn(regIER, ierRDI)

	exists = inbFn(regLSR) != 0xFF
	_ = inbFn(regIIR)
	_ = inbFn(regRX)

	if exists {
		picEnableFn(irqLine)
	}
}

func push(c byte) {
	buf[wpos] = c
	wpos = (wpos + 1) % buflen
}

// Intr drains every byte currently waiting in the UART's receive buffer
// into the input ring. It is the handler IRQ 4 is wired to.
func Intr() {
	if !exists {
		return
	}
	for inbFn(regLSR)&lsrData != 0 {
		push(inbFn(regRX))
	}
}

// Getc returns the next received byte, or 0 if none is waiting.
func Getc() byte {
	if rpos == wpos {
		return 0
	}
	c := buf[rpos]
	rpos = (rpos + 1) % buflen
	return c
}

// Putc blocks until the transmit holding register is empty, then writes c.
func Putc(c byte) {
	for inbFn(regLSR)&lsrTxRdy == 0 {
	}
	outbFn(regTX, c)
}
