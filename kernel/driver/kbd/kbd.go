// Package kbd decodes PS/2 keyboard scan codes (set 1) into ASCII and
// feeds them into a small ring buffer, the Go equivalent of
// original_source/kern/driver/console.c's kbd_proc_data/kbd_intr.
package kbd

import (
	"github.com/HachikoT/myos/kernel/cpu"
	"github.com/HachikoT/myos/kernel/driver/pic"
)

const (
	dataPort   = 0x60
	statusPort = 0x64

	statusOutputFull = 1 << 0

	// irqLine is the PIC line the keyboard controller is wired to.
	irqLine = 1

	keyRelease = 0x80
	escE0      = 0xE0
)

// Shift-state bits tracked across scan codes, mirroring console.c's
// SHIFT/CTL/ALT/CAPSLOCK/E0ESC flags.
const (
	shiftFlag    = 1 << 0
	ctlFlag      = 1 << 1
	altFlag      = 1 << 2
	capslockFlag = 1 << 3
	e0EscFlag    = 1 << 6
)

// shiftcode records which scan codes are themselves modifier keys (both the
// make and break code, since break = make | keyRelease).
var shiftcode = [256]byte{
	0x1D: ctlFlag,
	0x2A: shiftFlag,
	0x36: shiftFlag,
	0x38: altFlag,
	0x9D: ctlFlag,
	0xB8: altFlag,
}

// togglecode records scan codes that flip a latched state rather than act
// as a held modifier.
var togglecode = [256]byte{
	0x3A: capslockFlag,
}

var normalmap = [256]byte{
	0x01: 0x1B, 0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5', 0x07: '6',
	0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0', 0x0C: '-', 0x0D: '=', 0x0E: '\b', 0x0F: '\t',
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't', 0x15: 'y', 0x16: 'u', 0x17: 'i',
	0x18: 'o', 0x19: 'p', 0x1A: '[', 0x1B: ']', 0x1C: '\n', 0x1E: 'a', 0x1F: 's',
	0x20: 'd', 0x21: 'f', 0x22: 'g', 0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l', 0x27: ';',
	0x28: '\'', 0x29: '`', 0x2B: '\\', 0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v',
	0x30: 'b', 0x31: 'n', 0x32: 'm', 0x33: ',', 0x34: '.', 0x35: '/', 0x39: ' ',
}

var shiftmap = [256]byte{
	0x01: 0x1B, 0x02: '!', 0x03: '@', 0x04: '#', 0x05: '$', 0x06: '%', 0x07: '^',
	0x08: '&', 0x09: '*', 0x0A: '(', 0x0B: ')', 0x0C: '_', 0x0D: '+', 0x0E: '\b', 0x0F: '\t',
	0x10: 'Q', 0x11: 'W', 0x12: 'E', 0x13: 'R', 0x14: 'T', 0x15: 'Y', 0x16: 'U', 0x17: 'I',
	0x18: 'O', 0x19: 'P', 0x1A: '{', 0x1B: '}', 0x1C: '\n', 0x1E: 'A', 0x1F: 'S',
	0x20: 'D', 0x21: 'F', 0x22: 'G', 0x23: 'H', 0x24: 'J', 0x25: 'K', 0x26: 'L', 0x27: ':',
	0x28: '"', 0x29: '~', 0x2B: '|', 0x2C: 'Z', 0x2D: 'X', 0x2E: 'C', 0x2F: 'V',
	0x30: 'B', 0x31: 'N', 0x32: 'M', 0x33: '<', 0x34: '>', 0x35: '?', 0x39: ' ',
}

// ctlmap maps letter keys to their control codes (Ctrl-A = 0x01, ...);
// everything else yields no character.
var ctlmap = buildCtlmap()

func buildCtlmap() [256]byte {
	var m [256]byte
	for code, ch := range normalmap {
		if ch >= 'a' && ch <= 'z' {
			m[code] = ch - 'a' + 1
		}
	}
	return m
}

var charcode = [4]*[256]byte{&normalmap, &shiftmap, &ctlmap, &ctlmap}

var (
	shiftState byte
	buf        [256]byte
	rpos, wpos uint32

	inbFn       = cpu.Inb
	picEnableFn = pic.Enable
)

// Init drains any stale scan code left in the controller's buffer and
// unmasks the keyboard's PIC line.
func Init() {
	Intr()
	picEnableFn(irqLine)
}

func push(c byte) {
	if c == 0 {
		return
	}
	buf[wpos] = c
	wpos = (wpos + 1) % uint32(len(buf))
}

// Intr drains every scan code currently waiting in the 8042's output
// buffer, decoding complete keypresses into the input ring. It is the
// handler IRQ 1 is wired to, and is also safe to call by polling with
// interrupts disabled.
func Intr() {
	for inbFn(statusPort)&statusOutputFull != 0 {
		push(decode(inbFn(dataPort)))
	}
}

// decode feeds one scan code through the shift-state machine, returning the
// completed character or 0 if the byte only updated modifier state (a
// modifier key, a key release, or the first byte of an E0-prefixed code).
func decode(data byte) byte {
	if data == escE0 {
		shiftState |= e0EscFlag
		return 0
	}
	if data&keyRelease != 0 {
		raw := data
		if shiftState&e0EscFlag == 0 {
			raw &^= keyRelease
		}
		shiftState &^= shiftcode[raw] | e0EscFlag
		return 0
	}
	if shiftState&e0EscFlag != 0 {
		data |= keyRelease
		shiftState &^= e0EscFlag
	}

	shiftState |= shiftcode[data]
	shiftState ^= togglecode[data]

	c := charcode[shiftState&(ctlFlag|shiftFlag)][data]
	if shiftState&capslockFlag != 0 {
		switch {
		case c >= 'a' && c <= 'z':
			c += 'A' - 'a'
		case c >= 'A' && c <= 'Z':
			c += 'a' - 'A'
		}
	}
	return c
}

// Getc returns the next decoded character, or 0 if none is waiting.
func Getc() byte {
	if rpos == wpos {
		return 0
	}
	c := buf[rpos]
	rpos = (rpos + 1) % uint32(len(buf))
	return c
}
