package hal

import (
	"github.com/HachikoT/myos/kernel/driver/tty"
	"github.com/HachikoT/myos/kernel/driver/video/console"
)

// Standard BIOS VGA text-mode geometry and framebuffer address. A
// boot-sector kernel never leaves real mode with anything else active, so
// unlike a multiboot kernel there is no framebuffer tag to consult.
const (
	textModeWidth    = 80
	textModeHeight   = 25
	textModeFbPhysAddr = 0xb8000
)

var (
	egaConsole = &console.Ega{}

	// ActiveTerminal points to the currently active terminal.
	ActiveTerminal = &tty.Vt{}
)

// InitTerminal provides a basic terminal to allow the kernel to emit some output
// till everything is properly setup
func InitTerminal() {
	egaConsole.Init(textModeWidth, textModeHeight, textModeFbPhysAddr)
	ActiveTerminal.AttachTo(egaConsole)
}
