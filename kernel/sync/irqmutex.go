// Package sync provides the concurrency primitives used across the kernel.
// This is a single-CPU kernel: there is no SMP, so mutual exclusion between
// kernel-mode code paths only has to worry about interrupt handlers
// preempting the current path, not about another core running concurrently.
package sync

import "github.com/HachikoT/myos/kernel/cpu"

// IRQMutex disables interrupts for the duration of a critical section. It
// nests: only the outermost Lock actually disables interrupts, and only the
// outermost Unlock restores the saved flag, so a function that takes an
// IRQMutex can safely call another function that takes the same lock.
type IRQMutex struct {
	depth uint32
	saved bool
}

// Lock disables interrupts, remembering whether they were enabled so Unlock
// can restore the prior state once the outermost section ends.
func (m *IRQMutex) Lock() {
	enabled := cpu.InterruptsEnabled()
	cpu.DisableInterrupts()
	if m.depth == 0 {
		m.saved = enabled
	}
	m.depth++
}

// Unlock leaves the critical section, re-enabling interrupts once the
// outermost Lock call is matched.
func (m *IRQMutex) Unlock() {
	if m.depth == 0 {
		panic("sync: Unlock of unlocked IRQMutex")
	}
	m.depth--
	if m.depth == 0 && m.saved {
		cpu.EnableInterrupts()
	}
}
