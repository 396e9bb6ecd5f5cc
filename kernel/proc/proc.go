// Package proc implements the process object: its lifecycle
// (fork/exit/wait/exec), the pid-addressed process table, and the
// context-switch machinery the scheduler drives. It knows nothing about
// scheduling policy; kernel/sched registers itself via SetSchedule and
// SetWakeupProc the same way kernel/swap registers into kernel/mm.
package proc

import (
	"github.com/HachikoT/myos/kernel/irq"
	"github.com/HachikoT/myos/kernel/list"
	"github.com/HachikoT/myos/kernel/mm"
	"github.com/HachikoT/myos/kernel/skewheap"
)

const errModule = "proc"

// MaxProcess bounds the number of simultaneously live processes; MaxPid is
// twice that so get_pid's wraparound search always has slack before it
// revisits a pid still in use.
const (
	MaxProcess = 4096
	MaxPid     = MaxProcess * 2
)

// noPid marks an absent tree link (no parent, no older/younger sibling, no
// child). It is distinct from every real pid: idle's pid (0) is the only
// non-positive real pid and idle never appears as anyone's child or
// sibling.
const noPid = -1

// State is a process's position in its life cycle.
type State int

const (
	StateUninit State = iota
	StateSleeping
	StateRunnable
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateUninit:
		return "uninit"
	case StateSleeping:
		return "sleeping"
	case StateRunnable:
		return "runnable"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// Process flag bits.
const (
	FlagExiting uint32 = 1 << 0 // getting shut down
)

// Wait-state bits: the low bits name the reason, WaitInterrupted marks
// whether a kill can wake the sleeper early.
const (
	WaitInterrupted uint32 = 0x80000000
	WaitChild              = 0x00000001 | WaitInterrupted
	WaitTimer              = 0x00000002 | WaitInterrupted
	WaitKbd                = 0x00000004 | WaitInterrupted
)

// Fork flags, passed to DoFork.
const (
	CloneVM uint32 = 0x00000100
	CloneFS uint32 = 0x00000200
)

const nameLen = 15

// Proc is a single process or kernel thread, the Go equivalent of
// proc_struct. The process tree (parent/child/sibling) is addressed by pid
// rather than by raw pointer: a proc never holds a *Proc to another proc
// long-term, only a pid it resolves through Find when it needs to act on
// it. This is the arena-of-records-keyed-by-pid shape the original's
// pointer-linked tree is modeled as.
type Proc struct {
	State State
	Pid   int
	Runs  int

	Kstack      uintptr
	NeedResched bool

	ParentPid int
	Mm        *mm.Mm

	Context Context
	Tf      *irq.Frame

	CR3   uintptr
	Flags uint32
	name  [nameLen]byte

	ExitCode  int
	WaitState uint32

	Files *Files

	listLink list.Node
	hashLink list.Node

	childPid   int
	olderPid   int
	youngerPid int

	// Scheduler bookkeeping, embedded directly in the process object (as
	// the original proc_struct does) so enqueue/dequeue never allocates.
	RunLink   list.Node
	RunPool   skewheap.Node
	InRunQ    bool
	TimeSlice int
	Stride    uint32
	Priority  uint32
}

// SetName copies up to nameLen bytes of name into proc's fixed-size name
// field, truncating and zero-padding as needed.
func (p *Proc) SetName(name string) {
	for i := range p.name {
		p.name[i] = 0
	}
	copy(p.name[:], name)
}

// Name returns proc's name as a string.
func (p *Proc) Name() string {
	n := 0
	for n < len(p.name) && p.name[n] != 0 {
		n++
	}
	return string(p.name[:n])
}

// allocProc returns a zero-initialized, not-yet-registered process record.
func allocProc() *Proc {
	p := &Proc{
		State:     StateUninit,
		Pid:       noPid,
		CR3:       bootCR3Fn(),
		ParentPid: noPid,
		childPid:  noPid,
		olderPid:  noPid,
		youngerPid: noPid,
	}
	p.listLink.Init()
	p.hashLink.Init()
	p.RunLink.Init()
	return p
}
