package proc

import "testing"

// callDoExit invokes DoExit and recovers its terminal panic, the same way a
// real scheduler invocation would simply never return to this stack frame.
func callDoExit(code int) {
	defer func() { recover() }()
	DoExit(code)
}

func TestDoExitPanicsForIdleAndInit(t *testing.T) {
	defer resetProcState()()
	bootstrapIdle(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("DoExit(idle) should panic")
			}
		}()
		current = idleProc
		DoExit(0)
	}()

	initProc = allocProc()
	initProc.Pid = 1
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("DoExit(init) should panic")
			}
		}()
		current = initProc
		DoExit(0)
	}()
}

func TestDoExitMarksZombieAndWakesWaitingParent(t *testing.T) {
	defer installFakes()()
	defer resetProcState()()
	bootstrapIdle(t)

	initProc = newTestProc(noPid)
	initProc.SetName("init")

	parent := newTestProc(initProc.Pid)
	parent.WaitState = WaitChild

	child := newTestProc(parent.Pid)

	woken := (*Proc)(nil)
	wakeupProcFn = func(p *Proc) { woken = p }

	current = child
	callDoExit(42)

	if child.State != StateZombie {
		t.Fatalf("child.State = %v, want StateZombie", child.State)
	}
	if child.ExitCode != 42 {
		t.Fatalf("child.ExitCode = %d, want 42", child.ExitCode)
	}
	if woken != parent {
		t.Fatalf("woken = %v, want parent %v", woken, parent)
	}
}

func TestDoExitReparentsChildrenToInit(t *testing.T) {
	defer installFakes()()
	defer resetProcState()()
	bootstrapIdle(t)

	initProc = newTestProc(noPid)
	initProc.SetName("init")

	parent := newTestProc(initProc.Pid)
	grandchild := newTestProc(parent.Pid)

	wakeupProcFn = func(p *Proc) {}

	current = parent
	callDoExit(0)

	if grandchild.ParentPid != initProc.Pid {
		t.Fatalf("grandchild.ParentPid = %d, want init's pid %d", grandchild.ParentPid, initProc.Pid)
	}

	found := false
	for cp := initProc.childPid; cp != noPid; {
		c := lookupProc(cp)
		if c == nil {
			break
		}
		if c.Pid == grandchild.Pid {
			found = true
			break
		}
		cp = c.olderPid
	}
	if !found {
		t.Fatalf("init's child chain never picked up reparented grandchild")
	}
}
