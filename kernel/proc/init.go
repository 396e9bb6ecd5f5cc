package proc

import "unsafe"

// Init bootstraps process management: idle becomes pid 0, running on the
// kernel's own boot-time stack rather than a freshly allocated one, then
// init is forked as a kernel thread running initMain. The Go equivalent of
// proc_init. Like the original, idle is never published through getPid,
// hashProc or setLinks — it is reached only through Idle(), never Find.
//
// What a from-scratch init actually does (which program it execs, if any)
// is outside this package's concern; callers (kernel/kmain) supply it the
// way init_main supplied user_main.
func Init(kstack uintptr, initMain func(arg unsafe.Pointer) int) {
	idleProc = allocProc()
	idleProc.Pid = 0
	idleProc.State = StateRunnable
	idleProc.Kstack = kstack
	idleProc.NeedResched = true
	idleProc.SetName("idle")
	idleProc.Files = createFiles()
	idleProc.Files.incRef()
	nProcess++

	current = idleProc
	wireMm()
	wireTrap()

	pid, err := KernelThread(initMain, nil, 0)
	if err != nil || pid <= 0 {
		panic("proc.Init: cannot create init thread")
	}
	initProc = Find(pid)
	initProc.SetName("init")
}

// CpuIdle is idle's own body, run once the scheduler starts picking
// processes: repeatedly yield the CPU to whatever is runnable. The Go
// equivalent of cpu_idle.
func CpuIdle() {
	for {
		schedule()
	}
}
