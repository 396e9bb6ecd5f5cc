package proc

import (
	"unsafe"

	"github.com/HachikoT/myos/kernel/list"
)

// hashShift/hashSize follow original_source's pid_hashfn: a fixed
// power-of-two bucket count a pid is folded into by hash32.
const (
	hashShift = 10
	hashSize  = 1 << hashShift
)

var (
	procList  list.Node // global list, creation order
	hashList  [hashSize]list.Node
	nProcess  int

	lastPid  = MaxPid
	nextSafe = MaxPid
)

func init() {
	procList.Init()
	for i := range hashList {
		hashList[i].Init()
	}
}

// hash32 is Knuth's multiplicative hash folded down to shift bits, the Go
// equivalent of the hash32() helper pid_hashfn is built on.
func hash32(key, shift uint32) uint32 {
	const goldenRatioPrime = 0x9e370001
	return (key * goldenRatioPrime) >> (32 - shift)
}

func pidHash(pid int) uint32 {
	return hash32(uint32(pid), hashShift)
}

// procOfListLink and procOfHashLink recover the owning Proc from a *list.Node
// obtained by walking procList or a hash bucket respectively — the le2proc
// pattern for a struct with more than one embedded list.Node, the same
// technique pmm.PageFromReclaimLink uses for Page's second link.
func procOfListLink(n *list.Node) *Proc {
	return (*Proc)(unsafe.Pointer(uintptr(unsafe.Pointer(n)) - unsafe.Offsetof(Proc{}.listLink)))
}

func procOfHashLink(n *list.Node) *Proc {
	return (*Proc)(unsafe.Pointer(uintptr(unsafe.Pointer(n)) - unsafe.Offsetof(Proc{}.hashLink)))
}

// lookupProc resolves a pid to its Proc for internal tree bookkeeping. It
// is Find plus idle, since idle's pid (0) is a legitimate parent/sibling
// link value but is deliberately excluded from the public, hash-addressed
// Find (idle is never anyone's reaper target and never appears in the
// hash table).
func lookupProc(pid int) *Proc {
	if idleProc != nil && pid == idleProc.Pid {
		return idleProc
	}
	return Find(pid)
}

// setLinks registers proc in the global list and links it as the newest
// child of its parent, mirroring set_links. Callers must already hold the
// interrupt-disable critical section the original requires.
func setLinks(proc *Proc) {
	procList.AddBefore(&proc.listLink)

	proc.youngerPid = noPid
	parent := lookupProc(proc.ParentPid)
	if parent != nil {
		proc.olderPid = parent.childPid
		if proc.olderPid != noPid {
			if older := lookupProc(proc.olderPid); older != nil {
				older.youngerPid = proc.Pid
			}
		}
		parent.childPid = proc.Pid
	} else {
		proc.olderPid = noPid
	}
	nProcess++
}

// removeLinks undoes setLinks, mirroring remove_links.
func removeLinks(proc *Proc) {
	proc.listLink.Del()

	if proc.olderPid != noPid {
		if older := lookupProc(proc.olderPid); older != nil {
			older.youngerPid = proc.youngerPid
		}
	}
	if proc.youngerPid != noPid {
		if younger := lookupProc(proc.youngerPid); younger != nil {
			younger.olderPid = proc.olderPid
		}
	} else if parent := lookupProc(proc.ParentPid); parent != nil {
		parent.childPid = proc.olderPid
	}
	nProcess--
}

func hashProc(proc *Proc) {
	hashList[pidHash(proc.Pid)].AddBefore(&proc.hashLink)
}

func unhashProc(proc *Proc) {
	proc.hashLink.Del()
}

// Find returns the process with the given pid, or nil. It is the Go
// equivalent of find_proc: a direct lookup by pid through the hash table
// rather than a pointer dereference, per the pid-addressed process table
// this package models. Idle's pid (0) is deliberately never hashed or
// found this way; callers that need it use Idle().
func Find(pid int) *Proc {
	if pid <= 0 || pid >= MaxPid {
		return nil
	}
	bucket := &hashList[pidHash(pid)]
	for le := bucket.Next(); le != bucket; le = le.Next() {
		p := procOfHashLink(le)
		if p.Pid == pid {
			return p
		}
	}
	return nil
}

// getPid allocates a unique pid in [1, MaxPid), the Go translation of
// get_pid's incremental-with-conflict-scan search.
func getPid() int {
	for {
		lastPid++
		if lastPid >= MaxPid {
			lastPid = 1
			nextSafe = lastPid
		}
		if lastPid >= nextSafe {
			nextSafe = MaxPid
			conflict := false
			for le := procList.Next(); le != &procList; le = le.Next() {
				p := procOfListLink(le)
				if p.Pid == lastPid {
					conflict = true
				} else if p.Pid > lastPid && p.Pid < nextSafe {
					nextSafe = p.Pid
				}
			}
			if conflict {
				continue
			}
		}
		return lastPid
	}
}
