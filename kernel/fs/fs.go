// Package fs defines the narrow boundary kernel/proc's exec path and
// kernel/swap's paging path need from a filesystem, without implementing
// one: a full VFS is out of scope. Both contracts mirror the original
// kernel's sysfile_*/swapfs_* call surface closely enough that a real
// filesystem package could satisfy them, but none is wired in here.
package fs

import "github.com/HachikoT/myos/kernel"

const errModule = "fs"

// Open flags, the subset sysfile_open's callers in this module need.
const (
	ReadOnly  = 0
	WriteOnly = 1 << iota
	Create
)

// File is an open file descriptor as do_execve's load_icode sees it: seek to
// an offset, read a run of bytes, close. The Go equivalent of the
// sysfile_seek/sysfile_read/sysfile_close boundary.
type File interface {
	Seek(offset int64) *kernel.Error
	Read(buf []byte) (int, *kernel.Error)
	Close()
}

// openFn is registered by whatever filesystem is wired in; nil until then,
// in which case Open reports Unimplemented rather than panicking, so a
// kernel with no filesystem attached can still run everything that never
// calls DoExecve.
var openFn func(path string, flags int) (File, *kernel.Error)

// SetOpen registers the filesystem's open entry point, the Go equivalent of
// pointing do_execve's sysfile_open at a mounted root.
func SetOpen(fn func(path string, flags int) (File, *kernel.Error)) { openFn = fn }

// Open resolves path to a File, the Go equivalent of sysfile_open.
func Open(path string, flags int) (File, *kernel.Error) {
	if openFn == nil {
		return nil, kernel.NewError(errModule, kernel.KindUnimplemented, "no filesystem attached")
	}
	return openFn(path, flags)
}
