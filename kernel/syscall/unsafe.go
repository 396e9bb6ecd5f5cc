package syscall

import (
	"encoding/binary"

	"github.com/HachikoT/myos/kernel/mm"
)

// copyUserString validates and copies a NUL-terminated string of at most
// maxLen bytes out of user memory starting at addr, the Go equivalent of
// proc.c's copy_string called from do_execve. Unlike mm.CopyString's raw
// signature, this also trims the returned buffer at the terminator.
func copyUserString(m *mm.Mm, addr uintptr, maxLen int) (string, bool) {
	buf := make([]byte, maxLen)
	if !mm.CopyString(m, buf, addr, maxLen) {
		return "", false
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n]), true
}

// copyUserStringArray validates and decodes argc char* entries out of the
// user-space pointer table at addr, the Go equivalent of the argv walk in
// do_execve: every pointer in the table, and every string it points to, is
// checked through mm before this package ever dereferences it.
func copyUserStringArray(m *mm.Mm, addr uintptr, argc int, maxLen int) ([]string, bool) {
	out := make([]string, argc)
	for i := 0; i < argc; i++ {
		var raw [4]byte
		if !mm.CopyFromUser(m, raw[:], addr+uintptr(i)*4, false) {
			return nil, false
		}
		s, ok := copyUserString(m, uintptr(binary.LittleEndian.Uint32(raw[:])), maxLen)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// storeInt32 validates and writes v to a user-space address, the Go
// equivalent of sys_wait's `*store = ...` write-back, itself guarded in
// the original by user_mem_check(mm, code_store, sizeof(int), 1).
func storeInt32(m *mm.Mm, addr uintptr, v int32) bool {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], uint32(v))
	return mm.CopyToUser(m, addr, raw[:])
}
