package mm

import (
	"github.com/HachikoT/myos/kernel/mem"
)

// UserMemCheck reports whether [addr, addr+length) is entirely covered by
// vmas granting the requested access (write, or read otherwise). A nil mm
// means the caller is the kernel itself, in which case the range merely has
// to fall within the direct physical map. It mirrors user_mem_check.
func UserMemCheck(mm *Mm, addr uintptr, length uint32, write bool) bool {
	end := addr + uintptr(length)
	if mm == nil {
		return mem.KernAccess(addr, end)
	}
	if !mem.UserAccess(addr, end) {
		return false
	}

	for start := addr; start < end; {
		vma := mm.FindVma(start)
		if vma == nil || start < vma.Start {
			return false
		}

		want := VmRead
		if write {
			want = VmWrite
		}
		if vma.Flags&want == 0 {
			return false
		}
		if write && vma.Flags&VmStack != 0 && start < vma.Start+uintptr(mem.PageSize) {
			return false
		}

		start = vma.End
	}
	return true
}

// CopyFromUser validates [src, src+len) against mm (write-checking it when
// writable is set, i.e. the caller intends to later write back through the
// same pointer) and copies it into dst. It mirrors copy_from_user.
func CopyFromUser(mm *Mm, dst []byte, src uintptr, writable bool) bool {
	if !UserMemCheck(mm, src, uint32(len(dst)), writable) {
		return false
	}
	copy(dst, userBytesFn(src, len(dst)))
	return true
}

// CopyToUser validates [dst, dst+len) as writable within mm and copies src
// into it. It mirrors copy_to_user.
func CopyToUser(mm *Mm, dst uintptr, src []byte) bool {
	if !UserMemCheck(mm, dst, uint32(len(src)), true) {
		return false
	}
	copy(userBytesFn(dst, len(src)), src)
	return true
}

// CopyString copies a NUL-terminated string of at most maxn bytes (including
// the terminator) from src, a user-space pointer validated page-by-page as
// it is scanned, into dst. It mirrors copy_string.
func CopyString(mm *Mm, dst []byte, src uintptr, maxn int) bool {
	for maxn > 0 {
		part := int(uintptr(mem.PageSize) - src%uintptr(mem.PageSize))
		if part > maxn {
			part = maxn
		}
		if !UserMemCheck(mm, src, uint32(part), false) {
			return false
		}

		chunk := userBytesFn(src, part)
		if n := indexByte(chunk, 0); n >= 0 {
			copy(dst, chunk[:n+1])
			return true
		}
		if part == maxn {
			return false
		}
		copy(dst, chunk)
		dst = dst[part:]
		src += uintptr(part)
		maxn -= part
	}
	return false
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
