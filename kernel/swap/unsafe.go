package swap

import (
	"reflect"
	"unsafe"

	"github.com/HachikoT/myos/kernel/mem"
)

// pageBytes overlays a []byte of exactly one page on top of a kernel
// virtual address, the same reflect.SliceHeader trick mem.Memset uses.
func pageBytes(addr uintptr) []byte {
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: addr,
		Len:  int(mem.PageSize),
		Cap:  int(mem.PageSize),
	}))
}
