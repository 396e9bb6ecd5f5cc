package proc

import (
	"reflect"
	"unsafe"
)

// bytesAt overlays a []byte of the given length on top of a raw address,
// the same reflect.SliceHeader trick mem.Memset and kernel/mm's userBytes
// use.
func bytesAt(addr uintptr, length int) []byte {
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: addr,
		Len:  length,
		Cap:  length,
	}))
}
