package mm

import (
	"reflect"
	"unsafe"
)

// userBytes overlays a []byte of the given length on top of a raw address,
// the same reflect.SliceHeader trick mem.Memset uses.
func userBytes(addr uintptr, length int) []byte {
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: addr,
		Len:  length,
		Cap:  length,
	}))
}
