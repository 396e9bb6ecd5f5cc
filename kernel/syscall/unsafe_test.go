package syscall

import (
	"testing"

	"github.com/HachikoT/myos/kernel/mem"
	"github.com/HachikoT/myos/kernel/mem/vmm"
	"github.com/HachikoT/myos/kernel/mm"
)

func TestCopyUserStringRejectsAddressOutsideAnyVma(t *testing.T) {
	m := mm.NewMm(vmm.PageDirectoryTable{})

	if _, ok := copyUserString(m, mem.UText, 255); ok {
		t.Fatal("expected copyUserString to reject a pointer outside any mapped vma")
	}
}

func TestCopyUserStringArrayRejectsBadTablePointer(t *testing.T) {
	m := mm.NewMm(vmm.PageDirectoryTable{})

	if _, ok := copyUserStringArray(m, mem.UText, 1, 32); ok {
		t.Fatal("expected copyUserStringArray to reject a table pointer outside any mapped vma")
	}
}

func TestStoreInt32RejectsAddressOutsideAnyVma(t *testing.T) {
	m := mm.NewMm(vmm.PageDirectoryTable{})

	if storeInt32(m, mem.UText, 42) {
		t.Fatal("expected storeInt32 to reject a store address outside any mapped vma")
	}
}

func TestStoreInt32RejectsReadOnlyVma(t *testing.T) {
	m := mm.NewMm(vmm.PageDirectoryTable{})
	if _, err := m.MmMap(mem.UText, uint32(mem.PageSize), mm.VmRead); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if storeInt32(m, mem.UText, 42) {
		t.Fatal("expected storeInt32 to reject a write against a read-only vma")
	}
}
