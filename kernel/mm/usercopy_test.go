package mm

import (
	"testing"

	"github.com/HachikoT/myos/kernel/mem"
)

func TestUserMemCheckWithNilMmRequiresKernelRange(t *testing.T) {
	if !UserMemCheck(nil, mem.KernBase, uint32(mem.PageSize), false) {
		t.Error("expected a kernel-range access with nil mm to succeed")
	}
	if UserMemCheck(nil, 0x00800000, uint32(mem.PageSize), false) {
		t.Error("expected a user-range access with nil mm to fail")
	}
}

func TestUserMemCheckHonoursVmaPermissions(t *testing.T) {
	m := NewMm(fakePdt())
	if _, err := m.MmMap(0x00800000, uint32(mem.PageSize), VmRead); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !UserMemCheck(m, 0x00800000, uint32(mem.PageSize), false) {
		t.Error("expected a read check against a readable vma to succeed")
	}
	if UserMemCheck(m, 0x00800000, uint32(mem.PageSize), true) {
		t.Error("expected a write check against a read-only vma to fail")
	}
}

func TestUserMemCheckRejectsGapsAndOutOfRange(t *testing.T) {
	m := NewMm(fakePdt())
	if _, err := m.MmMap(0x00800000, uint32(mem.PageSize), VmRead); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if UserMemCheck(m, 0x00800000, 2*uint32(mem.PageSize), false) {
		t.Error("expected a range spanning an unmapped gap to fail")
	}
	if UserMemCheck(m, 0x00900000, uint32(mem.PageSize), false) {
		t.Error("expected a completely unmapped range to fail")
	}
}

func TestUserMemCheckGuardsStackGrowth(t *testing.T) {
	m := NewMm(fakePdt())
	vma, err := m.MmMap(uintptr(mem.UstackTop)-2*uintptr(mem.PageSize), 2*uint32(mem.PageSize), VmRead|VmWrite|VmStack)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if UserMemCheck(m, vma.Start, 1, true) {
		t.Error("expected a write at the very start of a stack vma to fail the stack guard")
	}
	if !UserMemCheck(m, vma.Start+uintptr(mem.PageSize), 1, true) {
		t.Error("expected a write within the interior of the stack vma to succeed")
	}
}

// withFakeUserMemory backs [base, base+len(backing)) with an ordinary Go
// buffer so CopyFromUser/CopyToUser/CopyString can be exercised without a
// real user-mode address space.
func withFakeUserMemory(t *testing.T, base uintptr, backing []byte) {
	t.Helper()
	orig := userBytesFn
	userBytesFn = func(addr uintptr, length int) []byte {
		off := addr - base
		return backing[off : off+uintptr(length)]
	}
	t.Cleanup(func() { userBytesFn = orig })
}

func TestCopyFromUserAndCopyToUserRoundTrip(t *testing.T) {
	m := NewMm(fakePdt())
	const base = 0x00800000
	if _, err := m.MmMap(base, uint32(mem.PageSize), VmRead|VmWrite); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backing := []byte("hello")
	withFakeUserMemory(t, base, backing)

	dst := make([]byte, len(backing))
	if !CopyFromUser(m, dst, base, false) {
		t.Fatal("expected CopyFromUser to succeed against a permitted range")
	}
	if string(dst) != "hello" {
		t.Errorf("expected %q, got %q", "hello", dst)
	}

	clear := make([]byte, len(backing))
	withFakeUserMemory(t, base, clear)
	if !CopyToUser(m, base, []byte("world")) {
		t.Fatal("expected CopyToUser to succeed against a permitted range")
	}
	if string(clear) != "world" {
		t.Errorf("expected %q, got %q", "world", clear)
	}
}

func TestCopyFromUserRejectsUnmappedRange(t *testing.T) {
	m := NewMm(fakePdt())
	if CopyFromUser(m, make([]byte, 4), 0x00900000, false) {
		t.Fatal("expected CopyFromUser to fail against an unmapped range")
	}
}

func TestCopyStringStopsAtNUL(t *testing.T) {
	m := NewMm(fakePdt())
	const base = 0x00800000
	if _, err := m.MmMap(base, uint32(mem.PageSize), VmRead); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backing := []byte("hi\x00garbage")
	withFakeUserMemory(t, base, backing)

	dst := make([]byte, len(backing))
	if !CopyString(m, dst, base, len(backing)) {
		t.Fatal("expected CopyString to find the terminator")
	}
	if string(dst[:3]) != "hi\x00" {
		t.Errorf("expected \"hi\\x00\", got %q", dst[:3])
	}
}
