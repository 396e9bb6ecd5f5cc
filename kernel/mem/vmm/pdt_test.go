package vmm

import (
	"testing"

	"github.com/HachikoT/myos/kernel/mem"
)

func TestInitInstallsVPTSelfMap(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()

	pde := pdt.entries()[pdIndex(mem.VPT)]
	if !pde.HasFlags(FlagPresent | FlagWrite) {
		t.Fatal("expected VPT PDE to be present and writable")
	}
	if pde.Addr() != pdt.physAddr() {
		t.Errorf("expected VPT PDE to point back at the directory itself (0x%x); got 0x%x", pdt.physAddr(), pde.Addr())
	}
}

func TestPageInsertAndTranslate(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()
	frame := fm.allocFrame()

	const la = 0x00401000

	if err := PageInsert(pdt, frame, la, FlagWrite|FlagUser); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pa, err := Translate(pdt, la+0x10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := framePhysAddr(frame) + 0x10; pa != want {
		t.Errorf("expected translated address 0x%x; got 0x%x", want, pa)
	}
	if frame.Ref != 1 {
		t.Errorf("expected frame ref count 1; got %d", frame.Ref)
	}
}

func TestPageInsertReplacesExistingMapping(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()
	first := fm.allocFrame()
	second := fm.allocFrame()

	const la = 0x00401000

	if err := PageInsert(pdt, first, la, FlagWrite); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := PageInsert(pdt, second, la, FlagWrite); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.Ref != 0 {
		t.Errorf("expected replaced frame's ref count to drop to 0; got %d", first.Ref)
	}
	pa, err := Translate(pdt, la)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pa != framePhysAddr(second) {
		t.Errorf("expected mapping to point at the replacement frame")
	}
}

func TestPageRemoveClearsMapping(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()
	frame := fm.allocFrame()
	const la = 0x00401000

	if err := PageInsert(pdt, frame, la, FlagWrite); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	PageRemove(pdt, la)

	if _, err := Translate(pdt, la); err != ErrInvalidMapping {
		t.Errorf("expected ErrInvalidMapping after removal; got %v", err)
	}
	if frame.Ref != 0 {
		t.Errorf("expected frame ref count 0 after removal; got %d", frame.Ref)
	}
}

func TestTranslateUnmappedAddress(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()

	if _, err := Translate(pdt, 0x1000); err != ErrInvalidMapping {
		t.Errorf("expected ErrInvalidMapping; got %v", err)
	}
}

func TestBootMapSegmentMapsWholeRange(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()

	if err := BootMapSegment(pdt, mem.KernBase, 3*uintptr(mem.PageSize), 0, FlagWrite); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := uintptr(0); i < 3; i++ {
		pa, err := Translate(pdt, mem.KernBase+i*uintptr(mem.PageSize))
		if err != nil {
			t.Fatalf("unexpected error translating page %d: %v", i, err)
		}
		if pa != i*uintptr(mem.PageSize) {
			t.Errorf("expected page %d to map to physical 0x%x; got 0x%x", i, i*uintptr(mem.PageSize), pa)
		}
	}
}

func TestActivateAndActiveRoundTrip(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()
	pdt.Activate()

	if Active().pdtFrame != pdt.pdtFrame {
		t.Errorf("expected Active() to report the just-activated directory")
	}
}

func TestNewAddressSpaceInstallsVPTSelfMap(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt, err := NewAddressSpace()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pde := pdt.entries()[pdIndex(mem.VPT)]
	if !pde.HasFlags(FlagPresent | FlagWrite) {
		t.Error("expected VPT PDE to be present and writable")
	}
}

func TestFlushTLBOnlyWhenActive(t *testing.T) {
	fm := newFakeMemory(8)
	defer fm.install()()

	pdt := fm.newPDT()
	frame := fm.allocFrame()
	const la = 0x00401000

	if err := PageInsert(pdt, frame, la, FlagWrite); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fm.flushed) != 0 {
		t.Errorf("expected no TLB flush for an inactive directory; got %d", len(fm.flushed))
	}

	pdt.Activate()
	PageRemove(pdt, la)
	if len(fm.flushed) != 1 || fm.flushed[0] != la {
		t.Errorf("expected exactly one flush for %#x once the directory is active; got %v", la, fm.flushed)
	}
}
