package gdt

import "testing"

func TestFlat32KernelCode(t *testing.T) {
	d := flat32(typeCode, 0)

	if d.limitLow != 0xffff {
		t.Errorf("expected limitLow 0xffff; got %#x", d.limitLow)
	}
	if d.limitHigh&0xf != 0xf {
		t.Errorf("expected low nibble of limitHigh to be 0xf; got %#x", d.limitHigh&0xf)
	}
	if d.baseLow != 0 || d.baseMid != 0 || d.baseHigh != 0 {
		t.Error("expected a flat descriptor's base to be zero")
	}

	const present = 1 << 7
	if d.access&present == 0 {
		t.Error("expected present bit to be set")
	}
	if d.access&0xf != typeCode {
		t.Errorf("expected type bits %#x; got %#x", typeCode, d.access&0xf)
	}

	const granularity, size32 = 1 << 3, 1 << 2
	if d.limitHigh>>4&granularity == 0 {
		t.Error("expected granularity bit to be set")
	}
	if d.limitHigh>>4&size32 == 0 {
		t.Error("expected 32-bit size bit to be set")
	}
}

func TestFlat32DPLEncoding(t *testing.T) {
	user := flat32(typeData, 3)
	kernel := flat32(typeData, 0)

	if dpl := (user.access >> 5) & 0x3; dpl != 3 {
		t.Errorf("expected user descriptor DPL 3; got %d", dpl)
	}
	if dpl := (kernel.access >> 5) & 0x3; dpl != 0 {
		t.Errorf("expected kernel descriptor DPL 0; got %d", dpl)
	}
}

func TestSystemDescEncodesBaseAndLimit(t *testing.T) {
	const base, limit = 0x00102030, 0x67
	d := systemDesc(base, limit, typeTSS32, 0)

	if d.limitLow != limit {
		t.Errorf("expected limitLow %#x; got %#x", limit, d.limitLow)
	}
	if d.baseLow != 0x2030 || d.baseMid != 0x10 || d.baseHigh != 0x00 {
		t.Errorf("expected base split across fields for %#x; got low=%#x mid=%#x high=%#x",
			base, d.baseLow, d.baseMid, d.baseHigh)
	}
	if d.access&0xf != typeTSS32 {
		t.Errorf("expected TSS type %#x; got %#x", typeTSS32, d.access&0xf)
	}
}

func TestSelectorsAreDistinctAndAligned(t *testing.T) {
	selectors := []int{SegNull, SegKernelCode, SegKernelData, SegUserCode, SegUserData, SegTSS}
	seen := make(map[int]bool)
	for _, s := range selectors {
		if s%1 != 0 {
			t.Errorf("selector index %d is not an integer slot", s)
		}
		if seen[s] {
			t.Errorf("duplicate selector slot %d", s)
		}
		seen[s] = true
	}

	if UserCodeSelector&0x3 != 3 {
		t.Errorf("expected user code selector RPL 3; got %#x", UserCodeSelector&0x3)
	}
	if KernelCodeSelector&0x3 != 0 {
		t.Errorf("expected kernel code selector RPL 0; got %#x", KernelCodeSelector&0x3)
	}
}

func TestSetKernelStackUpdatesTSS(t *testing.T) {
	kTSS = tss{}
	SetKernelStack(0xdeadb000)

	if kTSS.esp0 != 0xdeadb000 {
		t.Errorf("expected esp0 to be updated; got %#x", kTSS.esp0)
	}
}
