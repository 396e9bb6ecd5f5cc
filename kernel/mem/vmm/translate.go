package vmm

import "github.com/HachikoT/myos/kernel"

// Translate returns the physical address that corresponds to virtAddr under
// pdt, or ErrInvalidMapping if no present mapping covers it.
func Translate(pdt PageDirectoryTable, virtAddr uintptr) (uintptr, *kernel.Error) {
	pte, err := getPTE(pdt, virtAddr, false)
	if err != nil {
		return 0, err
	}
	if pte == nil || !pte.HasFlags(FlagPresent) {
		return 0, ErrInvalidMapping
	}

	offset := virtAddr & uintptr(pageOffsetMask)
	return pte.Addr() + offset, nil
}

const pageOffsetMask = 1<<ptShift - 1
