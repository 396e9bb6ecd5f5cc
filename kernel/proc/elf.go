package proc

// ELF32 header and program-header layout, the fields load_icode reads out
// of elf32_header/elf32_phdr. Neither struct definition survives in
// original_source (only field references in proc.c do); this is the
// standard ELF32 layout, not a translation.
const elfMagic = 0x464C457F // "\x7FELF" little-endian

type elf32Header struct {
	Magic     uint32
	_         [12]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

const elf32HeaderSize = 52

type elf32Phdr struct {
	Type   uint32
	Offset uint32
	Va     uint32
	Pa     uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

const elf32PhdrSize = 32

// Program-header types and flags load_icode cares about.
const (
	elfPTLoad = 1

	elfPFX = 1 << 0
	elfPFW = 1 << 1
	elfPFR = 1 << 2
)
