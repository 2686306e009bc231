// Package testbin builds tiny but well-formed executables in memory so tests
// don't need binary fixtures checked in.
package testbin

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"encoding/binary"

	"github.com/marcinbor85/gohex"
)

type Section struct {
	Name string
	Addr uint64
	Data []byte

	// ELF section flags. Zero means alloc + execinstr
	Flags elf.SectionFlag
}

// Data for an SHF_COMPRESSED ELF section whose header names a compression
// type nothing knows, so reading it always fails
func BogusCompressedData() []byte {
	chdr := make([]byte, 24)
	binary.LittleEndian.PutUint32(chdr[0:], 99)
	binary.LittleEndian.PutUint64(chdr[8:], 100)
	binary.LittleEndian.PutUint64(chdr[16:], 1)
	return chdr
}

func align(n int, to int) int {
	return (n + to - 1) / to * to
}

// 64 bit little endian ELF executable with the given sections (plus the null
// section and .shstrtab)
func ELF(machine elf.Machine, entry uint64, sections []Section) []byte {
	var names bytes.Buffer
	names.WriteByte(0)
	nameOffsets := make([]uint32, len(sections))
	for i, s := range sections {
		nameOffsets[i] = uint32(names.Len())
		names.WriteString(s.Name)
		names.WriteByte(0)
	}
	shstrtabName := uint32(names.Len())
	names.WriteString(".shstrtab")
	names.WriteByte(0)

	// Header, then each section's data, then the string table, then the
	// section header table
	offset := 64
	dataOffsets := make([]int, len(sections))
	for i, s := range sections {
		offset = align(offset, 16)
		dataOffsets[i] = offset
		offset += len(s.Data)
	}
	namesOffset := offset
	offset += names.Len()
	shoff := align(offset, 8)

	header := elf.Header64{
		Ident:     [16]uint8{0x7f, 'E', 'L', 'F', byte(elf.ELFCLASS64), byte(elf.ELFDATA2LSB), byte(elf.EV_CURRENT)},
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     entry,
		Shoff:     uint64(shoff),
		Ehsize:    64,
		Shentsize: 64,
		Shnum:     uint16(len(sections) + 2),
		Shstrndx:  uint16(len(sections) + 1),
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, header)
	for i, s := range sections {
		buf.Write(make([]byte, dataOffsets[i]-buf.Len()))
		buf.Write(s.Data)
	}
	buf.Write(names.Bytes())
	buf.Write(make([]byte, shoff-buf.Len()))

	binary.Write(&buf, binary.LittleEndian, elf.Section64{})
	for i, s := range sections {
		flags := s.Flags
		if flags == 0 {
			flags = elf.SHF_ALLOC | elf.SHF_EXECINSTR
		}
		binary.Write(&buf, binary.LittleEndian, elf.Section64{
			Name:      nameOffsets[i],
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint64(flags),
			Addr:      s.Addr,
			Off:       uint64(dataOffsets[i]),
			Size:      uint64(len(s.Data)),
			Addralign: 16,
		})
	}
	binary.Write(&buf, binary.LittleEndian, elf.Section64{
		Name:      shstrtabName,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       uint64(namesOffset),
		Size:      uint64(names.Len()),
		Addralign: 1,
	})
	return buf.Bytes()
}

// PE with a dos stub but no optional header. Raw data is padded out to 16
// bytes with zeros, the way a linker file-aligns sections
func PE(machine uint16, sections []Section) []byte {
	const peOffset = 0x40
	var buf bytes.Buffer
	dos := make([]byte, peOffset)
	dos[0] = 'M'
	dos[1] = 'Z'
	binary.LittleEndian.PutUint32(dos[0x3c:], peOffset)
	buf.Write(dos)
	buf.WriteString("PE\x00\x00")
	return coff(&buf, machine, sections)
}

// Bare COFF object: the file header sits right at the start of the file
func COFF(machine uint16, sections []Section) []byte {
	var buf bytes.Buffer
	return coff(&buf, machine, sections)
}

func coff(buf *bytes.Buffer, machine uint16, sections []Section) []byte {
	headersEnd := buf.Len() + binary.Size(pe.FileHeader{}) + len(sections)*binary.Size(pe.SectionHeader32{})

	binary.Write(buf, binary.LittleEndian, pe.FileHeader{
		Machine:          machine,
		NumberOfSections: uint16(len(sections)),
	})

	offset := align(headersEnd, 16)
	rawOffsets := make([]int, len(sections))
	rawSizes := make([]int, len(sections))
	for i, s := range sections {
		rawOffsets[i] = offset
		rawSizes[i] = align(len(s.Data), 16)
		offset += rawSizes[i]
		var name [8]uint8
		copy(name[:], s.Name)
		binary.Write(buf, binary.LittleEndian, pe.SectionHeader32{
			Name:             name,
			VirtualSize:      uint32(len(s.Data)),
			VirtualAddress:   uint32(s.Addr),
			SizeOfRawData:    uint32(rawSizes[i]),
			PointerToRawData: uint32(rawOffsets[i]),
			Characteristics:  pe.IMAGE_SCN_CNT_CODE | pe.IMAGE_SCN_MEM_EXECUTE | pe.IMAGE_SCN_MEM_READ,
		})
	}
	for i, s := range sections {
		buf.Write(make([]byte, rawOffsets[i]-buf.Len()))
		buf.Write(s.Data)
		buf.Write(make([]byte, rawSizes[i]-len(s.Data)))
	}
	// debug/pe always reads a 96 byte dos header
	if buf.Len() < 96 {
		buf.Write(make([]byte, 96-buf.Len()))
	}
	return buf.Bytes()
}

// 64 bit little endian mach-o executable with a single __TEXT segment holding
// the given sections
func MachO(cpu macho.Cpu, sections []Section) []byte {
	const headerSize = 32
	const segmentSize = 72
	const sectionSize = 80
	cmdsz := segmentSize + sectionSize*len(sections)

	offset := headerSize + cmdsz
	dataOffsets := make([]int, len(sections))
	for i, s := range sections {
		offset = align(offset, 16)
		dataOffsets[i] = offset
		offset += len(s.Data)
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, macho.FileHeader{
		Magic: macho.Magic64,
		Cpu:   cpu,
		Type:  macho.TypeExec,
		Ncmd:  1,
		Cmdsz: uint32(cmdsz),
	})
	buf.Write(make([]byte, 4))

	var segname [16]byte
	copy(segname[:], "__TEXT")
	var lowAddr, highAddr uint64
	for i, s := range sections {
		if i == 0 || s.Addr < lowAddr {
			lowAddr = s.Addr
		}
		if end := s.Addr + uint64(len(s.Data)); end > highAddr {
			highAddr = end
		}
	}
	binary.Write(&buf, binary.LittleEndian, macho.Segment64{
		Cmd:     macho.LoadCmdSegment64,
		Len:     uint32(cmdsz),
		Name:    segname,
		Addr:    lowAddr,
		Memsz:   highAddr - lowAddr,
		Offset:  0,
		Filesz:  uint64(offset),
		Maxprot: 5,
		Prot:    5,
		Nsect:   uint32(len(sections)),
	})
	for i, s := range sections {
		var name [16]byte
		copy(name[:], s.Name)
		binary.Write(&buf, binary.LittleEndian, macho.Section64{
			Name:   name,
			Seg:    segname,
			Addr:   s.Addr,
			Size:   uint64(len(s.Data)),
			Offset: uint32(dataOffsets[i]),
			Align:  4,
		})
	}
	for i, s := range sections {
		buf.Write(make([]byte, dataOffsets[i]-buf.Len()))
		buf.Write(s.Data)
	}
	return buf.Bytes()
}

// Intel hex text with each section placed at its address
func IHex(sections []Section) []byte {
	mem := gohex.NewMemory()
	for _, s := range sections {
		mem.AddBinary(uint32(s.Addr), s.Data)
	}
	var buf bytes.Buffer
	mem.DumpIntelHex(&buf, 16)
	return buf.Bytes()
}
