package shellcode

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

const (
	// Flash that was never written reads back as 0xFF, so that's what fills the
	// gaps between hex segments
	IHexGapFill = 0xFF
)

func loadELF(r io.ReaderAt) (*Image, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.WithMessage(err, "elf")
	}
	defer f.Close()
	img := &Image{
		Format: FormatELF,
		Entry:  f.Entry,
	}
	switch f.Machine {
	case elf.EM_386:
		img.Arch = ArchX86
	case elf.EM_X86_64:
		img.Arch = ArchX8664
	case elf.EM_ARM:
		img.Arch = ArchARM
	case elf.EM_AARCH64:
		img.Arch = ArchARM64
	}
	for _, s := range f.Sections {
		if s.Type == elf.SHT_NULL {
			continue
		}
		sec := &Section{
			Name:   s.Name,
			Addr:   s.Addr,
			Offset: s.Offset,
			Size:   s.Size,
		}
		// .bss and friends have a size but nothing in the file
		if s.Type != elf.SHT_NOBITS {
			sec.Data, sec.ReadErr = readSectionData(s.Name, s.Open())
		} else {
			sec.Offset = 0
		}
		img.Sections = append(img.Sections, sec)
	}
	return img, nil
}

// Handles both full images and bare coff objects; format says which one
// was detected
func loadPE(r io.ReaderAt, format string) (*Image, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, errors.WithMessage(err, "pe")
	}
	defer f.Close()
	img := &Image{
		Format: format,
	}
	switch f.Machine {
	case pe.IMAGE_FILE_MACHINE_I386:
		img.Arch = ArchX86
	case pe.IMAGE_FILE_MACHINE_AMD64:
		img.Arch = ArchX8664
	case pe.IMAGE_FILE_MACHINE_ARMNT, pe.IMAGE_FILE_MACHINE_ARM:
		img.Arch = ArchARM
	case pe.IMAGE_FILE_MACHINE_ARM64:
		img.Arch = ArchARM64
	}
	// Object files (no optional header) have addresses relative to nothing;
	// images get the preferred base added on
	var base uint64
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		base = uint64(oh.ImageBase)
		img.Entry = base + uint64(oh.AddressOfEntryPoint)
	case *pe.OptionalHeader64:
		base = oh.ImageBase
		img.Entry = base + uint64(oh.AddressOfEntryPoint)
	}
	for _, s := range f.Sections {
		sec := &Section{
			Name:   s.Name,
			Addr:   base + uint64(s.VirtualAddress),
			Offset: uint64(s.Offset),
		}
		if s.Size > 0 {
			sec.Data, sec.ReadErr = readSectionData(s.Name, s.Open())
			// Raw data is file-aligned; the tail past VirtualSize is just padding
			if s.VirtualSize > 0 && int(s.VirtualSize) < len(sec.Data) {
				sec.Data = sec.Data[:s.VirtualSize]
			}
		}
		sec.Size = uint64(len(sec.Data))
		img.Sections = append(img.Sections, sec)
	}
	return img, nil
}

func loadMachO(r io.ReaderAt) (*Image, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		return nil, errors.WithMessage(err, "mach-o")
	}
	defer f.Close()
	img := &Image{
		Format: FormatMachO,
	}
	switch f.Cpu {
	case macho.Cpu386:
		img.Arch = ArchX86
	case macho.CpuAmd64:
		img.Arch = ArchX8664
	case macho.CpuArm:
		img.Arch = ArchARM
	case macho.CpuArm64:
		img.Arch = ArchARM64
	}
	for _, s := range f.Sections {
		sec := &Section{
			Name:   s.Name,
			Addr:   s.Addr,
			Offset: uint64(s.Offset),
			Size:   s.Size,
		}
		// Zero-fill sections (S_ZEROFILL) have no offset in the file
		if s.Offset != 0 {
			sec.Data, sec.ReadErr = readSectionData(s.Name, s.Open())
		}
		// The executable code lives in __TEXT,__text
		if s.Seg == "__TEXT" && s.Name == "__text" {
			img.addAlias(TextSectionName, s.Name)
		}
		img.Sections = append(img.Sections, sec)
	}
	return img, nil
}

// Intel hex has no section table. The whole memory image becomes .text (that's
// what firmware hex files are) and each contiguous run becomes its own section
func loadIHex(r io.Reader) (*Image, error) {
	mem := gohex.NewMemory()
	err := mem.ParseIntelHex(r)
	if err != nil {
		return nil, errors.WithMessage(err, "intel hex")
	}
	segments := mem.GetDataSegments()
	img := &Image{
		Format: FormatIHex,
	}
	if len(segments) == 0 {
		return img, nil
	}
	// Segment ends are figured in 64 bits; one ending at 4GB wraps a uint32
	start := uint64(segments[0].Address)
	end := start
	for _, seg := range segments {
		start = min(start, uint64(seg.Address))
		end = max(end, uint64(seg.Address)+uint64(len(seg.Data)))
	}
	text := bytes.Repeat([]byte{IHexGapFill}, int(end-start))
	for _, seg := range segments {
		copy(text[uint64(seg.Address)-start:], seg.Data)
	}
	img.Sections = append(img.Sections, &Section{
		Name: TextSectionName,
		Addr: start,
		Size: uint64(len(text)),
		Data: text,
	})
	for i, seg := range segments {
		data := make([]byte, len(seg.Data))
		copy(data, seg.Data)
		img.Sections = append(img.Sections, &Section{
			Name: fmt.Sprintf("seg%d", i),
			Addr: uint64(seg.Address),
			Size: uint64(len(data)),
			Data: data,
		})
	}
	return img, nil
}
