package shellcode

import (
	"fmt"
	"io"

	"github.com/marcinbor85/gohex"
)

const (
	IHexLineLength = 16

	hexAddressSpace = 1 << 32
)

// Write the section out as intel hex, placed at its load address. Useful for
// flashing extracted code straight onto a microcontroller
func WriteSectionHex(w io.Writer, section *Section) error {
	// end is exclusive, so a last byte at 0xFFFFFFFF is fine
	end := section.Addr + uint64(len(section.Data))
	if end > hexAddressSpace || end < section.Addr {
		return fmt.Errorf("section %s at 0x%x doesn't fit in a 32 bit hex address space", section.Name, section.Addr)
	}
	mem := gohex.NewMemory()
	err := mem.AddBinary(uint32(section.Addr), section.Data)
	if err != nil {
		return err
	}
	return mem.DumpIntelHex(w, IHexLineLength)
}
