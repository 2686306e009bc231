package shellcode

import (
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

const (
	BadInstruction = "(bad)"
)

type Instruction struct {
	Addr  uint64
	Raw   []byte
	Text  string
	Valid bool
}

func (i *Instruction) String() string {
	return fmt.Sprintf("0x%x: %-24s %s", i.Addr, hex.EncodeToString(i.Raw), i.Text)
}

// Decode one instruction at the start of code. Returns the instruction text
// and its length; a length of 0 means the bytes didn't decode
func decodeOne(arch string, code []byte, pc uint64) (string, int) {
	switch arch {
	case ArchX86, ArchX8664:
		mode := 32
		if arch == ArchX8664 {
			mode = 64
		}
		inst, err := x86asm.Decode(code, mode)
		// Truncated input can come back as a bare prefix with no opcode
		if err != nil || inst.Op == 0 || inst.Len == 0 {
			return "", 0
		}
		return x86asm.IntelSyntax(inst, pc, nil), inst.Len
	case ArchARM:
		inst, err := armasm.Decode(code, armasm.ModeARM)
		if err != nil {
			return "", 0
		}
		return armasm.GNUSyntax(inst), inst.Len
	case ArchARM64:
		inst, err := arm64asm.Decode(code)
		if err != nil {
			return "", 0
		}
		return arm64asm.GNUSyntax(inst), 4
	}
	return "", 0
}

// Smallest step to take past bytes that don't decode
func minInstructionWidth(arch string) int {
	if arch == ArchARM || arch == ArchARM64 {
		return 4
	}
	return 1
}

func CanDisassemble(arch string) bool {
	switch arch {
	case ArchX86, ArchX8664, ArchARM, ArchARM64:
		return true
	}
	return false
}

// Linear sweep over code starting at addr. Stops after limit instructions
// (0 for no limit). Bytes that don't decode come back as BadInstruction
// entries so the listing always covers every byte
func Disassemble(code []byte, arch string, addr uint64, limit int) ([]Instruction, error) {
	if !CanDisassemble(arch) {
		return nil, fmt.Errorf("can't disassemble for architecture '%s'", arch)
	}
	result := make([]Instruction, 0)
	step := minInstructionWidth(arch)
	offset := 0
	for offset < len(code) && (limit <= 0 || len(result) < limit) {
		pc := addr + uint64(offset)
		text, length := decodeOne(arch, code[offset:], pc)
		inst := Instruction{
			Addr:  pc,
			Text:  text,
			Valid: length > 0,
		}
		if length <= 0 {
			length = min(step, len(code)-offset)
			inst.Text = BadInstruction
		}
		inst.Raw = code[offset : offset+length]
		result = append(result, inst)
		offset += length
	}
	return result, nil
}

// Write a disassembly listing, one instruction per line
func WriteDisassembly(w io.Writer, insts []Instruction) error {
	wep := NewWriteErrorPass(w)
	for i := range insts {
		wep.WriteStringPass(insts[i].String())
		wep.WriteStringPass("\n")
	}
	return wep.IsPass()
}
