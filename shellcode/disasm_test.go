package shellcode

import (
	"bytes"
	"strings"
	"testing"
)

func TestDisassemble_X8664(t *testing.T) {
	insts, err := Disassemble([]byte{0x90, 0x90, 0xc3}, ArchX8664, 0x1000, 0)
	if err != nil {
		t.Fatalf("Error disassembling: %s", err)
	}
	expected := []string{"nop", "nop", "ret"}
	if len(insts) != len(expected) {
		t.Fatalf("Expected %d instructions, got %d", len(expected), len(insts))
	}
	for i, inst := range insts {
		if inst.Text != expected[i] {
			t.Fatalf("Instruction %d: expected %s, got %s", i, expected[i], inst.Text)
		}
		if !inst.Valid {
			t.Fatalf("Instruction %d should be valid", i)
		}
		if inst.Addr != 0x1000+uint64(i) {
			t.Fatalf("Instruction %d at wrong address 0x%x", i, inst.Addr)
		}
	}
}

func TestDisassemble_Limit(t *testing.T) {
	insts, err := Disassemble(bytes.Repeat([]byte{0x90}, 50), ArchX86, 0, 7)
	if err != nil {
		t.Fatalf("Error disassembling: %s", err)
	}
	if len(insts) != 7 {
		t.Fatalf("Expected 7 instructions, got %d", len(insts))
	}
}

func TestDisassemble_ARM64(t *testing.T) {
	// ret
	insts, err := Disassemble([]byte{0xc0, 0x03, 0x5f, 0xd6}, ArchARM64, 0, 0)
	if err != nil {
		t.Fatalf("Error disassembling: %s", err)
	}
	if len(insts) != 1 || insts[0].Text != "ret" {
		t.Fatalf("Expected a single ret, got %v", insts)
	}
}

func TestDisassemble_CoversEveryByte(t *testing.T) {
	// A truncated instruction at the end can't decode; it still has to show up
	code := []byte{0x90, 0xc3, 0x0f}
	insts, err := Disassemble(code, ArchX8664, 0, 0)
	if err != nil {
		t.Fatalf("Error disassembling: %s", err)
	}
	last := insts[len(insts)-1]
	if last.Valid || last.Text != BadInstruction {
		t.Fatalf("Expected trailing bad instruction, got %+v", last)
	}
	var covered []byte
	for _, inst := range insts {
		covered = append(covered, inst.Raw...)
	}
	if !bytes.Equal(covered, code) {
		t.Fatalf("Instructions don't cover the code: %v", covered)
	}

	// Short arm64 words get eaten whole
	insts, err = Disassemble([]byte{0xc0, 0x03}, ArchARM64, 0, 0)
	if err != nil {
		t.Fatalf("Error disassembling: %s", err)
	}
	if len(insts) != 1 || insts[0].Valid || len(insts[0].Raw) != 2 {
		t.Fatalf("Expected one 2 byte bad instruction, got %+v", insts)
	}
}

func TestDisassemble_LonePrefix(t *testing.T) {
	for _, arch := range []string{ArchX86, ArchX8664} {
		insts, err := Disassemble([]byte{0x0f}, arch, 0, 0)
		if err != nil {
			t.Fatalf("Error disassembling: %s", err)
		}
		if len(insts) != 1 || insts[0].Valid || insts[0].Text != BadInstruction || len(insts[0].Raw) != 1 {
			t.Fatalf("%s: expected a single 1 byte bad instruction, got %+v", arch, insts)
		}
	}
}

func TestDisassemble_UnknownArch(t *testing.T) {
	for _, arch := range []string{ArchUnknown, "mips", "X86"} {
		if CanDisassemble(arch) {
			t.Fatalf("Shouldn't be able to disassemble '%s'", arch)
		}
		_, err := Disassemble([]byte{0x90}, arch, 0, 0)
		if err == nil {
			t.Fatalf("Expected error for arch '%s'", arch)
		}
	}
}

func TestWriteDisassembly(t *testing.T) {
	insts, err := Disassemble([]byte{0x90, 0xc3}, ArchX8664, 0x401000, 0)
	if err != nil {
		t.Fatalf("Error disassembling: %s", err)
	}
	var buf bytes.Buffer
	err = WriteDisassembly(&buf, insts)
	if err != nil {
		t.Fatalf("Error writing disassembly: %s", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[0], "0x401000: 90") || !strings.HasSuffix(lines[0], " nop") {
		t.Fatalf("Bad first line: %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0x401001: c3") || !strings.HasSuffix(lines[1], " ret") {
		t.Fatalf("Bad second line: %s", lines[1])
	}
}
