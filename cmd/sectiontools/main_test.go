package main

import (
	"bytes"
	"debug/elf"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/randomouscrap98/bin2vec/internal/testbin"
	"github.com/randomouscrap98/bin2vec/shellcode"
)

var testCode = []byte{0x55, 0x48, 0x89, 0xe5, 0x31, 0xc0, 0x5d, 0xc3}

func writeTestElf(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "prog")
	raw := testbin.ELF(elf.EM_X86_64, 0x8000, []testbin.Section{{Name: ".text", Addr: 0x8000, Data: testCode}})
	require.NoError(t, os.WriteFile(path, raw, 0644))
	return path
}

func captureStdout(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	previous := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = previous })
	return &buf
}

func TestSectionsCmd(t *testing.T) {
	binary := writeTestElf(t)
	out := captureStdout(t)
	cmd := SectionsCmd{Binary: binary}
	require.NoError(t, cmd.Run())

	var result struct {
		Filename string
		Format   string
		Arch     string
		Entry    uint64
		Sections []SectionInfo
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Equal(t, binary, result.Filename)
	require.Equal(t, shellcode.FormatELF, result.Format)
	require.Equal(t, shellcode.ArchX8664, result.Arch)
	require.Equal(t, uint64(0x8000), result.Entry)
	require.Len(t, result.Sections, 2)

	text := result.Sections[0]
	require.Equal(t, ".text", text.Name)
	require.Equal(t, uint64(0x8000), text.Address)
	require.Equal(t, uint64(len(testCode)), text.Size)
	require.Equal(t, shellcode.Md5String(testCode), text.MD5)
	require.Empty(t, text.Error)
	require.Equal(t, ".shstrtab", result.Sections[1].Name)

	// Per-section keys exactly as named
	var raw map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &raw))
	first := raw["Sections"].([]any)[0].(map[string]any)
	for _, key := range []string{"Name", "Address", "Offset", "Size", "MD5"} {
		require.Contains(t, first, key)
	}
	require.NotContains(t, first, "Error")
}

func TestSectionsCmd_UnreadableSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog")
	raw := testbin.ELF(elf.EM_X86_64, 0x8000, []testbin.Section{
		{Name: ".text", Addr: 0x8000, Data: testCode},
		{Name: ".debug_info", Data: testbin.BogusCompressedData(), Flags: elf.SHF_ALLOC | elf.SHF_COMPRESSED},
	})
	require.NoError(t, os.WriteFile(path, raw, 0644))
	out := captureStdout(t)
	require.NoError(t, (&SectionsCmd{Binary: path}).Run())

	var result struct {
		Sections []SectionInfo
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Len(t, result.Sections, 3)
	require.Empty(t, result.Sections[0].Error)
	require.NotEmpty(t, result.Sections[1].Error)
}

func TestDisasmCmd(t *testing.T) {
	binary := writeTestElf(t)
	out := captureStdout(t)
	cmd := DisasmCmd{Binary: binary, Section: ".text"}
	require.NoError(t, cmd.Run())

	// push rbp; mov rbp, rsp; xor eax, eax; pop rbp; ret
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	require.True(t, strings.HasPrefix(lines[0], "0x8000: 55 "), lines[0])
	require.True(t, strings.HasPrefix(lines[1], "0x8001: 4889e5 "), lines[1])
	require.True(t, strings.HasPrefix(lines[4], "0x8007: c3 "), lines[4])
	require.True(t, strings.HasSuffix(lines[4], " ret"), lines[4])
	for _, line := range lines {
		require.NotContains(t, line, shellcode.BadInstruction)
	}

	out.Reset()
	cmd.Max = 2
	require.NoError(t, cmd.Run())
	require.Equal(t, 2, strings.Count(out.String(), "\n"))
}

func TestOutputWriter(t *testing.T) {
	out := captureStdout(t)
	w, done := outputWriter("")
	require.Same(t, out, w)
	require.NoError(t, done())

	path := filepath.Join(t.TempDir(), "out.bin")
	w, done = outputWriter(path)
	_, err := w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, done())
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, written)

	// A second close reports the error instead of hiding it
	require.Error(t, done())
}

func TestHexCmd(t *testing.T) {
	binary := writeTestElf(t)
	outfile := filepath.Join(t.TempDir(), "out.hex")
	cmd := HexCmd{Binary: binary, Section: ".text", Outfile: outfile}
	require.NoError(t, cmd.Run())

	img, err := shellcode.FileLoader{}.Load(outfile)
	require.NoError(t, err)
	require.Equal(t, shellcode.FormatIHex, img.Format)
	text := img.Section(shellcode.TextSectionName)
	require.NotNil(t, text)
	require.Equal(t, uint64(0x8000), text.Addr)
	require.Equal(t, testCode, text.Data)
}

func TestBytemapCmd(t *testing.T) {
	binary := writeTestElf(t)
	outfile := filepath.Join(t.TempDir(), "map.png")
	cmd := BytemapCmd{
		Binary:  binary,
		Section: ".text",
		Config:  shellcode.BytemapConfig{Width: 4, Scale: 2, Low: "#000000", High: "#ffffff"},
		Outfile: outfile,
	}
	require.NoError(t, cmd.Run())

	file, err := os.Open(outfile)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	require.Equal(t, 8, img.Bounds().Dx())
	require.Equal(t, 4, img.Bounds().Dy())
}
