package shellcode

import (
	"bytes"
	"debug/pe"
	"encoding/binary"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
)

const (
	TextSectionName = ".text"

	FormatELF   = "elf"
	FormatPE    = "pe"
	FormatMachO = "macho"
	FormatCOFF  = "coff"
	FormatIHex  = "ihex"

	ArchX86     = "x86"
	ArchX8664   = "x86-64"
	ArchARM     = "arm"
	ArchARM64   = "arm64"
	ArchUnknown = ""
)

var ErrUnknownFormat = errors.New("unsupported or unrecognized binary format")

// A single named region of bytes pulled out of a binary
type Section struct {
	Name   string
	Addr   uint64 // Virtual (or load) address of the section
	Offset uint64 // File offset, 0 if the section isn't file-backed
	Size   uint64
	Data   []byte

	// Set when the container lists the section but its bytes couldn't be read.
	// Only asking for this section fails; the rest of the image is still usable
	ReadErr error
}

// Everything we care about from a parsed executable. Sections are kept in the
// order the container lists them.
type Image struct {
	Path     string
	Format   string
	Arch     string
	Entry    uint64
	Sections []*Section

	// Alternate names for sections, mostly so ".text" works on mach-o
	aliases map[string]string
}

// Find the section with the given name (or alias). Returns nil if the image
// doesn't have it
func (img *Image) Section(name string) *Section {
	for _, s := range img.Sections {
		if s.Name == name {
			return s
		}
	}
	if real, ok := img.aliases[name]; ok {
		for _, s := range img.Sections {
			if s.Name == real {
				return s
			}
		}
	}
	return nil
}

// Same as Section, but produces the error types the tools report on
func (img *Image) RequireSection(name string) (*Section, error) {
	s := img.Section(name)
	if s == nil {
		return nil, &SectionNotFoundError{Name: name}
	}
	if s.ReadErr != nil {
		return nil, &ParseError{Path: img.Path, Err: s.ReadErr}
	}
	if len(s.Data) == 0 {
		return nil, &EmptySectionError{Name: name}
	}
	return s, nil
}

func (img *Image) addAlias(alias string, name string) {
	if img.aliases == nil {
		img.aliases = make(map[string]string)
	}
	img.aliases[alias] = name
}

// Anything that can turn a path into an image. The file loader is the default,
// but the tools only need this much
type Loader interface {
	Load(path string) (*Image, error)
}

// Detects the container from its magic bytes and hands the actual parsing to
// the matching format parser
type FileLoader struct{}

func (FileLoader) Load(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	img, err := LoadBytes(raw)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	img.Path = path
	log.Printf("Loaded %s image %s (%d sections, arch '%s')\n", img.Format, path, len(img.Sections), img.Arch)
	return img, nil
}

// Parse an in-memory binary. The format is figured out from the leading bytes
func LoadBytes(raw []byte) (*Image, error) {
	format := DetectFormat(raw)
	reader := bytes.NewReader(raw)
	switch format {
	case FormatELF:
		return loadELF(reader)
	case FormatPE, FormatCOFF:
		return loadPE(reader, format)
	case FormatMachO:
		return loadMachO(reader)
	case FormatIHex:
		return loadIHex(reader)
	}
	return nil, ErrUnknownFormat
}

var (
	elfMagic    = []byte("\x7fELF")
	peMagic     = []byte("MZ")
	machoMagics = [][]byte{
		{0xfe, 0xed, 0xfa, 0xce},
		{0xfe, 0xed, 0xfa, 0xcf},
		{0xce, 0xfa, 0xed, 0xfe},
		{0xcf, 0xfa, 0xed, 0xfe},
	}
)

// Guess the container format from the first few bytes. Returns "" when nothing
// matches
func DetectFormat(raw []byte) string {
	if bytes.HasPrefix(raw, elfMagic) {
		return FormatELF
	}
	if bytes.HasPrefix(raw, peMagic) {
		return FormatPE
	}
	for _, m := range machoMagics {
		if bytes.HasPrefix(raw, m) {
			return FormatMachO
		}
	}
	if isCOFFObject(raw) {
		return FormatCOFF
	}
	// Intel hex is plain text; records always start with a colon. Allow some
	// leading whitespace since people edit these by hand
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == ':' {
		return FormatIHex
	}
	return ""
}

// Object files have no dos stub; the coff file header starts the file. Only
// trust it for machines we know and when there's no optional header
func isCOFFObject(raw []byte) bool {
	if len(raw) < binary.Size(pe.FileHeader{}) {
		return false
	}
	switch binary.LittleEndian.Uint16(raw) {
	case pe.IMAGE_FILE_MACHINE_I386, pe.IMAGE_FILE_MACHINE_AMD64, pe.IMAGE_FILE_MACHINE_ARM,
		pe.IMAGE_FILE_MACHINE_ARMNT, pe.IMAGE_FILE_MACHINE_ARM64:
	default:
		return false
	}
	// SizeOfOptionalHeader
	return binary.LittleEndian.Uint16(raw[16:]) == 0
}

// Read the full contents of a section reader, wrapping the error with the
// section name so failures deep in a parser still say where they came from
func readSectionData(name string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		log.Printf("Skipping data for section %s: %s\n", name, err)
		return nil, errors.Wrapf(err, "read section %s", name)
	}
	return data, nil
}
