package main

import (
	"io"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/randomouscrap98/bin2vec/shellcode"
)

const (
	AppVersion = "0.2.0"
)

var loader shellcode.Loader = shellcode.FileLoader{}

// Where results go when no output file is given
var stdout io.Writer = os.Stdout

func mustLoad(path string) *shellcode.Image {
	img, err := loader.Load(path)
	fatalIfErr(path, "load binary", err)
	return img
}

func mustSection(img *shellcode.Image, name string) *shellcode.Section {
	section, err := img.RequireSection(name)
	fatalIfErr(img.Path, "get section", err)
	return section
}

// Either the named file, or stdout when no name was given. The returned func
// closes the file; its error is the last chance to hear about a failed write
func outputWriter(outfile string) (io.Writer, func() error) {
	if outfile == "" {
		return stdout, func() error { return nil }
	}
	file, err := os.Create(outfile)
	fatalIfErr(outfile, "create write file", err)
	return file, file.Close
}

// **********************************
// *       SECTIONS COMMAND         *
// **********************************

type SectionInfo struct {
	Name    string
	Address uint64
	Offset  uint64
	Size    uint64
	MD5     string
	Error   string `json:",omitempty"`
}

type SectionsCmd struct {
	Binary string `arg:"" type:"existingfile" help:"The binary to list sections for"`
}

func (c *SectionsCmd) Run() error {
	img := mustLoad(c.Binary)
	sections := make([]SectionInfo, 0, len(img.Sections))
	for _, s := range img.Sections {
		info := SectionInfo{
			Name:    s.Name,
			Address: s.Addr,
			Offset:  s.Offset,
			Size:    s.Size,
			MD5:     shellcode.Md5String(s.Data),
		}
		if s.ReadErr != nil {
			info.Error = s.ReadErr.Error()
		}
		sections = append(sections, info)
	}
	result := make(map[string]interface{})
	result["Filename"] = c.Binary
	result["Format"] = img.Format
	result["Arch"] = img.Arch
	result["Entry"] = img.Entry
	result["Sections"] = sections
	PrintJson(result)
	return nil
}

// **********************************
// *        DISASM COMMAND          *
// **********************************

type DisasmCmd struct {
	Binary  string `arg:"" type:"existingfile" help:"The binary to disassemble"`
	Section string `default:".text" short:"s" help:"Section to disassemble"`
	Arch    string `help:"Override the architecture found in the binary (x86, x86-64, arm, arm64)"`
	Max     int    `default:"0" help:"Stop after this many instructions (0 for all)"`
}

func (c *DisasmCmd) Run() error {
	img := mustLoad(c.Binary)
	section := mustSection(img, c.Section)
	arch := img.Arch
	if c.Arch != "" {
		arch = c.Arch
	}
	insts, err := shellcode.Disassemble(section.Data, arch, section.Addr, c.Max)
	fatalIfErr(c.Binary, "disassemble "+c.Section, err)
	log.Printf("Decoded %d %s instructions from %s\n", len(insts), arch, c.Section)
	return shellcode.WriteDisassembly(stdout, insts)
}

// **********************************
// *          HEX COMMAND           *
// **********************************

type HexCmd struct {
	Binary  string `arg:"" type:"existingfile" help:"The binary to pull the section from"`
	Section string `default:".text" short:"s" help:"Section to export"`
	Outfile string `type:"path" short:"o" help:"Intel hex file to write (default: stdout)"`
}

func (c *HexCmd) Run() error {
	img := mustLoad(c.Binary)
	section := mustSection(img, c.Section)
	w, done := outputWriter(c.Outfile)
	err := shellcode.WriteSectionHex(w, section)
	fatalIfErr(c.Binary, "write intel hex", err)
	fatalIfErr(c.Outfile, "finish intel hex", done())
	log.Printf("Wrote %d bytes of %s as intel hex at 0x%x\n", len(section.Data), c.Section, section.Addr)
	return nil
}

// **********************************
// *        BYTEMAP COMMAND         *
// **********************************

type BytemapCmd struct {
	Binary  string                  `arg:"" type:"existingfile" help:"The binary to pull the section from"`
	Section string                  `default:".text" short:"s" help:"Section to draw"`
	Config  shellcode.BytemapConfig `embed:""`
	Outfile string                  `type:"path" short:"o" default:"bytemap.png" help:"Png file to write"`
}

func (c *BytemapCmd) Run() error {
	img := mustLoad(c.Binary)
	section := mustSection(img, c.Section)
	w, done := outputWriter(c.Outfile)
	err := shellcode.WriteBytemapPng(w, section.Data, &c.Config)
	fatalIfErr(c.Binary, "draw bytemap", err)
	fatalIfErr(c.Outfile, "finish bytemap", done())
	log.Printf("Drew %d bytes of %s to %s\n", len(section.Data), c.Section, c.Outfile)
	return nil
}

var cli struct {
	Sections SectionsCmd      `cmd:"" help:"List every section in a binary as json"`
	Disasm   DisasmCmd        `cmd:"" help:"Disassemble a section (x86, x86-64, arm, arm64)"`
	Hex      HexCmd           `cmd:"" help:"Export a section as intel hex at its load address"`
	Bytemap  BytemapCmd       `cmd:"" help:"Draw a section as a png, one pixel per byte"`
	Version  kong.VersionFlag `help:"Show version information"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("sectiontools"),
		kong.ShortUsageOnError(),
		kong.Description("Tools for poking at the sections of a binary"),
		kong.Vars{
			"version": AppVersion,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
