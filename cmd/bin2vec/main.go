package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/randomouscrap98/bin2vec/shellcode"
)

const (
	AppVersion = "0.2.0"
	UsageLine  = "Usage: bin2vec <binary_file>"
)

type CLI struct {
	Binary     string           `arg:"" help:"Binary to pull code from (elf, pe, mach-o or intel hex)"`
	Section    string           `short:"s" help:"Section to extract (default: .text)"`
	Name       string           `short:"n" help:"Name of the generated array (default: shellcode)"`
	Style      string           `help:"Declaration style, c or go (default: c)"`
	Indent     *int             `help:"Spaces before each line of bytes (default: 4)"`
	LineSize   *int             `help:"Bytes per line (default: 12)"`
	WithLength bool             `help:"Also declare the array length"`
	TrimPad    string           `help:"Strip this byte value off the end of the section, like 0xcc"`
	Encoder    string           `type:"path" short:"e" help:"Lua script; its encode(data) transforms the bytes before output"`
	Config     string           `type:"path" short:"c" help:"TOML file with default settings"`
	Quiet      bool             `short:"q" help:"Don't log progress to stderr"`
	Version    kong.VersionFlag `help:"Show version information"`
}

// Figure out the final settings: built-in defaults, then the config file,
// then whatever was given on the command line
func (c *CLI) settings() (*shellcode.Config, error) {
	config := shellcode.DefaultConfig()
	if c.Config != "" {
		loaded, err := shellcode.LoadConfig(c.Config)
		if err != nil {
			return nil, err
		}
		config = *loaded
	}
	if c.Section != "" {
		config.Section = c.Section
	}
	if c.Name != "" {
		config.Array.Name = c.Name
	}
	if c.Style != "" {
		config.Array.Style = c.Style
	}
	if c.Indent != nil {
		config.Array.Indent = *c.Indent
	}
	if c.LineSize != nil {
		config.Array.LineSize = *c.LineSize
	}
	if c.WithLength {
		config.Array.WithLength = true
	}
	if c.TrimPad != "" {
		config.TrimPad = c.TrimPad
	}
	if c.Encoder != "" {
		config.Encoder = c.Encoder
	}
	err := config.Array.Validate()
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Do all the work and produce the complete array text. Nothing is printed
// here so a failure anywhere leaves stdout untouched
func (c *CLI) Generate(loader shellcode.Loader) (string, error) {
	config, err := c.settings()
	if err != nil {
		return "", err
	}
	img, err := loader.Load(c.Binary)
	if err != nil {
		return "", err
	}
	section, err := img.RequireSection(config.Section)
	if err != nil {
		return "", err
	}
	data := section.Data
	log.Printf("Found %s: %d bytes at 0x%x\n", section.Name, len(data), section.Addr)
	if config.TrimPad != "" {
		pad, err := shellcode.ParseByteValue(config.TrimPad)
		if err != nil {
			return "", err
		}
		data = shellcode.TrimUnused(data, pad, 1)
		log.Printf("Trimmed %d padding bytes (0x%02x)\n", len(section.Data)-len(data), pad)
		if len(data) == 0 {
			return "", &shellcode.EmptySectionError{Name: config.Section}
		}
	}
	if config.Encoder != "" {
		data, err = shellcode.RunEncoderFile(config.Encoder, data)
		if err != nil {
			return "", err
		}
		if len(data) == 0 {
			return "", fmt.Errorf("encoder %s produced no bytes", config.Encoder)
		}
	}
	var sb strings.Builder
	err = shellcode.WriteArray(&sb, data, &config.Array)
	if err != nil {
		return "", err
	}
	log.Printf("Generated %d byte array '%s' (md5 %s)\n", len(data), config.Array.Name, shellcode.Md5String(data))
	return sb.String(), nil
}

// Turn any failure into the single line the user sees
func diagnostic(err error) string {
	var parseErr *shellcode.ParseError
	var notFound *shellcode.SectionNotFoundError
	var empty *shellcode.EmptySectionError
	switch {
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Failed to parse binary: %s", parseErr)
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &empty):
		return empty.Error()
	}
	return fmt.Sprintf("Error: %s", err)
}

// Parse args, run, and report. Everything (including usage and diagnostics)
// goes to stdout; the returned value is the process exit code
func run(args []string, stdout io.Writer, loader shellcode.Loader) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("bin2vec"),
		kong.Description("Extract the code section of a binary as a byte array declaration"),
		kong.Vars{
			"version": AppVersion,
		},
		kong.Writers(stdout, stdout),
		kong.Exit(func(code int) {
			if exitCode < 0 {
				exitCode = code
			}
		}),
	)
	if err != nil {
		fmt.Fprintf(stdout, "Error: %s\n", err)
		return 1
	}
	_, err = parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version already printed what they wanted
		return exitCode
	}
	if err != nil {
		fmt.Fprintln(stdout, UsageLine)
		return 1
	}
	if cli.Quiet {
		previous := log.Writer()
		log.SetOutput(io.Discard)
		defer log.SetOutput(previous)
	}
	text, err := cli.Generate(loader)
	if err != nil {
		fmt.Fprintln(stdout, diagnostic(err))
		return 1
	}
	fmt.Fprint(stdout, text)
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, shellcode.FileLoader{}))
}
