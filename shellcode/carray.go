package shellcode

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	DefaultArrayName = "shellcode"
	DefaultIndent    = 4
	DefaultLineSize  = 12

	StyleC  = "c"
	StyleGo = "go"
)

const hexDigits = "0123456789abcdef"

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// How the array declaration gets written out
type ArrayConfig struct {
	Name       string // Variable name in the declaration
	Style      string // "c" or "go"
	Indent     int    // Spaces before each line of bytes
	LineSize   int    // Bytes per line
	WithLength bool   // Also declare the length
}

func DefaultArrayConfig() ArrayConfig {
	return ArrayConfig{
		Name:     DefaultArrayName,
		Style:    StyleC,
		Indent:   DefaultIndent,
		LineSize: DefaultLineSize,
	}
}

func (c *ArrayConfig) Validate() error {
	if !identifierRegex.MatchString(c.Name) {
		return fmt.Errorf("array name '%s' is not a valid identifier", c.Name)
	}
	if c.Style != StyleC && c.Style != StyleGo {
		return fmt.Errorf("unknown array style '%s' (expected %s or %s)", c.Style, StyleC, StyleGo)
	}
	if c.Indent < 0 {
		return fmt.Errorf("indent can't be negative (got %d)", c.Indent)
	}
	if c.LineSize < 1 {
		return fmt.Errorf("line size must be at least 1 (got %d)", c.LineSize)
	}
	return nil
}

// Render bytes as a C "unsigned char shellcode[]" declaration, lineSize bytes
// to a line, each line indented by indent spaces. The last byte has no
// trailing comma. lineSize <= 0 puts everything on one line. Empty data still
// produces a (degenerate) declaration with nothing between the braces.
func FormatArray(data []byte, indent int, lineSize int) string {
	var sb strings.Builder
	wep := NewWriteErrorPass(&sb)
	wep.WriteStringPass("unsigned char shellcode[] = {\n")
	writeArrayBody(wep, data, indent, lineSize, false)
	wep.WriteStringPass("};\n")
	// strings.Builder never fails a write
	return sb.String()
}

// Write the full declaration for data to w using the given config. Nothing
// is validated here; call Validate first if the config came from a user.
func WriteArray(w io.Writer, data []byte, config *ArrayConfig) error {
	wep := NewWriteErrorPass(w)
	switch config.Style {
	case StyleGo:
		wep.WriteStringPass(fmt.Sprintf("var %s = []byte{\n", config.Name))
		// Go wants the comma on every line when the brace sits on its own line
		writeArrayBody(wep, data, config.Indent, config.LineSize, true)
		wep.WriteStringPass("}\n")
		if config.WithLength {
			wep.WriteStringPass(fmt.Sprintf("\nconst %sLen = %d\n", config.Name, len(data)))
		}
	default:
		wep.WriteStringPass(fmt.Sprintf("unsigned char %s[] = {\n", config.Name))
		writeArrayBody(wep, data, config.Indent, config.LineSize, false)
		wep.WriteStringPass("};\n")
		if config.WithLength {
			wep.WriteStringPass(fmt.Sprintf("unsigned int %s_len = %d;\n", config.Name, len(data)))
		}
	}
	return wep.IsPass()
}

// Emit the lines between the braces. Every line but the last ends in a comma;
// the last one only does if trailingComma is set
func writeArrayBody(wep *WriteErrorPass, data []byte, indent int, lineSize int, trailingComma bool) {
	if lineSize <= 0 {
		lineSize = len(data)
	}
	pad := strings.Repeat(" ", max(indent, 0))
	lit := []byte("0x00")
	for i := 0; i < len(data); i += lineSize {
		end := min(i+lineSize, len(data))
		wep.WriteStringPass(pad)
		for j := i; j < end; j++ {
			if j > i {
				wep.WriteStringPass(",")
			}
			lit[2] = hexDigits[data[j]>>4]
			lit[3] = hexDigits[data[j]&0x0F]
			wep.WritePass(lit)
		}
		if end < len(data) || trailingComma {
			wep.WriteStringPass(",")
		}
		wep.WriteStringPass("\n")
	}
}
