package shellcode

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfig_Empty(t *testing.T) {
	config, err := ParseConfig([]byte(""))
	if err != nil {
		t.Fatalf("Error parsing empty config: %s", err)
	}
	if *config != DefaultConfig() {
		t.Fatalf("Empty config isn't the default: %+v", config)
	}
}

func TestParseConfig_Full(t *testing.T) {
	raw := `
section = ".init"
trim_pad = "0xcc"
encoder = "xor.lua"

[array]
name = "payload"
style = "go"
indent = 2
line_size = 8
with_length = true
`
	config, err := ParseConfig([]byte(raw))
	if err != nil {
		t.Fatalf("Error parsing config: %s", err)
	}
	expected := Config{
		Section: ".init",
		TrimPad: "0xcc",
		Encoder: "xor.lua",
		Array: ArrayConfig{
			Name:       "payload",
			Style:      StyleGo,
			Indent:     2,
			LineSize:   8,
			WithLength: true,
		},
	}
	if *config != expected {
		t.Fatalf("Expected %+v, got %+v", expected, *config)
	}
}

func TestParseConfig_Partial(t *testing.T) {
	config, err := ParseConfig([]byte("[array]\nline_size = 16\n"))
	if err != nil {
		t.Fatalf("Error parsing config: %s", err)
	}
	expected := DefaultConfig()
	expected.Array.LineSize = 16
	if *config != expected {
		t.Fatalf("Expected %+v, got %+v", expected, *config)
	}
}

func TestParseConfig_Bad(t *testing.T) {
	bad := []string{
		"section = ",
		"section = 5",
		"section = \"\"",
		"trim_pad = \"0x1ff\"",
		"[array]\nindent = \"four\"",
		"[array]\nline_size = 0",
		"[array]\nstyle = \"rust\"",
		"[array]\nname = \"not valid\"",
		"[array]\nwith_length = 1",
	}
	for _, raw := range bad {
		_, err := ParseConfig([]byte(raw))
		if err == nil {
			t.Fatalf("Expected error for config:\n%s", raw)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin2vec.toml")
	err := os.WriteFile(path, []byte("section = \".data\"\n"), 0644)
	if err != nil {
		t.Fatalf("Couldn't write config: %s", err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Error loading config: %s", err)
	}
	if config.Section != ".data" {
		t.Fatalf("Expected section .data, got %s", config.Section)
	}
	_, err = LoadConfig(path + ".missing")
	if err == nil {
		t.Fatalf("Expected error loading missing config")
	}
}
