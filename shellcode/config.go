package shellcode

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Settings that can live in a toml file instead of on the command line
type Config struct {
	Section string
	TrimPad string // Byte value to strip from the end, empty for none
	Encoder string // Path to a lua encoder script
	Array   ArrayConfig
}

func DefaultConfig() Config {
	return Config{
		Section: TextSectionName,
		Array:   DefaultArrayConfig(),
	}
}

func pullTomlString(tree *toml.Tree, key string, done func(string)) error {
	if !tree.Has(key) {
		return nil
	}
	value, ok := tree.Get(key).(string)
	if !ok {
		return errors.Errorf("config key %s must be a string", key)
	}
	done(value)
	return nil
}

func pullTomlInt(tree *toml.Tree, key string, done func(int)) error {
	if !tree.Has(key) {
		return nil
	}
	value, ok := tree.Get(key).(int64)
	if !ok {
		return errors.Errorf("config key %s must be an integer", key)
	}
	done(int(value))
	return nil
}

func pullTomlBool(tree *toml.Tree, key string, done func(bool)) error {
	if !tree.Has(key) {
		return nil
	}
	value, ok := tree.Get(key).(bool)
	if !ok {
		return errors.Errorf("config key %s must be true or false", key)
	}
	done(value)
	return nil
}

// Parse toml config data on top of the defaults, so anything left out of the
// file keeps its default value
func ParseConfig(raw []byte) (*Config, error) {
	tree, err := toml.LoadBytes(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	config := DefaultConfig()
	pulls := []error{
		pullTomlString(tree, "section", func(v string) { config.Section = v }),
		pullTomlString(tree, "trim_pad", func(v string) { config.TrimPad = v }),
		pullTomlString(tree, "encoder", func(v string) { config.Encoder = v }),
		pullTomlString(tree, "array.name", func(v string) { config.Array.Name = v }),
		pullTomlString(tree, "array.style", func(v string) { config.Array.Style = v }),
		pullTomlInt(tree, "array.indent", func(v int) { config.Array.Indent = v }),
		pullTomlInt(tree, "array.line_size", func(v int) { config.Array.LineSize = v }),
		pullTomlBool(tree, "array.with_length", func(v bool) { config.Array.WithLength = v }),
	}
	for _, err := range pulls {
		if err != nil {
			return nil, err
		}
	}
	if config.Section == "" {
		return nil, errors.New("config section name can't be empty")
	}
	if config.TrimPad != "" {
		if _, err := ParseByteValue(config.TrimPad); err != nil {
			return nil, errors.WithMessage(err, "config trim_pad")
		}
	}
	err = config.Array.Validate()
	if err != nil {
		return nil, errors.WithMessage(err, "config array")
	}
	return &config, nil
}

func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	return ParseConfig(raw)
}
