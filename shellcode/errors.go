package shellcode

import (
	"errors"
	"fmt"
	"io/fs"
)

// Loading the binary failed for any reason: missing file, unknown container,
// or a container the parser rejected
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	// Filesystem errors already name the path
	var pathErr *fs.PathError
	if errors.As(e.Err, &pathErr) {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// The image was parsed fine but doesn't define the requested section
type SectionNotFoundError struct {
	Name string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("No %s section found.", e.Name)
}

// The section exists but holds no bytes, so there's nothing to embed
type EmptySectionError struct {
	Name string
}

func (e *EmptySectionError) Error() string {
	return fmt.Sprintf("Section %s is empty.", e.Name)
}
