package shellcode

import (
	"io"
)

// Writer wrapper that remembers the first error and skips every write after
// it. Lets the code generators emit lots of small fragments and check the
// error once at the end
type WriteErrorPass struct {
	w       io.Writer
	err     error
	written int
}

func NewWriteErrorPass(w io.Writer) *WriteErrorPass {
	return &WriteErrorPass{w: w}
}

func (wep *WriteErrorPass) Write(b []byte) (int, error) {
	if wep.err != nil {
		return 0, wep.err
	}
	n, err := wep.w.Write(b)
	wep.written += n
	if err == nil && n < len(b) {
		err = io.ErrShortWrite
	}
	wep.err = err
	return n, err
}

func (wep *WriteErrorPass) WritePass(b []byte) int {
	val, _ := wep.Write(b)
	return val
}

func (wep *WriteErrorPass) WriteStringPass(s string) int {
	return wep.WritePass([]byte(s))
}

// Total bytes that made it to the underlying writer
func (wep *WriteErrorPass) Written() int {
	return wep.written
}

func (wep *WriteErrorPass) IsPass() error {
	return wep.err
}
