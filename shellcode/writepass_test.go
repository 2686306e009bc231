package shellcode

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type shortWriter struct{}

func (shortWriter) Write(b []byte) (int, error) {
	return len(b) / 2, nil
}

func TestWriteErrorPass(t *testing.T) {
	var buf bytes.Buffer
	wep := NewWriteErrorPass(&buf)
	wep.WriteStringPass("abc")
	wep.WritePass([]byte{0x00, 0xff})
	if wep.IsPass() != nil {
		t.Fatalf("Unexpected error: %s", wep.IsPass())
	}
	if wep.Written() != 5 || buf.Len() != 5 {
		t.Fatalf("Expected 5 bytes written, got %d (buffer %d)", wep.Written(), buf.Len())
	}
}

func TestWriteErrorPass_StopsAfterError(t *testing.T) {
	fw := &failingWriter{allowed: 4}
	wep := NewWriteErrorPass(fw)
	wep.WriteStringPass("abc")
	wep.WriteStringPass("defg")
	if !errors.Is(wep.IsPass(), errWriterFull) {
		t.Fatalf("Expected writer error, got %v", wep.IsPass())
	}
	written := wep.Written()
	if written != 4 {
		t.Fatalf("Expected 4 bytes through, got %d", written)
	}
	// Even a write that would fit is skipped now
	fw.allowed = 100
	if wep.WriteStringPass("h") != 0 || wep.Written() != written {
		t.Fatalf("Write went through after an error")
	}
}

func TestWriteErrorPass_ShortWrite(t *testing.T) {
	wep := NewWriteErrorPass(shortWriter{})
	wep.WriteStringPass("abcd")
	if !errors.Is(wep.IsPass(), io.ErrShortWrite) {
		t.Fatalf("Expected short write error, got %v", wep.IsPass())
	}
}
