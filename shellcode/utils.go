package shellcode

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
)

var byteLiteralRegex = regexp.MustCompile(`0x([0-9a-fA-F]{1,2})\b`)

// Remove padding from the end of the byte array. Linkers pad code sections out
// with a fill byte (0x00, 0xCC for int3, 0x90 for nop) which is useless in
// shellcode. Only whole multiples of blocksize get removed so alignment of
// what's left doesn't change; use 1 to remove all of it.
func TrimUnused(data []byte, pad byte, blocksize int) []byte {
	if blocksize < 1 {
		blocksize = 1
	}
	unusedLength := 0
	dlen := len(data)
	for ; unusedLength < dlen; unusedLength++ {
		if data[dlen-1-unusedLength] != pad {
			break
		}
	}

	// Now just trim unused length off the end, but aligned to the smallest blocksize
	trim := (unusedLength / blocksize) * blocksize
	return data[:dlen-trim]
}

// Produce an md5 string from given data (a simple shortcut)
func Md5String(data []byte) string {
	hash := md5.Sum(data)
	return hex.EncodeToString(hash[:])
}

// Pull every 0xNN literal out of generated array text, in order. This is the
// inverse of FormatArray/WriteArray
func ParseArrayBytes(text string) ([]byte, error) {
	matches := byteLiteralRegex.FindAllStringSubmatch(text, -1)
	result := make([]byte, 0, len(matches))
	for _, m := range matches {
		value, err := strconv.ParseUint(m[1], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte literal 0x%s: %s", m[1], err)
		}
		result = append(result, byte(value))
	}
	return result, nil
}

// Parse a single byte value given on the command line or in a config, like
// "0xcc", "204" or "0o314"
func ParseByteValue(s string) (byte, error) {
	value, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("'%s' is not a byte value: %s", s, err)
	}
	return byte(value), nil
}
