package shellcode

// Lua encoder scripts. A script gets the raw section bytes and hands back
// whatever should be embedded instead (xor'd, prefixed with a decoder stub, etc).

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log"
	"os"

	lua "github.com/yuin/gopher-lua"
)

const (
	EncoderFunctionName = "encode"
)

// Function for lua scripts that lets you parse hex
func luaHex(L *lua.LState) int {
	hexstring := L.ToString(1)
	bytes, err := hex.DecodeString(hexstring)
	if err != nil {
		L.RaiseError("Error decoding hex in lua script: %s", err)
		return 0
	}
	log.Printf("Decoded %d bytes from hex in lua script", len(bytes))
	L.Push(lua.LString(string(bytes)))
	return 1
}

// Lua 5.1 has no bitwise operators, so xor has to come from us. The key
// repeats over the whole input
func luaXor(L *lua.LState) int {
	data := []byte(L.CheckString(1))
	key := []byte(L.CheckString(2))
	if len(key) == 0 {
		L.RaiseError("xor key can't be empty")
		return 0
	}
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	L.Push(lua.LString(string(out)))
	return 1
}

// Takes a table of numbers and turns it into the general writable type (string)
func luaBytes(L *lua.LState) int {
	table := L.ToTable(1)
	typ := L.ToString(2)
	if table == nil {
		L.RaiseError("Error: must pass a table!")
		return 0
	}
	var buf bytes.Buffer
	var err error
	writebuf := func(d any) {
		err = binary.Write(&buf, binary.LittleEndian, d)
	}
	for i := 1; i <= table.Len(); i++ {
		lv := table.RawGetInt(i)
		num, ok := lv.(lua.LNumber)
		if !ok {
			L.RaiseError("Error: index %d must be a number!", i)
			return 0
		}
		raw := float64(num)
		switch typ {
		case "uint32":
			writebuf(uint32(raw))
		case "int32":
			writebuf(int32(raw))
		case "uint16":
			writebuf(uint16(raw))
		case "int16":
			writebuf(int16(raw))
		case "int8":
			writebuf(int8(raw))
		case "uint8", "byte", "":
			writebuf(byte(raw))
		default:
			L.RaiseError("Unknown type: %s", typ)
			return 0
		}
		if err != nil {
			L.RaiseError("Error converting array to bytes: %s", err)
			return 0
		}
	}
	L.Push(lua.LString(buf.String()))
	return 1
}

func setEncoderLuaFunctions(L *lua.LState) {
	L.SetGlobal("hex", L.NewFunction(luaHex))
	L.SetGlobal("xor", L.NewFunction(luaXor))
	L.SetGlobal("bytes", L.NewFunction(luaBytes))
}

// Run the given lua source, then call its global encode(data) with the section
// bytes. Whatever string encode returns becomes the new data
func RunEncoderScript(script string, data []byte) ([]byte, error) {
	L := lua.NewState()
	defer L.Close()
	setEncoderLuaFunctions(L)

	err := L.DoString(script)
	if err != nil {
		return nil, fmt.Errorf("encoder script failed: %s", err)
	}
	fn := L.GetGlobal(EncoderFunctionName)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("encoder script doesn't define %s(data)", EncoderFunctionName)
	}
	err = L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%s failed: %s", EncoderFunctionName, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	result, ok := ret.(lua.LString)
	if !ok {
		return nil, fmt.Errorf("%s must return a string, got %s", EncoderFunctionName, ret.Type())
	}
	log.Printf("Encoder script turned %d bytes into %d bytes\n", len(data), len(result))
	return []byte(string(result)), nil
}

// Same as RunEncoderScript, but the script comes from a file
func RunEncoderFile(path string, data []byte) ([]byte, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return RunEncoderScript(string(script), data)
}
