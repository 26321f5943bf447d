package compiler

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

const (
	magic          = "BRBC"
	CurrentVersion = 4
	minVersion     = 3
)

// FunctionMeta is one entry of the function table: a user function's
// name (by constant index), arity, declared local count, and the
// absolute code offset where its body begins.
type FunctionMeta struct {
	NameConstIdx uint32
	Arity        uint16
	LocalCount   uint16
	CodeOffset   uint32
}

// Artifact is the fully decoded bytecode file: header fields, the
// constant pool, the function table, and the code section.
type Artifact struct {
	Version   uint16
	Flags     uint16
	Constants []Constant
	Functions []FunctionMeta
	Code      []byte
}

// DecodeError reports a malformed or truncated artifact.
type DecodeError struct {
	Message string
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("malformed bytecode artifact: %s", e.Message)
}

// Encode serializes the artifact to its on-disk byte layout.
func (a *Artifact) Encode() []byte {
	var buf []byte
	buf = append(buf, magic...)
	buf = appendU16(buf, a.Version)
	buf = appendU16(buf, a.Flags)

	buf = appendU32(buf, uint32(len(a.Constants)))
	for _, c := range a.Constants {
		buf = append(buf, byte(c.Tag))
		switch c.Tag {
		case ConstNumber:
			buf = appendF64(buf, c.Number)
		case ConstString:
			strBytes := []byte(c.Str)
			buf = appendU32(buf, uint32(len(strBytes)))
			buf = append(buf, strBytes...)
		}
	}

	if a.Version >= 4 {
		buf = appendU32(buf, uint32(len(a.Functions)))
		for _, fn := range a.Functions {
			buf = appendU32(buf, fn.NameConstIdx)
			buf = appendU16(buf, fn.Arity)
			buf = appendU16(buf, fn.LocalCount)
			buf = appendU32(buf, fn.CodeOffset)
		}
	}

	buf = appendU32(buf, uint32(len(a.Code)))
	buf = append(buf, a.Code...)
	return buf
}

// Decode parses a bytecode artifact. Both version 3 (no function
// table) and version >= 4 layouts are accepted.
func Decode(data []byte) (*Artifact, error) {
	r := &reader{data: data}

	if !r.consume(len(magic)) || string(r.lastRead) != magic {
		return nil, DecodeError{Message: "bad magic"}
	}

	version, ok := r.readU16()
	if !ok {
		return nil, DecodeError{Message: "truncated header: version"}
	}
	if version < minVersion || version > CurrentVersion {
		return nil, DecodeError{Message: fmt.Sprintf("unsupported version: %d", version)}
	}
	flags, ok := r.readU16()
	if !ok {
		return nil, DecodeError{Message: "truncated header: flags"}
	}

	constCount, ok := r.readU32()
	if !ok {
		return nil, DecodeError{Message: "truncated header: const_count"}
	}
	constants := make([]Constant, 0, constCount)
	for i := uint32(0); i < constCount; i++ {
		tag, ok := r.readU8()
		if !ok {
			return nil, DecodeError{Message: "truncated constant tag"}
		}
		switch ConstantTag(tag) {
		case ConstNumber:
			n, ok := r.readF64()
			if !ok {
				return nil, DecodeError{Message: "truncated numeric constant"}
			}
			constants = append(constants, Constant{Tag: ConstNumber, Number: n})
		case ConstString:
			length, ok := r.readU32()
			if !ok {
				return nil, DecodeError{Message: "truncated string constant length"}
			}
			s, ok := r.readString(int(length))
			if !ok {
				return nil, DecodeError{Message: "truncated string constant data"}
			}
			if !utf8.ValidString(s) {
				return nil, DecodeError{Message: "invalid UTF-8 in string constant"}
			}
			constants = append(constants, Constant{Tag: ConstString, Str: s})
		default:
			return nil, DecodeError{Message: fmt.Sprintf("unknown constant tag: %d", tag)}
		}
	}

	var functions []FunctionMeta
	if version >= 4 {
		funcCount, ok := r.readU32()
		if !ok {
			return nil, DecodeError{Message: "truncated header: func_count"}
		}
		functions = make([]FunctionMeta, 0, funcCount)
		for i := uint32(0); i < funcCount; i++ {
			nameIdx, ok1 := r.readU32()
			arity, ok2 := r.readU16()
			localCount, ok3 := r.readU16()
			offset, ok4 := r.readU32()
			if !ok1 || !ok2 || !ok3 || !ok4 {
				return nil, DecodeError{Message: "truncated function table entry"}
			}
			functions = append(functions, FunctionMeta{
				NameConstIdx: nameIdx, Arity: arity, LocalCount: localCount, CodeOffset: offset,
			})
		}
	}

	codeSize, ok := r.readU32()
	if !ok {
		return nil, DecodeError{Message: "truncated header: code_size"}
	}
	code, ok := r.readBytes(int(codeSize))
	if !ok {
		return nil, DecodeError{Message: "truncated code section"}
	}

	return &Artifact{
		Version:   version,
		Flags:     flags,
		Constants: constants,
		Functions: functions,
		Code:      code,
	}, nil
}

func appendU16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return append(buf, b...)
}

func appendU32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return append(buf, b...)
}

func appendF64(buf []byte, v float64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return append(buf, b...)
}

// reader is a small cursor over a byte slice used by Decode, mirroring
// the bounds-checked style of the rest of the loader.
type reader struct {
	data     []byte
	pos      int
	lastRead []byte
}

func (r *reader) consume(n int) bool {
	if r.pos+n > len(r.data) {
		return false
	}
	r.lastRead = r.data[r.pos : r.pos+n]
	r.pos += n
	return true
}

func (r *reader) readU8() (byte, bool) {
	if !r.consume(1) {
		return 0, false
	}
	return r.lastRead[0], true
}

func (r *reader) readU16() (uint16, bool) {
	if !r.consume(2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(r.lastRead), true
}

func (r *reader) readU32() (uint32, bool) {
	if !r.consume(4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(r.lastRead), true
}

func (r *reader) readF64() (float64, bool) {
	if !r.consume(8) {
		return 0, false
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(r.lastRead)), true
}

func (r *reader) readBytes(n int) ([]byte, bool) {
	if !r.consume(n) {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, r.lastRead)
	return out, true
}

func (r *reader) readString(n int) (string, bool) {
	b, ok := r.readBytes(n)
	if !ok {
		return "", false
	}
	return string(b), true
}
