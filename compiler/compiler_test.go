package compiler

import (
	"math"
	"testing"

	"brbc/lexer"
	"brbc/parser"
)

func mustCompile(t *testing.T, source string) *Artifact {
	t.Helper()
	toks, err := lexer.New(source, "t.brb").Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(toks, "t.brb").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	art, err := Compile(prog, "t.brb")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return art
}

func TestMainEndsInHalt(t *testing.T) {
	art := mustCompile(t, `LOCK IN SAY "hi" ITS OVER`)
	last := art.Code[len(art.Code)-1]
	if Opcode(last) != OP_HALT {
		t.Fatalf("expected HALT at end of main, last byte = 0x%02X", last)
	}
}

func TestConstantPoolDeduplicates(t *testing.T) {
	art := mustCompile(t, `LOCK IN SAY 1 💀 1 💀 1 ITS OVER`)
	count := 0
	for _, c := range art.Constants {
		if c.Tag == ConstNumber && c.Number == 1 {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected constant 1 to appear once, appeared %d times", count)
	}
}

func TestNegativeZeroAndPositiveZeroAreDistinctConstants(t *testing.T) {
	art := mustCompile(t, `LOCK IN SAY 0 ITS OVER`)
	if len(art.Constants) != 1 || art.Constants[0].Number != 0 {
		t.Fatalf("unexpected constants: %#v", art.Constants)
	}

	p := newConstantPool()
	pos := p.internNumber(0)
	neg := p.internNumber(math.Copysign(0, -1))
	if pos == neg || len(p.constants) != 2 {
		t.Fatalf("+0 and -0 interned to indices %d and %d, want two distinct entries", pos, neg)
	}
}

func TestUserFunctionIndicesStartAtTwo(t *testing.T) {
	art := mustCompile(t, `TRALALERO a() YOUSHALLNOTPASS TRALALA TRALALERO b() YOUSHALLNOTPASS TRALALA LOCK IN SAY RING YAS a() SAY RING YAS b() ITS OVER`)
	if len(art.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(art.Functions))
	}
	// Main code: CALL a (5 bytes), PRINT (1 byte), CALL b, ...
	if Opcode(art.Code[0]) != OP_CALL || leU32(art.Code[1:5]) != 2 {
		t.Fatalf("expected first call to target index 2, got % X", art.Code[0:5])
	}
	if Opcode(art.Code[6]) != OP_CALL || leU32(art.Code[7:11]) != 3 {
		t.Fatalf("expected second call to target index 3, got % X", art.Code[6:11])
	}
}

func TestFunctionBodyDefaultsToEmptyStringReturn(t *testing.T) {
	art := mustCompile(t, `TRALALERO f() SAY "hi" TRALALA LOCK IN ITS OVER`)
	if len(art.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(art.Functions))
	}
	fn := art.Functions[0]
	body := art.Code[fn.CodeOffset:]
	foundReturn := false
	for _, b := range body {
		if Opcode(b) == OP_RETURN {
			foundReturn = true
		}
	}
	if !foundReturn {
		t.Fatal("expected a default RETURN in function body lacking an explicit one")
	}
}

func TestParamsAllocateLocalsInOrder(t *testing.T) {
	art := mustCompile(t, `TRALALERO f(x, y) RETREAT x 💀 y TRALALA LOCK IN ITS OVER`)
	fn := art.Functions[0]
	if fn.Arity != 2 {
		t.Fatalf("expected arity 2, got %d", fn.Arity)
	}
	if fn.LocalCount < fn.Arity {
		t.Fatalf("local count %d < arity %d", fn.LocalCount, fn.Arity)
	}
	// Body: LOAD_LOCAL 0 (x), LOAD_LOCAL 1 (y), ADD, RETURN.
	body := art.Code[fn.CodeOffset:]
	if Opcode(body[0]) != OP_LOAD_LOCAL || body[1] != 0 || body[2] != 0 ||
		Opcode(body[3]) != OP_LOAD_LOCAL || body[4] != 1 || body[5] != 0 {
		t.Fatalf("expected x at local 0 and y at local 1, got % X", body[:6])
	}
}

func TestReturnOutsideFunctionIsCompileError(t *testing.T) {
	toks, err := lexer.New(`LOCK IN RETREAT 1 ITS OVER`, "t.brb").Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(toks, "t.brb").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = Compile(prog, "t.brb")
	if err == nil {
		t.Fatal("expected compile error for RETREAT outside a function body")
	}
	if _, ok := err.(CompileError); !ok {
		t.Fatalf("expected CompileError, got %T", err)
	}
}

func TestCallToUndeclaredFunctionIsCompileError(t *testing.T) {
	toks, err := lexer.New(`LOCK IN SAY RING YAS nope() ITS OVER`, "t.brb").Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(toks, "t.brb").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = Compile(prog, "t.brb")
	if err == nil {
		t.Fatal("expected compile error calling an undeclared function")
	}
}

func TestNonBraincellNameAtMainScopeIsCompileError(t *testing.T) {
	toks, err := lexer.New(`LOCK IN FANUMTAX x FR 1 ITS OVER`, "t.brb").Scan()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	prog, err := parser.New(toks, "t.brb").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = Compile(prog, "t.brb")
	if err == nil {
		t.Fatal("expected compile error assigning a non-braincell name at main scope")
	}
}

func TestArtifactEncodeDecodeRoundTrips(t *testing.T) {
	art := mustCompile(t, `TRALALERO dbl(x) RETREAT x 💀 x TRALALA LOCK IN SAY RING YAS dbl(21) ITS OVER`)
	encoded := art.Encode()
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if decoded.Version != art.Version || len(decoded.Constants) != len(art.Constants) ||
		len(decoded.Functions) != len(art.Functions) || len(decoded.Code) != len(art.Code) {
		t.Fatalf("round-trip mismatch: got %#v, want %#v", decoded, art)
	}
}

func TestJumpTargetsFallWithinCodeSection(t *testing.T) {
	art := mustCompile(t, `LOCK IN FANUMTAX aura FR 0 SKIBIDI aura 😭 3 FANUMTAX aura FR aura 💀 1 RIZZUP ITS OVER`)
	ip := 0
	for ip < len(art.Code) {
		op := Opcode(art.Code[ip])
		if op == OP_JUMP || op == OP_JUMP_IF_FALSE {
			target := leU32(art.Code[ip+1 : ip+5])
			if int(target) >= len(art.Code) {
				t.Fatalf("jump target %d does not fall within code length %d", target, len(art.Code))
			}
		}
		ip += InstructionWidth(op)
	}
}

func leU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func TestDecodeRejectsInvalidUTF8StringConstant(t *testing.T) {
	var raw []byte
	raw = append(raw, magic...)
	raw = appendU16(raw, CurrentVersion)
	raw = appendU16(raw, 0) // flags
	raw = appendU32(raw, 1) // const_count
	raw = append(raw, byte(ConstString))
	badBytes := []byte{0xFF, 0xFE}
	raw = appendU32(raw, uint32(len(badBytes)))
	raw = append(raw, badBytes...)
	raw = appendU32(raw, 0) // func_count
	raw = appendU32(raw, 0) // code_size

	_, err := Decode(raw)
	if err == nil {
		t.Fatal("expected a decode error for an invalid UTF-8 string constant")
	}
	if _, ok := err.(DecodeError); !ok {
		t.Fatalf("expected DecodeError, got %T", err)
	}
}
