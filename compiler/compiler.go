package compiler

import (
	"encoding/binary"
	"fmt"

	"brbc/ast"
	"brbc/token"
)

type local struct {
	name  string
	index uint16
}

// compiler is a visitor that lowers AST nodes directly to bytecode. It
// implements both ast.ExprVisitor and ast.StmtVisitor. Compile errors
// are raised by panicking with a CompileError and recovered at the top
// of Compile, mirroring how a single bad statement anywhere in the
// tree should abort the whole compilation.
type compiler struct {
	file string
	pool *constantPool

	functions     []FunctionMeta
	functionIndex map[string]uint32

	code       []byte
	locals     []local
	inFunction bool
}

// Compile lowers a parsed program to a bytecode artifact.
func Compile(prog *ast.Program, file string) (artifact *Artifact, err error) {
	c := &compiler{file: file, pool: newConstantPool(), functionIndex: make(map[string]uint32)}

	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(CompileError); ok {
				artifact, err = nil, ce
				return
			}
			panic(r)
		}
	}()

	var funcBuffers [][]byte
	for _, fn := range prog.Functions {
		buf, meta := c.compileFunction(fn)
		funcIdx := uint32(2 + len(c.functions))
		c.functionIndex[fn.Name] = funcIdx
		c.functions = append(c.functions, meta)
		funcBuffers = append(funcBuffers, buf)
	}

	mainCode := c.compileMain(prog.Main)

	offset := uint32(len(mainCode))
	for i, buf := range funcBuffers {
		c.functions[i].CodeOffset = offset
		offset += uint32(len(buf))
		mainCode = append(mainCode, buf...)
	}

	return &Artifact{
		Version:   CurrentVersion,
		Flags:     0,
		Constants: c.pool.constants,
		Functions: c.functions,
		Code:      mainCode,
	}, nil
}

func endsWithReturn(body []ast.Stmt) bool {
	if len(body) == 0 {
		return false
	}
	_, ok := body[len(body)-1].(ast.Return)
	return ok
}

// compileFunction compiles one function body into its own buffer, with
// its own local-variable namespace. function calls made from inside it
// can only resolve to functions already compiled (declared earlier),
// since c.functionIndex has not yet gained an entry for fn itself or
// any function declared after it.
func (c *compiler) compileFunction(fn ast.FunctionDecl) ([]byte, FunctionMeta) {
	savedCode, savedLocals, savedInFunction := c.code, c.locals, c.inFunction
	c.code, c.locals, c.inFunction = nil, nil, true

	nameIdx := c.pool.internString(fn.Name)
	for i, p := range fn.Params {
		c.locals = append(c.locals, local{name: p, index: uint16(i)})
	}

	for _, stmt := range fn.Body {
		stmt.Accept(c)
	}
	if !endsWithReturn(fn.Body) {
		emptyIdx := c.pool.internString("")
		c.emit(OP_LOAD_CONST, int(emptyIdx))
		c.emit(OP_RETURN)
	}

	code := c.code
	meta := FunctionMeta{
		NameConstIdx: nameIdx,
		Arity:        uint16(len(fn.Params)),
		LocalCount:   uint16(len(c.locals)),
	}

	c.code, c.locals, c.inFunction = savedCode, savedLocals, savedInFunction
	return code, meta
}

func (c *compiler) compileMain(stmts []ast.Stmt) []byte {
	c.code, c.locals, c.inFunction = nil, nil, false
	for _, stmt := range stmts {
		stmt.Accept(c)
	}
	c.emit(OP_HALT)
	return c.code
}

func (c *compiler) errAt(p ast.Pos, message string) CompileError {
	return CompileError{File: c.file, Line: p.Line, Column: p.Column, Message: message}
}

func (c *compiler) resolveLocal(name string) int {
	for _, l := range c.locals {
		if l.name == name {
			return int(l.index)
		}
	}
	return -1
}

func (c *compiler) emitLoad(name string, p ast.Pos) {
	if c.inFunction {
		if idx := c.resolveLocal(name); idx != -1 {
			c.emit(OP_LOAD_LOCAL, idx)
			return
		}
		panic(c.errAt(p, fmt.Sprintf("unknown local variable: %s", name)))
	}
	idx, ok := token.Braincells[name]
	if !ok {
		panic(c.errAt(p, fmt.Sprintf("unknown braincell: %s", name)))
	}
	c.emit(OP_LOAD_GLOBAL, int(idx))
}

func (c *compiler) emitStore(name string, p ast.Pos) {
	if c.inFunction {
		idx := c.resolveLocal(name)
		if idx == -1 {
			idx = len(c.locals)
			c.locals = append(c.locals, local{name: name, index: uint16(idx)})
		}
		c.emit(OP_STORE_LOCAL, idx)
		return
	}
	idx, ok := token.Braincells[name]
	if !ok {
		panic(c.errAt(p, fmt.Sprintf("unknown braincell: %s", name)))
	}
	c.emit(OP_STORE_GLOBAL, int(idx))
}

// emit assembles an instruction from op and its operands (little-endian,
// per the opcode's declared operand widths) and appends it to the
// buffer currently being compiled.
func (c *compiler) emit(op Opcode, operands ...int) {
	def, err := Get(op)
	if err != nil {
		panic(err.Error())
	}
	c.code = append(c.code, byte(op))
	for i, width := range def.OperandWidths {
		o := operands[i]
		switch width {
		case 1:
			c.code = append(c.code, byte(o))
		case 2:
			b := make([]byte, 2)
			binary.LittleEndian.PutUint16(b, uint16(o))
			c.code = append(c.code, b...)
		case 4:
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, uint32(o))
			c.code = append(c.code, b...)
		}
	}
}

// emitJumpPlaceholder emits op with a zero operand and returns the
// offset of the opcode byte, to be fixed up later by patchJump.
func (c *compiler) emitJumpPlaceholder(op Opcode) int {
	pos := len(c.code)
	c.emit(op, 0)
	return pos
}

func (c *compiler) patchJump(jumpPos, target int) {
	operandPos := jumpPos + 1
	binary.LittleEndian.PutUint32(c.code[operandPos:operandPos+4], uint32(target))
}

// Statement visitors.

func (c *compiler) VisitAssign(s ast.Assign) any {
	s.Expr.Accept(c)
	c.emitStore(s.Name, s.Pos)
	return nil
}

func (c *compiler) VisitPrint(s ast.Print) any {
	s.Expr.Accept(c)
	c.emit(OP_PRINT)
	return nil
}

func (c *compiler) VisitReturn(s ast.Return) any {
	if !c.inFunction {
		panic(c.errAt(s.Pos, "return outside function body"))
	}
	s.Expr.Accept(c)
	c.emit(OP_RETURN)
	return nil
}

func (c *compiler) VisitHalt(s ast.Halt) any {
	c.emit(OP_HALT_ALT)
	return nil
}

func (c *compiler) VisitIf(s ast.If) any {
	s.Cond.Accept(c)
	jumpIfFalse := c.emitJumpPlaceholder(OP_JUMP_IF_FALSE)

	for _, stmt := range s.Then {
		stmt.Accept(c)
	}

	if s.Else != nil {
		jumpEnd := c.emitJumpPlaceholder(OP_JUMP)
		c.patchJump(jumpIfFalse, len(c.code))
		for _, stmt := range s.Else {
			stmt.Accept(c)
		}
		c.patchJump(jumpEnd, len(c.code))
	} else {
		c.patchJump(jumpIfFalse, len(c.code))
	}
	return nil
}

func (c *compiler) VisitWhile(s ast.While) any {
	loopStart := len(c.code)
	s.Cond.Accept(c)
	jumpIfFalse := c.emitJumpPlaceholder(OP_JUMP_IF_FALSE)

	for _, stmt := range s.Body {
		stmt.Accept(c)
	}
	c.emit(OP_JUMP, loopStart)
	c.patchJump(jumpIfFalse, len(c.code))
	return nil
}

// Expression visitors.

func (c *compiler) VisitNumber(n ast.Number) any {
	idx := c.pool.internNumber(n.Value)
	c.emit(OP_LOAD_CONST, int(idx))
	return nil
}

func (c *compiler) VisitString(s ast.String) any {
	idx := c.pool.internString(s.Value)
	c.emit(OP_LOAD_CONST, int(idx))
	return nil
}

func (c *compiler) VisitVariable(v ast.Variable) any {
	c.emitLoad(v.Name, v.Pos)
	return nil
}

func (c *compiler) VisitBinary(b ast.Binary) any {
	b.Left.Accept(c)
	b.Right.Accept(c)
	switch b.Op {
	case ast.OpAdd:
		c.emit(OP_ADD)
	case ast.OpSub:
		c.emit(OP_SUB)
	case ast.OpMul:
		c.emit(OP_MUL)
	case ast.OpDiv:
		c.emit(OP_DIV)
	}
	return nil
}

func (c *compiler) VisitBuiltinCall(call ast.BuiltinCall) any {
	switch call.Name {
	case "TOUCHY":
		c.emit(OP_INPUT)
	case "TRANSFORM":
		if call.Arg == nil {
			panic(c.errAt(call.Pos, "TRANSFORM requires an argument"))
		}
		call.Arg.Accept(c)
		c.emit(OP_CALL, 0)
	case "RIZZED":
		if call.Arg == nil {
			panic(c.errAt(call.Pos, "RIZZED requires an argument"))
		}
		call.Arg.Accept(c)
		c.emit(OP_CALL, 1)
	default:
		panic(c.errAt(call.Pos, fmt.Sprintf("unknown built-in function: %s", call.Name)))
	}
	return nil
}

func (c *compiler) VisitUserCall(call ast.UserCall) any {
	for _, arg := range call.Args {
		arg.Accept(c)
	}
	idx, ok := c.functionIndex[call.Name]
	if !ok {
		panic(c.errAt(call.Pos, fmt.Sprintf("undefined function: %s", call.Name)))
	}
	c.emit(OP_CALL, int(idx))
	return nil
}
