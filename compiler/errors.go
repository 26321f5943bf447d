package compiler

import "fmt"

// CompileError is a compile-time error with source position.
type CompileError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e CompileError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}
