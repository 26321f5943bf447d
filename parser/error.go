package parser

import "fmt"

// SyntaxError is a parse-time error with source position.
type SyntaxError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func CreateSyntaxError(file string, line, column int, message string) SyntaxError {
	return SyntaxError{File: file, Line: line, Column: column, Message: message}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}
