package vm

import "fmt"

// RuntimeError is any fault raised while executing bytecode: stack
// underflow, an out-of-bounds index, a type mismatch, and so on. None
// are recoverable by the running program.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("runtime: %s", e.Message)
}
