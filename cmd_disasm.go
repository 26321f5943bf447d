package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"brbc/compiler"

	"github.com/google/subcommands"
)

// disasmCmd prints a human-readable listing of a compiled artifact: the
// constant pool, the function table, and the code section decoded
// instruction by instruction. Not part of the compile/exec contract, a
// debugging aid layered on top of it.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Disassemble a .brbc artifact to a readable listing" }
func (*disasmCmd) Usage() string {
	return `disasm <input>:
  Decode a bytecode artifact and print its constants, functions, and code.
`
}

func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	inputPath := args[0]

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	artifact, err := compiler.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to decode artifact:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Print(compiler.Disassemble(artifact))
	return subcommands.ExitSuccess
}
