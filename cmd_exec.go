package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"brbc/compiler"
	"brbc/vm"

	"github.com/google/subcommands"
)

type execCmd struct{}

func (*execCmd) Name() string     { return "exec" }
func (*execCmd) Synopsis() string { return "Load and run a .brbc artifact" }
func (*execCmd) Usage() string {
	return `exec <input>:
  Decode a bytecode artifact and execute it.
`
}

func (*execCmd) SetFlags(f *flag.FlagSet) {}

func (*execCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	machine := vm.New(artifact, os.Stdin, os.Stdout)
	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
