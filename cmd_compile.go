package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"brbc/compiler"
	"brbc/lexer"
	"brbc/parser"

	"github.com/google/subcommands"
)

type compileCmd struct {
	output string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Compile source to a .brbc artifact" }
func (*compileCmd) Usage() string {
	return `compile <input> [-o output]:
  Lex, parse, and compile a source file to a bytecode artifact.
`
}

func (cmd *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.output, "o", "", "output path for the compiled artifact (defaults to <input> with a .brbc extension)")
	f.StringVar(&cmd.output, "output", "", "output path for the compiled artifact (defaults to <input> with a .brbc extension)")
}

func (cmd *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	toks, err := lexer.New(string(data), inputPath).Scan()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	prog, err := parser.New(toks, inputPath).Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	artifact, err := compiler.Compile(prog, inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}

	outputPath := cmd.output
	if outputPath == "" {
		outputPath = outputPathFor(inputPath)
	}
	if err := os.WriteFile(outputPath, artifact.Encode(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write artifact:\n\t%v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("wrote %s\n", outputPath)
	return subcommands.ExitSuccess
}

func outputPathFor(inputPath string) string {
	if dot := strings.LastIndex(inputPath, "."); dot > strings.LastIndexByte(inputPath, '/') {
		return inputPath[:dot] + ".brbc"
	}
	return inputPath + ".brbc"
}
