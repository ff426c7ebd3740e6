// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"kanso/internal/ast"
	"kanso/internal/errors"
	"kanso/internal/parser"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: kanso <file.ka>")
		os.Exit(1)
	}

	path := os.Args[1]

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("failed to read file: %s\n", err)
		os.Exit(1)
	}

	contract, parseErrors, scanErrors := parser.ParseSource(path, string(source))
	if len(parseErrors) > 0 || len(scanErrors) > 0 {
		reportErrors(path, string(source), parseErrors, scanErrors)
		os.Exit(1)
	}

	fmt.Println(contract.String())

	color.Green("✅ Successfully processed %s", path)
}

// reportErrors prints Rust-style caret diagnostics for every scan and parse
// error found while building the AST.
func reportErrors(path, source string, parseErrors []parser.ParseError, scanErrors []parser.ScanError) {
	reporter := errors.NewErrorReporter(path, source)

	for _, se := range scanErrors {
		fmt.Print(reporter.FormatError(errors.CompilerError{
			Level:    errors.Error,
			Code:     "E0001",
			Message:  se.Message,
			Position: toASTPosition(path, se.Position),
			Length:   se.Length,
		}))
	}

	for _, pe := range parseErrors {
		fmt.Print(reporter.FormatError(errors.CompilerError{
			Level:    errors.Error,
			Code:     "E0002",
			Message:  pe.Message,
			Position: toASTPosition(path, pe.Position),
		}))
	}
}

func toASTPosition(filename string, pos parser.Position) ast.Position {
	return ast.Position{
		Filename: filename,
		Offset:   pos.Offset,
		Line:     pos.Line,
		Column:   pos.Column,
	}
}
