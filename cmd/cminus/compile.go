package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Hyper5phere/simple-c-compiler/compiler"
	"github.com/Hyper5phere/simple-c-compiler/vm"
)

var compileFlags = struct {
	output      *string
	outDir      *string
	errorFiles  *bool
	tree        *bool
	symbolTable *bool
	tokens      *bool
	run         *bool
	verbose     *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:   "compile [<source file path>]",
		Short: "Compile a C-minus program into three-address code",
		Example: `  cminus compile input.txt
  cminus compile input.txt --out-dir out --error-files --tree --tokens --symbol-table
  cat input.txt | cminus compile -o output.txt -r`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "listing file path (default <out-dir>/output.txt)")
	compileFlags.outDir = cmd.Flags().String("out-dir", ".", "directory the listing and the dump files are written to")
	compileFlags.errorFiles = cmd.Flags().Bool("error-files", false, "write lexical_errors.txt, syntax_errors.txt and semantic_errors.txt")
	compileFlags.tree = cmd.Flags().Bool("tree", false, "write the parse tree to parse_tree.txt")
	compileFlags.symbolTable = cmd.Flags().Bool("symbol-table", false, "write the keywords and identifiers to symbol_table.txt")
	compileFlags.tokens = cmd.Flags().Bool("tokens", false, "write the tokens to tokens.txt")
	compileFlags.run = cmd.Flags().BoolP("run", "r", false, "run the program after compiling it")
	compileFlags.verbose = cmd.Flags().BoolP("verbose", "v", false, "print the listing")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) (retErr error) {
	defer recoverError(&retErr)

	r, err := compileSource(args)
	if err != nil {
		return err
	}

	outDir := *compileFlags.outDir
	err = os.MkdirAll(outDir, 0755)
	if err != nil {
		return fmt.Errorf("Cannot create the output directory %s: %w", outDir, err)
	}

	outPath := *compileFlags.output
	if outPath == "" {
		outPath = filepath.Join(outDir, "output.txt")
	}
	dumps := []struct {
		enabled bool
		path    string
		write   func(w io.Writer) error
	}{
		{true, outPath, r.WriteProgram},
		{*compileFlags.errorFiles, filepath.Join(outDir, "lexical_errors.txt"), r.WriteLexicalErrors},
		{*compileFlags.errorFiles, filepath.Join(outDir, "syntax_errors.txt"), r.WriteSyntaxErrors},
		{*compileFlags.errorFiles, filepath.Join(outDir, "semantic_errors.txt"), r.WriteSemanticErrors},
		{*compileFlags.tree, filepath.Join(outDir, "parse_tree.txt"), r.WriteTree},
		{*compileFlags.symbolTable, filepath.Join(outDir, "symbol_table.txt"), r.WriteSymbols},
		{*compileFlags.tokens, filepath.Join(outDir, "tokens.txt"), r.WriteTokens},
	}
	for _, d := range dumps {
		if !d.enabled {
			continue
		}
		err := writeFile(d.path, d.write)
		if err != nil {
			return fmt.Errorf("Cannot write an output file: %w", err)
		}
	}

	for _, e := range r.Errors() {
		fmt.Fprintln(os.Stderr, e.Detail())
	}
	if r.Failed() {
		return fmt.Errorf("Compilation failed: %v errors", len(r.Errors()))
	}
	fmt.Fprintf(os.Stdout, "%v instructions in %v\n", len(r.Program), r.Duration)

	if *compileFlags.verbose {
		err := r.Program.Write(os.Stdout)
		if err != nil {
			return err
		}
	}

	if *compileFlags.run {
		return vm.Run(context.Background(), r.Program, os.Stdout)
	}
	return nil
}

// compileSource compiles the file named by the arguments or the standard input when there is no argument.
func compileSource(args []string) (*compiler.Result, error) {
	if len(args) == 0 {
		return compiler.Compile(os.Stdin, compiler.Source("", "stdin"))
	}

	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot open the source file %s: %w", path, err)
	}
	defer f.Close()
	return compiler.Compile(f, compiler.Source(path, filepath.Base(path)))
}

func writeFile(path string, write func(w io.Writer) error) (retErr error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() {
		err := f.Close()
		if retErr == nil {
			retErr = err
		}
	}()
	return write(f)
}

var errCompilationFailed = errors.New("The program has compile errors")
