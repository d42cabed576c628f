package compiler

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/repr"
	"github.com/npillmayer/schuko/tracing"

	"github.com/Hyper5phere/simple-c-compiler/codegen"
	"github.com/Hyper5phere/simple-c-compiler/driver/lexer"
	"github.com/Hyper5phere/simple-c-compiler/driver/parser"
	verr "github.com/Hyper5phere/simple-c-compiler/error"
	"github.com/Hyper5phere/simple-c-compiler/grammar"
	"github.com/Hyper5phere/simple-c-compiler/memory"
	"github.com/Hyper5phere/simple-c-compiler/semantic"
	"github.com/Hyper5phere/simple-c-compiler/symtab"
	"github.com/Hyper5phere/simple-c-compiler/tac"
)

func tracer() tracing.Trace {
	return tracing.Select("cminus.compiler")
}

type compileConfig struct {
	grammar    *grammar.CompiledGrammar
	filePath   string
	sourceName string
}

type CompileOption func(c *compileConfig) error

// Grammar makes the compilation use a grammar other than the built-in C-minus grammar. The grammar must use the
// action symbols of the built-in one.
func Grammar(g *grammar.CompiledGrammar) CompileOption {
	return func(c *compileConfig) error {
		if g == nil {
			return fmt.Errorf("a grammar must not be nil")
		}
		c.grammar = g
		return nil
	}
}

// Source attaches the path and the display name of the source file to the diagnostics.
func Source(filePath, sourceName string) CompileOption {
	return func(c *compileConfig) error {
		c.filePath = filePath
		c.sourceName = sourceName
		return nil
	}
}

// compilation holds the state shared by the phases of one compilation.
type compilation struct {
	symTab    *symtab.Table
	alloc     *memory.Allocator
	block     *codegen.ProgramBlock
	analyzer  *semantic.Analyzer
	generator *codegen.Generator
}

func newCompilation() *compilation {
	c := &compilation{
		symTab: symtab.NewTable(),
		alloc:  memory.NewAllocator(),
		block:  codegen.NewProgramBlock(),
	}
	c.analyzer = semantic.NewAnalyzer(c.symTab, c.alloc, c.block)
	c.generator = codegen.NewGenerator(c.symTab, c.alloc, c.block, c.analyzer)
	return c
}

// Compile translates a C-minus program into three-address code in a single pass. Diagnostics are part of the
// result; the returned error reports a failure reading the source only.
func Compile(src io.Reader, opts ...CompileOption) (*Result, error) {
	config := &compileConfig{}
	for _, opt := range opts {
		err := opt(config)
		if err != nil {
			return nil, err
		}
	}
	if config.grammar == nil {
		g, err := grammar.CMinus()
		if err != nil {
			return nil, err
		}
		config.grammar = g
	}

	start := time.Now()

	c := newCompilation()
	c.generator.InitProgram()

	lex, err := lexer.NewLexer(src, c.analyzer)
	if err != nil {
		return nil, err
	}
	p, err := parser.NewParser(parser.NewGrammar(config.grammar), lex, parser.ActionHandler(parser.ActionSets{
		"#SA_": c.analyzer,
		"#CG_": c.generator,
	}))
	if err != nil {
		return nil, err
	}
	err = p.Parse()
	if err != nil {
		return nil, err
	}
	c.analyzer.CheckEOF(p.Row())

	r := &Result{
		Tree:           p.Tree(),
		Lines:          lex.Lines(),
		Identifiers:    lex.Identifiers(),
		Symbols:        c.symTab.Rows(),
		LexicalErrors:  lex.Errors(),
		SyntaxErrors:   p.SyntaxErrors(),
		SemanticErrors: c.analyzer.Errors(),
	}
	for _, errs := range []verr.CompileErrors{r.LexicalErrors, r.SyntaxErrors, r.SemanticErrors} {
		errs.SetSource(config.filePath, config.sourceName)
	}

	err = c.generator.FinishProgram()
	if err != nil {
		if !r.Failed() {
			return nil, fmt.Errorf("the program could not be finished: %w", err)
		}
		tracer().Infof("the program was not finished: %v", err)
	}
	r.Program = c.generator.Program()
	r.Duration = time.Since(start)

	tracer().Infof("compiled %v instructions in %v; failed: %v", len(r.Program), r.Duration, r.Failed())
	return r, nil
}

// Result is the outcome of a compilation. Program is incomplete when the compilation failed.
type Result struct {
	Program     tac.Program
	Tree        *parser.Node
	Lines       []*lexer.Line
	Identifiers []string

	// Symbols is the global scope at the end of the program.
	Symbols []*symtab.Row

	LexicalErrors  verr.CompileErrors
	SyntaxErrors   verr.CompileErrors
	SemanticErrors verr.CompileErrors

	Duration time.Duration
}

func (r *Result) Failed() bool {
	return len(r.LexicalErrors) > 0 || len(r.SyntaxErrors) > 0 || len(r.SemanticErrors) > 0
}

// Errors returns every diagnostic grouped by phase.
func (r *Result) Errors() verr.CompileErrors {
	var errs verr.CompileErrors
	errs = append(errs, r.LexicalErrors...)
	errs = append(errs, r.SyntaxErrors...)
	errs = append(errs, r.SemanticErrors...)
	return errs
}

func (r *Result) WriteProgram(w io.Writer) error {
	if r.Failed() {
		_, err := fmt.Fprintln(w, "The output code has not been generated.")
		return err
	}
	return r.Program.Write(w)
}

func (r *Result) WriteTree(w io.Writer) error {
	parser.PrintTree(w, r.Tree)
	return nil
}

// WriteTokens writes the tokens of every line having any.
func (r *Result) WriteTokens(w io.Writer) error {
	for _, l := range r.Lines {
		toks := make([]string, len(l.Tokens))
		for i, tok := range l.Tokens {
			toks[i] = tok.String()
		}
		_, err := fmt.Fprintf(w, "%v.\t%v\n", l.Row, strings.Join(toks, " "))
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteSymbols writes the keywords followed by the identifier spellings.
func (r *Result) WriteSymbols(w io.Writer) error {
	names := append(append([]string{}, lexer.Keywords...), r.Identifiers...)
	for i, name := range names {
		_, err := fmt.Fprintf(w, "%v.\t%v\n", i+1, name)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Result) WriteLexicalErrors(w io.Writer) error {
	return writeErrors(w, r.LexicalErrors, "There is no lexical errors.")
}

func (r *Result) WriteSyntaxErrors(w io.Writer) error {
	return writeErrors(w, r.SyntaxErrors, "There is no syntax error.")
}

func (r *Result) WriteSemanticErrors(w io.Writer) error {
	return writeErrors(w, r.SemanticErrors, "The input program is semantically correct.")
}

func writeErrors(w io.Writer, errs verr.CompileErrors, none string) error {
	if len(errs) == 0 {
		_, err := fmt.Fprintln(w, none)
		return err
	}
	for _, e := range errs {
		_, err := fmt.Fprintln(w, e)
		if err != nil {
			return err
		}
	}
	return nil
}

// Dump writes the global symbol table rows for debugging.
func (r *Result) Dump(w io.Writer) error {
	_, err := fmt.Fprintln(w, repr.String(r.Symbols, repr.Indent("  ")))
	return err
}
