package lexer

import (
	"fmt"
	"io"
	"strings"
	"sync"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

// Lexical kinds. Kinds ending in `error` are rejected with a reason; the others are either skipped or turned
// into tokens.
const (
	kindWhiteSpace       = "white_space"
	kindLineComment      = "line_comment"
	kindBlockComment     = "block_comment"
	kindUnclosedComment  = "unclosed_comment_error"
	kindUnmatchedComment = "unmatched_comment_error"
	kindIllegalNumber    = "illegal_number_error"
	kindWord             = "word"
	kindNumber           = "number"
)

var skipKinds = map[string]struct{}{
	kindWhiteSpace:   {},
	kindLineComment:  {},
	kindBlockComment: {},
}

var errorReasons = map[string]string{
	kindUnclosedComment:  "unclosed comment",
	kindUnmatchedComment: "unmatched */",
	kindIllegalNumber:    "illegal number",
}

// symbols are the lexical kinds of symbols and their spellings. `=` and `==` are told apart by the longest match.
var symbols = []struct {
	kind     string
	spelling string
}{
	{"semicolon", ";"},
	{"colon", ":"},
	{"comma", ","},
	{"l_bracket", "["},
	{"r_bracket", "]"},
	{"l_paren", "("},
	{"r_paren", ")"},
	{"l_brace", "{"},
	{"r_brace", "}"},
	{"plus", "+"},
	{"minus", "-"},
	{"less", "<"},
	{"star", "*"},
	{"equal", "="},
	{"equal_equal", "=="},
}

var symbolKinds = func() map[string]struct{} {
	s := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		s[sym.kind] = struct{}{}
	}
	return s
}()

// Keywords are listed in the order the symbol table dump prints them.
var Keywords = []string{
	"if",
	"else",
	"void",
	"int",
	"while",
	"break",
	"continue",
	"switch",
	"default",
	"case",
	"return",
}

var keywordSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(Keywords))
	for _, kw := range Keywords {
		s[kw] = struct{}{}
	}
	return s
}()

const specName = "cminus"

func genLexSpec() *mlspec.LexSpec {
	// Entries listed first win when two patterns match the same length.
	entries := []*mlspec.LexEntry{
		{Kind: kindWhiteSpace, Pattern: `[\u{0009}\u{000A}\u{000B}\u{000C}\u{000D}\u{0020}]+`},
		{Kind: kindLineComment, Pattern: `//[^\u{000A}]*`},
		{Kind: kindBlockComment, Pattern: `/\*([^\u{002A}]|\*+[^\u{002A}/])*\*+/`},
		{Kind: kindUnclosedComment, Pattern: `/\*([^\u{002A}]|\*+[^\u{002A}/])*\**`},
		{Kind: kindUnmatchedComment, Pattern: `\*/`},
		{Kind: kindIllegalNumber, Pattern: `[0-9]+[A-Za-z]`},
		{Kind: kindNumber, Pattern: `[0-9]+`},
		{Kind: kindWord, Pattern: `[A-Za-z][0-9A-Za-z]*`},
	}
	for _, sym := range symbols {
		entries = append(entries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(sym.kind),
			Pattern: mlspec.LexPattern(mlspec.EscapePattern(sym.spelling)),
		})
	}
	return &mlspec.LexSpec{
		Name:    specName,
		Entries: entries,
	}
}

var (
	specOnce sync.Once
	specVal  *mlspec.CompiledLexSpec
	specErr  error
)

func loadSpec() (*mlspec.CompiledLexSpec, error) {
	specOnce.Do(func() {
		clspec, err, cErrs := mlcompiler.Compile(genLexSpec(), mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
		if err != nil {
			if len(cErrs) > 0 {
				var b strings.Builder
				writeCompileError(&b, cErrs[0])
				for _, cerr := range cErrs[1:] {
					fmt.Fprintf(&b, "\n")
					writeCompileError(&b, cerr)
				}
				specErr = fmt.Errorf("cannot compile the lexical specification: %v", b.String())
				return
			}
			specErr = err
			return
		}
		specVal = clspec
	})
	return specVal, specErr
}

func writeCompileError(w io.Writer, cErr *mlcompiler.CompileError) {
	if cErr.Fragment {
		fmt.Fprintf(w, "fragment ")
	}
	fmt.Fprintf(w, "%v: %v", cErr.Kind, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(w, ": %v", cErr.Detail)
	}
}
