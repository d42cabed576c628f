package lexer

import (
	"strings"
	"testing"
)

type testInstaller struct {
	rows map[string]int
}

func newTestInstaller() *testInstaller {
	return &testInstaller{
		rows: map[string]int{},
	}
}

func (i *testInstaller) Install(lexeme string) int {
	if n, ok := i.rows[lexeme]; ok {
		return n
	}
	n := len(i.rows) + 1
	i.rows[lexeme] = n
	return n
}

func newTokenForTest(kind Kind, lexeme string, row int) *Token {
	return &Token{
		Kind:   kind,
		Lexeme: lexeme,
		Row:    row,
	}
}

func TestLexer_Next(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		tokens  []*Token
		errs    []string
	}{
		{
			caption: "a declaration",
			src:     "int x[10];",
			tokens: []*Token{
				newTokenForTest(KindKeyword, "int", 1),
				newTokenForTest(KindID, "x", 1),
				newTokenForTest(KindSymbol, "[", 1),
				newTokenForTest(KindNUM, "10", 1),
				newTokenForTest(KindSymbol, "]", 1),
				newTokenForTest(KindSymbol, ";", 1),
			},
		},
		{
			caption: "the longest symbol wins",
			src:     "a==b=c",
			tokens: []*Token{
				newTokenForTest(KindID, "a", 1),
				newTokenForTest(KindSymbol, "==", 1),
				newTokenForTest(KindID, "b", 1),
				newTokenForTest(KindSymbol, "=", 1),
				newTokenForTest(KindID, "c", 1),
			},
		},
		{
			caption: "keywords are not identifiers but words containing them are",
			src:     "while whilex",
			tokens: []*Token{
				newTokenForTest(KindKeyword, "while", 1),
				newTokenForTest(KindID, "whilex", 1),
			},
		},
		{
			caption: "white spaces and comments are skipped",
			src: `// line comment
x /* block
comment */ y /**/ z /* a * b **/`,
			tokens: []*Token{
				newTokenForTest(KindID, "x", 2),
				newTokenForTest(KindID, "y", 3),
				newTokenForTest(KindID, "z", 3),
			},
		},
		{
			caption: "an illegal number is rejected",
			src:     "x = 125d;",
			tokens: []*Token{
				newTokenForTest(KindID, "x", 1),
				newTokenForTest(KindSymbol, "=", 1),
				newTokenForTest(KindSymbol, ";", 1),
			},
			errs: []string{
				"#1 : Lexical Error! '125d' rejected, reason: illegal number.",
			},
		},
		{
			caption: "an unmatched comment end is rejected",
			src:     "a */ b",
			tokens: []*Token{
				newTokenForTest(KindID, "a", 1),
				newTokenForTest(KindID, "b", 1),
			},
			errs: []string{
				"#1 : Lexical Error! '*/' rejected, reason: unmatched */.",
			},
		},
		{
			caption: "an invalid character is rejected",
			src:     "a\n$\nb",
			tokens: []*Token{
				newTokenForTest(KindID, "a", 1),
				newTokenForTest(KindID, "b", 3),
			},
			errs: []string{
				"#2 : Lexical Error! '$' rejected, reason: invalid input.",
			},
		},
		{
			caption: "an unclosed comment is truncated",
			src:     "a\n/* this comment never ends",
			tokens: []*Token{
				newTokenForTest(KindID, "a", 1),
			},
			errs: []string{
				"#2 : Lexical Error! '/* this comment ...' rejected, reason: unclosed comment.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			l, err := NewLexer(strings.NewReader(tt.src), newTestInstaller())
			if err != nil {
				t.Fatal(err)
			}
			for _, eTok := range tt.tokens {
				tok, err := l.Next()
				if err != nil {
					t.Fatal(err)
				}
				testToken(t, eTok, tok)
			}
			tok, err := l.Next()
			if err != nil {
				t.Fatal(err)
			}
			if tok.Kind != KindEOF || tok.Terminal() != TerminalEOF {
				t.Fatalf("unexpected token; want: EOF, got: %v", tok)
			}

			errs := l.Errors()
			if len(errs) != len(tt.errs) {
				t.Fatalf("unexpected error count; want: %v, got: %v (%v)", len(tt.errs), len(errs), errs)
			}
			for i, e := range tt.errs {
				if errs[i].Error() != e {
					t.Fatalf("unexpected error; want: %v, got: %v", e, errs[i])
				}
			}
		})
	}
}

func TestLexer_Records(t *testing.T) {
	installer := newTestInstaller()
	l, err := NewLexer(strings.NewReader("int a;\n\nvoid b(int a) {\n}"), installer)
	if err != nil {
		t.Fatal(err)
	}
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Kind == KindID && tok.Symbol != installer.rows[tok.Lexeme] {
			t.Fatalf("unexpected symbol of %v; want: %v, got: %v", tok.Lexeme, installer.rows[tok.Lexeme], tok.Symbol)
		}
		if tok.Kind == KindEOF {
			break
		}
	}

	ids := l.Identifiers()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected identifiers: %v", ids)
	}

	lines := l.Lines()
	if len(lines) != 3 {
		t.Fatalf("unexpected line count; want: 3, got: %v", len(lines))
	}
	for i, row := range []int{1, 3, 4} {
		if lines[i].Row != row {
			t.Fatalf("unexpected row; want: %v, got: %v", row, lines[i].Row)
		}
	}
	if len(lines[1].Tokens) != 7 {
		t.Fatalf("unexpected token count of line 3; want: 7, got: %v", len(lines[1].Tokens))
	}
}

func TestToken_Terminal(t *testing.T) {
	tests := []struct {
		tok      *Token
		terminal string
	}{
		{tok: newTokenForTest(KindID, "x", 1), terminal: "ID"},
		{tok: newTokenForTest(KindNUM, "1", 1), terminal: "NUM"},
		{tok: newTokenForTest(KindKeyword, "int", 1), terminal: "int"},
		{tok: newTokenForTest(KindSymbol, "==", 1), terminal: "=="},
		{tok: newTokenForTest(KindEOF, "$", 1), terminal: "$"},
	}
	for _, tt := range tests {
		if tt.tok.Terminal() != tt.terminal {
			t.Fatalf("unexpected terminal of %v; want: %v, got: %v", tt.tok, tt.terminal, tt.tok.Terminal())
		}
	}
}

func testToken(t *testing.T, expected, actual *Token) {
	t.Helper()

	if actual.Kind != expected.Kind || actual.Lexeme != expected.Lexeme || actual.Row != expected.Row {
		t.Fatalf("unexpected token; want: %v at %v, got: %v at %v", expected, expected.Row, actual, actual.Row)
	}
}

func TestLoadSpec(t *testing.T) {
	clspec, err := loadSpec()
	if err != nil {
		t.Fatalf("failed to compile the lexical specification: %v", err)
	}
	if clspec.Name != specName {
		t.Fatalf("unexpected specification name; want: %v, got: %v", specName, clspec.Name)
	}
	kinds := map[string]struct{}{}
	for _, k := range clspec.KindNames {
		kinds[k.String()] = struct{}{}
	}
	for _, e := range genLexSpec().Entries {
		if _, ok := kinds[e.Kind.String()]; !ok {
			t.Errorf("kind was not compiled: %v", e.Kind)
		}
	}

	l, err := NewLexer(strings.NewReader("void main(void) {\n    output(1);\n}\n"), newTestInstaller())
	if err != nil {
		t.Fatalf("failed to create a lexer: %v", err)
	}
	var toks []string
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatal(err)
		}
		if tok.Kind == KindEOF {
			break
		}
		toks = append(toks, tok.String())
	}
	want := "(KEYWORD, void) (ID, main) (SYMBOL, () (KEYWORD, void) (SYMBOL, )) (SYMBOL, {) (ID, output) (SYMBOL, () (NUM, 1) (SYMBOL, )) (SYMBOL, ;) (SYMBOL, })"
	if got := strings.Join(toks, " "); got != want {
		t.Fatalf("unexpected tokens;\nwant: %v\ngot:  %v", want, got)
	}
	if len(l.Errors()) > 0 {
		t.Fatalf("unexpected errors: %v", l.Errors())
	}
}
