package semantic

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"

	"github.com/Hyper5phere/simple-c-compiler/driver/lexer"
	"github.com/Hyper5phere/simple-c-compiler/driver/parser"
	"github.com/Hyper5phere/simple-c-compiler/grammar"
	"github.com/Hyper5phere/simple-c-compiler/memory"
	"github.com/Hyper5phere/simple-c-compiler/symtab"
)

type testProgramCounter struct{}

func (testProgramCounter) PC() int {
	return 4
}

type nopActionSet struct{}

func (nopActionSet) Act(action string, tok *lexer.Token) error {
	return nil
}

func analyze(t *testing.T, src string) (*Analyzer, *symtab.Table) {
	t.Helper()

	cg, err := grammar.CMinus()
	require.NoError(t, err)

	symTab := symtab.NewTable()
	a := NewAnalyzer(symTab, memory.NewAllocator(), testProgramCounter{})
	lex, err := lexer.NewLexer(strings.NewReader(src), a)
	require.NoError(t, err)
	p, err := parser.NewParser(parser.NewGrammar(cg), lex, parser.ActionHandler(parser.ActionSets{
		"#SA_": a,
		"#CG_": nopActionSet{},
	}))
	require.NoError(t, err)
	require.NoError(t, p.Parse())
	require.Empty(t, p.SyntaxErrors(), "the source must be syntactically correct")
	a.CheckEOF(p.Row())
	return a, symTab
}

func TestAnalyzer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cminus.semantic", "cminus.parser")
	defer teardown()

	tests := []struct {
		caption string
		src     string
		errs    []string
	}{
		{
			caption: "a correct program",
			src: `
int g;
int f(int a, int b[]) {
    return a + b[0];
}
void main(void) {
    int x;
    int arr[3];
    x = f(g, arr);
    output(x);
}
`,
		},
		{
			caption: "an undeclared identifier is not defined",
			src: `void main(void) {
    x = 1;
}`,
			errs: []string{
				"#2 : Semantic Error! 'x' is not defined.",
			},
		},
		{
			caption: "a parameter is invisible after its function",
			src: `int f(int a) { return a; }
void main(void) {
    a = 1;
}`,
			errs: []string{
				"#3 : Semantic Error! 'a' is not defined.",
			},
		},
		{
			caption: "a local declaration shadows a global one",
			src: `int x[2];
void main(void) { int x; x = 1 + x; }`,
		},
		{
			caption: "a variable must not be void",
			src:     `void main(void) { void x; }`,
			errs: []string{
				"#1 : Semantic Error! Illegal type of void for 'x'.",
			},
		},
		{
			caption: "an array must not be an operand",
			src:     `void main(void) { int arr[3]; int arr2[3]; arr[3 + arr2] = 1; }`,
			errs: []string{
				"#1 : Semantic Error! Type mismatch in operands, Got 'array' instead of 'int'.",
			},
		},
		{
			caption: "an array must not be assigned",
			src:     `void main(void) { int arr[3]; int x; arr = x; }`,
			errs: []string{
				"#1 : Semantic Error! Type mismatch in operands, Got 'array' instead of 'int'.",
			},
		},
		{
			caption: "a void result must not be an operand",
			src:     `void f(void) { return; } void main(void) { int x; x = f(); }`,
			errs: []string{
				"#1 : Semantic Error! Type mismatch in operands, Got 'void' instead of 'int'.",
			},
		},
		{
			caption: "an erroneous operand does not cascade",
			src:     `void main(void) { int x; x = y + 1 + x; }`,
			errs: []string{
				"#1 : Semantic Error! 'y' is not defined.",
			},
		},
		{
			caption: "a wrong number of arguments is reported once",
			src: `int f(int a, int b) { return a; }
void main(void) {
    int arr[2];
    f(arr);
}`,
			errs: []string{
				"#4 : Semantic Error! Mismatch in numbers of arguments of 'f'.",
			},
		},
		{
			caption: "a wrong argument type is reported per argument",
			src: `int f(int a, int b[]) { return a; }
void main(void) {
    int arr[2];
    f(arr, 1);
}`,
			errs: []string{
				"#4 : Semantic Error! Mismatch in type of argument 1 of 'f'. Expected 'int' but got 'array' instead.",
				"#4 : Semantic Error! Mismatch in type of argument 2 of 'f'. Expected 'array' but got 'int' instead.",
			},
		},
		{
			caption: "nested calls are checked separately",
			src: `int f(int a) { return a; }
int g(int a, int b) { return a; }
void main(void) { output(g(f(1), f(2))); }`,
		},
		{
			caption: "continue and break within a loop",
			src: `void main(void) {
    int i;
    i = 0;
    while (i < 3) {
        i = i + 1;
        if (i == 2) break; else continue;
    }
}`,
		},
		{
			caption: "continue outside a loop",
			src:     `void main(void) { continue; }`,
			errs: []string{
				"#1 : Semantic Error! No 'while' found for 'continue'",
			},
		},
		{
			caption: "break outside a loop or a switch",
			src: `void main(void) {
    int i;
    while (i < 1) { i = 1; }
    break;
}`,
			errs: []string{
				"#4 : Semantic Error! No 'while' or 'switch' found for 'break'.",
			},
		},
		{
			caption: "break within a switch",
			src:     `void main(void) { int x; x = 1; switch (x) { case 1: break; default: ; } }`,
		},
		{
			caption: "continue within a switch but outside a loop",
			src:     `void main(void) { int x; switch (x) { case 1: continue; } }`,
			errs: []string{
				"#1 : Semantic Error! No 'while' found for 'continue'",
			},
		},
		{
			caption: "a program needs main",
			src: `int f(void) {
    return 1;
}`,
			errs: []string{
				"#3 : Semantic Error! main function not found!",
			},
		},
		{
			caption: "main must return void",
			src:     `int main(void) { return 0; }`,
			errs: []string{
				"#1 : Semantic Error! main function not found!",
			},
		},
		{
			caption: "main must be the last function",
			src: `void main(void) { }
int f(void) { return 1; }`,
			errs: []string{
				"#2 : Semantic Error! main function not found!",
			},
		},
		{
			caption: "a global variable may follow main",
			src:     `void main(void) { } int x;`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			a, _ := analyze(t, tt.src)
			var errs []string
			for _, err := range a.Errors() {
				errs = append(errs, err.Error())
			}
			require.Equal(t, tt.errs, errs)
		})
	}
}

func TestAnalyzer_Declarations(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cminus.semantic")
	defer teardown()

	_, symTab := analyze(t, `int g;
int buf[4];
int f(int a, int b[]) {
    int x;
    return a;
}
void main(void) { }`)

	rows := map[string]*symtab.Row{}
	for _, row := range symTab.Rows() {
		rows[row.Lexeme] = row
	}
	// The rows of parameters and locals are gone with their scope.
	require.NotContains(t, rows, "a")
	require.NotContains(t, rows, "x")

	g := rows["g"]
	require.Equal(t, symtab.TypeInt, g.Type)
	require.Equal(t, symtab.RoleGlobalVar, g.Role)
	require.Equal(t, symtab.StaticLocation(memory.StaticBase+8), g.Location)

	buf := rows["buf"]
	require.Equal(t, symtab.TypeArray, buf.Type)
	require.Equal(t, 4, buf.Arity)
	require.Equal(t, symtab.StaticLocation(memory.StaticBase+12), buf.Location)

	f := rows["f"]
	require.Equal(t, symtab.RoleFunction, f.Role)
	require.Equal(t, 2, f.Arity)
	require.Equal(t, []symtab.Type{symtab.TypeInt, symtab.TypeArray}, f.Params)
	require.Equal(t, symtab.StaticLocation(4), f.Location)

	main := rows["main"]
	require.Equal(t, symtab.TypeVoid, main.Type)
	require.Equal(t, 0, main.Arity)
	require.Empty(t, main.Params)
}

func TestAnalyzer_Install(t *testing.T) {
	symTab := symtab.NewTable()
	a := NewAnalyzer(symTab, memory.NewAllocator(), testProgramCounter{})

	x := a.Install("x")
	require.Equal(t, x, a.Install("x"), "an identifier resolves to its row")

	a.declaring = true
	shadow := a.Install("x")
	require.NotEqual(t, x, shadow, "a declaration installs a fresh row")
	require.False(t, a.declaring)
	require.Equal(t, shadow, a.Install("x"), "the innermost row wins")
}
