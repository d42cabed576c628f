package compiler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/repr"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"

	"github.com/Hyper5phere/simple-c-compiler/vm"
)

func run(t *testing.T, r *Result) []int {
	t.Helper()

	for n, inst := range r.Program {
		require.False(t, inst.IsPlaceholder(), "slot %v was never filled\n%v", n, r.Program)
	}
	m := vm.NewMachine(r.Program, vm.StepLimit(1000000))
	require.NoError(t, m.Run(context.Background()))
	return m.Printed()
}

func TestCompile_Run(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cminus.compiler", "cminus.codegen", "cminus.vm")
	defer teardown()

	tests := []struct {
		caption string
		src     string
		file    string
		printed []int
	}{
		{
			caption: "a counting loop",
			src: `void main(void) {
    int x;
    x = 1;
    while (x < 5) {
        output(x);
        x = x + 1;
    }
    return;
}`,
			printed: []int{1, 2, 3, 4},
		},
		{
			caption: "nested if-else and arithmetic",
			src: `void main(void) {
    int a;
    int b;
    a = 3;
    b = 7;
    if (a < b) {
        if (a == 3) output(a * b - 1); else output(0);
    } else {
        output(1);
    }
}`,
			printed: []int{20},
		},
		{
			caption: "continue skips the rest of the body and break leaves the loop",
			src: `void main(void) {
    int i;
    i = 0;
    while (i < 100) {
        i = i + 1;
        if (i == 3) continue; else ;
        if (i == 6) break; else ;
        output(i);
    }
    output(i);
}`,
			printed: []int{1, 2, 4, 5, 6},
		},
		{
			caption: "nested loops with break",
			src: `void main(void) {
    int i;
    int j;
    i = 0;
    while (i < 3) {
        j = 0;
        while (1 < 2) {
            if (j == i) break; else j = j + 1;
        }
        output(j);
        i = i + 1;
    }
}`,
			printed: []int{0, 1, 2},
		},
		{
			caption: "calls with arguments and return values",
			src: `int add(int a, int b) { return a + b; }
int twice(int a) { return add(a, a); }
void show(int a) { output(a); }
void main(void) {
    show(twice(add(1, 2)));
    output(add(twice(5), 1));
}`,
			printed: []int{6, 11},
		},
		{
			caption: "a recursive call",
			src: `void countdown(int n) {
    if (n == 0) {
        return;
    } else {
        output(n);
        countdown(n - 1);
    }
}
void main(void) { countdown(3); }`,
			printed: []int{3, 2, 1},
		},
		{
			caption: "a switch runs its cases in sequence",
			src: `void main(void) {
    int x;
    x = 2;
    switch (x) {
    case 1:
        output(1);
    case 2:
        output(2);
    default:
        output(3);
    }
}`,
			printed: []int{1, 2, 3},
		},
		{
			caption: "a pending temporary is shared by the recursive activations",
			src: `int g(int n) {
    if (n == 0) {
        return 0;
    } else {
        return n * 1 + g(n - 1);
    }
}
void main(void) {
    output(g(1));
    output(g(3));
}`,
			// g(3) would be 6 if every activation kept its own n * 1.
			printed: []int{1, 3},
		},
		{
			caption: "Fibonacci numbers",
			file:    "fibonacci.c",
			printed: []int{0, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144, 233, 377, 610, 987, 1597, 2584, 4181, 6765, 10946},
		},
		{
			caption: "odd numbers",
			file:    "odd.c",
			printed: []int{1, 3, 5, 7, 9, 11, 13, 15, 17, 19, 21, 23, 25, 27, 29},
		},
		{
			caption: "sums of odd numbers",
			file:    "squares.c",
			printed: []int{1, 4, 9, 16, 25},
		},
		{
			caption: "arrays and array parameters",
			file:    "arrays.c",
			printed: []int{30, 16, 9, 4, 1, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			src := tt.src
			if tt.file != "" {
				b, err := os.ReadFile(filepath.Join("testdata", tt.file))
				require.NoError(t, err)
				src = string(b)
			}
			r, err := Compile(strings.NewReader(src))
			require.NoError(t, err)
			require.False(t, r.Failed(), "unexpected diagnostics:\n%v", r.Errors())
			require.Equal(t, tt.printed, run(t, r))
		})
	}
}

func TestCompile_Diagnostics(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cminus.compiler")
	defer teardown()

	tests := []struct {
		caption  string
		src      string
		lexical  string
		syntax   string
		semantic string
	}{
		{
			caption:  "a correct program",
			src:      `void main(void) { output(1); }`,
			lexical:  "There is no lexical errors.\n",
			syntax:   "There is no syntax error.\n",
			semantic: "The input program is semantically correct.\n",
		},
		{
			caption:  "an entry point returning int",
			src:      `int main(void){ int x; x = 1; while (x<5){ output(x); x = x + 1; } return; }`,
			lexical:  "There is no lexical errors.\n",
			syntax:   "There is no syntax error.\n",
			semantic: "#1 : Semantic Error! main function not found!\n",
		},
		{
			caption: "a closing brace after the program",
			src: `void main(void) {
}
}`,
			lexical:  "There is no lexical errors.\n",
			syntax:   "#3 : Syntax Error, Illegal \"}\"\n",
			semantic: "The input program is semantically correct.\n",
		},
		{
			caption: "an invalid character",
			src: `void main(void) {
    output(1); $
}`,
			lexical:  "#2 : Lexical Error! '$' rejected, reason: invalid input.\n",
			syntax:   "There is no syntax error.\n",
			semantic: "The input program is semantically correct.\n",
		},
		{
			caption: "semantic errors",
			src: `void main(void) {
    x = 1;
    break;
}`,
			lexical:  "There is no lexical errors.\n",
			syntax:   "There is no syntax error.\n",
			semantic: "#2 : Semantic Error! 'x' is not defined.\n#3 : Semantic Error! No 'while' or 'switch' found for 'break'.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			r, err := Compile(strings.NewReader(tt.src))
			require.NoError(t, err)

			var b bytes.Buffer
			require.NoError(t, r.WriteLexicalErrors(&b))
			require.Equal(t, tt.lexical, b.String())
			b.Reset()
			require.NoError(t, r.WriteSyntaxErrors(&b))
			require.Equal(t, tt.syntax, b.String())
			b.Reset()
			require.NoError(t, r.WriteSemanticErrors(&b))
			require.Equal(t, tt.semantic, b.String())

			failed := len(r.Errors()) > 0
			require.Equal(t, failed, r.Failed())
			b.Reset()
			require.NoError(t, r.WriteProgram(&b))
			if failed {
				require.Equal(t, "The output code has not been generated.\n", b.String())
			} else {
				require.Equal(t, r.Program.String(), b.String())
			}
		})
	}
}

func TestResult_Dumps(t *testing.T) {
	r, err := Compile(strings.NewReader(`void main(void) {
    int x;

    x = 1;
}`))
	require.NoError(t, err)

	var b bytes.Buffer
	require.NoError(t, r.WriteTokens(&b))
	require.Equal(t, `1.	(KEYWORD, void) (ID, main) (SYMBOL, () (KEYWORD, void) (SYMBOL, )) (SYMBOL, {)
2.	(KEYWORD, int) (ID, x) (SYMBOL, ;)
4.	(ID, x) (SYMBOL, =) (NUM, 1) (SYMBOL, ;)
5.	(SYMBOL, })
`, b.String())

	b.Reset()
	require.NoError(t, r.WriteSymbols(&b))
	require.Equal(t, `1.	if
2.	else
3.	void
4.	int
5.	while
6.	break
7.	continue
8.	switch
9.	default
10.	case
11.	return
12.	main
13.	x
`, b.String())

	b.Reset()
	require.NoError(t, r.WriteTree(&b))
	require.True(t, strings.HasPrefix(b.String(), "Program\n└── Declaration-list\n"), b.String())
	require.Contains(t, b.String(), "(ID, main)")

	b.Reset()
	require.NoError(t, r.Dump(&b))
	require.Contains(t, b.String(), `Lexeme: "main"`, repr.String(r.Symbols))
}

func TestCompile_Source(t *testing.T) {
	path := filepath.Join("testdata", "fibonacci.c")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := Compile(f, Source(path, "fibonacci.c"))
	require.NoError(t, err)
	require.False(t, r.Failed())

	_, err = Compile(strings.NewReader(""), Grammar(nil))
	require.Error(t, err)
}
