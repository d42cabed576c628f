package grammar

import (
	"reflect"
	"testing"
)

type follow struct {
	nonTerminal string
	symbols     []string
	eof         bool
}

func TestFollowSet(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		follow  []follow
	}{
		{
			caption: "the start symbol is followed by EOF",
			src: `
expr -> term expr'
expr' -> add term expr' | EPSILON
term -> factor term'
term' -> mul factor term' | EPSILON
factor -> l_paren expr r_paren | id
`,
			follow: []follow{
				{nonTerminal: "expr", symbols: []string{"r_paren"}, eof: true},
				{nonTerminal: "expr'", symbols: []string{"r_paren"}, eof: true},
				{nonTerminal: "term", symbols: []string{"add", "r_paren"}, eof: true},
				{nonTerminal: "term'", symbols: []string{"add", "r_paren"}, eof: true},
				{nonTerminal: "factor", symbols: []string{"add", "mul", "r_paren"}, eof: true},
			},
		},
		{
			caption: "action symbols between symbols are skipped",
			src: `
s -> t #A u #B v
t -> x
u -> #C EPSILON
`,
			follow: []follow{
				{nonTerminal: "t", symbols: []string{"v"}},
				{nonTerminal: "u", symbols: []string{"v"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gram := newTestGrammar(t, tt.src)
			fst, err := genFirstSet(gram.productions)
			if err != nil {
				t.Fatal(err)
			}
			flw, err := genFollowSet(gram.productions, fst)
			if err != nil {
				t.Fatal(err)
			}

			r := gram.symbolTable.reader()
			genSym := newTestSymbolGenerator(t, r)
			for _, ttFollow := range tt.follow {
				actual, err := flw.find(genSym(ttFollow.nonTerminal))
				if err != nil {
					t.Fatal(err)
				}
				expected := map[string]struct{}{}
				for _, s := range ttFollow.symbols {
					expected[s] = struct{}{}
				}
				if !reflect.DeepEqual(symbolTexts(t, r, actual.symbols), expected) {
					t.Fatalf("unexpected FOLLOW of %v; want: %v, got: %v", ttFollow.nonTerminal, expected, symbolTexts(t, r, actual.symbols))
				}
				if actual.eof != ttFollow.eof {
					t.Fatalf("unexpected EOF of %v; want: %v, got: %v", ttFollow.nonTerminal, ttFollow.eof, actual.eof)
				}
			}
		})
	}
}
