package parser

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"

	"github.com/Hyper5phere/simple-c-compiler/driver/lexer"
	"github.com/Hyper5phere/simple-c-compiler/grammar"
)

const testGrammarSrc = `
s -> stmt s | EPSILON
stmt -> #BEGIN e #END ;
e -> t e'
e' -> + t #ADD e' | EPSILON
t -> ( e ) | ID #PUSH | NUM #PUSH
`

var testFillers = map[string]string{
	"s":    "ID;",
	"stmt": "ID;",
	"e":    "ID",
	"e'":   "+ ID",
	"t":    "NUM",
}

type testTokenStream struct {
	toks []*lexer.Token
	row  int
}

func newTestTokenStream(src string) *testTokenStream {
	s := &testTokenStream{
		row: 1,
	}
	for i, line := range strings.Split(src, "\n") {
		for _, w := range strings.Fields(line) {
			tok := &lexer.Token{
				Lexeme: w,
				Row:    i + 1,
			}
			switch {
			case unicode.IsDigit(rune(w[0])):
				tok.Kind = lexer.KindNUM
			case unicode.IsLetter(rune(w[0])):
				tok.Kind = lexer.KindID
			default:
				tok.Kind = lexer.KindSymbol
			}
			s.toks = append(s.toks, tok)
		}
		s.row = i + 1
	}
	return s
}

func (s *testTokenStream) Next() (*lexer.Token, error) {
	if len(s.toks) == 0 {
		return &lexer.Token{
			Kind:   lexer.KindEOF,
			Lexeme: lexer.TerminalEOF,
			Row:    s.row,
		}, nil
	}
	tok := s.toks[0]
	s.toks = s.toks[1:]
	return tok, nil
}

type testActionSet struct {
	log []string
}

func (a *testActionSet) Act(action string, tok *lexer.Token) error {
	a.log = append(a.log, fmt.Sprintf("%v %v", action, tok.Lexeme))
	if action == "#END" && tok.Lexeme != ";" {
		return fmt.Errorf("a statement must end with `;`")
	}
	return nil
}

func nonTermNode(name string, children ...*Node) *Node {
	return &Node{
		Type:     NodeTypeNonTerminal,
		Name:     name,
		Children: children,
	}
}

func termNode(kind lexer.Kind, lexeme string) *Node {
	return &Node{
		Type: NodeTypeTerminal,
		Token: &lexer.Token{
			Kind:   kind,
			Lexeme: lexeme,
		},
	}
}

func epsilonNode() *Node {
	return &Node{
		Type: NodeTypeEpsilon,
	}
}

func newTestParser(t *testing.T, src string, acts ActionSet) *Parser {
	t.Helper()

	g, err := grammar.NewGrammar("test", testGrammarSrc, testFillers)
	if err != nil {
		t.Fatal(err)
	}
	cg, err := grammar.Compile(g)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewParser(NewGrammar(cg), newTestTokenStream(src), ActionHandler(acts))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParser_Parse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cminus.parser")
	defer teardown()

	tests := []struct {
		caption string
		src     string
		tree    *Node
		actions []string
		synErrs []string
	}{
		{
			caption: "actions run with the lookahead in derivation order",
			src:     "x + 1 ;",
			tree: nonTermNode("s",
				nonTermNode("stmt",
					nonTermNode("e",
						nonTermNode("t",
							termNode(lexer.KindID, "x"),
						),
						nonTermNode("e'",
							termNode(lexer.KindSymbol, "+"),
							nonTermNode("t",
								termNode(lexer.KindNUM, "1"),
							),
							nonTermNode("e'",
								epsilonNode(),
							),
						),
					),
					termNode(lexer.KindSymbol, ";"),
				),
				nonTermNode("s",
					epsilonNode(),
				),
			),
			actions: []string{
				"#BEGIN x",
				"#PUSH +",
				"#PUSH ;",
				"#ADD ;",
				"#END ;",
			},
		},
		{
			caption: "a non-terminal followed by the lookahead is given up",
			src:     "x + ;",
			tree: nonTermNode("s",
				nonTermNode("stmt",
					nonTermNode("e",
						nonTermNode("t",
							termNode(lexer.KindID, "x"),
						),
						nonTermNode("e'",
							termNode(lexer.KindSymbol, "+"),
							nonTermNode("e'",
								epsilonNode(),
							),
						),
					),
					termNode(lexer.KindSymbol, ";"),
				),
				nonTermNode("s",
					epsilonNode(),
				),
			),
			actions: []string{
				"#BEGIN x",
				"#PUSH +",
				"#ADD ;",
				"#END ;",
			},
			synErrs: []string{
				`#1 : Syntax Error, Missing "NUM"`,
			},
		},
		{
			caption: "a missing terminal is popped and an illegal token is skipped",
			src:     "x\n) ;",
			actions: []string{
				"#BEGIN x",
				"#PUSH )",
				"#END )",
			},
			synErrs: []string{
				`#2 : Syntax Error, Missing ";"`,
				`#2 : Syntax Error, Illegal ")"`,
				`#2 : Syntax Error, Illegal ";"`,
			},
		},
		{
			caption: "an identifier is reported by its kind",
			src:     "x ; y y ;",
			synErrs: []string{
				`#1 : Syntax Error, Illegal "ID"`,
			},
		},
		{
			caption: "the end of input stops the parser",
			src:     "( x",
			tree: nonTermNode("s",
				nonTermNode("stmt",
					nonTermNode("e",
						nonTermNode("t",
							termNode(lexer.KindSymbol, "("),
							nonTermNode("e",
								nonTermNode("t",
									termNode(lexer.KindID, "x"),
								),
							),
						),
					),
				),
			),
			synErrs: []string{
				`#1 : Syntax Error, Unexpected EndOfFile`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			acts := &testActionSet{}
			p := newTestParser(t, tt.src, acts)
			err := p.Parse()
			if err != nil {
				t.Fatal(err)
			}

			if tt.tree != nil {
				testTree(t, p.Tree(), tt.tree)
			}
			if tt.actions != nil {
				if len(acts.log) != len(tt.actions) {
					t.Fatalf("unexpected actions; want: %v, got: %v", tt.actions, acts.log)
				}
				for i, a := range tt.actions {
					if acts.log[i] != a {
						t.Fatalf("unexpected action; want: %v, got: %v", a, acts.log[i])
					}
				}
			}

			synErrs := p.SyntaxErrors()
			if len(synErrs) != len(tt.synErrs) {
				t.Fatalf("unexpected syntax errors; want: %v, got: %v", tt.synErrs, synErrs)
			}
			for i, e := range tt.synErrs {
				if synErrs[i].Error() != e {
					t.Fatalf("unexpected syntax error; want: %v, got: %v", e, synErrs[i])
				}
			}
		})
	}
}

func TestParser_ActionFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cminus.parser")
	defer teardown()

	acts := &testActionSet{}
	p := newTestParser(t, "( x ) ) ;", acts)
	err := p.Parse()
	if err != nil {
		t.Fatal(err)
	}
	// #END fails on `)` and the parser keeps going.
	if acts.log[len(acts.log)-1] != "#END )" {
		t.Fatalf("unexpected actions: %v", acts.log)
	}
	if len(p.SyntaxErrors()) == 0 {
		t.Fatal("syntax errors were expected")
	}
}

func TestPrintTree(t *testing.T) {
	tree := nonTermNode("s",
		nonTermNode("t",
			termNode(lexer.KindID, "x"),
			termNode(lexer.KindSymbol, ";"),
		),
		epsilonNode(),
	)
	var b bytes.Buffer
	PrintTree(&b, tree)
	expected := `s
├── t
│   ├── (ID, x)
│   └── (SYMBOL, ;)
└── epsilon
`
	if b.String() != expected {
		t.Fatalf("unexpected tree; want:\n%v\ngot:\n%v", expected, b.String())
	}
}

func testTree(t *testing.T, node, expected *Node) {
	t.Helper()

	if node.Type != expected.Type || node.label() != expected.label() {
		t.Fatalf("unexpected node; want: %v, got: %v", expected.label(), node.label())
	}
	if len(node.Children) != len(expected.Children) {
		t.Fatalf("unexpected children of %v; want: %v, got: %v", node.label(), len(expected.Children), len(node.Children))
	}
	for i, c := range node.Children {
		testTree(t, c, expected.Children[i])
	}
}
