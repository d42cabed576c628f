package parser

import (
	"fmt"
	"runtime/debug"

	"github.com/npillmayer/schuko/tracing"

	"github.com/Hyper5phere/simple-c-compiler/driver/lexer"
	verr "github.com/Hyper5phere/simple-c-compiler/error"
	"github.com/Hyper5phere/simple-c-compiler/grammar"
)

func tracer() tracing.Trace {
	return tracing.Select("cminus.parser")
}

type Grammar interface {
	// StartSymbol returns the number of the start symbol.
	StartSymbol() int

	// EOF returns the terminal number of the end of input.
	EOF() int

	// TerminalNum returns the number of a terminal name.
	TerminalNum(name string) (int, bool)

	// Lookup returns the cell of the parsing table.
	Lookup(nonTerminal int, terminal int) grammar.Entry

	// RHS returns the right-hand side of a production.
	RHS(prod int) []grammar.Symbol

	// NonTerminal returns the name of a non-terminal.
	NonTerminal(nonTerminal int) string

	// Terminal returns the name of a terminal.
	Terminal(terminal int) string

	// Action returns the name of an action symbol.
	Action(action int) string

	// Filler returns the construct reported as missing when the parser gives a non-terminal up.
	Filler(nonTerminal int) string
}

var _ Grammar = &grammarImpl{}

type TokenStream interface {
	Next() (*lexer.Token, error)
}

type ParserOption func(p *Parser) error

// ActionHandler makes the parser run the translation routines of action symbols. Without it action symbols are
// popped silently.
func ActionHandler(acts ActionSet) ParserOption {
	return func(p *Parser) error {
		p.acts = acts
		return nil
	}
}

type stackItem struct {
	sym  grammar.Symbol
	node *Node
}

type Parser struct {
	gram    Grammar
	toks    TokenStream
	acts    ActionSet
	stack   []*stackItem
	tree    *Node
	row     int
	onError bool
	synErrs verr.CompileErrors
}

func NewParser(gram Grammar, toks TokenStream, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		gram: gram,
		toks: toks,
	}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Parse derives the whole token stream. Syntax errors are recorded and recovered from; the returned error reports a
// failure of the token stream only.
func (p *Parser) Parse() error {
	p.tree = newNode(NodeTypeNonTerminal, p.gram.NonTerminal(p.gram.StartSymbol()), nil)
	p.stack = []*stackItem{
		{
			sym: grammar.Symbol{Kind: grammar.SymbolTerminal, Num: p.gram.EOF()},
		},
		{
			sym:  grammar.Symbol{Kind: grammar.SymbolNonTerminal, Num: p.gram.StartSymbol()},
			node: p.tree,
		},
	}

	tok, err := p.nextToken()
	if err != nil {
		return err
	}

PARSE_LOOP:
	for {
		term, err := p.terminal(tok)
		if err != nil {
			return err
		}

		top := p.top()
		switch top.sym.Kind {
		case grammar.SymbolAction:
			p.act(p.gram.Action(top.sym.Num), tok)
			p.pop()
		case grammar.SymbolTerminal:
			if top.sym.Num == term {
				if term == p.gram.EOF() {
					break PARSE_LOOP
				}
				top.node.Token = tok
				p.pop()
				tok, err = p.nextToken()
				if err != nil {
					return err
				}
				continue
			}

			p.onError = true
			if top.sym.Num == p.gram.EOF() {
				// The program is complete but the input is not.
				p.syntaxError(tok.Row, fmt.Sprintf(`Illegal "%v"`, tok.Terminal()))
				tok, err = p.nextToken()
				if err != nil {
					return err
				}
				continue
			}
			p.syntaxError(tok.Row, fmt.Sprintf(`Missing "%v"`, p.gram.Terminal(top.sym.Num)))
			p.pop()
		case grammar.SymbolNonTerminal:
			e := p.gram.Lookup(top.sym.Num, term)
			switch {
			case e == grammar.EntrySynch:
				p.onError = true
				if term == p.gram.EOF() {
					p.syntaxError(tok.Row, "Unexpected EndOfFile")
					break PARSE_LOOP
				}
				p.syntaxError(tok.Row, fmt.Sprintf(`Missing "%v"`, p.gram.Filler(top.sym.Num)))
				top.node.detach()
				p.pop()
			case e == grammar.EntryEmpty:
				p.onError = true
				p.syntaxError(tok.Row, fmt.Sprintf(`Illegal "%v"`, tok.Terminal()))
				tok, err = p.nextToken()
				if err != nil {
					return err
				}
			default:
				p.pop()
				p.expand(top.node, int(e))
			}
		}
	}

	if p.onError {
		prune(p.tree)
	}

	return nil
}

func (p *Parser) expand(node *Node, prod int) {
	rhs := p.gram.RHS(prod)
	tracer().Debugf("%v: expand %v (production %v)", p.row, node.Name, prod)

	items := make([]*stackItem, len(rhs))
	derived := false
	for i, sym := range rhs {
		item := &stackItem{
			sym: sym,
		}
		switch sym.Kind {
		case grammar.SymbolNonTerminal:
			item.node = newNode(NodeTypeNonTerminal, p.gram.NonTerminal(sym.Num), node)
			derived = true
		case grammar.SymbolTerminal:
			item.node = newNode(NodeTypeTerminal, p.gram.Terminal(sym.Num), node)
			derived = true
		}
		items[i] = item
	}
	if !derived {
		newNode(NodeTypeEpsilon, "", node)
	}

	for i := len(items) - 1; i >= 0; i-- {
		p.stack = append(p.stack, items[i])
	}
}

func (p *Parser) act(action string, tok *lexer.Token) {
	if p.acts == nil {
		return
	}

	defer func() {
		if v := recover(); v != nil {
			tracer().Errorf("%v: %v panicked: %v\n%v", tok.Row, action, v, string(debug.Stack()))
		}
	}()

	err := p.acts.Act(action, tok)
	if err != nil {
		tracer().Errorf("%v: %v gave up: %v", tok.Row, action, err)
	}
}

func (p *Parser) nextToken() (*lexer.Token, error) {
	tok, err := p.toks.Next()
	if err != nil {
		return nil, err
	}
	p.row = tok.Row
	return tok, nil
}

func (p *Parser) terminal(tok *lexer.Token) (int, error) {
	term, ok := p.gram.TerminalNum(tok.Terminal())
	if !ok {
		return 0, fmt.Errorf("a token doesn't match any terminal: %v", tok)
	}
	return term, nil
}

func (p *Parser) syntaxError(row int, msg string) {
	p.synErrs = append(p.synErrs, verr.NewSyntaxError(row, msg))
}

func (p *Parser) top() *stackItem {
	return p.stack[len(p.stack)-1]
}

func (p *Parser) pop() {
	p.stack = p.stack[:len(p.stack)-1]
}

// Tree returns the parse tree. Nodes abandoned by error recovery have been pruned.
func (p *Parser) Tree() *Node {
	return p.tree
}

func (p *Parser) SyntaxErrors() verr.CompileErrors {
	return p.synErrs
}

// Row returns the line number of the last token read.
func (p *Parser) Row() int {
	return p.row
}
