package parser

import "github.com/Hyper5phere/simple-c-compiler/grammar"

type grammarImpl struct {
	g *grammar.CompiledGrammar
}

// NewGrammar adapts a compiled LL(1) grammar to the Grammar interface.
func NewGrammar(g *grammar.CompiledGrammar) *grammarImpl {
	return &grammarImpl{
		g: g,
	}
}

func (g *grammarImpl) StartSymbol() int {
	return g.g.Start
}

func (g *grammarImpl) EOF() int {
	return g.g.EOF
}

func (g *grammarImpl) TerminalNum(name string) (int, bool) {
	return g.g.TerminalNum(name)
}

func (g *grammarImpl) Lookup(nonTerminal int, terminal int) grammar.Entry {
	return g.g.Table.Lookup(nonTerminal, terminal)
}

func (g *grammarImpl) RHS(prod int) []grammar.Symbol {
	return g.g.Productions[prod].RHS
}

func (g *grammarImpl) NonTerminal(nonTerminal int) string {
	return g.g.NonTerminals[nonTerminal]
}

func (g *grammarImpl) Terminal(terminal int) string {
	return g.g.Terminals[terminal]
}

func (g *grammarImpl) Action(action int) string {
	return g.g.Actions[action]
}

func (g *grammarImpl) Filler(nonTerminal int) string {
	return g.g.Fillers[nonTerminal]
}
