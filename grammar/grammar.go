package grammar

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

const (
	symbolNameEpsilon = "EPSILON"
	actionPrefix      = "#"
)

// Grammar is a context-free grammar whose right-hand sides may contain action symbols. A non-terminal carries a
// filler, the construct reported as missing when the parser gives the non-terminal up.
type Grammar struct {
	name        string
	symbolTable *symbolTable
	productions *productionSet
	fillers     map[symbol]string
}

type productionLine struct {
	row  int
	lhs  string
	alts [][]string
}

// NewGrammar reads productions written one non-terminal per line:
//
//	LHS -> SYM SYM ... | SYM ... | EPSILON
//
// The LHS of the first line is the start symbol. A symbol appearing as an LHS is a non-terminal, a symbol
// prefixed with `#` is an action symbol, and any other symbol is a terminal. Empty lines and lines beginning
// with `//` are ignored.
func NewGrammar(name string, src string, fillers map[string]string) (*Grammar, error) {
	lines, err := readProductionLines(src)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, semErrNoProduction
	}

	symTab := newSymbolTable()
	w := symTab.writer()
	lhsRows := map[string]int{}
	for i, l := range lines {
		if row, ok := lhsRows[l.lhs]; ok {
			return nil, fmt.Errorf("%v: %w: %v is already defined at line %v", l.row, semErrDuplicateLHS, l.lhs, row)
		}
		lhsRows[l.lhs] = l.row
		if i == 0 {
			_, err = w.registerStartSymbol(l.lhs)
		} else {
			_, err = w.registerNonTerminalSymbol(l.lhs)
		}
		if err != nil {
			return nil, err
		}
	}

	prods := newProductionSet()
	r := symTab.reader()
	var errs []error
	for _, l := range lines {
		lhs, _ := r.toSymbol(l.lhs)
		for _, alt := range l.alts {
			rhs, err := genRHS(w, lhsRows, alt)
			if err != nil {
				errs = append(errs, fmt.Errorf("%v: %w", l.row, err))
				continue
			}
			prod, err := newProduction(lhs, rhs)
			if err != nil {
				return nil, err
			}
			if !prods.append(prod) {
				errs = append(errs, fmt.Errorf("%v: %w: %v -> %v", l.row, semErrDuplicateProduction, l.lhs, strings.Join(alt, " ")))
			}
		}
	}

	fills := map[symbol]string{}
	for text, filler := range fillers {
		sym, ok := r.toSymbol(text)
		if !ok || !sym.isNonTerminal() {
			errs = append(errs, fmt.Errorf("%w: a filler is given to %v", semErrUndefinedSym, text))
			continue
		}
		fills[sym] = filler
	}
	for _, l := range lines {
		sym, _ := r.toSymbol(l.lhs)
		if _, ok := fills[sym]; !ok {
			errs = append(errs, fmt.Errorf("%v: %w: %v", l.row, semErrNoFiller, l.lhs))
		}
	}

	for _, sym := range findUnreachableSymbols(prods, r.nonTerminalSymbols()) {
		text, _ := r.toText(sym)
		errs = append(errs, fmt.Errorf("%v: %w: %v", lhsRows[text], semErrUnusedProduction, text))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Grammar{
		name:        name,
		symbolTable: symTab,
		productions: prods,
		fillers:     fills,
	}, nil
}

func (g *Grammar) Name() string {
	return g.name
}

func readProductionLines(src string) ([]*productionLine, error) {
	var lines []*productionLine
	s := bufio.NewScanner(strings.NewReader(src))
	row := 0
	for s.Scan() {
		row++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		lhs, body, ok := strings.Cut(text, "->")
		lhs = strings.TrimSpace(lhs)
		if !ok || lhs == "" || strings.ContainsAny(lhs, " \t") || strings.HasPrefix(lhs, actionPrefix) {
			return nil, fmt.Errorf("%v: %w", row, semErrInvalidProduction)
		}
		l := &productionLine{
			row: row,
			lhs: lhs,
		}
		for _, alt := range strings.Split(body, "|") {
			syms := strings.Fields(alt)
			if len(syms) == 0 {
				return nil, fmt.Errorf("%v: %w: an alternative is empty; write EPSILON instead", row, semErrInvalidProduction)
			}
			l.alts = append(l.alts, syms)
		}
		lines = append(lines, l)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func genRHS(w *symbolTableWriter, nonTerms map[string]int, alt []string) ([]symbol, error) {
	var rhs []symbol
	epsilon := false
	for _, text := range alt {
		var sym symbol
		var err error
		switch {
		case text == symbolNameEpsilon:
			epsilon = true
			continue
		case strings.HasPrefix(text, actionPrefix):
			sym, err = w.registerActionSymbol(text)
		case text == SymbolNameEOF:
			sym = symbolEOF
		default:
			if _, ok := nonTerms[text]; ok {
				sym, err = w.registerNonTerminalSymbol(text)
			} else {
				sym, err = w.registerTerminalSymbol(text)
			}
		}
		if err != nil {
			return nil, err
		}
		rhs = append(rhs, sym)
	}
	if epsilon {
		for _, sym := range rhs {
			if !sym.isAction() {
				return nil, fmt.Errorf("%w: %v", semErrMisplacedEpsilon, strings.Join(alt, " "))
			}
		}
	}
	return rhs, nil
}

func findUnreachableSymbols(prods *productionSet, nonTerms []symbol) []symbol {
	reached := map[symbol]struct{}{
		symbolStart: {},
	}
	queue := []symbol{symbolStart}
	for len(queue) > 0 {
		lhs := queue[0]
		queue = queue[1:]
		ps, _ := prods.findByLHS(lhs)
		for _, prod := range ps {
			for _, sym := range prod.rhs {
				if !sym.isNonTerminal() {
					continue
				}
				if _, ok := reached[sym]; ok {
					continue
				}
				reached[sym] = struct{}{}
				queue = append(queue, sym)
			}
		}
	}

	var unreachable []symbol
	for _, sym := range nonTerms {
		if _, ok := reached[sym]; !ok {
			unreachable = append(unreachable, sym)
		}
	}
	return unreachable
}
