package grammar

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Entry is a cell of an LL(1) parsing table. A positive value is a production number.
type Entry int

const (
	// EntryEmpty means the lookahead cannot appear here; the parser discards it.
	EntryEmpty = Entry(0)
	// EntrySynch means the lookahead can follow the non-terminal; the parser gives the non-terminal up.
	EntrySynch = Entry(-1)
)

func (e Entry) IsProduction() bool {
	return e > 0
}

func (e Entry) String() string {
	switch e {
	case EntryEmpty:
		return "empty"
	case EntrySynch:
		return "synch"
	}
	return fmt.Sprintf("%v", int(e))
}

// ParsingTable is an LL(1) table packed with row displacement. Rows are non-terminals and columns are terminals.
// A cell not stored in Entries is EntryEmpty.
type ParsingTable struct {
	RowCount        int     `json:"row_count"`
	ColCount        int     `json:"col_count"`
	Entries         []Entry `json:"entries"`
	Checks          []int   `json:"checks"`
	RowDisplacement []int   `json:"row_displacement"`
}

func (t *ParsingTable) Lookup(nonTerm, term int) Entry {
	if nonTerm < 0 || nonTerm >= t.RowCount || term < 0 || term >= t.ColCount {
		return EntryEmpty
	}
	i := t.RowDisplacement[nonTerm] + term
	if i >= len(t.Entries) || t.Checks[i] != nonTerm {
		return EntryEmpty
	}
	return t.Entries[i]
}

func packTable(rows [][]Entry, colCount int) *ParsingTable {
	t := &ParsingTable{
		RowCount:        len(rows),
		ColCount:        colCount,
		RowDisplacement: make([]int, len(rows)),
	}
	for r, row := range rows {
		d := 0
	DISPLACEMENT_LOOP:
		for ; ; d++ {
			for c, e := range row {
				if e == EntryEmpty {
					continue
				}
				if d+c < len(t.Checks) && t.Checks[d+c] >= 0 {
					continue DISPLACEMENT_LOOP
				}
			}
			break
		}
		t.RowDisplacement[r] = d
		for c, e := range row {
			if e == EntryEmpty {
				continue
			}
			for len(t.Entries) <= d+c {
				t.Entries = append(t.Entries, EntryEmpty)
				t.Checks = append(t.Checks, -1)
			}
			t.Entries[d+c] = e
			t.Checks[d+c] = r
		}
	}
	return t
}

type SymbolKind int

const (
	SymbolNonTerminal SymbolKind = iota
	SymbolTerminal
	SymbolAction
)

type Symbol struct {
	Kind SymbolKind `json:"kind"`
	Num  int        `json:"num"`
}

type Production struct {
	Num int      `json:"num"`
	LHS int      `json:"lhs"`
	RHS []Symbol `json:"rhs"`
}

// CompiledGrammar is the form of a grammar consumed by the parser. Symbol names and productions are indexed by
// their numbers; index 0 is unused.
type CompiledGrammar struct {
	Name         string        `json:"name"`
	Terminals    []string      `json:"terminals"`
	NonTerminals []string      `json:"non_terminals"`
	Actions      []string      `json:"actions"`
	Fillers      []string      `json:"fillers"`
	Start        int           `json:"start"`
	EOF          int           `json:"eof"`
	Productions  []*Production `json:"productions"`
	Table        *ParsingTable `json:"table"`

	term2Num map[string]int
}

func (g *CompiledGrammar) TerminalNum(name string) (int, bool) {
	if g.term2Num != nil {
		n, ok := g.term2Num[name]
		return n, ok
	}
	for n, t := range g.Terminals {
		if n > 0 && t == name {
			return n, true
		}
	}
	return 0, false
}

func (g *CompiledGrammar) SymbolName(sym Symbol) string {
	switch sym.Kind {
	case SymbolTerminal:
		return g.Terminals[sym.Num]
	case SymbolAction:
		return g.Actions[sym.Num]
	}
	return g.NonTerminals[sym.Num]
}

// ConflictError reports two productions claiming the same cell of the table.
type ConflictError struct {
	NonTerminal string
	Terminal    string
	Productions [2]int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %v on %v: productions %v and %v", semErrConflict, e.NonTerminal, e.Terminal, e.Productions[0], e.Productions[1])
}

func (e *ConflictError) Unwrap() error {
	return semErrConflict
}

type lookAheadTableBuilder struct {
	prods   *productionSet
	symTab  *symbolTableReader
	first   *firstSet
	follow  *followSet
	rows    [][]Entry
	colSize int
}

func (b *lookAheadTableBuilder) build() error {
	b.rows = make([][]Entry, b.symTab.nonTermNum.Int())
	for i := range b.rows {
		b.rows[i] = make([]Entry, b.colSize)
	}

	var errs []error
	for _, prod := range b.prods.getAllProductions() {
		fst, err := b.first.find(prod, 0)
		if err != nil {
			return err
		}
		for _, term := range sortedSymbols(fst.symbols) {
			if err := b.write(prod, term); err != nil {
				errs = append(errs, err)
			}
		}
		if !fst.empty {
			continue
		}
		flw, err := b.follow.find(prod.lhs)
		if err != nil {
			return err
		}
		for _, term := range sortedSymbols(flw.symbols) {
			if err := b.write(prod, term); err != nil {
				errs = append(errs, err)
			}
		}
		if flw.eof {
			if err := b.write(prod, symbolEOF); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for _, nonTerm := range b.symTab.nonTerminalSymbols() {
		flw, err := b.follow.find(nonTerm)
		if err != nil {
			return err
		}
		row := b.rows[nonTerm.num()]
		for _, term := range b.symTab.terminalSymbols() {
			if row[term.num()] != EntryEmpty {
				continue
			}
			if term.isEOF() || flw.contains(term) {
				row[term.num()] = EntrySynch
			}
		}
	}
	return nil
}

func (b *lookAheadTableBuilder) write(prod *production, term symbol) error {
	cell := &b.rows[prod.lhs.num()][term.num()]
	if *cell != EntryEmpty && *cell != Entry(prod.num) {
		lhs, _ := b.symTab.toText(prod.lhs)
		t, _ := b.symTab.toText(term)
		return &ConflictError{
			NonTerminal: lhs,
			Terminal:    t,
			Productions: [2]int{int(*cell), prod.num.Int()},
		}
	}
	*cell = Entry(prod.num)
	return nil
}

func sortedSymbols(syms map[symbol]struct{}) []symbol {
	sorted := make([]symbol, 0, len(syms))
	for sym := range syms {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	return sorted
}

func toSymbol(sym symbol) Symbol {
	kind := SymbolNonTerminal
	switch {
	case sym.isTerminal():
		kind = SymbolTerminal
	case sym.isAction():
		kind = SymbolAction
	}
	return Symbol{
		Kind: kind,
		Num:  sym.num().Int(),
	}
}

type compileConfig struct {
	report *Report
}

type CompileOption func(config *compileConfig)

// WithReport fills report with the FIRST and FOLLOW sets and the unpacked table.
func WithReport(report *Report) CompileOption {
	return func(config *compileConfig) {
		config.report = report
	}
}

// Compile builds the LL(1) parsing table of a grammar. Every conflict is reported as a *ConflictError.
func Compile(gram *Grammar, opts ...CompileOption) (*CompiledGrammar, error) {
	config := &compileConfig{}
	for _, opt := range opts {
		opt(config)
	}

	first, err := genFirstSet(gram.productions)
	if err != nil {
		return nil, err
	}
	follow, err := genFollowSet(gram.productions, first)
	if err != nil {
		return nil, err
	}

	r := gram.symbolTable.reader()
	b := &lookAheadTableBuilder{
		prods:   gram.productions,
		symTab:  r,
		first:   first,
		follow:  follow,
		colSize: r.termNum.Int(),
	}
	err = b.build()
	if err != nil {
		return nil, err
	}

	terms, err := r.terminalTexts()
	if err != nil {
		return nil, err
	}
	nonTerms, err := r.nonTerminalTexts()
	if err != nil {
		return nil, err
	}

	fillers := make([]string, len(nonTerms))
	for sym, filler := range gram.fillers {
		fillers[sym.num()] = filler
	}

	prods := make([]*Production, gram.productions.num.Int())
	for _, prod := range gram.productions.getAllProductions() {
		rhs := make([]Symbol, len(prod.rhs))
		for i, sym := range prod.rhs {
			rhs[i] = toSymbol(sym)
		}
		prods[prod.num] = &Production{
			Num: prod.num.Int(),
			LHS: prod.lhs.num().Int(),
			RHS: rhs,
		}
	}

	cg := &CompiledGrammar{
		Name:         gram.name,
		Terminals:    terms,
		NonTerminals: nonTerms,
		Actions:      r.actions(),
		Fillers:      fillers,
		Start:        symbolStart.num().Int(),
		EOF:          symbolEOF.num().Int(),
		Productions:  prods,
		Table:        packTable(b.rows, b.colSize),
		term2Num:     map[string]int{},
	}
	for n, t := range terms[1:] {
		cg.term2Num[t] = n + 1
	}

	if config.report != nil {
		genReport(config.report, cg, r, first, follow, b.rows)
	}

	return cg, nil
}

func (p *Production) format(g *CompiledGrammar) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v ->", g.NonTerminals[p.LHS])
	if len(p.RHS) == 0 {
		fmt.Fprintf(&b, " %v", symbolNameEpsilon)
	}
	for _, sym := range p.RHS {
		fmt.Fprintf(&b, " %v", g.SymbolName(sym))
	}
	return b.String()
}
