package grammar

import (
	"fmt"
	"sort"
)

type symbolKind string

const (
	symbolKindNonTerminal = symbolKind("non-terminal")
	symbolKindTerminal    = symbolKind("terminal")
	symbolKindAction      = symbolKind("action")
)

func (t symbolKind) String() string {
	return string(t)
}

type symbolNum uint16

func (n symbolNum) Int() int {
	return int(n)
}

type symbol uint16

func (s symbol) String() string {
	kind, isStart, isEOF, num := s.describe()
	var prefix string
	switch {
	case isStart:
		prefix = "s"
	case isEOF:
		prefix = "e"
	case kind == symbolKindNonTerminal:
		prefix = "n"
	case kind == symbolKindTerminal:
		prefix = "t"
	case kind == symbolKindAction:
		prefix = "a"
	default:
		prefix = "?"
	}
	return fmt.Sprintf("%v%v", prefix, num)
}

const (
	maskKindPart    = uint16(0xc000) // 1100 0000 0000 0000
	maskNonTerminal = uint16(0x0000) // 0000 0000 0000 0000
	maskTerminal    = uint16(0x8000) // 1000 0000 0000 0000
	maskAction      = uint16(0x4000) // 0100 0000 0000 0000

	maskSubKindPart    = uint16(0x2000) // 0010 0000 0000 0000
	maskNonStartAndEOF = uint16(0x0000) // 0000 0000 0000 0000
	maskStartOrEOF     = uint16(0x2000) // 0010 0000 0000 0000

	maskNumberPart = uint16(0x1fff) // 0001 1111 1111 1111

	symbolNumStart = uint16(0x0001) // 0000 0000 0000 0001
	symbolNumEOF   = uint16(0x0001) // 0000 0000 0000 0001

	symbolNil   = symbol(0)                                                 // 0000 0000 0000 0000
	symbolStart = symbol(maskNonTerminal | maskStartOrEOF | symbolNumStart) // 0010 0000 0000 0001
	symbolEOF   = symbol(maskTerminal | maskStartOrEOF | symbolNumEOF)      // 1010 0000 0000 0001: The EOF symbol is treated as a terminal symbol.

	SymbolNameEOF = "$"

	nonTerminalNumMin = symbolNum(2) // The number 1 is used by a start symbol.
	terminalNumMin    = symbolNum(2) // The number 1 is used by the EOF symbol.
	actionNumMin      = symbolNum(1)
	symbolNumMax      = symbolNum(maskNumberPart)
)

func newSymbol(kind symbolKind, isStart bool, num symbolNum) (symbol, error) {
	if num > symbolNumMax {
		return symbolNil, fmt.Errorf("a symbol number exceeds the limit; limit: %v, passed: %v", symbolNumMax, num)
	}
	if kind != symbolKindNonTerminal && isStart {
		return symbolNil, fmt.Errorf("a start symbol must be a non-terminal symbol")
	}

	var kindMask uint16
	switch kind {
	case symbolKindNonTerminal:
		kindMask = maskNonTerminal
	case symbolKindTerminal:
		kindMask = maskTerminal
	case symbolKindAction:
		kindMask = maskAction
	}
	startMask := maskNonStartAndEOF
	if isStart {
		startMask = maskStartOrEOF
	}
	return symbol(kindMask | startMask | uint16(num)), nil
}

func (s symbol) num() symbolNum {
	_, _, _, num := s.describe()
	return num
}

func (s symbol) byte() []byte {
	if s.isNil() {
		return []byte{0, 0}
	}
	return []byte{byte(uint16(s) >> 8), byte(uint16(s) & 0x00ff)}
}

func (s symbol) isNil() bool {
	_, _, _, num := s.describe()
	return num == 0
}

func (s symbol) isStart() bool {
	if s.isNil() {
		return false
	}
	_, isStart, _, _ := s.describe()
	return isStart
}

func (s symbol) isEOF() bool {
	if s.isNil() {
		return false
	}
	_, _, isEOF, _ := s.describe()
	return isEOF
}

func (s symbol) isNonTerminal() bool {
	if s.isNil() {
		return false
	}
	kind, _, _, _ := s.describe()
	return kind == symbolKindNonTerminal
}

func (s symbol) isTerminal() bool {
	if s.isNil() {
		return false
	}
	kind, _, _, _ := s.describe()
	return kind == symbolKindTerminal
}

// isAction reports whether the symbol invokes a translation routine. Action symbols derive the empty string.
func (s symbol) isAction() bool {
	if s.isNil() {
		return false
	}
	kind, _, _, _ := s.describe()
	return kind == symbolKindAction
}

func (s symbol) describe() (symbolKind, bool, bool, symbolNum) {
	var kind symbolKind
	switch uint16(s) & maskKindPart {
	case maskTerminal:
		kind = symbolKindTerminal
	case maskAction:
		kind = symbolKindAction
	default:
		kind = symbolKindNonTerminal
	}
	isStart := false
	isEOF := false
	if uint16(s)&maskSubKindPart > 0 {
		switch kind {
		case symbolKindNonTerminal:
			isStart = true
		case symbolKindTerminal:
			isEOF = true
		}
	}
	num := symbolNum(uint16(s) & maskNumberPart)
	return kind, isStart, isEOF, num
}

type symbolTable struct {
	text2Sym     map[string]symbol
	sym2Text     map[symbol]string
	nonTermTexts []string
	termTexts    []string
	actionTexts  []string
	nonTermNum   symbolNum
	termNum      symbolNum
	actionNum    symbolNum
}

type symbolTableWriter struct {
	*symbolTable
}

type symbolTableReader struct {
	*symbolTable
}

func newSymbolTable() *symbolTable {
	return &symbolTable{
		text2Sym: map[string]symbol{
			SymbolNameEOF: symbolEOF,
		},
		sym2Text: map[symbol]string{
			symbolEOF: SymbolNameEOF,
		},
		termTexts: []string{
			"",            // Nil
			SymbolNameEOF, // EOF
		},
		nonTermTexts: []string{
			"", // Nil
			"", // Start Symbol
		},
		actionTexts: []string{
			"", // Nil
		},
		nonTermNum: nonTerminalNumMin,
		termNum:    terminalNumMin,
		actionNum:  actionNumMin,
	}
}

func (t *symbolTable) writer() *symbolTableWriter {
	return &symbolTableWriter{
		symbolTable: t,
	}
}

func (t *symbolTable) reader() *symbolTableReader {
	return &symbolTableReader{
		symbolTable: t,
	}
}

func (w *symbolTableWriter) registerStartSymbol(text string) (symbol, error) {
	w.text2Sym[text] = symbolStart
	w.sym2Text[symbolStart] = text
	w.nonTermTexts[symbolStart.num().Int()] = text
	return symbolStart, nil
}

func (w *symbolTableWriter) registerNonTerminalSymbol(text string) (symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		return sym, nil
	}
	sym, err := newSymbol(symbolKindNonTerminal, false, w.nonTermNum)
	if err != nil {
		return symbolNil, err
	}
	w.nonTermNum++
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.nonTermTexts = append(w.nonTermTexts, text)
	return sym, nil
}

func (w *symbolTableWriter) registerTerminalSymbol(text string) (symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		return sym, nil
	}
	sym, err := newSymbol(symbolKindTerminal, false, w.termNum)
	if err != nil {
		return symbolNil, err
	}
	w.termNum++
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.termTexts = append(w.termTexts, text)
	return sym, nil
}

func (w *symbolTableWriter) registerActionSymbol(text string) (symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		return sym, nil
	}
	sym, err := newSymbol(symbolKindAction, false, w.actionNum)
	if err != nil {
		return symbolNil, err
	}
	w.actionNum++
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.actionTexts = append(w.actionTexts, text)
	return sym, nil
}

func (r *symbolTableReader) toSymbol(text string) (symbol, bool) {
	if sym, ok := r.text2Sym[text]; ok {
		return sym, true
	}
	return symbolNil, false
}

func (r *symbolTableReader) toText(sym symbol) (string, bool) {
	text, ok := r.sym2Text[sym]
	return text, ok
}

func (r *symbolTableReader) terminalSymbols() []symbol {
	return r.symbols(func(sym symbol) bool { return sym.isTerminal() })
}

func (r *symbolTableReader) nonTerminalSymbols() []symbol {
	return r.symbols(func(sym symbol) bool { return sym.isNonTerminal() })
}

func (r *symbolTableReader) symbols(pred func(sym symbol) bool) []symbol {
	var syms []symbol
	for sym := range r.sym2Text {
		if sym.isNil() || !pred(sym) {
			continue
		}
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i].num() < syms[j].num()
	})
	return syms
}

func (r *symbolTableReader) terminalTexts() ([]string, error) {
	if r.termNum == terminalNumMin {
		return nil, fmt.Errorf("symbol table has no terminals")
	}
	return r.termTexts, nil
}

func (r *symbolTableReader) nonTerminalTexts() ([]string, error) {
	if r.nonTermTexts[symbolStart.num().Int()] == "" {
		return nil, fmt.Errorf("symbol table has no start symbol")
	}
	return r.nonTermTexts, nil
}

func (r *symbolTableReader) actions() []string {
	return r.actionTexts
}
