package grammar

import (
	"testing"
)

type testSymbolGenerator func(text string) symbol

func newTestSymbolGenerator(t *testing.T, symTab *symbolTableReader) testSymbolGenerator {
	return func(text string) symbol {
		t.Helper()

		sym, ok := symTab.toSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

func newTestGrammar(t *testing.T, src string) *Grammar {
	t.Helper()

	fillers := map[string]string{}
	lines, err := readProductionLines(src)
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range lines {
		fillers[l.lhs] = l.lhs
	}
	g, err := NewGrammar("test", src, fillers)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func symbolTexts(t *testing.T, symTab *symbolTableReader, syms map[symbol]struct{}) map[string]struct{} {
	t.Helper()

	texts := map[string]struct{}{}
	for sym := range syms {
		text, ok := symTab.toText(sym)
		if !ok {
			t.Fatalf("symbol was not found: %v", sym)
		}
		texts[text] = struct{}{}
	}
	return texts
}
