package lexer

import (
	"fmt"
	"io"

	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"

	verr "github.com/Hyper5phere/simple-c-compiler/error"
)

type Kind string

const (
	KindID      = Kind("ID")
	KindNUM     = Kind("NUM")
	KindKeyword = Kind("KEYWORD")
	KindSymbol  = Kind("SYMBOL")
	KindEOF     = Kind("EOF")
)

func (k Kind) String() string {
	return string(k)
}

// TerminalEOF is the terminal name of the end of input.
const TerminalEOF = "$"

// unclosedCommentLen is the number of characters of an unclosed comment kept in its diagnostic.
const unclosedCommentLen = 15

type Token struct {
	Kind   Kind
	Lexeme string

	// Row is a 1-based line number.
	Row int

	// Symbol is the index of the symbol table row of an identifier.
	Symbol int
}

// Terminal returns the name of the grammar terminal the token matches.
func (t *Token) Terminal() string {
	switch t.Kind {
	case KindID, KindNUM:
		return t.Kind.String()
	case KindEOF:
		return TerminalEOF
	}
	return t.Lexeme
}

func (t *Token) String() string {
	return fmt.Sprintf("(%v, %v)", t.Kind, t.Lexeme)
}

// SymbolInstaller assigns a symbol table row to an identifier spelling.
type SymbolInstaller interface {
	Install(lexeme string) int
}

// Line is the tokens found on a source line.
type Line struct {
	Row    int
	Tokens []*Token
}

type Lexer struct {
	d         *mldriver.Lexer
	kindNames []mlspec.LexKindName
	installer SymbolInstaller
	errs      verr.CompileErrors
	lines     []*Line
	ids       []string
	idSet     map[string]struct{}
	row       int
	eof       bool
}

func NewLexer(src io.Reader, installer SymbolInstaller) (*Lexer, error) {
	s, err := loadSpec()
	if err != nil {
		return nil, err
	}
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(s), src)
	if err != nil {
		return nil, err
	}
	return &Lexer{
		d:         d,
		kindNames: s.KindNames,
		installer: installer,
		idSet:     map[string]struct{}{},
		row:       1,
	}, nil
}

// Next returns the next token. Lexical errors are recorded and skipped; after the end of input every call returns
// an EOF token.
func (l *Lexer) Next() (*Token, error) {
	if l.eof {
		return l.eofToken(), nil
	}
	for {
		tok, err := l.d.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			l.eof = true
			return l.eofToken(), nil
		}
		row := tok.Row + 1
		l.row = row
		text := string(tok.Lexeme)
		if tok.Invalid {
			l.errs = append(l.errs, verr.NewLexicalError(row, text, "invalid input"))
			continue
		}

		kind := l.kindNames[tok.KindID].String()
		if _, ok := skipKinds[kind]; ok {
			continue
		}
		if reason, ok := errorReasons[kind]; ok {
			lexeme := text
			if kind == kindUnclosedComment {
				lexeme = truncate(lexeme)
			}
			l.errs = append(l.errs, verr.NewLexicalError(row, lexeme, reason))
			continue
		}

		t := &Token{
			Lexeme: text,
			Row:    row,
		}
		switch {
		case kind == kindNumber:
			t.Kind = KindNUM
		case kind == kindWord:
			if _, ok := keywordSet[t.Lexeme]; ok {
				t.Kind = KindKeyword
				break
			}
			t.Kind = KindID
			t.Symbol = l.installer.Install(t.Lexeme)
			if _, ok := l.idSet[t.Lexeme]; !ok {
				l.idSet[t.Lexeme] = struct{}{}
				l.ids = append(l.ids, t.Lexeme)
			}
		default:
			if _, ok := symbolKinds[kind]; !ok {
				return nil, fmt.Errorf("unknown lexical kind: %v", kind)
			}
			t.Kind = KindSymbol
		}
		l.record(t)
		return t, nil
	}
}

func (l *Lexer) eofToken() *Token {
	return &Token{
		Kind:   KindEOF,
		Lexeme: TerminalEOF,
		Row:    l.row,
	}
}

func (l *Lexer) record(t *Token) {
	if n := len(l.lines); n > 0 && l.lines[n-1].Row == t.Row {
		l.lines[n-1].Tokens = append(l.lines[n-1].Tokens, t)
		return
	}
	l.lines = append(l.lines, &Line{
		Row:    t.Row,
		Tokens: []*Token{t},
	})
}

// Errors returns the lexical errors found so far.
func (l *Lexer) Errors() verr.CompileErrors {
	return l.errs
}

// Lines returns the tokens found so far grouped by line. Lines without tokens are omitted.
func (l *Lexer) Lines() []*Line {
	return l.lines
}

// Identifiers returns the identifier spellings in the order of their first appearance.
func (l *Lexer) Identifiers() []string {
	return l.ids
}

func truncate(lexeme string) string {
	rs := []rune(lexeme)
	if len(rs) <= unclosedCommentLen {
		return lexeme
	}
	return string(rs[:unclosedCommentLen]) + " ..."
}
