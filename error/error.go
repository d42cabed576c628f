package error

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

type Phase string

const (
	PhaseLexical  = Phase("Lexical")
	PhaseSyntax   = Phase("Syntax")
	PhaseSemantic = Phase("Semantic")
)

// CompileError is a diagnostic found in a source program. Row is 1-based.
type CompileError struct {
	Phase      Phase
	Row        int
	Message    string
	FilePath   string
	SourceName string
}

func NewLexicalError(row int, lexeme string, reason string) *CompileError {
	return &CompileError{
		Phase:   PhaseLexical,
		Row:     row,
		Message: fmt.Sprintf("'%v' rejected, reason: %v.", lexeme, reason),
	}
}

func NewSyntaxError(row int, message string) *CompileError {
	return &CompileError{
		Phase:   PhaseSyntax,
		Row:     row,
		Message: message,
	}
}

func NewSemanticError(row int, message string) *CompileError {
	return &CompileError{
		Phase:   PhaseSemantic,
		Row:     row,
		Message: message,
	}
}

// Error returns the diagnostic line as it appears in the error files.
func (e *CompileError) Error() string {
	switch e.Phase {
	case PhaseSyntax:
		return fmt.Sprintf("#%v : Syntax Error, %v", e.Row, e.Message)
	default:
		return fmt.Sprintf("#%v : %v Error! %v", e.Row, e.Phase, e.Message)
	}
}

// Detail returns the diagnostic prefixed with the source name and followed by the offending source line.
func (e *CompileError) Detail() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	fmt.Fprintf(&b, "%v", e.Error())

	line := readLine(e.FilePath, e.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
	}

	return b.String()
}

type CompileErrors []*CompileError

func (e CompileErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v", e[0])
	for _, err := range e[1:] {
		fmt.Fprintf(&b, "\n%v", err)
	}
	return b.String()
}

// SetSource attaches a file path and a display name to every error.
func (e CompileErrors) SetSource(filePath, sourceName string) {
	for _, err := range e {
		err.FilePath = filePath
		err.SourceName = sourceName
	}
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}
