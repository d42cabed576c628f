package semantic

import (
	"fmt"
	"strconv"

	"github.com/npillmayer/schuko/tracing"

	"github.com/Hyper5phere/simple-c-compiler/driver/lexer"
	verr "github.com/Hyper5phere/simple-c-compiler/error"
	"github.com/Hyper5phere/simple-c-compiler/memory"
	"github.com/Hyper5phere/simple-c-compiler/symtab"
)

func tracer() tracing.Trace {
	return tracing.Select("cminus.semantic")
}

// ProgramCounter tells the index the next instruction will be emitted at.
type ProgramCounter interface {
	PC() int
}

// mainSignature is the (type, name, parameters) triple of the entry point.
var mainSignature = [3]string{"void", "main", "void"}

type declaration struct {
	typ symtab.Type
	row *symtab.Row
}

type call struct {
	fun  *symtab.Row
	args []symtab.Type
}

// Analyzer runs the semantic routines of #SA_ action symbols and installs identifiers into the symbol table.
type Analyzer struct {
	symTab *symtab.Table
	alloc  *memory.Allocator
	pc     ProgramCounter

	routines map[string]func(tok *lexer.Token) error

	declaring bool
	decls     []*declaration
	params    []symtab.Type

	mainCheck   []string
	mainFound   bool
	mainNotLast bool

	lastID *symtab.Row
	calls  []*call
	types  []symtab.Type

	whileDepth  int
	switchDepth int

	errs verr.CompileErrors
}

func NewAnalyzer(symTab *symtab.Table, alloc *memory.Allocator, pc ProgramCounter) *Analyzer {
	a := &Analyzer{
		symTab: symTab,
		alloc:  alloc,
		pc:     pc,
	}
	a.routines = map[string]func(tok *lexer.Token) error{
		"#SA_INC_SCOPE": a.incScope,
		"#SA_DEC_SCOPE": a.decScope,

		"#SA_SAVE_MAIN":  a.saveMain,
		"#SA_MAIN_POP":   a.popMain,
		"#SA_MAIN_CHECK": a.checkMain,

		"#SA_SAVE_TYPE":         a.saveType,
		"#SA_ASSIGN_TYPE":       a.assignType,
		"#SA_ASSIGN_FUN_ROLE":   a.assignFunRole,
		"#SA_ASSIGN_VAR_ROLE":   a.assignVarRole,
		"#SA_ASSIGN_PARAM_ROLE": a.assignParamRole,
		"#SA_ASSIGN_LENGTH":     a.assignLength,
		"#SA_SAVE_PARAM":        a.saveParam,
		"#SA_ASSIGN_FUN_ATTRS":  a.assignFunAttrs,

		"#SA_CHECK_DECL": a.checkDecl,

		"#SA_SAVE_FUN":       a.saveFun,
		"#SA_PUSH_ARG_STACK": a.pushArgStack,
		"#SA_SAVE_ARG":       a.saveArg,
		"#SA_CHECK_ARGS":     a.checkArgs,
		"#SA_POP_ARG_STACK":  a.popArgStack,

		"#SA_PUSH_WHILE":  a.pushWhile,
		"#SA_CHECK_WHILE": a.checkWhile,
		"#SA_POP_WHILE":   a.popWhile,
		"#SA_PUSH_SWITCH": a.pushSwitch,
		"#SA_CHECK_BREAK": a.checkBreak,
		"#SA_POP_SWITCH":  a.popSwitch,

		"#SA_SAVE_TYPE_CHECK": a.saveTypeCheck,
		"#SA_INDEX_ARRAY":     a.indexArray,
		"#SA_INDEX_ARRAY_POP": a.indexArrayPop,
		"#SA_TYPE_CHECK":      a.typeCheck,
		"#SA_POP_TYPE":        a.popType,
	}
	return a
}

// Install returns the row of an identifier. While a declaration is pending the identifier gets a fresh row in the
// current scope; otherwise the innermost visible row is used and an unknown identifier gets a row without type.
func (a *Analyzer) Install(lexeme string) int {
	if a.declaring {
		a.declaring = false
		return a.symTab.Declare(lexeme).Index
	}
	return a.symTab.Resolve(lexeme).Index
}

func (a *Analyzer) Act(action string, tok *lexer.Token) error {
	r, ok := a.routines[action]
	if !ok {
		return fmt.Errorf("unknown semantic routine: %v", action)
	}
	tracer().Debugf("%v: %v %v", tok.Row, action, tok)
	return r(tok)
}

// MsgMainNotFound reports a program without `void main(void)` as its last declaration.
const MsgMainNotFound = "main function not found!"

// CheckEOF verifies the entry point once the whole program has been parsed.
func (a *Analyzer) CheckEOF(row int) {
	if !a.mainFound || a.mainNotLast {
		a.semanticError(row, MsgMainNotFound)
	}
}

func (a *Analyzer) Errors() verr.CompileErrors {
	return a.errs
}

func (a *Analyzer) semanticError(row int, msg string) {
	a.errs = append(a.errs, verr.NewSemanticError(row, msg))
}

func (a *Analyzer) row(tok *lexer.Token) (*symtab.Row, error) {
	if tok.Kind != lexer.KindID {
		return nil, fmt.Errorf("an identifier was expected: %v", tok)
	}
	row, ok := a.symTab.Row(tok.Symbol)
	if !ok {
		return nil, fmt.Errorf("%v has no row", tok)
	}
	return row, nil
}

func (a *Analyzer) incScope(tok *lexer.Token) error {
	a.symTab.EnterScope()
	return nil
}

func (a *Analyzer) decScope(tok *lexer.Token) error {
	err := a.symTab.LeaveScope()
	if err != nil {
		return err
	}
	// The lookahead was installed before the scope was left.
	if tok.Kind == lexer.KindID {
		tok.Symbol = a.symTab.Resolve(tok.Lexeme).Index
	}
	return nil
}

func (a *Analyzer) saveMain(tok *lexer.Token) error {
	a.mainCheck = append(a.mainCheck, tok.Lexeme)
	return nil
}

func (a *Analyzer) popMain(tok *lexer.Token) error {
	if len(a.mainCheck) < 2 {
		a.mainCheck = nil
		return fmt.Errorf("entry point stack underflow")
	}
	a.mainCheck = a.mainCheck[:len(a.mainCheck)-2]
	return nil
}

// checkMain inspects the signature of a function declaration. The stack holds the return type, the name, the first
// token of the parameters and the names of any further parameters.
func (a *Analyzer) checkMain(tok *lexer.Token) error {
	sig := a.mainCheck
	a.mainCheck = nil
	if a.symTab.Depth() != 1 {
		return nil
	}
	if a.mainFound {
		a.mainNotLast = true
		return nil
	}
	if len(sig) < 3 {
		return fmt.Errorf("incomplete function signature: %v", sig)
	}
	a.mainFound = sig[0] == mainSignature[0] && sig[1] == mainSignature[1] && sig[2] == mainSignature[2]
	return nil
}

func (a *Analyzer) saveType(tok *lexer.Token) error {
	a.declaring = true
	a.decls = append(a.decls, &declaration{
		typ: symtab.Type(tok.Lexeme),
	})
	return nil
}

func (a *Analyzer) assignType(tok *lexer.Token) error {
	a.declaring = false
	row, err := a.row(tok)
	if err != nil {
		return err
	}
	if len(a.decls) == 0 || a.decls[len(a.decls)-1].row != nil {
		return fmt.Errorf("no pending type for %v", row.Lexeme)
	}
	d := a.decls[len(a.decls)-1]
	d.row = row
	row.Type = d.typ
	return nil
}

func (a *Analyzer) topDecl() (*declaration, error) {
	if len(a.decls) == 0 {
		return nil, fmt.Errorf("no pending declaration")
	}
	d := a.decls[len(a.decls)-1]
	if d.row == nil {
		return nil, fmt.Errorf("the pending declaration has no identifier")
	}
	return d, nil
}

func (a *Analyzer) popDecl() (*declaration, error) {
	d, err := a.topDecl()
	if err != nil {
		a.decls = nil
		return nil, err
	}
	a.decls = a.decls[:len(a.decls)-1]
	return d, nil
}

func (a *Analyzer) assignFunRole(tok *lexer.Token) error {
	d, err := a.topDecl()
	if err != nil {
		return err
	}
	d.row.Role = symtab.RoleFunction
	d.row.Location = symtab.StaticLocation(a.pc.PC())
	return nil
}

func (a *Analyzer) assignVarRole(tok *lexer.Token) error {
	return a.assignRole(tok, symtab.RoleLocalVar)
}

func (a *Analyzer) assignParamRole(tok *lexer.Token) error {
	return a.assignRole(tok, symtab.RoleParam)
}

func (a *Analyzer) assignRole(tok *lexer.Token, role symtab.Role) error {
	d, err := a.topDecl()
	if err != nil {
		return err
	}
	row := d.row
	row.Role = role
	if a.symTab.Depth() == 0 {
		row.Role = symtab.RoleGlobalVar
	}
	if row.Type == symtab.TypeVoid {
		a.semanticError(tok.Row, fmt.Sprintf("Illegal type of void for '%v'.", row.Lexeme))
		row.Type = symtab.TypeUnset
	}
	if tok.Lexeme == "[" {
		row.Type = symtab.TypeArray
	}
	return nil
}

func (a *Analyzer) assignLength(tok *lexer.Token) error {
	d, err := a.popDecl()
	if err != nil {
		return err
	}
	row := d.row
	row.Arity = 1
	if tok.Kind == lexer.KindNUM {
		n, err := strconv.Atoi(tok.Lexeme)
		if err != nil {
			return fmt.Errorf("invalid array length: %w", err)
		}
		row.Arity = n
	}
	if row.Role == symtab.RoleParam {
		row.Location = symtab.FrameLocation(a.alloc.ParamOffset())
	} else {
		row.Location = symtab.StaticLocation(a.alloc.Static(row.Arity))
	}
	if tok.Lexeme == "[" && len(a.params) > 0 {
		a.params[len(a.params)-1] = symtab.TypeArray
	}
	return nil
}

func (a *Analyzer) saveParam(tok *lexer.Token) error {
	a.params = append(a.params, symtab.Type(tok.Lexeme))
	return nil
}

func (a *Analyzer) assignFunAttrs(tok *lexer.Token) error {
	params := a.params
	a.params = nil
	d, err := a.popDecl()
	if err != nil {
		return err
	}
	d.row.Arity = len(params)
	d.row.Params = params
	a.alloc.BeginFunction()
	return nil
}

func (a *Analyzer) checkDecl(tok *lexer.Token) error {
	row, err := a.row(tok)
	if err != nil {
		return err
	}
	if !row.Defined() {
		a.semanticError(tok.Row, fmt.Sprintf("'%v' is not defined.", row.Lexeme))
	}
	return nil
}

func (a *Analyzer) saveFun(tok *lexer.Token) error {
	row, err := a.row(tok)
	if err != nil {
		a.lastID = nil
		return err
	}
	a.lastID = row
	return nil
}

func (a *Analyzer) pushArgStack(tok *lexer.Token) error {
	a.calls = append(a.calls, &call{
		fun: a.lastID,
	})
	return nil
}

func (a *Analyzer) topCall() (*call, error) {
	if len(a.calls) == 0 {
		return nil, fmt.Errorf("no call in progress")
	}
	return a.calls[len(a.calls)-1], nil
}

func (a *Analyzer) saveArg(tok *lexer.Token) error {
	c, err := a.topCall()
	if err != nil {
		return err
	}
	c.args = append(c.args, a.pop())
	return nil
}

func (a *Analyzer) checkArgs(tok *lexer.Token) error {
	c, err := a.topCall()
	if err != nil {
		return err
	}
	f := c.fun
	if f == nil || !f.IsFunction() {
		return nil
	}
	if f.Arity != len(c.args) {
		a.semanticError(tok.Row, fmt.Sprintf("Mismatch in numbers of arguments of '%v'.", f.Lexeme))
		return nil
	}
	for i, arg := range c.args {
		param := f.Params[i]
		if arg == symtab.TypeUnset || arg == param {
			continue
		}
		a.semanticError(tok.Row, fmt.Sprintf("Mismatch in type of argument %v of '%v'. Expected '%v' but got '%v' instead.", i+1, f.Lexeme, param, arg))
	}
	return nil
}

// CurrentArgCount returns the number of arguments checked for the innermost call in progress.
func (a *Analyzer) CurrentArgCount() int {
	c, err := a.topCall()
	if err != nil {
		return 0
	}
	return len(c.args)
}

func (a *Analyzer) popArgStack(tok *lexer.Token) error {
	if len(a.calls) == 0 {
		return fmt.Errorf("no call in progress")
	}
	a.calls = a.calls[:len(a.calls)-1]
	return nil
}

func (a *Analyzer) pushWhile(tok *lexer.Token) error {
	a.whileDepth++
	return nil
}

func (a *Analyzer) checkWhile(tok *lexer.Token) error {
	if a.whileDepth <= 0 {
		a.semanticError(tok.Row, "No 'while' found for 'continue'")
	}
	return nil
}

func (a *Analyzer) popWhile(tok *lexer.Token) error {
	a.whileDepth--
	return nil
}

func (a *Analyzer) pushSwitch(tok *lexer.Token) error {
	a.switchDepth++
	return nil
}

func (a *Analyzer) checkBreak(tok *lexer.Token) error {
	if a.whileDepth <= 0 && a.switchDepth <= 0 {
		a.semanticError(tok.Row, "No 'while' or 'switch' found for 'break'.")
	}
	return nil
}

func (a *Analyzer) popSwitch(tok *lexer.Token) error {
	a.switchDepth--
	return nil
}

func (a *Analyzer) saveTypeCheck(tok *lexer.Token) error {
	if tok.Kind != lexer.KindID {
		a.push(symtab.TypeInt)
		return nil
	}
	row, err := a.row(tok)
	if err != nil {
		a.push(symtab.TypeUnset)
		return err
	}
	a.push(row.Type)
	return nil
}

func (a *Analyzer) indexArray(tok *lexer.Token) error {
	if len(a.types) == 0 {
		return fmt.Errorf("type stack underflow")
	}
	a.types[len(a.types)-1] = symtab.TypeInt
	return nil
}

func (a *Analyzer) indexArrayPop(tok *lexer.Token) error {
	a.pop()
	return nil
}

// typeCheck combines the types of two operands. An erroneous operand makes the result erroneous without a further
// diagnostic.
func (a *Analyzer) typeCheck(tok *lexer.Token) error {
	tb := a.pop()
	ta := a.pop()
	switch {
	case ta == symtab.TypeUnset || tb == symtab.TypeUnset:
		a.push(symtab.TypeUnset)
	case ta == symtab.TypeArray:
		a.semanticError(tok.Row, fmt.Sprintf("Type mismatch in operands, Got '%v' instead of '%v'.", ta, symtab.TypeInt))
		a.push(symtab.TypeUnset)
	case ta != tb:
		a.semanticError(tok.Row, fmt.Sprintf("Type mismatch in operands, Got '%v' instead of '%v'.", tb, ta))
		a.push(symtab.TypeUnset)
	default:
		a.push(ta)
	}
	return nil
}

func (a *Analyzer) popType(tok *lexer.Token) error {
	a.pop()
	return nil
}

func (a *Analyzer) push(t symtab.Type) {
	a.types = append(a.types, t)
}

// pop returns TypeUnset on underflow, which is tolerated everywhere.
func (a *Analyzer) pop() symtab.Type {
	if len(a.types) == 0 {
		return symtab.TypeUnset
	}
	t := a.types[len(a.types)-1]
	a.types = a.types[:len(a.types)-1]
	return t
}
