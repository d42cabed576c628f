package codegen

import (
	"fmt"
	"strconv"

	"github.com/npillmayer/schuko/tracing"

	"github.com/Hyper5phere/simple-c-compiler/driver/lexer"
	"github.com/Hyper5phere/simple-c-compiler/memory"
	"github.com/Hyper5phere/simple-c-compiler/symtab"
	"github.com/Hyper5phere/simple-c-compiler/tac"
)

func tracer() tracing.Trace {
	return tracing.Select("cminus.codegen")
}

// ArgCounter tells how many arguments the innermost call in progress has.
type ArgCounter interface {
	CurrentArgCount() int
}

type operandKind int

const (
	operandAddress operandKind = iota
	operandRow
	operandVoid
	operandLabel
	operandOp
)

func (k operandKind) String() string {
	switch k {
	case operandAddress:
		return "address"
	case operandRow:
		return "row"
	case operandVoid:
		return "void"
	case operandLabel:
		return "label"
	case operandOp:
		return "operator"
	}
	return fmt.Sprintf("operand kind %d", int(k))
}

// operand is a value on the semantic stack of the generator.
type operand struct {
	kind  operandKind
	addr  tac.Operand
	row   *symtab.Row
	label int
	op    tac.Opcode
}

func addressOperand(addr tac.Operand) operand {
	return operand{kind: operandAddress, addr: addr}
}

func rowOperand(row *symtab.Row) operand {
	return operand{kind: operandRow, row: row}
}

func labelOperand(idx int) operand {
	return operand{kind: operandLabel, label: idx}
}

var voidOperand = operand{kind: operandVoid}

// operators maps the spelling of an operator to its opcode.
var operators = map[string]tac.Opcode{
	"+":  tac.OpAdd,
	"-":  tac.OpSub,
	"*":  tac.OpMult,
	"<":  tac.OpLt,
	"==": tac.OpEq,
}

var fp = tac.Dir(memory.FramePointer)

// loop holds the continue target and the pending breaks of a while statement.
type loop struct {
	cont   int
	breaks []int
}

// call is a call sequence waiting for the frame size of its caller.
type call struct {
	res    Reservation
	caller *symtab.Row
	callee *symtab.Row
	args   []operand
	ret    int
}

// Generator runs the routines of #CG_ action symbols and writes three-address code into a program block.
//
// Temporaries are static. A temporary holding a pending operand, such as the left operand of `f(n - 1) + f(n - 2)`,
// does not survive a recursive call that evaluates the same expression.
type Generator struct {
	symTab *symtab.Table
	alloc  *memory.Allocator
	block  *ProgramBlock
	args   ArgCounter
	output *symtab.Row

	routines map[string]func(tok *lexer.Token) error

	stack   []operand
	loops   []*loop
	calls   []*call
	startup Reservation
}

func NewGenerator(symTab *symtab.Table, alloc *memory.Allocator, block *ProgramBlock, args ArgCounter) *Generator {
	output, _ := symTab.Lookup(symtab.OutputFunction)
	g := &Generator{
		symTab: symTab,
		alloc:  alloc,
		block:  block,
		args:   args,
		output: output,
	}
	g.routines = map[string]func(tok *lexer.Token) error{
		"#CG_PUSH_ID":     g.pushID,
		"#CG_PUSH_CONST":  g.pushConst,
		"#CG_PUSH_VOID":   g.pushVoid,
		"#CG_ASSIGN":      g.assign,
		"#CG_SAVE_OP":     g.saveOp,
		"#CG_MULT":        g.mult,
		"#CG_ADDOP":       g.binaryOp,
		"#CG_RELOP":       g.binaryOp,
		"#CG_INDEX_ARRAY": g.indexArray,
		"#CG_CLOSE_STMT":  g.closeStmt,

		"#CG_LABEL":             g.label,
		"#CG_INIT_WHILE_STACKS": g.initWhileStacks,
		"#CG_SAVE":              g.save,
		"#CG_WHILE":             g.whileLoop,
		"#CG_CONT_JP":           g.contJP,
		"#CG_BREAK_JP_SAVE":     g.breakJPSave,
		"#CG_ELSE":              g.elseBranch,
		"#CG_IF_ELSE":           g.ifElse,

		"#CG_CALL_SEQ_CALLER":      g.callSeqCaller,
		"#CG_CALC_STACKFRAME_SIZE": g.calcStackframeSize,
		"#CG_SET_RETVAL":           g.setRetval,
		"#CG_RETURN_SEQ_CALLEE":    g.returnSeqCallee,
	}
	return g
}

func (g *Generator) Act(action string, tok *lexer.Token) error {
	r, ok := g.routines[action]
	if !ok {
		return fmt.Errorf("unknown code generation routine: %v", action)
	}
	tracer().Debugf("%v: %v %v (pc: %v)", tok.Row, action, tok, g.block.PC())
	return r(tok)
}

// InitProgram emits the start-up code: the frame pointer set to the stack base and three slots which FinishProgram
// fills with the call of main.
func (g *Generator) InitProgram() {
	g.emit(tac.OpAssign, tac.Imm(memory.StackBase), fp)
	g.startup = g.block.Reserve(3)
}

// FinishProgram makes main return to the end of the program and jumps to it.
func (g *Generator) FinishProgram() error {
	if len(g.calls) > 0 {
		return fmt.Errorf("%v calls were never materialized", len(g.calls))
	}
	main, ok := g.symTab.Lookup("main")
	if !ok || !main.IsFunction() || main.Location.Kind != symtab.LocationStatic {
		return fmt.Errorf("no entry point")
	}
	end := g.block.Len()
	return g.block.Materialize(g.startup, func() error {
		t := g.alloc.Temp()
		g.emit(tac.OpSub, fp, tac.Imm(memory.WordSize), tac.Dir(t))
		g.emit(tac.OpAssign, tac.Imm(end), tac.Ind(t))
		g.emit(tac.OpJp, tac.Dir(main.Location.Value))
		return nil
	})
}

func (g *Generator) Program() tac.Program {
	return g.block.Program()
}

func (g *Generator) emit(op tac.Opcode, args ...tac.Operand) int {
	return g.block.Emit(tac.NewInstruction(op, args...))
}

func (g *Generator) push(o operand) {
	g.stack = append(g.stack, o)
}

func (g *Generator) pop() (operand, error) {
	if len(g.stack) == 0 {
		return operand{}, fmt.Errorf("semantic stack underflow")
	}
	o := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	return o, nil
}

func (g *Generator) popLabel() (int, error) {
	o, err := g.pop()
	if err != nil {
		return 0, err
	}
	if o.kind != operandLabel {
		return 0, fmt.Errorf("a label was expected but got %v", o.kind)
	}
	return o.label, nil
}

// resolve turns an operand into an instruction argument. A frame-relative row costs one instruction computing its
// address.
func (g *Generator) resolve(o operand) (tac.Operand, error) {
	switch o.kind {
	case operandAddress:
		return o.addr, nil
	case operandRow:
		loc := o.row.Location
		switch loc.Kind {
		case symtab.LocationStatic:
			return tac.Dir(loc.Value), nil
		case symtab.LocationFrame:
			t := g.alloc.Temp()
			g.emit(tac.OpAdd, fp, tac.Imm(loc.Value), tac.Dir(t))
			return tac.Ind(t), nil
		}
		return tac.Operand{}, fmt.Errorf("'%v' has no location", o.row.Lexeme)
	case operandVoid:
		return tac.Operand{}, fmt.Errorf("a void value cannot be an operand")
	}
	return tac.Operand{}, fmt.Errorf("a %v cannot be an operand", o.kind)
}

// arrayBase returns an argument holding the address of the first element of an array. The slot of an array
// parameter holds that address.
func (g *Generator) arrayBase(o operand) (tac.Operand, error) {
	if o.kind != operandRow {
		return tac.Operand{}, fmt.Errorf("an array was expected but got %v", o.kind)
	}
	loc := o.row.Location
	switch loc.Kind {
	case symtab.LocationStatic:
		return tac.Imm(loc.Value), nil
	case symtab.LocationFrame:
		t := g.alloc.Temp()
		g.emit(tac.OpAdd, fp, tac.Imm(loc.Value), tac.Dir(t))
		return tac.Ind(t), nil
	}
	return tac.Operand{}, fmt.Errorf("'%v' has no location", o.row.Lexeme)
}

func (g *Generator) pushID(tok *lexer.Token) error {
	if tok.Kind != lexer.KindID {
		g.push(voidOperand)
		return fmt.Errorf("an identifier was expected: %v", tok)
	}
	row, ok := g.symTab.Row(tok.Symbol)
	if !ok {
		g.push(voidOperand)
		return fmt.Errorf("%v has no row", tok)
	}
	g.push(rowOperand(row))
	return nil
}

func (g *Generator) pushConst(tok *lexer.Token) error {
	n, err := strconv.Atoi(tok.Lexeme)
	if err != nil {
		g.push(voidOperand)
		return fmt.Errorf("invalid constant: %w", err)
	}
	addr := g.alloc.Static(1)
	g.emit(tac.OpAssign, tac.Imm(n), tac.Dir(addr))
	g.push(addressOperand(tac.Dir(addr)))
	return nil
}

func (g *Generator) pushVoid(tok *lexer.Token) error {
	g.push(voidOperand)
	return nil
}

// assign leaves the target on the stack; the statement close pops it.
func (g *Generator) assign(tok *lexer.Token) error {
	rhs, err := g.pop()
	if err != nil {
		return err
	}
	lhs, err := g.pop()
	if err != nil {
		return err
	}
	g.push(lhs)
	a, err := g.resolve(rhs)
	if err != nil {
		return err
	}
	r, err := g.resolve(lhs)
	if err != nil {
		return err
	}
	g.emit(tac.OpAssign, a, r)
	g.stack[len(g.stack)-1] = addressOperand(r)
	return nil
}

func (g *Generator) saveOp(tok *lexer.Token) error {
	op, ok := operators[tok.Lexeme]
	if !ok {
		return fmt.Errorf("unknown operator: %v", tok.Lexeme)
	}
	g.push(operand{kind: operandOp, op: op})
	return nil
}

func (g *Generator) mult(tok *lexer.Token) error {
	b, err := g.pop()
	if err != nil {
		return err
	}
	a, err := g.pop()
	if err != nil {
		return err
	}
	return g.binary(tac.OpMult, a, b)
}

// binaryOp emits an operation whose operator was saved between its operands.
func (g *Generator) binaryOp(tok *lexer.Token) error {
	b, err := g.pop()
	if err != nil {
		return err
	}
	op, err := g.pop()
	if err != nil {
		return err
	}
	a, err := g.pop()
	if err != nil {
		return err
	}
	if op.kind != operandOp {
		g.push(voidOperand)
		return fmt.Errorf("an operator was expected but got %v", op.kind)
	}
	return g.binary(op.op, a, b)
}

func (g *Generator) binary(op tac.Opcode, a, b operand) error {
	r := g.alloc.Temp()
	g.push(addressOperand(tac.Dir(r)))
	a2, err := g.resolve(b)
	if err != nil {
		return err
	}
	a1, err := g.resolve(a)
	if err != nil {
		return err
	}
	g.emit(op, a1, a2, tac.Dir(r))
	return nil
}

func (g *Generator) indexArray(tok *lexer.Token) error {
	idx, err := g.pop()
	if err != nil {
		return err
	}
	arr, err := g.pop()
	if err != nil {
		return err
	}
	t1 := g.alloc.Temp()
	t2 := g.alloc.Temp()
	g.push(addressOperand(tac.Ind(t2)))
	i, err := g.resolve(idx)
	if err != nil {
		return err
	}
	base, err := g.arrayBase(arr)
	if err != nil {
		return err
	}
	g.emit(tac.OpMult, i, tac.Imm(memory.WordSize), tac.Dir(t1))
	g.emit(tac.OpAdd, base, tac.Dir(t1), tac.Dir(t2))
	return nil
}

func (g *Generator) closeStmt(tok *lexer.Token) error {
	_, err := g.pop()
	return err
}

func (g *Generator) label(tok *lexer.Token) error {
	g.push(labelOperand(g.block.PC()))
	return nil
}

func (g *Generator) initWhileStacks(tok *lexer.Token) error {
	g.loops = append(g.loops, &loop{
		cont: g.block.PC(),
	})
	return nil
}

// save resolves the condition on the stack and keeps a slot for the conditional jump.
func (g *Generator) save(tok *lexer.Token) error {
	cond, err := g.pop()
	if err != nil {
		return err
	}
	c, err := g.resolve(cond)
	if err != nil {
		tracer().Errorf("%v: the condition was replaced with zero: %v", tok.Row, err)
		c = tac.Imm(0)
	}
	g.push(addressOperand(c))
	g.push(labelOperand(g.block.PC()))
	g.block.Reserve(1)
	return nil
}

func (g *Generator) whileLoop(tok *lexer.Token) error {
	saved, err := g.popLabel()
	if err != nil {
		return err
	}
	cond, err := g.pop()
	if err != nil {
		return err
	}
	start, err := g.popLabel()
	if err != nil {
		return err
	}
	if len(g.loops) == 0 {
		return fmt.Errorf("no loop to close")
	}
	l := g.loops[len(g.loops)-1]
	g.loops = g.loops[:len(g.loops)-1]

	g.emit(tac.OpJp, tac.Dir(start))
	exit := g.block.PC()
	err = g.block.Set(saved, tac.NewInstruction(tac.OpJpf, cond.addr, tac.Dir(exit)))
	if err != nil {
		return err
	}
	for _, b := range l.breaks {
		err := g.block.Set(b, tac.NewInstruction(tac.OpJp, tac.Dir(exit)))
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) contJP(tok *lexer.Token) error {
	if len(g.loops) == 0 {
		return fmt.Errorf("continue outside of a loop")
	}
	g.emit(tac.OpJp, tac.Dir(g.loops[len(g.loops)-1].cont))
	return nil
}

// breakJPSave keeps a slot for a jump past the innermost loop. A break directly inside a switch has no code.
func (g *Generator) breakJPSave(tok *lexer.Token) error {
	if len(g.loops) == 0 {
		return nil
	}
	l := g.loops[len(g.loops)-1]
	l.breaks = append(l.breaks, g.block.PC())
	g.block.Reserve(1)
	return nil
}

func (g *Generator) elseBranch(tok *lexer.Token) error {
	saved, err := g.popLabel()
	if err != nil {
		return err
	}
	cond, err := g.pop()
	if err != nil {
		return err
	}
	g.push(labelOperand(g.block.PC()))
	g.block.Reserve(1)
	return g.block.Set(saved, tac.NewInstruction(tac.OpJpf, cond.addr, tac.Dir(g.block.PC())))
}

func (g *Generator) ifElse(tok *lexer.Token) error {
	saved, err := g.popLabel()
	if err != nil {
		return err
	}
	return g.block.Set(saved, tac.NewInstruction(tac.OpJp, tac.Dir(g.block.PC())))
}

// callSeqCaller replaces the callee and its arguments on the stack with the result of the call. The frame size of
// the caller is known only once its body has been read, so the sequence is usually deferred into a reservation.
func (g *Generator) callSeqCaller(tok *lexer.Token) error {
	n := g.args.CurrentArgCount()
	if len(g.stack) < n+1 {
		g.stack = nil
		return fmt.Errorf("semantic stack underflow")
	}
	args := make([]operand, n)
	copy(args, g.stack[len(g.stack)-n:])
	f := g.stack[len(g.stack)-n-1]
	g.stack = g.stack[:len(g.stack)-n-1]

	if f.kind != operandRow || !f.row.IsFunction() {
		g.push(addressOperand(tac.Dir(g.alloc.Temp())))
		return fmt.Errorf("a function was expected but got %v", f.kind)
	}
	callee := f.row

	if callee == g.output {
		g.push(voidOperand)
		if n != 1 {
			return fmt.Errorf("%v takes one argument but got %v", callee.Lexeme, n)
		}
		v, err := g.resolve(args[0])
		if err != nil {
			return err
		}
		g.emit(tac.OpAssign, v, tac.Dir(memory.PrintSlot))
		g.emit(tac.OpPrint, tac.Dir(memory.PrintSlot))
		return nil
	}

	ret := g.alloc.Temp()
	if callee.Type == symtab.TypeVoid {
		g.push(voidOperand)
	} else {
		g.push(addressOperand(tac.Dir(ret)))
	}
	if n != callee.Arity || n != len(callee.Params) {
		return fmt.Errorf("'%v' takes %v arguments but got %v", callee.Lexeme, callee.Arity, n)
	}

	caller, ok := g.symTab.EnclosingFunction()
	if !ok {
		return fmt.Errorf("a call outside of a function")
	}
	c := &call{
		caller: caller,
		callee: callee,
		args:   args,
		ret:    ret,
	}
	if caller.Frame != nil {
		return g.callSequence(c)
	}
	c.res = g.block.Reserve(callSequenceLen(c))
	g.calls = append(g.calls, c)
	tracer().Debugf("%v: a call of %v deferred into %v slots at %v", tok.Row, callee.Lexeme, c.res.Len, c.res.Start)
	return nil
}

// callSequenceLen counts the instructions callSequence emits for a call.
func callSequenceLen(c *call) int {
	n := 10 + 2*len(c.args)
	for _, arg := range c.args {
		if arg.kind == operandRow && arg.row.Location.Kind == symtab.LocationFrame {
			n++
		}
	}
	return n
}

func (g *Generator) callSequence(c *call) error {
	frameSize := tac.Imm(c.caller.Frame.Size)
	tNew := tac.Dir(g.alloc.Temp())
	tArgs := tac.Dir(g.alloc.Temp())
	tRA := tac.Dir(g.alloc.Temp())
	tRV := tac.Dir(g.alloc.Temp())

	g.emit(tac.OpAdd, fp, frameSize, tNew)
	g.emit(tac.OpAssign, fp, tac.Ind(tNew.Value))
	g.emit(tac.OpAdd, tNew, tac.Imm(memory.WordSize), tArgs)
	for i, arg := range c.args {
		var v tac.Operand
		var err error
		if c.callee.Params[i] == symtab.TypeArray {
			v, err = g.arrayBase(arg)
		} else {
			v, err = g.resolve(arg)
		}
		if err != nil {
			return fmt.Errorf("argument %v of '%v': %w", i+1, c.callee.Lexeme, err)
		}
		g.emit(tac.OpAssign, v, tac.Ind(tArgs.Value))
		g.emit(tac.OpAdd, tArgs, tac.Imm(memory.WordSize), tArgs)
	}
	g.emit(tac.OpSub, tNew, tac.Imm(memory.WordSize), tRA)
	g.emit(tac.OpAssign, tNew, fp)
	g.emit(tac.OpAssign, tac.Imm(g.block.PC()+2), tac.Ind(tRA.Value))
	g.emit(tac.OpJp, tac.Dir(c.callee.Location.Value))
	// The callee leaves the frame pointer at its own frame.
	g.emit(tac.OpSub, fp, tac.Imm(2*memory.WordSize), tRV)
	g.emit(tac.OpAssign, tac.Ind(tRV.Value), tac.Dir(c.ret))
	g.emit(tac.OpSub, fp, frameSize, fp)
	return nil
}

// calcStackframeSize lays the frame of the function whose body has just been read out and materializes the calls
// the body made.
func (g *Generator) calcStackframeSize(tok *lexer.Token) error {
	fun, ok := g.symTab.EnclosingFunction()
	if !ok {
		return fmt.Errorf("no function to lay out")
	}

	f := &symtab.Frame{}
	for _, row := range g.symTab.ScopeRows() {
		switch row.Role {
		case symtab.RoleParam:
			f.ArgsSize += memory.WordSize
		case symtab.RoleLocalVar:
			if row.Type == symtab.TypeArray {
				f.ArraysSize += row.Arity * memory.WordSize
			} else {
				f.LocalsSize += memory.WordSize
			}
		}
	}
	f.ArgsOffset = memory.WordSize
	f.LocalsOffset = f.ArgsOffset + f.ArgsSize
	f.ArraysOffset = f.LocalsOffset + f.LocalsSize
	f.TempsOffset = f.ArraysOffset + f.ArraysSize
	// Locals, arrays and temporaries live in static memory.
	f.Size = f.ArgsSize + 3*memory.WordSize
	fun.Frame = f

	temps := g.alloc.TempsInUse()
	var firstErr error
	var pending []*call
	for _, c := range g.calls {
		if c.caller != fun {
			pending = append(pending, c)
			continue
		}
		err := g.block.Materialize(c.res, func() error {
			return g.callSequence(c)
		})
		if err != nil {
			tracer().Errorf("%v: a call of %v at %v failed: %v", tok.Row, c.callee.Lexeme, c.res.Start, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	g.calls = pending
	tracer().Debugf("%v: the calls of %v use %v bytes of temporaries", tok.Row, fun.Lexeme, g.alloc.TempsInUse()-temps)

	f.TempsSize = g.alloc.EndFunction()
	tracer().Debugf("%v: frame of %v: %+v", tok.Row, fun.Lexeme, *f)
	return firstErr
}

func (g *Generator) setRetval(tok *lexer.Token) error {
	v, err := g.pop()
	if err != nil {
		return err
	}
	t := g.alloc.Temp()
	g.emit(tac.OpSub, fp, tac.Imm(2*memory.WordSize), tac.Dir(t))
	val := tac.Imm(0)
	if v.kind != operandVoid {
		val, err = g.resolve(v)
		if err != nil {
			return err
		}
	}
	g.emit(tac.OpAssign, val, tac.Ind(t))
	return nil
}

func (g *Generator) returnSeqCallee(tok *lexer.Token) error {
	ra := g.alloc.Temp()
	target := g.alloc.Temp()
	g.emit(tac.OpSub, fp, tac.Imm(memory.WordSize), tac.Dir(ra))
	g.emit(tac.OpAssign, tac.Ind(ra), tac.Dir(target))
	g.emit(tac.OpJp, tac.Ind(target))
	return nil
}
