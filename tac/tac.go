package tac

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Opcode string

const (
	OpPlaceholder = Opcode("")
	OpAssign      = Opcode("ASSIGN")
	OpAdd         = Opcode("ADD")
	OpSub         = Opcode("SUB")
	OpMult        = Opcode("MULT")
	OpEq          = Opcode("EQ")
	OpLt          = Opcode("LT")
	OpJpf         = Opcode("JPF")
	OpJp          = Opcode("JP")
	OpPrint       = Opcode("PRINT")
)

var opcodes = map[string]Opcode{
	string(OpAssign): OpAssign,
	string(OpAdd):    OpAdd,
	string(OpSub):    OpSub,
	string(OpMult):   OpMult,
	string(OpEq):     OpEq,
	string(OpLt):     OpLt,
	string(OpJpf):    OpJpf,
	string(OpJp):     OpJp,
	string(OpPrint):  OpPrint,
}

func (op Opcode) String() string {
	return string(op)
}

type Mode int

const (
	ModeNone Mode = iota
	ModeImmediate
	ModeDirect
	ModeIndirect
)

// Operand is an instruction argument. Jump targets are direct operands holding a program index.
type Operand struct {
	Mode  Mode
	Value int
}

func Imm(v int) Operand {
	return Operand{Mode: ModeImmediate, Value: v}
}

func Dir(v int) Operand {
	return Operand{Mode: ModeDirect, Value: v}
}

func Ind(v int) Operand {
	return Operand{Mode: ModeIndirect, Value: v}
}

func (o Operand) IsNone() bool {
	return o.Mode == ModeNone
}

func (o Operand) String() string {
	switch o.Mode {
	case ModeImmediate:
		return fmt.Sprintf("#%v", o.Value)
	case ModeDirect:
		return strconv.Itoa(o.Value)
	case ModeIndirect:
		return fmt.Sprintf("@%v", o.Value)
	}
	return ""
}

func ParseOperand(s string) (Operand, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Operand{}, nil
	}
	mode := ModeDirect
	switch s[0] {
	case '#':
		mode = ModeImmediate
		s = s[1:]
	case '@':
		mode = ModeIndirect
		s = s[1:]
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return Operand{}, fmt.Errorf("invalid operand: %w", err)
	}
	return Operand{Mode: mode, Value: v}, nil
}

type Instruction struct {
	Op   Opcode
	Args [3]Operand
}

func NewInstruction(op Opcode, args ...Operand) *Instruction {
	inst := &Instruction{
		Op: op,
	}
	copy(inst.Args[:], args)
	return inst
}

func NewPlaceholder() *Instruction {
	return &Instruction{
		Op: OpPlaceholder,
	}
}

func (i *Instruction) IsPlaceholder() bool {
	return i.Op == OpPlaceholder
}

func (i *Instruction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%v", i.Op)
	for _, arg := range i.Args {
		fmt.Fprintf(&b, ", %v", arg)
	}
	b.WriteString(")")
	return b.String()
}

func ParseInstruction(s string) (*Instruction, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("an instruction must be enclosed in parentheses: %v", s)
	}
	fields := strings.Split(s[1:len(s)-1], ",")
	if len(fields) != 4 {
		return nil, fmt.Errorf("an instruction must have an opcode and three operands: %v", s)
	}
	op, ok := opcodes[strings.TrimSpace(fields[0])]
	if !ok {
		return nil, fmt.Errorf("unknown opcode: %v", strings.TrimSpace(fields[0]))
	}
	inst := &Instruction{
		Op: op,
	}
	for n, f := range fields[1:] {
		arg, err := ParseOperand(f)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", s, err)
		}
		inst.Args[n] = arg
	}
	return inst, nil
}

type Program []*Instruction

// Write writes the program listing, one "<index>\t<instruction>" line per slot.
func (p Program) Write(w io.Writer) error {
	for n, inst := range p {
		_, err := fmt.Fprintf(w, "%v\t%v\n", n, inst)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p Program) String() string {
	var b strings.Builder
	p.Write(&b)
	return b.String()
}

// ParseProgram reads a listing written by Program.Write. Indexes must be contiguous from zero.
func ParseProgram(r io.Reader) (Program, error) {
	var prog Program
	s := bufio.NewScanner(r)
	row := 0
	for s.Scan() {
		row++
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		idx, body, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%v: a line must be an index and an instruction separated by a tab", row)
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("%v: invalid index: %w", row, err)
		}
		if n != len(prog) {
			return nil, fmt.Errorf("%v: unexpected index; want: %v, got: %v", row, len(prog), n)
		}
		inst, err := ParseInstruction(body)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", row, err)
		}
		prog = append(prog, inst)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}
