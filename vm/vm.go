package vm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/npillmayer/schuko/tracing"

	"github.com/Hyper5phere/simple-c-compiler/tac"
)

func tracer() tracing.Trace {
	return tracing.Select("cminus.vm")
}

const DefaultStepLimit = 10000000

// ctxCheckInterval is the number of steps between two checks of the context.
const ctxCheckInterval = 1024

var ErrStepLimit = errors.New("step limit exceeded")

// RuntimeError is a failure of an instruction.
type RuntimeError struct {
	PC    int
	Inst  *tac.Instruction
	Cause error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%v: %v: %v", e.PC, e.Inst, e.Cause)
}

func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

type MachineOption func(m *Machine)

// StepLimit bounds the number of instructions a run executes. Zero or less disables the bound.
func StepLimit(n int) MachineOption {
	return func(m *Machine) {
		m.limit = n
	}
}

// Output makes PRINT write its values to w, one per line.
func Output(w io.Writer) MachineOption {
	return func(m *Machine) {
		m.out = w
	}
}

// Machine executes three-address code over a sparse word memory. Unwritten words read as zero.
type Machine struct {
	prog    tac.Program
	mem     map[int]int
	pc      int
	steps   int
	limit   int
	out     io.Writer
	printed []int
}

func NewMachine(prog tac.Program, opts ...MachineOption) *Machine {
	m := &Machine{
		prog:  prog,
		mem:   map[int]int{},
		limit: DefaultStepLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run executes the program from the current program counter until it leaves the program.
func (m *Machine) Run(ctx context.Context) error {
	for m.pc >= 0 && m.pc < len(m.prog) {
		if m.limit > 0 && m.steps >= m.limit {
			return ErrStepLimit
		}
		if m.steps%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		m.steps++

		pc := m.pc
		inst := m.prog[pc]
		err := m.step(inst)
		if err != nil {
			return &RuntimeError{
				PC:    pc,
				Inst:  inst,
				Cause: err,
			}
		}
	}
	tracer().Debugf("halted at %v after %v steps", m.pc, m.steps)
	return nil
}

func (m *Machine) step(inst *tac.Instruction) error {
	a := inst.Args
	next := m.pc + 1
	switch inst.Op {
	case tac.OpAssign:
		v, err := m.value(a[0])
		if err != nil {
			return err
		}
		err = m.store(a[1], v)
		if err != nil {
			return err
		}
	case tac.OpAdd, tac.OpSub, tac.OpMult, tac.OpEq, tac.OpLt:
		x, err := m.value(a[0])
		if err != nil {
			return err
		}
		y, err := m.value(a[1])
		if err != nil {
			return err
		}
		err = m.store(a[2], arith(inst.Op, x, y))
		if err != nil {
			return err
		}
	case tac.OpJpf:
		c, err := m.value(a[0])
		if err != nil {
			return err
		}
		if c == 0 {
			next, err = m.target(a[1])
			if err != nil {
				return err
			}
		}
	case tac.OpJp:
		var err error
		next, err = m.target(a[0])
		if err != nil {
			return err
		}
	case tac.OpPrint:
		v, err := m.value(a[0])
		if err != nil {
			return err
		}
		m.printed = append(m.printed, v)
		if m.out != nil {
			_, err := fmt.Fprintln(m.out, v)
			if err != nil {
				return err
			}
		}
	case tac.OpPlaceholder:
		return fmt.Errorf("an unfilled slot was reached")
	default:
		return fmt.Errorf("unknown opcode: %v", inst.Op)
	}
	m.pc = next
	return nil
}

func arith(op tac.Opcode, x, y int) int {
	switch op {
	case tac.OpAdd:
		return x + y
	case tac.OpSub:
		return x - y
	case tac.OpMult:
		return x * y
	case tac.OpEq:
		if x == y {
			return 1
		}
	case tac.OpLt:
		if x < y {
			return 1
		}
	}
	return 0
}

func (m *Machine) value(o tac.Operand) (int, error) {
	switch o.Mode {
	case tac.ModeImmediate:
		return o.Value, nil
	case tac.ModeDirect:
		return m.mem[o.Value], nil
	case tac.ModeIndirect:
		return m.mem[m.mem[o.Value]], nil
	}
	return 0, fmt.Errorf("a missing operand has no value")
}

func (m *Machine) store(o tac.Operand, v int) error {
	switch o.Mode {
	case tac.ModeDirect:
		m.mem[o.Value] = v
	case tac.ModeIndirect:
		m.mem[m.mem[o.Value]] = v
	default:
		return fmt.Errorf("%v cannot be written", o)
	}
	return nil
}

// target returns a jump destination: a bare program index or the index held by a word.
func (m *Machine) target(o tac.Operand) (int, error) {
	switch o.Mode {
	case tac.ModeDirect:
		return o.Value, nil
	case tac.ModeIndirect:
		return m.mem[o.Value], nil
	}
	return 0, fmt.Errorf("%v is not a jump target", o)
}

// Printed returns the values printed so far.
func (m *Machine) Printed() []int {
	return m.printed
}

// Word returns the word at an address.
func (m *Machine) Word(addr int) int {
	return m.mem[addr]
}

func (m *Machine) Steps() int {
	return m.steps
}

// Run executes a program writing its output to w.
func Run(ctx context.Context, prog tac.Program, w io.Writer, opts ...MachineOption) error {
	return NewMachine(prog, append([]MachineOption{Output(w)}, opts...)...).Run(ctx)
}
