package codegen

import (
	"fmt"

	"github.com/Hyper5phere/simple-c-compiler/tac"
)

// Reservation is a run of placeholder slots kept for instructions generated later.
type Reservation struct {
	Start int
	Len   int
}

// ProgramBlock is the instruction buffer. Instructions are written at a cursor which normally sits at the end of the
// block; Materialize moves it into a reservation temporarily.
type ProgramBlock struct {
	insts  tac.Program
	cursor int

	// end bounds the cursor while a reservation is materialized; -1 otherwise.
	end int
}

func NewProgramBlock() *ProgramBlock {
	return &ProgramBlock{
		end: -1,
	}
}

// PC returns the index the next instruction will be written at.
func (b *ProgramBlock) PC() int {
	return b.cursor
}

func (b *ProgramBlock) Len() int {
	return len(b.insts)
}

func (b *ProgramBlock) Emit(inst *tac.Instruction) int {
	idx := b.cursor
	b.cursor++
	if b.end >= 0 && idx >= b.end {
		// Overflowing instructions are dropped; Materialize reports the count.
		return idx
	}
	if idx == len(b.insts) {
		b.insts = append(b.insts, inst)
	} else {
		b.insts[idx] = inst
	}
	return idx
}

func (b *ProgramBlock) Reserve(n int) Reservation {
	r := Reservation{
		Start: b.cursor,
		Len:   n,
	}
	for i := 0; i < n; i++ {
		b.Emit(tac.NewPlaceholder())
	}
	return r
}

// Set backpatches the instruction at an index.
func (b *ProgramBlock) Set(idx int, inst *tac.Instruction) error {
	if idx < 0 || idx >= len(b.insts) {
		return fmt.Errorf("instruction index out of range: %v", idx)
	}
	if !b.insts[idx].IsPlaceholder() {
		return fmt.Errorf("instruction %v is not a placeholder: %v", idx, b.insts[idx])
	}
	b.insts[idx] = inst
	return nil
}

// Materialize runs gen with the cursor at the start of a reservation and restores the cursor afterwards. gen must
// fill the reservation exactly.
func (b *ProgramBlock) Materialize(r Reservation, gen func() error) error {
	if b.end >= 0 {
		return fmt.Errorf("reservations cannot be materialized recursively")
	}
	saved := b.cursor
	b.cursor = r.Start
	b.end = r.Start + r.Len
	defer func() {
		b.cursor = saved
		b.end = -1
	}()

	err := gen()
	if err != nil {
		return err
	}
	if n := b.cursor - r.Start; n != r.Len {
		return fmt.Errorf("a reservation of %v slots at %v received %v instructions", r.Len, r.Start, n)
	}
	return nil
}

func (b *ProgramBlock) Program() tac.Program {
	return b.insts
}
