package memory

const (
	WordSize = 4

	StaticBase = 1000
	TempBase   = 5000
	StackBase  = 10008

	// FramePointer holds the address of the access link of the running activation record.
	FramePointer = StaticBase
	// PrintSlot is the operand of every PRINT instruction.
	PrintSlot = StaticBase + WordSize

	staticStart     = StaticBase + 2*WordSize
	paramOffsetBase = WordSize
)

// Allocator issues addresses in the static and temporary spaces and offsets relative to the frame pointer.
type Allocator struct {
	static      int
	temp        int
	paramOffset int
	temps       []int
}

func NewAllocator() *Allocator {
	return &Allocator{
		static:      staticStart,
		temp:        TempBase,
		paramOffset: paramOffsetBase,
	}
}

// Static reserves words consecutive static words and returns the address of the first one.
func (a *Allocator) Static(words int) int {
	if words < 1 {
		words = 1
	}
	addr := a.static
	a.static += words * WordSize
	return addr
}

// Temp reserves a temporary word and counts it against the innermost open function.
func (a *Allocator) Temp() int {
	addr := a.temp
	a.temp += WordSize
	if len(a.temps) > 0 {
		a.temps[len(a.temps)-1]++
	}
	return addr
}

// ParamOffset returns the next frame-relative parameter offset.
func (a *Allocator) ParamOffset() int {
	off := a.paramOffset
	a.paramOffset += WordSize
	return off
}

// BeginFunction opens a temporary counter for a function body.
func (a *Allocator) BeginFunction() {
	a.temps = append(a.temps, 0)
}

// EndFunction closes the innermost temporary counter and returns the size of its temporaries in bytes.
// Parameter offsets start over for the next function.
func (a *Allocator) EndFunction() int {
	a.paramOffset = paramOffsetBase
	if len(a.temps) == 0 {
		return 0
	}
	n := a.temps[len(a.temps)-1]
	a.temps = a.temps[:len(a.temps)-1]
	return n * WordSize
}

// TempsInUse returns the size in bytes of the temporaries counted by the innermost open function so far.
func (a *Allocator) TempsInUse() int {
	if len(a.temps) == 0 {
		return 0
	}
	return a.temps[len(a.temps)-1] * WordSize
}
