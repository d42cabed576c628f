package symtab

import "fmt"

type Type string

const (
	TypeUnset = Type("")
	TypeInt   = Type("int")
	TypeVoid  = Type("void")
	TypeArray = Type("array")
)

func (t Type) String() string {
	return string(t)
}

type Role string

const (
	RoleNone      = Role("")
	RoleFunction  = Role("function")
	RoleGlobalVar = Role("global_var")
	RoleLocalVar  = Role("local_var")
	RoleParam     = Role("param")
)

func (r Role) String() string {
	return string(r)
}

type LocationKind int

const (
	LocationNone LocationKind = iota
	// LocationStatic is an absolute address; the entry address for a function.
	LocationStatic
	// LocationFrame is an offset from the frame pointer.
	LocationFrame
)

type Location struct {
	Kind  LocationKind
	Value int
}

func StaticLocation(addr int) Location {
	return Location{Kind: LocationStatic, Value: addr}
}

func FrameLocation(offset int) Location {
	return Location{Kind: LocationFrame, Value: offset}
}

func (l Location) String() string {
	switch l.Kind {
	case LocationStatic:
		return fmt.Sprintf("%v", l.Value)
	case LocationFrame:
		return fmt.Sprintf("fp+%v", l.Value)
	}
	return "-"
}

// Frame is the activation record layout of a function. Sizes are in bytes and offsets are relative to the frame pointer.
type Frame struct {
	Size         int
	ArgsSize     int
	ArgsOffset   int
	LocalsSize   int
	LocalsOffset int
	ArraysSize   int
	ArraysOffset int
	TempsSize    int
	TempsOffset  int
}

type Row struct {
	Index    int
	Lexeme   string
	Scope    int
	Type     Type
	Role     Role
	Arity    int
	Params   []Type
	Location Location
	Frame    *Frame
}

// Defined reports whether the declaration of the row has been completed.
func (r *Row) Defined() bool {
	return r.Type != TypeUnset
}

func (r *Row) IsFunction() bool {
	return r.Role == RoleFunction
}

const OutputFunction = "output"

// Table holds declared names. Entering a scope saves the table length and leaving it truncates the table back.
type Table struct {
	rows   []*Row
	scopes []int
}

// NewTable returns a table containing the built-in output function.
func NewTable() *Table {
	t := &Table{}
	out := t.Declare(OutputFunction)
	out.Type = TypeVoid
	out.Role = RoleFunction
	out.Arity = 1
	out.Params = []Type{TypeInt}
	return t
}

// Depth returns the number of live scopes. Zero means the global scope.
func (t *Table) Depth() int {
	return len(t.scopes)
}

func (t *Table) EnterScope() {
	t.scopes = append(t.scopes, len(t.rows))
}

func (t *Table) LeaveScope() error {
	if len(t.scopes) == 0 {
		return fmt.Errorf("no scope to leave")
	}
	top := t.scopes[len(t.scopes)-1]
	t.scopes = t.scopes[:len(t.scopes)-1]
	t.rows = t.rows[:top]
	return nil
}

// Declare appends a row without type in the current scope.
func (t *Table) Declare(lexeme string) *Row {
	row := &Row{
		Index:  len(t.rows),
		Lexeme: lexeme,
		Scope:  len(t.scopes),
	}
	t.rows = append(t.rows, row)
	return row
}

// Lookup returns the most recently declared row having the lexeme.
func (t *Table) Lookup(lexeme string) (*Row, bool) {
	for i := len(t.rows) - 1; i >= 0; i-- {
		if t.rows[i].Lexeme == lexeme {
			return t.rows[i], true
		}
	}
	return nil, false
}

// Resolve looks a lexeme up and declares a fresh row when it is unknown.
func (t *Table) Resolve(lexeme string) *Row {
	if row, ok := t.Lookup(lexeme); ok {
		return row
	}
	return t.Declare(lexeme)
}

func (t *Table) Row(index int) (*Row, bool) {
	if index < 0 || index >= len(t.rows) {
		return nil, false
	}
	return t.rows[index], true
}

func (t *Table) Rows() []*Row {
	return t.rows
}

// ScopeRows returns the rows declared in the innermost scope.
func (t *Table) ScopeRows() []*Row {
	if len(t.scopes) == 0 {
		return t.rows
	}
	return t.rows[t.scopes[len(t.scopes)-1]:]
}

// EnclosingFunction returns the function owning the innermost scope, that is, the row right below the scope.
func (t *Table) EnclosingFunction() (*Row, bool) {
	if len(t.scopes) == 0 {
		return nil, false
	}
	i := t.scopes[len(t.scopes)-1] - 1
	if i < 0 || !t.rows[i].IsFunction() {
		return nil, false
	}
	return t.rows[i], true
}
