package microsel

// Stack is the flat memory shared by every scope. Scalars take one cell and
// arrays take a contiguous row-major run of cells.
type Stack struct {
	cells []Value
}

// Len returns the number of cells in use.
func (s *Stack) Len() int { return len(s.cells) }

// Push appends v and returns its address.
func (s *Stack) Push(v Value) int {
	s.cells = append(s.cells, v)
	return len(s.cells) - 1
}

// Grow appends n zero cells and returns the address of the first.
func (s *Stack) Grow(n int) int {
	base := len(s.cells)
	for i := 0; i < n; i++ {
		s.cells = append(s.cells, 0)
	}
	return base
}

// Valid reports whether addr names a live cell.
func (s *Stack) Valid(addr int) bool { return addr >= 0 && addr < len(s.cells) }

// Get reads the cell at addr, which must be valid.
func (s *Stack) Get(addr int) Value { return s.cells[addr] }

// Set writes the cell at addr, which must be valid.
func (s *Stack) Set(addr int, v Value) { s.cells[addr] = v }

// Truncate drops every cell at or above n.
func (s *Stack) Truncate(n int) {
	if n < len(s.cells) {
		s.cells = s.cells[:n]
	}
}

// Cells returns a copy of the live cells.
func (s *Stack) Cells() []Value { return append([]Value(nil), s.cells...) }

// Symbol binds a name to a stack address. For arrays Addr is the first cell.
type Symbol struct {
	Name    string
	Addr    int
	IsArray bool
	Dims    []int
}

// Size is the number of cells the symbol occupies.
func (s Symbol) Size() int {
	n := 1
	for _, d := range s.Dims {
		n *= d
	}
	return n
}

// SymbolTable is an ordered list of bindings. Later entries shadow earlier
// ones with the same name.
type SymbolTable struct {
	syms []Symbol
}

func (t *SymbolTable) Len() int { return len(t.syms) }

// Add appends sym.
func (t *SymbolTable) Add(sym Symbol) { t.syms = append(t.syms, sym) }

// Lookup scans from the most recent entry backward and returns the first
// symbol named name.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	for i := len(t.syms) - 1; i >= 0; i-- {
		if t.syms[i].Name == name {
			return t.syms[i], true
		}
	}
	return Symbol{}, false
}

// Truncate pops every entry at or above n.
func (t *SymbolTable) Truncate(n int) {
	if n < len(t.syms) {
		t.syms = t.syms[:n]
	}
}

// Symbols returns a copy of the table, oldest first.
func (t *SymbolTable) Symbols() []Symbol { return append([]Symbol(nil), t.syms...) }

// scope is a checkpoint of the stack and symbol table sizes.
type scope struct {
	stack, syms int
}
