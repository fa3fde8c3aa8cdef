package interp

import "sync"

// ---------------------------------------------------------------------------
// Symbol table: interns symbol names so identity comparison works on
// symbols. Each interpreter owns one table.
// ---------------------------------------------------------------------------

// SymbolTable interns symbols by name.
type SymbolTable struct {
	mu   sync.RWMutex
	syms map[string]*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{syms: make(map[string]*Symbol)}
}

// Intern returns the symbol for name, creating it on first use. Two
// calls with the same name return the identical pointer.
func (t *SymbolTable) Intern(name string) *Symbol {
	t.mu.RLock()
	s, ok := t.syms[name]
	t.mu.RUnlock()
	if ok {
		return s
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.syms[name]; ok {
		return s
	}
	s = &Symbol{Name: name}
	t.syms[name] = s
	return s
}

// Len returns the number of interned symbols.
func (t *SymbolTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.syms)
}
