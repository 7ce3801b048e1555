package graph

// SymbolTable is the repository-wide flat mapping symbol name -> canonical id
// over CLASS, FUNCTION, and METHOD artifacts. Duplicate names across files
// resolve last-write-wins in walk order: deterministic but unscoped, a known
// simplification.
type SymbolTable struct {
	symbols map[string]string
}

// NewSymbolTable creates an empty symbol table
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]string)}
}

// Add registers a symbol; last definition wins
func (t *SymbolTable) Add(name, canonicalID string) {
	t.symbols[name] = canonicalID
}

// Lookup returns the canonical id for a symbol name, "" if absent
func (t *SymbolTable) Lookup(name string) string {
	return t.symbols[name]
}

// Len returns the number of distinct symbol names
func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// BuildSymbolTable indexes all symbol-bearing artifacts of a repo graph
func BuildSymbolTable(g *RepoGraph) *SymbolTable {
	table := NewSymbolTable()
	for _, a := range g.All() {
		if !a.Type.IsSymbol() {
			continue
		}
		if a.Name == "" || a.ID == "" {
			continue
		}
		table.Add(a.Name, a.ID)
	}
	return table
}
