package storage

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Catalog is the process-wide registry of named tables. Mutations are
// serialised by a mutex, but callers coordinating drops with readers are on
// their own.
type Catalog struct {
	mu     sync.Mutex
	tables map[string]*Table
}

var defaultCatalog = &Catalog{tables: make(map[string]*Table)}

// GetCatalog returns the process-wide catalog instance
func GetCatalog() *Catalog {
	return defaultCatalog
}

// Add registers a table under a unique name, fatal if the name exists
func (c *Catalog) Add(name string, table *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[name]; ok {
		panic(fmt.Sprintf("tried to add a table with an existing name: %v", name))
	}
	c.tables[name] = table
}

// Get returns the table registered under a name, fatal if absent
func (c *Catalog) Get(name string) *Table {
	c.mu.Lock()
	defer c.mu.Unlock()
	table, ok := c.tables[name]
	if !ok {
		panic(fmt.Sprintf("tried to get a non-existent table: %v", name))
	}
	return table
}

// Drop removes a table binding, fatal if absent
func (c *Catalog) Drop(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.tables[name]; !ok {
		panic(fmt.Sprintf("tried to drop a non-existent table: %v", name))
	}
	delete(c.tables, name)
}

// Has reports whether a name is bound
func (c *Catalog) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.tables[name]
	return ok
}

// Names returns a sorted copy of all registered table names
func (c *Catalog) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears all bindings. Tests rely on this for isolation.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*Table)
}

// Print emits one line per table, in name order
func (c *Catalog) Print(w io.Writer) {
	for _, name := range c.Names() {
		table := c.Get(name)
		fmt.Fprintf(w, "(%q, %d columns, %d rows, %d chunks)\n",
			name, table.ColumnCount(), table.RowCount(), table.ChunkCount())
	}
}
