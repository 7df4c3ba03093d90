package operators

import "github.com/marsik/chunky/src/storage"

// GetTable resolves a table name in the process-wide catalog
type GetTable struct {
	abstractOperator
	name string
}

// NewGetTable creates a GetTable operator for a given table name
func NewGetTable(name string) *GetTable {
	return &GetTable{name: name}
}

// TableName returns the name this operator looks up
func (gt *GetTable) TableName() string {
	return gt.name
}

// Execute resolves the name, fatal if it is not registered
func (gt *GetTable) Execute() {
	gt.run(gt.onExecute)
}

func (gt *GetTable) onExecute() *storage.Table {
	return storage.GetCatalog().Get(gt.name)
}
