package operators

import "github.com/marsik/chunky/src/storage"

// Operator is a single-shot producer of one logical table. Execute may be
// called at most once; GetOutput returns nil before execution.
type Operator interface {
	Execute()
	GetOutput() *storage.Table
}

// abstractOperator carries the shared operator state: up to two inputs, the
// produced table and the execute-once flag. Concrete operators embed it and
// route their Execute through run.
type abstractOperator struct {
	left     Operator
	right    Operator
	output   *storage.Table
	executed bool
}

func (op *abstractOperator) run(onExecute func() *storage.Table) {
	if op.executed {
		panic("operators shall not be executed twice")
	}
	op.output = onExecute()
	op.executed = true
}

// GetOutput returns the produced table, or nil before Execute
func (op *abstractOperator) GetOutput() *storage.Table {
	return op.output
}

func (op *abstractOperator) leftInputTable() *storage.Table {
	return op.left.GetOutput()
}

func (op *abstractOperator) rightInputTable() *storage.Table {
	return op.right.GetOutput()
}
