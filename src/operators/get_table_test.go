package operators

import (
	"testing"

	"github.com/marsik/chunky/src/storage"
)

func TestGetTable(t *testing.T) {
	catalog := storage.GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	table := storage.NewTable(8)
	table.AddColumn("a", "int", false)
	catalog.Add("people", table)

	op := NewGetTable("people")
	if op.TableName() != "people" {
		t.Errorf("unexpected table name: %v", op.TableName())
	}
	if op.GetOutput() != nil {
		t.Error("expecting no output before execution")
	}
	op.Execute()
	if op.GetOutput() != table {
		t.Error("expecting the registered table as output")
	}
}

func TestGetTableExecutedTwice(t *testing.T) {
	catalog := storage.GetCatalog()
	defer catalog.Reset()
	catalog.Reset()
	catalog.Add("people", storage.NewTable(8))

	op := NewGetTable("people")
	op.Execute()
	defer func() {
		if recover() == nil {
			t.Fatal("expecting a second execution to panic")
		}
	}()
	op.Execute()
}

func TestGetTableUnregistered(t *testing.T) {
	catalog := storage.GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	defer func() {
		if recover() == nil {
			t.Fatal("expecting a lookup of an unregistered table to panic")
		}
	}()
	NewGetTable("nope").Execute()
}
