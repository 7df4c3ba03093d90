package storage

import (
	"bytes"
	"reflect"
	"testing"
)

func emptyTableWithColumns(names ...string) *Table {
	table := NewTable(8)
	for _, name := range names {
		table.AddColumn(name, "long", false)
	}
	return table
}

func TestCatalogAddGetDrop(t *testing.T) {
	catalog := GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	table := emptyTableWithColumns("a")
	catalog.Add("foo", table)
	if !catalog.Has("foo") {
		t.Fatal("expecting foo to be registered")
	}
	if got := catalog.Get("foo"); got != table {
		t.Fatal("expecting Get to return the registered table")
	}
	catalog.Drop("foo")
	if catalog.Has("foo") {
		t.Fatal("expecting foo to be gone after the drop")
	}
}

func TestCatalogDuplicateAdd(t *testing.T) {
	catalog := GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	catalog.Add("foo", emptyTableWithColumns("a"))
	defer func() {
		if recover() == nil {
			t.Fatal("expecting a duplicate name to panic")
		}
	}()
	catalog.Add("foo", emptyTableWithColumns("b"))
}

func TestCatalogGetMissing(t *testing.T) {
	catalog := GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	defer func() {
		if recover() == nil {
			t.Fatal("expecting a missing name to panic")
		}
	}()
	catalog.Get("nope")
}

func TestCatalogDropMissing(t *testing.T) {
	catalog := GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	defer func() {
		if recover() == nil {
			t.Fatal("expecting a drop of a missing name to panic")
		}
	}()
	catalog.Drop("nope")
}

func TestCatalogNamesSorted(t *testing.T) {
	catalog := GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	for _, name := range []string{"zulu", "alpha", "mike"} {
		catalog.Add(name, emptyTableWithColumns("a"))
	}
	if got := catalog.Names(); !reflect.DeepEqual(got, []string{"alpha", "mike", "zulu"}) {
		t.Errorf("expecting sorted names, got %v", got)
	}
}

func TestCatalogPrint(t *testing.T) {
	catalog := GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	foo := emptyTableWithColumns("a", "b")
	foo.Append([]Value{NewValue(int64(1)), NewValue(int64(2))})
	catalog.Add("foo", foo)
	catalog.Add("bar", emptyTableWithColumns("a"))

	buf := new(bytes.Buffer)
	catalog.Print(buf)
	expected := "(\"bar\", 1 columns, 0 rows, 1 chunks)\n(\"foo\", 2 columns, 1 rows, 1 chunks)\n"
	if buf.String() != expected {
		t.Errorf("unexpected catalog print:\n%v\nexpecting:\n%v", buf.String(), expected)
	}
}

func TestCatalogReset(t *testing.T) {
	catalog := GetCatalog()
	defer catalog.Reset()
	catalog.Reset()

	catalog.Add("foo", emptyTableWithColumns("a"))
	catalog.Reset()
	if catalog.Has("foo") {
		t.Fatal("expecting the reset to clear all bindings")
	}
	if len(catalog.Names()) != 0 {
		t.Fatal("expecting no names after a reset")
	}
}
