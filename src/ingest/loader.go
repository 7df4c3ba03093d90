// Package ingest loads CSV data into in-memory tables. Column kinds get
// inferred over the closed type set - whole numbers become longs, other
// numbers doubles, everything else strings; empty cells are nulls and make
// the column nullable.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/marsik/chunky/src/storage"
)

var errNoHeader = errors.New("cannot load a CSV without a header row")

func isNull(s string) bool {
	return s == "" // TODO: add custom null values as options (e.g. NA, N/A etc.)
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func guessDtype(s string) storage.Dtype {
	if _, err := parseInt(s); err == nil {
		return storage.DtypeLong
	}
	if _, err := parseFloat(s); err == nil {
		return storage.DtypeDouble
	}
	return storage.DtypeString
}

// typeGuesser accumulates kind votes for one column over a stream of cells
type typeGuesser struct {
	nullable bool
	nonNull  int
	counts   map[storage.Dtype]int
}

func newTypeGuesser() *typeGuesser {
	return &typeGuesser{counts: make(map[storage.Dtype]int)}
}

func (tg *typeGuesser) addValue(s string) {
	if isNull(s) {
		tg.nullable = true
		return
	}
	tg.nonNull++
	// once a string, always a string
	if tg.counts[storage.DtypeString] > 0 {
		return
	}
	tg.counts[guessDtype(s)]++
}

func (tg *typeGuesser) inferredType() storage.Column {
	col := storage.Column{Nullable: tg.nullable}
	switch {
	case tg.nonNull == 0:
		// all nulls - boxed as nullable strings, there is nothing better to go on
		col.Dtype = storage.DtypeString
		col.Nullable = true
	case tg.counts[storage.DtypeString] > 0:
		col.Dtype = storage.DtypeString
	case tg.counts[storage.DtypeDouble] > 0:
		// mixed longs and doubles settle on the wider kind
		col.Dtype = storage.DtypeDouble
	default:
		col.Dtype = storage.DtypeLong
	}
	return col
}

func cellToValue(s string, dt storage.Dtype) (storage.Value, error) {
	if isNull(s) {
		return storage.Null, nil
	}
	switch dt {
	case storage.DtypeLong:
		val, err := parseInt(s)
		if err != nil {
			return storage.Null, err
		}
		return storage.NewValue(val), nil
	case storage.DtypeDouble:
		val, err := parseFloat(s)
		if err != nil {
			return storage.Null, err
		}
		return storage.NewValue(val), nil
	default:
		return storage.NewValue(s), nil
	}
}

// LoadCSV reads a header plus data rows and builds a table out of them. The
// whole input is read up front - inference needs a full pass before a single
// row can be typed.
func LoadCSV(r io.Reader, targetChunkSize storage.ChunkOffset) (*storage.Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errNoHeader
	}
	header, rows := records[0], records[1:]

	guessers := make([]*typeGuesser, len(header))
	for i := range guessers {
		guessers[i] = newTypeGuesser()
	}
	for _, row := range rows {
		for i, cell := range row {
			guessers[i].addValue(cell)
		}
	}

	table := storage.NewTable(targetChunkSize)
	schema := make(storage.Schema, len(header))
	for i, name := range header {
		schema[i] = guessers[i].inferredType()
		schema[i].Name = name
		table.AddColumn(schema[i].Name, schema[i].Dtype.String(), schema[i].Nullable)
	}

	values := make([]storage.Value, len(header))
	for rowIdx, row := range rows {
		for i, cell := range row {
			val, err := cellToValue(cell, schema[i].Dtype)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %v: %w", rowIdx+1, header[i], err)
			}
			values[i] = val
		}
		table.Append(values)
	}
	return table, nil
}
