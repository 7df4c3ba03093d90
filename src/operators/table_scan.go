package operators

import (
	"fmt"

	"github.com/marsik/chunky/src/storage"
)

// ScanType is the comparison a table scan applies to its scan column
type ScanType uint8

const (
	OpEquals ScanType = iota
	OpNotEquals
	OpLessThan
	OpLessThanEquals
	OpGreaterThan
	OpGreaterThanEquals
)

func (st ScanType) String() string {
	return []string{"=", "!=", "<", "<=", ">", ">="}[st]
}

// ParseScanType resolves a comparison operator from its textual form
func ParseScanType(s string) (ScanType, error) {
	switch s {
	case "=", "==":
		return OpEquals, nil
	case "!=", "<>":
		return OpNotEquals, nil
	case "<":
		return OpLessThan, nil
	case "<=":
		return OpLessThanEquals, nil
	case ">":
		return OpGreaterThan, nil
	case ">=":
		return OpGreaterThanEquals, nil
	default:
		return 0, fmt.Errorf("unexpected scan operator: %v", s)
	}
}

// TableScan filters one column of its input against a search value and emits
// a table of reference segments over the matching positions. All three
// segment encodings are scanned in terms of their physical layout: value
// segments compare raw values, dictionary segments compare codes against a
// bound interval, reference segments resolve and compare row by row.
type TableScan struct {
	abstractOperator
	columnID    storage.ColumnID
	scanType    ScanType
	searchValue storage.Value
}

// NewTableScan creates a scan over one upstream operator's output
func NewTableScan(in Operator, columnID storage.ColumnID, scanType ScanType, searchValue storage.Value) *TableScan {
	ts := &TableScan{columnID: columnID, scanType: scanType, searchValue: searchValue}
	ts.left = in
	return ts
}

// ColumnID returns the scanned column
func (ts *TableScan) ColumnID() storage.ColumnID {
	return ts.columnID
}

// ScanType returns the comparison operator
func (ts *TableScan) ScanType() ScanType {
	return ts.scanType
}

// SearchValue returns the boxed search value
func (ts *TableScan) SearchValue() storage.Value {
	return ts.searchValue
}

// Execute runs the scan, fatal on a second call
func (ts *TableScan) Execute() {
	ts.run(ts.onExecute)
}

func (ts *TableScan) onExecute() *storage.Table {
	input := ts.leftInputTable()

	posList := &storage.PosList{}
	var referencedTable *storage.Table
	switch input.ColumnType(ts.columnID) {
	case storage.DtypeInt:
		referencedTable = scanColumn[int32](ts, input, posList)
	case storage.DtypeLong:
		referencedTable = scanColumn[int64](ts, input, posList)
	case storage.DtypeFloat:
		referencedTable = scanColumn[float32](ts, input, posList)
	case storage.DtypeDouble:
		referencedTable = scanColumn[float64](ts, input, posList)
	case storage.DtypeString:
		referencedTable = scanColumn[string](ts, input, posList)
	default:
		panic(fmt.Sprintf("cannot scan a column of type %v", input.ColumnType(ts.columnID)))
	}

	out := storage.NewChunk()
	for columnID := 0; columnID < input.ColumnCount(); columnID++ {
		out.AddSegment(storage.NewReferenceSegment(referencedTable, storage.ColumnID(columnID), posList))
	}
	return storage.NewReferenceTable(input, out)
}

// scanColumn walks every chunk's segment of the scan column and collects
// matching positions. It returns the table the output should reference -
// the input itself, or the origin table when the input was itself a scan
// output (so that chained scans keep the reference depth at one).
func scanColumn[T storage.ColumnValue](ts *TableScan, input *storage.Table, posList *storage.PosList) *storage.Table {
	// a null search value matches nothing, but every chunk still gets
	// visited so that the reference-segment invariant holds for all scans
	searchIsNull := ts.searchValue.IsNull()
	var searchValue T
	if !searchIsNull {
		searchValue = storage.MustCast[T](ts.searchValue)
	}

	referencedTable := input
	referenceSegments := 0
	for chunkID := 0; chunkID < input.ChunkCount(); chunkID++ {
		segment := input.GetChunk(storage.ChunkID(chunkID)).GetSegment(ts.columnID)
		switch s := segment.(type) {
		case *storage.ValueSegment[T]:
			if !searchIsNull {
				scanValueSegment(ts, storage.ChunkID(chunkID), s, searchValue, posList)
			}
		case *storage.DictionarySegment[T]:
			if !searchIsNull {
				scanDictionarySegment(ts, storage.ChunkID(chunkID), s, searchValue, posList)
			}
		case *storage.ReferenceSegment:
			referenceSegments++
			referencedTable = s.ReferencedTable()
			if !searchIsNull {
				scanReferenceSegment(ts, s, searchValue, posList)
			}
		default:
			panic("segment has to be a value, dictionary or reference segment")
		}
	}
	if referenceSegments > 1 || (referenceSegments == 1 && input.ChunkCount() != 1) {
		panic("tried to scan an input with reference segments outside the single-chunk case")
	}
	return referencedTable
}

func scanValueSegment[T storage.ColumnValue](ts *TableScan, chunkID storage.ChunkID, segment *storage.ValueSegment[T], searchValue T, posList *storage.PosList) {
	values := segment.Values()
	for offset := range values {
		if segment.IsNull(storage.ChunkOffset(offset)) {
			continue
		}
		if matchesScanType(ts.scanType, values[offset], searchValue) {
			*posList = append(*posList, storage.RowID{ChunkID: chunkID, ChunkOffset: storage.ChunkOffset(offset)})
		}
	}
}

// scanDictionarySegment compares codes against the half-open interval
// [lower, upper) of the search value. The interval is empty iff the search
// value is absent from the dictionary; the encoding preserves ordering even
// then, since absent values fall into the gap between neighbouring codes.
func scanDictionarySegment[T storage.ColumnValue](ts *TableScan, chunkID storage.ChunkID, segment *storage.DictionarySegment[T], searchValue T, posList *storage.PosList) {
	lower := segment.LowerBound(searchValue)
	upper := segment.UpperBound(searchValue)
	av := segment.AttributeVector()
	nullable := segment.IsNullable()
	nullValueID := segment.NullValueID()

	size := av.Size()
	for offset := storage.ChunkOffset(0); offset < size; offset++ {
		code := av.Get(offset)
		// null rows match no operator, not even !=
		if nullable && code == nullValueID {
			continue
		}
		if matchesCodeInterval(ts.scanType, code, lower, upper) {
			*posList = append(*posList, storage.RowID{ChunkID: chunkID, ChunkOffset: offset})
		}
	}
}

func scanReferenceSegment[T storage.ColumnValue](ts *TableScan, segment *storage.ReferenceSegment, searchValue T, posList *storage.PosList) {
	for _, rowID := range *segment.PosList() {
		if rowID.IsNull() {
			continue
		}
		value := segment.GetByRowID(rowID)
		if value.IsNull() {
			continue
		}
		if matchesScanType(ts.scanType, storage.MustCast[T](value), searchValue) {
			*posList = append(*posList, rowID)
		}
	}
}

func matchesScanType[T storage.ColumnValue](scanType ScanType, value, searchValue T) bool {
	switch scanType {
	case OpEquals:
		return value == searchValue
	case OpNotEquals:
		return value != searchValue
	case OpLessThan:
		return value < searchValue
	case OpLessThanEquals:
		return value <= searchValue
	case OpGreaterThan:
		return value > searchValue
	case OpGreaterThanEquals:
		return value >= searchValue
	default:
		panic(fmt.Sprintf("unknown scan operator: %d", scanType))
	}
}

func matchesCodeInterval(scanType ScanType, code, lower, upper storage.ValueID) bool {
	switch scanType {
	case OpEquals:
		return code == lower && lower < upper
	case OpNotEquals:
		return !(code == lower && lower < upper)
	case OpLessThan:
		return code < lower
	case OpLessThanEquals:
		return code < upper
	case OpGreaterThan:
		return code >= upper
	case OpGreaterThanEquals:
		return code >= lower
	default:
		panic(fmt.Sprintf("unknown scan operator: %d", scanType))
	}
}
