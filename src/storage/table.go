package storage

import (
	"fmt"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultTargetChunkSize bounds mutable chunks when the caller does not care
const DefaultTargetChunkSize ChunkOffset = 1 << 16

// Table is a column schema plus an ordered sequence of chunks. Rows are
// appended into the last chunk until it reaches the target chunk size; prior
// chunks are immutable. Chunk slots are atomically swappable so that
// compression can replace a chunk under concurrent readers.
type Table struct {
	columnNames    []string
	columnTypes    []Dtype
	columnNullable []bool

	chunks       []*atomic.Pointer[Chunk]
	chunkMutable []bool

	targetChunkSize ChunkOffset
	rowCount        uint64
}

// NewTable creates an empty table with one mutable chunk. A zero
// targetChunkSize picks the default.
func NewTable(targetChunkSize ChunkOffset) *Table {
	if targetChunkSize == 0 {
		targetChunkSize = DefaultTargetChunkSize
	}
	t := &Table{targetChunkSize: targetChunkSize}
	t.createNewChunk()
	return t
}

// NewReferenceTable clones a source table's schema around a single pre-built
// (and thus sealed) chunk - the shape of every scan output.
func NewReferenceTable(source *Table, chunk *Chunk) *Table {
	t := &Table{
		columnNames:     append([]string(nil), source.columnNames...),
		columnTypes:     append([]Dtype(nil), source.columnTypes...),
		columnNullable:  append([]bool(nil), source.columnNullable...),
		targetChunkSize: math.MaxUint32 - 1,
		rowCount:        uint64(chunk.Size()),
	}
	slot := &atomic.Pointer[Chunk]{}
	slot.Store(chunk)
	t.chunks = append(t.chunks, slot)
	t.chunkMutable = append(t.chunkMutable, false)
	return t
}

// AddColumn appends a column to the schema, fatal once rows exist. The type
// name comes from the closed set int/long/float/double/string.
func (t *Table) AddColumn(name string, typeName string, nullable bool) {
	if t.rowCount > 0 {
		panic("tried to add a column to a non-empty table")
	}
	dt, err := DtypeFromString(typeName)
	if err != nil {
		panic(err.Error())
	}
	t.columnNames = append(t.columnNames, name)
	t.columnTypes = append(t.columnTypes, dt)
	t.columnNullable = append(t.columnNullable, nullable)
	t.lastChunk().AddSegment(newValueSegmentOf(dt, nullable))
}

func (t *Table) createNewChunk() {
	chunk := NewChunk()
	for i := range t.columnTypes {
		chunk.AddSegment(newValueSegmentOf(t.columnTypes[i], t.columnNullable[i]))
	}
	slot := &atomic.Pointer[Chunk]{}
	slot.Store(chunk)
	t.chunks = append(t.chunks, slot)
	t.chunkMutable = append(t.chunkMutable, true)
}

// Append adds a row, rolling over to a fresh mutable chunk when the current
// one is sealed or full. The row count is a monotonic counter - deriving it
// from chunk sizes breaks once chunks get compressed.
func (t *Table) Append(values []Value) {
	if !t.chunkMutable[len(t.chunks)-1] || t.lastChunk().Size() == t.targetChunkSize {
		t.createNewChunk()
	}
	t.lastChunk().Append(values)
	t.rowCount++
}

// ColumnCount returns the number of columns in the schema
func (t *Table) ColumnCount() int {
	return len(t.columnNames)
}

// RowCount returns the total number of rows across all chunks
func (t *Table) RowCount() uint64 {
	return t.rowCount
}

// ChunkCount returns the number of chunks
func (t *Table) ChunkCount() int {
	return len(t.chunks)
}

// ColumnName returns the name of a given column
func (t *Table) ColumnName(columnID ColumnID) string {
	return t.columnNames[columnID]
}

// ColumnType returns the element kind of a given column
func (t *Table) ColumnType(columnID ColumnID) Dtype {
	return t.columnTypes[columnID]
}

// ColumnNullable reports whether a given column accepts nulls
func (t *Table) ColumnNullable(columnID ColumnID) bool {
	return t.columnNullable[columnID]
}

// ColumnIDByName resolves a column name, fatal if absent
func (t *Table) ColumnIDByName(name string) ColumnID {
	for i, columnName := range t.columnNames {
		if columnName == name {
			return ColumnID(i)
		}
	}
	panic(fmt.Sprintf("tried to find a non-existent column: %v", name))
}

// Schema returns the column definitions as one list
func (t *Table) Schema() Schema {
	schema := make(Schema, len(t.columnNames))
	for i := range t.columnNames {
		schema[i] = Column{Name: t.columnNames[i], Dtype: t.columnTypes[i], Nullable: t.columnNullable[i]}
	}
	return schema
}

// TargetChunkSize returns the soft upper bound on rows per mutable chunk
func (t *Table) TargetChunkSize() ChunkOffset {
	return t.targetChunkSize
}

// GetChunk returns a snapshot of the chunk at a given slot. Under concurrent
// compression, readers observe either the old or the new chunk, never a torn
// intermediate.
func (t *Table) GetChunk(chunkID ChunkID) *Chunk {
	return t.chunks[chunkID].Load()
}

func (t *Table) lastChunk() *Chunk {
	return t.GetChunk(ChunkID(len(t.chunks) - 1))
}

// AppendSealedChunk installs a pre-built chunk as the next immutable chunk.
// Used when reassembling tables from stripe files. On a still-empty table the
// initial empty mutable chunk gets replaced instead.
func (t *Table) AppendSealedChunk(chunk *Chunk) {
	if chunk.ColumnCount() != t.ColumnCount() {
		panic(fmt.Sprintf("tried to install a chunk with %d columns into a table with %d columns", chunk.ColumnCount(), t.ColumnCount()))
	}
	if t.rowCount == 0 && len(t.chunks) == 1 && t.lastChunk().Size() == 0 {
		t.chunks[0].Store(chunk)
		t.chunkMutable[0] = false
	} else {
		slot := &atomic.Pointer[Chunk]{}
		slot.Store(chunk)
		t.chunks = append(t.chunks, slot)
		t.chunkMutable = append(t.chunkMutable, false)
	}
	t.rowCount += uint64(chunk.Size())
}

// CompressChunk dictionary-encodes a chunk, one worker per column, and
// atomically swaps the new chunk into the slot. Callers have to make sure the
// chunk is no longer being appended to.
func (t *Table) CompressChunk(chunkID ChunkID) {
	chunk := t.GetChunk(chunkID)
	columnCount := chunk.ColumnCount()

	segments := make([]Segment, columnCount)
	var group errgroup.Group
	for columnID := 0; columnID < columnCount; columnID++ {
		columnID := columnID
		group.Go(func() error {
			segments[columnID] = newDictionarySegmentOf(t.columnTypes[columnID], chunk.GetSegment(ColumnID(columnID)))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		panic(fmt.Sprintf("chunk compression failed: %v", err))
	}

	compressed := NewChunk()
	for _, segment := range segments {
		compressed.AddSegment(segment)
	}
	t.chunks[chunkID].Store(compressed)
	t.chunkMutable[chunkID] = false
}
