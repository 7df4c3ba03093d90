package storage

import "fmt"

// Chunk is a horizontal partition of a table - one segment per column, all
// sharing a row count.
type Chunk struct {
	segments []Segment
}

// NewChunk creates an empty chunk
func NewChunk() *Chunk {
	return &Chunk{}
}

// valueAppender is satisfied by value segments only; dictionary and reference
// segments reject row appends by not implementing it.
type valueAppender interface {
	Append(Value)
}

// AddSegment appends a segment as the next column. Only permitted while the
// owning table still considers this chunk mutable.
func (c *Chunk) AddSegment(segment Segment) {
	c.segments = append(c.segments, segment)
}

// Append adds a full row to this chunk. The row's arity has to match the
// column count and every segment has to be a mutable value segment.
func (c *Chunk) Append(values []Value) {
	if len(values) != len(c.segments) {
		panic(fmt.Sprintf("tried to append a row with %d values to a chunk with %d columns", len(values), len(c.segments)))
	}
	for i, segment := range c.segments {
		appender, ok := segment.(valueAppender)
		if !ok {
			panic("tried to append a row to a chunk whose segments are not mutable value segments")
		}
		appender.Append(values[i])
	}
}

// GetSegment returns the segment at a given column
func (c *Chunk) GetSegment(columnID ColumnID) Segment {
	return c.segments[columnID]
}

// ColumnCount returns the number of segments
func (c *Chunk) ColumnCount() int {
	return len(c.segments)
}

// Size returns the row count (all segments share it)
func (c *Chunk) Size() ChunkOffset {
	if len(c.segments) == 0 {
		return 0
	}
	return c.segments[0].Size()
}
