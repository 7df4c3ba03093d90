package storage

import (
	"fmt"

	"github.com/marsik/chunky/src/bitmap"
)

// ValueSegment is an uncompressed, mutable column segment. Nullable segments
// carry a parallel null mask; non-nullable ones reject null appends.
type ValueSegment[T ColumnValue] struct {
	values   []T
	nulls    *bitmap.Bitmap
	nullable bool
}

// NewValueSegment creates an empty value segment
func NewValueSegment[T ColumnValue](nullable bool) *ValueSegment[T] {
	vs := &ValueSegment[T]{nullable: nullable}
	if nullable {
		vs.nulls = bitmap.New(0)
	}
	return vs
}

// Append pushes a boxed value to the end of the segment. Nulls require a
// nullable segment; non-null values are down-cast to T (inconvertible
// values are fatal).
func (vs *ValueSegment[T]) Append(value Value) {
	if value.IsNull() {
		if !vs.nullable {
			panic("tried to append NULL value into non-nullable value segment")
		}
		var zero T
		vs.values = append(vs.values, zero)
		vs.nulls.Append(true)
		return
	}
	cast, ok := CastTo[T](value)
	if !ok {
		panic(fmt.Sprintf("tried to append inconvertible %v value to value segment", value.Dtype()))
	}
	vs.values = append(vs.values, cast)
	if vs.nullable {
		vs.nulls.Append(false)
	}
}

// IsNull reports whether the row at a given offset is null
func (vs *ValueSegment[T]) IsNull(i ChunkOffset) bool {
	return vs.nullable && vs.nulls.Get(int(i))
}

// At returns the boxed value at a given offset (Null for null rows)
func (vs *ValueSegment[T]) At(i ChunkOffset) Value {
	if vs.IsNull(i) {
		return Null
	}
	return valueOf(vs.values[i])
}

// Get returns the raw value at a given offset, null rows are fatal
func (vs *ValueSegment[T]) Get(i ChunkOffset) T {
	if vs.IsNull(i) {
		panic(fmt.Sprintf("tried to get a NULL value at offset %d from a value segment", i))
	}
	return vs.values[i]
}

// GetTypedValue is the null-safe variant of Get
func (vs *ValueSegment[T]) GetTypedValue(i ChunkOffset) (T, bool) {
	if vs.IsNull(i) {
		var zero T
		return zero, false
	}
	return vs.values[i], true
}

// Values exposes the backing value slice
func (vs *ValueSegment[T]) Values() []T {
	return vs.values
}

// NullValues exposes the null mask, fatal on non-nullable segments
func (vs *ValueSegment[T]) NullValues() *bitmap.Bitmap {
	if !vs.nullable {
		panic("tried to get null values of a non-nullable value segment")
	}
	return vs.nulls
}

// IsNullable reports whether this segment accepts nulls
func (vs *ValueSegment[T]) IsNullable() bool {
	return vs.nullable
}

// Size returns the row count
func (vs *ValueSegment[T]) Size() ChunkOffset {
	return ChunkOffset(len(vs.values))
}

// EstimateMemoryUsage returns size * sizeof(T). The null mask is deliberately
// not part of the estimate.
func (vs *ValueSegment[T]) EstimateMemoryUsage() int {
	return len(vs.values) * sizeOf[T]()
}

// newValueSegmentOf builds an empty value segment of a runtime-resolved dtype
func newValueSegmentOf(dt Dtype, nullable bool) Segment {
	switch dt {
	case DtypeInt:
		return NewValueSegment[int32](nullable)
	case DtypeLong:
		return NewValueSegment[int64](nullable)
	case DtypeFloat:
		return NewValueSegment[float32](nullable)
	case DtypeDouble:
		return NewValueSegment[float64](nullable)
	case DtypeString:
		return NewValueSegment[string](nullable)
	default:
		panic(fmt.Sprintf("unknown column type: %v", dt))
	}
}
