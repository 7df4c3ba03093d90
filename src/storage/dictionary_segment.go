package storage

import (
	"fmt"
	"sort"
)

// DictionarySegment is a read-only column segment: a sorted, deduplicated
// dictionary of the distinct non-null values plus an attribute vector mapping
// each row to a dictionary code. For nullable segments code 0 is reserved for
// NULL and all dictionary codes shift up by one.
type DictionarySegment[T ColumnValue] struct {
	dictionary      []T
	attributeVector AttributeVector
	nullable        bool
}

// NewDictionarySegment compresses a value segment. The source has to be a
// ValueSegment of the same element type and must no longer be appended to.
func NewDictionarySegment[T ColumnValue](segment Segment) *DictionarySegment[T] {
	source, ok := segment.(*ValueSegment[T])
	if !ok {
		panic("tried to create a dictionary segment from a segment that is not a value segment of the same type")
	}
	ds := &DictionarySegment[T]{nullable: source.IsNullable()}

	values := source.Values()
	valueToID := make(map[T]ValueID)
	for i := range values {
		if !source.IsNull(ChunkOffset(i)) {
			valueToID[values[i]] = 0
		}
	}
	ds.dictionary = make([]T, 0, len(valueToID))
	for value := range valueToID {
		ds.dictionary = append(ds.dictionary, value)
	}
	sort.Slice(ds.dictionary, func(i, j int) bool { return ds.dictionary[i] < ds.dictionary[j] })

	// code 0 is reserved for NULL in nullable segments
	nextValueID := ValueID(0)
	if ds.nullable {
		nextValueID = 1
	}
	for _, value := range ds.dictionary {
		valueToID[value] = nextValueID
		nextValueID++
	}

	highest := uint64(0)
	if nextValueID > 0 {
		highest = uint64(nextValueID - 1)
	}
	av := MakeFittingAttributeVector(source.Size(), highest)
	for i := range values {
		if source.IsNull(ChunkOffset(i)) {
			av.Set(ChunkOffset(i), ds.NullValueID())
		} else {
			av.Set(ChunkOffset(i), valueToID[values[i]])
		}
	}
	ds.attributeVector = av
	return ds
}

// At returns the boxed value at a given offset (Null for null rows)
func (ds *DictionarySegment[T]) At(i ChunkOffset) Value {
	if value, ok := ds.GetTypedValue(i); ok {
		return valueOf(value)
	}
	return Null
}

// Get returns the decoded value at a given offset, null rows are fatal
func (ds *DictionarySegment[T]) Get(i ChunkOffset) T {
	value, ok := ds.GetTypedValue(i)
	if !ok {
		panic(fmt.Sprintf("tried to get a NULL value at offset %d from a dictionary segment", i))
	}
	return value
}

// GetTypedValue is the null-safe variant of Get
func (ds *DictionarySegment[T]) GetTypedValue(i ChunkOffset) (T, bool) {
	id := ds.attributeVector.Get(i)
	if id == ds.NullValueID() {
		var zero T
		return zero, false
	}
	return ds.ValueOfValueID(id), true
}

// Dictionary returns the sorted immutable dictionary
func (ds *DictionarySegment[T]) Dictionary() []T {
	return ds.dictionary
}

// AttributeVector returns the code array
func (ds *DictionarySegment[T]) AttributeVector() AttributeVector {
	return ds.attributeVector
}

// IsNullable reports whether the source segment was nullable
func (ds *DictionarySegment[T]) IsNullable() bool {
	return ds.nullable
}

// NullValueID returns the code reserved for NULL - 0 for nullable segments,
// InvalidValueID ("no such code") otherwise
func (ds *DictionarySegment[T]) NullValueID() ValueID {
	if ds.nullable {
		return 0
	}
	return InvalidValueID
}

// ValueOfValueID decodes a dictionary code into its value
func (ds *DictionarySegment[T]) ValueOfValueID(id ValueID) T {
	if ds.nullable {
		if id == ds.NullValueID() {
			panic("tried to get the value for the null value id")
		}
		return ds.dictionary[id-1]
	}
	return ds.dictionary[id]
}

// LowerBound returns the code of the first dictionary entry >= value, or
// InvalidValueID if the search runs past the dictionary's end
func (ds *DictionarySegment[T]) LowerBound(value T) ValueID {
	idx := sort.Search(len(ds.dictionary), func(i int) bool { return ds.dictionary[i] >= value })
	return ds.boundToValueID(idx)
}

// UpperBound returns the code of the first dictionary entry > value, or
// InvalidValueID if the search runs past the dictionary's end
func (ds *DictionarySegment[T]) UpperBound(value T) ValueID {
	idx := sort.Search(len(ds.dictionary), func(i int) bool { return ds.dictionary[i] > value })
	return ds.boundToValueID(idx)
}

func (ds *DictionarySegment[T]) boundToValueID(idx int) ValueID {
	if idx == len(ds.dictionary) {
		return InvalidValueID
	}
	if ds.nullable {
		return ValueID(idx + 1)
	}
	return ValueID(idx)
}

// LowerBoundValue is LowerBound over a boxed search value. A null search
// yields the null value id (fatal on non-nullable segments), a cross-type
// search is fatal.
func (ds *DictionarySegment[T]) LowerBoundValue(value Value) ValueID {
	return ds.boundValue(value, ds.LowerBound)
}

// UpperBoundValue is UpperBound over a boxed search value
func (ds *DictionarySegment[T]) UpperBoundValue(value Value) ValueID {
	return ds.boundValue(value, ds.UpperBound)
}

func (ds *DictionarySegment[T]) boundValue(value Value, bound func(T) ValueID) ValueID {
	if value.IsNull() {
		if !ds.nullable {
			panic("tried a bound search for NULL on a non-nullable dictionary segment")
		}
		return ds.NullValueID()
	}
	return bound(MustCast[T](value))
}

// UniqueValuesCount returns the dictionary length
func (ds *DictionarySegment[T]) UniqueValuesCount() int {
	return len(ds.dictionary)
}

// Size returns the attribute vector length
func (ds *DictionarySegment[T]) Size() ChunkOffset {
	return ds.attributeVector.Size()
}

// EstimateMemoryUsage returns attribute vector bytes plus dictionary bytes
func (ds *DictionarySegment[T]) EstimateMemoryUsage() int {
	attributeVectorMemory := int(ds.attributeVector.Size()) * int(ds.attributeVector.Width())
	dictionaryMemory := len(ds.dictionary) * sizeOf[T]()
	return attributeVectorMemory + dictionaryMemory
}

// newDictionarySegmentOf compresses a value segment of a runtime-resolved dtype
func newDictionarySegmentOf(dt Dtype, segment Segment) Segment {
	switch dt {
	case DtypeInt:
		return NewDictionarySegment[int32](segment)
	case DtypeLong:
		return NewDictionarySegment[int64](segment)
	case DtypeFloat:
		return NewDictionarySegment[float32](segment)
	case DtypeDouble:
		return NewDictionarySegment[float64](segment)
	case DtypeString:
		return NewDictionarySegment[string](segment)
	default:
		panic(fmt.Sprintf("unknown column type: %v", dt))
	}
}
