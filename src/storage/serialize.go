package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/marsik/chunky/src/bitmap"
)

// Binary layout of serialised segments, little-endian throughout:
//   byte segment kind, byte nullable flag, then the kind-specific payload.
// Numeric values go out as raw fixed-width slices, strings as a uint32 offset
// slice plus flat UTF-8 bytes.

var errCannotSerialiseSegment = errors.New("segment kind cannot be serialised")
var errMalformedSegment = errors.New("malformed serialised segment")

const (
	segmentKindValue      byte = 1
	segmentKindDictionary byte = 2
)

type serializableSegment interface {
	serializeTo(w io.Writer) error
}

// SerializeSegment writes a segment into a writer. Reference segments are
// scan outputs and do not serialise.
func SerializeSegment(w io.Writer, segment Segment) error {
	s, ok := segment.(serializableSegment)
	if !ok {
		return fmt.Errorf("%w: %T", errCannotSerialiseSegment, segment)
	}
	return s.serializeTo(w)
}

// DeserializeSegment is the inverse of SerializeSegment. The element kind
// comes from the table schema, not the byte stream.
func DeserializeSegment(r io.Reader, dt Dtype) (Segment, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	kind, nullable := header[0], header[1] == 1
	switch dt {
	case DtypeInt:
		return deserializeTyped[int32](r, kind, nullable)
	case DtypeLong:
		return deserializeTyped[int64](r, kind, nullable)
	case DtypeFloat:
		return deserializeTyped[float32](r, kind, nullable)
	case DtypeDouble:
		return deserializeTyped[float64](r, kind, nullable)
	case DtypeString:
		return deserializeTyped[string](r, kind, nullable)
	default:
		return nil, fmt.Errorf("%w: unknown column type %v", errMalformedSegment, dt)
	}
}

func deserializeTyped[T ColumnValue](r io.Reader, kind byte, nullable bool) (Segment, error) {
	switch kind {
	case segmentKindValue:
		return deserializeValueSegment[T](r, nullable)
	case segmentKindDictionary:
		return deserializeDictionarySegment[T](r, nullable)
	default:
		return nil, fmt.Errorf("%w: unknown segment kind %d", errMalformedSegment, kind)
	}
}

func writeHeader(w io.Writer, kind byte, nullable bool) error {
	header := [2]byte{kind, 0}
	if nullable {
		header[1] = 1
	}
	_, err := w.Write(header[:])
	return err
}

func (vs *ValueSegment[T]) serializeTo(w io.Writer) error {
	if err := writeHeader(w, segmentKindValue, vs.nullable); err != nil {
		return err
	}
	if err := bitmap.Serialize(w, vs.nulls); err != nil {
		return err
	}
	return writeValues(w, vs.values)
}

func deserializeValueSegment[T ColumnValue](r io.Reader, nullable bool) (*ValueSegment[T], error) {
	nulls, err := bitmap.Deserialize(r)
	if err != nil {
		return nil, err
	}
	values, err := readValues[T](r)
	if err != nil {
		return nil, err
	}
	if nullable && nulls == nil {
		nulls = bitmap.New(len(values))
	}
	return &ValueSegment[T]{values: values, nulls: nulls, nullable: nullable}, nil
}

func (ds *DictionarySegment[T]) serializeTo(w io.Writer) error {
	if err := writeHeader(w, segmentKindDictionary, ds.nullable); err != nil {
		return err
	}
	if err := writeValues(w, ds.dictionary); err != nil {
		return err
	}
	return serializeAttributeVector(w, ds.attributeVector)
}

func deserializeDictionarySegment[T ColumnValue](r io.Reader, nullable bool) (*DictionarySegment[T], error) {
	dictionary, err := readValues[T](r)
	if err != nil {
		return nil, err
	}
	av, err := deserializeAttributeVector(r)
	if err != nil {
		return nil, err
	}
	return &DictionarySegment[T]{dictionary: dictionary, attributeVector: av, nullable: nullable}, nil
}

func serializeAttributeVector(w io.Writer, av AttributeVector) error {
	if err := binary.Write(w, binary.LittleEndian, uint8(av.Width())); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(av.Size())); err != nil {
		return err
	}
	switch v := av.(type) {
	case *fixedWidthVector[uint8]:
		return binary.Write(w, binary.LittleEndian, v.valueIDs)
	case *fixedWidthVector[uint16]:
		return binary.Write(w, binary.LittleEndian, v.valueIDs)
	case *fixedWidthVector[uint32]:
		return binary.Write(w, binary.LittleEndian, v.valueIDs)
	default:
		return fmt.Errorf("%w: unknown attribute vector %T", errCannotSerialiseSegment, av)
	}
}

func deserializeAttributeVector(r io.Reader) (AttributeVector, error) {
	var width uint8
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return nil, err
	}
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	switch width {
	case 1:
		return readFixedWidthVector[uint8](r, size)
	case 2:
		return readFixedWidthVector[uint16](r, size)
	case 4:
		return readFixedWidthVector[uint32](r, size)
	default:
		return nil, fmt.Errorf("%w: unknown attribute vector width %d", errMalformedSegment, width)
	}
}

func readFixedWidthVector[T uintCode](r io.Reader, size uint32) (*fixedWidthVector[T], error) {
	ids := make([]T, size)
	if err := binary.Read(r, binary.LittleEndian, &ids); err != nil {
		return nil, err
	}
	return &fixedWidthVector[T]{valueIDs: ids}, nil
}

func writeValues[T ColumnValue](w io.Writer, values []T) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(values))); err != nil {
		return err
	}
	if strs, ok := any(values).([]string); ok {
		offsets := make([]uint32, 0, len(strs)+1)
		offsets = append(offsets, 0)
		total := uint32(0)
		for _, s := range strs {
			total += uint32(len(s))
			offsets = append(offsets, total)
		}
		if err := binary.Write(w, binary.LittleEndian, offsets); err != nil {
			return err
		}
		for _, s := range strs {
			if _, err := io.WriteString(w, s); err != nil {
				return err
			}
		}
		return nil
	}
	return binary.Write(w, binary.LittleEndian, values)
}

func readValues[T ColumnValue](r io.Reader) ([]T, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	values := make([]T, count)
	if out, ok := any(values).([]string); ok {
		offsets := make([]uint32, count+1)
		if err := binary.Read(r, binary.LittleEndian, &offsets); err != nil {
			return nil, err
		}
		data := make([]byte, offsets[count])
		if _, err := io.ReadFull(r, data); err != nil {
			return nil, err
		}
		for i := uint32(0); i < count; i++ {
			if offsets[i] > offsets[i+1] || offsets[i+1] > uint32(len(data)) {
				return nil, errMalformedSegment
			}
			out[i] = string(data[offsets[i]:offsets[i+1]])
		}
		return values, nil
	}
	if err := binary.Read(r, binary.LittleEndian, &values); err != nil {
		return nil, err
	}
	return values, nil
}
