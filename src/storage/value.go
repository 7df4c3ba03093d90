package storage

import (
	"errors"
	"fmt"
	"unsafe"
)

// Dtype denotes the data type of a column or a boxed value
type Dtype uint8

// individual dtypes defined as a sequence
const (
	DtypeInvalid Dtype = iota
	DtypeNull
	DtypeInt
	DtypeLong
	DtypeFloat
	DtypeDouble
	DtypeString
)

func (dt Dtype) String() string {
	return []string{"invalid", "null", "int", "long", "float", "double", "string"}[dt]
}

// MarshalJSON returns the JSON representation of a dtype (stringified + json string)
// we want Dtypes to be marshaled within Schema correctly
func (dt Dtype) MarshalJSON() ([]byte, error) {
	retval := append([]byte{'"'}, []byte(dt.String())...)
	retval = append(retval, '"')
	return retval, nil
}

// UnmarshalJSON deserialises a given dtype from a JSON value
func (dt *Dtype) UnmarshalJSON(data []byte) error {
	if !(len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"') {
		return errors.New("unexpected string to be unmarshaled into a Dtype")
	}
	parsed, err := DtypeFromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// DtypeFromString resolves a column type name from the closed set
// int/long/float/double/string
func DtypeFromString(s string) (Dtype, error) {
	switch s {
	case "int":
		return DtypeInt, nil
	case "long":
		return DtypeLong, nil
	case "float":
		return DtypeFloat, nil
	case "double":
		return DtypeDouble, nil
	case "string":
		return DtypeString, nil
	default:
		return DtypeInvalid, fmt.Errorf("unexpected type: %v", s)
	}
}

// ColumnValue is the closed set of element types a column can hold
type ColumnValue interface {
	~int32 | ~int64 | ~float32 | ~float64 | ~string
}

// Value is a tagged union carrying either null or exactly one of the five
// element kinds. The zero Value is invalid; use Null or NewValue.
type Value struct {
	dtype Dtype
	data  any
}

// Null is the canonical null instance. Comparing any Value to Null yields
// false in accordance with the collapsed ternary logic; use IsNull to test
// for nullness.
var Null = Value{dtype: DtypeNull}

// NewValue boxes a raw Go value. Plain ints are taken as longs. Anything
// outside the closed type set panics.
func NewValue(data any) Value {
	switch d := data.(type) {
	case int32:
		return Value{dtype: DtypeInt, data: d}
	case int64:
		return Value{dtype: DtypeLong, data: d}
	case int:
		return Value{dtype: DtypeLong, data: int64(d)}
	case float32:
		return Value{dtype: DtypeFloat, data: d}
	case float64:
		return Value{dtype: DtypeDouble, data: d}
	case string:
		return Value{dtype: DtypeString, data: d}
	case nil:
		return Null
	default:
		panic(fmt.Sprintf("cannot box a value of type %T", data))
	}
}

// Dtype returns the tag of this value
func (v Value) Dtype() Dtype {
	return v.dtype
}

// IsNull reports whether the tag is null
func (v Value) IsNull() bool {
	return v.dtype == DtypeNull
}

// Raw returns the boxed payload (nil for null values)
func (v Value) Raw() any {
	return v.data
}

// Equal compares two values: same tag and equal payload. Any comparison
// involving null yields false.
func (v Value) Equal(other Value) bool {
	if v.IsNull() || other.IsNull() {
		return false
	}
	return v.dtype == other.dtype && v.data == other.data
}

// valueOf boxes a typed value back into a Value
func valueOf[T ColumnValue](data T) Value {
	switch d := any(data).(type) {
	case int32:
		return Value{dtype: DtypeInt, data: d}
	case int64:
		return Value{dtype: DtypeLong, data: d}
	case float32:
		return Value{dtype: DtypeFloat, data: d}
	case float64:
		return Value{dtype: DtypeDouble, data: d}
	case string:
		return Value{dtype: DtypeString, data: d}
	default:
		panic(fmt.Sprintf("cannot box a value of type %T", data))
	}
}

// CastTo down-casts a boxed value to T. Numeric kinds convert into one
// another; strings only ever cast to strings. Null and cross-kind casts
// report false.
func CastTo[T ColumnValue](v Value) (T, bool) {
	var out T
	if v.IsNull() {
		return out, false
	}
	switch target := any(&out).(type) {
	case *int32:
		switch d := v.data.(type) {
		case int32:
			*target = d
		case int64:
			*target = int32(d)
		case float32:
			*target = int32(d)
		case float64:
			*target = int32(d)
		default:
			return out, false
		}
	case *int64:
		switch d := v.data.(type) {
		case int32:
			*target = int64(d)
		case int64:
			*target = d
		case float32:
			*target = int64(d)
		case float64:
			*target = int64(d)
		default:
			return out, false
		}
	case *float32:
		switch d := v.data.(type) {
		case int32:
			*target = float32(d)
		case int64:
			*target = float32(d)
		case float32:
			*target = d
		case float64:
			*target = float32(d)
		default:
			return out, false
		}
	case *float64:
		switch d := v.data.(type) {
		case int32:
			*target = float64(d)
		case int64:
			*target = float64(d)
		case float32:
			*target = float64(d)
		case float64:
			*target = d
		default:
			return out, false
		}
	case *string:
		d, ok := v.data.(string)
		if !ok {
			return out, false
		}
		*target = d
	default:
		return out, false
	}
	return out, true
}

// MustCast is CastTo with the fatal contract: inconvertible values panic
func MustCast[T ColumnValue](v Value) T {
	out, ok := CastTo[T](v)
	if !ok {
		panic(fmt.Sprintf("cannot convert %v value %v to the requested type", v.dtype, v.data))
	}
	return out
}

// sizeOf mirrors sizeof(T) for memory estimates
func sizeOf[T ColumnValue]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}
