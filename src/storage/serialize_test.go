package storage

import (
	"bytes"
	"testing"
)

func roundtripSegment(t *testing.T, segment Segment, dt Dtype) Segment {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := SerializeSegment(buf, segment); err != nil {
		t.Fatal(err)
	}
	got, err := DeserializeSegment(buf, dt)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func assertSegmentsEqual(t *testing.T, expected, got Segment) {
	t.Helper()
	if expected.Size() != got.Size() {
		t.Fatalf("expecting %d rows, got %d", expected.Size(), got.Size())
	}
	for i := ChunkOffset(0); i < expected.Size(); i++ {
		want, have := expected.At(i), got.At(i)
		if want.IsNull() != have.IsNull() {
			t.Fatalf("null mismatch at row %d", i)
		}
		if !want.IsNull() && !want.Equal(have) {
			t.Fatalf("expecting %v at row %d, got %v", want, i, have)
		}
	}
}

func TestSerializeValueSegment(t *testing.T) {
	vs := NewValueSegment[int64](true)
	for _, v := range []Value{NewValue(int64(3)), Null, NewValue(int64(-9)), NewValue(int64(3))} {
		vs.Append(v)
	}
	assertSegmentsEqual(t, vs, roundtripSegment(t, vs, DtypeLong))
}

func TestSerializeStringSegment(t *testing.T) {
	vs := NewValueSegment[string](false)
	for _, s := range []string{"foo", "", "bar", "příliš žluťoučký"} {
		vs.Append(NewValue(s))
	}
	assertSegmentsEqual(t, vs, roundtripSegment(t, vs, DtypeString))
}

func TestSerializeEmptySegment(t *testing.T) {
	vs := NewValueSegment[float32](true)
	got := roundtripSegment(t, vs, DtypeFloat)
	if got.Size() != 0 {
		t.Fatalf("expecting an empty segment, got %d rows", got.Size())
	}
	// the round-tripped segment has to stay appendable
	got.(*ValueSegment[float32]).Append(Null)
}

func TestSerializeDictionarySegment(t *testing.T) {
	vs := NewValueSegment[string](true)
	for _, v := range []Value{NewValue("bill"), Null, NewValue("steve"), NewValue("bill")} {
		vs.Append(v)
	}
	ds := NewDictionarySegment[string](vs)
	got := roundtripSegment(t, ds, DtypeString)
	assertSegmentsEqual(t, ds, got)
	gotDict, ok := got.(*DictionarySegment[string])
	if !ok {
		t.Fatalf("expecting a dictionary segment back, got %T", got)
	}
	if gotDict.UniqueValuesCount() != 2 {
		t.Errorf("expecting 2 unique values, got %d", gotDict.UniqueValuesCount())
	}
	if gotDict.AttributeVector().Width() != ds.AttributeVector().Width() {
		t.Error("expecting the attribute vector width to survive the round trip")
	}
}

func TestSerializeReferenceSegmentFails(t *testing.T) {
	source := NewTable(4)
	source.AddColumn("a", "int", false)
	rs := NewReferenceSegment(source, 0, &PosList{})
	if err := SerializeSegment(new(bytes.Buffer), rs); err == nil {
		t.Fatal("expecting reference segments to refuse serialisation")
	}
}
