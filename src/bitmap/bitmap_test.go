package bitmap

import (
	"bytes"
	"reflect"
	"testing"
)

func maskOf(bits ...bool) *Bitmap {
	bm := New(0)
	for _, b := range bits {
		bm.Append(b)
	}
	return bm
}

func TestAppendAndGet(t *testing.T) {
	bm := maskOf(true, false, true, false)
	if bm.Len() != 4 {
		t.Fatalf("expecting 4 rows, got %d", bm.Len())
	}
	expected := []bool{true, false, true, false}
	for j, want := range expected {
		if got := bm.Get(j); got != want {
			t.Errorf("expecting bit %d to be %v, got %v", j, want, got)
		}
	}
}

func TestNewStartsAllValid(t *testing.T) {
	bm := New(100)
	if bm.Len() != 100 {
		t.Fatalf("expecting 100 rows, got %d", bm.Len())
	}
	for j := 0; j < 100; j++ {
		if bm.Get(j) {
			t.Fatalf("expecting row %d to start non-null", j)
		}
	}
	if bm.Count() != 0 {
		t.Errorf("expecting no nulls, got %d", bm.Count())
	}
}

func TestAppendAcrossWordBoundary(t *testing.T) {
	bm := New(0)
	for j := 0; j < 130; j++ {
		bm.Append(j%64 == 63)
	}
	if bm.Len() != 130 {
		t.Fatalf("expecting 130 rows, got %d", bm.Len())
	}
	if !bm.Get(63) || !bm.Get(127) || bm.Get(128) {
		t.Error("unexpected bits around the word boundaries")
	}
	if bm.Count() != 2 {
		t.Errorf("expecting 2 nulls, got %d", bm.Count())
	}
}

func TestAppendAfterNew(t *testing.T) {
	bm := New(3)
	bm.Append(true)
	if bm.Len() != 4 {
		t.Fatalf("expecting 4 rows, got %d", bm.Len())
	}
	if bm.Get(2) || !bm.Get(3) {
		t.Error("expecting only the appended row to be null")
	}
}

func TestGetOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expecting a read past the mask's length to panic")
		}
	}()
	maskOf(true, false).Get(2)
}

func TestCounts(t *testing.T) {
	tests := [][]bool{
		{},
		{true},
		{false},
		{true, false, true},
		append(make([]bool, 64), true),
	}
	for _, bits := range tests {
		expected := 0
		for _, b := range bits {
			if b {
				expected++
			}
		}
		if got := maskOf(bits...).Count(); got != expected {
			t.Errorf("expecting %v to count %d, got %d", bits, expected, got)
		}
	}
}

func TestSerialisationRoundtrip(t *testing.T) {
	tests := [][]bool{
		{true},
		{true, false, true},
		make([]bool, 64),
		append(make([]bool, 64), true),
	}
	for _, bits := range tests {
		bm := maskOf(bits...)
		buf := new(bytes.Buffer)
		if err := Serialize(buf, bm); err != nil {
			t.Fatal(err)
		}
		got, err := Deserialize(buf)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(bm, got) {
			t.Errorf("mask for %v did not survive the round trip", bits)
		}
	}
}

func TestSerialisationOfNil(t *testing.T) {
	for _, bm := range []*Bitmap{nil, New(0)} {
		buf := new(bytes.Buffer)
		if err := Serialize(buf, bm); err != nil {
			t.Fatal(err)
		}
		got, err := Deserialize(buf)
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Errorf("expecting a nil mask back, got %v", got)
		}
	}
}

func TestDeserialiseTruncated(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := Serialize(buf, maskOf(true, false, true)); err != nil {
		t.Fatal(err)
	}
	truncated := buf.Bytes()[:buf.Len()-2]
	if _, err := Deserialize(bytes.NewReader(truncated)); err == nil {
		t.Fatal("expecting a truncated mask to fail the read")
	}
}
