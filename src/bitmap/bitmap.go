// Package bitmap provides the null masks of nullable segments: one bit per
// row, packed into uint64 words. A mask only ever grows in lockstep with its
// segment - one Append per row - so there is no general set-at-position or
// resize surface.
package bitmap

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// Bitmap tracks which rows of a segment are null. The zero value is a valid
// empty mask.
type Bitmap struct {
	words []uint64
	rows  int
}

// New creates a mask for n rows, none of them null. Used when the row count
// is known up front (deserialisation); appended-to masks start at n = 0.
func New(n int) *Bitmap {
	return &Bitmap{words: make([]uint64, (n+63)/64), rows: n}
}

// Append records the next row's null bit
func (bm *Bitmap) Append(null bool) {
	if bm.rows%64 == 0 {
		bm.words = append(bm.words, 0)
	}
	if null {
		bm.words[bm.rows/64] |= 1 << (bm.rows % 64)
	}
	bm.rows++
}

// Get reports whether a given row is null, fatal past the mask's length
func (bm *Bitmap) Get(n int) bool {
	if n < 0 || n >= bm.rows {
		panic(fmt.Sprintf("tried to read bit %d of a null mask with %d rows", n, bm.rows))
	}
	return bm.words[n/64]&(1<<(n%64)) != 0
}

// Len returns the number of rows tracked by this mask
func (bm *Bitmap) Len() int {
	return bm.rows
}

// Count returns the number of null rows
func (bm *Bitmap) Count() int {
	ret := 0
	for _, word := range bm.words {
		ret += bits.OnesCount64(word)
	}
	return ret
}

// Serialize writes a mask as its row count followed by the packed words. Nil
// and empty masks both go out as a bare zero row count and come back as nil.
func Serialize(w io.Writer, bm *Bitmap) error {
	if bm == nil || bm.rows == 0 {
		return binary.Write(w, binary.LittleEndian, uint32(0))
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(bm.rows)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, bm.words)
}

// Deserialize is the inverse of Serialize. The word count is implied by the
// row count, so truncated inputs surface as read errors.
func Deserialize(r io.Reader) (*Bitmap, error) {
	var rows uint32
	if err := binary.Read(r, binary.LittleEndian, &rows); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, nil
	}
	bm := New(int(rows))
	if err := binary.Read(r, binary.LittleEndian, &bm.words); err != nil {
		return nil, err
	}
	return bm, nil
}
