package storage

// ReferenceSegment stores its values as a position list into a referenced
// table's column. Reads materialise values on demand by delegating to the
// referenced table, so the segment itself stays cheap.
type ReferenceSegment struct {
	referencedTable    *Table
	referencedColumnID ColumnID
	posList            *PosList
}

// NewReferenceSegment creates a reference segment over a shared position list
func NewReferenceSegment(referencedTable *Table, referencedColumnID ColumnID, posList *PosList) *ReferenceSegment {
	return &ReferenceSegment{
		referencedTable:    referencedTable,
		referencedColumnID: referencedColumnID,
		posList:            posList,
	}
}

// At resolves the position list entry at a given offset
func (rs *ReferenceSegment) At(i ChunkOffset) Value {
	return rs.GetByRowID((*rs.posList)[i])
}

// GetByRowID materialises the value a RowID points at (Null for null row ids)
func (rs *ReferenceSegment) GetByRowID(rowID RowID) Value {
	if rowID.IsNull() {
		return Null
	}
	chunk := rs.referencedTable.GetChunk(rowID.ChunkID)
	return chunk.GetSegment(rs.referencedColumnID).At(rowID.ChunkOffset)
}

// PosList returns the shared position list
func (rs *ReferenceSegment) PosList() *PosList {
	return rs.posList
}

// ReferencedTable returns the table this segment projects rows from
func (rs *ReferenceSegment) ReferencedTable() *Table {
	return rs.referencedTable
}

// ReferencedColumnID returns the projected column
func (rs *ReferenceSegment) ReferencedColumnID() ColumnID {
	return rs.referencedColumnID
}

// Size returns the position list length
func (rs *ReferenceSegment) Size() ChunkOffset {
	return ChunkOffset(len(*rs.posList))
}

// EstimateMemoryUsage returns size * sizeof(RowID)
func (rs *ReferenceSegment) EstimateMemoryUsage() int {
	return len(*rs.posList) * 8
}
