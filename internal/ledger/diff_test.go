package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_SingleCellChange(t *testing.T) {
	original := []Row{row("01/04/2024", "A", f(10), tp(TypeDebit), f(90))}
	corrected := []Row{row("01/04/2024", "A2", f(10), tp(TypeDebit), f(90))}

	analysis := Diff(original, corrected)

	assert.Equal(t, 0, analysis.RowsAdded)
	assert.Equal(t, 0, analysis.RowsDeleted)
	assert.Equal(t, 1, analysis.RowsModified)
	require.Len(t, analysis.CellChanges, 1)
	assert.Equal(t, CellChange{RowIndex: 0, Field: "description", Old: "A", New: "A2"}, analysis.CellChanges[0])
	assert.Equal(t, map[string]int{"description": 1}, analysis.FieldChangeCounts)
}

func TestDiff_Identical(t *testing.T) {
	rows := happyPathRows()

	analysis := Diff(rows, rows)

	assert.Equal(t, 0, analysis.RowsModified)
	assert.Empty(t, analysis.CellChanges)
	assert.Empty(t, analysis.FieldChangeCounts)
}

func TestDiff_AddedAndDeletedRows(t *testing.T) {
	short := happyPathRows()[:2]
	long := happyPathRows()

	added := Diff(short, long)
	assert.Equal(t, 1, added.RowsAdded)
	assert.Equal(t, 0, added.RowsDeleted)

	deleted := Diff(long, short)
	assert.Equal(t, 0, deleted.RowsAdded)
	assert.Equal(t, 1, deleted.RowsDeleted)
}

func TestDiff_NullRendersAsEmptyString(t *testing.T) {
	original := []Row{row("01/04/2024", "OPENING BALANCE", f(0), nil, f(1000))}
	corrected := []Row{row("01/04/2024", "OPENING BALANCE", f(0), tp(TypeCredit), f(1000))}

	analysis := Diff(original, corrected)

	require.Len(t, analysis.CellChanges, 1)
	assert.Equal(t, "", analysis.CellChanges[0].Old)
	assert.Equal(t, "credit", analysis.CellChanges[0].New)
}

func TestDiff_MultipleFieldsOneRow(t *testing.T) {
	original := []Row{row("01/04/2024", "A", f(10), tp(TypeDebit), f(90))}
	corrected := []Row{row("02/04/2024", "B", f(10), tp(TypeDebit), f(90))}

	analysis := Diff(original, corrected)

	assert.Equal(t, 1, analysis.RowsModified, "one row, even with several cell edits")
	assert.Len(t, analysis.CellChanges, 2)
}
