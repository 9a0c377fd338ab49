package ledger

// diffFields are the row fields compared by the feedback diff, in column
// order. Provenance flags are engine output, not user-editable data, and
// are excluded.
var diffFields = []string{"date", "description", "amount", "type", "running_balance"}

// CellChange records one field edit at a row position.
type CellChange struct {
	RowIndex int    `json:"row_index"`
	Field    string `json:"field"`
	Old      string `json:"old"`
	New      string `json:"new"`
}

// DiffAnalysis summarizes how a user's corrected rows differ from the rows
// the model originally produced.
type DiffAnalysis struct {
	RowsAdded         int            `json:"rows_added"`
	RowsDeleted       int            `json:"rows_deleted"`
	RowsModified      int            `json:"rows_modified"`
	CellChanges       []CellChange   `json:"cell_changes"`
	FieldChangeCounts map[string]int `json:"field_change_counts"`
}

// Diff compares corrected rows against the original extraction, position by
// position. Matching is strictly positional: a reordered row shows up as
// cell changes, not as a move. Comparison uses each field's textual form
// with null rendered as the empty string.
func Diff(original, corrected []Row) DiffAnalysis {
	analysis := DiffAnalysis{
		FieldChangeCounts: map[string]int{},
	}

	if len(corrected) > len(original) {
		analysis.RowsAdded = len(corrected) - len(original)
	}
	if len(original) > len(corrected) {
		analysis.RowsDeleted = len(original) - len(corrected)
	}

	n := min(len(original), len(corrected))
	for i := 0; i < n; i++ {
		modified := false
		for _, field := range diffFields {
			oldVal := original[i].FieldText(field)
			newVal := corrected[i].FieldText(field)
			if oldVal == newVal {
				continue
			}
			modified = true
			analysis.CellChanges = append(analysis.CellChanges, CellChange{
				RowIndex: i,
				Field:    field,
				Old:      oldVal,
				New:      newVal,
			})
			analysis.FieldChangeCounts[field]++
		}
		if modified {
			analysis.RowsModified++
		}
	}

	return analysis
}
