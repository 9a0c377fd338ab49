package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// csvHeader is the artifact column set: the five data fields followed by the
// three provenance flags.
var csvHeader = []string{
	"date", "description", "amount", "type", "running_balance",
	"balance_mismatch", "type_corrected", "invalid_structure",
}

// WriteCSV renders the reconciled rows as the downloadable CSV artifact.
// Null fields render as empty cells, booleans as true/false.
func WriteCSV(rows []Row) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		record := []string{
			r.FieldText("date"),
			r.FieldText("description"),
			r.FieldText("amount"),
			r.FieldText("type"),
			r.FieldText("running_balance"),
			strconv.FormatBool(r.BalanceMismatch),
			strconv.FormatBool(r.TypeCorrected),
			strconv.FormatBool(r.InvalidStructure),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
