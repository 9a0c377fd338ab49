// Package ledger holds the canonical transaction schema and the
// deterministic core of the pipeline: key normalization, running-balance
// reconciliation, correction diffing and CSV rendering.
package ledger

import (
	"strconv"
	"strings"
)

// TxType is the direction of a transaction.
type TxType string

const (
	TypeCredit TxType = "credit"
	TypeDebit  TxType = "debit"
)

// BalanceTolerance is the absolute tolerance used when comparing a row's
// running balance against the balance computed from its predecessor.
// Statements in scope carry two-decimal amounts, so a dime absorbs
// rounding noise without hiding real errors.
const BalanceTolerance = 0.10

// RawRow is one transaction line exactly as the model produced it, keyed by
// whatever column names the issuer's statement uses. Values are strings,
// numbers or null.
type RawRow map[string]any

// Row is the canonical transaction record. Amount and Type are nil only for
// opening-balance rows; RunningBalance is nil only for rows that failed
// normalization or reconciliation structure checks.
type Row struct {
	Date           string   `json:"date"`
	Description    string   `json:"description"`
	Amount         *float64 `json:"amount"`
	Type           *TxType  `json:"type"`
	RunningBalance *float64 `json:"running_balance"`

	BalanceMismatch  bool `json:"balance_mismatch"`
	TypeCorrected    bool `json:"type_corrected"`
	InvalidStructure bool `json:"invalid_structure"`
}

// RowFlag is the compact per-run record of a row that ended up with at least
// one provenance flag set.
type RowFlag struct {
	RowIndex         int  `json:"row_index"`
	BalanceMismatch  bool `json:"balance_mismatch"`
	TypeCorrected    bool `json:"type_corrected"`
	InvalidStructure bool `json:"invalid_structure"`
}

// Flagged reports whether any provenance flag is set on the row.
func (r Row) Flagged() bool {
	return r.BalanceMismatch || r.TypeCorrected || r.InvalidStructure
}

// IsOpeningBalance reports whether the row is an opening-balance row:
// zero amount, no type, and an opening-balance description.
func (r Row) IsOpeningBalance() bool {
	return r.Type == nil && r.Amount != nil && *r.Amount == 0 &&
		IsOpeningBalanceDescription(r.Description)
}

// IsOpeningBalanceDescription matches statement lines that carry only the
// brought-forward balance, e.g. "OPENING BALANCE" or "B/F Opening Balance".
func IsOpeningBalanceDescription(desc string) bool {
	return strings.Contains(strings.ToUpper(desc), "OPENING BALANCE")
}

// CollectFlags builds the compact flag list for every flagged row.
func CollectFlags(rows []Row) []RowFlag {
	var flags []RowFlag
	for i, r := range rows {
		if !r.Flagged() {
			continue
		}
		flags = append(flags, RowFlag{
			RowIndex:         i,
			BalanceMismatch:  r.BalanceMismatch,
			TypeCorrected:    r.TypeCorrected,
			InvalidStructure: r.InvalidStructure,
		})
	}
	return flags
}

// formatFloat renders a decimal in its natural text form (no exponent, no
// trailing zeros beyond what the value carries).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FieldText returns the textual representation of a named row field, with
// null rendered as the empty string. It is the comparison form used by the
// feedback diff and the CSV artifact.
func (r Row) FieldText(field string) string {
	switch field {
	case "date":
		return r.Date
	case "description":
		return r.Description
	case "amount":
		if r.Amount == nil {
			return ""
		}
		return formatFloat(*r.Amount)
	case "type":
		if r.Type == nil {
			return ""
		}
		return string(*r.Type)
	case "running_balance":
		if r.RunningBalance == nil {
			return ""
		}
		return formatFloat(*r.RunningBalance)
	}
	return ""
}
